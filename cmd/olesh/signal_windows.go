//go:build windows

package main

import (
	"os"
)

func stopSignals() []os.Signal {
	// only Ctrl+C is delivered to console programs
	return []os.Signal{os.Interrupt}
}
