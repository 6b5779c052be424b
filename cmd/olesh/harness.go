package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/feather-lang/automation/harness"
)

// sessionHost runs test cases in-process, one fresh session per case.
type sessionHost struct {
	opts Options
}

func (h sessionHost) RunCase(_ context.Context, model string, tc harness.TestCase) (harness.ActualResult, error) {
	var actual harness.ActualResult
	opts := h.opts
	opts.ModelPath = model

	var stdout, stderr bytes.Buffer
	s, err := NewSession(opts, &stdout, &stderr)
	if err != nil {
		return actual, err
	}
	defer s.Close()

	if err := s.Run("<test>", tc.Script); err != nil {
		actual.ExitCode = 1
		actual.Error = oneLine(err.Error())
	}
	actual.Stdout = stdout.String()
	actual.Stderr = stderr.String()
	actual.Calls = s.Calls()
	return actual, nil
}

// reportToHarness writes the session's calls and the script error to the
// harness channel on fd 3.
func reportToHarness(s *Session, runErr error) {
	f := os.NewFile(3, "harness")
	if f == nil {
		return
	}
	defer f.Close()
	for _, c := range s.Calls() {
		fmt.Fprintf(f, "call: %s\n", c)
	}
	if runErr != nil {
		fmt.Fprintf(f, "error: %s\n", oneLine(runErr.Error()))
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
