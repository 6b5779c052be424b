//go:build windows

package automation

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// defaultCodePage maps the process ANSI code page to an encoding name.
func defaultCodePage() string {
	return codePageName(windows.GetACP())
}

func codePageName(acp uint32) string {
	switch acp {
	case 65001:
		return "utf-8"
	case 874:
		return "windows-874"
	case 932:
		return "shift_jis"
	case 936:
		return "gbk"
	case 949:
		return "euc-kr"
	case 950:
		return "big5"
	case 1250, 1251, 1252, 1253, 1254, 1255, 1256, 1257, 1258:
		return fmt.Sprintf("windows-%d", acp)
	}
	return "windows-1252"
}
