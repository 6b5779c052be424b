//go:build !windows

package automation

func defaultCodePage() string {
	return "utf-8"
}
