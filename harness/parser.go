package harness

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// xmlTestSuite mirrors the XML structure for parsing.
type xmlTestSuite struct {
	XMLName   xml.Name      `xml:"test-suite"`
	Name      string        `xml:"name,attr"`
	Model     string        `xml:"model,attr"`
	Timeout   string        `xml:"timeout,attr"`
	TestCases []xmlTestCase `xml:"test-case"`
}

type xmlTestCase struct {
	Name     string  `xml:"name,attr"`
	Timeout  string  `xml:"timeout,attr"`
	Script   string  `xml:"script"`
	Error    string  `xml:"error"`
	Stdout   string  `xml:"stdout"`
	Stderr   *string `xml:"stderr"`
	Calls    *string `xml:"calls"`
	ExitCode string  `xml:"exit-code"`
}

// ParseFile parses a test suite from the given file path. The suite's model
// path is made relative to the file's directory, and its name defaults to
// the file name without extension.
func ParseFile(path string) (*TestSuite, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	suite, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	suite.Path = path
	if suite.Name == "" {
		suite.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if suite.Model != "" && !filepath.IsAbs(suite.Model) {
		suite.Model = filepath.Join(filepath.Dir(path), suite.Model)
	}
	return suite, nil
}

// Parse parses a test suite from the given reader.
func Parse(r io.Reader) (*TestSuite, error) {
	var xs xmlTestSuite
	decoder := xml.NewDecoder(r)
	if err := decoder.Decode(&xs); err != nil {
		return nil, err
	}

	suite := &TestSuite{
		Name:  xs.Name,
		Model: strings.TrimSpace(xs.Model),
		Cases: make([]TestCase, 0, len(xs.TestCases)),
	}
	var err error
	if suite.Timeout, err = parseTimeout(xs.Timeout); err != nil {
		return nil, err
	}

	for _, xtc := range xs.TestCases {
		exitCode := 0
		if xtc.ExitCode != "" {
			exitCode, err = strconv.Atoi(strings.TrimSpace(xtc.ExitCode))
			if err != nil {
				return nil, fmt.Errorf("test %q: %w", xtc.Name, err)
			}
		}
		timeout, err := parseTimeout(xtc.Timeout)
		if err != nil {
			return nil, fmt.Errorf("test %q: %w", xtc.Name, err)
		}

		tc := TestCase{
			Name:     xtc.Name,
			Script:   dedent(xtc.Script),
			Error:    strings.TrimSpace(xtc.Error),
			Stdout:   strings.TrimSpace(xtc.Stdout),
			ExitCode: exitCode,
			Timeout:  timeout,
		}
		if xtc.Stderr != nil {
			tc.Stderr = strings.TrimSpace(*xtc.Stderr)
			tc.StderrSet = true
		}
		if xtc.Calls != nil {
			tc.Calls = splitLines(*xtc.Calls)
			tc.CallsSet = true
		}
		suite.Cases = append(suite.Cases, tc)
	}

	return suite, nil
}

func parseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q", s)
	}
	return d, nil
}

// splitLines returns the non-blank lines of s, trimmed.
func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// dedent strips blank leading and trailing lines and the indentation the
// first line shares with the rest, so scripts can be indented in the file.
func dedent(s string) string {
	lines := strings.Split(s, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return ""
	}
	indent := lines[0][:len(lines[0])-len(strings.TrimLeft(lines[0], " \t"))]
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, indent)
	}
	return strings.Join(lines, "\n") + "\n"
}
