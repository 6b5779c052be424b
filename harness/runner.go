package harness

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// EnvInHarness is set to "1" in the environment of a host process started
// by ProcessHost. Such a host reports on file descriptor 3, one line per
// item: "call: <call>" for every provider call and "error: <message>" if
// the script failed.
const EnvInHarness = "OLESH_IN_HARNESS"

// Host runs one test case against the object model at model.
type Host interface {
	RunCase(ctx context.Context, model string, tc TestCase) (ActualResult, error)
}

// ActualResult captures what actually happened when the test ran.
type ActualResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Calls    []string
	Error    string
}

// TestResult holds the outcome of running a single test case.
type TestResult struct {
	TestCase TestCase
	Passed   bool
	Actual   ActualResult
	Failures []string
}

// Runner executes test suites against a host.
type Runner struct {
	Host Host
}

// NewRunner creates a new test runner for the given host.
func NewRunner(host Host) *Runner {
	return &Runner{Host: host}
}

// RunSuite executes all test cases in a suite and returns the results.
func (r *Runner) RunSuite(ctx context.Context, suite *TestSuite) []TestResult {
	results := make([]TestResult, 0, len(suite.Cases))
	for _, tc := range suite.Cases {
		if tc.Timeout == 0 {
			tc.Timeout = suite.Timeout
		}
		results = append(results, r.RunTest(ctx, suite.Model, tc))
	}
	return results
}

// RunTest executes a single test case and returns the result.
func (r *Runner) RunTest(ctx context.Context, model string, tc TestCase) TestResult {
	result := TestResult{
		TestCase: tc,
		Passed:   true,
	}

	actual, err := r.Host.RunCase(ctx, model, tc)
	if err != nil {
		result.Passed = false
		result.Failures = append(result.Failures, fmt.Sprintf("failed to run host: %v", err))
		return result
	}
	actual.Stdout = normalizeLines(actual.Stdout)
	actual.Stderr = normalizeLines(actual.Stderr)
	result.Actual = actual

	if tc.Stdout != actual.Stdout {
		result.fail("stdout mismatch:\n  expected: %q\n  actual:   %q", tc.Stdout, actual.Stdout)
	}

	if tc.StderrSet && tc.Stderr != actual.Stderr {
		result.fail("stderr mismatch:\n  expected: %q\n  actual:   %q", tc.Stderr, actual.Stderr)
	}

	if tc.ExitCode != actual.ExitCode {
		result.fail("exit code mismatch:\n  expected: %d\n  actual:   %d", tc.ExitCode, actual.ExitCode)
	}

	if tc.Error != "" && !strings.Contains(actual.Error, tc.Error) {
		result.fail("error mismatch:\n  expected: %q\n  actual:   %q", tc.Error, actual.Error)
	}

	if tc.CallsSet && strings.Join(tc.Calls, "\n") != strings.Join(actual.Calls, "\n") {
		result.fail("calls mismatch:\n  expected:\n    %s\n  actual:\n    %s",
			strings.Join(tc.Calls, "\n    "), strings.Join(actual.Calls, "\n    "))
	}

	return result
}

func (r *TestResult) fail(format string, args ...any) {
	r.Passed = false
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
}

// ProcessHost runs each test case in a fresh host process: the script goes
// to stdin and the model path follows Args as "--model <path>".
type ProcessHost struct {
	Path string
	Args []string
}

// RunCase implements Host.
func (h *ProcessHost) RunCase(ctx context.Context, model string, tc TestCase) (ActualResult, error) {
	var actual ActualResult
	timeout := tc.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Create a pipe for the harness communication channel (fd 3)
	harnessReader, harnessWriter, err := os.Pipe()
	if err != nil {
		return actual, fmt.Errorf("failed to create pipe: %w", err)
	}
	defer harnessReader.Close()

	args := append(append([]string{}, h.Args...), "--model", model)
	cmd := exec.CommandContext(ctx, h.Path, args...)
	cmd.Stdin = strings.NewReader(tc.Script)
	cmd.Env = append(os.Environ(), EnvInHarness+"=1")
	cmd.ExtraFiles = []*os.File{harnessWriter}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		harnessWriter.Close()
		return actual, err
	}

	// Close the write end in the parent so we can read EOF
	harnessWriter.Close()
	actual.Calls, actual.Error = parseHarnessOutput(harnessReader)

	err = cmd.Wait()
	actual.Stdout = stdout.String()
	actual.Stderr = stderr.String()
	if ctx.Err() == context.DeadlineExceeded {
		return actual, fmt.Errorf("timed out after %v", timeout)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		actual.ExitCode = exitErr.ExitCode()
	} else if err != nil {
		return actual, err
	}
	return actual, nil
}

// parseHarnessOutput reads the harness channel until EOF.
func parseHarnessOutput(r io.Reader) (calls []string, errMsg string) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if call, ok := strings.CutPrefix(line, "call: "); ok {
			calls = append(calls, call)
		} else if msg, ok := strings.CutPrefix(line, "error: "); ok {
			errMsg = msg
		}
	}
	return calls, errMsg
}

// Summary holds aggregate statistics about a test run.
type Summary struct {
	Total  int
	Passed int
	Failed int
}

// Summarize calculates summary statistics from test results.
func Summarize(results []TestResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Passed {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}

// normalizeLines trims trailing whitespace from every line and surrounding
// blank lines from the whole.
func normalizeLines(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
