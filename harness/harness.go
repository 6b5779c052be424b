// Package harness runs golden test files against an Automation scripting
// host. A test file is an XML test suite naming an object model; each test
// case holds a script and the output, error, exit code and provider calls
// running it must produce:
//
//	<test-suite name="workbooks" model="excel.yaml">
//	  <test-case name="count">
//	    <script>print(app.Workbooks.Count)</script>
//	    <stdout>2</stdout>
//	    <calls>
//	      get Application.Workbooks()
//	      get Workbooks.Count()
//	    </calls>
//	  </test-case>
//	</test-suite>
package harness

import (
	"context"
	"fmt"
	"io"
	"regexp"
)

// Config holds the configuration for running the harness.
type Config struct {
	Host        Host
	TestPaths   []string
	NamePattern string // Go regex pattern to filter test names
	Output      io.Writer
	ErrOutput   io.Writer
	Verbose     bool
}

// testFullName returns the display name for a test case: "suite > test"
func testFullName(suite *TestSuite, tc *TestCase) string {
	return fmt.Sprintf("%s > %s", suite.Name, tc.Name)
}

// filter selects the cases of suite whose full name matches the configured
// pattern. If no pattern is set, all tests match.
func filter(cfg Config, suite *TestSuite) ([]TestCase, error) {
	if cfg.NamePattern == "" {
		return suite.Cases, nil
	}
	re, err := regexp.Compile(cfg.NamePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	var cases []TestCase
	for i := range suite.Cases {
		if re.MatchString(testFullName(suite, &suite.Cases[i])) {
			cases = append(cases, suite.Cases[i])
		}
	}
	return cases, nil
}

func loadSuites(cfg Config) ([]*TestSuite, error) {
	testFiles, err := CollectTestFiles(cfg.TestPaths)
	if err != nil {
		return nil, err
	}
	if len(testFiles) == 0 {
		return nil, fmt.Errorf("no test files found")
	}
	suites := make([]*TestSuite, 0, len(testFiles))
	for _, testFile := range testFiles {
		suite, err := ParseFile(testFile)
		if err != nil {
			return nil, err
		}
		if suite.Cases, err = filter(cfg, suite); err != nil {
			return nil, err
		}
		suites = append(suites, suite)
	}
	return suites, nil
}

// List prints all test case names from the given paths, one per line.
// Returns 0 on success, 1 on error.
func List(cfg Config) int {
	suites, err := loadSuites(cfg)
	if err != nil {
		fmt.Fprintf(cfg.ErrOutput, "error: %v\n", err)
		return 1
	}
	for _, suite := range suites {
		for i := range suite.Cases {
			fmt.Fprintln(cfg.Output, testFullName(suite, &suite.Cases[i]))
		}
	}
	return 0
}

// Run executes the test harness with the given configuration.
// Returns 0 when every selected test passed, 1 otherwise.
func Run(ctx context.Context, cfg Config) int {
	suites, err := loadSuites(cfg)
	if err != nil {
		fmt.Fprintf(cfg.ErrOutput, "error: %v\n", err)
		return 1
	}

	runner := NewRunner(cfg.Host)
	reporter := NewReporter(cfg.Output, cfg.Verbose)
	var allResults []TestResult
	for _, suite := range suites {
		if suite.Model == "" {
			fmt.Fprintf(cfg.ErrOutput, "error: %s: suite has no model\n", suite.Path)
			return 1
		}
		results := runner.RunSuite(ctx, suite)
		allResults = append(allResults, results...)
		for _, result := range results {
			reporter.ReportResult(suite.Path, result)
		}
	}

	summary := Summarize(allResults)
	reporter.ReportSummary(summary)

	if summary.Failed > 0 {
		return 1
	}
	return 0
}
