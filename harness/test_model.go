package harness

import "time"

// DefaultTimeout bounds a test case run by a ProcessHost when neither the
// case nor its suite sets one.
const DefaultTimeout = 5 * time.Second

// TestCase is a single script together with what running it against the
// suite's object model must produce.
type TestCase struct {
	Name      string
	Script    string
	Error     string // expected error message, compared when set
	Stdout    string
	Stderr    string
	StderrSet bool     // true if <stderr> was present in the test file
	Calls     []string // expected provider calls, compared when CallsSet
	CallsSet  bool
	ExitCode  int
	Timeout   time.Duration // 0 means use the suite's timeout
}

// TestSuite is one test file.
type TestSuite struct {
	Name    string
	Path    string
	Model   string // object model path, resolved against the suite's directory
	Cases   []TestCase
	Timeout time.Duration
}
