// Command olesh drives an Automation object model from Starlark scripts.
//
//	olesh --model excel.yaml script.star
//	olesh --model excel.yaml            # REPL on a terminal, script on stdin otherwise
//	olesh run --watch --model excel.yaml script.star
//	olesh describe --model excel.yaml
//	olesh test testdata/
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/feather-lang/automation/harness"
)

var errTestsFailed = errors.New("tests failed")

func main() {
	if err := newRootCommand(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var opts Options

	cmd := &cobra.Command{
		Use:          "olesh [flags] [script]",
		Short:        "Script an Automation object model",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := NewSession(opts, stdout, stderr)
			if err != nil {
				return err
			}
			defer s.Close()
			if os.Getenv(harness.EnvInHarness) == "1" {
				defer func() { reportToHarness(s, err) }()
			}

			if len(args) == 1 {
				return s.Run(args[0], nil)
			}
			if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
				return runREPL(s, stdout)
			}
			return s.Run("<stdin>", stdin)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "YAML config file")
	flags.StringVar(&opts.ModelPath, "model", "", "YAML object model")
	flags.StringVar(&opts.RootName, "root", "app", "global name of the root object")
	flags.StringVar(&opts.LogLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.StringVar(&opts.CodePage, "codepage", "", "provider code page, e.g. windows-1252")

	cmd.AddCommand(newRunCommand(&opts, stdout, stderr))
	cmd.AddCommand(newDescribeCommand(&opts, stdout, stderr))
	cmd.AddCommand(newTestCommand(&opts, stdout, stderr))
	return cmd
}

func newRunCommand(opts *Options, stdout, stderr io.Writer) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "run [flags] script",
		Short: "Run a script, optionally re-running it when it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !watch {
				return runOnce(*opts, args[0], stdout, stderr)
			}
			return runWatch(cmd.Context(), *opts, args[0], stdout, stderr)
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-run the script whenever it or the model changes")
	return cmd
}

func newDescribeCommand(opts *Options, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "List the members of the root object",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := NewSession(*opts, stdout, stderr)
			if err != nil {
				return err
			}
			defer s.Close()
			for _, line := range s.Members() {
				fmt.Fprintln(stdout, line)
			}
			return nil
		},
	}
}

func newTestCommand(opts *Options, stdout, stderr io.Writer) *cobra.Command {
	var (
		hostPath string
		pattern  string
		verbose  bool
		list     bool
	)

	cmd := &cobra.Command{
		Use:   "test [flags] <test-files-or-dirs>...",
		Short: "Run golden test suites against their object models",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := harness.Config{
				Host:        sessionHost{opts: *opts},
				TestPaths:   args,
				NamePattern: pattern,
				Output:      stdout,
				ErrOutput:   stderr,
				Verbose:     verbose,
			}
			if hostPath != "" {
				cfg.Host = &harness.ProcessHost{Path: hostPath}
			}

			var code int
			if list {
				code = harness.List(cfg)
			} else {
				code = harness.Run(cmd.Context(), cfg)
			}
			if code != 0 {
				return errTestsFailed
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&hostPath, "host", "", "run each case in this host executable instead of in-process")
	flags.StringVarP(&pattern, "run", "r", "", "only run tests whose \"suite > test\" name matches this regexp")
	flags.BoolVarP(&verbose, "verbose", "v", false, "list passing tests too")
	flags.BoolVar(&list, "list", false, "list the selected tests without running them")
	return cmd
}

func runOnce(opts Options, script string, stdout, stderr io.Writer) error {
	s, err := NewSession(opts, stdout, stderr)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Run(script, nil)
}
