package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/feather-lang/automation"
	"github.com/feather-lang/automation/fixture"
	"github.com/feather-lang/automation/starhost"
)

// Options are the flags shared by every command.
type Options struct {
	ConfigPath string
	ModelPath  string
	RootName   string
	LogLevel   string
	CodePage   string
}

// Session is one loaded object model with a Starlark environment on top.
type Session struct {
	model  *fixture.Object
	bridge *automation.Bridge
	host   *starhost.Host
	thread *starlark.Thread
	env    starlark.StringDict
	log    *slog.Logger
	out    io.Writer
}

// NewSession loads the config and the model. Script output goes to out,
// logs to errOut.
func NewSession(opts Options, out, errOut io.Writer) (*Session, error) {
	cfg := &automation.Config{}
	if opts.ConfigPath != "" {
		var err error
		if cfg, err = automation.LoadConfig(opts.ConfigPath); err != nil {
			return nil, err
		}
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.CodePage != "" {
		cfg.CodePage = opts.CodePage
	}
	bopts, err := cfg.Options(errOut)
	if err != nil {
		return nil, err
	}
	b, err := automation.New(bopts...)
	if err != nil {
		return nil, err
	}
	if opts.ModelPath == "" {
		return nil, errors.New("no object model given (use --model)")
	}
	model, err := fixture.Load(opts.ModelPath, b.Converter().Location())
	if err != nil {
		return nil, err
	}
	root := opts.RootName
	if root == "" {
		root = "app"
	}

	s := &Session{
		model:  model,
		bridge: b,
		host:   starhost.NewHost(b.Logger()),
		log:    b.Logger(),
		out:    out,
	}
	s.thread = &starlark.Thread{
		Name:  "olesh",
		Print: func(_ *starlark.Thread, msg string) { fmt.Fprintln(s.out, msg) },
	}
	s.env = s.host.Predeclared(b.Wrap(automation.NewDispatch(model)), root)
	return s, nil
}

// Close releases every object the scripts touched.
func (s *Session) Close() error {
	return s.host.Close()
}

// Run executes a script file, or src when it is not nil.
func (s *Session) Run(filename string, src any) error {
	_, err := s.host.Exec(s.thread, filename, src, s.env)
	return err
}

// Eval runs one REPL input. Expressions are evaluated and their value
// returned; anything else is executed as statements, and the globals it
// defines stay visible to later inputs.
func (s *Session) Eval(input string) (starlark.Value, error) {
	v, err := s.host.Eval(s.thread, input, s.env)
	var serr syntax.Error
	if err == nil || !errors.As(err, &serr) {
		return v, err
	}
	globals, err := s.host.Exec(s.thread, "<stdin>", input, s.env)
	for name, g := range globals {
		s.env[name] = g
	}
	return starlark.None, err
}

// Calls formats the provider calls recorded so far.
func (s *Session) Calls() []string {
	calls := s.model.Recorder().Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = formatCall(c)
	}
	return lines
}

// ResetCalls forgets the recorded calls.
func (s *Session) ResetCalls() {
	s.model.Recorder().Reset()
}

// Members lists the root object's members as "name kind" lines.
func (s *Session) Members() []string {
	v := automation.NewDispatch(s.model)
	s.model.AddRef()
	defer v.Clear()

	members := automation.DescribeMembers(v, s.log)
	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	sort.Strings(names)
	lines := make([]string, len(names))
	for i, name := range names {
		lines[i] = fmt.Sprintf("%-24s %s", name, members[name])
	}
	return lines
}

func formatCall(c fixture.Call) string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s %s.%s(%s)", c.Op, c.Object, c.Member, strings.Join(args, ", "))
}
