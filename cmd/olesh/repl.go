package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"go.starlark.net/starlark"

	"github.com/feather-lang/automation"
)

const (
	prompt             = ">>> "
	continuationPrompt = "... "
)

func runREPL(s *Session, out io.Writer) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(func(input string) []string {
		return completions(s, input)
	})

	historyFile := filepath.Join(os.TempDir(), ".olesh_history")
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintln(out, "Type ':help' for commands, Ctrl+D to quit")

	var buf strings.Builder
	for {
		p := prompt
		if buf.Len() > 0 {
			p = continuationPrompt
		}
		input, err := line.Prompt(p)
		if err == liner.ErrPromptAborted {
			buf.Reset()
			fmt.Fprintln(out, "^C")
			continue
		}
		if err == io.EOF {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(input)
		if buf.Len() == 0 && strings.HasPrefix(trimmed, ":") {
			if quit := replCommand(s, trimmed, out); quit {
				return nil
			}
			continue
		}
		if buf.Len() == 0 && trimmed == "" {
			continue
		}

		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(input)
		full := buf.String()
		if needsMoreInput(full, trimmed) {
			continue
		}
		buf.Reset()
		line.AppendHistory(full)

		v, err := s.Eval(full)
		if err != nil {
			printError(out, err)
			continue
		}
		if v != nil && v != starlark.None {
			fmt.Fprintln(out, v.String())
		}
	}
}

func printError(out io.Writer, err error) {
	if evalErr, ok := err.(*starlark.EvalError); ok {
		fmt.Fprintln(out, evalErr.Backtrace())
		return
	}
	fmt.Fprintf(out, "error: %v\n", err)
}

// replCommand handles a ':' command and reports whether to quit.
func replCommand(s *Session, cmd string, out io.Writer) bool {
	switch cmd {
	case ":quit", ":q", ":exit":
		return true
	case ":calls":
		for _, c := range s.Calls() {
			fmt.Fprintln(out, c)
		}
	case ":reset":
		s.ResetCalls()
	case ":members":
		for _, m := range s.Members() {
			fmt.Fprintln(out, m)
		}
	case ":help":
		fmt.Fprintln(out, `:calls     show the provider calls made so far
:reset     forget recorded calls
:members   list the root object's members
:quit      leave`)
	default:
		fmt.Fprintf(out, "unknown command %s (try :help)\n", cmd)
	}
	return false
}

// needsMoreInput reports whether the buffered input is an unfinished
// statement: open brackets, a block header, or a block still being typed
// (ended by an empty line).
func needsMoreInput(full, last string) bool {
	depth := 0
	var quote rune
	for _, r := range full {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(' || r == '[' || r == '{':
			depth++
		case r == ')' || r == ']' || r == '}':
			depth--
		}
	}
	if depth > 0 {
		return true
	}
	if strings.HasSuffix(last, ":") {
		return true
	}
	// inside a block, an empty line ends it
	return strings.Contains(full, "\n") && last != ""
}

func completions(s *Session, input string) []string {
	i := strings.LastIndexAny(input, " ([{,=")
	head, word := input[:i+1], input[i+1:]
	var candidates []string
	if dot := strings.LastIndex(word, "."); dot >= 0 {
		prefix := word[:dot+1]
		for _, name := range automation.IntrinsicNames() {
			candidates = append(candidates, prefix+name)
		}
		for _, m := range s.Members() {
			candidates = append(candidates, prefix+strings.Fields(m)[0])
		}
	} else {
		for name := range s.env {
			candidates = append(candidates, name)
		}
	}
	var out []string
	for _, c := range candidates {
		if strings.HasPrefix(c, word) {
			out = append(out, head+c)
		}
	}
	return out
}
