package repl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"scopevm/internal/runner"
	"scopevm/pkg/color"
	"scopevm/pkg/parser"

	"github.com/peterh/liner"
)

const (
	promptMain  = "svm> "
	promptBody  = "...> "
	historyFile = ".scopevm_history"
)

const help = `Enter program lines; they are buffered until :run.
  :run     analyze and execute the buffered program
  :list    show the buffered program
  :reset   clear the buffer
  :example load the example program
  :quit    exit`

// Session holds the buffered program between prompts
type Session struct {
	runner *runner.Runner
	out    io.Writer
	lines  []string
}

// NewSession creates a session running programs with r
func NewSession(r *runner.Runner, out io.Writer) *Session {
	return &Session{runner: r, out: out}
}

// Source returns the buffered program
func (s *Session) Source() string {
	return strings.Join(s.lines, "\n")
}

// InBody reports whether the buffer ends inside an unclosed function body
func (s *Session) InBody() bool {
	prog, _ := parser.Parse(s.Source())
	for _, st := range prog.Statements {
		if st.Kind == parser.FuncStart && st.Match >= prog.Len() {
			return true
		}
	}
	return false
}

// Handle processes one input line and reports whether the session should end
func (s *Session) Handle(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, ":") {
		s.lines = append(s.lines, line)
		return false
	}

	switch strings.ToLower(trimmed) {
	case ":quit", ":q":
		return true
	case ":run":
		if _, err := s.runner.Run(s.Source()); err != nil {
			fmt.Fprintln(s.out, color.Error(err.Error()))
		}
	case ":list":
		for i, l := range s.lines {
			fmt.Fprintf(s.out, "%s  %s\n", color.GrayText(fmt.Sprintf("%3d", i)), l)
		}
	case ":reset":
		s.lines = nil
	case ":example":
		s.lines = strings.Split(strings.TrimSpace(runner.ExampleProgram), "\n")
	case ":help":
		fmt.Fprintln(s.out, help)
	default:
		fmt.Fprintln(s.out, "unknown command. Type :help for commands.")
	}

	return false
}

// Run starts the interactive loop on the terminal
func Run(r *runner.Runner) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	s := NewSession(r, os.Stdout)
	fmt.Println(color.BoldText("scopevm") + " " + color.GrayText("(:help for commands)"))

	for {
		prompt := promptMain
		if s.InBody() {
			prompt = promptBody
		}

		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println()
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
		if s.Handle(line) {
			return nil
		}
	}
}
