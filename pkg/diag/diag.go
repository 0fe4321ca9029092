package diag

import (
	"fmt"
	"scopevm/pkg/lexer"
	"strings"

	"github.com/charmbracelet/log"
)

type Kind string

// Diagnostic kinds reported by the analyzer and the interpreter
const (
	DuplicateDeclaration Kind = "DuplicateDeclaration"
	UnknownIdentifier    Kind = "UnknownIdentifier"
	MalformedLiteral     Kind = "MalformedLiteral"
	SyntaxError          Kind = "SyntaxError"
	LocalsCleared        Kind = "LocalsCleared"
	StackOverflow        Kind = "StackOverflow"

	// internal consistency errors, never expected for a cleanly analyzed program
	EmptyCallStack         Kind = "EmptyCallStack"
	MissingActivationFrame Kind = "MissingActivationFrame"
)

type Severity int

const (
	Error Severity = iota
	Info
)

func (s Severity) String() string {
	if s == Info {
		return "info"
	}
	return "error"
}

type Subject int

const (
	None Subject = iota
	Variable
	Function
)

func (s Subject) String() string {
	switch s {
	case Variable:
		return "variable"
	case Function:
		return "function"
	default:
		return ""
	}
}

// Diagnostic is a single non-fatal event reported by a phase
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Subject  Subject
	Line     int            // 0-based line index
	Pos      lexer.Position // position of the offending token
	Name     string         // offending identifier, if any
	Names    []string       // names involved (LocalsCleared)
	Message  string
}

// String renders the diagnostic without colors
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s at %s: %s", d.Severity, d.Kind, d.Pos, d.Message)
}

// Sink collects diagnostics in emission order and mirrors them to the logger
type Sink struct {
	phase  string
	logger *log.Logger
	items  []Diagnostic
}

// NewSink creates a sink for the named phase ("analyze", "execute").
// A nil logger uses the default logger.
func NewSink(phase string, logger *log.Logger) *Sink {
	if logger == nil {
		logger = log.Default()
	}

	return &Sink{
		phase:  phase,
		logger: logger.WithPrefix(strings.ToUpper(phase)),
	}
}

// Add records a diagnostic
func (s *Sink) Add(d Diagnostic) {
	s.items = append(s.items, d)
	s.logger.Debug(d.Message, "kind", d.Kind, "severity", d.Severity, "line", d.Line, "pos", d.Pos.String())
}

// Errorf records an error-severity diagnostic
func (s *Sink) Errorf(kind Kind, subject Subject, line int, pos lexer.Position, name, format string, args ...any) {
	s.Add(Diagnostic{
		Kind:     kind,
		Severity: Error,
		Subject:  subject,
		Line:     line,
		Pos:      pos,
		Name:     name,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Infof records an informational diagnostic
func (s *Sink) Infof(kind Kind, line int, pos lexer.Position, names []string, format string, args ...any) {
	s.Add(Diagnostic{
		Kind:     kind,
		Severity: Info,
		Line:     line,
		Pos:      pos,
		Names:    append([]string(nil), names...),
		Message:  fmt.Sprintf(format, args...),
	})
}

// Diagnostics returns a copy of everything recorded so far
func (s *Sink) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), s.items...)
}

// Reset drops all recorded diagnostics
func (s *Sink) Reset() {
	s.items = nil
}

// CountErrors counts error-severity diagnostics
func CountErrors(ds []Diagnostic) int {
	n := 0
	for _, d := range ds {
		if d.Severity == Error {
			n++
		}
	}
	return n
}

// OfKind filters diagnostics by kind
func OfKind(ds []Diagnostic, kind Kind) []Diagnostic {
	var out []Diagnostic
	for _, d := range ds {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}
