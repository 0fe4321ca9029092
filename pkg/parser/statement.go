package parser

import (
	"fmt"
	"scopevm/pkg/lexer"
)

type StmtKind int

const (
	Blank     StmtKind = iota // empty or comment-only line
	Declare                   // var <name>
	Assign                    // <name> = <literal>
	FuncStart                 // func <name> {
	FuncEnd                   // } closing a function body
	Call                      // <name>()
	Invalid                   // any other line shape
)

var stmtNames = map[StmtKind]string{
	Blank:     "blank",
	Declare:   "declare",
	Assign:    "assign",
	FuncStart: "func_start",
	FuncEnd:   "func_end",
	Call:      "call",
	Invalid:   "invalid",
}

func (k StmtKind) String() string {
	if s, ok := stmtNames[k]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN(%d)", int(k))
}

// Statement is one parsed source line. Statement i always comes from line i.
type Statement struct {
	Kind     StmtKind
	Line     int            // 0-based line index
	Pos      lexer.Position // position of the first token
	Name     string         // declared, assigned, defined or called name
	NamePos  lexer.Position // position of the name token
	Literal  string         // raw right-hand side of an Assign
	Match    int            // FuncStart: index of its FuncEnd; FuncEnd: index of its FuncStart
	Reason   string         // why an Invalid line was rejected, or why a header is unclosed
	Unclosed bool           // FuncStart whose body runs to the end of the program
	Text     string         // trimmed source text
}

// String returns a compact representation used in traces
func (s Statement) String() string {
	switch s.Kind {
	case Declare:
		return fmt.Sprintf("%d: var %s", s.Line, s.Name)
	case Assign:
		return fmt.Sprintf("%d: %s = %s", s.Line, s.Name, s.Literal)
	case FuncStart:
		return fmt.Sprintf("%d: func %s (end %d)", s.Line, s.Name, s.Match)
	case FuncEnd:
		return fmt.Sprintf("%d: end (func %d)", s.Line, s.Match)
	case Call:
		return fmt.Sprintf("%d: call %s", s.Line, s.Name)
	case Invalid:
		return fmt.Sprintf("%d: invalid %q: %s", s.Line, s.Text, s.Reason)
	default:
		return fmt.Sprintf("%d: %s", s.Line, s.Kind)
	}
}

// Program is the statement list shared by the analyzer and the interpreter
type Program struct {
	Statements []Statement
}

// Len returns the number of statements (source lines)
func (p *Program) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Statements)
}

// At returns the statement at index i
func (p *Program) At(i int) Statement {
	return p.Statements[i]
}
