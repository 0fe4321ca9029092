package parser

import (
	"scopevm/pkg/lexer"
	"scopevm/pkg/stack"
)

type Parser struct {
	lines  []lexer.Line      // tokenized source lines
	open   *stack.Stack[int] // indices of open function headers
	stmts  []Statement       // parsed statements, one per line
	errors []string          // list of errors
}

// NewParser creates a new parser instance
func NewParser(lines []lexer.Line) *Parser {
	return &Parser{
		lines:  lines,
		open:   stack.NewStack[int](),
		stmts:  make([]Statement, 0, len(lines)),
		errors: []string{},
	}
}

// Parse tokenizes and parses source in one go
func Parse(source string) (*Program, []string) {
	p := NewParser(lexer.Tokenize(source))
	prog := p.Parse()
	return prog, p.Errors()
}

// Parse turns every line into a statement and matches function bodies
func (p *Parser) Parse() *Program {
	for _, line := range p.lines {
		p.stmts = append(p.stmts, p.parseLine(line))
	}

	// headers still open at the end run to the end of the program
	for p.open.Size() > 0 {
		idx, _ := p.open.Pop()
		msg := "Missing closing brace for function `" + p.stmts[idx].Name + "`"
		p.stmts[idx].Unclosed = true
		p.stmts[idx].Reason = msg
		p.addError(p.stmts[idx].Pos, msg)
	}

	return &Program{Statements: p.stmts}
}

// parseLine matches a line against the known statement shapes
func (p *Parser) parseLine(line lexer.Line) Statement {
	st := Statement{Kind: Blank, Line: line.Index, Text: line.Text}
	if line.IsBlank() {
		return st
	}

	toks := line.Tokens
	st.Pos = toks[0].Pos

	switch toks[0].Type {
	case lexer.VAR:
		return p.parseDeclare(st, toks)
	case lexer.FUNC:
		return p.parseFuncStart(st, toks)
	case lexer.RBRACE:
		return p.parseFuncEnd(st, toks)
	case lexer.CALL:
		if len(toks) == 1 {
			st.Kind = Call
			st.Name = toks[0].Name()
			st.NamePos = toks[0].Pos
			return st
		}
	case lexer.ID:
		return p.parseAssign(st, toks)
	}

	return p.invalid(st, toks[0].Pos, p.categorizeError(toks))
}

// parseDeclare handles `var <name>`
func (p *Parser) parseDeclare(st Statement, toks []lexer.Token) Statement {
	switch {
	case len(toks) == 1:
		return p.invalid(st, toks[0].Pos, "Missing identifier")
	case len(toks) > 2:
		return p.invalid(st, toks[2].Pos, "Unexpected token `"+toks[2].Lexeme+"` after declaration")
	}

	if msg, ok := p.checkName(toks[1]); !ok {
		return p.invalid(st, toks[1].Pos, msg)
	}

	st.Kind = Declare
	st.Name = toks[1].Lexeme
	st.NamePos = toks[1].Pos
	return st
}

// parseAssign handles `<name> = <literal>`; the literal is validated at runtime
func (p *Parser) parseAssign(st Statement, toks []lexer.Token) Statement {
	switch {
	case len(toks) < 2 || toks[1].Type != lexer.ASSIGN:
		return p.invalid(st, toks[0].Pos, p.categorizeError(toks))
	case len(toks) == 2:
		return p.invalid(st, toks[1].Pos, "Missing value")
	case len(toks) > 3:
		return p.invalid(st, toks[3].Pos, "Unexpected token `"+toks[3].Lexeme+"` after value")
	}

	st.Kind = Assign
	st.Name = toks[0].Lexeme
	st.NamePos = toks[0].Pos
	st.Literal = toks[2].Lexeme
	return st
}

// parseFuncStart handles `func <name> {` and `func <name>() {`
func (p *Parser) parseFuncStart(st Statement, toks []lexer.Token) Statement {
	if len(toks) < 2 {
		return p.invalid(st, toks[0].Pos, "Missing identifier")
	}

	name := toks[1]
	if name.Type == lexer.CALL {
		if _, ok := lexer.IsKeyword(name.Name()); ok {
			return p.invalid(st, name.Pos, "Cannot use reserved keyword as identifier")
		}
	} else if msg, ok := p.checkName(name); !ok {
		return p.invalid(st, name.Pos, msg)
	}

	switch {
	case len(toks) == 2:
		return p.invalid(st, name.Pos, "Missing opening brace")
	case toks[2].Type != lexer.LBRACE:
		return p.invalid(st, toks[2].Pos, "Missing opening brace")
	case len(toks) > 3:
		return p.invalid(st, toks[3].Pos, "Unexpected token `"+toks[3].Lexeme+"` after opening brace")
	}

	if outer, ok := p.open.Peek(); ok {
		return p.invalid(st, toks[0].Pos, "Nested function declaration inside `"+p.stmts[outer].Name+"`")
	}

	st.Kind = FuncStart
	st.Name = name.Name()
	st.NamePos = name.Pos
	st.Match = len(p.lines)
	p.open.Push(st.Line)
	return st
}

// parseFuncEnd handles `}` and links it with its header
func (p *Parser) parseFuncEnd(st Statement, toks []lexer.Token) Statement {
	if len(toks) > 1 {
		return p.invalid(st, toks[1].Pos, "Unexpected token `"+toks[1].Lexeme+"` after closing brace")
	}

	header, ok := p.open.Pop()
	if !ok {
		return p.invalid(st, toks[0].Pos, "Unmatched closing brace")
	}

	st.Kind = FuncEnd
	st.Name = p.stmts[header].Name
	st.Match = header
	p.stmts[header].Match = st.Line
	return st
}

// checkName validates an identifier token
func (p *Parser) checkName(tok lexer.Token) (string, bool) {
	if _, ok := lexer.IsKeyword(tok.Lexeme); ok {
		return "Cannot use reserved keyword as identifier", false
	}
	if tok.Type != lexer.ID {
		return "Expected identifier", false
	}
	return "", true
}

// invalid records an error and turns the statement into an Invalid one
func (p *Parser) invalid(st Statement, pos lexer.Position, msg string) Statement {
	st.Kind = Invalid
	st.Reason = msg
	p.addError(pos, msg)
	return st
}
