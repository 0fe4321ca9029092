package parser

import (
	"fmt"
	"scopevm/pkg/color"
	"scopevm/pkg/lexer"
)

// addError records a parsing error with location
func (p *Parser) addError(pos lexer.Position, msg string) {
	formatted := color.RedText(msg) + " at " + color.YellowText(fmt.Sprintf("Line: %d, Column %d", pos.Line, pos.Column))
	p.errors = append(p.errors, formatted)
}

// Errors returns the list of parsing errors
func (p *Parser) Errors() []string {
	return p.errors
}

// categorizeError provides a specific error message for a line that matches no shape
func (p *Parser) categorizeError(toks []lexer.Token) string {
	first := toks[0]

	switch first.Type {
	case lexer.ID:
		if len(toks) == 1 {
			return "Missing parentheses in call to `" + first.Lexeme + "`"
		}
		return "Missing assignment operator"
	case lexer.CALL:
		return "Unexpected token `" + toks[1].Lexeme + "` after call"
	case lexer.ASSIGN:
		return "Missing identifier"
	case lexer.NUM:
		return "Unexpected number `" + first.Lexeme + "`"
	case lexer.LBRACE:
		return "Unexpected opening brace"
	}

	return "Syntax error"
}
