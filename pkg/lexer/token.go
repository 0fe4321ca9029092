package lexer

import (
	"fmt"
)

type TokenType int

type Token struct {
	Type   TokenType // Type of the token
	Lexeme string    // Actual string from source code
	Pos    Position  // Position in source code
}

// NewToken creates a new Token instance
func NewToken(tokenType TokenType, lexeme string, pos Position) Token {
	return Token{
		Type:   tokenType,
		Lexeme: lexeme,
		Pos:    pos,
	}
}

const (
	WORD TokenType = iota // anything that is not one of the shapes below

	VAR  // var
	FUNC // func

	ID   // identifier
	CALL // identifier followed by ()
	NUM  // integer literal

	ASSIGN // =
	LBRACE // {
	RBRACE // }
)

var Keywords = map[string]TokenType{
	"var":  VAR,
	"func": FUNC,
}

var tokenNames = map[TokenType]string{
	WORD:   "word",
	VAR:    "var",
	FUNC:   "func",
	ID:     "id",
	CALL:   "call",
	NUM:    "num",
	ASSIGN: "=",
	LBRACE: "{",
	RBRACE: "}",
}

// String returns a string representation of the Token
func (t Token) String() string {
	return fmt.Sprintf("T_{%s, %q, %s}", t.Type, t.Lexeme, t.Pos)
}

// Name returns the identifier part of an ID or CALL token
func (t Token) Name() string {
	if t.Type == CALL {
		return t.Lexeme[:len(t.Lexeme)-2]
	}

	return t.Lexeme
}

// String returns a string representation of the TokenType
func (t TokenType) String() string {
	if str, ok := tokenNames[t]; ok {
		return str
	}

	return fmt.Sprintf("UNKNOWN(%d)", int(t))
}

// IsKeyword checks if the given identifier is a keyword and returns its TokenType if it is
func IsKeyword(identifier string) (TokenType, bool) {
	tokenType, ok := Keywords[identifier]
	return tokenType, ok
}
