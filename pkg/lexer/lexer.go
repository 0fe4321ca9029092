package lexer

import "strings"

// Line is one trimmed source line split into tokens.
type Line struct {
	Index  int     // 0-based line index into the trimmed source
	Text   string  // trimmed line text, comments included
	Tokens []Token // whitespace-delimited tokens, comment stripped
}

// IsBlank reports whether the line carries no tokens
func (l Line) IsBlank() bool {
	return len(l.Tokens) == 0
}

type Lexer struct {
	input    string // trimmed input string to be tokenized
	length   int    // length of the input string
	position int    // current position in the input string
	line     int    // index of the next line to produce
}

// Create a new lexer instance. Surrounding whitespace of the whole source is
// dropped first, so line 0 is the first non-blank line.
func NewLexer(s string) *Lexer {
	input := strings.TrimSpace(s)
	return &Lexer{
		input:    input,
		length:   len(input),
		position: 0,
		line:     0,
	}
}

// Tokenize splits the whole source into lines
func Tokenize(source string) []Line {
	l := NewLexer(source)
	lines := make([]Line, 0, strings.Count(l.input, "\n")+1)
	for l.HasMore() {
		lines = append(lines, l.NextLine())
	}

	return lines
}

// NextLine returns the next source line
func (l *Lexer) NextLine() Line {
	start := l.position
	end := strings.IndexByte(l.input[start:], '\n')
	if end < 0 {
		end = l.length
	} else {
		end += start
	}

	raw := strings.TrimRight(l.input[start:end], "\r")
	line := Line{Index: l.line}

	// leading whitespace shifts columns but is not part of Text
	trimmed := strings.TrimLeft(raw, " \t")
	indent := len(raw) - len(trimmed)
	line.Text = strings.TrimSpace(trimmed)

	code := trimmed
	if i := strings.Index(code, "//"); i >= 0 {
		code = code[:i]
	}
	line.Tokens = l.splitTokens(code, start+indent, indent)

	l.position = end + 1
	l.line++

	return line
}

// Check if there are more lines to read
func (l *Lexer) HasMore() bool {
	return l.length > 0 && l.position <= l.length
}

// splitTokens splits a line on whitespace and classifies each word
func (l *Lexer) splitTokens(code string, offset, indent int) []Token {
	var tokens []Token

	i := 0
	for i < len(code) {
		if isSpace(code[i]) {
			i++
			continue
		}

		j := i
		for j < len(code) && !isSpace(code[j]) {
			j++
		}

		word := code[i:j]
		tokenType, _ := MatchToken(word)
		pos := NewPosition(l.line+1, indent+i+1, offset+i)
		tokens = append(tokens, NewToken(tokenType, word, pos))

		i = j
	}

	return tokens
}

// Check if a byte is a whitespace separator
func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\v' || b == '\f'
}
