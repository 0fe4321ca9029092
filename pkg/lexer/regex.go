package lexer

import (
	"regexp"
)

// Token regex patterns. Tokens are whole whitespace-delimited words, so
// every pattern is anchored at both ends.
var tokenRegexes = map[TokenType]*regexp.Regexp{
	VAR:  regexp.MustCompile(`^var$`),
	FUNC: regexp.MustCompile(`^func$`),

	ASSIGN: regexp.MustCompile(`^=$`),
	LBRACE: regexp.MustCompile(`^\{$`),
	RBRACE: regexp.MustCompile(`^\}$`),

	NUM:  regexp.MustCompile(`^[+-]?\d+$`),
	CALL: regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*\(\)$`),
	ID:   regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`),
}

// Token precedence order for matching (keywords before identifiers)
var tokenPrecedenceOrder = []TokenType{
	VAR, FUNC, ASSIGN, LBRACE, RBRACE, NUM, CALL, ID,
}

// MatchToken classifies a single word. Words matching no pattern are WORD.
func MatchToken(s string) (TokenType, bool) {
	if s == "" {
		return WORD, false
	}

	for _, tokenType := range tokenPrecedenceOrder {
		if regex, ok := tokenRegexes[tokenType]; ok {
			if regex.MatchString(s) {
				return tokenType, true
			}
		}
	}

	return WORD, false
}
