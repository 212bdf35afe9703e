// Package lexer implements the regex-driven tokenizer for the kongur
// language.
//
// A single alternation pattern, compiled once, carries one named capture
// group per token class. rawNext repeatedly anchors that pattern against
// the remaining input and classifies the match by which named group fired —
// the same technique as the language's own reference tokenizer, which builds
// one big `TOKEN_RE` and dispatches on `m.lastgroup`.
//
// The lexer exposes two views of the token stream: Tokens (significant
// tokens only, for the parser) and All (the full stream including comments
// and whitespace, for syntax-highlighting consumers; the REPL does not
// highlight and does not use it).
package lexer

import (
	"regexp"
	"strings"

	"github.com/dr8co/kongur/token"
)

// identChars is the allowed character set for the body of a NAME or ATOM,
// after the leading `:` of an ATOM is consumed.
const identChars = `A-Za-z0-9+\-*/^=<>!?_.,\[\]`

var tokenRe = regexp.MustCompile(
	`^(?P<COMMENT>#[^\n]*)` +
		`|^(?P<LPAR>\()` +
		`|^(?P<RPAR>\))` +
		`|^(?P<LBR>\{)` +
		`|^(?P<RBR>\})` +
		`|^(?P<INT>[+-]?(?:0|[1-9][0-9]*))` +
		`|^(?P<STR_D>"(?:\\.|[^"\\])*")` +
		`|^(?P<STR_S>'(?:\\.|[^'\\])*')` +
		`|^(?P<ATOM>:[` + identChars + `]+)` +
		`|^(?P<NAME>[` + identChars + `]+)` +
		`|^(?P<WHITESPACE>[ \t\r\n]+)`,
)

var groupNames = tokenRe.SubexpNames()

// Lexer tokenizes kongur source text.
type Lexer struct {
	input string
	pos   int
}

// New creates a Lexer over the given source text.
func New(input string) *Lexer {
	return &Lexer{input: input}
}

// rawNext scans one token (of any class, including COMMENT/WHITESPACE) from
// the current position. It returns the zero Token and false at end of input.
func (l *Lexer) rawNext() (token.Token, bool) {
	if l.pos >= len(l.input) {
		return token.Token{}, false
	}

	rest := l.input[l.pos:]
	loc := tokenRe.FindStringSubmatchIndex(rest)
	if loc == nil {
		tok := token.Token{Type: token.ILLEGAL, Literal: string(rest[0]), Offset: l.pos}
		l.pos++
		return tok, true
	}

	matchLen := loc[1]
	tok := token.Token{Offset: l.pos}
	for i, name := range groupNames {
		if name == "" || loc[2*i] == -1 {
			continue
		}
		tok.Type = token.Type(name)
		raw := rest[loc[2*i]:loc[2*i+1]]
		switch tok.Type {
		case token.STR_D:
			tok.Literal = unescape(raw[1 : len(raw)-1])
		case token.STR_S:
			tok.Literal = unescape(raw[1 : len(raw)-1])
		case token.ATOM:
			tok.Literal = raw[1:]
		default:
			tok.Literal = raw
		}
		break
	}
	l.pos += matchLen
	return tok, true
}

// unescape interprets `\.` backslash escapes in string literal contents.
func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '"':
			b.WriteByte('"')
		case '\'':
			b.WriteByte('\'')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// isDigits reports whether s consists entirely of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Tokens returns the filtered, significant token stream: comments and
// whitespace are dropped, and a NAME token that parses entirely as digits is
// reclassified as INT.
func (l *Lexer) Tokens() []token.Token {
	var out []token.Token
	for _, tok := range l.All() {
		if tok.Type == token.COMMENT || tok.Type == token.WHITESPACE {
			continue
		}
		if tok.Type == token.NAME && isDigits(tok.Literal) {
			tok.Type = token.INT
		}
		out = append(out, tok)
	}
	out = append(out, token.Token{Type: token.EOF, Offset: len(l.input)})
	return out
}

// All returns the unfiltered token stream, including COMMENT and WHITESPACE
// tokens, for syntax-highlighting consumers.
func (l *Lexer) All() []token.Token {
	cur := &Lexer{input: l.input}
	var out []token.Token
	for {
		tok, ok := cur.rawNext()
		if !ok {
			break
		}
		out = append(out, tok)
	}
	return out
}
