// Package token defines the token types produced by the lexer for the kongur
// language.
//
// Tokens are the smallest units of meaning in source text. Each token
// records its class, its literal text, and its byte offset in the source so
// that parse errors and the (out-of-scope) syntax-highlighting line editor
// can both be driven off the same stream.
package token

// Type represents the class of a token.
type Type string

// Token is a single lexical token.
type Token struct {
	// Type is the token's class.
	Type Type

	// Literal is the token's exact source text. For STR_D/STR_S it is the
	// unescaped string content; for ATOM it is the label without its leading
	// colon; for everything else it is the raw text.
	Literal string

	// Offset is the byte offset of the token's first character in the
	// source.
	Offset int
}

//nolint:revive
const (
	ILLEGAL Type = "ILLEGAL"
	EOF     Type = "EOF"

	LPAR Type = "LPAR"
	RPAR Type = "RPAR"
	LBR  Type = "LBR"
	RBR  Type = "RBR"

	INT   Type = "INT"
	STR_D Type = "STR_D"
	STR_S Type = "STR_S"
	ATOM  Type = "ATOM"
	NAME  Type = "NAME"

	COMMENT    Type = "COMMENT"
	WHITESPACE Type = "WHITESPACE"
)
