package lexer

import (
	"testing"

	"github.com/dr8co/kongur/token"
)

// TestTokens exercises the significant-token stream over a small program
// touching every token class.
func TestTokens(t *testing.T) {
	input := `:math (+ -) import # load arithmetic
{ :x def { x + } } :make-adder jar
5 make-adder :add5 jar
37 add5
"hi\n" 'lo'
(1 2 3)
`
	tests := []struct {
		expectedType    token.Type
		expectedLiteral string
	}{
		{token.ATOM, "math"},
		{token.LPAR, "("},
		{token.NAME, "+"},
		{token.NAME, "-"},
		{token.RPAR, ")"},
		{token.NAME, "import"},
		{token.LBR, "{"},
		{token.ATOM, "x"},
		{token.NAME, "def"},
		{token.LBR, "{"},
		{token.NAME, "x"},
		{token.NAME, "+"},
		{token.RBR, "}"},
		{token.RBR, "}"},
		{token.ATOM, "make-adder"},
		{token.NAME, "jar"},
		{token.INT, "5"},
		{token.NAME, "make-adder"},
		{token.ATOM, "add5"},
		{token.NAME, "jar"},
		{token.INT, "37"},
		{token.NAME, "add5"},
		{token.STR_D, "hi\n"},
		{token.STR_S, "lo"},
		{token.LPAR, "("},
		{token.INT, "1"},
		{token.INT, "2"},
		{token.INT, "3"},
		{token.RPAR, ")"},
		{token.EOF, ""},
	}

	l := New(input)
	toks := l.Tokens()
	if len(toks) != len(tests) {
		t.Fatalf("token count mismatch: got %d, want %d (%v)", len(toks), len(tests), toks)
	}
	for i, want := range tests {
		got := toks[i]
		if got.Type != want.expectedType {
			t.Fatalf("tests[%d] - wrong type. got=%q, want=%q (literal %q)", i, got.Type, want.expectedType, got.Literal)
		}
		if got.Literal != want.expectedLiteral {
			t.Fatalf("tests[%d] - wrong literal. got=%q, want=%q", i, got.Literal, want.expectedLiteral)
		}
	}
}

// TestAllStreamIncludesComments verifies the unfiltered stream keeps comments
// and whitespace, for the syntax-highlighting consumer contract.
func TestAllStreamIncludesComments(t *testing.T) {
	l := New("1 # comment\n2")
	all := l.All()
	var sawComment bool
	for _, tok := range all {
		if tok.Type == token.COMMENT {
			sawComment = true
		}
	}
	if !sawComment {
		t.Fatalf("expected a COMMENT token in the unfiltered stream, got %v", all)
	}
}

// TestDigitNameReclassifiedAsInt confirms a bare run of digits lexes as INT
// even though it also matches the NAME character class.
func TestDigitNameReclassifiedAsInt(t *testing.T) {
	l := New("42")
	toks := l.Tokens()
	if toks[0].Type != token.INT || toks[0].Literal != "42" {
		t.Fatalf("got %+v, want INT 42", toks[0])
	}
}

// TestIllegalCharacter verifies an unrecognized byte produces an ILLEGAL
// token rather than aborting the whole scan.
func TestIllegalCharacter(t *testing.T) {
	l := New("1 @ 2")
	toks := l.Tokens()
	var sawIllegal bool
	for _, tok := range toks {
		if tok.Type == token.ILLEGAL {
			sawIllegal = true
			if tok.Literal != "@" {
				t.Fatalf("got illegal literal %q, want @", tok.Literal)
			}
		}
	}
	if !sawIllegal {
		t.Fatalf("expected an ILLEGAL token, got %v", toks)
	}
}
