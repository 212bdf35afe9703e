// Package parser turns a token stream into the flat value.Instruction
// stream the interpreter runs, via a small recursive-descent grammar with
// two contexts: code context (top level and inside { ... }), where a bare
// NAME is a call, and vec context (inside ( ... )), where a bare NAME is
// data.
//
// The same grammar is exposed a second way, via Build, as a tree of
// package ast nodes for static tooling (import discovery, an eventual
// syntax-highlighting line editor) that wants structure rather than a flat
// instruction stream.
package parser

import (
	"github.com/dr8co/kongur/ast"
	"github.com/dr8co/kongur/failure"
	"github.com/dr8co/kongur/lexer"
	"github.com/dr8co/kongur/token"
	"github.com/dr8co/kongur/value"
)

type parser struct {
	toks []token.Token
	pos  int
	src  string
}

// Parse tokenizes and parses src into a flat instruction stream. It never
// panics: parse failures are recovered and returned as an error.
func Parse(src string) (instrs []value.Instruction, err error) {
	defer failure.Recover(&err)
	toks := lexer.New(src).Tokens()
	p := &parser{toks: toks, src: src}
	instrs = p.parseForms(token.EOF)
	p.expect(token.EOF, "the end of input")
	return instrs, nil
}

// Build tokenizes and parses src into an ast.Program, for static tooling.
func Build(src string) (prog *ast.Program, err error) {
	defer failure.Recover(&err)
	toks := lexer.New(src).Tokens()
	p := &parser{toks: toks, src: src}
	prog = &ast.Program{Forms: p.parseASTForms(token.EOF)}
	p.expect(token.EOF, "the end of input")
	return prog, nil
}

func (p *parser) peek() token.Token { return p.toks[p.pos] }

func (p *parser) advance() token.Token {
	t := p.toks[p.pos]
	if t.Type != token.EOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(tt token.Type, context string) token.Token {
	t := p.peek()
	if t.Type != tt {
		failure.Raise(failure.Parse, "unexpected %s %q", t.Type, t.Literal)
	}
	_ = context
	return p.advance()
}

// parseForms parses code-context forms (flattening to instructions) until
// the given closing token type (RBR for a code literal body, EOF for the
// top level).
func (p *parser) parseForms(until token.Type) []value.Instruction {
	var out []value.Instruction
	for p.peek().Type != until {
		if p.peek().Type == token.EOF {
			failure.RaiseEOF("a code block", "unexpected end of input, expected "+string(until))
		}
		out = append(out, flatten(p.parseCodeForm())...)
	}
	return out
}

// parseCodeForm parses exactly one form in code context.
func (p *parser) parseCodeForm() []value.Instruction {
	t := p.peek()
	switch t.Type {
	case token.INT:
		p.advance()
		n, ok := value.NewIntFromString(t.Literal)
		if !ok {
			failure.Raise(failure.Parse, "malformed integer literal %q", t.Literal)
		}
		return []value.Instruction{value.Put{Value: n}}

	case token.STR_D, token.STR_S:
		p.advance()
		return []value.Instruction{value.Put{Value: value.Str{S: t.Literal}}}

	case token.ATOM:
		p.advance()
		return []value.Instruction{value.Put{Value: value.Intern(t.Literal)}}

	case token.NAME:
		p.advance()
		return []value.Instruction{value.CallByName{Name: t.Literal}}

	case token.LPAR:
		return []value.Instruction{p.parseVec()}

	case token.LBR:
		return []value.Instruction{p.parseCode()}

	default:
		failure.Raise(failure.Parse, "unexpected %s %q where a value or call was expected", t.Type, t.Literal)
		panic("unreachable")
	}
}

// parseVec parses a ( ... ) tuple literal into the instructions that build
// it: push each element (in vec context), then collapse them into a Vec.
func (p *parser) parseVec() value.Instruction {
	p.expect(token.LPAR, "a tuple literal")
	var elemInstrs []value.Instruction
	n := 0
	for p.peek().Type != token.RPAR {
		if p.peek().Type == token.EOF {
			failure.RaiseEOF("a tuple literal", "unexpected end of input inside (...)")
		}
		elemInstrs = append(elemInstrs, p.parseVecElement()...)
		n++
	}
	p.expect(token.RPAR, "a tuple literal")

	// A vec literal is itself built by the same flat instruction machinery:
	// push every element, then MakeVec. A nested ( ... ) element is parsed by
	// its own parseVec call (via parseVecElement), which ends in its own
	// MakeVec and counts as one element here, so this MakeVec covers just
	// this literal's own elements.
	elemInstrs = append(elemInstrs, value.MakeVec{N: n})
	return sequence{instrs: elemInstrs}
}

// sequence lets parseVec return a single value.Instruction that actually
// expands to several; flatten below unwraps it. The embedded (always nil)
// value.Instruction is what gives sequence the interface's unexported
// method; it is never called, because a sequence never reaches the vm.
type sequence struct {
	value.Instruction
	instrs []value.Instruction
}

// flatten expands any sequence wrappers produced by parseVec into a single
// flat slice.
func flatten(in []value.Instruction) []value.Instruction {
	var out []value.Instruction
	for _, i := range in {
		if seq, ok := i.(sequence); ok {
			out = append(out, flatten(seq.instrs)...)
		} else {
			out = append(out, i)
		}
	}
	return out
}

// parseVecElement parses one element of a ( ... ) literal: data context, so
// a bare NAME becomes an atom rather than a call.
func (p *parser) parseVecElement() []value.Instruction {
	t := p.peek()
	switch t.Type {
	case token.INT:
		p.advance()
		n, ok := value.NewIntFromString(t.Literal)
		if !ok {
			failure.Raise(failure.Parse, "malformed integer literal %q", t.Literal)
		}
		return []value.Instruction{value.Put{Value: n}}

	case token.STR_D, token.STR_S:
		p.advance()
		return []value.Instruction{value.Put{Value: value.Str{S: t.Literal}}}

	case token.ATOM, token.NAME:
		p.advance()
		return []value.Instruction{value.Put{Value: value.Intern(t.Literal)}}

	case token.LPAR:
		return flatten([]value.Instruction{p.parseVec()})

	case token.LBR:
		return []value.Instruction{p.parseCode()}

	default:
		failure.Raise(failure.Parse, "unexpected %s %q inside a tuple literal", t.Type, t.Literal)
		panic("unreachable")
	}
}

// parseCode parses a { ... } quoted code literal into a PutCode
// instruction.
func (p *parser) parseCode() value.Instruction {
	start := p.peek().Offset
	p.expect(token.LBR, "a code literal")
	body := p.parseForms(token.RBR)
	end := p.peek().Offset
	p.expect(token.RBR, "a code literal")

	src := ""
	if start >= 0 && end <= len(p.src) && end >= start {
		src = p.src[start : end+1]
	}
	return value.PutCode{Code: &value.Code{Instructions: body, Source: src}}
}

// --- AST building mirror of the grammar above ---

func (p *parser) parseASTForms(until token.Type) []ast.Node {
	var out []ast.Node
	for p.peek().Type != until {
		if p.peek().Type == token.EOF {
			failure.RaiseEOF("a code block", "unexpected end of input, expected "+string(until))
		}
		out = append(out, p.parseASTForm(false))
	}
	return out
}

func (p *parser) parseASTForm(vecContext bool) ast.Node {
	t := p.peek()
	switch t.Type {
	case token.INT:
		p.advance()
		return &ast.IntLiteral{Token: t, Value: t.Literal}
	case token.STR_D, token.STR_S:
		p.advance()
		return &ast.StrLiteral{Token: t, Value: t.Literal}
	case token.ATOM:
		p.advance()
		return &ast.AtomLiteral{Token: t, Label: t.Literal}
	case token.NAME:
		p.advance()
		if vecContext {
			return &ast.AtomLiteral{Token: t, Label: t.Literal}
		}
		return &ast.NameCall{Token: t, Name: t.Literal}
	case token.LPAR:
		p.advance()
		var elems []ast.Node
		for p.peek().Type != token.RPAR {
			if p.peek().Type == token.EOF {
				failure.RaiseEOF("a tuple literal", "unexpected end of input inside (...)")
			}
			elems = append(elems, p.parseASTForm(true))
		}
		p.advance()
		return &ast.VecLiteral{Token: t, Elements: elems}
	case token.LBR:
		p.advance()
		body := p.parseASTForms(token.RBR)
		p.advance()
		return &ast.CodeLiteral{Token: t, Body: body}
	default:
		failure.Raise(failure.Parse, "unexpected %s %q", t.Type, t.Literal)
		panic("unreachable")
	}
}
