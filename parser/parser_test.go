package parser

import (
	"testing"

	"github.com/dr8co/kongur/value"
)

func TestParseSimpleCall(t *testing.T) {
	instrs, err := Parse("1 2 +")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(instrs) != 3 {
		t.Fatalf("got %d instructions, want 3: %#v", len(instrs), instrs)
	}
	if _, ok := instrs[0].(value.Put); !ok {
		t.Fatalf("instrs[0] = %#v, want Put", instrs[0])
	}
	call, ok := instrs[2].(value.CallByName)
	if !ok || call.Name != "+" {
		t.Fatalf("instrs[2] = %#v, want CallByName{+}", instrs[2])
	}
}

func TestParseVecLiteralBareNamesBecomeAtoms(t *testing.T) {
	instrs, err := Parse("(a 1 2)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// push :a, push 1, push 2, MakeVec(3)
	if len(instrs) != 4 {
		t.Fatalf("got %d instructions, want 4: %#v", len(instrs), instrs)
	}
	put, ok := instrs[0].(value.Put)
	if !ok {
		t.Fatalf("instrs[0] = %#v, want Put", instrs[0])
	}
	atom, ok := put.Value.(*value.Atom)
	if !ok || atom.Label != "a" {
		t.Fatalf("bare NAME in vec context should become an atom, got %#v", put.Value)
	}
	mv, ok := instrs[3].(value.MakeVec)
	if !ok || mv.N != 3 {
		t.Fatalf("instrs[3] = %#v, want MakeVec{3}", instrs[3])
	}
}

func TestParseCodeLiteralProducesPutCode(t *testing.T) {
	instrs, err := Parse("{ dup * }")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(instrs) != 1 {
		t.Fatalf("got %d instructions, want 1: %#v", len(instrs), instrs)
	}
	pc, ok := instrs[0].(value.PutCode)
	if !ok {
		t.Fatalf("instrs[0] = %#v, want PutCode", instrs[0])
	}
	if len(pc.Code.Instructions) != 2 {
		t.Fatalf("code body has %d instructions, want 2", len(pc.Code.Instructions))
	}
}

func TestParseNestedCodeInsideVec(t *testing.T) {
	instrs, err := Parse("(1 { 2 } 3)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	foundCode := false
	for _, i := range instrs {
		if _, ok := i.(value.PutCode); ok {
			foundCode = true
		}
	}
	if !foundCode {
		t.Fatalf("expected a PutCode among %#v", instrs)
	}
}

func TestParseUnterminatedCodeIsEOFError(t *testing.T) {
	_, err := Parse("{ 1 2")
	if err == nil {
		t.Fatalf("expected a parse error")
	}
}

func TestBuildASTMirrorsGrammar(t *testing.T) {
	prog, err := Build(":x def")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prog.Forms) != 2 {
		t.Fatalf("got %d forms, want 2", len(prog.Forms))
	}
}
