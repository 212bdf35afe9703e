package prelude

import (
	"testing"

	"github.com/dr8co/kongur/scope"
	"github.com/dr8co/kongur/value"
	"github.com/dr8co/kongur/vm"
)

func freshInstalled(t *testing.T) (*value.State, *vm.Machine) {
	t.Helper()
	m := vm.New()
	s := Install(value.NewState(), m)
	return s, m
}

func TestMathIsUnavailableWithoutImport(t *testing.T) {
	s, _ := freshInstalled(t)
	if _, ok := s.TopScope(); !ok {
		t.Fatal("expected a root scope")
	}
	if _, found := scope.Lookup(s, "+"); found {
		t.Fatal("+ must not be bound before importing :math")
	}
}

func TestImportAllBindsMathArithmetic(t *testing.T) {
	s, m := freshInstalled(t)
	s = s.Push(value.Intern("math")).Push(value.Intern("all"))
	s = m.Run(s, []value.Instruction{value.CallByName{Name: "import"}})

	s = s.Push(value.NewInt(3)).Push(value.NewInt(4))
	s = m.Run(s, []value.Instruction{value.CallByName{Name: "+"}})

	top, _, ok := s.Pop()
	if !ok {
		t.Fatal("expected a result on the stack")
	}
	i, ok := top.(value.Int)
	if !ok || i.N.Int64() != 7 {
		t.Fatalf("expected 7, got %v", top.Inspect())
	}
}

func TestImportCherryPickOnlyBindsNamedMembers(t *testing.T) {
	s, m := freshInstalled(t)
	picks := value.Vec{Elements: []value.Value{value.Intern("+")}}
	s = s.Push(value.Intern("math")).Push(picks)
	s = m.Run(s, []value.Instruction{value.CallByName{Name: "import"}})

	if _, found := scope.Lookup(s, "+"); !found {
		t.Fatal("+ should be bound after cherry-pick import")
	}
	if _, found := scope.Lookup(s, "-"); found {
		t.Fatal("- should not be bound: it wasn't cherry-picked")
	}
}

func TestImportQualifiedAsBindsLookupUnderChosenName(t *testing.T) {
	s, m := freshInstalled(t)
	asOpt := value.Vec{Elements: []value.Value{value.Intern("as"), value.Intern("m")}}
	s = s.Push(value.Intern("math")).Push(asOpt)
	s = m.Run(s, []value.Instruction{value.CallByName{Name: "import"}})

	if _, found := scope.Lookup(s, "m"); !found {
		t.Fatal("expected m to be bound by :as import")
	}
	if _, found := scope.Lookup(s, "+"); found {
		t.Fatal("+ should not leak into scope under its own name from a qualified import")
	}
}

func TestImportUnknownModuleFails(t *testing.T) {
	s, m := freshInstalled(t)
	s = s.Push(value.Intern("nope")).Push(value.Intern("all"))

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected import of an unknown module to fail")
		}
	}()
	m.Run(s, []value.Instruction{value.CallByName{Name: "import"}})
}
