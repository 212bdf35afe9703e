package scope

import (
	"testing"

	"github.com/dr8co/kongur/value"
)

func TestLookupWalksParentChain(t *testing.T) {
	s := value.NewState()
	s = SetName(s, "x", value.NewInt(1))
	child, _ := PushScope(s)

	v, ok := Lookup(child, "x")
	if !ok || v.(value.Int).N.Int64() != 1 {
		t.Fatalf("lookup from child scope should see outer binding, got %v %v", v, ok)
	}
}

func TestSetNameShadowsWithoutMutatingParent(t *testing.T) {
	s := value.NewState()
	s = SetName(s, "x", value.NewInt(1))
	child, _ := PushScope(s)
	child = SetName(child, "x", value.NewInt(2))

	v, _ := Lookup(child, "x")
	if v.(value.Int).N.Int64() != 2 {
		t.Fatalf("child shadow failed, got %v", v)
	}
	outerVal, _ := Lookup(s, "x")
	if outerVal.(value.Int).N.Int64() != 1 {
		t.Fatalf("outer binding mutated by child shadow: %v", outerVal)
	}
}

func TestLookupMissingReturnsFalse(t *testing.T) {
	s := value.NewState()
	if _, ok := Lookup(s, "nope"); ok {
		t.Fatalf("lookup of unbound name should fail")
	}
}

func TestForgetNameRemovesNearestBinding(t *testing.T) {
	s := value.NewState()
	s = SetName(s, "x", value.NewInt(1))
	s = ForgetName(s, "x")
	if _, ok := Lookup(s, "x"); ok {
		t.Fatalf("x should be forgotten")
	}
}

func TestPushPopScopeRoundTrips(t *testing.T) {
	s := value.NewState()
	child, id := PushScope(s)
	if _, ok := child.Scope(id); !ok {
		t.Fatalf("pushed scope must be registered in the scope table")
	}
	popped := PopScope(child)
	top, _ := popped.TopScope()
	root, _ := s.TopScope()
	if top.ID != root.ID {
		t.Fatalf("popping should restore the parent scope on the scope stack, got %d want %d", top.ID, root.ID)
	}
}
