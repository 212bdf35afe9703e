package vm

import (
	"testing"

	"github.com/dr8co/kongur/collection"
	"github.com/dr8co/kongur/scope"
	"github.com/dr8co/kongur/value"
)

func TestPutAndMakeVecOrder(t *testing.T) {
	m := New()
	s := value.NewState()
	instrs := []value.Instruction{
		value.Put{Value: value.NewInt(1)},
		value.Put{Value: value.NewInt(2)},
		value.Put{Value: value.NewInt(3)},
		value.MakeVec{N: 3},
	}
	out := m.Run(s, instrs)
	top, _, ok := out.Pop()
	if !ok {
		t.Fatalf("expected a value on the stack")
	}
	vec, ok := top.(value.Vec)
	if !ok || len(vec.Elements) != 3 {
		t.Fatalf("expected a 3-element vec, got %#v", top)
	}
	for i, want := range []int64{1, 2, 3} {
		if vec.Elements[i].(value.Int).N.Int64() != want {
			t.Fatalf("element %d = %v, want %d", i, vec.Elements[i], want)
		}
	}
}

func TestCallByNameCodeRunsAgainstClosureScope(t *testing.T) {
	m := New()
	s := value.NewState()

	// { 1 } pushed as code, bound to "one" in the root scope, then called by name.
	body := &value.Code{Instructions: []value.Instruction{value.Put{Value: value.NewInt(1)}}}
	s = s.Push(m.bindClosure(s, body))
	top, rest, _ := s.Pop()
	code := top.(*value.Code)
	rest = scope.SetName(rest, "one", code)

	result := m.Run(rest, []value.Instruction{value.CallByName{Name: "one"}})
	v, _, ok := result.Pop()
	if !ok || v.(value.Int).N.Int64() != 1 {
		t.Fatalf("calling the code value should push 1, got %v %v", v, ok)
	}
}

func TestCallingNonCallableIsTypeError(t *testing.T) {
	m := New()
	s := value.NewState()
	defer func() {
		if recover() == nil {
			t.Fatalf("calling an int should panic")
		}
	}()
	m.Run(s, []value.Instruction{
		value.Put{Value: value.NewInt(5)},
		value.CallByValue{},
	})
}

// TestCallingAClosureReclaimsItsScopeOnReturn exercises the scope-table
// shrink property: once a call frame's closure and Code value are both
// gone, its scope must be removed from the table, leaving only the root
// scope behind.
func TestCallingAClosureReclaimsItsScopeOnReturn(t *testing.T) {
	m := New()
	s := value.NewState()

	body := &value.Code{Instructions: []value.Instruction{value.Put{Value: value.NewInt(42)}}}
	code := m.bindClosure(s, body)

	result := m.Run(s, []value.Instruction{value.Put{Value: code}, value.CallByValue{}})

	if n := collection.MapLen(result.Scopes); n != 1 {
		t.Fatalf("expected only the root scope to remain after the call returns, got %d scopes", n)
	}
	if _, ok := result.Scope(0); !ok {
		t.Fatalf("root scope should still be present")
	}
}

// TestNestedCallsReclaimEveryFrame checks that a chain of nested calls each
// release their own frame on return, not just the outermost one.
func TestNestedCallsReclaimEveryFrame(t *testing.T) {
	m := New()
	s := value.NewState()

	inner := m.bindClosure(s, &value.Code{Instructions: []value.Instruction{value.Put{Value: value.NewInt(1)}}})
	s = scope.SetName(s, "inner", inner)
	outerBody := &value.Code{Instructions: []value.Instruction{value.CallByName{Name: "inner"}}}
	outer := m.bindClosure(s, outerBody)

	result := m.Run(s, []value.Instruction{value.Put{Value: outer}, value.CallByValue{}})

	if n := collection.MapLen(result.Scopes); n != 1 {
		t.Fatalf("expected only the root scope to remain after both calls return, got %d scopes", n)
	}
}

func TestNativeFunctionRuns(t *testing.T) {
	m := New()
	s := value.NewState()
	double := value.NativeFunction{Name: "double", Fn: func(s *value.State) (*value.State, []value.Instruction) {
		v, rest, _ := s.Pop()
		n := v.(value.Int).N
		return rest.Push(value.NewInt(n.Int64() * 2)), nil
	}}
	s = scope.SetName(s, "double", double)
	out := m.Run(s, []value.Instruction{
		value.Put{Value: value.NewInt(21)},
		value.CallByName{Name: "double"},
	})
	v, _, _ := out.Pop()
	if v.(value.Int).N.Int64() != 42 {
		t.Fatalf("got %v, want 42", v)
	}
}
