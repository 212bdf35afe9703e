package value

import "testing"

func TestInternIdentity(t *testing.T) {
	a := Intern("true")
	b := Intern("true")
	if a != b {
		t.Fatalf("Intern(\"true\") returned distinct pointers: %p vs %p", a, b)
	}
	c := Intern("false")
	if a == c {
		t.Fatalf("distinct labels interned to the same pointer")
	}
}

func TestStatePushPopImmutable(t *testing.T) {
	s0 := NewState()
	s1 := s0.Push(NewInt(1))
	s2 := s1.Push(NewInt(2))

	top, s3, ok := s2.Pop()
	if !ok {
		t.Fatalf("pop on non-empty stack failed")
	}
	if top.(Int).N.Int64() != 2 {
		t.Fatalf("top = %v, want 2", top)
	}
	if _, _, ok := s0.Pop(); ok {
		t.Fatalf("original empty state should be unaffected")
	}
	if v, ok := collectionPeekInt(s1); !ok || v != 1 {
		t.Fatalf("s1 should still read 1 after s2/s3 were derived, got %v %v", v, ok)
	}
	_ = s3
}

func collectionPeekInt(s *State) (int64, bool) {
	top, _, ok := s.Pop()
	if !ok {
		return 0, false
	}
	i, ok := top.(Int)
	if !ok {
		return 0, false
	}
	return i.N.Int64(), true
}

func TestNewStateHasRootScope(t *testing.T) {
	s := NewState()
	sc, ok := s.TopScope()
	if !ok {
		t.Fatalf("fresh state has no top scope")
	}
	if sc.ID != 0 || sc.HasParent {
		t.Fatalf("root scope should be ID 0 with no parent, got %+v", sc)
	}
}

func TestWithScopeShares(t *testing.T) {
	s0 := NewState()
	root, _ := s0.TopScope()
	child := NewScope(1, root.ID, true)
	s1 := s0.WithScope(child)

	if _, ok := s0.Scope(1); ok {
		t.Fatalf("s0 must not see a scope added via WithScope on s1")
	}
	got, ok := s1.Scope(1)
	if !ok || got.ID != 1 {
		t.Fatalf("s1.Scope(1) = %+v, %v", got, ok)
	}
}
