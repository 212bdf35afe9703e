// Package scope implements the name-resolution engine: lookup, binding, and
// unbinding over a value.State's persistent scope chain.
//
// Every operation here takes a *value.State and returns a new *value.State;
// the scope table itself is a HAMT (package collection), so binding a name
// in a deeply nested closure only reallocates that one scope's entry and the
// spine of the table down to it — everything else is shared with the
// caller's state.
package scope

import (
	"github.com/dr8co/kongur/collection"
	"github.com/dr8co/kongur/failure"
	"github.com/dr8co/kongur/value"
)

// Lookup resolves name by walking the scope chain outward from the
// currently active scope, innermost first.
func Lookup(s *value.State, name string) (value.Value, bool) {
	sc, ok := s.TopScope()
	if !ok {
		return nil, false
	}
	return lookupFrom(s, sc, name)
}

func lookupFrom(s *value.State, sc *value.Scope, name string) (value.Value, bool) {
	for {
		if v, ok := collection.MapGet(sc.Values, name); ok {
			return v, true
		}
		if !sc.HasParent {
			return nil, false
		}
		parent, ok := s.Scope(sc.Parent)
		if !ok {
			return nil, false
		}
		sc = parent
	}
}

// MustLookup resolves name or raises a name error, the shape every
// CallByName instruction needs.
func MustLookup(s *value.State, name string) value.Value {
	v, ok := Lookup(s, name)
	if !ok {
		failure.Raise(failure.Name, "name not found: %s", name)
	}
	return v
}

// SetName binds name to v in the innermost active scope and returns the
// resulting state. It never searches outward: shadowing an outer binding of
// the same name is always legal.
func SetName(s *value.State, name string, v value.Value) *value.State {
	sc, ok := s.TopScope()
	if !ok {
		failure.Raise(failure.Internal, "set_name with no active scope")
	}
	updated := *sc
	updated.Values = collection.MapSet(sc.Values, name, v)
	return s.WithScope(&updated)
}

// SetNames binds every (name, value) pair in order, all in the innermost
// active scope. (case does not use it: it binds its captures through
// def instructions prepended to the matched action.)
func SetNames(s *value.State, names []string, values []value.Value) *value.State {
	if len(names) != len(values) {
		failure.Raise(failure.Internal, "set_names: name/value count mismatch")
	}
	for i, n := range names {
		s = SetName(s, n, values[i])
	}
	return s
}

// ForgetName removes name from the nearest scope in the chain that binds it.
// It is a no-op (returning s unchanged) if name is not bound anywhere in the
// chain.
func ForgetName(s *value.State, name string) *value.State {
	sc, ok := s.TopScope()
	if !ok {
		return s
	}
	for {
		if _, ok := collection.MapGet(sc.Values, name); ok {
			updated := *sc
			updated.Values = collection.MapDelete(sc.Values, name)
			return s.WithScope(&updated)
		}
		if !sc.HasParent {
			return s
		}
		parent, ok := s.Scope(sc.Parent)
		if !ok {
			return s
		}
		sc = parent
	}
}

// PushScope creates a new child scope of the currently active one and
// returns a state with it pushed onto the scope stack, along with the new
// scope's ID.
func PushScope(s *value.State) (*value.State, value.ScopeID) {
	parent, _ := s.TopScope()
	id := s.NextScopeID
	child := value.NewScope(id, parent.ID, true)
	next := s.WithScope(child)
	next.ScopeStack = collection.Push(next.ScopeStack, id)
	next.NextScopeID = id + 1
	return next, id
}

// PushScopeWithParent creates a new child scope of the given parent ID
// (rather than the currently active scope), the shape a closure invocation
// needs: the new call frame is a child of the closure's captured scope, not
// of the caller's scope.
func PushScopeWithParent(s *value.State, parentID value.ScopeID) (*value.State, value.ScopeID) {
	id := s.NextScopeID
	child := value.NewScope(id, parentID, true)
	next := s.WithScope(child)
	next.ScopeStack = collection.Push(next.ScopeStack, id)
	next.NextScopeID = id + 1
	return next, id
}

// PopScope removes the innermost scope from the scope stack (but leaves its
// entry in the scope table — lifetime/finalization is the interpreter's
// concern, see package vm).
func PopScope(s *value.State) *value.State {
	_, rest, ok := collection.Pop(s.ScopeStack)
	if !ok {
		failure.Raise(failure.Internal, "pop_scope with empty scope stack")
	}
	next := *s
	next.ScopeStack = rest
	return &next
}
