package prelude

import (
	"github.com/dr8co/kongur/box"
	"github.com/dr8co/kongur/failure"
	"github.com/dr8co/kongur/natives"
	"github.com/dr8co/kongur/value"
)

// boxNatives implements the mutable-box primitives described in SPEC_FULL
// §4.10: box, ->, -!>, <-, <[, ]>, <<<, <<<?, <=, <X-.
func boxNatives() []value.NativeFunction {
	boxNative := natives.General("box", func(s *value.State) (*value.State, []value.Instruction) {
		v, rest, ok := s.Pop()
		if !ok {
			failure.Raise(failure.Arity, "box expects a value on the stack")
		}
		next, b := box.New(rest, v)
		return next.Push(b), nil
	})

	// -> and -!> need the state to look the box up in, so they're built as
	// General natives rather than through the Simple adapter.
	committedNative := natives.General("->", func(s *value.State) (*value.State, []value.Instruction) {
		v, rest, ok := s.Pop()
		if !ok {
			failure.Raise(failure.Arity, "-> expects a box on the stack")
		}
		b := natives.ExpectBox("->", v)
		return rest.Push(box.Committed(rest, b)), nil
	})

	currentNative := natives.General("-!>", func(s *value.State) (*value.State, []value.Instruction) {
		v, rest, ok := s.Pop()
		if !ok {
			failure.Raise(failure.Arity, "-!> expects a box on the stack")
		}
		b := natives.ExpectBox("-!>", v)
		return rest.Push(box.Current(rest, b)), nil
	})

	setNative := natives.General("<-", func(s *value.State) (*value.State, []value.Instruction) {
		newV, rest, ok := s.Pop()
		if !ok {
			failure.Raise(failure.Arity, "<- expects a box and a value on the stack")
		}
		bV, rest2, ok := rest.Pop()
		if !ok {
			failure.Raise(failure.Arity, "<- expects a box and a value on the stack")
		}
		b := natives.ExpectBox("<-", bV)
		return box.Set(rest2, b, newV), nil
	})

	beginNative := natives.General("<[", func(s *value.State) (*value.State, []value.Instruction) {
		v, rest, ok := s.Pop()
		if !ok {
			failure.Raise(failure.Arity, "<[ expects a box on the stack")
		}
		b := natives.ExpectBox("<[", v)
		return box.Begin(rest, b).Push(b), nil
	})

	commitNative := natives.General("]>", func(s *value.State) (*value.State, []value.Instruction) {
		v, rest, ok := s.Pop()
		if !ok {
			failure.Raise(failure.Arity, "]> expects a box on the stack")
		}
		b := natives.ExpectBox("]>", v)
		return box.Commit(rest, b).Push(b), nil
	})

	rollbackNative := natives.General("<<<", func(s *value.State) (*value.State, []value.Instruction) {
		v, rest, ok := s.Pop()
		if !ok {
			failure.Raise(failure.Arity, "<<< expects a box on the stack")
		}
		b := natives.ExpectBox("<<<", v)
		next, _ := box.Rollback(rest, b)
		return next.Push(b), nil
	})

	rollbackReturnNative := natives.General("<<<?", func(s *value.State) (*value.State, []value.Instruction) {
		v, rest, ok := s.Pop()
		if !ok {
			failure.Raise(failure.Arity, "<<<? expects a box on the stack")
		}
		b := natives.ExpectBox("<<<?", v)
		next, discarded := box.Rollback(rest, b)
		return next.Push(b).Push(discarded), nil
	})

	changeNative := natives.General("<=", func(s *value.State) (*value.State, []value.Instruction) {
		newV, rest, ok := s.Pop()
		if !ok {
			failure.Raise(failure.Arity, "<= expects a box and a value on the stack")
		}
		bV, rest2, ok := rest.Pop()
		if !ok {
			failure.Raise(failure.Arity, "<= expects a box and a value on the stack")
		}
		b := natives.ExpectBox("<=", bV)
		return box.Change(rest2, b, newV).Push(b), nil
	})

	deallocNative := natives.General("<X-", func(s *value.State) (*value.State, []value.Instruction) {
		v, rest, ok := s.Pop()
		if !ok {
			failure.Raise(failure.Arity, "<X- expects a box on the stack")
		}
		b := natives.ExpectBox("<X-", v)
		return box.Deallocate(rest, b), nil
	})

	return []value.NativeFunction{
		boxNative, committedNative, currentNative, setNative,
		beginNative, commitNative, rollbackNative, rollbackReturnNative,
		changeNative, deallocNative,
	}
}
