package prelude

import (
	"golang.org/x/sync/errgroup"

	"github.com/dr8co/kongur/collection"
	"github.com/dr8co/kongur/failure"
	"github.com/dr8co/kongur/natives"
	"github.com/dr8co/kongur/value"
	"github.com/dr8co/kongur/vm"
)

// concurrencyNatives implements run-concurrently: (functions initial-stacks
// -- resulting-stacks). Each function runs to completion on its own
// goroutine against its own State, seeded with the matching initial stack
// and sharing this State's scope and box tables (read-only as far as the
// spawned threads are concerned — each keeps its own persistent snapshot,
// so no thread can observe another's mutations). Atom interning is the only
// truly global, mutable structure in play, and value.Intern is already
// safe for concurrent use.
func concurrencyNatives(m *vm.Machine) []value.NativeFunction {
	run := natives.General("run-concurrently", func(s *value.State) (*value.State, []value.Instruction) {
		stacksV, rest, ok := s.Pop()
		if !ok {
			failure.Raise(failure.Arity, "run-concurrently expects functions and initial-stacks vecs on the stack")
		}
		fnsV, rest2, ok := rest.Pop()
		if !ok {
			failure.Raise(failure.Arity, "run-concurrently expects functions and initial-stacks vecs on the stack")
		}
		stacksVec := natives.ExpectVec("run-concurrently", stacksV)
		fnsVec := natives.ExpectVec("run-concurrently", fnsV)
		if len(stacksVec.Elements) != len(fnsVec.Elements) {
			failure.Raise(failure.Arity, "run-concurrently expects as many initial stacks as functions")
		}

		n := len(fnsVec.Elements)
		results := make([]value.Vec, n)

		var g errgroup.Group
		for i := 0; i < n; i++ {
			i := i
			fn := natives.ExpectCode("run-concurrently", fnsVec.Elements[i])
			initial := natives.ExpectVec("run-concurrently", stacksVec.Elements[i])
			g.Go(func() error {
				thread := &value.State{
					Stack:       vecToStack(initial),
					Scopes:      rest2.Scopes,
					ScopeStack:  rest2.ScopeStack,
					NextScopeID: rest2.NextScopeID,
					Boxes:       rest2.Boxes,
					NextBoxID:   rest2.NextBoxID,
				}
				final := vm.New().Run(thread, fn.Instructions)
				results[i] = stackToVec(final.Stack)
				return nil
			})
		}
		// No goroutine above can fail: every failure path in this
		// interpreter panics with *failure.Error rather than returning one,
		// so g.Wait's error is always nil here; a panicking goroutine still
		// propagates and crashes the process, matching the rest of the
		// interpreter's failure.Recover-at-a-boundary discipline.
		_ = g.Wait()

		out := make([]value.Value, n)
		for i, v := range results {
			out[i] = v
		}
		return rest2.Push(value.Vec{Elements: out}), nil
	})
	return []value.NativeFunction{run}
}

func vecToStack(v value.Vec) *collection.Stack[value.Value] {
	return collection.FromSlice(v.Elements)
}

func stackToVec(s *collection.Stack[value.Value]) value.Vec {
	top := collection.ToSlice(s)
	elems := make([]value.Value, len(top))
	for i, v := range top {
		elems[len(top)-1-i] = v
	}
	return value.Vec{Elements: elems}
}
