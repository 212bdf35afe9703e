package prelude

import (
	"github.com/dr8co/kongur/failure"
	"github.com/dr8co/kongur/natives"
	"github.com/dr8co/kongur/value"
)

// spreadNatives implements "," (vec-spread), the primitive behind the
// "{a}, {b}, =" idiom for comparing the results of two quoted computations:
// it pops a Vec and pushes its elements back in order, so two code blocks
// that each push one Vec of results can be flattened and compared the same
// way two bare stacks of results would be.
func spreadNatives() []value.NativeFunction {
	spread := natives.General(",", func(s *value.State) (*value.State, []value.Instruction) {
		v, rest, ok := s.Pop()
		if !ok {
			failure.Raise(failure.Arity, ", expects a vec on the stack")
		}
		vec := natives.ExpectVec(",", v)
		for _, e := range vec.Elements {
			rest = rest.Push(e)
		}
		return rest, nil
	})
	return []value.NativeFunction{spread}
}
