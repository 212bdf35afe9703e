package prelude

import (
	"github.com/dr8co/kongur/natives"
	"github.com/dr8co/kongur/value"
)

// stackNatives are the kernel stack-shuffling combinators available without
// any import, the same way a concatenative language's dup/swap/rot survive
// being bootstrapped before any module system exists to provide them.
func stackNatives() []value.NativeFunction {
	return []value.NativeFunction{
		natives.Make("dup", 1, func(a []value.Value) []value.Value { return []value.Value{a[0], a[0]} }),
		natives.Make("drop", 1, func(a []value.Value) []value.Value { return nil }),
		natives.Make("swap", 2, func(a []value.Value) []value.Value { return []value.Value{a[1], a[0]} }),
		natives.Make("over", 2, func(a []value.Value) []value.Value { return []value.Value{a[0], a[1], a[0]} }),
		natives.Make("rot", 3, func(a []value.Value) []value.Value { return []value.Value{a[1], a[2], a[0]} }),
		natives.Make("=", 2, func(a []value.Value) []value.Value {
			return []value.Value{boolAtom(valuesEqual(a[0], a[1]))}
		}),
	}
}

func boolAtom(b bool) *value.Atom {
	if b {
		return value.Intern("true")
	}
	return value.Intern("false")
}
