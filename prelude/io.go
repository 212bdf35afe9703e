package prelude

import (
	"fmt"

	"github.com/dr8co/kongur/failure"
	"github.com/dr8co/kongur/natives"
	"github.com/dr8co/kongur/value"
)

// ioNatives are the ambient stringification/output primitives named in
// SPEC_FULL §10: str, print, print-string, println, println-string. They
// are not a standard-library I/O module (streams and files stay out of
// scope) — just enough surface for the REPL's result echo and the
// language's own small test programs to report what they're doing.
func ioNatives() []value.NativeFunction {
	str := natives.Make("str", 1, func(a []value.Value) []value.Value {
		return []value.Value{value.Str{S: a[0].Inspect()}}
	})

	print := natives.General("print", func(s *value.State) (*value.State, []value.Instruction) {
		v, rest, ok := s.Pop()
		if !ok {
			failure.Raise(failure.Arity, "print expects a value on the stack")
		}
		fmt.Print(v.Inspect())
		return rest, nil
	})

	printString := natives.General("print-string", func(s *value.State) (*value.State, []value.Instruction) {
		v, rest, ok := s.Pop()
		if !ok {
			failure.Raise(failure.Arity, "print-string expects a str on the stack")
		}
		fmt.Print(natives.ExpectStr("print-string", v).S)
		return rest, nil
	})

	println := natives.General("println", func(s *value.State) (*value.State, []value.Instruction) {
		v, rest, ok := s.Pop()
		if !ok {
			failure.Raise(failure.Arity, "println expects a value on the stack")
		}
		fmt.Println(v.Inspect())
		return rest, nil
	})

	printlnString := natives.General("println-string", func(s *value.State) (*value.State, []value.Instruction) {
		v, rest, ok := s.Pop()
		if !ok {
			failure.Raise(failure.Arity, "println-string expects a str on the stack")
		}
		fmt.Println(natives.ExpectStr("println-string", v).S)
		return rest, nil
	})

	return []value.NativeFunction{str, print, printString, println, printlnString}
}
