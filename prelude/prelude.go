// Package prelude wires the interpreter's built-in vocabulary: the binding
// forms (var/def/jar), control flow (if/case), the call/partial-application
// pair (!/close), module import, box transactions, and a small set of
// ambient I/O and arithmetic natives.
//
// Every native here is built as a closure over a *vm.Machine so it can
// participate fully in the call protocol — in particular case resolves its
// matching branch itself and hands the actual (possibly deeply recursive)
// action off to the interpreter's work queue rather than recursing into Go,
// and close/case both need the Machine's closure-retention bookkeeping for
// the new Code values they synthesize.
package prelude

import (
	"github.com/dr8co/kongur/failure"
	"github.com/dr8co/kongur/natives"
	"github.com/dr8co/kongur/scope"
	"github.com/dr8co/kongur/value"
	"github.com/dr8co/kongur/vm"
)

// Install binds every prelude name into s's currently active scope (the
// root scope of a freshly built value.NewState, in normal use) and returns
// the resulting state. m is the Machine that will go on to run programs
// against s; case, close, and run-concurrently all close over it.
func Install(s *value.State, m *vm.Machine) *value.State {
	for name, fn := range builtins(m) {
		s = scope.SetName(s, name, fn)
	}
	return s
}

func builtins(m *vm.Machine) map[string]value.NativeFunction {
	out := map[string]value.NativeFunction{}
	add := func(fns ...value.NativeFunction) {
		for _, f := range fns {
			out[f.Name] = f
		}
	}
	// Box primitives and arithmetic are deliberately left out of the global
	// scope here: per the testable scenarios, they only become available
	// after "import"ing :boxes / :math, the same way everything but the
	// kernel forms below does in the language's own reference programs.
	add(bindingNatives()...)
	add(controlNatives(m)...)
	add(caseNatives(m)...)
	add(stackNatives()...)
	add(ioNatives()...)
	add(spreadNatives()...)
	add(importNatives(m)...)
	add(concurrencyNatives(m)...)
	return out
}

// wrapValue builds the Code([Put(value)]) re-push wrapper that var/def bind
// names to, per the "calling a def'd name re-pushes its value" contract.
func wrapValue(v value.Value) *value.Code {
	return &value.Code{Instructions: []value.Instruction{value.Put{Value: v}}}
}

func bindingNatives() []value.NativeFunction {
	varNative := natives.General("var", func(s *value.State) (*value.State, []value.Instruction) {
		nameV, rest, ok := s.Pop()
		if !ok {
			failure.Raise(failure.Arity, "var expects a name and a value on the stack")
		}
		name := natives.ExpectAtom("var", nameV)
		v, rest2, ok := rest.Pop()
		if !ok {
			failure.Raise(failure.Arity, "var expects a name and a value on the stack")
		}
		return scope.SetName(rest2, name.Label, wrapValue(v)), nil
	})

	jarNative := natives.General("jar", func(s *value.State) (*value.State, []value.Instruction) {
		nameV, rest, ok := s.Pop()
		if !ok {
			failure.Raise(failure.Arity, "jar expects a name and a code value on the stack")
		}
		name := natives.ExpectAtom("jar", nameV)
		v, rest2, ok := rest.Pop()
		if !ok {
			failure.Raise(failure.Arity, "jar expects a name and a code value on the stack")
		}
		if code, ok := v.(*value.Code); ok {
			named := *code
			named.Name = name.Label
			return scope.SetName(rest2, name.Label, &named), nil
		}
		return scope.SetName(rest2, name.Label, wrapValue(v)), nil
	})

	return []value.NativeFunction{
		{Name: "var", Fn: varNative.Fn},
		{Name: "def", Fn: varNative.Fn},
		{Name: "jar", Fn: jarNative.Fn},
	}
}

func controlNatives(m *vm.Machine) []value.NativeFunction {
	ifNative := natives.Make("if", 3, func(args []value.Value) []value.Value {
		cond := natives.ExpectAtom("if", args[2])
		switch cond.Label {
		case "true":
			return []value.Value{args[0]}
		case "false":
			return []value.Value{args[1]}
		default:
			failure.Raise(failure.Type, "if expects :true or :false, got :%s", cond.Label)
			return nil
		}
	})

	bangNative := natives.General("!", func(s *value.State) (*value.State, []value.Instruction) {
		return s, []value.Instruction{value.CallByValue{}}
	})

	closeNative := natives.General("close", func(s *value.State) (*value.State, []value.Instruction) {
		fnV, rest, ok := s.Pop()
		if !ok {
			failure.Raise(failure.Arity, "close expects a value and a function on the stack")
		}
		v, rest2, ok := rest.Pop()
		if !ok {
			failure.Raise(failure.Arity, "close expects a value and a function on the stack")
		}
		switch fn := fnV.(type) {
		case *value.Code:
			curried := &value.Code{
				Instructions: append([]value.Instruction{value.Put{Value: v}}, fn.Instructions...),
				ClosureScope: fn.ClosureScope,
				HasClosure:   fn.HasClosure,
				Flags:        fn.Flags,
				Name:         fn.Name,
			}
			m.Retain(s, curried)
			return rest2.Push(curried), nil
		case value.NativeFunction:
			captured := v
			inner := fn
			curried := value.NativeFunction{
				Name: fn.Name,
				Fn: func(s *value.State) (*value.State, []value.Instruction) {
					return inner.Fn(s.Push(captured))
				},
			}
			return rest2.Push(curried), nil
		default:
			failure.Raise(failure.Type, "close expects a code or native value, got %s", fnV.TypeName())
			panic("unreachable")
		}
	})

	parentScopeNative := natives.General("parent-scope", func(s *value.State) (*value.State, []value.Instruction) {
		v, rest, ok := s.Pop()
		if !ok {
			failure.Raise(failure.Arity, "parent-scope expects a code value")
		}
		code := natives.ExpectCode("parent-scope", v)
		flagged := *code
		flagged.Flags |= value.FlagParentScope
		return rest.Push(&flagged), nil
	})

	return []value.NativeFunction{ifNative, bangNative, closeNative, parentScopeNative}
}
