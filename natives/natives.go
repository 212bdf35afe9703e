// Package natives implements the host-function calling convention: the
// general State -> State protocol every value.NativeFunction ultimately
// uses, plus a "simple" adapter for the common case of a function that only
// touches the value stack and can't fail for reasons other than arity or
// type.
//
// The split mirrors the reference implementation's make_function (general,
// state-rewriting) versus make_simple (stack in, stack out) builtin
// registration helpers.
package natives

import (
	"github.com/dr8co/kongur/failure"
	"github.com/dr8co/kongur/value"
)

// Simple is a native implemented purely in terms of popping N input values
// off the stack and pushing some output values back, with no need to touch
// scopes or boxes.
type Simple func(args []value.Value) []value.Value

// Make wraps fn as a value.NativeFunction bound to name. The wrapped
// function pops arity values off the stack (innermost/last-pushed last,
// i.e. args[0] is the deepest of the arity values), calls fn, and pushes
// every value fn returns.
func Make(name string, arity int, fn Simple) value.NativeFunction {
	return value.NativeFunction{
		Name: name,
		Fn: func(s *value.State) (*value.State, []value.Instruction) {
			args := make([]value.Value, arity)
			for i := arity - 1; i >= 0; i-- {
				v, rest, ok := s.Pop()
				if !ok {
					failure.Raise(failure.Arity, "%s expected %d argument(s)", name, arity)
				}
				args[i] = v
				s = rest
			}
			for _, out := range fn(args) {
				s = s.Push(out)
			}
			return s, nil
		},
	}
}

// General wraps a full State -> State function as a named value.NativeFunction,
// with no argument-popping sugar — used by natives that need to inspect or
// extend scopes and boxes (box primitives, def/jar, import, case).
func General(name string, fn value.NativeFunc) value.NativeFunction {
	return value.NativeFunction{Name: name, Fn: fn}
}

// ExpectInt type-asserts v as an Int or raises a TypeError naming who (the
// native's name) and the type it got; the argument position is not named.
func ExpectInt(who string, v value.Value) value.Int {
	i, ok := v.(value.Int)
	if !ok {
		failure.Raise(failure.Type, "%s expected an int, got %s", who, v.TypeName())
	}
	return i
}

// ExpectStr type-asserts v as a Str or raises a TypeError.
func ExpectStr(who string, v value.Value) value.Str {
	s, ok := v.(value.Str)
	if !ok {
		failure.Raise(failure.Type, "%s expected a str, got %s", who, v.TypeName())
	}
	return s
}

// ExpectAtom type-asserts v as an *Atom or raises a TypeError.
func ExpectAtom(who string, v value.Value) *value.Atom {
	a, ok := v.(*value.Atom)
	if !ok {
		failure.Raise(failure.Type, "%s expected an atom, got %s", who, v.TypeName())
	}
	return a
}

// ExpectVec type-asserts v as a Vec or raises a TypeError.
func ExpectVec(who string, v value.Value) value.Vec {
	vec, ok := v.(value.Vec)
	if !ok {
		failure.Raise(failure.Type, "%s expected a vec, got %s", who, v.TypeName())
	}
	return vec
}

// ExpectCode type-asserts v as a *Code or raises a TypeError.
func ExpectCode(who string, v value.Value) *value.Code {
	c, ok := v.(*value.Code)
	if !ok {
		failure.Raise(failure.Type, "%s expected code, got %s", who, v.TypeName())
	}
	return c
}

// ExpectBox type-asserts v as a Box or raises a TypeError.
func ExpectBox(who string, v value.Value) value.Box {
	b, ok := v.(value.Box)
	if !ok {
		failure.Raise(failure.Type, "%s expected a box, got %s", who, v.TypeName())
	}
	return b
}
