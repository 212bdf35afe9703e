package natives

import (
	"testing"

	"github.com/dr8co/kongur/value"
)

func TestMakeSimpleArityAndOrder(t *testing.T) {
	sub := Make("sub", 2, func(args []value.Value) []value.Value {
		a := ExpectInt("sub", args[0]).N
		b := ExpectInt("sub", args[1]).N
		return []value.Value{value.NewInt(a.Int64() - b.Int64())}
	})
	s := value.NewState().Push(value.NewInt(10)).Push(value.NewInt(3))
	s, _ = sub.Fn(s)
	v, _, ok := s.Pop()
	if !ok || v.(value.Int).N.Int64() != 7 {
		t.Fatalf("10 3 sub = %v, want 7", v)
	}
}

func TestMakeSimpleArityErrorOnEmptyStack(t *testing.T) {
	inc := Make("inc", 1, func(args []value.Value) []value.Value {
		return []value.Value{args[0]}
	})
	defer func() {
		if recover() == nil {
			t.Fatalf("expected an arity panic")
		}
	}()
	_, _ = inc.Fn(value.NewState())
}

func TestExpectIntTypeError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a type-error panic")
		}
	}()
	ExpectInt("whatever", value.Str{S: "nope"})
}
