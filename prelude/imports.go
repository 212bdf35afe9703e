package prelude

import (
	"math/big"

	"github.com/dr8co/kongur/collection"
	"github.com/dr8co/kongur/failure"
	"github.com/dr8co/kongur/natives"
	"github.com/dr8co/kongur/parser"
	"github.com/dr8co/kongur/scope"
	"github.com/dr8co/kongur/value"
	"github.com/dr8co/kongur/vm"
)

// Module is an importable unit of bindings: host-defined (a table of
// natives, e.g. :math and :boxes below) or source-defined (a snippet of
// this language itself, evaluated in a fresh scope at import time, with
// every name the snippet bound exported).
type Module struct {
	Natives map[string]value.NativeFunction
	Source  string
}

func builtinModules() map[string]Module {
	return map[string]Module{
		"math":  {Natives: mathModuleNatives()},
		"boxes": {Natives: indexByName(boxNatives())},
	}
}

func indexByName(fns []value.NativeFunction) map[string]value.NativeFunction {
	out := make(map[string]value.NativeFunction, len(fns))
	for _, f := range fns {
		out[f.Name] = f
	}
	return out
}

func mathModuleNatives() map[string]value.NativeFunction {
	return indexByName([]value.NativeFunction{
		natives.Make("+", 2, func(a []value.Value) []value.Value {
			x, y := natives.ExpectInt("+", a[0]), natives.ExpectInt("+", a[1])
			return []value.Value{value.Int{N: new(big.Int).Add(x.N, y.N)}}
		}),
		natives.Make("-", 2, func(a []value.Value) []value.Value {
			x, y := natives.ExpectInt("-", a[0]), natives.ExpectInt("-", a[1])
			return []value.Value{value.Int{N: new(big.Int).Sub(x.N, y.N)}}
		}),
		natives.Make("*", 2, func(a []value.Value) []value.Value {
			x, y := natives.ExpectInt("*", a[0]), natives.ExpectInt("*", a[1])
			return []value.Value{value.Int{N: new(big.Int).Mul(x.N, y.N)}}
		}),
		natives.Make("/", 2, func(a []value.Value) []value.Value {
			x, y := natives.ExpectInt("/", a[0]), natives.ExpectInt("/", a[1])
			if y.N.Sign() == 0 {
				failure.Raise(failure.Arithmetic, "division by zero")
			}
			q := new(big.Int)
			q.Quo(x.N, y.N)
			return []value.Value{value.Int{N: q}}
		}),
		natives.Make("mod", 2, func(a []value.Value) []value.Value {
			x, y := natives.ExpectInt("mod", a[0]), natives.ExpectInt("mod", a[1])
			if y.N.Sign() == 0 {
				failure.Raise(failure.Arithmetic, "modulo by zero")
			}
			r := new(big.Int)
			r.Mod(x.N, y.N)
			return []value.Value{value.Int{N: r}}
		}),
		natives.Make("<", 2, func(a []value.Value) []value.Value {
			x, y := natives.ExpectInt("<", a[0]), natives.ExpectInt("<", a[1])
			return []value.Value{boolAtom(x.N.Cmp(y.N) < 0)}
		}),
		natives.Make(">", 2, func(a []value.Value) []value.Value {
			x, y := natives.ExpectInt(">", a[0]), natives.ExpectInt(">", a[1])
			return []value.Value{boolAtom(x.N.Cmp(y.N) > 0)}
		}),
	})
}

// importNatives implements the import form, including the cherry-pick,
// :all, :qual/(:as X), and :prefix/(:prefix X) option shapes from SPEC_FULL
// §4.9. Compound option atoms like ":as:name" from the original source are
// written here as two-element vecs, (:as name), since this implementation's
// atom lexical class doesn't admit embedded colons; see DESIGN.md.
func importNatives(m *vm.Machine) []value.NativeFunction {
	modules := builtinModules()

	return []value.NativeFunction{
		natives.General("import", func(s *value.State) (*value.State, []value.Instruction) {
			optsV, rest, ok := s.Pop()
			if !ok {
				failure.Raise(failure.Arity, "import expects a module name and options on the stack")
			}
			nameV, rest2, ok := rest.Pop()
			if !ok {
				failure.Raise(failure.Arity, "import expects a module name and options on the stack")
			}
			moduleAtom := natives.ExpectAtom("import", nameV)
			mod, found := modules[moduleAtom.Label]
			if !found {
				failure.Raise(failure.Import, "no such module: %s", moduleAtom.Label)
			}
			exports := moduleExports(m, mod)
			return applyImportOptions(rest2, moduleAtom.Label, exports, optsV), nil
		}),
	}
}

func moduleExports(m *vm.Machine, mod Module) map[string]value.Value {
	if mod.Source == "" {
		out := make(map[string]value.Value, len(mod.Natives))
		for name, fn := range mod.Natives {
			out[name] = fn
		}
		return out
	}

	instrs, err := parser.Parse(mod.Source)
	if err != nil {
		failure.Raise(failure.Import, "source module failed to parse: %v", err)
	}
	base := Install(value.NewState(), m)
	child, id := scope.PushScope(base)
	result := m.Run(child, instrs)
	sc, ok := result.Scope(id)
	if !ok {
		failure.Raise(failure.Internal, "source module lost its export scope")
	}
	out := map[string]value.Value{}
	collection.MapRange(sc.Values, func(name string, v value.Value) { out[name] = v })
	return out
}

func applyImportOptions(s *value.State, moduleName string, exports map[string]value.Value, opts value.Value) *value.State {
	switch o := opts.(type) {
	case *value.Atom:
		switch o.Label {
		case "all":
			for name, v := range exports {
				s = scope.SetName(s, name, v)
			}
			return s
		case "qual":
			return bindQualified(s, moduleName, exports)
		case "prefix":
			return bindPrefixed(s, moduleName, exports)
		default:
			failure.Raise(failure.Import, "unknown import option :%s", o.Label)
		}
	case value.Vec:
		if tag, as, ok := asTagged(o); ok {
			switch tag {
			case "as":
				return bindQualified(s, as, exports)
			case "prefix":
				return bindPrefixed(s, as, exports)
			}
		}
		for _, e := range o.Elements {
			atom := natives.ExpectAtom("import", e)
			v, found := exports[atom.Label]
			if !found {
				failure.Raise(failure.Import, "module :%s has no member %s", moduleName, atom.Label)
			}
			s = scope.SetName(s, atom.Label, v)
		}
		return s
	}
	failure.Raise(failure.Import, "import expects an atom or vec of options, got %s", opts.TypeName())
	panic("unreachable")
}

// asTagged recognizes the (:as name) / (:prefix name) two-element option
// vecs.
func asTagged(v value.Vec) (tag, name string, ok bool) {
	if len(v.Elements) != 2 {
		return "", "", false
	}
	tagAtom, ok1 := v.Elements[0].(*value.Atom)
	nameAtom, ok2 := v.Elements[1].(*value.Atom)
	if !ok1 || !ok2 {
		return "", "", false
	}
	if tagAtom.Label != "as" && tagAtom.Label != "prefix" {
		return "", "", false
	}
	return tagAtom.Label, nameAtom.Label, true
}

func bindQualified(s *value.State, name string, exports map[string]value.Value) *value.State {
	lookup := value.NativeFunction{
		Name: name,
		Fn: func(s *value.State) (*value.State, []value.Instruction) {
			v, rest, ok := s.Pop()
			if !ok {
				failure.Raise(failure.Arity, "%s expects a member-name atom on the stack", name)
			}
			atom := natives.ExpectAtom(name, v)
			member, found := exports[atom.Label]
			if !found {
				failure.Raise(failure.Import, "module :%s has no member %s", name, atom.Label)
			}
			return rest.Push(member), nil
		},
	}
	return scope.SetName(s, name, lookup)
}

func bindPrefixed(s *value.State, prefix string, exports map[string]value.Value) *value.State {
	for name, v := range exports {
		s = scope.SetName(s, prefix+"."+name, v)
	}
	return s
}
