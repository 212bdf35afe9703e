package prelude

import (
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/dr8co/kongur/failure"
	"github.com/dr8co/kongur/natives"
	"github.com/dr8co/kongur/value"
	"github.com/dr8co/kongur/vm"
)

var caseSentinel = value.Intern("--case-sentinel--")

// caseNative implements the pattern-matching case form described in
// SPEC_FULL §4.8.
//
// The body code popped off the stack, when run, does nothing but push a
// flat sequence of (pattern_vec, action_code) pairs — that's simply what a
// literal "{ (pat1){act1} (pat2){act2} }" parses to. case runs that body
// itself against a sentinel-marked sub-state to recover the pairs in
// source order, picks the first pattern that matches the live stack, binds
// its captures, and hands the matched action off to the interpreter's work
// queue rather than invoking it directly, so a case-driven recursion (the
// factorial idiom) costs no Go stack depth.
func caseNatives(m *vm.Machine) []value.NativeFunction {
	return []value.NativeFunction{
		natives.General("case", func(s *value.State) (*value.State, []value.Instruction) {
			bodyV, rest, ok := s.Pop()
			if !ok {
				failure.Raise(failure.Arity, "case expects a code value on the stack")
			}
			body := natives.ExpectCode("case", bodyV)

			harvestState := m.Run(rest.Push(caseSentinel), body.Instructions)
			pairs, base := harvestPairs(harvestState)

			for _, p := range pairs {
				if next, binds, dots, ok := tryMatch(base, p.pattern); ok {
					for _, v := range dotGroupsInOrder(dots) {
						next = next.Push(v)
					}
					action := bindCaptures(p.action, binds)
					if action != p.action {
						// Only a freshly built binder Code needs retaining;
						// p.action was already retained by its PutCode.
						m.Retain(next, action)
					}
					return next, []value.Instruction{value.Put{Value: action}, value.CallByValue{}}
				}
			}
			failure.Raise(failure.Pattern, "case: no pattern matched the stack")
			panic("unreachable")
		}),
	}
}

type caseBranch struct {
	pattern value.Vec
	action  *value.Code
}

// harvestPairs pops (pattern, action) pairs off the top of s down to the
// sentinel pushed by caseNative, returning them in source (push) order and
// the state with the sentinel and pairs removed.
func harvestPairs(s *value.State) ([]caseBranch, *value.State) {
	var reversed []caseBranch
	for {
		v, rest, ok := s.Pop()
		if !ok {
			failure.Raise(failure.Internal, "case: malformed body, sentinel not found")
		}
		if a, isAtom := v.(*value.Atom); isAtom && a == caseSentinel {
			s = rest
			break
		}
		action := natives.ExpectCode("case", v)
		patV, rest2, ok := rest.Pop()
		if !ok {
			failure.Raise(failure.Pattern, "case: odd number of forms in a case body")
		}
		pattern := natives.ExpectVec("case", patV)
		reversed = append(reversed, caseBranch{pattern: pattern, action: action})
		s = rest2
	}
	pairs := make([]caseBranch, len(reversed))
	for i, p := range reversed {
		pairs[len(reversed)-1-i] = p
	}
	return pairs, s
}

type dotCapture struct {
	key   int
	order int
	value value.Value
}

// tryMatch attempts to unify pattern against the top of s's stack. On
// success it returns the state with the matched prefix consumed, the named
// bindings, and the dot captures in pattern order (dotGroupsInOrder groups
// and orders them for re-pushing).
func tryMatch(s *value.State, pattern value.Vec) (*value.State, map[string]value.Value, []dotCapture, bool) {
	elems := pattern.Elements
	k := len(elems)
	top := make([]value.Value, 0, k)
	cursor := s
	for i := 0; i < k; i++ {
		v, rest, ok := cursor.Pop()
		if !ok {
			return nil, nil, nil, false
		}
		top = append(top, v)
		cursor = rest
	}
	// top[0] is the stack's top value, matching the rightmost pattern
	// element (elems[k-1]).
	binds := map[string]value.Value{}
	var dots []dotCapture
	order := 0
	for i := range elems {
		stackVal := top[k-1-i]
		if !matchElement(elems[i], stackVal, binds, &dots, &order) {
			return nil, nil, nil, false
		}
	}
	return cursor, binds, dots, true
}

// matchElement unifies a single pattern element against val, recording
// named bindings into binds and dot captures into *dots. order is a shared
// left-to-right counter threaded through the whole pattern tree, so a
// dot-run's relative re-push position within its key group is consistent
// whether the dot-run sits at the top level of the pattern or nested inside
// a Vec pattern element.
func matchElement(elem, val value.Value, binds map[string]value.Value, dots *[]dotCapture, order *int) bool {
	if vecPat, isVec := elem.(value.Vec); isVec {
		valVec, ok := val.(value.Vec)
		if !ok || len(valVec.Elements) != len(vecPat.Elements) {
			return false
		}
		for i, sub := range vecPat.Elements {
			if !matchElement(sub, valVec.Elements[i], binds, dots, order) {
				return false
			}
		}
		return true
	}

	atom, isAtom := elem.(*value.Atom)
	switch {
	case isAtom && atom.Label == "_":
		// wildcard: matches anything, no capture
	case isAtom && isDotRun(atom.Label):
		*dots = append(*dots, dotCapture{key: dotKey(atom.Label), order: *order, value: val})
	case isAtom:
		if _, dup := binds[atom.Label]; dup {
			failure.Raise(failure.Pattern, "case: duplicate binding name %q in one pattern", atom.Label)
		}
		binds[atom.Label] = val
	default:
		if !valuesEqual(elem, val) {
			return false
		}
	}
	*order++
	return true
}

// isDotRun reports whether label is a dot-run capture atom: one or more
// literal dots ("." / ".." / "...") or "." followed by digits (".3").
func isDotRun(label string) bool {
	if label == "" {
		return false
	}
	if strings.Trim(label, ".") == "" {
		return true
	}
	if label[0] == '.' && isAllDigits(label[1:]) && len(label) > 1 {
		return true
	}
	return false
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// dotKey returns a dot-run atom's grouping key: its dot count, or the
// explicit number in a ".N" form.
func dotKey(label string) int {
	if label[0] == '.' && isAllDigits(label[1:]) {
		n, _ := strconv.Atoi(label[1:])
		return n
	}
	return len(label)
}

// dotGroupsInOrder groups dot captures by key, in ascending key order, each
// group's members in the left-to-right pattern order they appeared in —
// the re-push order the specification's own test suite exercises.
func dotGroupsInOrder(dots []dotCapture) []value.Value {
	if len(dots) == 0 {
		return nil
	}
	byKey := map[int][]dotCapture{}
	for _, d := range dots {
		byKey[d.key] = append(byKey[d.key], d)
	}
	keys := make([]int, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	var out []value.Value
	for _, k := range keys {
		group := byKey[k]
		sort.SliceStable(group, func(i, j int) bool { return group[i].order < group[j].order })
		for _, d := range group {
			out = append(out, d.value)
		}
	}
	return out
}

// bindCaptures prepends a def-binding instruction triple per named capture
// to action's instructions, in a deterministic (sorted) order.
func bindCaptures(action *value.Code, binds map[string]value.Value) *value.Code {
	if len(binds) == 0 {
		return action
	}
	names := make([]string, 0, len(binds))
	for n := range binds {
		names = append(names, n)
	}
	sort.Strings(names)

	var prefix []value.Instruction
	for _, n := range names {
		prefix = append(prefix,
			value.Put{Value: binds[n]},
			value.Put{Value: value.Intern(n)},
			value.CallByName{Name: "def"},
		)
	}
	return &value.Code{
		Instructions: append(prefix, action.Instructions...),
		ClosureScope: action.ClosureScope,
		HasClosure:   action.HasClosure,
		Flags:        action.Flags,
		Name:         action.Name,
	}
}

func valuesEqual(a, b value.Value) bool {
	switch av := a.(type) {
	case value.Int:
		bv, ok := b.(value.Int)
		return ok && bigEqual(av.N, bv.N)
	case value.Str:
		bv, ok := b.(value.Str)
		return ok && av.S == bv.S
	case *value.Atom:
		bv, ok := b.(*value.Atom)
		return ok && av == bv
	case value.Vec:
		bv, ok := b.(value.Vec)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !valuesEqual(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case value.Box:
		bv, ok := b.(value.Box)
		return ok && av.ID == bv.ID
	default:
		return false
	}
}

func bigEqual(a, b *big.Int) bool { return a.Cmp(b) == 0 }
