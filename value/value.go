// Package value defines the tagged-union runtime value model and the
// persistent interpreter state it lives in.
//
// The instruction stream (see instr.go) is a second tagged union that
// embeds Value directly (Put carries a Value, PutCode carries a nested
// *Code, itself a Value) and Value embeds Instruction right back (Code
// holds []Instruction). That mutual recursion is why both unions, plus the
// State they operate on, live in one package instead of split the way the
// teacher splits its encoded bytecode (package code) from its runtime
// objects (package object): a byte-encoded instruction stream can sit in
// its own package because it doesn't need to know the shape of the values
// it pushes, but a tagged-union one does.
package value

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"

	"github.com/dr8co/kongur/collection"
)

// Value is anything that can live on the stack, in a scope, or inside a vec.
type Value interface {
	// TypeName names the value's kind for type-error messages, e.g. "int".
	TypeName() string

	// Inspect renders the value the way the REPL's result echo and the
	// "print" family of native functions do.
	Inspect() string
}

// Int is an arbitrary-precision integer.
type Int struct {
	N *big.Int
}

// NewInt wraps a machine integer.
func NewInt(n int64) Int { return Int{N: big.NewInt(n)} }

// NewIntFromString parses a decimal literal, as produced by the lexer's INT
// token class.
func NewIntFromString(s string) (Int, bool) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Int{}, false
	}
	return Int{N: n}, true
}

func (i Int) TypeName() string { return "int" }
func (i Int) Inspect() string  { return i.N.String() }

// Str is an immutable text value.
type Str struct {
	S string
}

func (s Str) TypeName() string { return "str" }
func (s Str) Inspect() string  { return strconv.Quote(s.S) }

// Atom is an interned symbolic constant. Two Atoms denote the same symbol
// if and only if they are the same *Atom pointer — see Intern.
type Atom struct {
	Label string
}

var atomTable sync.Map // string -> *Atom

// Intern returns the unique *Atom for label, creating it on first use. It is
// safe for concurrent use from multiple interpreter threads (run-concurrently
// spawns independent State instances that all share this table).
func Intern(label string) *Atom {
	if a, ok := atomTable.Load(label); ok {
		return a.(*Atom)
	}
	actual, _ := atomTable.LoadOrStore(label, &Atom{Label: label})
	return actual.(*Atom)
}

func (a *Atom) TypeName() string { return "atom" }
func (a *Atom) Inspect() string  { return ":" + a.Label }

// Vec is an immutable, nestable tuple of values.
type Vec struct {
	Elements []Value
}

func (v Vec) TypeName() string { return "vec" }
func (v Vec) Inspect() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, e := range v.Elements {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(e.Inspect())
	}
	b.WriteByte(')')
	return b.String()
}

// ScopeID identifies a lexical scope within a State's scope table.
type ScopeID int64

// BoxID identifies a mutable box within a State's box table.
type BoxID int64

// CodeFlags are bit flags carried on a Code value.
type CodeFlags uint8

const (
	// FlagParentScope marks code (set by the parent-scope native, and kept
	// by close on the code it curries) that executes against the caller's
	// active scope rather than pushing a fresh child scope of its own — the
	// mechanism that lets such code splice into the work queue without
	// growing the scope chain on every call.
	FlagParentScope CodeFlags = 1 << iota
)

// Code is quoted, callable code: a flat instruction stream plus the closure
// scope it captured at the point it was built.
type Code struct {
	Instructions []Instruction

	// ClosureScope is the scope this code closed over when it was created
	// (by a { ... } literal, by close, or by a case branch). HasClosure is
	// false for code with no captured scope (e.g. a freshly parsed
	// top-level program, which runs directly against the root scope).
	ClosureScope ScopeID
	HasClosure   bool

	Flags CodeFlags

	// Name is set when the code is bound to a name by jar, for
	// diagnostics and stack traces. It does not affect equality or
	// execution.
	Name string

	// Source is the original source text the code was parsed from, kept for
	// the REPL's echo and for error context. It may be empty for
	// synthetically constructed code (native-built closures).
	Source string
}

func (c *Code) TypeName() string { return "code" }
func (c *Code) Inspect() string {
	if c.Source != "" {
		return c.Source
	}
	return fmt.Sprintf("<code/%d>", len(c.Instructions))
}

// NativeFunc is the general native-function protocol: a function from one
// immutable State to its successor, optionally followed by instructions the
// interpreter should splice onto the front of its work queue before
// continuing. The extra-instructions return is what lets a native such as
// case hand off to a (possibly deeply recursive) quoted action without
// recursing into Go's own call stack to run it: case resolves the matching
// branch itself, then returns its instructions for the interpreter's queue
// to run the ordinary way. Natives that don't need this return nil.
//
// Failures are reported the same way the rest of the interpreter reports
// them: by panicking with a *failure.Error, recovered at a call-site
// boundary (package failure can't be imported here without a cycle, so
// natives import it directly and call failure.Raise).
type NativeFunc func(*State) (*State, []Instruction)

// NativeFunction is a host-implemented callable, registered into a scope the
// same way Code is.
type NativeFunction struct {
	Name string
	Fn   NativeFunc
}

func (n NativeFunction) TypeName() string { return "native" }
func (n NativeFunction) Inspect() string  { return "<native:" + n.Name + ">" }

// Box is a handle to a mutable cell in a State's box table. The box itself
// never appears twice with different identity: copying a Box value copies
// the handle, not the cell.
type Box struct {
	ID BoxID
}

func (b Box) TypeName() string { return "box" }
func (b Box) Inspect() string  { return fmt.Sprintf("<box:%d>", b.ID) }

// Scope is one persistent lexical frame: a name table plus a link to its
// parent. The empty name table and the absence of a parent are both
// represented explicitly so that scope 0 (the root) prints and walks
// cleanly.
type Scope struct {
	ID        ScopeID
	Parent    ScopeID
	HasParent bool
	Values    *collection.Map[string, Value]
}

func hashName(s string) uint32 { return collection.HashString(s) }

func hashScopeID(id ScopeID) uint32 { return collection.HashInt64(int64(id)) }

func hashBoxID(id BoxID) uint32 { return collection.HashInt64(int64(id)) }

// NewScope builds an empty scope with the given identity.
func NewScope(id ScopeID, parent ScopeID, hasParent bool) *Scope {
	return &Scope{ID: id, Parent: parent, HasParent: hasParent, Values: collection.NewMap[string, Value](hashName)}
}

// State is the interpreter's entire persistent world: the value stack, the
// scope table, the scope stack (the scopes currently in lexical effect,
// innermost on top), and the box table. Every mutating operation returns a
// new *State; nothing here is ever mutated in place.
type State struct {
	Stack *collection.Stack[Value]

	Scopes      *collection.Map[ScopeID, *Scope]
	ScopeStack  *collection.Stack[ScopeID]
	NextScopeID ScopeID

	Boxes      *collection.Map[BoxID, *collection.Stack[Value]]
	NextBoxID  BoxID
}

// NewState builds a fresh State with a single empty root scope on the scope
// stack.
func NewState() *State {
	root := NewScope(0, 0, false)
	scopes := collection.MapSet(collection.NewMap[ScopeID, *Scope](hashScopeID), root.ID, root)
	return &State{
		Scopes:      scopes,
		ScopeStack:  collection.Push[ScopeID](nil, root.ID),
		NextScopeID: 1,
		Boxes:       collection.NewMap[BoxID, *collection.Stack[Value]](hashBoxID),
		NextBoxID:   0,
	}
}

// Push returns a new state with v on top of the value stack.
func (s *State) Push(v Value) *State {
	next := *s
	next.Stack = collection.Push(s.Stack, v)
	return &next
}

// Pop returns the top of the value stack and a state with it removed.
func (s *State) Pop() (Value, *State, bool) {
	v, rest, ok := collection.Pop(s.Stack)
	if !ok {
		return nil, s, false
	}
	next := *s
	next.Stack = rest
	return v, &next, true
}

// TopScope returns the innermost scope currently in effect.
func (s *State) TopScope() (*Scope, bool) {
	id, ok := collection.Peek(s.ScopeStack)
	if !ok {
		return nil, false
	}
	sc, ok := collection.MapGet(s.Scopes, id)
	return sc, ok
}

// Scope looks a scope up by ID.
func (s *State) Scope(id ScopeID) (*Scope, bool) {
	return collection.MapGet(s.Scopes, id)
}

// WithScope returns a state whose scope table has sc installed (inserted or
// replaced) by its ID.
func (s *State) WithScope(sc *Scope) *State {
	next := *s
	next.Scopes = collection.MapSet(s.Scopes, sc.ID, sc)
	return &next
}

// WithoutScope returns a state with id removed from the scope table
// entirely. It is the Go stand-in for the reference implementation's
// State.kill_scope: called once a scope's closure refcount has dropped to
// zero, never while it (or a scope beneath it on the scope stack) is still
// in lexical effect.
func (s *State) WithoutScope(id ScopeID) *State {
	next := *s
	next.Scopes = collection.MapDelete(s.Scopes, id)
	return &next
}
