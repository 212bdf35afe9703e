// Package vm implements the stackless interpreter: a work-queue evaluator
// over the flat value.Instruction stream, plus the closure-scope lifetime
// management that reclaims scopes and finalizes Code values as they go out
// of reach.
//
// There is no host call stack standing in for the language's call stack —
// "calling" a Code value splices its instructions onto the front of the
// pending work queue instead of recursing into Run, so tail calls and deep
// withdrawal of a closure's body never grow Go's own stack. MakeScope and
// PopScope instructions bracket a call's instructions to manage the lexical
// scope that call runs against; reference counts on scope IDs, incremented
// on MakeScope and decremented on PopScope, decide when a scope's entry can
// be dropped from the scope table.
package vm

import (
	"runtime"

	"github.com/dr8co/kongur/failure"
	"github.com/dr8co/kongur/scope"
	"github.com/dr8co/kongur/value"
)

// Machine runs instruction streams against a value.State. It carries the
// mutable, non-persistent bookkeeping the interpreter needs alongside the
// persistent State: scope reference counts and the queue of scopes whose
// owning Code values have been garbage collected. A Machine is not safe for
// concurrent use — run-concurrently gives each spawned branch its own
// Machine.
type Machine struct {
	// Trace, if set, is called immediately before every instruction
	// executes. It exists for debugging and for tooling such as a future
	// step-through REPL command; production interpretation leaves it nil.
	Trace func(s *value.State, instr value.Instruction)

	refcounts map[value.ScopeID]int
	dropped   chan value.ScopeID
}

// New creates a Machine ready to run instruction streams.
func New() *Machine {
	return &Machine{
		refcounts: make(map[value.ScopeID]int),
		dropped:   make(chan value.ScopeID, 64),
	}
}

// rootScopeID is the one scope that outlives every program: the root scope
// installed by value.NewState, into which prelude.Install binds the entire
// built-in vocabulary. It plays the role the reference implementation splits
// across its builtin_scope/global_scope pair — both well-known scopes here
// collapse into scope 0, since Install binds straight into the state's
// initial scope rather than a separate parent — and like them it is never
// retained, released, or removed from the scope table.
const rootScopeID value.ScopeID = 0

func (m *Machine) retain(s *value.State, id value.ScopeID) {
	if id == rootScopeID {
		return
	}
	m.refcounts[id]++
	if sc, ok := s.Scope(id); ok && sc.HasParent {
		m.retain(s, sc.Parent)
	}
}

// release decrements id's refcount and, once it reaches zero, removes the
// scope from s's scope table and propagates a release to its parent — the
// Go equivalent of the reference implementation's _real_finalizer/kill_scope
// pair. Propagation to the parent happens whether or not id itself is
// collected this call, mirroring introduce's own unconditional walk up the
// parent chain: every scope's refcount includes one increment per retained
// descendant, so a descendant's release must always pay that back.
//
// The scope is not dropped from the state immediately when it's a closure
// reaching zero refcount via the GC finalizer path: the specification's own
// reference implementation defers a scope's actual release by one
// evaluation step so that an instruction sequence which pops a scope and
// then immediately reads a value captured from it (the last instruction of
// a call site referencing its own args) still observes it. That deferral is
// what drainDropped provides, by draining the finalizer queue once per Run
// iteration rather than releasing synchronously from the finalizer itself;
// release here always mutates the table it's given as soon as it's called.
func (m *Machine) release(s *value.State, id value.ScopeID) *value.State {
	if id == rootScopeID {
		return s
	}
	m.refcounts[id]--
	sc, ok := s.Scope(id)
	if !ok {
		// Already removed by an earlier release in the same parent chain.
		delete(m.refcounts, id)
		return s
	}
	if sc.HasParent {
		s = m.release(s, sc.Parent)
	}
	if m.refcounts[id] <= 0 {
		delete(m.refcounts, id)
		s = s.WithoutScope(id)
	}
	return s
}

// introduceClosure is called whenever a Code value capturing scopeID is
// created (a { ... } literal executing PutCode, or close/case building a
// synthetic Code). It retains the scope and arms a finalizer that reports
// the scope's eventual collection back to the Machine, mirroring the
// specification's "Code creation introduces, GC finalizes" closure-lifetime
// contract.
func (m *Machine) introduceClosure(s *value.State, code *value.Code) {
	if !code.HasClosure {
		return
	}
	m.retain(s, code.ClosureScope)
	id := code.ClosureScope
	dropped := m.dropped
	runtime.SetFinalizer(code, func(*value.Code) {
		select {
		case dropped <- id:
		default:
		}
	})
}

// Retain arms closure-lifetime tracking for a Code value built directly by a
// native (close's partial application, case's per-branch binder code)
// instead of by a PutCode instruction. It must be called exactly once per
// freshly constructed Code that carries a closure scope, so prelude natives
// that synthesize new Code values call this instead of duplicating
// introduceClosure's bookkeeping. s only needs to have the captured scope
// already present in its scope table; it is not otherwise consulted.
func (m *Machine) Retain(s *value.State, code *value.Code) *value.Code {
	m.introduceClosure(s, code)
	return code
}

// drainDropped applies every closure finalization that has fired since the
// last drain, releasing the scopes they held from s and returning the
// resulting state.
func (m *Machine) drainDropped(s *value.State) *value.State {
	for {
		select {
		case id := <-m.dropped:
			s = m.release(s, id)
		default:
			return s
		}
	}
}

// bindClosure stamps a freshly produced Code literal with the scope active
// at the point it is pushed, and registers it for lifetime tracking.
func (m *Machine) bindClosure(s *value.State, tmpl *value.Code) *value.Code {
	top, ok := s.TopScope()
	if !ok {
		failure.Raise(failure.Internal, "put_code with no active scope")
	}
	code := &value.Code{
		Instructions: tmpl.Instructions,
		ClosureScope: top.ID,
		HasClosure:   true,
		Flags:        tmpl.Flags,
		Name:         tmpl.Name,
		Source:       tmpl.Source,
	}
	m.introduceClosure(s, code)
	return code
}

// Run executes instrs against s to completion (or until a failure panics
// out), returning the final state.
func (m *Machine) Run(s *value.State, instrs []value.Instruction) *value.State {
	queue := append([]value.Instruction{}, instrs...)
	for len(queue) > 0 {
		s = m.drainDropped(s)

		instr := queue[0]
		queue = queue[1:]
		if m.Trace != nil {
			m.Trace(s, instr)
		}

		switch ins := instr.(type) {
		case value.Put:
			s = s.Push(ins.Value)

		case value.PutCode:
			s = s.Push(m.bindClosure(s, ins.Code))

		case value.CallByName:
			v := scope.MustLookup(s, ins.Name)
			var extra []value.Instruction
			s, extra = m.call(s, v)
			queue = prepend(extra, queue)

		case value.CallByValue:
			v, rest, ok := s.Pop()
			if !ok {
				failure.Raise(failure.Arity, "! called on an empty stack")
			}
			s = rest
			var extra []value.Instruction
			s, extra = m.call(s, v)
			queue = prepend(extra, queue)

		case value.MakeVec:
			elems := make([]value.Value, ins.N)
			for i := ins.N - 1; i >= 0; i-- {
				v, rest, ok := s.Pop()
				if !ok {
					failure.Raise(failure.Arity, "not enough values to build a %d-element vec", ins.N)
				}
				elems[i] = v
				s = rest
			}
			s = s.Push(value.Vec{Elements: elems})

		case value.MakeScope:
			var id value.ScopeID
			s, id = scope.PushScope(s)
			m.retain(s, id)

		case value.PopScope:
			top, ok := s.TopScope()
			if !ok {
				failure.Raise(failure.Internal, "pop_scope with no active scope")
			}
			s = scope.PopScope(s)
			s = m.release(s, top.ID)

		default:
			failure.Raise(failure.Internal, "unhandled instruction %T", instr)
		}
	}
	return s
}

// call dispatches a call-by-name or call-by-value target. It returns the
// (possibly scope-pushed) state and the instructions to splice onto the
// front of the work queue to actually run it; Run is responsible for
// prepending those instructions rather than recursing, which is what keeps
// the interpreter stackless.
func (m *Machine) call(s *value.State, v value.Value) (*value.State, []value.Instruction) {
	switch fn := v.(type) {
	case *value.Code:
		if fn.Flags&value.FlagParentScope != 0 || !fn.HasClosure {
			return s, fn.Instructions
		}
		next, id := scope.PushScopeWithParent(s, fn.ClosureScope)
		m.retain(next, id)
		return next, append(append([]value.Instruction{}, fn.Instructions...), value.PopScope{})

	case value.NativeFunction:
		return fn.Fn(s)

	default:
		failure.Raise(failure.Type, "cannot call a %s", v.TypeName())
		panic("unreachable")
	}
}

func prepend(extra, rest []value.Instruction) []value.Instruction {
	if len(extra) == 0 {
		return rest
	}
	out := make([]value.Instruction, 0, len(extra)+len(rest))
	out = append(out, extra...)
	out = append(out, rest...)
	return out
}
