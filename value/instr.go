package value

// Instruction is one step of a flat instruction stream produced by the
// parser. Unlike a byte-encoded opcode stream, each variant carries its
// operands as typed Go fields — there is no separate decode step, which is
// the direct consequence of Code embedding []Instruction and Instruction
// (via Put/PutCode) embedding Value.
type Instruction interface {
	instr()
}

// Put pushes a literal value (Int, Str, Atom, or a Vec of literals) onto the
// stack.
type Put struct {
	Value Value
}

// PutCode pushes a quoted code block. Code.ClosureScope is filled in at
// execution time from the scope active where the PutCode instruction runs,
// not at parse time.
type PutCode struct {
	Code *Code
}

// CallByName looks Name up in the active scope chain and calls whatever
// value it resolves to (Code, NativeFunction, or any other value — calling a
// non-callable value is a type error raised at execution time).
type CallByName struct {
	Name string
}

// CallByValue pops the top of the stack and calls it, the behavior behind
// the "!" builtin.
type CallByValue struct{}

// MakeVec pops the top N stack values and pushes them back as a single Vec,
// bottom-to-top matching source order.
type MakeVec struct {
	N int
}

// MakeScope pushes a new child scope of the currently active scope onto the
// scope stack. The parser never emits it; calling a Code value pushes the
// call frame's scope directly (see package vm) and splices only the
// matching PopScope onto the work queue.
type MakeScope struct{}

// PopScope removes the innermost scope from the scope stack once its body
// has finished running, and releases one reference to it: the scope's entry
// is removed from the scope table right then if that was the last
// reference, and otherwise stays until the Code values closing over it are
// collected.
type PopScope struct{}

func (Put) instr()         {}
func (PutCode) instr()     {}
func (CallByName) instr()  {}
func (CallByValue) instr() {}
func (MakeVec) instr()     {}
func (MakeScope) instr()   {}
func (PopScope) instr()    {}
