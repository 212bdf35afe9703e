// Package failure defines the typed runtime failures surfaced by the lexer,
// parser, and interpreter.
//
// A failure carries a closed Kind alongside a human-readable reason, following
// the error-kinds-with-reasons design used throughout the interpreter: natives
// fail by calling Raise (which panics with an *Error) rather than returning
// (error, Value) pairs, and the call-site boundary (REPL, -c driver) recovers
// and reports. run-concurrently does not recover: a failure in one of its
// goroutines crashes the process.
package failure

import "fmt"

// Kind identifies the category of a runtime or compile-time failure.
type Kind string

//nolint:revive
const (
	Parse      Kind = "ParseError"
	Type       Kind = "TypeError"
	Name       Kind = "NameError"
	Arity      Kind = "ArityError"
	Pattern    Kind = "PatternError"
	Box        Kind = "BoxError"
	Import     Kind = "ImportError"
	Arithmetic Kind = "ArithmeticError"
	Internal   Kind = "InternalError"
)

// Error is a typed runtime or compile-time failure.
type Error struct {
	// Kind classifies the failure for programmatic handling by callers.
	Kind Kind

	// Reason is the human-readable description of what went wrong.
	Reason string

	// Offset is the byte offset into the source where the failure originates,
	// when known. Negative means unknown.
	Offset int

	// Context names the syntactic construct being parsed when a ParseError
	// occurred, e.g. "a code literal" or "a tuple literal".
	Context string

	// EOF is set on a ParseError caused by running out of input, as opposed
	// to a malformed or unexpected token. (The REPL decides whether to
	// request another line by bracket balance, not by this flag.)
	EOF bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (in %s)", e.Kind, e.Reason, e.Context)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// New builds an Error of the given kind with a formatted reason.
func New(kind Kind, format string, a ...any) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, a...), Offset: -1}
}

// Parsef builds a ParseError with source context.
func Parsef(offset int, context string, eof bool, format string, a ...any) *Error {
	return &Error{
		Kind:    Parse,
		Reason:  fmt.Sprintf(format, a...),
		Offset:  offset,
		Context: context,
		EOF:     eof,
	}
}

// RaiseEOF panics with a ParseError whose EOF flag is set, distinguishing
// "the input ended inside an open form" from a genuine syntax error.
func RaiseEOF(context, format string, a ...any) {
	panic(&Error{
		Kind:    Parse,
		Reason:  fmt.Sprintf(format, a...),
		Offset:  -1,
		Context: context,
		EOF:     true,
	})
}

// Raise panics with a newly built Error. Used by the interpreter and natives
// to unwind to the nearest recover point, mirroring the host-failure-callback
// contract described for native functions.
func Raise(kind Kind, format string, a ...any) {
	panic(New(kind, format, a...))
}

// Recover turns a panicking *Error into a returned error. Intended for use in
// a deferred call at a call-site boundary (REPL, -c driver, parser entry
// points). Non-Error panics are re-raised.
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if err, ok := r.(*Error); ok {
		*errp = err
		return
	}
	panic(r)
}
