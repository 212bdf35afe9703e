// Package box implements the mutable-box primitives: box, ->, -!>, <-, <[,
// ]>, <<<, <<<?, <=, and <X-.
//
// A box's storage is modeled as a persistent stack of value "layers": the
// bottom layer is the last committed value, and every layer above it is an
// open, uncommitted transaction. <[ opens a new layer by duplicating the
// current top; <- replaces the top layer's value in place; ]> commits by
// dropping the one layer it shadows, keeping any further-nested open
// transactions beneath intact; <<< and <<<? discard the top layer instead
// of committing it. Both ]> and <<</<<<? fail on a box with no open
// transaction. Because the box table itself is a persistent map, every one
// of these operations is just "replace this one BoxID's entry" and shares
// everything else in the table structurally.
package box

import (
	"github.com/dr8co/kongur/collection"
	"github.com/dr8co/kongur/failure"
	"github.com/dr8co/kongur/value"
)

func get(s *value.State, id value.BoxID) *collection.Stack[value.Value] {
	layers, ok := collection.MapGet(s.Boxes, id)
	if !ok {
		failure.Raise(failure.Box, "no such box: %d", id)
	}
	return layers
}

func withLayers(s *value.State, id value.BoxID, layers *collection.Stack[value.Value]) *value.State {
	next := *s
	next.Boxes = collection.MapSet(s.Boxes, id, layers)
	return &next
}

// New allocates a box holding v and returns the updated state and the Box
// handle.
func New(s *value.State, v value.Value) (*value.State, value.Box) {
	id := s.NextBoxID
	next := *s
	next.Boxes = collection.MapSet(s.Boxes, id, collection.Push[value.Value](nil, v))
	next.NextBoxID = id + 1
	return &next, value.Box{ID: id}
}

// Committed returns the bottommost (last-committed) value of b: the
// behavior behind "->".
func Committed(s *value.State, b value.Box) value.Value {
	layers := get(s, b.ID)
	slice := collection.ToSlice(layers)
	return slice[len(slice)-1]
}

// Current returns the topmost (possibly-uncommitted) value of b: the
// behavior behind "-!>".
func Current(s *value.State, b value.Box) value.Value {
	v, _ := collection.Peek(get(s, b.ID))
	return v
}

// Set replaces the topmost layer's value in place: the behavior behind "<-".
func Set(s *value.State, b value.Box, v value.Value) *value.State {
	layers := get(s, b.ID)
	_, rest, ok := collection.Pop(layers)
	if !ok {
		failure.Raise(failure.Internal, "box %d has no layers", b.ID)
	}
	return withLayers(s, b.ID, collection.Push(rest, v))
}

// Begin opens a new transaction layer on top of b's current value: the
// behavior behind "<[".
func Begin(s *value.State, b value.Box) *value.State {
	cur := Current(s, b)
	return withLayers(s, b.ID, collection.Push(get(s, b.ID), cur))
}

// Commit drops the layer immediately beneath the current value — the one
// transaction being committed — and keeps the current value on top of
// whatever remains, preserving any further-nested open transactions
// underneath: the behavior behind "]>". Committing a box with no open
// transaction is a BoxError, same as Rollback.
func Commit(s *value.State, b value.Box) *value.State {
	layers := get(s, b.ID)
	cur, rest, ok := collection.Pop(layers)
	if !ok || rest == nil {
		failure.Raise(failure.Box, "box %d has no open transaction to commit", b.ID)
	}
	_, beneath, _ := collection.Pop(rest)
	return withLayers(s, b.ID, collection.Push(beneath, cur))
}

// Rollback discards the topmost transaction layer, restoring the layer
// beneath it, and returns the discarded value alongside the new state: the
// shared implementation behind "<<<" and "<<<?".
func Rollback(s *value.State, b value.Box) (*value.State, value.Value) {
	layers := get(s, b.ID)
	discarded, rest, ok := collection.Pop(layers)
	if !ok || rest == nil {
		failure.Raise(failure.Box, "box %d has no open transaction to roll back", b.ID)
	}
	return withLayers(s, b.ID, rest), discarded
}

// Change atomically replaces b's topmost value with v in a single step
// (outside any transaction, that is the committed value) — equivalent to
// Begin, Set, Commit composed, with no intermediate state observable: the
// behavior behind "<=".
func Change(s *value.State, b value.Box, v value.Value) *value.State {
	_, rest, _ := collection.Pop(get(s, b.ID))
	return withLayers(s, b.ID, collection.Push(rest, v))
}

// Deallocate removes b from the box table entirely: the behavior behind
// "<X-". Looking the box up afterward is a BoxError.
func Deallocate(s *value.State, b value.Box) *value.State {
	get(s, b.ID) // validate existence before dropping
	next := *s
	next.Boxes = collection.MapDelete(s.Boxes, b.ID)
	return &next
}
