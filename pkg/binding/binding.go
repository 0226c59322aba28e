// Package binding provides two-way accessors with stable identity.
//
// A [Binding] reads through to its storage (registering a dependency when
// read inside an observation) and writes back through it under a
// transaction. Bindings derive into narrower bindings with [Map], [Unwrap]
// and [Case]; every derivation keeps write-back and extends the parent's
// [Identifier].
//
//	b := binding.FromSlot(model.destination)
//	if detail, ok := binding.Case(b, binding.CaseOf[Destination, Detail]("detail")); ok {
//	    title := binding.Map(detail, "title",
//	        func(d Detail) string { return d.Title },
//	        func(d *Detail, s string) { d.Title = s },
//	    )
//	    title.Set("Renamed")
//	}
//
// Projections that do not currently apply return false rather than a
// binding; treat every projection result as optional.
package binding

import (
	"github.com/go-drift/navsync/pkg/animation"
	"github.com/go-drift/navsync/pkg/core"
	"github.com/go-drift/navsync/pkg/transaction"
)

// Binding is a two-way accessor for a value of type T.
//
// Bindings are small values; copy them freely. The zero Binding reads the
// zero T and drops writes.
type Binding[T any] struct {
	id  Identifier
	rt  *core.Runtime
	get func() T
	set func(T)
	tx  transaction.Transaction
}

// FromSlot returns the root binding of a slot.
func FromSlot[T any](s *core.Slot[T]) Binding[T] {
	return Binding[T]{
		id:  IdentifierOf(s.ID()),
		rt:  s.Runtime(),
		get: s.Value,
		set: s.Set,
	}
}

// New returns a binding over custom storage. rt may be nil when the storage
// is not part of a runtime; writes then run without an ambient transaction.
func New[T any](rt *core.Runtime, id Identifier, get func() T, set func(T)) Binding[T] {
	return Binding[T]{id: id, rt: rt, get: get, set: set}
}

// Constant returns a binding that always reads value and drops writes.
func Constant[T any](value T) Binding[T] {
	return Binding[T]{
		id:  NewIdentifier().Child("constant"),
		get: func() T { return value },
	}
}

// ID returns the binding's identity.
func (b Binding[T]) ID() Identifier {
	return b.id
}

// Runtime returns the runtime the binding writes through, or nil.
func (b Binding[T]) Runtime() *core.Runtime {
	return b.rt
}

// Transaction returns the transaction attached to the binding.
func (b Binding[T]) Transaction() transaction.Transaction {
	return b.tx
}

// Valid reports whether b reads from storage. Zero bindings are not valid.
func (b Binding[T]) Valid() bool {
	return b.get != nil
}

// Get returns the current value.
func (b Binding[T]) Get() T {
	if b.get == nil {
		var zero T
		return zero
	}
	return b.get()
}

// Set writes value under the binding's transaction. The write does not
// inherit the ambient transaction; attach one with WithTransaction or
// Animated, or pass it to SetWith.
func (b Binding[T]) Set(value T) {
	b.SetWith(value, transaction.New())
}

// SetWith writes value under tx merged over the binding's own transaction.
func (b Binding[T]) SetWith(value T, tx transaction.Transaction) {
	if b.set == nil {
		return
	}
	if b.rt == nil {
		b.set(value)
		return
	}
	b.rt.Within(b.tx.Merge(tx), func() {
		b.set(value)
	})
}

// WithTransaction returns a copy of b whose writes carry tx.
func (b Binding[T]) WithTransaction(tx transaction.Transaction) Binding[T] {
	b.tx = b.tx.Merge(tx)
	return b
}

// Animated returns a copy of b whose writes animate with spec.
func (b Binding[T]) Animated(spec *animation.Spec) Binding[T] {
	return b.WithTransaction(transaction.New().WithAnimation(spec))
}

// peek reads without registering a dependency. Write paths use it so a
// write issued from inside an observation does not subscribe to the value
// it overwrites.
func (b Binding[T]) peek() T {
	if b.rt == nil {
		return b.Get()
	}
	var v T
	b.rt.Untracked(func() { v = b.Get() })
	return v
}

// derive returns a binding that shares b's runtime and transaction.
func derive[T, U any](b Binding[T], tag string, get func() U, set func(U)) Binding[U] {
	return Binding[U]{
		id:  b.id.Child(tag),
		rt:  b.rt,
		get: get,
		set: set,
		tx:  b.tx,
	}
}

// Equal reports whether a and b have the same identity.
func Equal[A, B any](a Binding[A], b Binding[B]) bool {
	return a.id == b.id
}
