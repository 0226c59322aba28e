package binding

// Map projects b into a field of its value. get extracts the field; set
// stores a new field value into a copy of the parent value, which is then
// written back through b. The projection's identity is b's identity
// extended by tag.
func Map[T, F any](b Binding[T], tag string, get func(T) F, set func(*T, F)) Binding[F] {
	return derive(b, tag,
		func() F { return get(b.Get()) },
		func(value F) {
			if b.set == nil {
				return
			}
			parent := b.peek()
			set(&parent, value)
			b.set(parent)
		},
	)
}

// Unwrap projects an optional binding into its value. It returns false when
// the optional is currently nil.
//
// Reads after the optional has become nil elsewhere return the last value
// seen instead of a resurrected one, and writes while it is nil are
// dropped. The optional only becomes non-nil again through b itself.
func Unwrap[T any](b Binding[*T]) (Binding[T], bool) {
	return Case(b, Some[T]())
}

// Case projects b into one case of a tagged union. It returns false unless
// the value currently matches cp.
//
// Every write re-checks the case: if the union has moved to another case
// since the projection was taken, the write is dropped rather than
// overwriting the newer case. Reads after such a change return the last
// payload extracted.
func Case[Root, Value any](b Binding[Root], cp CasePath[Root, Value]) (Binding[Value], bool) {
	initial, ok := cp.Extract(b.peek())
	if !ok {
		return Binding[Value]{}, false
	}
	last := &initial
	return derive(b, cp.Tag,
		func() Value {
			if v, ok := cp.Extract(b.Get()); ok {
				*last = v
			}
			return *last
		},
		func(value Value) {
			if b.set == nil {
				return
			}
			if _, ok := cp.Extract(b.peek()); !ok {
				return
			}
			*last = value
			b.set(cp.Embed(value))
		},
	), true
}
