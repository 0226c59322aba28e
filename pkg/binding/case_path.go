package binding

// CasePath is an explicit lens onto one case of a tagged union Root.
//
// Extract returns the case's payload and true when root is in the case.
// Embed builds a Root in the case from a payload. Tag names the case in
// derived identifiers and must be stable.
type CasePath[Root, Value any] struct {
	Tag     string
	Extract func(Root) (Value, bool)
	Embed   func(Value) Root
}

// Matches reports whether root is in the case.
func (cp CasePath[Root, Value]) Matches(root Root) bool {
	_, ok := cp.Extract(root)
	return ok
}

// Some is the case path of a non-nil pointer.
func Some[T any]() CasePath[*T, T] {
	return CasePath[*T, T]{
		Tag: "some",
		Extract: func(p *T) (T, bool) {
			if p == nil {
				var zero T
				return zero, false
			}
			return *p, true
		},
		Embed: func(v T) *T { return &v },
	}
}

// CaseOf is the case path of a sum type modeled as an interface Root with
// a concrete case type Value. A nil Root matches no case.
//
//	type Destination interface{ isDestination() }
//	type Detail struct{ ID string }
//	func (Detail) isDestination() {}
//
//	detail := binding.CaseOf[Destination, Detail]("detail")
func CaseOf[Root, Value any](tag string) CasePath[Root, Value] {
	return CasePath[Root, Value]{
		Tag: tag,
		Extract: func(r Root) (Value, bool) {
			v, ok := any(r).(Value)
			return v, ok
		},
		Embed: func(v Value) Root {
			r, _ := any(v).(Root)
			return r
		},
	}
}

// Self is the case path that always matches.
func Self[T any]() CasePath[T, T] {
	return CasePath[T, T]{
		Tag:     "self",
		Extract: func(v T) (T, bool) { return v, true },
		Embed:   func(v T) T { return v },
	}
}

// Appending composes a case path into a nested case: the result matches
// when root is in outer's case and outer's payload is in inner's case.
func Appending[Root, Mid, Value any](outer CasePath[Root, Mid], inner CasePath[Mid, Value]) CasePath[Root, Value] {
	return CasePath[Root, Value]{
		Tag: outer.Tag + "/" + inner.Tag,
		Extract: func(r Root) (Value, bool) {
			mid, ok := outer.Extract(r)
			if !ok {
				var zero Value
				return zero, false
			}
			return inner.Extract(mid)
		},
		Embed: func(v Value) Root {
			return outer.Embed(inner.Embed(v))
		},
	}
}
