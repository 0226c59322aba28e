// Package transaction carries per-change metadata through state mutations.
//
// A [Transaction] is an immutable bag of values keyed by opaque [Key]s. The
// observation runtime keeps an ambient stack of transactions; every slot write
// captures the current one and hands it to the observers it notifies, so an
// observer can ask "should this change animate?" without knowing who wrote.
//
//	tx := transaction.New().WithAnimation(animation.Default())
//	core.WithTransaction(rt, tx, func() struct{} {
//	    model.Destination.Set(&Detail{ID: "x"})
//	    return struct{}{}
//	})
//
// [Performer] applies a transaction's effect to a unit of work and guarantees
// that completion callbacks registered with [Transaction.WithCompletion] fire
// exactly once, whichever path the work takes.
package transaction

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-drift/navsync/pkg/animation"
)

// Key identifies a transaction value. Keys compare by pointer, so two keys
// with the same name are still distinct.
type Key struct {
	name string
	def  any
}

// NewKey creates a key whose unset value reads as def.
func NewKey(name string, def any) *Key {
	return &Key{name: name, def: def}
}

// Name returns the key's debug name.
func (k *Key) Name() string { return k.name }

// Default returns the value read when the key is unset.
func (k *Key) Default() any { return k.def }

// Well-known keys.
var (
	// AnimationKey holds the *animation.Spec for the change. Unset means no
	// animation.
	AnimationKey = NewKey("animation", (*animation.Spec)(nil))

	// DisablesAnimationsKey suppresses any animation set by an enclosing
	// transaction.
	DisablesAnimationsKey = NewKey("disablesAnimations", false)

	completionsKey = NewKey("completions", []*completion(nil))
)

type completion struct {
	once sync.Once
	fn   func()
}

func (c *completion) fire() {
	c.once.Do(c.fn)
}

// Transaction is an immutable map from keys to values.
// The zero value is an empty transaction.
type Transaction struct {
	values map[*Key]any
}

// New returns an empty transaction.
func New() Transaction {
	return Transaction{}
}

// With returns a copy of t with key set to value.
func (t Transaction) With(key *Key, value any) Transaction {
	values := make(map[*Key]any, len(t.values)+1)
	for k, v := range t.values {
		values[k] = v
	}
	values[key] = value
	return Transaction{values: values}
}

// Value returns the value for key, or the key's default when unset.
func (t Transaction) Value(key *Key) any {
	if v, ok := t.values[key]; ok {
		return v
	}
	return key.def
}

// Has reports whether key is explicitly set.
func (t Transaction) Has(key *Key) bool {
	_, ok := t.values[key]
	return ok
}

// Len returns the number of explicitly set keys.
func (t Transaction) Len() int {
	return len(t.values)
}

// Get returns the typed value for key. It returns the zero T when the stored
// value (or default) is not a T.
func Get[T any](t Transaction, key *Key) T {
	v, _ := t.Value(key).(T)
	return v
}

// Merge returns t with every key set in child overriding t's value. Keys the
// child does not set keep t's value. Completion callbacks accumulate rather
// than override, so a nested change never drops an outer completion.
func (t Transaction) Merge(child Transaction) Transaction {
	if len(child.values) == 0 {
		return t
	}
	if len(t.values) == 0 {
		return child
	}
	values := make(map[*Key]any, len(t.values)+len(child.values))
	for k, v := range t.values {
		values[k] = v
	}
	for k, v := range child.values {
		if k == completionsKey {
			outer, _ := values[k].([]*completion)
			inner, _ := v.([]*completion)
			values[k] = append(append([]*completion(nil), outer...), inner...)
			continue
		}
		values[k] = v
	}
	return Transaction{values: values}
}

// WithAnimation returns a copy of t that animates with spec.
// A nil spec clears animation.
func (t Transaction) WithAnimation(spec *animation.Spec) Transaction {
	return t.With(AnimationKey, spec)
}

// Animation returns the animation spec, or nil when the change should not
// animate.
func (t Transaction) Animation() *animation.Spec {
	if t.DisablesAnimations() {
		return nil
	}
	return Get[*animation.Spec](t, AnimationKey)
}

// WithDisablesAnimations returns a copy of t that suppresses animation.
func (t Transaction) WithDisablesAnimations(disabled bool) Transaction {
	return t.With(DisablesAnimationsKey, disabled)
}

// DisablesAnimations reports whether animation is suppressed.
func (t Transaction) DisablesAnimations() bool {
	return Get[bool](t, DisablesAnimationsKey)
}

// IsAnimated reports whether the change carries an effective animation.
func (t Transaction) IsAnimated() bool {
	return t.Animation() != nil
}

// WithCompletion returns a copy of t with fn appended to its completion
// callbacks. Each callback fires at most once no matter how many tasks
// carry the transaction.
func (t Transaction) WithCompletion(fn func()) Transaction {
	if fn == nil {
		return t
	}
	existing, _ := t.values[completionsKey].([]*completion)
	next := append(append([]*completion(nil), existing...), &completion{fn: fn})
	return t.With(completionsKey, next)
}

// HasCompletions reports whether t carries completion callbacks.
func (t Transaction) HasCompletions() bool {
	c, _ := t.values[completionsKey].([]*completion)
	return len(c) > 0
}

// FireCompletions runs every completion callback that has not fired yet.
func (t Transaction) FireCompletions() {
	c, _ := t.values[completionsKey].([]*completion)
	for _, cb := range c {
		cb.fire()
	}
}

func (t Transaction) String() string {
	if len(t.values) == 0 {
		return "Transaction{}"
	}
	parts := make([]string, 0, len(t.values))
	for k, v := range t.values {
		if k == completionsKey {
			c, _ := v.([]*completion)
			parts = append(parts, fmt.Sprintf("completions=%d", len(c)))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%v", k.name, v))
	}
	sort.Strings(parts)
	return "Transaction{" + strings.Join(parts, " ") + "}"
}
