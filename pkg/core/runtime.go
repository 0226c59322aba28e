package core

import (
	"fmt"
	"slices"
	"sync"

	"github.com/go-drift/navsync/pkg/errors"
	"github.com/go-drift/navsync/pkg/transaction"
)

// maxFlushPasses bounds how many re-invocation passes one Flush performs.
// Observers that keep invalidating each other past this point are reported
// and their remaining work is left for the next Flush.
const maxFlushPasses = 100

// Runtime is a single execution context for reactive state.
//
// Slot writes, observer re-invocation and presentation transitions all
// happen on the goroutine that calls Flush (the UI thread). Writes mark
// dependent observers dirty; Flush re-invokes each dirty observer once per
// pass, so several writes in one pass coalesce into one re-invocation.
// Re-invocation is therefore "later this tick", not "this instruction".
//
// Dispatch is the only method safe to call from other goroutines.
type Runtime struct {
	mu      sync.Mutex
	queue   []func()
	dirty   []*observer
	dirtyTx map[*observer]transaction.Transaction

	// OnNeedsFlush is called when work is scheduled on an idle runtime,
	// signalling the host that Flush should run soon. It may be called from
	// any goroutine that calls Dispatch.
	OnNeedsFlush func()

	// Execution-context state; touched only by the flushing goroutine.
	tracking *observer
	txStack  []transaction.Transaction
	nextSeq  uint64
	flushing bool
	scopes   map[any]*Scope
}

// NewRuntime creates an idle runtime.
func NewRuntime() *Runtime {
	return &Runtime{}
}

// Dispatch queues fn to run on the execution context during the next Flush.
// Returns false if fn is nil.
func (r *Runtime) Dispatch(fn func()) bool {
	if fn == nil {
		return false
	}
	r.mu.Lock()
	wasIdle := len(r.queue) == 0 && len(r.dirty) == 0
	r.queue = append(r.queue, fn)
	r.mu.Unlock()

	if wasIdle && r.OnNeedsFlush != nil {
		r.OnNeedsFlush()
	}
	return true
}

// schedule marks o dirty for the next pass. A later write in the same pass
// replaces the transaction delivered to o.
func (r *Runtime) schedule(o *observer, tx transaction.Transaction) {
	added, wasIdle := func() (bool, bool) {
		r.mu.Lock()
		defer r.mu.Unlock()
		wasIdle := len(r.queue) == 0 && len(r.dirty) == 0
		if r.dirtyTx == nil {
			r.dirtyTx = make(map[*observer]transaction.Transaction)
		}
		_, exists := r.dirtyTx[o]
		r.dirtyTx[o] = tx
		if exists {
			return false, wasIdle
		}
		r.dirty = append(r.dirty, o)
		return true, wasIdle
	}()

	if added && wasIdle && r.OnNeedsFlush != nil {
		r.OnNeedsFlush()
	}
}

// NeedsWork reports whether dispatched callbacks or dirty observers are
// pending.
func (r *Runtime) NeedsWork() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue) > 0 || len(r.dirty) > 0
}

// Flush runs dispatched callbacks, then re-invokes dirty observers in
// registration order, repeating until nothing is pending. Nested calls from
// inside a callback return immediately; the outer Flush picks up the work.
func (r *Runtime) Flush() {
	if r.flushing {
		return
	}
	r.flushing = true
	defer func() { r.flushing = false }()

	for pass := 0; ; pass++ {
		if pass >= maxFlushPasses {
			if r.NeedsWork() {
				errors.ReportInvariant("core.Runtime.Flush",
					fmt.Sprintf("observers still dirty after %d passes; possible observation cycle", maxFlushPasses))
			}
			return
		}

		r.mu.Lock()
		queue := r.queue
		dirty := r.dirty
		txs := r.dirtyTx
		r.queue = nil
		r.dirty = nil
		r.dirtyTx = nil
		r.mu.Unlock()

		if len(queue) == 0 && len(dirty) == 0 {
			return
		}

		for _, fn := range queue {
			r.runDispatched(fn)
		}

		slices.SortFunc(dirty, func(a, b *observer) int {
			return compareSeq(a.seq, b.seq)
		})
		for _, o := range dirty {
			// Cancellation wins over a re-invocation that was already queued.
			if o.canceled.Load() {
				continue
			}
			o.rerun(txs[o])
		}
	}
}

func (r *Runtime) runDispatched(fn func()) {
	defer errors.Recover("core.Runtime.Dispatch")
	fn()
}

func compareSeq(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// CurrentTransaction returns the ambient transaction, or an empty one when
// no transaction is active.
func (r *Runtime) CurrentTransaction() transaction.Transaction {
	if n := len(r.txStack); n > 0 {
		return r.txStack[n-1]
	}
	return transaction.New()
}

// Within runs fn with tx as the ambient transaction, restoring the previous
// ambient transaction afterwards even if fn panics. Keys tx leaves unset
// read as their defaults inside fn, not as the outer transaction's values.
func (r *Runtime) Within(tx transaction.Transaction, fn func()) {
	r.txStack = append(r.txStack, tx)
	defer func() {
		r.txStack = r.txStack[:len(r.txStack)-1]
	}()
	fn()
}

// WithTransaction runs body with tx as the ambient transaction and returns
// its result. Nesting follows stack discipline: the outer transaction is
// restored on return.
func WithTransaction[R any](r *Runtime, tx transaction.Transaction, body func() R) R {
	var result R
	r.Within(tx, func() {
		result = body()
	})
	return result
}

// WithTransactionValue sets a single key of the current ambient transaction
// for the duration of body. Unlike WithTransaction, the other keys of the
// ambient transaction stay in effect.
func WithTransactionValue[R any](r *Runtime, key *transaction.Key, value any, body func() R) R {
	return WithTransaction(r, r.CurrentTransaction().With(key, value), body)
}

// Untracked runs fn without recording slot reads as dependencies of the
// observer currently running, if any.
func (r *Runtime) Untracked(fn func()) {
	prev := r.tracking
	r.tracking = nil
	defer func() { r.tracking = prev }()
	fn()
}

// IsTracking reports whether an observer is currently recording reads.
func (r *Runtime) IsTracking() bool {
	return r.tracking != nil
}
