package core

import (
	"runtime"
	"sync/atomic"

	"github.com/go-drift/navsync/pkg/errors"
	"github.com/go-drift/navsync/pkg/transaction"
)

// observer is one registered unit of observation work.
type observer struct {
	rt       *Runtime
	seq      uint64
	canceled atomic.Bool
	deps     map[dependency]struct{}

	// track runs with dependency recording on. effect, when set, runs after
	// track on every re-invocation, with recording off.
	track  func(tx transaction.Transaction)
	effect func(tx transaction.Transaction)
}

func (o *observer) addDependency(d dependency) {
	if o.deps == nil {
		o.deps = make(map[dependency]struct{})
	}
	o.deps[d] = struct{}{}
}

func (o *observer) detach() {
	for d := range o.deps {
		d.removeDependent(o)
	}
	clear(o.deps)
}

// runTracked clears previous dependencies and records new ones while track
// runs, so conditional reads are re-discovered on every run.
func (o *observer) runTracked(tx transaction.Transaction) {
	o.detach()
	prev := o.rt.tracking
	o.rt.tracking = o
	defer func() { o.rt.tracking = prev }()
	o.track(tx)
}

func (o *observer) rerun(tx transaction.Transaction) {
	defer errors.Recover("core.observe")
	o.rt.Within(tx, func() {
		o.runTracked(tx)
		if o.effect == nil || o.canceled.Load() {
			return
		}
		o.rt.Untracked(func() {
			o.effect(tx)
		})
	})
}

// Token represents one registered observation. Cancel stops all future
// re-invocations. A Token that becomes unreachable is canceled
// automatically, so the owner must keep it for as long as the observation
// should live.
type Token struct {
	obs *observer
}

// Cancel stops the observation. It is idempotent and safe to call from any
// goroutine, including cleanup paths: it only flips a flag and never touches
// the dependency graph. A re-invocation that was already scheduled when
// Cancel ran is suppressed when the runtime reaches it; a re-invocation
// that is executing at that moment runs to completion.
func (t *Token) Cancel() {
	if t == nil || t.obs == nil {
		return
	}
	t.obs.canceled.Store(true)
}

// IsCanceled reports whether Cancel has been called.
func (t *Token) IsCanceled() bool {
	return t == nil || t.obs == nil || t.obs.canceled.Load()
}

func (r *Runtime) register(track, effect func(tx transaction.Transaction)) *Token {
	r.nextSeq++
	o := &observer{
		rt:     r,
		seq:    r.nextSeq,
		track:  track,
		effect: effect,
	}
	tok := &Token{obs: o}
	runtime.AddCleanup(tok, func(o *observer) {
		o.canceled.Store(true)
	}, o)

	func() {
		defer errors.Recover("core.observe")
		o.runTracked(r.CurrentTransaction())
	}()
	return tok
}

// Observe runs work once synchronously, recording every slot it reads, and
// re-runs it whenever one of those slots is written. The transaction passed
// to work is the one captured by the triggering write (the ambient one on
// the first run).
//
// Observe is the convenient single-closure form. Because the same closure
// both discovers dependencies and performs effects, reading and writing
// overlapping state inside work re-triggers it, and effects run again for
// changes they did not care about. Prefer ObserveChange for effects.
func Observe(r *Runtime, work func(tx transaction.Transaction)) *Token {
	return r.register(work, nil)
}

// ObserveChange separates dependency discovery from side effects.
//
// selector runs tracked, once immediately and again after every change, so
// its dependencies stay current; its return value is a witness that is not
// used for triggering. onChange runs untracked, only after a change to a
// selector dependency, with the triggering write's transaction as both its
// argument and the ambient transaction.
func ObserveChange[W any](r *Runtime, selector func() W, onChange func(tx transaction.Transaction)) *Token {
	return r.register(
		func(transaction.Transaction) { _ = selector() },
		onChange,
	)
}
