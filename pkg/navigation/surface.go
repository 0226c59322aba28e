package navigation

import "github.com/go-drift/navsync/pkg/transaction"

// Surface is an imperative host that mounts and unmounts presentations.
//
// Begin and End return tasks that complete when the surface considers the
// transition finished, including any animation the transaction asked for.
// Both are called on the runtime's execution context.
type Surface interface {
	// Begin mounts p.
	Begin(p *Presentation, tx transaction.Transaction) *transaction.Task

	// End unmounts p. Ending a presentation the surface is still tearing
	// down, for example right after a user dismissal, returns the task of
	// that teardown. Ending a presentation that is not mounted otherwise
	// completes immediately.
	End(p *Presentation, tx transaction.Transaction) *transaction.Task

	// Current returns the topmost live presentation, or nil.
	Current() *Presentation

	// Ready reports whether the surface can host presentations yet.
	Ready() bool

	// OnReady registers fn to run once the surface becomes ready. If it
	// already is, fn runs immediately.
	OnReady(fn func())
}

// SurfaceObserver receives transition events from a surface.
type SurfaceObserver interface {
	// DidBegin is called after p is mounted. previous is the presentation
	// that was topmost before, if any.
	DidBegin(p, previous *Presentation)

	// DidEnd is called after p is unmounted. previous is the presentation
	// that is topmost now, if any.
	DidEnd(p, previous *Presentation)
}

// readiness implements the Ready/OnReady half of Surface. A surface that
// starts unready queues callbacks until MarkReady.
type readiness struct {
	ready   bool
	pending []func()
}

func (r *readiness) Ready() bool {
	return r.ready
}

func (r *readiness) OnReady(fn func()) {
	if fn == nil {
		return
	}
	if r.ready {
		fn()
		return
	}
	r.pending = append(r.pending, fn)
}

// MarkReady flips the surface to ready and runs the queued callbacks in
// registration order. Later calls are no-ops.
func (r *readiness) MarkReady() {
	if r.ready {
		return
	}
	r.ready = true
	ops := r.pending
	r.pending = nil
	for _, op := range ops {
		op()
	}
}

// teardowns remembers the removal task of each presentation a surface is
// still animating out, so a late End can wait for it.
type teardowns map[*Presentation]*transaction.Task

func (t *teardowns) track(p *Presentation, task *transaction.Task) {
	if task.IsDone() {
		return
	}
	if *t == nil {
		*t = make(teardowns)
	}
	(*t)[p] = task
	task.OnDone(func() {
		if (*t)[p] == task {
			delete(*t, p)
		}
	})
}

// pending returns the unfinished removal task for p, or nil.
func (t teardowns) pending(p *Presentation) *transaction.Task {
	if task := t[p]; task != nil && !task.IsDone() {
		return task
	}
	return nil
}
