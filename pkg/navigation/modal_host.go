package navigation

import (
	"github.com/go-drift/navsync/pkg/errors"
	"github.com/go-drift/navsync/pkg/transaction"
)

// ModalHost is a single-slot surface for modal presentations: sheets,
// covers, popovers, alerts, dialogs and menus.
//
// Transitions run through a transaction.Performer keyed by the host, so an
// animated begin and a following end never overlap. A host created with
// NewDeferredModalHost refuses work until MarkReady, the way an overlay
// only accepts entries after its first build.
type ModalHost struct {
	readiness
	name      string
	current   *Presentation
	ending    teardowns
	performer *transaction.Performer
	observers []SurfaceObserver
}

// NewModalHost creates a ready host.
func NewModalHost(name string, observers ...SurfaceObserver) *ModalHost {
	h := NewDeferredModalHost(name, observers...)
	h.ready = true
	return h
}

// NewDeferredModalHost creates a host that is not ready until MarkReady.
func NewDeferredModalHost(name string, observers ...SurfaceObserver) *ModalHost {
	return &ModalHost{
		name:      name,
		performer: transaction.NewPerformer(),
		observers: observers,
	}
}

// Name returns the host's name.
func (h *ModalHost) Name() string {
	return h.name
}

// Begin mounts p. Beginning the presentation that is already mounted
// completes immediately. Beginning while another presentation is mounted,
// or before the host is ready, is reported and returns a canceled task.
func (h *ModalHost) Begin(p *Presentation, tx transaction.Transaction) *transaction.Task {
	switch {
	case !h.ready:
		return rejected("navigation.ModalHost.Begin", errors.ErrSurfaceNotReady, tx)
	case h.current == p:
		return transaction.Completed(tx)
	case h.current != nil:
		return rejected("navigation.ModalHost.Begin", errors.ErrSurfaceBusy, tx)
	}

	h.current = p
	return h.performer.Perform(h, tx, func() {
		for _, obs := range h.observers {
			obs.DidBegin(p, nil)
		}
	})
}

// End unmounts p if it is mounted. If p is already on its way out, End
// returns the task of that removal.
func (h *ModalHost) End(p *Presentation, tx transaction.Transaction) *transaction.Task {
	if p == nil {
		return transaction.Completed(tx)
	}
	if h.current != p {
		if task := h.ending.pending(p); task != nil {
			return task
		}
		return transaction.Completed(tx)
	}
	h.current = nil
	task := h.performer.Perform(h, tx, func() {
		for _, obs := range h.observers {
			obs.DidEnd(p, nil)
		}
	})
	h.ending.track(p, task)
	return task
}

// Current returns the mounted presentation, or nil.
func (h *ModalHost) Current() *Presentation {
	return h.current
}

// IsTransitioning reports whether a begin or end is still animating.
func (h *ModalHost) IsTransitioning() bool {
	return h.performer.Active(h)
}

// Dismiss removes the mounted presentation the way a user would, by
// swiping it away or tapping outside, and notifies its owner. Returns false
// when nothing is mounted.
func (h *ModalHost) Dismiss(tx transaction.Transaction) bool {
	p := h.current
	if p == nil {
		return false
	}
	h.End(p, tx)
	p.DismissExternally()
	return true
}

func rejected(op string, err error, tx transaction.Transaction) *transaction.Task {
	errors.Report(&errors.NavError{
		Op:   op,
		Kind: errors.KindPresentation,
		Err:  err,
	})
	task := transaction.NewTask(tx)
	task.Cancel()
	return task
}
