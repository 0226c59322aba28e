package navigation

import (
	"slices"

	"github.com/go-drift/navsync/pkg/errors"
	"github.com/go-drift/navsync/pkg/transaction"
)

// Stack is a drill-down surface. Begin pushes, End pops the presentation
// and everything above it, and Pop plays the back button.
type Stack struct {
	readiness
	name      string
	entries   []*Presentation
	ending    teardowns
	performer *transaction.Performer
	observers []SurfaceObserver
}

// NewStack creates a ready, empty stack.
func NewStack(name string, observers ...SurfaceObserver) *Stack {
	s := NewDeferredStack(name, observers...)
	s.ready = true
	return s
}

// NewDeferredStack creates a stack that is not ready until MarkReady.
func NewDeferredStack(name string, observers ...SurfaceObserver) *Stack {
	return &Stack{
		name:      name,
		performer: transaction.NewPerformer(),
		observers: observers,
	}
}

// Name returns the stack's name.
func (s *Stack) Name() string {
	return s.name
}

// Begin pushes p. Pushing a presentation already on the stack completes
// immediately.
func (s *Stack) Begin(p *Presentation, tx transaction.Transaction) *transaction.Task {
	if !s.ready {
		return rejected("navigation.Stack.Begin", errors.ErrSurfaceNotReady, tx)
	}
	if slices.Contains(s.entries, p) {
		return transaction.Completed(tx)
	}

	previous := s.Current()
	s.entries = append(s.entries, p)
	return s.performer.Perform(s, tx, func() {
		for _, obs := range s.observers {
			obs.DidBegin(p, previous)
		}
	})
}

// End pops p and every presentation pushed after it. Presentations above p
// are dismissed externally so their owners write back. Ending a
// presentation that is still being popped returns the task of that pop.
func (s *Stack) End(p *Presentation, tx transaction.Transaction) *transaction.Task {
	idx := slices.Index(s.entries, p)
	if idx < 0 {
		if task := s.ending.pending(p); task != nil {
			return task
		}
		return transaction.Completed(tx)
	}

	removed := slices.Clone(s.entries[idx:])
	s.entries = s.entries[:idx]
	top := s.Current()

	task := s.performer.Perform(s, tx, func() {
		for i := len(removed) - 1; i >= 0; i-- {
			for _, obs := range s.observers {
				obs.DidEnd(removed[i], top)
			}
		}
	})
	for _, r := range removed {
		s.ending.track(r, task)
	}
	for i := len(removed) - 1; i >= 1; i-- {
		removed[i].DismissExternally()
	}
	return task
}

// Current returns the top of the stack, or nil when empty.
func (s *Stack) Current() *Presentation {
	if len(s.entries) == 0 {
		return nil
	}
	return s.entries[len(s.entries)-1]
}

// Depth returns the number of pushed presentations.
func (s *Stack) Depth() int {
	return len(s.entries)
}

// Entries returns the pushed presentations, bottom first.
func (s *Stack) Entries() []*Presentation {
	return slices.Clone(s.entries)
}

// CanPop reports whether there is anything to pop.
func (s *Stack) CanPop() bool {
	return len(s.entries) > 0
}

// Pop removes the top presentation the way the back button does and
// notifies its owner. Returns false when the stack is empty.
func (s *Stack) Pop(tx transaction.Transaction) bool {
	top := s.Current()
	if top == nil {
		return false
	}
	s.End(top, tx)
	top.DismissExternally()
	return true
}

// PopUntil pops until pred returns true for the top presentation or the
// stack is empty. Every popped presentation's owner is notified.
func (s *Stack) PopUntil(pred func(*Presentation) bool, tx transaction.Transaction) {
	for top := s.Current(); top != nil && !pred(top); top = s.Current() {
		s.Pop(tx)
	}
}
