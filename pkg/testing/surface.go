package testing

import (
	"fmt"
	"slices"

	"github.com/go-drift/navsync/pkg/navigation"
	"github.com/go-drift/navsync/pkg/transaction"
)

// Event is one call recorded by a RecordingSurface.
type Event struct {
	Op       string `yaml:"op"` // "begin", "end" or "dismiss"
	ID       any    `yaml:"id"`
	Animated bool   `yaml:"animated,omitempty"`
}

func (e Event) String() string {
	return fmt.Sprintf("%s(%v)", e.Op, e.ID)
}

// RecordingSurface is a navigation.Surface that records every call and
// keeps any number of presentations live, so tests can observe ordering
// and count overlaps.
//
// With Async set, Begin and End return pending tasks that finish only on
// CompleteAll, which lets a test hold a transition mid-flight.
type RecordingSurface struct {
	Async bool

	events  []Event
	live    []*navigation.Presentation
	maxLive int
	ready   bool
	onReady []func()
	pending []*transaction.Task
}

// NewRecordingSurface returns a ready surface.
func NewRecordingSurface() *RecordingSurface {
	return &RecordingSurface{ready: true}
}

// NewDeferredRecordingSurface returns a surface that is not ready until
// MarkReady.
func NewDeferredRecordingSurface() *RecordingSurface {
	return &RecordingSurface{}
}

// Begin records the call and mounts p.
func (s *RecordingSurface) Begin(p *navigation.Presentation, tx transaction.Transaction) *transaction.Task {
	s.events = append(s.events, Event{Op: "begin", ID: p.ID(), Animated: tx.IsAnimated()})
	if !slices.Contains(s.live, p) {
		s.live = append(s.live, p)
		s.maxLive = max(s.maxLive, len(s.live))
	}
	return s.finish(tx)
}

// End records the call and unmounts p.
func (s *RecordingSurface) End(p *navigation.Presentation, tx transaction.Transaction) *transaction.Task {
	s.events = append(s.events, Event{Op: "end", ID: p.ID(), Animated: tx.IsAnimated()})
	s.remove(p)
	return s.finish(tx)
}

// Current returns the most recently mounted live presentation.
func (s *RecordingSurface) Current() *navigation.Presentation {
	if len(s.live) == 0 {
		return nil
	}
	return s.live[len(s.live)-1]
}

// Ready reports whether MarkReady has been called (or the surface started
// ready).
func (s *RecordingSurface) Ready() bool {
	return s.ready
}

// OnReady runs fn now if ready, otherwise on MarkReady.
func (s *RecordingSurface) OnReady(fn func()) {
	if s.ready {
		fn()
		return
	}
	s.onReady = append(s.onReady, fn)
}

// MarkReady makes the surface ready and runs queued callbacks.
func (s *RecordingSurface) MarkReady() {
	if s.ready {
		return
	}
	s.ready = true
	callbacks := s.onReady
	s.onReady = nil
	for _, fn := range callbacks {
		fn()
	}
}

// Dismiss simulates the user dismissing p: it is unmounted without an End
// call and its owner is notified.
func (s *RecordingSurface) Dismiss(p *navigation.Presentation) {
	s.events = append(s.events, Event{Op: "dismiss", ID: p.ID()})
	s.remove(p)
	p.DismissExternally()
}

// CompleteAll finishes every pending task, oldest first.
func (s *RecordingSurface) CompleteAll() {
	for len(s.pending) > 0 {
		task := s.pending[0]
		s.pending = s.pending[1:]
		task.Complete()
	}
}

// Events returns the recorded calls in order.
func (s *RecordingSurface) Events() []Event {
	return slices.Clone(s.events)
}

// Ops returns the recorded calls rendered as "op(id)".
func (s *RecordingSurface) Ops() []string {
	ops := make([]string, len(s.events))
	for i, e := range s.events {
		ops[i] = e.String()
	}
	return ops
}

// Reset clears the recorded events.
func (s *RecordingSurface) Reset() {
	s.events = nil
}

// Live returns the mounted presentations, oldest first.
func (s *RecordingSurface) Live() []*navigation.Presentation {
	return slices.Clone(s.live)
}

// MaxLive returns the largest number of simultaneously mounted
// presentations seen.
func (s *RecordingSurface) MaxLive() int {
	return s.maxLive
}

func (s *RecordingSurface) remove(p *navigation.Presentation) {
	s.live = slices.DeleteFunc(s.live, func(q *navigation.Presentation) bool { return q == p })
}

func (s *RecordingSurface) finish(tx transaction.Transaction) *transaction.Task {
	if !s.Async {
		return transaction.Completed(tx)
	}
	task := transaction.NewTask(tx)
	s.pending = append(s.pending, task)
	return task
}
