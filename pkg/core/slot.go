package core

import (
	"weak"

	"github.com/google/uuid"
)

// dependency is implemented by every Slot so observers can detach from the
// slots they read without knowing the slot's value type.
type dependency interface {
	removeDependent(o *observer)
}

// Slot holds a value whose reads are tracked and whose writes notify.
//
// Reading Value inside an observation registers the running observer as a
// dependent before Value returns. Set delivers the ambient transaction to
// every dependent. Dependents are held weakly: a slot never keeps an
// observation alive.
//
// Slot is NOT thread-safe. Use Runtime.Dispatch to write from a background
// goroutine:
//
//	go func() {
//	    result := load()
//	    rt.Dispatch(func() {
//	        s.items.Set(result)
//	    })
//	}()
type Slot[T any] struct {
	rt         *Runtime
	id         uuid.UUID
	value      T
	equal      func(a, b T) bool
	dependents map[weak.Pointer[observer]]struct{}
}

// NewSlot creates a slot holding initial. Every Set notifies dependents.
func NewSlot[T any](rt *Runtime, initial T) *Slot[T] {
	return &Slot[T]{
		rt:    rt,
		id:    uuid.New(),
		value: initial,
	}
}

// NewSlotWithEquality creates a slot that skips notification when the new
// value is equal to the current one according to equal.
func NewSlotWithEquality[T any](rt *Runtime, initial T, equal func(a, b T) bool) *Slot[T] {
	s := NewSlot(rt, initial)
	s.equal = equal
	return s
}

// ID returns the slot's stable identity.
func (s *Slot[T]) ID() uuid.UUID {
	return s.id
}

// Runtime returns the runtime the slot belongs to.
func (s *Slot[T]) Runtime() *Runtime {
	return s.rt
}

// Value returns the current value, registering the running observer (if
// any) as a dependent.
func (s *Slot[T]) Value() T {
	if o := s.rt.tracking; o != nil && !o.canceled.Load() {
		if s.dependents == nil {
			s.dependents = make(map[weak.Pointer[observer]]struct{})
		}
		s.dependents[weak.Make(o)] = struct{}{}
		o.addDependency(s)
	}
	return s.value
}

// Peek returns the current value without registering a dependency.
func (s *Slot[T]) Peek() T {
	return s.value
}

// Set stores value and schedules every live dependent with the ambient
// transaction.
func (s *Slot[T]) Set(value T) {
	if s.equal != nil && s.equal(s.value, value) {
		s.value = value
		return
	}
	s.value = value
	s.notify()
}

// Update applies transform to the current value and stores the result.
func (s *Slot[T]) Update(transform func(T) T) {
	s.Set(transform(s.value))
}

// DependentCount returns the number of live, uncanceled dependents.
func (s *Slot[T]) DependentCount() int {
	n := 0
	for wp := range s.dependents {
		if o := wp.Value(); o != nil && !o.canceled.Load() {
			n++
		}
	}
	return n
}

func (s *Slot[T]) notify() {
	if len(s.dependents) == 0 {
		return
	}
	tx := s.rt.CurrentTransaction()
	for wp := range s.dependents {
		o := wp.Value()
		if o == nil || o.canceled.Load() {
			delete(s.dependents, wp)
			continue
		}
		s.rt.schedule(o, tx)
	}
}

func (s *Slot[T]) removeDependent(o *observer) {
	delete(s.dependents, weak.Make(o))
}
