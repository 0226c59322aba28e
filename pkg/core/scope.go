package core

import (
	"runtime"
	"sync"
	"weak"

	"github.com/go-drift/navsync/pkg/transaction"
)

// Scope owns observation tokens and other cleanups for one owner object and
// releases them together.
//
// Example:
//
//	type detailModel struct {
//	    scope *core.Scope
//	    title *core.Slot[string]
//	}
//
//	func newDetailModel(rt *core.Runtime) *detailModel {
//	    m := &detailModel{scope: core.NewScope(rt), title: core.NewSlot(rt, "")}
//	    m.scope.Observe(func(tx transaction.Transaction) {
//	        render(m.title.Value())
//	    })
//	    return m
//	}
//
//	// Later
//	m.scope.Dispose()
type Scope struct {
	rt        *Runtime
	disposers []func()
	disposed  bool
	mu        sync.Mutex
}

// NewScope creates an empty scope on rt.
func NewScope(rt *Runtime) *Scope {
	return &Scope{rt: rt}
}

// Runtime returns the runtime the scope belongs to.
func (s *Scope) Runtime() *Runtime {
	return s.rt
}

// OnDispose registers a cleanup function to be called when the scope is
// disposed. Returns an unregister function. If the scope is already
// disposed, cleanup runs immediately.
func (s *Scope) OnDispose(cleanup func()) func() {
	if cleanup == nil {
		return func() {}
	}

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		cleanup()
		return func() {}
	}
	index := len(s.disposers)
	s.disposers = append(s.disposers, cleanup)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if index < len(s.disposers) {
			s.disposers[index] = nil
		}
	}
}

// Own ties tok to the scope: disposing the scope cancels it, and the scope
// keeps the token reachable until then.
func (s *Scope) Own(tok *Token) *Token {
	s.OnDispose(tok.Cancel)
	return tok
}

// Observe is core.Observe owned by the scope.
func (s *Scope) Observe(work func(tx transaction.Transaction)) *Token {
	return s.Own(Observe(s.rt, work))
}

// ObserveChangeIn is core.ObserveChange owned by s.
func ObserveChangeIn[W any](s *Scope, selector func() W, onChange func(tx transaction.Transaction)) *Token {
	return s.Own(ObserveChange(s.rt, selector, onChange))
}

// Dispose runs all registered disposers in reverse order, once.
func (s *Scope) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	disposers := s.disposers
	s.disposers = nil
	s.mu.Unlock()

	for i := len(disposers) - 1; i >= 0; i-- {
		if disposers[i] != nil {
			disposers[i]()
		}
	}
}

// IsDisposed returns true if the scope has been disposed.
func (s *Scope) IsDisposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// ScopeOf returns the scope associated with owner, creating it on first
// use. The association lives in a side table on the runtime keyed by a weak
// reference to owner, so it neither keeps owner alive nor requires owner to
// embed anything. When owner is garbage collected, its scope is disposed on
// the execution context and the entry is removed.
//
// ScopeOf must be called on the execution context.
func ScopeOf[T any](rt *Runtime, owner *T) *Scope {
	key := weak.Make(owner)
	if s, ok := rt.scopes[key]; ok {
		return s
	}
	if rt.scopes == nil {
		rt.scopes = make(map[any]*Scope)
	}
	s := NewScope(rt)
	rt.scopes[key] = s
	runtime.AddCleanup(owner, func(s *Scope) {
		rt.Dispatch(func() {
			s.Dispose()
			for k, v := range rt.scopes {
				if v == s {
					delete(rt.scopes, k)
				}
			}
		})
	}, s)
	return s
}

// ReleaseScope disposes owner's scope immediately, if it has one.
func ReleaseScope[T any](rt *Runtime, owner *T) {
	key := weak.Make(owner)
	if s, ok := rt.scopes[key]; ok {
		delete(rt.scopes, key)
		s.Dispose()
	}
}
