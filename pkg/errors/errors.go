// Package errors provides structured, non-fatal error reporting for navsync.
//
// Nothing in the steady-state path of the observation engine or the
// presentation synchronizer returns an error. Problems that a developer
// should know about (recovered panics in observer work, invariant
// violations detected by defensive checks, misbehaving surfaces) are
// reported to a process-wide [ErrorHandler] instead of aborting the host.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors returned by task and surface helpers.
var (
	// ErrTaskCanceled is returned by Task.Wait when the task was canceled
	// before its work completed.
	ErrTaskCanceled = errors.New("navsync: task canceled")

	// ErrSurfaceNotReady is reported when work is flushed to a surface that
	// still reports itself as not ready.
	ErrSurfaceNotReady = errors.New("navsync: surface not ready")

	// ErrSurfaceBusy is reported when a single-slot surface is asked to
	// begin a presentation while another one is live.
	ErrSurfaceBusy = errors.New("navsync: surface already presenting")
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindInvariant indicates a violated structural invariant.
	KindInvariant
	// KindObservation indicates a failure inside the observation engine.
	KindObservation
	// KindPresentation indicates a presentation surface misbehaved.
	KindPresentation
	// KindPanic indicates a recovered panic.
	KindPanic
	// KindConfig indicates a configuration or scenario loading error.
	KindConfig
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvariant:
		return "invariant"
	case KindObservation:
		return "observation"
	case KindPresentation:
		return "presentation"
	case KindPanic:
		return "panic"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

// NavError represents a structured error reported by navsync.
type NavError struct {
	// Op is the operation that failed (e.g., "navigation.Presenter.begin").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *NavError) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *NavError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "core.Runtime.Flush").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// InvariantError represents a developer-facing issue: a condition the
// design makes unreachable was observed anyway. It is reported, never
// raised.
type InvariantError struct {
	// Op is the operation that detected the violation.
	Op string
	// Detail describes what was observed.
	Detail string
	// StackTrace contains the call stack at the time of detection.
	StackTrace string
	// Timestamp is when the violation was detected.
	Timestamp time.Time
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated in %s: %s", e.Op, e.Detail)
}

// ErrorHandler receives errors reported by navsync.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *NavError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
	// HandleInvariant is called when a defensive check fails.
	HandleInvariant(err *InvariantError)
}
