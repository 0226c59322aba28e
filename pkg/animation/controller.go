package animation

import (
	"fmt"
	"time"
)

// Status represents the current state of a Controller.
//
//	                Forward()
//	Dismissed ──────────────────► Completed
//	    ▲                              │
//	    │         Reverse()            │
//	    └──────────────────────────────┘
//
// While running, status is StatusForward or StatusReverse.
type Status int

const (
	// StatusDismissed means progress is stopped at 0.
	StatusDismissed Status = iota
	// StatusForward means progress is moving toward 1.
	StatusForward
	// StatusReverse means progress is moving toward 0.
	StatusReverse
	// StatusCompleted means progress is stopped at 1.
	StatusCompleted
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusDismissed:
		return "dismissed"
	case StatusForward:
		return "forward"
	case StatusReverse:
		return "reverse"
	case StatusCompleted:
		return "completed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Controller drives linear progress between 0 and 1 over a Spec's duration.
//
// Controller is not safe for concurrent use; it belongs to the goroutine
// that calls StepTickers. Always call Dispose when done.
type Controller struct {
	spec            *Spec
	progress        float64
	status          Status
	ticker          *Ticker
	target          float64
	startProgress   float64
	listeners       map[int]func()
	statusListeners map[int]func(Status)
	nextListenerID  int
}

// NewController creates a controller for spec. A nil spec completes every
// run immediately.
func NewController(spec *Spec) *Controller {
	return &Controller{
		spec:            spec,
		status:          StatusDismissed,
		listeners:       make(map[int]func()),
		statusListeners: make(map[int]func(Status)),
	}
}

// Forward runs progress toward 1.
func (c *Controller) Forward() {
	c.runTo(1, StatusForward)
}

// Reverse runs progress toward 0.
func (c *Controller) Reverse() {
	c.runTo(0, StatusReverse)
}

func (c *Controller) runTo(target float64, direction Status) {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
	c.target = target
	c.startProgress = c.progress
	c.setStatus(direction)

	if c.spec.duration() <= 0 {
		c.progress = target
		c.notifyListeners()
		c.settle()
		return
	}

	c.ticker = NewTicker(c.tick)
	c.ticker.Start()
}

func (c *Controller) tick(elapsed time.Duration) {
	fraction := float64(elapsed) / float64(c.spec.duration())
	if fraction >= 1 {
		fraction = 1
	}
	c.progress = c.startProgress + (c.target-c.startProgress)*fraction
	c.notifyListeners()
	if fraction >= 1 {
		c.settle()
	}
}

func (c *Controller) settle() {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
	if c.progress <= 0 {
		c.setStatus(StatusDismissed)
	} else if c.progress >= 1 {
		c.setStatus(StatusCompleted)
	}
}

// Finish jumps to the current target and settles, firing status listeners.
func (c *Controller) Finish() {
	if !c.IsAnimating() {
		return
	}
	c.progress = c.target
	c.notifyListeners()
	c.settle()
}

// Stop halts progress where it is without settling.
func (c *Controller) Stop() {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
}

// Progress returns linear progress in [0, 1].
func (c *Controller) Progress() float64 {
	return c.progress
}

// Value returns eased progress.
func (c *Controller) Value() float64 {
	return c.spec.Transform(c.progress)
}

// Status returns the current status.
func (c *Controller) Status() Status {
	return c.status
}

// IsAnimating returns true while progress is moving.
func (c *Controller) IsAnimating() bool {
	return c.status == StatusForward || c.status == StatusReverse
}

// AddListener adds a callback fired whenever progress changes.
// Returns an unsubscribe function.
func (c *Controller) AddListener(fn func()) func() {
	id := c.nextListenerID
	c.nextListenerID++
	c.listeners[id] = fn
	return func() {
		delete(c.listeners, id)
	}
}

// AddStatusListener adds a callback fired whenever the status changes.
// Returns an unsubscribe function.
func (c *Controller) AddStatusListener(fn func(Status)) func() {
	id := c.nextListenerID
	c.nextListenerID++
	c.statusListeners[id] = fn
	return func() {
		delete(c.statusListeners, id)
	}
}

func (c *Controller) setStatus(status Status) {
	if c.status == status {
		return
	}
	c.status = status
	for _, listener := range c.statusListeners {
		listener(status)
	}
}

func (c *Controller) notifyListeners() {
	for _, listener := range c.listeners {
		listener()
	}
}

// Dispose stops the controller and drops its listeners.
func (c *Controller) Dispose() {
	c.Stop()
	c.listeners = nil
	c.statusListeners = nil
}
