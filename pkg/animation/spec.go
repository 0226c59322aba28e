package animation

import (
	"fmt"
	"time"
)

// DefaultDuration is used by Default and by specs with a negative duration.
const DefaultDuration = 350 * time.Millisecond

// Spec describes how a state change should animate: how long the
// presentation transition runs and how progress is eased.
//
// A Spec is attached to a transaction and consumed by the presentation
// surface that performs the change. A nil *Spec means "no animation".
type Spec struct {
	Duration time.Duration
	Curve    Curve
}

// Default returns the standard presentation animation.
func Default() *Spec {
	return &Spec{Duration: DefaultDuration, Curve: EaseInOut}
}

// EaseInOutSpec returns an ease-in-out animation of the given duration.
func EaseInOutSpec(d time.Duration) *Spec {
	return &Spec{Duration: d, Curve: EaseInOut}
}

// LinearSpec returns a linear animation of the given duration.
func LinearSpec(d time.Duration) *Spec {
	return &Spec{Duration: d, Curve: Linear}
}

// Transform applies the spec's curve to linear progress t.
func (s *Spec) Transform(t float64) float64 {
	t = clampUnit(t)
	if s == nil || s.Curve == nil {
		return t
	}
	return s.Curve(t)
}

func (s *Spec) duration() time.Duration {
	if s == nil {
		return 0
	}
	if s.Duration < 0 {
		return DefaultDuration
	}
	return s.Duration
}

func (s *Spec) String() string {
	if s == nil {
		return "none"
	}
	return fmt.Sprintf("animation(%s)", s.duration())
}
