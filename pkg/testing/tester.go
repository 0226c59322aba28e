package testing

import (
	"errors"
	"testing"
	"time"

	"github.com/go-drift/navsync/pkg/animation"
	"github.com/go-drift/navsync/pkg/core"
)

// FrameDuration is how far PumpAndSettle advances the clock per frame.
const FrameDuration = 16 * time.Millisecond

// ErrSettleTimeout is returned when PumpAndSettle exceeds its timeout.
var ErrSettleTimeout = errors.New("PumpAndSettle timed out: runtime did not settle")

// Tester drives a Runtime and the animation clock deterministically.
//
// It installs a FakeClock as the animation clock for its lifetime; tests
// that use a Tester must not run in parallel with other tests that animate.
type Tester struct {
	rt        *core.Runtime
	clock     *FakeClock
	prevClock animation.Clock
}

// NewTester creates a tester with a fresh runtime and fake clock.
// Call Cleanup when done, or use NewTesterWithT instead.
func NewTester() *Tester {
	clk := NewFakeClock()
	return &Tester{
		rt:        core.NewRuntime(),
		clock:     clk,
		prevClock: animation.SetClock(clk),
	}
}

// NewTesterWithT creates a tester that cleans up via t.Cleanup.
func NewTesterWithT(t *testing.T) *Tester {
	t.Helper()
	tester := NewTester()
	t.Cleanup(tester.Cleanup)
	return tester
}

// Cleanup restores the previous animation clock.
func (t *Tester) Cleanup() {
	animation.SetClock(t.prevClock)
}

// Runtime returns the runtime under test.
func (t *Tester) Runtime() *core.Runtime {
	return t.rt
}

// Clock returns the fake clock.
func (t *Tester) Clock() *FakeClock {
	return t.clock
}

// Pump runs one frame: pending work, then animation tickers, then the work
// the tickers caused.
func (t *Tester) Pump() {
	t.rt.Flush()
	animation.StepTickers()
	t.rt.Flush()
}

// Advance moves the clock by d and pumps one frame.
func (t *Tester) Advance(d time.Duration) {
	t.clock.Advance(d)
	t.Pump()
}

// PumpAndSettle pumps frames, advancing the clock by FrameDuration each
// time, until no work is pending and no animation is running. Returns
// ErrSettleTimeout if that takes longer than timeout of fake time.
func (t *Tester) PumpAndSettle(timeout time.Duration) error {
	var elapsed time.Duration
	for {
		t.Pump()
		if !t.NeedsWork() {
			return nil
		}
		if elapsed >= timeout {
			return ErrSettleTimeout
		}
		t.clock.Advance(FrameDuration)
		elapsed += FrameDuration
	}
}

// NeedsWork reports whether the runtime or any animation has pending work.
func (t *Tester) NeedsWork() bool {
	return t.rt.NeedsWork() || animation.HasActiveTickers()
}
