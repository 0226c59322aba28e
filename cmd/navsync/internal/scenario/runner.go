// Package scenario replays scripted presentation scenarios against the
// reference surfaces and reports what the surface saw.
package scenario

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-drift/navsync/cmd/navsync/internal/config"
	"github.com/go-drift/navsync/pkg/animation"
	"github.com/go-drift/navsync/pkg/binding"
	"github.com/go-drift/navsync/pkg/core"
	"github.com/go-drift/navsync/pkg/navigation"
	navtest "github.com/go-drift/navsync/pkg/testing"
	"github.com/go-drift/navsync/pkg/transaction"
)

// settleTimeout bounds how much fake time a single step may animate.
const settleTimeout = time.Minute

// Item is the state a scenario presenter holds.
type Item struct {
	ID    string
	Title string
}

// Identity implements navigation.Identifiable.
func (i Item) Identity() any { return i.ID }

// Options configures a Runner.
type Options struct {
	// Out receives the transition log.
	Out io.Writer
	// Logger receives presenter debug logs. Defaults to slog.Default().
	Logger *slog.Logger
	// Metrics receives presenter metrics. Defaults to
	// navigation.DefaultMetrics().
	Metrics *navigation.Metrics
	// AnimationDuration is used by animated steps without a duration.
	AnimationDuration time.Duration
}

// surface is what the runner needs beyond navigation.Surface.
type surface interface {
	navigation.Surface
	MarkReady()
}

// Runner replays one scenario. The model it builds (one optional slot per
// presenter) is owned by a core.Scope keyed on the runner, so presenters
// live exactly as long as the run.
type Runner struct {
	sc     *config.Scenario
	opts   Options
	tester *navtest.Tester
	rt     *core.Runtime

	host  *navigation.ModalHost
	stack *navigation.Stack
	surf  surface

	slots map[string]*core.Slot[*Item]
	order []string
}

// Result summarizes a run.
type Result struct {
	// Transitions are the surface callbacks in order, as "begin sheet(42)".
	Transitions []string
	// State maps each presenter to the id it holds, or "" when absent.
	State map[string]string
	// Live is the surface's current presentation, or "".
	Live string
}

// NewRunner prepares sc for replay.
func NewRunner(sc *config.Scenario, opts Options) *Runner {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = navigation.DefaultMetrics()
	}
	if opts.AnimationDuration <= 0 {
		opts.AnimationDuration = animation.DefaultDuration
	}
	return &Runner{
		sc:    sc,
		opts:  opts,
		slots: make(map[string]*core.Slot[*Item]),
	}
}

// Run replays every step and returns the result. It drives a fake clock, so
// animated steps complete without waiting in real time.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	r.tester = navtest.NewTester()
	defer r.tester.Cleanup()
	r.rt = r.tester.Runtime()

	log := &transitionLog{out: r.opts.Out}
	r.buildSurface(log)

	scope := core.ScopeOf(r.rt, r)
	defer core.ReleaseScope(r.rt, r)
	for _, p := range r.sc.Presenters {
		kind, _ := navigation.ParseKind(p.Kind)
		r.addPresenter(scope, p.Name, kind)
	}

	for i, step := range r.sc.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.opts.Logger.DebugContext(ctx, "scenario step",
			slog.Int("index", i+1),
			slog.String("op", step.Op),
			slog.String("target", step.Target),
		)
		if err := r.apply(step); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
	}
	if err := r.tester.PumpAndSettle(settleTimeout); err != nil {
		return nil, err
	}

	res := r.result(log)
	// Releasing the scope tears presenters down; that is not part of the
	// replay.
	log.out = io.Discard
	return res, nil
}

func (r *Runner) buildSurface(log *transitionLog) {
	if r.sc.Surface == config.SurfaceStack {
		if r.sc.IsReady() {
			r.stack = navigation.NewStack(r.sc.Name, log)
		} else {
			r.stack = navigation.NewDeferredStack(r.sc.Name, log)
		}
		r.surf = r.stack
		return
	}
	if r.sc.IsReady() {
		r.host = navigation.NewModalHost(r.sc.Name, log)
	} else {
		r.host = navigation.NewDeferredModalHost(r.sc.Name, log)
	}
	r.surf = r.host
}

func (r *Runner) addPresenter(scope *core.Scope, name string, kind navigation.Kind) {
	slot := core.NewSlot[*Item](r.rt, nil)
	navigation.Present(r.rt, r.surf, binding.FromSlot(slot), binding.Some[Item](),
		navigation.Options[Item]{
			Kind:    kind,
			Scope:   scope,
			Metrics: r.opts.Metrics,
			Logger:  r.opts.Logger.With(slog.String("presenter", name)),
		},
	)
	r.slots[name] = slot
	r.order = append(r.order, name)
}

func (r *Runner) apply(step config.Step) error {
	switch step.Op {
	case config.OpSet:
		item := &Item{ID: step.ID, Title: step.Title}
		r.rt.Within(r.transaction(step), func() { r.slots[step.Target].Set(item) })
	case config.OpClear:
		r.rt.Within(r.transaction(step), func() { r.slots[step.Target].Set(nil) })
	case config.OpDismiss:
		r.dismiss(r.transaction(step))
	case config.OpBack:
		r.stack.Pop(r.transaction(step))
	case config.OpReady:
		r.surf.MarkReady()
	case config.OpAdvance:
		r.tester.Advance(step.Duration)
		return nil
	case config.OpSettle:
		return r.tester.PumpAndSettle(settleTimeout)
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
	r.tester.Pump()
	return nil
}

func (r *Runner) dismiss(tx transaction.Transaction) {
	if r.host != nil {
		r.host.Dismiss(tx)
		return
	}
	r.stack.Pop(tx)
}

func (r *Runner) transaction(step config.Step) transaction.Transaction {
	tx := transaction.New()
	if !step.Animated {
		return tx
	}
	d := step.Duration
	if d <= 0 {
		d = r.opts.AnimationDuration
	}
	return tx.WithAnimation(animation.EaseInOutSpec(d))
}

func (r *Runner) result(log *transitionLog) *Result {
	res := &Result{
		Transitions: log.lines,
		State:       make(map[string]string, len(r.slots)),
	}
	for _, name := range r.order {
		if item := r.slots[name].Peek(); item != nil {
			res.State[name] = item.ID
		} else {
			res.State[name] = ""
		}
	}
	if cur := r.surf.Current(); cur != nil {
		res.Live = cur.String()
	}
	return res
}

// transitionLog is a navigation.SurfaceObserver that records and echoes
// every transition.
type transitionLog struct {
	out   io.Writer
	lines []string
}

func (l *transitionLog) DidBegin(p, _ *navigation.Presentation) {
	l.add("begin " + p.String())
}

func (l *transitionLog) DidEnd(p, _ *navigation.Presentation) {
	l.add("end " + p.String())
}

func (l *transitionLog) add(line string) {
	l.lines = append(l.lines, line)
	fmt.Fprintln(l.out, line)
}
