package navigation

import (
	"context"
	"fmt"
	"log/slog"
	"weak"

	"github.com/go-drift/navsync/pkg/binding"
	"github.com/go-drift/navsync/pkg/core"
	"github.com/go-drift/navsync/pkg/errors"
	"github.com/go-drift/navsync/pkg/transaction"
)

// Options configures a Presenter.
type Options[Item any] struct {
	// Kind is the presentation style. Modal kinds share one slot per
	// surface; KindPush stacks.
	Kind Kind

	// ID returns the identity of an item. Items with equal identity are
	// the same presentation: changing from one to another updates content
	// in place instead of replacing it. When nil, items implementing
	// Identifiable use Identity(); all other items of the case share one
	// identity.
	ID func(item Item) any

	// Build creates the presentation content. It receives a binding to the
	// projected item so the content can edit its own slice of state. When
	// nil, the content is the item value at the time of presentation.
	Build func(item binding.Binding[Item]) any

	// OnDismiss is called after a presentation ends, including when it is
	// replaced by one with a different identity.
	OnDismiss func()

	// Scope, when set, cancels the presenter when disposed and keeps it
	// alive until then.
	Scope *core.Scope

	// Metrics receives presenter metrics. Defaults to DefaultMetrics().
	Metrics *Metrics

	// Logger receives debug logs for every transition. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// identity distinguishes presentations of one presenter. The case tag keeps
// items of different cases apart even when their IDs collide.
type identity struct {
	tag string
	id  any
}

func sameIdentity(a, b identity) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

// record is the presenter's view of its live presentation. The surface
// owns the presentation; the record only points at it weakly.
type record struct {
	key          identity
	presentation weak.Pointer[Presentation]
}

// Presenter keeps a surface in sync with one optional or case-projected
// value.
//
// While the value is absent the presenter is idle. When it becomes present
// the presenter builds content and begins a presentation; when it becomes
// absent again the presentation ends. A value with a new identity ends the
// old presentation before the new one begins, and a value with the same
// identity changes nothing on the surface. When the surface reports that
// the user dismissed the presentation, the presenter writes the absent
// value back into the source, unless the state has moved on in the
// meantime.
//
// A Presenter lives as long as it is referenced: keep it, or set
// Options.Scope. All methods must be called on the runtime's execution
// context.
type Presenter[T, Item any] struct {
	rt      *core.Runtime
	surface Surface
	source  binding.Binding[T]
	cp      binding.CasePath[T, Item]
	opts    Options[Item]
	metrics *Metrics
	logger  *slog.Logger

	token    *core.Token
	record   *record
	task     *transaction.Task
	gate     *transaction.Task
	canceled bool
}

// Present starts presenting on surface whatever case cp extracts from
// source. A value that is already present is presented immediately, so
// state prepared before the surface exists (a deep link) is not lost; if
// the surface is not ready yet the work is queued until it is.
//
//	type model struct {
//	    destination *core.Slot[*Detail]
//	}
//
//	p := navigation.Present(rt, host, binding.FromSlot(m.destination), binding.Some[Detail](),
//	    navigation.Options[Detail]{
//	        Kind:  navigation.KindSheet,
//	        Build: func(d binding.Binding[Detail]) any { return newDetailView(d) },
//	    },
//	)
func Present[T, Item any](rt *core.Runtime, surface Surface, source binding.Binding[T], cp binding.CasePath[T, Item], opts Options[Item]) *Presenter[T, Item] {
	p := &Presenter[T, Item]{
		rt:      rt,
		surface: surface,
		source:  source,
		cp:      cp,
		opts:    opts,
		metrics: opts.Metrics,
		logger:  opts.Logger,
	}
	if p.metrics == nil {
		p.metrics = DefaultMetrics()
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}

	p.token = core.ObserveChange(rt,
		func() T { return source.Get() },
		p.reconcile,
	)
	rt.Untracked(func() {
		p.reconcile(rt.CurrentTransaction())
	})

	if opts.Scope != nil {
		opts.Scope.OnDispose(p.Cancel)
	}
	return p
}

// IsPresenting reports whether the presenter holds a live presentation.
func (p *Presenter[T, Item]) IsPresenting() bool {
	return p.record != nil
}

// ID returns the identity of the live presentation, or nil when idle. It is
// also nil while presenting an item without an identity of its own.
func (p *Presenter[T, Item]) ID() any {
	if p.record == nil {
		return nil
	}
	return p.record.key.id
}

// Presentation returns the live presentation if the surface still holds
// it.
func (p *Presenter[T, Item]) Presentation() *Presentation {
	if p.record == nil {
		return nil
	}
	return p.record.presentation.Value()
}

// Task returns the task of the most recent begin or end. It completes once
// the surface has finished that transition, including animation.
func (p *Presenter[T, Item]) Task() *transaction.Task {
	if p.task == nil {
		return transaction.Completed(transaction.New())
	}
	return p.task
}

// Cancel stops observing the source and ends the live presentation, if
// any, without writing back. Cancel is idempotent.
func (p *Presenter[T, Item]) Cancel() {
	if p.canceled {
		return
	}
	p.canceled = true
	p.token.Cancel()

	if rec := p.record; rec != nil {
		p.record = nil
		p.metrics.LivePresentations.WithLabelValues(p.opts.Kind.String()).Dec()
		tx := transaction.New()
		p.enqueue(func() *transaction.Task { return p.unmount(rec, tx) })
	}
}

func (p *Presenter[T, Item]) reconcile(tx transaction.Transaction) {
	if p.canceled {
		return
	}
	item, present := p.cp.Extract(p.source.Get())
	switch {
	case !present && p.record == nil:
		// End while idle is a no-op.
	case !present:
		p.end(tx)
	case p.record == nil:
		p.begin(item, tx)
	case sameIdentity(p.identity(item), p.record.key):
		p.metrics.recordTransition(p.opts.Kind, transitionUpdate)
		p.log(context.Background(), transitionUpdate, p.record.key, tx)
	default:
		p.replace(item, tx)
	}
}

func (p *Presenter[T, Item]) identity(item Item) identity {
	key := identity{tag: p.cp.Tag}
	switch {
	case p.opts.ID != nil:
		key.id = p.opts.ID(item)
	default:
		if v, ok := any(item).(Identifiable); ok {
			key.id = v.Identity()
		}
	}
	return key
}

func (p *Presenter[T, Item]) begin(item Item, tx transaction.Transaction) {
	if p.record != nil {
		p.metrics.InvariantViolationsTotal.Inc()
		errors.ReportInvariant("navigation.Presenter.begin",
			fmt.Sprintf("%s presenter already holds a presentation for %v", p.opts.Kind, p.record.key.id))
		return
	}

	key := p.identity(item)
	pres := p.build(item, key)
	rec := &record{key: key, presentation: weak.Make(pres)}
	p.record = rec
	p.metrics.recordTransition(p.opts.Kind, transitionBegin)
	p.metrics.LivePresentations.WithLabelValues(p.opts.Kind.String()).Inc()

	ctx, span := startTransition(p.opts.Kind, transitionBegin, pres.id, tx)
	p.log(ctx, transitionBegin, key, tx)
	task := p.enqueue(func() *transaction.Task { return p.mount(pres, tx) })
	endWithTask(span, task)
	task.OnDone(func() {
		if task.IsCanceled() {
			p.rejected(rec, tx)
		}
	})
}

// rejected drops rec after the surface refused to mount it. The source
// keeps its value; the next change to it is reconciled from idle.
func (p *Presenter[T, Item]) rejected(rec *record, tx transaction.Transaction) {
	if p.record != rec {
		return
	}
	p.record = nil
	p.metrics.recordTransition(p.opts.Kind, transitionReject)
	p.metrics.LivePresentations.WithLabelValues(p.opts.Kind.String()).Dec()
	p.log(context.Background(), transitionReject, rec.key, tx)
}

func (p *Presenter[T, Item]) end(tx transaction.Transaction) {
	rec := p.record
	p.record = nil
	p.metrics.recordTransition(p.opts.Kind, transitionEnd)
	p.metrics.LivePresentations.WithLabelValues(p.opts.Kind.String()).Dec()

	ctx, span := startTransition(p.opts.Kind, transitionEnd, rec.key.id, tx)
	p.log(ctx, transitionEnd, rec.key, tx)
	task := p.enqueue(func() *transaction.Task { return p.unmount(rec, tx) })
	task.OnDone(p.opts.OnDismiss)
	endWithTask(span, task)
}

// replace ends the live presentation and begins one for item. The begin is
// queued behind the end, so the surface never sees both at once.
func (p *Presenter[T, Item]) replace(item Item, tx transaction.Transaction) {
	old := p.record
	p.record = nil
	p.metrics.recordTransition(p.opts.Kind, transitionReplace)
	p.metrics.LivePresentations.WithLabelValues(p.opts.Kind.String()).Dec()

	ctx, span := startTransition(p.opts.Kind, transitionReplace, old.key.id, tx)
	p.log(ctx, transitionReplace, old.key, tx)
	ended := p.enqueue(func() *transaction.Task { return p.unmount(old, tx) })
	ended.OnDone(p.opts.OnDismiss)
	endWithTask(span, ended)

	p.begin(item, tx)
}

func (p *Presenter[T, Item]) build(item Item, key identity) *Presentation {
	var content any = item
	if p.opts.Build != nil {
		if b, ok := binding.Case(p.source, p.cp); ok {
			content = p.opts.Build(b)
		}
	}
	id := key.id
	if id == nil {
		id = key.tag
	}
	pres := &Presentation{id: id, kind: p.opts.Kind, content: content}
	pres.onDismissed = func() { p.dismissed(key) }
	return pres
}

// mount begins pres, first ending any foreign modal the surface is showing.
// The begin waits until that teardown has completed.
func (p *Presenter[T, Item]) mount(pres *Presentation, tx transaction.Transaction) *transaction.Task {
	if p.opts.Kind.IsModal() {
		if cur := p.surface.Current(); cur != nil && cur != pres && cur.Kind().IsModal() {
			p.metrics.recordCollision(p.opts.Kind)
			ended := p.surface.End(cur, tx)
			cur.DismissExternally()
			if ended != nil && !ended.IsDone() {
				return ended.Then(p.dispatch, func() *transaction.Task {
					return p.surface.Begin(pres, tx)
				})
			}
		}
	}
	return p.surface.Begin(pres, tx)
}

func (p *Presenter[T, Item]) unmount(rec *record, tx transaction.Transaction) *transaction.Task {
	pres := rec.presentation.Value()
	if pres == nil {
		return transaction.Completed(tx)
	}
	return p.surface.End(pres, tx)
}

// dismissed handles an external dismissal of the presentation created for
// key. It writes the absent value back only while both the record and the
// current state still refer to key; otherwise the dismissal is stale.
func (p *Presenter[T, Item]) dismissed(key identity) {
	if p.canceled {
		return
	}
	if p.record == nil || !sameIdentity(p.record.key, key) {
		p.staleDismissal(key)
		return
	}

	var current T
	p.rt.Untracked(func() { current = p.source.Get() })
	item, present := p.cp.Extract(current)
	if !present {
		return
	}
	if !sameIdentity(p.identity(item), key) {
		p.staleDismissal(key)
		return
	}

	var absent T
	p.source.Set(absent)
}

func (p *Presenter[T, Item]) staleDismissal(key identity) {
	p.metrics.recordStaleDismissal(p.opts.Kind)
	p.log(context.Background(), "stale dismissal", key, transaction.New())
}

// enqueue runs op after all earlier work of this presenter has finished and
// the surface is ready. Work that can run now runs synchronously; deferred
// work resumes on the execution context.
func (p *Presenter[T, Item]) enqueue(op func() *transaction.Task) *transaction.Task {
	run := func() *transaction.Task {
		if t := op(); t != nil {
			return t
		}
		return transaction.Completed(transaction.New())
	}

	prev := p.task
	if !p.surface.Ready() {
		p.metrics.recordDeferred(p.opts.Kind)
		gate := p.readyGate()
		if prev == nil || prev.IsDone() {
			prev = gate
		} else {
			prev = transaction.All(prev, gate)
		}
	}

	var task *transaction.Task
	if prev == nil || prev.IsDone() {
		task = run()
	} else {
		task = prev.Then(p.dispatch, run)
	}
	p.task = task
	return task
}

func (p *Presenter[T, Item]) readyGate() *transaction.Task {
	if p.gate == nil || p.gate.IsDone() {
		gate := transaction.NewTask(transaction.New())
		p.gate = gate
		p.surface.OnReady(gate.Complete)
	}
	return p.gate
}

func (p *Presenter[T, Item]) dispatch(fn func()) {
	p.rt.Dispatch(fn)
}

func (p *Presenter[T, Item]) log(ctx context.Context, transition string, key identity, tx transaction.Transaction) {
	if !p.logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	p.logger.LogAttrs(ctx, slog.LevelDebug, "navsync transition",
		slog.String("kind", p.opts.Kind.String()),
		slog.String("case", key.tag),
		slog.Any("id", key.id),
		slog.String("transition", transition),
		slog.Bool("animated", tx.IsAnimated()),
	)
}
