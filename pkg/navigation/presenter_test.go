package navigation_test

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/go-drift/navsync/pkg/animation"
	"github.com/go-drift/navsync/pkg/binding"
	"github.com/go-drift/navsync/pkg/core"
	"github.com/go-drift/navsync/pkg/navigation"
	navtest "github.com/go-drift/navsync/pkg/testing"
	"github.com/go-drift/navsync/pkg/transaction"
)

func TestPresenter_PresentsAndEnds(t *testing.T) {
	f := newFixture(t)
	s := navtest.NewRecordingSurface()
	p := f.present(t, s, navigation.KindSheet)

	if p.IsPresenting() || len(s.Events()) != 0 {
		t.Fatal("absent value should leave the presenter idle")
	}

	f.set("a", "first")
	if !p.IsPresenting() || p.ID() != "a" {
		t.Fatalf("IsPresenting() = %v, ID() = %v", p.IsPresenting(), p.ID())
	}
	if got := p.Presentation().Content(); got != (detail{ID: "a", Title: "first"}) {
		t.Errorf("Content() = %v", got)
	}

	f.clear()
	if diff := cmp.Diff([]string{"begin(a)", "end(a)"}, s.Ops()); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
	if p.IsPresenting() {
		t.Error("presenter should be idle after the value is cleared")
	}
	if f.dismissed != 1 {
		t.Errorf("OnDismiss called %d times, want 1", f.dismissed)
	}
	if got := testutil.ToFloat64(f.metrics.LivePresentations.WithLabelValues("sheet")); got != 0 {
		t.Errorf("live presentations = %v, want 0", got)
	}
}

func TestPresenter_ClearWhileIdleDoesNothing(t *testing.T) {
	f := newFixture(t)
	s := navtest.NewRecordingSurface()
	f.present(t, s, navigation.KindSheet)

	f.clear()
	f.clear()

	if len(s.Events()) != 0 {
		t.Errorf("events = %v, want none", s.Ops())
	}
	if f.dismissed != 0 {
		t.Errorf("OnDismiss called %d times, want 0", f.dismissed)
	}
}

func TestPresenter_SameIdentityUpdatesInPlace(t *testing.T) {
	f := newFixture(t)
	s := navtest.NewRecordingSurface()
	p := f.present(t, s, navigation.KindSheet)

	f.set("a", "first")
	first := p.Presentation()
	f.set("a", "second")

	if diff := cmp.Diff([]string{"begin(a)"}, s.Ops()); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
	if p.Presentation() != first {
		t.Error("same identity should keep the live presentation")
	}
	if got := testutil.ToFloat64(f.metrics.TransitionsTotal.WithLabelValues("sheet", "update")); got != 1 {
		t.Errorf("update transitions = %v, want 1", got)
	}
}

func TestPresenter_ReplaceEndsBeforeBegin(t *testing.T) {
	f := newFixture(t)
	s := navtest.NewRecordingSurface()
	p := f.present(t, s, navigation.KindSheet)

	f.set("a", "")
	f.set("b", "")

	if diff := cmp.Diff([]string{"begin(a)", "end(a)", "begin(b)"}, s.Ops()); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
	if s.MaxLive() != 1 {
		t.Errorf("MaxLive() = %d, want 1", s.MaxLive())
	}
	if p.ID() != "b" {
		t.Errorf("ID() = %v, want b", p.ID())
	}
	if f.dismissed != 1 {
		t.Errorf("OnDismiss called %d times, want 1", f.dismissed)
	}
}

func TestPresenter_LifecycleSnapshot(t *testing.T) {
	f := newFixture(t)
	s := navtest.NewRecordingSurface()
	f.present(t, s, navigation.KindSheet)

	f.rt.Within(transaction.New().WithAnimation(animation.Default()), func() {
		f.slot.Set(&detail{ID: "a"})
	})
	f.rt.Flush()
	f.set("b", "")
	f.clear()
	f.set("c", "")

	s.Snapshot().MatchesFile(t, filepath.Join("testdata", "presenter_lifecycle.yaml"))
}

func TestPresenter_ReplaceWaitsForAsyncEnd(t *testing.T) {
	f := newFixture(t)
	s := navtest.NewRecordingSurface()
	s.Async = true
	f.present(t, s, navigation.KindSheet)

	f.set("a", "")
	s.CompleteAll()
	f.set("b", "")

	if diff := cmp.Diff([]string{"begin(a)", "end(a)"}, s.Ops()); diff != "" {
		t.Fatalf("begin(b) must wait for end(a) (-want +got):\n%s", diff)
	}

	s.CompleteAll()
	f.rt.Flush()

	if diff := cmp.Diff([]string{"begin(a)", "end(a)", "begin(b)"}, s.Ops()); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
}

func TestPresenter_AtMostOneLivePresentation(t *testing.T) {
	f := newFixture(t)
	s := navtest.NewRecordingSurface()
	s.Async = true
	f.present(t, s, navigation.KindSheet)

	f.set("a", "")
	f.set("b", "")
	f.clear()
	f.set("c", "")
	f.set("d", "")

	for range 20 {
		s.CompleteAll()
		f.rt.Flush()
	}

	want := []string{"begin(a)", "end(a)", "begin(b)", "end(b)", "begin(c)", "end(c)", "begin(d)"}
	if diff := cmp.Diff(want, s.Ops()); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
	if s.MaxLive() != 1 {
		t.Errorf("MaxLive() = %d, want 1", s.MaxLive())
	}
	if live := s.Live(); len(live) != 1 || live[0].ID() != "d" {
		t.Errorf("Live() = %v, want [sheet(d)]", live)
	}
}

func TestPresenter_DismissalWritesBack(t *testing.T) {
	f := newFixture(t)
	host := navigation.NewModalHost("root")
	p := f.present(t, host, navigation.KindSheet)

	f.set("a", "")
	if !host.Dismiss(transaction.New()) {
		t.Fatal("Dismiss() = false, want true")
	}
	if f.slot.Peek() != nil {
		t.Fatalf("dismissal should write nil back, got %v", f.slot.Peek())
	}

	f.rt.Flush()
	if p.IsPresenting() {
		t.Error("presenter should be idle after the write-back")
	}
	if host.Current() != nil {
		t.Errorf("host.Current() = %v, want nil", host.Current())
	}
	if f.dismissed != 1 {
		t.Errorf("OnDismiss called %d times, want 1", f.dismissed)
	}
}

func TestPresenter_AnimatedDismissalResolvesAfterTeardown(t *testing.T) {
	tests := []struct {
		name    string
		kind    navigation.Kind
		surface func() (navigation.Surface, func(transaction.Transaction) bool)
	}{
		{
			name: "modal swipe",
			kind: navigation.KindSheet,
			surface: func() (navigation.Surface, func(transaction.Transaction) bool) {
				host := navigation.NewModalHost("root")
				return host, host.Dismiss
			},
		},
		{
			name: "stack back",
			kind: navigation.KindPush,
			surface: func() (navigation.Surface, func(transaction.Transaction) bool) {
				stack := navigation.NewStack("main")
				return stack, stack.Pop
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tester := navtest.NewTesterWithT(t)
			f := newFixture(t)
			f.rt = tester.Runtime()
			f.slot = core.NewSlot[*detail](f.rt, nil)

			s, dismiss := tt.surface()
			p := f.present(t, s, tt.kind)
			f.set("a", "")

			if !dismiss(transaction.New().WithAnimation(animation.EaseInOutSpec(300 * time.Millisecond))) {
				t.Fatal("dismiss reported nothing to remove")
			}
			tester.Pump()

			if p.IsPresenting() {
				t.Error("presenter should be idle once the write-back is reconciled")
			}
			if p.Task().IsDone() {
				t.Error("Task() resolved while the surface is still animating out")
			}
			if f.dismissed != 0 {
				t.Errorf("OnDismiss called %d times before teardown finished", f.dismissed)
			}

			if err := tester.PumpAndSettle(time.Second); err != nil {
				t.Fatal(err)
			}
			if !p.Task().IsDone() {
				t.Error("Task() should resolve after the teardown")
			}
			if f.dismissed != 1 {
				t.Errorf("OnDismiss called %d times, want 1", f.dismissed)
			}
		})
	}
}

func TestPresenter_RejectedBeginReturnsToIdle(t *testing.T) {
	handler := installHandler(t)
	f := newFixture(t)
	host := navigation.NewModalHost("root")
	foreign := navigation.NewPresentation(navigation.KindAlert, "foreign", nil)
	host.Begin(foreign, transaction.New())

	p := f.present(t, host, navigation.KindPush)
	f.set("a", "")

	if len(handler.errors) != 1 {
		t.Fatalf("reported %d errors, want 1", len(handler.errors))
	}
	if p.IsPresenting() {
		t.Error("a begin the surface refused must not leave the presenter presenting")
	}
	if got := testutil.ToFloat64(f.metrics.LivePresentations.WithLabelValues("push")); got != 0 {
		t.Errorf("live presentations = %v, want 0", got)
	}
	if got := testutil.ToFloat64(f.metrics.TransitionsTotal.WithLabelValues("push", "rejected")); got != 1 {
		t.Errorf("rejected transitions = %v, want 1", got)
	}

	host.End(foreign, transaction.New())
	f.set("b", "")
	if !p.IsPresenting() || p.ID() != "b" {
		t.Errorf("presenter should begin b once the host is free, ID() = %v", p.ID())
	}
	if cur := host.Current(); cur == nil || cur.ID() != "b" {
		t.Errorf("host.Current() = %v, want push(b)", cur)
	}
}

func TestPresenter_StaleDismissalIgnored(t *testing.T) {
	f := newFixture(t)
	s := navtest.NewRecordingSurface()
	p := f.present(t, s, navigation.KindSheet)

	f.set("a", "")
	old := p.Presentation()

	// State moves on before the dismissal arrives.
	f.slot.Set(&detail{ID: "b"})
	s.Dismiss(old)

	if got := f.slot.Peek(); got == nil || got.ID != "b" {
		t.Fatalf("stale dismissal overwrote state: %v", got)
	}
	if got := testutil.ToFloat64(f.metrics.StaleDismissalsTotal.WithLabelValues("sheet")); got != 1 {
		t.Errorf("stale dismissals = %v, want 1", got)
	}

	f.rt.Flush()
	if p.ID() != "b" {
		t.Errorf("ID() = %v, want b", p.ID())
	}
}

func TestPresenter_DismissalAfterReplaceIgnored(t *testing.T) {
	f := newFixture(t)
	s := navtest.NewRecordingSurface()
	p := f.present(t, s, navigation.KindSheet)

	f.set("a", "")
	old := p.Presentation()
	f.set("b", "")

	old.DismissExternally()

	if got := f.slot.Peek(); got == nil || got.ID != "b" {
		t.Fatalf("stale dismissal overwrote state: %v", got)
	}
	f.rt.Flush()
	if !p.IsPresenting() || p.ID() != "b" {
		t.Errorf("IsPresenting() = %v, ID() = %v", p.IsPresenting(), p.ID())
	}
}

func TestPresenter_DeepLinkWaitsForReadySurface(t *testing.T) {
	f := newFixture(t)
	s := navtest.NewDeferredRecordingSurface()
	f.slot.Set(&detail{ID: "a"})

	p := f.present(t, s, navigation.KindSheet)
	if len(s.Events()) != 0 {
		t.Fatalf("unready surface received %v", s.Ops())
	}
	if !p.IsPresenting() {
		t.Error("presenter should commit to the value before the surface is ready")
	}

	s.MarkReady()
	f.rt.Flush()

	if diff := cmp.Diff([]string{"begin(a)"}, s.Ops()); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
	if got := testutil.ToFloat64(f.metrics.DeferredOperationsTotal.WithLabelValues("sheet")); got != 1 {
		t.Errorf("deferred operations = %v, want 1", got)
	}
}

func TestPresenter_DeferredWorkKeepsOrder(t *testing.T) {
	f := newFixture(t)
	s := navtest.NewDeferredRecordingSurface()
	f.slot.Set(&detail{ID: "a"})
	f.present(t, s, navigation.KindSheet)

	f.set("b", "")
	if len(s.Events()) != 0 {
		t.Fatalf("unready surface received %v", s.Ops())
	}

	s.MarkReady()
	f.rt.Flush()

	if diff := cmp.Diff([]string{"begin(a)", "end(a)", "begin(b)"}, s.Ops()); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
	if got := testutil.ToFloat64(f.metrics.DeferredOperationsTotal.WithLabelValues("sheet")); got != 3 {
		t.Errorf("deferred operations = %v, want 3", got)
	}
}

func TestPresenter_TransactionReachesSurface(t *testing.T) {
	f := newFixture(t)
	s := navtest.NewRecordingSurface()
	f.present(t, s, navigation.KindSheet)

	f.rt.Within(transaction.New().WithAnimation(animation.Default()), func() {
		f.slot.Set(&detail{ID: "a"})
	})
	f.rt.Flush()

	binding.FromSlot(f.slot).Set(nil)
	f.rt.Flush()

	want := []navtest.Event{
		{Op: "begin", ID: "a", Animated: true},
		{Op: "end", ID: "a", Animated: false},
	}
	if diff := cmp.Diff(want, s.Events()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestPresenter_BuildReceivesItemBinding(t *testing.T) {
	f := newFixture(t)
	s := navtest.NewRecordingSurface()

	var item binding.Binding[detail]
	opts := f.options(navigation.KindSheet)
	opts.Build = func(b binding.Binding[detail]) any {
		item = b
		return "editor"
	}
	p := navigation.Present(f.rt, s, binding.FromSlot(f.slot), binding.Some[detail](), opts)
	t.Cleanup(p.Cancel)

	f.set("a", "draft")
	if got := p.Presentation().Content(); got != "editor" {
		t.Fatalf("Content() = %v, want editor", got)
	}

	item.Set(detail{ID: "a", Title: "final"})
	f.rt.Flush()

	if got := f.slot.Peek(); got == nil || got.Title != "final" {
		t.Errorf("slot = %v, want title final", got)
	}
	if diff := cmp.Diff([]string{"begin(a)"}, s.Ops()); diff != "" {
		t.Errorf("editing in place should not replace (-want +got):\n%s", diff)
	}
}

type destination interface{ isDestination() }

type editItem struct{ Name string }
type confirmDelete struct{}

func (editItem) isDestination()      {}
func (confirmDelete) isDestination() {}

func TestPresenter_CasesShareOneSource(t *testing.T) {
	rt := core.NewRuntime()
	metrics := navigation.NewMetrics(nil)
	dest := core.NewSlot[destination](rt, nil)
	obs := &transitions{}
	host := navigation.NewModalHost("root", obs)

	edit := navigation.Present(rt, host, binding.FromSlot(dest), binding.CaseOf[destination, editItem]("edit"),
		navigation.Options[editItem]{Kind: navigation.KindSheet, Metrics: metrics})
	confirm := navigation.Present(rt, host, binding.FromSlot(dest), binding.CaseOf[destination, confirmDelete]("confirm"),
		navigation.Options[confirmDelete]{Kind: navigation.KindAlert, Metrics: metrics})
	t.Cleanup(edit.Cancel)
	t.Cleanup(confirm.Cancel)

	dest.Set(editItem{Name: "x"})
	rt.Flush()
	dest.Set(confirmDelete{})
	rt.Flush()

	want := []string{"begin sheet(edit)", "end sheet(edit)", "begin alert(confirm)"}
	if diff := cmp.Diff(want, obs.log); diff != "" {
		t.Errorf("transitions mismatch (-want +got):\n%s", diff)
	}
	if edit.IsPresenting() || !confirm.IsPresenting() {
		t.Errorf("edit presenting = %v, confirm presenting = %v", edit.IsPresenting(), confirm.IsPresenting())
	}

	host.Dismiss(transaction.New())
	if dest.Peek() != nil {
		t.Errorf("dismissing the alert should clear the destination, got %v", dest.Peek())
	}
}

func TestPresenter_ModalCollisionEndsForeignModal(t *testing.T) {
	f := newFixture(t)
	host := navigation.NewModalHost("root")
	sheet := f.present(t, host, navigation.KindSheet)

	alertSlot := core.NewSlot[*detail](f.rt, nil)
	alert := navigation.Present(f.rt, host, binding.FromSlot(alertSlot), binding.Some[detail](),
		navigation.Options[detail]{Kind: navigation.KindAlert, Metrics: f.metrics, Logger: f.logger})
	t.Cleanup(alert.Cancel)

	f.set("a", "")
	alertSlot.Set(&detail{ID: "oops"})
	f.rt.Flush()

	if cur := host.Current(); cur == nil || cur.ID() != "oops" {
		t.Fatalf("host.Current() = %v, want alert(oops)", cur)
	}
	if f.slot.Peek() != nil {
		t.Errorf("ended sheet should write nil back, got %v", f.slot.Peek())
	}
	if sheet.IsPresenting() {
		t.Error("sheet presenter should be idle")
	}
	if got := testutil.ToFloat64(f.metrics.CollisionsTotal.WithLabelValues("alert")); got != 1 {
		t.Errorf("collisions = %v, want 1", got)
	}
}

func TestPresenter_AnimatedCollisionWaitsForTeardown(t *testing.T) {
	tester := navtest.NewTesterWithT(t)
	f := newFixture(t)
	f.rt = tester.Runtime()
	f.slot = core.NewSlot[*detail](f.rt, nil)

	obs := &transitions{}
	host := navigation.NewModalHost("root", obs)
	f.present(t, host, navigation.KindSheet)

	alertSlot := core.NewSlot[*detail](f.rt, nil)
	alert := navigation.Present(f.rt, host, binding.FromSlot(alertSlot), binding.Some[detail](),
		navigation.Options[detail]{Kind: navigation.KindAlert, Metrics: f.metrics, Logger: f.logger})
	t.Cleanup(alert.Cancel)

	f.set("a", "")
	f.rt.Within(transaction.New().WithAnimation(animation.LinearSpec(100*time.Millisecond)), func() {
		alertSlot.Set(&detail{ID: "b"})
	})
	tester.Pump()

	if host.Current() != nil {
		t.Fatalf("alert must not begin while the sheet animates out, current = %v", host.Current())
	}

	if err := tester.PumpAndSettle(time.Second); err != nil {
		t.Fatal(err)
	}
	want := []string{"begin sheet(a)", "end sheet(a)", "begin alert(b)"}
	if diff := cmp.Diff(want, obs.log); diff != "" {
		t.Errorf("transitions mismatch (-want +got):\n%s", diff)
	}
	if cur := host.Current(); cur == nil || cur.ID() != "b" {
		t.Errorf("host.Current() = %v, want alert(b)", cur)
	}
}

func TestPresenter_CancelEndsWithoutWriteBack(t *testing.T) {
	f := newFixture(t)
	s := navtest.NewRecordingSurface()
	p := f.present(t, s, navigation.KindSheet)

	f.set("a", "")
	p.Cancel()
	p.Cancel()

	if diff := cmp.Diff([]string{"begin(a)", "end(a)"}, s.Ops()); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
	if f.slot.Peek() == nil {
		t.Error("Cancel must not write back")
	}

	f.set("b", "")
	if len(s.Events()) != 2 {
		t.Errorf("canceled presenter reacted: %v", s.Ops())
	}
}

func TestPresenter_ScopeDisposalCancels(t *testing.T) {
	f := newFixture(t)
	s := navtest.NewRecordingSurface()
	scope := core.NewScope(f.rt)

	opts := f.options(navigation.KindSheet)
	opts.Scope = scope
	navigation.Present(f.rt, s, binding.FromSlot(f.slot), binding.Some[detail](), opts)

	f.set("a", "")
	scope.Dispose()
	f.set("b", "")

	if diff := cmp.Diff([]string{"begin(a)", "end(a)"}, s.Ops()); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
}

func TestPresenter_CustomIdentity(t *testing.T) {
	f := newFixture(t)
	s := navtest.NewRecordingSurface()
	opts := f.options(navigation.KindPopover)
	opts.ID = func(d detail) any { return d.Title }
	p := navigation.Present(f.rt, s, binding.FromSlot(f.slot), binding.Some[detail](), opts)
	t.Cleanup(p.Cancel)

	f.set("a", "x")
	f.set("b", "x")
	f.set("b", "y")

	if diff := cmp.Diff([]string{"begin(x)", "end(x)", "begin(y)"}, s.Ops()); diff != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", diff)
	}
}

func TestPresenter_TracesAndLogsTransitions(t *testing.T) {
	f := newFixture(t)
	s := navtest.NewRecordingSurface()
	f.present(t, s, navigation.KindSheet)

	before := len(spans.Ended())
	f.set("traced", "")
	f.clear()

	var names []string
	for _, span := range spans.Ended()[before:] {
		names = append(names, span.Name())
		found := false
		for _, kv := range span.Attributes() {
			if kv.Key == "navsync.id" && kv.Value.AsString() == "traced" {
				found = true
			}
		}
		if !found {
			t.Errorf("span %s lacks navsync.id=traced", span.Name())
		}
	}
	if diff := cmp.Diff([]string{"navigation.begin", "navigation.end"}, names); diff != "" {
		t.Errorf("span names mismatch (-want +got):\n%s", diff)
	}

	logs := f.logs.String()
	for _, want := range []string{`"transition":"begin"`, `"transition":"end"`, `"kind":"sheet"`} {
		if !strings.Contains(logs, want) {
			t.Errorf("logs missing %s:\n%s", want, logs)
		}
	}
}
