package testing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-drift/navsync/pkg/animation"
	"github.com/go-drift/navsync/pkg/navigation"
	"github.com/go-drift/navsync/pkg/transaction"
)

// fakeT records failures instead of stopping the test.
type fakeT struct {
	fatals []string
	errors []string
}

func (f *fakeT) Helper()      {}
func (f *fakeT) Name() string { return "TestFake" }
func (f *fakeT) Fatalf(format string, args ...any) {
	f.fatals = append(f.fatals, fmt.Sprintf(format, args...))
}
func (f *fakeT) Errorf(format string, args ...any) {
	f.errors = append(f.errors, fmt.Sprintf(format, args...))
}

func recorded() *RecordingSurface {
	s := NewRecordingSurface()
	a := navigation.NewPresentation(navigation.KindSheet, "a", nil)
	b := navigation.NewPresentation(navigation.KindSheet, "b", nil)
	s.Begin(a, transaction.New().WithAnimation(animation.Default()))
	s.End(a, transaction.New())
	s.Begin(b, transaction.New())
	return s
}

func TestSnapshot_CapturesSurface(t *testing.T) {
	snap := recorded().Snapshot()

	if len(snap.Events) != 3 {
		t.Fatalf("len(Events) = %d, want 3", len(snap.Events))
	}
	if len(snap.Live) != 1 || snap.Live[0] != "sheet(b)" {
		t.Errorf("Live = %v, want [sheet(b)]", snap.Live)
	}
	if snap.MaxLive != 1 {
		t.Errorf("MaxLive = %d, want 1", snap.MaxLive)
	}
}

func TestSnapshot_RoundTripThroughFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "replace.yaml")
	snap := recorded().Snapshot()

	if err := snap.UpdateFile(path); err != nil {
		t.Fatalf("UpdateFile() = %v", err)
	}

	ft := &fakeT{}
	snap.MatchesFile(ft, path)
	if len(ft.fatals)+len(ft.errors) != 0 {
		t.Errorf("MatchesFile reported %v %v", ft.fatals, ft.errors)
	}
}

func TestSnapshot_MismatchReportsDiff(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replace.yaml")
	if err := recorded().Snapshot().UpdateFile(path); err != nil {
		t.Fatal(err)
	}

	s := recorded()
	s.Dismiss(s.Current())
	ft := &fakeT{}
	s.Snapshot().MatchesFile(ft, path)

	if len(ft.errors) != 1 {
		t.Fatalf("errors = %v, want one mismatch", ft.errors)
	}
	for _, want := range []string{"--- expected", "+++ actual", "op: dismiss", UpdateSnapshotsEnv} {
		if !strings.Contains(ft.errors[0], want) {
			t.Errorf("mismatch report missing %q:\n%s", want, ft.errors[0])
		}
	}
}

func TestSnapshot_MissingFile(t *testing.T) {
	ft := &fakeT{}
	recorded().Snapshot().MatchesFile(ft, filepath.Join(t.TempDir(), "missing.yaml"))
	if len(ft.fatals) != 1 || !strings.Contains(ft.fatals[0], "snapshot file missing") {
		t.Errorf("fatals = %v", ft.fatals)
	}
}

func TestSnapshot_UpdateEnv(t *testing.T) {
	t.Setenv(UpdateSnapshotsEnv, "1")
	path := filepath.Join(t.TempDir(), "fresh.yaml")

	ft := &fakeT{}
	recorded().Snapshot().MatchesFile(ft, path)

	if len(ft.fatals) != 0 {
		t.Fatalf("fatals = %v", ft.fatals)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("golden file not written: %v", err)
	}
}
