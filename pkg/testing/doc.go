// Package testing provides test tooling for navsync.
//
// # Quick Start
//
// Create a tester, present onto a recording surface, drive state, and
// assert on the calls the surface saw:
//
//	func TestDetailSheet(t *testing.T) {
//	    tester := navtest.NewTesterWithT(t)
//	    rt := tester.Runtime()
//	    surface := navtest.NewRecordingSurface()
//	    detail := core.NewSlot[*Detail](rt, nil)
//
//	    p := navigation.Present(rt, surface, binding.FromSlot(detail), binding.Some[Detail](),
//	        navigation.Options[Detail]{Kind: navigation.KindSheet})
//	    defer p.Cancel()
//
//	    detail.Set(&Detail{ID: "x"})
//	    tester.Pump()
//
//	    if got := surface.Ops(); !slices.Equal(got, []string{"begin(x)"}) {
//	        t.Errorf("ops = %v", got)
//	    }
//	}
//
// # Animation Testing
//
// The tester installs a [FakeClock] as the animation clock. Move time and
// run a frame with Advance, or run frames until everything has finished
// with PumpAndSettle:
//
//	tester.Advance(100 * time.Millisecond)
//	if err := tester.PumpAndSettle(time.Second); err != nil {
//	    t.Fatal(err)
//	}
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import navtest "github.com/go-drift/navsync/pkg/testing"
package testing
