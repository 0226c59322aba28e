package scenario

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/navsync/cmd/navsync/internal/config"
	"github.com/go-drift/navsync/pkg/navigation"
)

func run(t *testing.T, sc *config.Scenario) (*Result, *navigation.Metrics, string) {
	t.Helper()
	var out bytes.Buffer
	metrics := navigation.NewMetrics(prometheus.NewRegistry())
	res, err := NewRunner(sc, Options{Out: &out, Metrics: metrics}).Run(context.Background())
	require.NoError(t, err)
	return res, metrics, out.String()
}

func load(t *testing.T, name string) *config.Scenario {
	t.Helper()
	sc, err := config.LoadScenario(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	return sc
}

func parse(t *testing.T, src string) *config.Scenario {
	t.Helper()
	sc, err := config.ParseScenario([]byte(src))
	require.NoError(t, err)
	return sc
}

// TestRunner_DeepLink verifies state written before the surface is ready is
// presented once it becomes ready, and that a dismissal writes back.
func TestRunner_DeepLink(t *testing.T) {
	res, metrics, out := run(t, load(t, "deeplink.yaml"))

	assert.Equal(t, []string{"begin sheet(42)", "end sheet(42)"}, res.Transitions)
	assert.Equal(t, map[string]string{"editor": ""}, res.State)
	assert.Empty(t, res.Live)
	assert.Equal(t, "begin sheet(42)\nend sheet(42)\n", out)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DeferredOperationsTotal.WithLabelValues("sheet")))
}

// TestRunner_Collision verifies an alert over a sheet waits for the sheet to
// animate out and clears the sheet's state.
func TestRunner_Collision(t *testing.T) {
	res, metrics, _ := run(t, load(t, "collision.yaml"))

	assert.Equal(t, []string{"begin sheet(s1)", "end sheet(s1)", "begin alert(x)"}, res.Transitions)
	assert.Equal(t, map[string]string{"sheet": "", "alert": "x"}, res.State)
	assert.Equal(t, "alert(x)", res.Live)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CollisionsTotal.WithLabelValues("alert")))
}

func TestRunner_StackBack(t *testing.T) {
	res, _, _ := run(t, load(t, "stack.yaml"))

	assert.Equal(t, []string{"begin push(inbox)", "begin push(m1)", "end push(m1)"}, res.Transitions)
	assert.Equal(t, map[string]string{"list": "inbox", "detail": ""}, res.State)
	assert.Equal(t, "push(inbox)", res.Live)
}

func TestRunner_ReplaceAndUpdate(t *testing.T) {
	res, metrics, _ := run(t, parse(t, `
presenters: [{name: editor, kind: sheet}]
steps:
  - {op: set, target: editor, id: "1", title: a}
  - {op: set, target: editor, id: "1", title: b}
  - {op: set, target: editor, id: "2"}
  - {op: clear, target: editor}
`))

	assert.Equal(t, []string{"begin sheet(1)", "end sheet(1)", "begin sheet(2)", "end sheet(2)"}, res.Transitions)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TransitionsTotal.WithLabelValues("sheet", "update")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TransitionsTotal.WithLabelValues("sheet", "replace")))
}

func TestRunner_TeardownIsNotPrinted(t *testing.T) {
	_, _, out := run(t, parse(t, `
presenters: [{name: editor, kind: sheet}]
steps:
  - {op: set, target: editor, id: "1"}
`))
	assert.Equal(t, 1, strings.Count(out, "\n"), "output: %q", out)
}

func TestRunner_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sc := parse(t, "presenters: [{name: a, kind: sheet}]\nsteps: [{op: set, target: a, id: x}]\n")
	_, err := NewRunner(sc, Options{Metrics: navigation.NewMetrics(nil)}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
