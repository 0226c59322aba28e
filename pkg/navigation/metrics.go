package navigation

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "navsync"
	metricsSubsystem = "presenter"
)

// Transition labels.
const (
	transitionBegin   = "begin"
	transitionEnd     = "end"
	transitionReplace = "replace"
	transitionUpdate  = "update"
	transitionReject  = "rejected"
)

// Metrics holds the Prometheus collectors for presenters.
//
// Every presenter that does not set Options.Metrics records into
// DefaultMetrics, which registers with the default registry on first use.
type Metrics struct {
	// TransitionsTotal counts reconcile transitions by kind and transition.
	TransitionsTotal *prometheus.CounterVec

	// StaleDismissalsTotal counts external dismissals suppressed because
	// the state had already moved on.
	StaleDismissalsTotal *prometheus.CounterVec

	// DeferredOperationsTotal counts begin/end work queued while the
	// surface was not ready.
	DeferredOperationsTotal *prometheus.CounterVec

	// CollisionsTotal counts foreign modals ended to make room.
	CollisionsTotal *prometheus.CounterVec

	// InvariantViolationsTotal counts defensive checks that fired.
	InvariantViolationsTotal prometheus.Counter

	// LivePresentations tracks presentations currently begun by presenters.
	LivePresentations *prometheus.GaugeVec
}

// NewMetrics creates presenter metrics registered with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TransitionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "transitions_total",
				Help:      "Presentation transitions by kind and transition",
			},
			[]string{"kind", "transition"},
		),
		StaleDismissalsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "stale_dismissals_total",
				Help:      "External dismissals suppressed because state had moved on",
			},
			[]string{"kind"},
		),
		DeferredOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "deferred_operations_total",
				Help:      "Begin and end operations queued until the surface was ready",
			},
			[]string{"kind"},
		),
		CollisionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "collisions_total",
				Help:      "Foreign modal presentations ended to make room",
			},
			[]string{"kind"},
		),
		InvariantViolationsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "invariant_violations_total",
				Help:      "Presenter invariant violations detected at runtime",
			},
		),
		LivePresentations: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: metricsSubsystem,
				Name:      "live_presentations",
				Help:      "Presentations currently begun by presenters",
			},
			[]string{"kind"},
		),
	}
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the metrics registered with the default Prometheus
// registry, creating them on first use.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

func (m *Metrics) recordTransition(kind Kind, transition string) {
	m.TransitionsTotal.WithLabelValues(kind.String(), transition).Inc()
}

func (m *Metrics) recordStaleDismissal(kind Kind) {
	m.StaleDismissalsTotal.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) recordDeferred(kind Kind) {
	m.DeferredOperationsTotal.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) recordCollision(kind Kind) {
	m.CollisionsTotal.WithLabelValues(kind.String()).Inc()
}
