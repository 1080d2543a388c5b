// Package metrics exposes the monitor's Prometheus metrics. All methods on a
// nil *Metrics are no-ops so components can run without instrumentation.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const Namespace = "eclipsemon"

// Rejection reasons used as the "reason" label of headers_rejected_total.
const (
	ReasonParse      = "parse"
	ReasonValidation = "validation"
	ReasonIntegrity  = "integrity"
	ReasonHost       = "host"
)

type Metrics struct {
	// Header pipeline
	headersValidated prometheus.Counter
	headersRejected  *prometheus.CounterVec
	updateDuration   prometheus.Histogram

	// Events
	receiptsFetched   prometheus.Counter
	eventsDelivered   prometheus.Counter
	listenerErrors    prometheus.Counter
	integrityFailures prometheus.Counter

	// Bootstrap
	replans           prometheus.Counter
	replanEscalations prometheus.Counter

	// State
	phase               prometheus.Gauge
	lastValidated       prometheus.Gauge
	hostLatest          prometheus.Gauge
	checkpointIteration prometheus.Gauge
}

// New creates a Metrics instance and registers all metrics with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		headersValidated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "headers_validated_total",
			Help:      "Total headers accepted by the monitor",
		}),
		headersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "headers_rejected_total",
			Help:      "Total headers rejected, by reason",
		}, []string{"reason"}),
		updateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "update_duration_seconds",
			Help:      "Time spent in one Update call, including receipts fetches",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		receiptsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "events",
			Name:      "receipts_fetched_total",
			Help:      "Total blocks whose receipts were fetched from the host",
		}),
		eventsDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "events",
			Name:      "delivered_total",
			Help:      "Total listener callbacks invoked",
		}),
		listenerErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "events",
			Name:      "listener_errors_total",
			Help:      "Total listener callbacks that failed and were cancelled",
		}),
		integrityFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "events",
			Name:      "integrity_failures_total",
			Help:      "Total receipts sets whose root did not match the header",
		}),
		replans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "bootstrap",
			Name:      "replans_total",
			Help:      "Total bootstrap replans",
		}),
		replanEscalations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "bootstrap",
			Name:      "replan_escalations_total",
			Help:      "Total replans past the configured replan bound",
		}),
		phase: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "phase",
			Help:      "Current phase (0 bootstrap I, 1 bootstrap II, 2 sync, 3 runtime)",
		}),
		lastValidated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_validated_block",
			Help:      "Number of the last accepted header",
		}),
		hostLatest: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "host_latest_block",
			Help:      "Latest block number reported by the host",
		}),
		checkpointIteration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "checkpoint_iteration",
			Help:      "Current checkpoint iteration",
		}),
	}

	collectors := []prometheus.Collector{
		m.headersValidated, m.headersRejected, m.updateDuration,
		m.receiptsFetched, m.eventsDelivered, m.listenerErrors, m.integrityFailures,
		m.replans, m.replanEscalations,
		m.phase, m.lastValidated, m.hostLatest, m.checkpointIteration,
	}
	var errs []error
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return m, nil
}

// HeaderValidated records an accepted header.
func (m *Metrics) HeaderValidated(number uint64) {
	if m == nil {
		return
	}
	m.headersValidated.Inc()
	m.lastValidated.Set(float64(number))
}

// HeaderRejected records a rejected header under one of the Reason* labels.
func (m *Metrics) HeaderRejected(reason string) {
	if m == nil {
		return
	}
	m.headersRejected.WithLabelValues(reason).Inc()
}

// ObserveUpdate records the duration of one Update call.
func (m *Metrics) ObserveUpdate(d time.Duration) {
	if m == nil {
		return
	}
	m.updateDuration.Observe(d.Seconds())
}

func (m *Metrics) ReceiptsFetched() {
	if m == nil {
		return
	}
	m.receiptsFetched.Inc()
}

func (m *Metrics) EventDelivered() {
	if m == nil {
		return
	}
	m.eventsDelivered.Inc()
}

func (m *Metrics) ListenerError() {
	if m == nil {
		return
	}
	m.listenerErrors.Inc()
}

func (m *Metrics) IntegrityFailure() {
	if m == nil {
		return
	}
	m.integrityFailures.Inc()
}

// Replan records a bootstrap replan; escalated marks one past the bound.
func (m *Metrics) Replan(escalated bool) {
	if m == nil {
		return
	}
	m.replans.Inc()
	if escalated {
		m.replanEscalations.Inc()
	}
}

func (m *Metrics) SetPhase(p int) {
	if m == nil {
		return
	}
	m.phase.Set(float64(p))
}

func (m *Metrics) SetHostLatest(n uint64) {
	if m == nil {
		return
	}
	m.hostLatest.Set(float64(n))
}

func (m *Metrics) SetCheckpointIteration(n uint64) {
	if m == nil {
		return
	}
	m.checkpointIteration.Set(float64(n))
}
