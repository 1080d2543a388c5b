package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.HeaderValidated(1)
	m.HeaderRejected(ReasonParse)
	m.ObserveUpdate(time.Second)
	m.ReceiptsFetched()
	m.EventDelivered()
	m.ListenerError()
	m.IntegrityFailure()
	m.Replan(true)
	m.SetPhase(3)
	m.SetHostLatest(10)
	m.SetCheckpointIteration(2)
}

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	m.HeaderValidated(101)
	m.HeaderValidated(102)
	m.HeaderRejected(ReasonValidation)
	m.Replan(false)
	m.Replan(true)
	m.SetPhase(2)
	m.EventDelivered()

	if got := testutil.ToFloat64(m.headersValidated); got != 2 {
		t.Fatalf("headers validated = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.lastValidated); got != 102 {
		t.Fatalf("last validated = %v, want 102", got)
	}
	if got := testutil.ToFloat64(m.headersRejected.WithLabelValues(ReasonValidation)); got != 1 {
		t.Fatalf("rejected{validation} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.replans); got != 2 {
		t.Fatalf("replans = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.replanEscalations); got != 1 {
		t.Fatalf("escalations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.phase); got != 2 {
		t.Fatalf("phase = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.eventsDelivered); got != 1 {
		t.Fatalf("delivered = %v, want 1", got)
	}
}

func TestNewTwiceOnSameRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New(reg); err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := New(reg); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}
