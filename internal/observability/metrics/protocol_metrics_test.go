package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestProtocolMetrics(t *testing.T) *ProtocolMetrics {
	t.Helper()
	return newProtocolMetrics(prometheus.NewRegistry(), Config{
		ServiceName: "terafarm-test",
		Environment: "test",
	})
}

func TestProtocolCounters(t *testing.T) {
	m := newTestProtocolMetrics(t)

	m.IncReadingIngested()
	m.IncReadingIngested()
	m.IncPredictionIssued()
	m.IncFetch("hit")
	m.IncFetch("empty")
	m.IncFetch("empty")
	m.IncAcknowledgement("consumed")
	m.IncAcknowledgement("no_active")

	if got := testutil.ToFloat64(m.readingsIngested); got != 2 {
		t.Fatalf("readings ingested: expected 2, got %v", got)
	}
	if got := testutil.ToFloat64(m.predictionsIssued); got != 1 {
		t.Fatalf("predictions issued: expected 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.fetches.WithLabelValues("empty")); got != 2 {
		t.Fatalf("empty fetches: expected 2, got %v", got)
	}
	if got := testutil.ToFloat64(m.acknowledgements.WithLabelValues("consumed")); got != 1 {
		t.Fatalf("consumed acknowledgements: expected 1, got %v", got)
	}
}

func TestProtocolBacklogGauges(t *testing.T) {
	m := newTestProtocolMetrics(t)

	m.SetPendingBacklog("pump-1", 3)
	m.SetPendingBacklogTotal(5)
	m.SetPendingOldestAge(90 * time.Second)

	if got := testutil.ToFloat64(m.pendingBacklog.WithLabelValues("pump-1")); got != 3 {
		t.Fatalf("pending backlog: expected 3, got %v", got)
	}
	if got := testutil.ToFloat64(m.pendingBacklogAll); got != 5 {
		t.Fatalf("pending backlog total: expected 5, got %v", got)
	}
	if got := testutil.ToFloat64(m.pendingOldestAge); got != 90 {
		t.Fatalf("oldest age: expected 90, got %v", got)
	}
}

func TestProtocolOldestAgeClampsNegative(t *testing.T) {
	m := newTestProtocolMetrics(t)

	m.SetPendingOldestAge(-time.Minute)
	if got := testutil.ToFloat64(m.pendingOldestAge); got != 0 {
		t.Fatalf("expected negative age clamped to 0, got %v", got)
	}
}

func TestProtocolMetricsNilReceiverIsSafe(t *testing.T) {
	var m *ProtocolMetrics

	m.IncReadingIngested()
	m.IncPredictionIssued()
	m.IncFetch("hit")
	m.IncAcknowledgement("consumed")
	m.SetPendingBacklog("pump-1", 1)
	m.SetPendingBacklogTotal(1)
	m.SetPendingOldestAge(time.Second)
}
