package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config carries the constant labels attached to protocol metrics.
type Config struct {
	ServiceName string
	Environment string
}

// ProtocolMetrics tracks the telemetry ingestion path and the prediction
// delivery protocol.
type ProtocolMetrics struct {
	readingsIngested  prometheus.Counter
	predictionsIssued prometheus.Counter
	fetches           *prometheus.CounterVec
	acknowledgements  *prometheus.CounterVec
	pendingBacklog    *prometheus.GaugeVec
	pendingBacklogAll prometheus.Gauge
	pendingOldestAge  prometheus.Gauge
}

var (
	protocolMetricsOnce sync.Once
	protocolMetrics     *ProtocolMetrics
)

// Protocol returns the process-wide protocol metrics, registering them on
// first use.
func Protocol() *ProtocolMetrics {
	return ProtocolWithConfig(Config{})
}

func ProtocolWithConfig(cfg Config) *ProtocolMetrics {
	protocolMetricsOnce.Do(func() {
		protocolMetrics = newProtocolMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return protocolMetrics
}

func ResetProtocolMetricsForTest() {
	protocolMetricsOnce = sync.Once{}
	protocolMetrics = nil
}

func newProtocolMetrics(registerer prometheus.Registerer, cfg Config) *ProtocolMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "terafarm"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	readingsIngested := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "terafarm_readings_ingested_total",
		Help:        "Total sensor readings accepted by the ingestion service.",
		ConstLabels: constLabels,
	})

	predictionsIssued := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "terafarm_predictions_issued_total",
		Help:        "Total predictions written to the ledger as pending.",
		ConstLabels: constLabels,
	})

	fetches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "terafarm_prediction_fetches_total",
			Help:        "Device fetches of the active prediction.",
			ConstLabels: constLabels,
		},
		[]string{"result"}, // hit | empty
	)

	acknowledgements := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "terafarm_prediction_acknowledgements_total",
			Help:        "Acknowledgement attempts against the prediction ledger.",
			ConstLabels: constLabels,
		},
		[]string{"result"}, // consumed | no_active
	)

	pendingBacklog := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:        "terafarm_predictions_pending",
			Help:        "Pending predictions per device, sampled periodically.",
			ConstLabels: constLabels,
		},
		[]string{"device_id"},
	)

	pendingBacklogAll := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "terafarm_predictions_pending_all",
		Help:        "Total pending predictions across all devices.",
		ConstLabels: constLabels,
	})

	pendingOldestAge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "terafarm_predictions_pending_oldest_seconds",
		Help:        "Age of the oldest pending prediction.",
		ConstLabels: constLabels,
	})

	registerer.MustRegister(
		readingsIngested,
		predictionsIssued,
		fetches,
		acknowledgements,
		pendingBacklog,
		pendingBacklogAll,
		pendingOldestAge,
	)

	return &ProtocolMetrics{
		readingsIngested:  readingsIngested,
		predictionsIssued: predictionsIssued,
		fetches:           fetches,
		acknowledgements:  acknowledgements,
		pendingBacklog:    pendingBacklog,
		pendingBacklogAll: pendingBacklogAll,
		pendingOldestAge:  pendingOldestAge,
	}
}

func (m *ProtocolMetrics) IncReadingIngested() {
	if m == nil {
		return
	}
	m.readingsIngested.Inc()
}

func (m *ProtocolMetrics) IncPredictionIssued() {
	if m == nil {
		return
	}
	m.predictionsIssued.Inc()
}

func (m *ProtocolMetrics) IncFetch(result string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(result).Inc()
}

func (m *ProtocolMetrics) IncAcknowledgement(result string) {
	if m == nil {
		return
	}
	m.acknowledgements.WithLabelValues(result).Inc()
}

func (m *ProtocolMetrics) SetPendingBacklog(deviceID string, value int) {
	if m == nil {
		return
	}
	m.pendingBacklog.WithLabelValues(deviceID).Set(float64(value))
}

func (m *ProtocolMetrics) SetPendingBacklogTotal(value int) {
	if m == nil {
		return
	}
	m.pendingBacklogAll.Set(float64(value))
}

func (m *ProtocolMetrics) SetPendingOldestAge(age time.Duration) {
	if m == nil {
		return
	}
	seconds := age.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.pendingOldestAge.Set(seconds)
}
