package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// ExpositionHandler serves the Prometheus text exposition format.
type ExpositionHandler http.Handler

// NewMeterProvider builds a meter provider whose instruments land in the
// default Prometheus registry, next to the protocol counters, so a single
// /metrics endpoint serves both.
func NewMeterProvider() (metric.MeterProvider, ExpositionHandler, error) {
	exporter, err := otelprom.New()
	if err != nil {
		return nil, nil, err
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	return provider, ExpositionHandler(promhttp.Handler()), nil
}
