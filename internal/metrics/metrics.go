// Package metrics wires the OTEL meter provider to a Prometheus exporter.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
)

// MetricProvider is the subset of the SDK meter provider the app needs.
type MetricProvider interface {
	Meter(name string, options ...metric.MeterOption) metric.Meter
	Shutdown(ctx context.Context) error
}

// NewMetricProvider builds a meter provider with a Prometheus reader and
// installs it as the global OTEL meter provider.
func NewMetricProvider(options ...OptionFn) MetricProvider {
	var cfg Config
	for _, opt := range options {
		cfg = opt(cfg)
	}

	promExporter, err := prometheus.New()
	if err != nil {
		panic(err)
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = os.Getenv("OTEL_SERVICE_NAME")
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
		sdkmetric.WithResource(
			resource.NewSchemaless(semconv.ServiceNameKey.String(serviceName)),
		),
	)

	otel.SetMeterProvider(meterProvider)

	return meterProvider
}

// ServePrometheusMetrics serves the /metrics scrape endpoint. Blocks.
func ServePrometheusMetrics(opt ...PromOptionFn) error {
	var cfg PromServerConfig
	var port = "9090"

	for _, o := range opt {
		cfg = o(cfg)
	}

	if cfg.port != "" {
		port = cfg.port
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}
