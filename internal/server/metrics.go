package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/florianilch/modelcatalog/internal/catalog"
)

const metricsNamespace = "modelcatalog"

// MetricsObserver records listing requests as Prometheus metrics.
type MetricsObserver struct {
	requests *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration prometheus.Histogram
}

// Compile-time check that MetricsObserver implements Observer interface
var _ Observer = (*MetricsObserver)(nil)

// NewMetricsObserver creates a MetricsObserver and registers its collectors with reg.
func NewMetricsObserver(reg prometheus.Registerer) *MetricsObserver {
	factory := promauto.With(reg)
	return &MetricsObserver{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "listing_requests_total",
			Help:      "Model listing requests by response status code.",
		}, []string{"code"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "listing_fetch_failures_total",
			Help:      "Failed catalog lookups by catalog kind.",
		}, []string{"kind"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "listing_duration_seconds",
			Help:      "Time to assemble and write a model listing.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *MetricsObserver) RequestReceived(context.Context, *http.Request) {}

func (m *MetricsObserver) ResponseSent(_ context.Context, status int, _ http.Header, elapsed time.Duration) {
	m.requests.WithLabelValues(strconv.Itoa(status)).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *MetricsObserver) FetchFailed(_ context.Context, err error) {
	kind := "unknown"
	var fetchErr *catalog.FetchError
	if errors.As(err, &fetchErr) {
		kind = string(fetchErr.Kind)
	}
	m.failures.WithLabelValues(kind).Inc()
}

// NewMetricsRegistry returns a private registry with the Go runtime and process collectors.
func NewMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// MetricsHandler exposes the metrics gathered by reg.
func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
