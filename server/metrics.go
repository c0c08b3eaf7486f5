package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teranos/fuzzykea/enrich"
)

const metricsNamespace = "fuzzykea"

// metrics holds the server's collectors on a private registry so tests can
// build several servers in one process.
type metrics struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	runs           *prometheus.CounterVec
	runDuration    prometheus.Histogram
	rateLimited    prometheus.Counter
	reloads        *prometheus.CounterVec
	referenceEdges prometheus.Gauge
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "analysis_runs_total",
			Help:      "Enrichment runs by outcome (ok, empty, error).",
		}, []string{"outcome"}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "analysis_duration_seconds",
			Help:      "Wall time of enrichment runs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		rateLimited: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "analysis_rate_limited_total",
			Help:      "Analyze requests rejected by the rate limiter.",
		}),
		reloads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reference_reloads_total",
			Help:      "Reference reloads by result.",
		}, []string{"result"}),
		referenceEdges: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "reference_edges",
			Help:      "Kinase-substrate edges in the served dataset.",
		}),
	}
}

func (m *metrics) observeRun(out *enrich.Outcome, err error, elapsed time.Duration) {
	m.runDuration.Observe(elapsed.Seconds())
	switch {
	case err != nil:
		m.runs.WithLabelValues("error").Inc()
	case out.Empty():
		m.runs.WithLabelValues("empty").Inc()
	default:
		m.runs.WithLabelValues("ok").Inc()
	}
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
