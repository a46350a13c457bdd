package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tradesnap"

// Collector exposes Prometheus metrics for inbound HTTP requests and the
// analysis pipeline.
type Collector struct {
	registry           *prometheus.Registry
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	llmCalls           *prometheus.CounterVec
	llmLatency         *prometheus.HistogramVec
	validationFailures *prometheus.CounterVec
	recordsPersisted   *prometheus.CounterVec
	recordsDropped     *prometheus.CounterVec
}

// NewCollector constructs a collector on a private registry.
func NewCollector() (*Collector, error) {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency distribution for inbound HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of inbound HTTP requests.",
		}, []string{"method", "path", "status"}),
		llmCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Language model calls by provider, operation and outcome.",
		}, []string{"provider", "operation", "status"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "Latency distribution for language model calls.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 90},
		}, []string{"provider", "operation"}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "validation_failures_total",
			Help:      "Model responses rejected for missing required sections.",
		}, []string{"kind"}),
		recordsPersisted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "records_persisted_total",
			Help:      "Analysis records written to the store.",
		}, []string{"type"}),
		recordsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "records_dropped_total",
			Help:      "Analysis records whose create failed.",
		}, []string{"type"}),
	}

	for _, collector := range []prometheus.Collector{
		c.requestDuration,
		c.requestTotal,
		c.llmCalls,
		c.llmLatency,
		c.validationFailures,
		c.recordsPersisted,
		c.recordsDropped,
	} {
		if err := c.registry.Register(collector); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := routeLabel(r.URL.Path)

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

// LLMCall records one provider call.
func (c *Collector) LLMCall(provider, operation string, latency time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.llmCalls.WithLabelValues(provider, operation, status).Inc()
	c.llmLatency.WithLabelValues(provider, operation).Observe(latency.Seconds())
}

// ValidationFailure records a rejected model response.
func (c *Collector) ValidationFailure(kind string) {
	c.validationFailures.WithLabelValues(kind).Inc()
}

// RecordPersisted records a successful create.
func (c *Collector) RecordPersisted(analysisType string) {
	c.recordsPersisted.WithLabelValues(analysisType).Inc()
}

// RecordDropped records a failed create.
func (c *Collector) RecordDropped(analysisType string) {
	c.recordsDropped.WithLabelValues(analysisType).Inc()
}

// routeLabel collapses record ids so each route is a single series.
func routeLabel(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		if _, err := uuid.Parse(s); err == nil {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
