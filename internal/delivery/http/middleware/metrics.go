package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "waitlist"
	subsystemRequest = "http_request"
	unmatchedRoute   = "unmatched"
)

// HTTPMetrics records request counts and latencies per route pattern.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewHTTPMetrics creates the request collectors and registers them with reg.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	fieldKeys := []string{"method", "route", "status"}
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystemRequest,
			Name:      "count",
			Help:      "Number of requests received",
		}, fieldKeys),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystemRequest,
			Name:      "latency_seconds",
			Help:      "Total duration of requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, fieldKeys),
	}
	reg.MustRegister(m.requests, m.latency)
	return m
}

// Instrument wraps a ServeMux. The route label is the matched mux pattern so
// path parameters do not explode label cardinality.
func (m *HTTPMetrics) Instrument(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		begin := time.Now()
		wrapped := wrapResponseWriter(w)
		_, pattern := mux.Handler(r)
		if pattern == "" {
			pattern = unmatchedRoute
		}

		mux.ServeHTTP(wrapped, r)

		status := strconv.Itoa(wrapped.status)
		m.requests.WithLabelValues(r.Method, pattern, status).Inc()
		m.latency.WithLabelValues(r.Method, pattern, status).Observe(time.Since(begin).Seconds())
	})
}
