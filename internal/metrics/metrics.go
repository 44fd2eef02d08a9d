// Package metrics exposes Prometheus instrumentation for the form server
// and the batch renderer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	DocumentsTotal      *prometheus.CounterVec
	RenderDuration      *prometheus.HistogramVec
	PhotosTotal         *prometheus.CounterVec
	SessionsActive      prometheus.Gauge
}

// New registers every collector with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "photoform_http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "photoform_http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		DocumentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "photoform_documents_total",
				Help: "Total number of rendered documents.",
			},
			[]string{"format", "status"},
		),
		RenderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "photoform_render_duration_seconds",
				Help:    "Duration of document rendering.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"format"},
		),
		PhotosTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "photoform_photos_total",
				Help: "Total number of photo attach attempts.",
			},
			[]string{"source", "status"},
		),
		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "photoform_sessions_active",
				Help: "Current number of form sessions held in memory.",
			},
		),
	}
}

func status(err error) string {
	if err != nil {
		return StatusFailure
	}
	return StatusSuccess
}

// ObserveRender records one document render
func (m *Metrics) ObserveRender(format string, start time.Time, err error) {
	m.RenderDuration.WithLabelValues(format).Observe(time.Since(start).Seconds())
	m.DocumentsTotal.WithLabelValues(format, status(err)).Inc()
}

// ObservePhoto records one attach attempt
func (m *Metrics) ObservePhoto(source string, err error) {
	m.PhotosTotal.WithLabelValues(source, status(err)).Inc()
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request counts and durations. Requests are labeled by
// the ServeMux pattern that matched so IDs in paths do not add series.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)
		duration := time.Since(start)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		code := strconv.Itoa(rw.statusCode)

		m.HTTPRequestDuration.WithLabelValues(r.Method, path, code).Observe(duration.Seconds())
		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, code).Inc()
	})
}
