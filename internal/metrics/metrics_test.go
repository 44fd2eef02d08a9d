package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if matches(m, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func matches(m *dto.Metric, labels map[string]string) bool {
	found := 0
	for _, lp := range m.GetLabel() {
		if want, ok := labels[lp.GetName()]; ok {
			if want != lp.GetValue() {
				return false
			}
			found++
		}
	}
	return found == len(labels)
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	handler := m.Middleware(mux)

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id, nil))
	}

	got := counterValue(t, reg, "photoform_http_requests_total", map[string]string{
		"method": "GET",
		"path":   "GET /api/sessions/{id}",
		"status": "404",
	})
	if got != 3 {
		t.Errorf("Expected 3 requests under one pattern, got %v", got)
	}
}

func TestObserveRender(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRender("pdf", time.Now(), nil)
	m.ObserveRender("pdf", time.Now(), errors.New("boom"))
	m.ObserveRender("xlsx", time.Now(), nil)

	tests := []struct {
		format, status string
		expected       float64
	}{
		{"pdf", StatusSuccess, 1},
		{"pdf", StatusFailure, 1},
		{"xlsx", StatusSuccess, 1},
		{"xlsx", StatusFailure, 0},
	}

	for _, tt := range tests {
		got := counterValue(t, reg, "photoform_documents_total", map[string]string{"format": tt.format, "status": tt.status})
		if got != tt.expected {
			t.Errorf("Expected %v for %s/%s, got %v", tt.expected, tt.format, tt.status, got)
		}
	}
}

func TestObservePhoto(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObservePhoto("camera", nil)
	m.ObservePhoto("camera", nil)
	m.ObservePhoto("upload", errors.New("decode"))

	if got := counterValue(t, reg, "photoform_photos_total", map[string]string{"source": "camera", "status": StatusSuccess}); got != 2 {
		t.Errorf("Expected 2 camera successes, got %v", got)
	}
	if got := counterValue(t, reg, "photoform_photos_total", map[string]string{"source": "upload", "status": StatusFailure}); got != 1 {
		t.Errorf("Expected 1 upload failure, got %v", got)
	}
}
