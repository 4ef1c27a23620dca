package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func scrape(t *testing.T) []byte {
	t.Helper()
	mrr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(mrr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if mrr.Code != http.StatusOK {
		t.Fatalf("/metrics status=%d", mrr.Code)
	}
	return mrr.Body.Bytes()
}

func preview(b []byte) string {
	if len(b) > 400 {
		b = b[:400]
	}
	return string(b)
}

// TestMetricsMiddleware_EmitsRequestCounters verifies that wrapping a handler
// with MetricsMiddleware results in request metrics being exposed via the
// Prometheus /metrics handler.
func TestMetricsMiddleware_EmitsRequestCounters(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	MetricsMiddleware(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))
	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status 418, got %d", rr.Code)
	}

	body := scrape(t)
	if !bytes.Contains(body, []byte("klipperwatch_http_requests_total")) || !bytes.Contains(body, []byte(`status="418"`)) {
		t.Fatalf("expected klipperwatch_http_requests_total with status 418; got: %q", preview(body))
	}
}

func TestMonitorRequestsCounted(t *testing.T) {
	r := NewMux(newMockService())
	do(t, r, http.MethodPost, "/monitors/m1")
	do(t, r, http.MethodDelete, "/monitors/m1")

	body := scrape(t)
	for _, want := range []string{`klipperwatch_http_monitor_requests_total{result="started"}`, `klipperwatch_http_monitor_requests_total{result="stopped"}`} {
		if !bytes.Contains(body, []byte(want)) {
			t.Fatalf("missing %s in metrics", want)
		}
	}
}
