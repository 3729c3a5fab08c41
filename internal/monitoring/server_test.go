// internal/monitoring/server_test.go
package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// One instrument set per test binary; promauto registers on the
// default registry.
var testMetrics = NewMetrics(MetricsConfig{})

func TestHealthEndpoint(t *testing.T) {
	s := NewServer(":0", "test_job", "dev", nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /healthz = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("body = %q, want ok", rec.Body.String())
	}
}

func TestStatusEndpoint(t *testing.T) {
	s := NewServer(":0", "ib6_balancer", "1.2.3", nil)
	s.SetDetail("server", "6")

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /status = %d, want 200", rec.Code)
	}

	var status Status
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if status.Name != "ib6_balancer" {
		t.Errorf("name = %q, want ib6_balancer", status.Name)
	}
	if status.Version != "1.2.3" {
		t.Errorf("version = %q, want 1.2.3", status.Version)
	}
	if status.Details["server"] != "6" {
		t.Errorf("details[server] = %q, want 6", status.Details["server"])
	}
	if status.Goroutines <= 0 {
		t.Errorf("goroutines = %d, want > 0", status.Goroutines)
	}
}

func TestStatusRejectsPost(t *testing.T) {
	s := NewServer(":0", "test_job", "dev", nil)

	req := httptest.NewRequest(http.MethodPost, "/status", nil)
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /status = %d, want 405", rec.Code)
	}
}

func TestMetricsEndpointServesInstruments(t *testing.T) {
	testMetrics.RecordDNCNumber("contact_center", true)

	s := NewServer(":0", "test_job", "dev", nil)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "chromepuppet_dnc_numbers_total") {
		t.Error("metrics output missing chromepuppet_dnc_numbers_total")
	}
}

func TestOutcomeCounters(t *testing.T) {
	testMetrics.RecordLogin("telesero", true)
	testMetrics.RecordLogin("telesero", true)
	testMetrics.RecordLogin("telesero", false)

	success := testutil.ToFloat64(testMetrics.loginAttempts.WithLabelValues("telesero", "success"))
	failure := testutil.ToFloat64(testMetrics.loginAttempts.WithLabelValues("telesero", "failure"))
	if success != 2 {
		t.Errorf("success logins = %v, want 2", success)
	}
	if failure != 1 {
		t.Errorf("failure logins = %v, want 1", failure)
	}

	testMetrics.SetQueueDepth("6", 4)
	if depth := testutil.ToFloat64(testMetrics.queueDepth.WithLabelValues("6")); depth != 4 {
		t.Errorf("queue depth = %v, want 4", depth)
	}
}
