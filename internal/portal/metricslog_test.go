// internal/portal/metricslog_test.go
package portal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestMetricsLogAppend(t *testing.T) {
	dir := t.TempDir()
	log := NewMetricsLog(dir, "6", nil)
	now := time.Date(2026, 8, 27, 10, 30, 0, 0, time.UTC)

	m := &ListMetrics{ListID: "4417", Contacts: 120, IsActive: true}
	if err := log.Append("GMB", "4417", SourceDashboard, m, now); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := log.Append("GMB", "4399", SourceDashboard, &ListMetrics{ListID: "4399"}, now); err != nil {
		t.Fatalf("second Append failed: %v", err)
	}

	path := filepath.Join(dir, "IB6", "2026-08-27", "dashboard_metrics_2026-08-27.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}

	var entries []struct {
		ServerID   string `json:"server_id"`
		ServerType string `json:"server_type"`
		ListID     string `json:"list_id"`
		Source     string `json:"source"`
		Metrics    struct {
			Contacts int `json:"contact_count"`
		} `json:"metrics"`
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("log file not valid JSON: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	first := entries[0]
	if first.ServerID != "6" || first.ServerType != "GMB" || first.ListID != "4417" || first.Source != "dashboard" {
		t.Errorf("unexpected entry: %+v", first)
	}
	if first.Metrics.Contacts != 120 {
		t.Errorf("metrics payload lost: %+v", first.Metrics)
	}
}

func TestMetricsLogRecoversFromCorruptFile(t *testing.T) {
	dir := t.TempDir()
	log := NewMetricsLog(dir, "10", nil)
	now := time.Date(2026, 8, 27, 10, 30, 0, 0, time.UTC)

	path, err := log.FilePath(SourceStrategy, now)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := log.Append("OSD", "4417", SourceStrategy, &StrategyRow{ListID: "4417"}, now); err != nil {
		t.Fatalf("Append over corrupt file failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("rewritten file not valid JSON: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d entries, want 1", len(entries))
	}
}
