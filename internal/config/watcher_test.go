// internal/config/watcher_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const watcherConfigV1 = `
name: ib6_balancer
telesero:
  base_url: https://portal.example.com
  server: "6"
  thresholds:
    conversion_rate: 0.50
`

const watcherConfigV2 = `
name: ib6_balancer
telesero:
  base_url: https://portal.example.com
  server: "6"
  thresholds:
    conversion_rate: 0.75
`

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.yaml")
	if err := os.WriteFile(path, []byte(watcherConfigV1), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	reloaded := make(chan *Config, 4)
	w.OnChange(func(cfg *Config) { reloaded <- cfg })

	if err := os.WriteFile(path, []byte(watcherConfigV2), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Telesero == nil || cfg.Telesero.Thresholds == nil {
			t.Fatal("reloaded config missing thresholds")
		}
		if got := cfg.Telesero.Thresholds.ConversionRate; got != 0.75 {
			t.Errorf("conversion_rate = %v, want 0.75", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after config write")
	}
}

func TestWatcherIgnoresInvalidEdit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.yaml")
	if err := os.WriteFile(path, []byte(watcherConfigV1), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	reloaded := make(chan *Config, 4)
	w.OnChange(func(cfg *Config) { reloaded <- cfg })

	// Broken YAML must not reach the callbacks.
	if err := os.WriteFile(path, []byte("name: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		t.Fatalf("invalid config delivered: %+v", cfg)
	case <-time.After(500 * time.Millisecond):
	}
}
