// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const balancerYAML = `
name: ib6_balancer
browser:
  headless: false
telesero:
  base_url: https://portal.example.com
  server: "6"
output:
  format: json
  file: changes.json
`

func TestLoadFromBytes(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(balancerYAML))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}

	if cfg.Name != "ib6_balancer" {
		t.Errorf("name = %q, want %q", cfg.Name, "ib6_balancer")
	}
	if cfg.Telesero == nil {
		t.Fatal("telesero section missing")
	}
	if cfg.Telesero.Server != "6" {
		t.Errorf("server = %q, want %q", cfg.Telesero.Server, "6")
	}
}

func TestDefaultsApplied(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(balancerYAML))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}

	if cfg.Browser.WindowWidth != 1920 || cfg.Browser.WindowHeight != 1080 {
		t.Errorf("window = %dx%d, want 1920x1080", cfg.Browser.WindowWidth, cfg.Browser.WindowHeight)
	}
	if cfg.Telesero.CheckInterval != 60*time.Second {
		t.Errorf("check interval = %v, want 60s", cfg.Telesero.CheckInterval)
	}
	if cfg.Telesero.StrategyInterval != 5*time.Minute {
		t.Errorf("strategy interval = %v, want 5m", cfg.Telesero.StrategyInterval)
	}
	if cfg.Telesero.MonitorPath == "" {
		t.Error("monitor path default missing")
	}
}

func TestServerRegistryDefaults(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(balancerYAML))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}

	sc, ok := cfg.Telesero.Servers["6"]
	if !ok {
		t.Fatal("server 6 missing from registry")
	}
	if sc.Type != ServerTypeGMB {
		t.Errorf("server 6 type = %q, want GMB", sc.Type)
	}
	if sc.FronterCampaign != "220" || sc.CloserCampaign != "210" {
		t.Errorf("server 6 campaigns = %s/%s, want 220/210", sc.FronterCampaign, sc.CloserCampaign)
	}

	if sc, ok := cfg.Telesero.Servers["10"]; !ok || sc.Campaign != "990" {
		t.Error("server 10 should map to campaign 990")
	}
}

func TestGMBThresholdDefaults(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(balancerYAML))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}

	th := cfg.Telesero.Thresholds
	if th == nil {
		t.Fatal("thresholds default missing")
	}
	if th.ConversionRate != 0.50 {
		t.Errorf("conversion threshold = %v, want 0.50", th.ConversionRate)
	}
	if th.ContactCount != 400 {
		t.Errorf("contact count gate = %d, want 400", th.ContactCount)
	}
}

func TestServerOverride(t *testing.T) {
	yaml := `
name: custom
browser: {}
telesero:
  base_url: https://portal.example.com
  server: "12"
  servers:
    "12":
      type: OSD
      campaign: "333"
output:
  format: json
  file: out
`
	cfg, err := LoadFromBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}
	if sc := cfg.Telesero.Servers["12"]; sc == nil || sc.Campaign != "333" {
		t.Error("custom server 12 not merged into registry")
	}
	// Built-ins survive alongside overrides.
	if _, ok := cfg.Telesero.Servers["5"]; !ok {
		t.Error("built-in server 5 lost after merge")
	}
}

func TestEnvExpansion(t *testing.T) {
	os.Setenv("TEST_PORTAL_URL", "https://portal.example.com")
	defer os.Unsetenv("TEST_PORTAL_URL")

	yaml := strings.Replace(balancerYAML, "https://portal.example.com", "${TEST_PORTAL_URL}", 1)
	cfg, err := LoadFromBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}
	if cfg.Telesero.BaseURL != "https://portal.example.com" {
		t.Errorf("base_url = %q, env var not expanded", cfg.Telesero.BaseURL)
	}
}

func TestValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			"missing name",
			`
browser: {}
telesero:
  base_url: https://x.example.com
  server: "5"
output: {format: json, file: out}
`,
		},
		{
			"no job section",
			`
name: empty
browser: {}
output: {format: json, file: out}
`,
		},
		{
			"unknown server",
			`
name: x
browser: {}
telesero:
  base_url: https://x.example.com
  server: "99"
output: {format: json, file: out}
`,
		},
		{
			"bad output format",
			`
name: x
browser: {}
telesero:
  base_url: https://x.example.com
  server: "5"
output: {format: parquet, file: out}
`,
		},
		{
			"database format without dsn",
			`
name: x
browser: {}
telesero:
  base_url: https://x.example.com
  server: "5"
output: {format: postgres}
`,
		},
		{
			"zoom without login url",
			`
name: x
browser: {}
zoom:
  contact_center_url: https://zoom.example.com/admin
output: {format: json, file: out}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFromBytes([]byte(tt.yaml)); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestGenerateTemplateRoundTrip(t *testing.T) {
	for _, kind := range []string{"balancer", "dnc"} {
		t.Run(kind, func(t *testing.T) {
			tmpl := GenerateTemplate(kind)

			path := filepath.Join(t.TempDir(), kind+".yaml")
			if err := SaveToFile(&tmpl, path); err != nil {
				t.Fatalf("SaveToFile failed: %v", err)
			}

			loaded, err := LoadFromFile(path)
			if err != nil {
				t.Fatalf("template for %q does not load: %v", kind, err)
			}
			if loaded.Name == "" {
				t.Error("template lost its name on round trip")
			}
		})
	}
}

func TestServerLoginPrefix(t *testing.T) {
	tests := []struct {
		server string
		want   string
	}{
		{"5", "IB5"},
		{"6", "IB6"},
		{"A", "IBA"},
		{"10", "I10"},
		{"11", "I11"},
	}
	for _, tt := range tests {
		if got := ServerLoginPrefix(tt.server); got != tt.want {
			t.Errorf("ServerLoginPrefix(%q) = %q, want %q", tt.server, got, tt.want)
		}
	}
}

func TestTeleseroCredentials(t *testing.T) {
	os.Setenv(EnvTeleseroUsername, "TOBOR")
	os.Setenv(EnvTeleseroPassword, "secret")
	defer os.Unsetenv(EnvTeleseroUsername)
	defer os.Unsetenv(EnvTeleseroPassword)

	creds, err := TeleseroCredentials("6", nil)
	if err != nil {
		t.Fatalf("TeleseroCredentials failed: %v", err)
	}
	if creds.Username != `IB6\TOBOR` {
		t.Errorf("username = %q, want %q", creds.Username, `IB6\TOBOR`)
	}

	os.Unsetenv(EnvTeleseroPassword)
	if _, err := TeleseroCredentials("6", nil); err == nil {
		t.Error("expected error with missing password env")
	}
}
