// internal/config/config.go
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("configuration filename cannot be empty")
	}

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", filename)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from YAML bytes
func LoadFromBytes(data []byte) (*Config, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("configuration data cannot be empty")
	}

	// Substitute environment variables before parsing
	expandedData := expandEnvironmentVariables(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadFromReader loads configuration from an io.Reader
func LoadFromReader(reader io.Reader) (*Config, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read from reader: %w", err)
	}

	return LoadFromBytes(data)
}

// SaveToFile saves configuration to a YAML file
func SaveToFile(config *Config, filename string) error {
	if config == nil {
		return fmt.Errorf("configuration cannot be nil")
	}

	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}

	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	return nil
}

// GenerateTemplate generates a starter configuration for the specified
// job type ("balancer" or "dnc").
func GenerateTemplate(templateType string) Config {
	switch strings.ToLower(templateType) {
	case "dnc":
		return generateDNCTemplate()
	case "balancer":
		return generateBalancerTemplate()
	default:
		return generateBalancerTemplate()
	}
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Path, ve.Message)
}

// expandEnvironmentVariables substitutes ${VAR} references in the
// configuration text
func expandEnvironmentVariables(content string) string {
	return os.ExpandEnv(content)
}

// applyDefaults applies default values to the configuration
func applyDefaults(config *Config) {
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogDir == "" {
		config.LogDir = "logs"
	}

	if config.Browser.WindowWidth == 0 {
		config.Browser.WindowWidth = 1920
	}
	if config.Browser.WindowHeight == 0 {
		config.Browser.WindowHeight = 1080
	}
	if config.Browser.NavTimeout == 0 {
		config.Browser.NavTimeout = 30 * time.Second
	}
	if config.Browser.WaitTimeout == 0 {
		config.Browser.WaitTimeout = 10 * time.Second
	}
	if config.Browser.ScreenshotDir == "" {
		config.Browser.ScreenshotDir = "screenshots"
	}

	if config.Output.Format == "" {
		config.Output.Format = "json"
	}
	if config.Output.Database != nil && config.Output.Database.BatchSize == 0 {
		config.Output.Database.BatchSize = 100
	}

	if config.Telesero != nil {
		applyTeleseroDefaults(config.Telesero)
	}

	if config.Zoom != nil {
		applyZoomDefaults(config.Zoom)
	}

	if config.Monitoring != nil && config.Monitoring.Address == "" {
		config.Monitoring.Address = ":9090"
	}
}

func applyTeleseroDefaults(tc *TeleseroConfig) {
	if tc.MonitorPath == "" {
		tc.MonitorPath = "/contact-center/monitoring/"
	}
	if tc.StrategyPath == "" {
		tc.StrategyPath = "/dialing/strategy/manage"
	}
	if tc.CheckInterval == 0 {
		tc.CheckInterval = 60 * time.Second
	}
	if tc.StrategyInterval == 0 {
		tc.StrategyInterval = 5 * time.Minute
	}
	if tc.MetricsLogDir == "" {
		tc.MetricsLogDir = "metrics_logs"
	}

	// Built-in registry first, YAML entries override per server.
	servers := DefaultServers()
	for id, sc := range tc.Servers {
		servers[id] = sc
	}
	tc.Servers = servers

	if tc.Thresholds == nil {
		serverType := ServerTypeOSD
		if sc, ok := tc.Servers[tc.Server]; ok {
			serverType = sc.Type
		}
		t := DefaultThresholds(serverType)
		tc.Thresholds = &t
	}
	if tc.Thresholds.RestTime == 0 {
		tc.Thresholds.RestTime = 60 * time.Second
	}
}

func applyZoomDefaults(zc *ZoomConfig) {
	if zc.Target == "" {
		zc.Target = ZoomTargetContactCenter
	}
	if zc.WaitTimeout == 0 {
		zc.WaitTimeout = 15 * time.Second
	}
	if zc.MaxRetries == 0 {
		zc.MaxRetries = 3
	}
	if zc.RateLimit == nil {
		zc.RateLimit = &RateLimitConfig{MaxRequests: 10, Period: time.Minute}
	}
	if zc.Workers == 0 {
		zc.Workers = 1
	}
}

// Template generation functions

func generateBalancerTemplate() Config {
	thresholds := DefaultThresholds(ServerTypeGMB)
	return Config{
		Name:     "list_balancer",
		LogLevel: "info",
		Browser: BrowserConfig{
			Headless:     false,
			WindowWidth:  1920,
			WindowHeight: 1080,
		},
		Telesero: &TeleseroConfig{
			BaseURL:       "https://portal.teleserosuite.com",
			Server:        "6",
			Thresholds:    &thresholds,
			CheckInterval: 60 * time.Second,
		},
		Output: OutputConfig{
			Format: "json",
			File:   "changes.json",
		},
		Monitoring: &MonitoringConfig{
			Enabled: true,
			Address: ":9090",
		},
	}
}

func generateDNCTemplate() Config {
	return Config{
		Name:     "zoom_dnc",
		LogLevel: "info",
		Browser: BrowserConfig{
			Headless:     false,
			WindowWidth:  1920,
			WindowHeight: 1080,
		},
		Zoom: &ZoomConfig{
			LoginURL:         "https://zoom.us/signin",
			ContactCenterURL: "https://zoom.us/cci/preference/account-settings",
			Target:           ZoomTargetContactCenter,
			NumbersFile:      "numbers.txt",
			MaxRetries:       3,
			RateLimit:        &RateLimitConfig{MaxRequests: 10, Period: time.Minute},
			Workers:          1,
		},
		Output: OutputConfig{
			Format: "csv",
			File:   "dnc_results.csv",
		},
	}
}
