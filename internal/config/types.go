// internal/config/types.go
package config

import (
	"time"
)

// Config is the root configuration for a chromepuppet job.
type Config struct {
	Name     string `yaml:"name" json:"name"`
	Version  string `yaml:"version,omitempty" json:"version,omitempty"`
	LogLevel string `yaml:"log_level,omitempty" json:"log_level,omitempty"`
	LogDir   string `yaml:"log_dir,omitempty" json:"log_dir,omitempty"`

	Browser    BrowserConfig     `yaml:"browser" json:"browser"`
	Telesero   *TeleseroConfig   `yaml:"telesero,omitempty" json:"telesero,omitempty"`
	Zoom       *ZoomConfig       `yaml:"zoom,omitempty" json:"zoom,omitempty"`
	Output     OutputConfig      `yaml:"output" json:"output"`
	Monitoring *MonitoringConfig `yaml:"monitoring,omitempty" json:"monitoring,omitempty"`
}

// BrowserConfig controls the Chrome session.
type BrowserConfig struct {
	Headless      bool          `yaml:"headless" json:"headless"`
	WindowWidth   int           `yaml:"window_width,omitempty" json:"window_width,omitempty"`
	WindowHeight  int           `yaml:"window_height,omitempty" json:"window_height,omitempty"`
	UserAgent     string        `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
	ChromePath    string        `yaml:"chrome_path,omitempty" json:"chrome_path,omitempty"`
	UserDataDir   string        `yaml:"user_data_dir,omitempty" json:"user_data_dir,omitempty"`
	Profile       string        `yaml:"profile,omitempty" json:"profile,omitempty"`
	DownloadDir   string        `yaml:"download_dir,omitempty" json:"download_dir,omitempty"`
	ScreenshotDir string        `yaml:"screenshot_dir,omitempty" json:"screenshot_dir,omitempty"`
	DisableImages bool          `yaml:"disable_images,omitempty" json:"disable_images,omitempty"`
	NavTimeout    time.Duration `yaml:"nav_timeout,omitempty" json:"nav_timeout,omitempty"`
	WaitTimeout   time.Duration `yaml:"wait_timeout,omitempty" json:"wait_timeout,omitempty"`
}

// TeleseroConfig configures the list balancer against the dialer portal.
type TeleseroConfig struct {
	BaseURL          string                   `yaml:"base_url" json:"base_url"`
	MonitorPath      string                   `yaml:"monitor_path,omitempty" json:"monitor_path,omitempty"`
	StrategyPath     string                   `yaml:"strategy_path,omitempty" json:"strategy_path,omitempty"`
	Server           string                   `yaml:"server" json:"server"`
	Servers          map[string]*ServerConfig `yaml:"servers,omitempty" json:"servers,omitempty"`
	Thresholds       *ThresholdsConfig        `yaml:"thresholds,omitempty" json:"thresholds,omitempty"`
	CheckInterval    time.Duration            `yaml:"check_interval,omitempty" json:"check_interval,omitempty"`
	StrategyInterval time.Duration            `yaml:"strategy_interval,omitempty" json:"strategy_interval,omitempty"`
	IgnoreFile       string                   `yaml:"ignore_file,omitempty" json:"ignore_file,omitempty"`
	IgnoreLists      []string                 `yaml:"ignore_lists,omitempty" json:"ignore_lists,omitempty"`
	MetricsLogDir    string                   `yaml:"metrics_log_dir,omitempty" json:"metrics_log_dir,omitempty"`
	Queue            []string                 `yaml:"queue,omitempty" json:"queue,omitempty"`
}

// ServerConfig describes one dialer server and its campaigns.
type ServerConfig struct {
	Type            string   `yaml:"type" json:"type"`
	Campaign        string   `yaml:"campaign,omitempty" json:"campaign,omitempty"`
	FronterCampaign string   `yaml:"fronter_campaign,omitempty" json:"fronter_campaign,omitempty"`
	CloserCampaign  string   `yaml:"closer_campaign,omitempty" json:"closer_campaign,omitempty"`
	AgentPrefixes   []string `yaml:"agent_prefixes,omitempty" json:"agent_prefixes,omitempty"`
	FronterPrefixes []string `yaml:"fronter_prefixes,omitempty" json:"fronter_prefixes,omitempty"`
	CloserPrefixes  []string `yaml:"closer_prefixes,omitempty" json:"closer_prefixes,omitempty"`
	UsernameEnv     string   `yaml:"username_env,omitempty" json:"username_env,omitempty"`
	PasswordEnv     string   `yaml:"password_env,omitempty" json:"password_env,omitempty"`
}

// Server types recognized in ServerConfig.Type.
const (
	ServerTypeOSD = "OSD" // Outbound Single Dialer
	ServerTypeGMB = "GMB" // Guided Manual Blending
)

// IsMultiCampaign reports whether the server runs a fronter/closer pair.
func (s *ServerConfig) IsMultiCampaign() bool {
	return s.Type == ServerTypeGMB
}

// ThresholdsConfig carries the per-list performance gates.
type ThresholdsConfig struct {
	ConversionRate   float64       `yaml:"conversion_rate" json:"conversion_rate"`
	ContactCount     int           `yaml:"contact_count" json:"contact_count"`
	ContactRate      float64       `yaml:"contact_rate" json:"contact_rate"`
	ContactRateCount int           `yaml:"contact_rate_count" json:"contact_rate_count"`
	RestTime         time.Duration `yaml:"rest_time" json:"rest_time"`
}

// ZoomConfig configures the Zoom DNC flows.
type ZoomConfig struct {
	LoginURL         string           `yaml:"login_url" json:"login_url"`
	ContactCenterURL string           `yaml:"contact_center_url,omitempty" json:"contact_center_url,omitempty"`
	WorkplaceURL     string           `yaml:"workplace_url,omitempty" json:"workplace_url,omitempty"`
	Target           string           `yaml:"target,omitempty" json:"target,omitempty"`
	NumbersFile      string           `yaml:"numbers_file,omitempty" json:"numbers_file,omitempty"`
	WaitTimeout      time.Duration    `yaml:"wait_timeout,omitempty" json:"wait_timeout,omitempty"`
	MaxRetries       int              `yaml:"max_retries,omitempty" json:"max_retries,omitempty"`
	RateLimit        *RateLimitConfig `yaml:"rate_limit,omitempty" json:"rate_limit,omitempty"`

	// Workers is how many browser sessions a batch run drives in
	// parallel. Each worker signs in separately.
	Workers int `yaml:"workers,omitempty" json:"workers,omitempty"`
}

// DNC targets recognized in ZoomConfig.Target.
const (
	ZoomTargetContactCenter = "contact_center"
	ZoomTargetWorkplace     = "workplace"
)

// RateLimitConfig throttles form submissions.
type RateLimitConfig struct {
	MaxRequests int           `yaml:"max_requests" json:"max_requests"`
	Period      time.Duration `yaml:"period" json:"period"`
}

// OutputConfig selects where run records and metric logs go.
type OutputConfig struct {
	Format   string          `yaml:"format" json:"format"`
	File     string          `yaml:"file,omitempty" json:"file,omitempty"`
	Database *DatabaseConfig `yaml:"database,omitempty" json:"database,omitempty"`
}

// DatabaseConfig configures a database-backed output.
type DatabaseConfig struct {
	DSN       string `yaml:"dsn" json:"dsn"`
	Database  string `yaml:"database,omitempty" json:"database,omitempty"`
	Table     string `yaml:"table,omitempty" json:"table,omitempty"`
	BatchSize int    `yaml:"batch_size,omitempty" json:"batch_size,omitempty"`
}

// MonitoringConfig configures the metrics/status HTTP server.
type MonitoringConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Address string `yaml:"address,omitempty" json:"address,omitempty"`
}

// DefaultThresholds returns the stock performance gates for a server type.
// GMB conversion is the fronter-to-closer transfer rate, so its floor sits
// higher than the OSD sale-conversion floor.
func DefaultThresholds(serverType string) ThresholdsConfig {
	if serverType == ServerTypeGMB {
		return ThresholdsConfig{
			ConversionRate:   0.50,
			ContactCount:     400,
			ContactRate:      10.0,
			ContactRateCount: 80,
			RestTime:         60 * time.Second,
		}
	}
	return ThresholdsConfig{
		ConversionRate:   0.20,
		ContactCount:     500,
		ContactRate:      7.0,
		ContactRateCount: 100,
		RestTime:         60 * time.Second,
	}
}

// DefaultServers returns the built-in dialer server registry. Entries can
// be overridden or extended through the servers map in YAML.
func DefaultServers() map[string]*ServerConfig {
	return map[string]*ServerConfig{
		"5": {Type: ServerTypeOSD, Campaign: "1600"},
		"6": {
			Type:            ServerTypeGMB,
			FronterCampaign: "220",
			CloserCampaign:  "210",
			FronterPrefixes: []string{"MEBS", "ABS"},
			CloserPrefixes:  []string{"BB", "NJ"},
		},
		"7": {Type: ServerTypeOSD, Campaign: "580"},
		"A": {
			Type:            ServerTypeGMB,
			FronterCampaign: "920",
			CloserCampaign:  "900",
			FronterPrefixes: []string{"MEBS", "ABS", "RC"},
			CloserPrefixes:  []string{"BB"},
		},
		"10": {Type: ServerTypeOSD, Campaign: "990"},
		"11": {Type: ServerTypeOSD, Campaign: "710"},
	}
}

// ServerLoginPrefix returns the domain prefix used in portal usernames,
// e.g. "IB6\user" for server 6 and "I10\user" for server 10.
func ServerLoginPrefix(serverID string) string {
	switch serverID {
	case "5", "6", "7", "A":
		return "IB" + serverID
	default:
		return "I" + serverID
	}
}
