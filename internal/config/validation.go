// internal/config/validation.go
package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for structural problems. It runs after
// defaults are applied, so zero values that have defaults never reach it.
func (c *Config) Validate() error {
	if c.Name == "" {
		return ValidationError{Path: "name", Message: "job name is required"}
	}

	if c.Telesero == nil && c.Zoom == nil {
		return ValidationError{Path: "config", Message: "at least one of telesero or zoom sections is required"}
	}

	if err := c.Browser.validate(); err != nil {
		return err
	}

	if c.Telesero != nil {
		if err := c.Telesero.validate(); err != nil {
			return err
		}
	}

	if c.Zoom != nil {
		if err := c.Zoom.validate(); err != nil {
			return err
		}
	}

	if err := c.Output.validate(); err != nil {
		return err
	}

	return nil
}

func (b *BrowserConfig) validate() error {
	if b.WindowWidth < 0 || b.WindowHeight < 0 {
		return ValidationError{Path: "browser", Message: "window dimensions cannot be negative"}
	}
	return nil
}

func (tc *TeleseroConfig) validate() error {
	if tc.BaseURL == "" {
		return ValidationError{Path: "telesero.base_url", Message: "portal URL is required"}
	}
	if _, err := url.ParseRequestURI(tc.BaseURL); err != nil {
		return ValidationError{Path: "telesero.base_url", Message: fmt.Sprintf("invalid URL: %v", err)}
	}
	if tc.Server == "" {
		return ValidationError{Path: "telesero.server", Message: "server id is required"}
	}

	sc, ok := tc.Servers[tc.Server]
	if !ok {
		// The built-in registry applies when no servers map is given.
		sc, ok = DefaultServers()[tc.Server]
		if !ok {
			return ValidationError{Path: "telesero.server", Message: fmt.Sprintf("unknown server %q", tc.Server)}
		}
	}
	if err := sc.validate(tc.Server); err != nil {
		return err
	}

	if tc.Thresholds != nil {
		if err := tc.Thresholds.validate(); err != nil {
			return err
		}
	}

	return nil
}

func (s *ServerConfig) validate(id string) error {
	path := fmt.Sprintf("telesero.servers.%s", id)

	switch s.Type {
	case ServerTypeOSD:
		if s.Campaign == "" {
			return ValidationError{Path: path, Message: "OSD server requires a campaign id"}
		}
	case ServerTypeGMB:
		if s.FronterCampaign == "" || s.CloserCampaign == "" {
			return ValidationError{Path: path, Message: "GMB server requires fronter and closer campaign ids"}
		}
	default:
		return ValidationError{Path: path, Message: fmt.Sprintf("unknown server type %q", s.Type)}
	}

	return nil
}

func (t *ThresholdsConfig) validate() error {
	if t.ConversionRate < 0 || t.ConversionRate > 100 {
		return ValidationError{Path: "telesero.thresholds.conversion_rate", Message: "must be between 0 and 100"}
	}
	if t.ContactRate < 0 || t.ContactRate > 100 {
		return ValidationError{Path: "telesero.thresholds.contact_rate", Message: "must be between 0 and 100"}
	}
	if t.ContactCount < 0 {
		return ValidationError{Path: "telesero.thresholds.contact_count", Message: "cannot be negative"}
	}
	if t.ContactRateCount < 0 {
		return ValidationError{Path: "telesero.thresholds.contact_rate_count", Message: "cannot be negative"}
	}
	if t.RestTime < 0 {
		return ValidationError{Path: "telesero.thresholds.rest_time", Message: "cannot be negative"}
	}
	return nil
}

func (zc *ZoomConfig) validate() error {
	if zc.LoginURL == "" {
		return ValidationError{Path: "zoom.login_url", Message: "login URL is required"}
	}
	if _, err := url.ParseRequestURI(zc.LoginURL); err != nil {
		return ValidationError{Path: "zoom.login_url", Message: fmt.Sprintf("invalid URL: %v", err)}
	}

	switch zc.Target {
	case ZoomTargetContactCenter:
		if zc.ContactCenterURL == "" {
			return ValidationError{Path: "zoom.contact_center_url", Message: "required for the contact_center target"}
		}
	case ZoomTargetWorkplace:
		if zc.WorkplaceURL == "" {
			return ValidationError{Path: "zoom.workplace_url", Message: "required for the workplace target"}
		}
	default:
		return ValidationError{Path: "zoom.target", Message: fmt.Sprintf("unknown target %q", zc.Target)}
	}

	if zc.Workers < 0 {
		return ValidationError{Path: "zoom.workers", Message: "cannot be negative"}
	}

	if zc.RateLimit != nil {
		if zc.RateLimit.MaxRequests < 1 {
			return ValidationError{Path: "zoom.rate_limit.max_requests", Message: "must be at least 1"}
		}
		if zc.RateLimit.Period <= 0 {
			return ValidationError{Path: "zoom.rate_limit.period", Message: "must be positive"}
		}
	}

	return nil
}

func (o *OutputConfig) validate() error {
	switch o.Format {
	case "json", "csv", "excel":
		if o.File == "" {
			return ValidationError{Path: "output.file", Message: fmt.Sprintf("required for %s output", o.Format)}
		}
	case "sqlite", "postgres", "mysql", "mongodb":
		if o.Database == nil || o.Database.DSN == "" {
			return ValidationError{Path: "output.database.dsn", Message: fmt.Sprintf("required for %s output", o.Format)}
		}
	default:
		return ValidationError{Path: "output.format", Message: fmt.Sprintf("unsupported format %q", o.Format)}
	}
	return nil
}
