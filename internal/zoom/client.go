// internal/zoom/client.go
package zoom

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/osdlabs/chromepuppet/internal/browser"
	"github.com/osdlabs/chromepuppet/internal/config"
	"github.com/osdlabs/chromepuppet/internal/utils"
)

const (
	emailSelector    = "#email"
	passwordSelector = "#password"
	signInSelector   = "#js_btn_login"

	loginResultWait   = 45 * time.Second
	loginPollInterval = 2 * time.Second
	pageSettleDelay   = 3 * time.Second
	tabSettleDelay    = 2 * time.Second
	dialogWaitTimeout = 20 * time.Second
	elementWait       = 10 * time.Second
)

// ErrUserIntervention is returned when sign-in lands on a page that
// needs a human (OTP, 2FA, challenge). The run cannot continue
// unattended.
var ErrUserIntervention = fmt.Errorf("sign-in requires user intervention")

// Client drives the Zoom admin console: sign-in and the two DNC block
// list flows.
type Client struct {
	browser browser.Client
	cfg     *config.ZoomConfig
	mimic   *Mimic
	logger  utils.Logger
}

// NewClient wraps a browser session for the Zoom console.
func NewClient(b browser.Client, cfg *config.ZoomConfig, logger utils.Logger) *Client {
	if logger == nil {
		logger = utils.NewLogger()
	}
	return &Client{
		browser: b,
		cfg:     cfg,
		mimic:   NewMimic(),
		logger:  logger,
	}
}

// Browser exposes the underlying session.
func (c *Client) Browser() browser.Client { return c.browser }

// Login signs into the console. It runs one batch of attempts, and on
// total failure reloads the sign-in page and runs a second batch before
// giving up.
func (c *Client) Login(ctx context.Context, creds config.Credentials) error {
	if err := c.browser.Navigate(ctx, c.cfg.LoginURL); err != nil {
		return fmt.Errorf("failed to open sign-in page: %w", err)
	}

	retries := c.cfg.MaxRetries
	if retries < 1 {
		retries = 3
	}

	for batch := 1; batch <= 2; batch++ {
		err := c.loginBatch(ctx, creds, batch, retries)
		if err == nil {
			return nil
		}
		if err == ErrUserIntervention || ctx.Err() != nil {
			return err
		}
		if batch == 1 {
			c.logger.Warn("first sign-in batch failed, reloading page")
			if navErr := c.browser.Navigate(ctx, c.cfg.LoginURL); navErr != nil {
				return fmt.Errorf("failed to reload sign-in page: %w", navErr)
			}
			if err := sleep(ctx, tabSettleDelay); err != nil {
				return err
			}
		}
	}

	if path, shotErr := c.browser.SaveScreenshot(ctx, "zoom_login_failure"); shotErr == nil {
		c.logger.Errorf("sign-in failed, screenshot saved to %s", path)
	}
	return fmt.Errorf("sign-in failed after %d attempts", retries*2)
}

func (c *Client) loginBatch(ctx context.Context, creds config.Credentials, batch, retries int) error {
	for attempt := 1; attempt <= retries; attempt++ {
		c.logger.Infof("sign-in batch %d attempt %d/%d", batch, attempt, retries)

		if ok, err := c.signedIn(ctx); err == nil && ok {
			c.logger.Info("already signed in")
			return nil
		}

		err := c.attemptLogin(ctx, creds)
		if err == nil {
			return nil
		}
		if err == ErrUserIntervention || ctx.Err() != nil {
			return err
		}

		c.logger.Warnf("sign-in attempt failed: %v", err)
		if c.pageShowsTransientError(ctx) {
			// reCAPTCHA or network hiccup: reload and do not burn
			// the attempt counter.
			c.logger.Warn("transient sign-in error detected, reloading page")
			if navErr := c.browser.Navigate(ctx, c.cfg.LoginURL); navErr != nil {
				return navErr
			}
			if err := sleep(ctx, tabSettleDelay); err != nil {
				return err
			}
			attempt--
		}
	}
	return fmt.Errorf("sign-in batch exhausted %d attempts", retries)
}

func (c *Client) attemptLogin(ctx context.Context, creds config.Credentials) error {
	if err := c.browser.WaitVisible(ctx, emailSelector, elementWait); err != nil {
		return fmt.Errorf("email input not found: %w", err)
	}

	if err := c.browser.Clear(ctx, emailSelector); err != nil {
		return fmt.Errorf("failed to clear email input: %w", err)
	}
	if err := c.mimic.Type(ctx, c.browser, emailSelector, creds.Username); err != nil {
		return fmt.Errorf("failed to enter email: %w", err)
	}

	if err := c.browser.Clear(ctx, passwordSelector); err != nil {
		return fmt.Errorf("failed to clear password input: %w", err)
	}
	if err := c.mimic.Type(ctx, c.browser, passwordSelector, creds.Password); err != nil {
		return fmt.Errorf("failed to enter password: %w", err)
	}

	if err := c.mimic.Nudge(ctx, c.browser); err != nil {
		return err
	}
	if err := c.browser.Click(ctx, signInSelector); err != nil {
		return fmt.Errorf("failed to click sign-in button: %w", err)
	}

	return c.waitForLoginResult(ctx)
}

// waitForLoginResult polls the location until the console lands on the
// profile or dashboard, an intervention page appears, or the wait runs
// out.
func (c *Client) waitForLoginResult(ctx context.Context) error {
	deadline := time.Now().Add(loginResultWait)
	var lastURL string

	for time.Now().Before(deadline) {
		current, err := c.browser.CurrentURL(ctx)
		if err != nil {
			return err
		}
		path := urlPath(current)

		switch {
		case path == "/profile" || path == "/dashboard":
			c.logger.Infof("sign-in succeeded, landed on %s", path)
			return nil
		case interventionPath(path):
			c.logger.Warnf("sign-in needs user intervention at %s", path)
			c.browser.SaveScreenshot(ctx, "zoom_login_intervention")
			return ErrUserIntervention
		case lastURL != "" && lastURL != current && (path == "/signin" || path == "/login"):
			return fmt.Errorf("sign-in page reloaded during login")
		}

		lastURL = current
		if err := sleep(ctx, loginPollInterval); err != nil {
			return err
		}
	}
	return fmt.Errorf("timed out waiting for sign-in result")
}

func (c *Client) signedIn(ctx context.Context) (bool, error) {
	current, err := c.browser.CurrentURL(ctx)
	if err != nil {
		return false, err
	}
	path := urlPath(current)
	return path == "/profile" || path == "/dashboard", nil
}

// pageShowsTransientError reports whether the sign-in page is showing a
// reCAPTCHA or network error banner, both of which clear on reload.
func (c *Client) pageShowsTransientError(ctx context.Context) bool {
	text, err := c.evaluateString(ctx, errorBannerScript())
	if err != nil || text == "" {
		return false
	}
	lower := strings.ToLower(text)
	return strings.Contains(lower, "recaptcha") || strings.Contains(lower, "network")
}

func urlPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimRight(u.Path, "/"))
}

func interventionPath(path string) bool {
	for _, marker := range []string{"/challenge", "/verify", "/2fa", "/mfa", "/otp"} {
		if strings.Contains(path, marker) {
			return true
		}
	}
	return false
}

func (c *Client) evaluateBool(ctx context.Context, script string) (bool, error) {
	result, err := c.browser.Evaluate(ctx, script)
	if err != nil {
		return false, err
	}
	if result == nil {
		return false, nil
	}
	ok, _ := (*result).(bool)
	return ok, nil
}

func (c *Client) evaluateString(ctx context.Context, script string) (string, error) {
	result, err := c.browser.Evaluate(ctx, script)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", nil
	}
	s, _ := (*result).(string)
	return s, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
