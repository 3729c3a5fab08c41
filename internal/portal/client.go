// internal/portal/client.go
package portal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/osdlabs/chromepuppet/internal/browser"
	"github.com/osdlabs/chromepuppet/internal/config"
	"github.com/osdlabs/chromepuppet/internal/utils"
)

const (
	loginWaitTimeout   = 15 * time.Second
	elementWaitTimeout = 10 * time.Second
	pageSettleDelay    = 5 * time.Second
	selectionDelay     = 2 * time.Second
)

// Client drives the dialer portal through a browser session: login,
// campaign selection, metric scraping and list swaps.
type Client struct {
	browser browser.Client
	cfg     *config.TeleseroConfig
	logger  utils.Logger
}

// NewClient wraps a browser session for one portal.
func NewClient(b browser.Client, cfg *config.TeleseroConfig, logger utils.Logger) *Client {
	if logger == nil {
		logger = utils.NewLogger()
	}
	return &Client{browser: b, cfg: cfg, logger: logger}
}

// Browser exposes the underlying session, mainly for screenshots on
// failure paths.
func (c *Client) Browser() browser.Client { return c.browser }

func (c *Client) baseURL() string {
	return strings.TrimRight(c.cfg.BaseURL, "/")
}

// MonitorURL is the live dashboard address.
func (c *Client) MonitorURL() string {
	return c.baseURL() + c.cfg.MonitorPath
}

// StrategyURL is the dialing strategy page for a campaign.
func (c *Client) StrategyURL(campaignID string) string {
	return c.baseURL() + strings.TrimRight(c.cfg.StrategyPath, "/") + "/" + campaignID
}

// Login signs into the portal and waits for the monitoring dashboard.
func (c *Client) Login(ctx context.Context, creds config.Credentials) error {
	c.logger.Info("logging into portal")

	if err := c.browser.Navigate(ctx, c.cfg.BaseURL); err != nil {
		return fmt.Errorf("failed to open portal: %w", err)
	}

	if err := c.browser.WaitVisible(ctx, "#username", elementWaitTimeout); err != nil {
		return fmt.Errorf("login form not found: %w", err)
	}

	if err := c.browser.Clear(ctx, "#username"); err != nil {
		return fmt.Errorf("failed to clear username field: %w", err)
	}
	if err := c.browser.SendKeys(ctx, "#username", creds.Username); err != nil {
		return fmt.Errorf("failed to enter username: %w", err)
	}
	if err := c.browser.Clear(ctx, "#password"); err != nil {
		return fmt.Errorf("failed to clear password field: %w", err)
	}
	if err := c.browser.SendKeys(ctx, "#password", creds.Password); err != nil {
		return fmt.Errorf("failed to enter password: %w", err)
	}

	if err := c.browser.Click(ctx, "button[type='submit']"); err != nil {
		return fmt.Errorf("failed to submit login form: %w", err)
	}

	if err := c.waitForURL(ctx, c.cfg.MonitorPath, loginWaitTimeout); err != nil {
		return fmt.Errorf("login did not reach monitoring dashboard: %w", err)
	}

	c.logger.Info("portal login succeeded")
	return nil
}

// waitForURL polls the current location until it contains fragment.
func (c *Client) waitForURL(ctx context.Context, fragment string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		url, err := c.browser.CurrentURL(ctx)
		if err == nil && strings.Contains(url, fragment) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for %q, at %q", fragment, url)
		}
		if err := sleep(ctx, 500*time.Millisecond); err != nil {
			return err
		}
	}
}

// SelectCampaign switches the dashboard to a campaign through the
// select2 control. Already-selected campaigns short-circuit.
func (c *Client) SelectCampaign(ctx context.Context, campaignID string) error {
	current, err := c.evaluateString(ctx,
		`(function() {
			var select = document.querySelector('select.select2-hidden-accessible');
			return select ? String(select.value) : '';
		})()`)
	if err == nil && current == campaignID {
		c.logger.Debugf("campaign %s already selected", campaignID)
		return nil
	}

	c.logger.Infof("selecting campaign %s", campaignID)
	script := fmt.Sprintf(
		`(function() {
			var select = document.querySelector('select.select2-hidden-accessible');
			if (!select) { return false; }
			select.value = %q;
			select.dispatchEvent(new Event('change', { bubbles: true }));
			return true;
		})()`, campaignID)

	ok, err := c.evaluateBool(ctx, script)
	if err != nil {
		return fmt.Errorf("failed to select campaign %s: %w", campaignID, err)
	}
	if !ok {
		return fmt.Errorf("campaign selector not found")
	}

	return sleep(ctx, selectionDelay)
}

// DashboardMetrics scrapes the monitoring dashboard for one campaign
// and returns its per-list metrics keyed by list id.
func (c *Client) DashboardMetrics(ctx context.Context, campaignID string) (map[string]*ListMetrics, error) {
	url, err := c.browser.CurrentURL(ctx)
	if err != nil || !strings.Contains(url, c.cfg.MonitorPath) {
		if err := c.browser.Navigate(ctx, c.MonitorURL()); err != nil {
			return nil, fmt.Errorf("failed to open monitoring dashboard: %w", err)
		}
	}

	if err := c.SelectCampaign(ctx, campaignID); err != nil {
		return nil, err
	}

	if err := c.browser.WaitVisible(ctx, dashboardTableSelector, elementWaitTimeout); err != nil {
		return nil, fmt.Errorf("list performance table did not appear: %w", err)
	}

	html, err := c.browser.PageSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read dashboard page: %w", err)
	}

	rows, err := ParseDashboard(html, time.Now())
	if err != nil {
		return nil, err
	}

	metrics := make(map[string]*ListMetrics, len(rows))
	for _, m := range rows {
		metrics[m.ListID] = m
	}
	c.logger.Infof("campaign %s dashboard: %d lists", campaignID, len(metrics))
	return metrics, nil
}

// StrategyMetrics scrapes the dialing strategy page for a campaign.
// Every list found there is part of the running blend.
func (c *Client) StrategyMetrics(ctx context.Context, campaignID string) (map[string]*StrategyRow, error) {
	if err := c.browser.Navigate(ctx, c.StrategyURL(campaignID)); err != nil {
		return nil, fmt.Errorf("failed to open strategy page: %w", err)
	}
	if err := sleep(ctx, pageSettleDelay); err != nil {
		return nil, err
	}

	html, err := c.browser.PageSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read strategy page: %w", err)
	}

	rows, err := ParseStrategy(html, time.Now())
	if err != nil {
		return nil, err
	}

	metrics := make(map[string]*StrategyRow, len(rows))
	for _, r := range rows {
		metrics[r.ListID] = r
	}
	c.logger.Infof("campaign %s strategy: %d lists in blend", campaignID, len(metrics))
	return metrics, nil
}

// ChangeList swaps oldID out of the campaign blend for newID, carrying
// the old list's dialing percentage over. The swap is verified against
// a fresh strategy read before the dashboard is restored.
func (c *Client) ChangeList(ctx context.Context, campaignID, oldID, newID string) error {
	c.logger.Infof("changing list %s to %s in campaign %s", oldID, newID, campaignID)

	if err := c.browser.Navigate(ctx, c.StrategyURL(campaignID)); err != nil {
		return fmt.Errorf("failed to open strategy page: %w", err)
	}
	if err := sleep(ctx, pageSettleDelay); err != nil {
		return err
	}

	oldRowSelector := fmt.Sprintf("tr.lead-list-item input.lead-list-id[value='%s']", oldID)
	if err := c.browser.WaitVisible(ctx, oldRowSelector, elementWaitTimeout); err != nil {
		return fmt.Errorf("list %s not found in dialing strategy: %w", oldID, err)
	}

	percent, err := c.rowPercent(ctx, oldID)
	if err != nil {
		return err
	}

	if err := c.removeListRow(ctx, oldID); err != nil {
		return err
	}
	if err := sleep(ctx, selectionDelay); err != nil {
		return err
	}

	if err := c.addListOption(ctx, campaignID, newID); err != nil {
		return err
	}
	if err := sleep(ctx, selectionDelay); err != nil {
		return err
	}

	newRowSelector := fmt.Sprintf("tr.lead-list-item input.lead-list-id[value='%s']", newID)
	if err := c.browser.WaitVisible(ctx, newRowSelector, elementWaitTimeout); err != nil {
		return fmt.Errorf("list %s did not appear after add: %w", newID, err)
	}

	if err := c.setRowPercent(ctx, newID, percent); err != nil {
		return err
	}
	if err := sleep(ctx, selectionDelay); err != nil {
		return err
	}

	if err := c.browser.Click(ctx, "button[type='submit'].btn-success"); err != nil {
		return fmt.Errorf("failed to save strategy changes: %w", err)
	}
	if err := sleep(ctx, pageSettleDelay); err != nil {
		return err
	}

	// Confirm against a fresh strategy read.
	after, err := c.StrategyMetrics(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("failed to verify list change: %w", err)
	}
	if _, ok := after[newID]; !ok {
		return fmt.Errorf("list %s missing from strategy after save", newID)
	}
	if _, ok := after[oldID]; ok {
		return fmt.Errorf("list %s still in strategy after save", oldID)
	}

	c.logger.Infof("list change %s -> %s verified", oldID, newID)

	// Restore the dashboard. A failure here does not undo the swap.
	if err := c.browser.Navigate(ctx, c.MonitorURL()); err == nil {
		if err := c.SelectCampaign(ctx, campaignID); err != nil {
			c.logger.Warnf("failed to reselect campaign after list change: %v", err)
		}
	} else {
		c.logger.Warnf("failed to return to dashboard after list change: %v", err)
	}

	return nil
}

// rowPercent reads the dialing percentage of a blend row.
func (c *Client) rowPercent(ctx context.Context, listID string) (string, error) {
	script := fmt.Sprintf(
		`(function() {
			var rows = document.querySelectorAll('tr.lead-list-item');
			for (var i = 0; i < rows.length; i++) {
				var id = rows[i].querySelector("input[name*='[listId]'], input.lead-list-id");
				if (id && id.value === %q) {
					var percent = rows[i].querySelector("input[name*='[percent]']");
					return percent ? String(percent.value) : '';
				}
			}
			return null;
		})()`, listID)

	v, err := c.browser.Evaluate(ctx, script)
	if err != nil {
		return "", fmt.Errorf("failed to read percentage for list %s: %w", listID, err)
	}
	if v == nil || *v == nil {
		return "", fmt.Errorf("percentage input for list %s not found", listID)
	}
	s, ok := (*v).(string)
	if !ok {
		return "", fmt.Errorf("unexpected percentage value for list %s", listID)
	}
	return s, nil
}

// removeListRow clicks the delete button on a blend row.
func (c *Client) removeListRow(ctx context.Context, listID string) error {
	script := fmt.Sprintf(
		`(function() {
			var rows = document.querySelectorAll('tr.lead-list-item');
			for (var i = 0; i < rows.length; i++) {
				var id = rows[i].querySelector("input[name*='[listId]'], input.lead-list-id");
				if (id && id.value === %q) {
					var btn = rows[i].querySelector('button.btn-danger.del');
					if (btn) { btn.click(); return true; }
				}
			}
			return false;
		})()`, listID)

	ok, err := c.evaluateBool(ctx, script)
	if err != nil {
		return fmt.Errorf("failed to remove list %s: %w", listID, err)
	}
	if !ok {
		return fmt.Errorf("delete button for list %s not found", listID)
	}
	return nil
}

// addListOption injects the new list into the campaign's list picker
// and fires the select2 change handler.
func (c *Client) addListOption(ctx context.Context, campaignID, listID string) error {
	script := fmt.Sprintf(
		`(function() {
			var select = document.querySelector("select[data-campaign-id='%s']");
			if (!select) { return false; }
			var option = new Option(%q, %q, true, true);
			select.appendChild(option);
			if (window.jQuery) {
				jQuery(select).val(%q).trigger('change');
			} else {
				select.value = %q;
				select.dispatchEvent(new Event('change', { bubbles: true }));
			}
			return true;
		})()`, campaignID, listID, listID, listID, listID)

	ok, err := c.evaluateBool(ctx, script)
	if err != nil {
		return fmt.Errorf("failed to add list %s: %w", listID, err)
	}
	if !ok {
		return fmt.Errorf("list picker for campaign %s not found", campaignID)
	}
	return nil
}

// setRowPercent copies a dialing percentage onto the new row.
func (c *Client) setRowPercent(ctx context.Context, listID, percent string) error {
	script := fmt.Sprintf(
		`(function() {
			var rows = document.querySelectorAll('tr.lead-list-item');
			for (var i = 0; i < rows.length; i++) {
				var id = rows[i].querySelector("input[name*='[listId]'], input.lead-list-id");
				if (id && id.value === %q) {
					var percent = rows[i].querySelector("input[name*='[percent]']");
					if (percent) { percent.value = %q; return true; }
				}
			}
			return false;
		})()`, listID, percent)

	ok, err := c.evaluateBool(ctx, script)
	if err != nil {
		return fmt.Errorf("failed to set percentage for list %s: %w", listID, err)
	}
	if !ok {
		return fmt.Errorf("percentage input for new list %s not found", listID)
	}
	return nil
}

// OnlineAgents reads the online agents table from the dashboard for
// the currently selected campaign.
func (c *Client) OnlineAgents(ctx context.Context) ([]string, bool, error) {
	if err := c.browser.WaitVisible(ctx, agentsTableSelector, elementWaitTimeout); err != nil {
		return nil, false, fmt.Errorf("agent table not found: %w", err)
	}
	if err := sleep(ctx, selectionDelay); err != nil {
		return nil, false, err
	}

	html, err := c.browser.PageSource(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read agents page: %w", err)
	}
	return ParseAgents(html)
}

func (c *Client) evaluateBool(ctx context.Context, script string) (bool, error) {
	v, err := c.browser.Evaluate(ctx, script)
	if err != nil {
		return false, err
	}
	if v == nil || *v == nil {
		return false, nil
	}
	b, ok := (*v).(bool)
	return b && ok, nil
}

func (c *Client) evaluateString(ctx context.Context, script string) (string, error) {
	v, err := c.browser.Evaluate(ctx, script)
	if err != nil {
		return "", err
	}
	if v == nil || *v == nil {
		return "", nil
	}
	s, _ := (*v).(string)
	return s, nil
}

// sleep waits without outliving the context.
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
