// internal/zoom/dnc.go
package zoom

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Status classifies one block rule submission.
type Status string

const (
	StatusAdded     Status = "added"
	StatusDuplicate Status = "duplicate"
	StatusUnknown   Status = "unknown"
)

const (
	blockRuleDialogTitle = "Add a Block Rule"
	phoneInputSelector   = "input[aria-label='Phone Number']"
	countryInputSelector = "input[aria-label='Country/Region']"

	tabRetries = 3
)

// AddToContactCenterDNC adds one number to the Contact Center block
// list: block list tab, add rule dialog, phone number match, both
// channel types, both block types, save.
func (c *Client) AddToContactCenterDNC(ctx context.Context, number string) (Status, string, error) {
	if err := c.browser.Navigate(ctx, c.cfg.ContactCenterURL); err != nil {
		return StatusUnknown, "", fmt.Errorf("failed to open contact center admin: %w", err)
	}
	if err := sleep(ctx, pageSettleDelay); err != nil {
		return StatusUnknown, "", err
	}

	if err := c.openTab(ctx, "tab-blockList"); err != nil {
		return StatusUnknown, "", err
	}
	if err := c.openBlockRuleDialog(ctx, "Add"); err != nil {
		return StatusUnknown, "", err
	}

	if err := c.setPhoneNumberMatch(ctx); err != nil {
		return StatusUnknown, "", err
	}
	if err := c.fillPhoneNumber(ctx, number); err != nil {
		return StatusUnknown, "", err
	}

	if err := c.selectMultiOptions(ctx, "Channel Type", "SMS", "Voice"); err != nil {
		return StatusUnknown, "", err
	}
	if err := c.selectMultiOptions(ctx, "Block Type", "Inbound", "Outbound"); err != nil {
		return StatusUnknown, "", err
	}

	return c.saveAndClassify(ctx, "New rule added", "Blocking rule is already implemented")
}

// AddToWorkplaceDNC adds one number to the Workplace blocked numbers
// list. Same dialog shape, plus a country check so the number is
// entered under +1.
func (c *Client) AddToWorkplaceDNC(ctx context.Context, number string) (Status, string, error) {
	if err := c.browser.Navigate(ctx, c.cfg.WorkplaceURL); err != nil {
		return StatusUnknown, "", fmt.Errorf("failed to open workplace telephone page: %w", err)
	}
	if err := sleep(ctx, pageSettleDelay); err != nil {
		return StatusUnknown, "", err
	}

	// The blocked list tab may already be active.
	if active, err := c.evaluateBool(ctx, tabActiveScript("tab-companyBlockedList")); err == nil && !active {
		if err := c.openTab(ctx, "tab-companyBlockedList"); err != nil {
			c.logger.Warnf("blocked list tab not clickable, continuing: %v", err)
		}
	}

	if err := c.openBlockRuleDialog(ctx, "Add"); err != nil {
		return StatusUnknown, "", err
	}
	if err := c.setPhoneNumberMatch(ctx); err != nil {
		return StatusUnknown, "", err
	}
	if err := c.ensureUSCountry(ctx); err != nil {
		return StatusUnknown, "", err
	}
	if err := c.fillPhoneNumber(ctx, number); err != nil {
		return StatusUnknown, "", err
	}
	if err := c.selectMultiOptions(ctx, "Block Type", "Inbound", "Outbound"); err != nil {
		return StatusUnknown, "", err
	}

	return c.saveAndClassify(ctx, "Added Blocked Number Successfully", "Blocked number already exists")
}

// openTab clicks a console tab by element id, with retries for the
// slow-rendering tab bar.
func (c *Client) openTab(ctx context.Context, tabID string) error {
	selector := "#" + tabID
	var lastErr error
	for attempt := 1; attempt <= tabRetries; attempt++ {
		if err := c.browser.WaitVisible(ctx, selector, elementWait); err != nil {
			lastErr = err
		} else if err := c.browser.Click(ctx, selector); err != nil {
			lastErr = err
		} else {
			return sleep(ctx, tabSettleDelay)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warnf("attempt %d: could not open tab %s: %v", attempt, tabID, lastErr)
		if err := sleep(ctx, tabSettleDelay); err != nil {
			return err
		}
	}
	c.browser.SaveScreenshot(ctx, "zoom_tab_"+tabID+"_failure")
	return fmt.Errorf("could not open tab %s: %w", tabID, lastErr)
}

func (c *Client) openBlockRuleDialog(ctx context.Context, buttonText string) error {
	clicked, err := c.evaluateBool(ctx, clickButtonByTextScript(buttonText))
	if err != nil {
		return fmt.Errorf("failed to click add button: %w", err)
	}
	if !clicked {
		c.browser.SaveScreenshot(ctx, "zoom_add_button_missing")
		return fmt.Errorf("add button not found on block list page")
	}

	deadline := time.Now().Add(dialogWaitTimeout)
	for time.Now().Before(deadline) {
		visible, err := c.evaluateBool(ctx, dialogVisibleScript(blockRuleDialogTitle))
		if err != nil {
			return err
		}
		if visible {
			return nil
		}
		if err := sleep(ctx, 500*time.Millisecond); err != nil {
			return err
		}
	}
	c.browser.SaveScreenshot(ctx, "zoom_block_rule_dialog_missing")
	return fmt.Errorf("block rule dialog did not appear")
}

func (c *Client) setPhoneNumberMatch(ctx context.Context) error {
	opened, err := c.evaluateBool(ctx, openDropdownByLabelScript("Match Type"))
	if err != nil {
		return err
	}
	if !opened {
		return fmt.Errorf("match type dropdown not found")
	}
	if err := sleep(ctx, 500*time.Millisecond); err != nil {
		return err
	}

	selected, err := c.evaluateBool(ctx, clickDropdownItemScript("Phone Number Match"))
	if err != nil {
		return err
	}
	if !selected {
		return fmt.Errorf("phone number match option not found")
	}
	return nil
}

func (c *Client) fillPhoneNumber(ctx context.Context, number string) error {
	if err := c.browser.WaitVisible(ctx, phoneInputSelector, elementWait); err != nil {
		return fmt.Errorf("phone input not found: %w", err)
	}
	if err := c.browser.Clear(ctx, phoneInputSelector); err != nil {
		return err
	}
	if err := c.mimic.Type(ctx, c.browser, phoneInputSelector, number); err != nil {
		return fmt.Errorf("failed to enter phone number: %w", err)
	}
	return nil
}

// ensureUSCountry switches the country selector to +1 when it shows
// anything else.
func (c *Client) ensureUSCountry(ctx context.Context) error {
	value, err := c.evaluateString(ctx, inputValueScript(countryInputSelector))
	if err != nil {
		return err
	}
	if strings.HasSuffix(strings.TrimSpace(value), "+1") {
		return nil
	}

	if err := c.browser.Click(ctx, countryInputSelector); err != nil {
		return fmt.Errorf("failed to open country selector: %w", err)
	}
	if err := sleep(ctx, 500*time.Millisecond); err != nil {
		return err
	}
	selected, err := c.evaluateBool(ctx, clickDropdownItemScript("+1"))
	if err != nil {
		return err
	}
	if !selected {
		return fmt.Errorf("US country option not found")
	}
	return nil
}

// selectMultiOptions opens the multi-select behind the given label and
// checks every option, then clicks the trigger again to close it.
func (c *Client) selectMultiOptions(ctx context.Context, label string, options ...string) error {
	opened, err := c.evaluateBool(ctx, openDropdownByLabelScript(label))
	if err != nil {
		return err
	}
	if !opened {
		return fmt.Errorf("%s dropdown not found", label)
	}
	if err := sleep(ctx, 500*time.Millisecond); err != nil {
		return err
	}

	for _, option := range options {
		selected, err := c.evaluateBool(ctx, clickDropdownItemScript(option))
		if err != nil {
			return err
		}
		if !selected {
			c.logger.Warnf("%s option %q not found", label, option)
		}
	}

	if _, err := c.evaluateBool(ctx, openDropdownByLabelScript(label)); err != nil {
		return err
	}
	return sleep(ctx, 500*time.Millisecond)
}

// saveAndClassify clicks Save and classifies the console's response
// toast.
func (c *Client) saveAndClassify(ctx context.Context, addedText, duplicateText string) (Status, string, error) {
	clicked, err := c.evaluateBool(ctx, clickButtonByTextScript("Save"))
	if err != nil {
		return StatusUnknown, "", err
	}
	if !clicked {
		c.browser.SaveScreenshot(ctx, "zoom_save_button_missing")
		return StatusUnknown, "", fmt.Errorf("save button not found")
	}

	deadline := time.Now().Add(dialogWaitTimeout)
	for time.Now().Before(deadline) {
		message, err := c.evaluateString(ctx, messageTextScript())
		if err != nil {
			return StatusUnknown, "", err
		}
		if message != "" {
			return classifyMessage(message, addedText, duplicateText), message, nil
		}
		if err := sleep(ctx, 500*time.Millisecond); err != nil {
			return StatusUnknown, "", err
		}
	}

	c.browser.SaveScreenshot(ctx, "zoom_save_no_confirmation")
	return StatusUnknown, "", fmt.Errorf("no confirmation message after save")
}

func classifyMessage(message, addedText, duplicateText string) Status {
	switch {
	case strings.Contains(message, duplicateText):
		return StatusDuplicate
	case strings.Contains(message, addedText):
		return StatusAdded
	default:
		return StatusUnknown
	}
}
