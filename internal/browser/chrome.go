// internal/browser/chrome.go
package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

// Chrome implements Client using chromedp
type Chrome struct {
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	config      *Config
	stats       *Stats
	mu          sync.RWMutex
	navigated   bool
}

// New starts a Chrome session with the given configuration
func New(cfg *Config) (*Chrome, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox, // Required for Docker environments
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	}

	if cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	}

	if cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ChromePath))
	}

	if cfg.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
	}

	if cfg.Profile != "" {
		opts = append(opts, chromedp.Flag("profile-directory", cfg.Profile))
	}

	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	// Disable images for faster loading
	if cfg.DisableImages {
		opts = append(opts, chromedp.Flag("blink-settings", "imagesEnabled=false"))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	c := &Chrome{
		allocCancel: allocCancel,
		ctx:         ctx,
		cancel:      cancel,
		config:      cfg,
		stats:       &Stats{},
	}

	if err := c.initialize(); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize browser: %w", err)
	}

	return c, nil
}

// initialize starts the browser process and applies session-wide settings
func (c *Chrome) initialize() error {
	tasks := []chromedp.Action{
		chromedp.EmulateViewport(int64(c.config.WindowWidth), int64(c.config.WindowHeight)),
	}

	if c.config.DownloadDir != "" {
		if err := os.MkdirAll(c.config.DownloadDir, 0o755); err != nil {
			return fmt.Errorf("failed to create download directory: %w", err)
		}
		tasks = append(tasks, cdpbrowser.
			SetDownloadBehavior(cdpbrowser.SetDownloadBehaviorBehaviorAllow).
			WithDownloadPath(c.config.DownloadDir))
	}

	return chromedp.Run(c.ctx, tasks...)
}

// Navigate loads a URL and waits for the document body
func (c *Chrome) Navigate(ctx context.Context, url string) error {
	start := time.Now()

	runCtx, cancel := c.opContext(ctx, c.config.NavTimeout)
	defer cancel()

	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	)
	loadTime := time.Since(start)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.stats.Errors++
		c.navigated = false
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}

	c.navigated = true
	c.stats.PagesLoaded++
	if c.stats.PagesLoaded == 1 {
		c.stats.AverageLoadTime = loadTime
	} else {
		c.stats.AverageLoadTime = (c.stats.AverageLoadTime + loadTime) / 2
	}

	return nil
}

// CurrentURL returns the location of the active page
func (c *Chrome) CurrentURL(ctx context.Context) (string, error) {
	runCtx, cancel := c.opContext(ctx, 0)
	defer cancel()

	var url string
	if err := chromedp.Run(runCtx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return url, nil
}

// Title returns the active page title
func (c *Chrome) Title(ctx context.Context) (string, error) {
	runCtx, cancel := c.opContext(ctx, 0)
	defer cancel()

	var title string
	if err := chromedp.Run(runCtx, chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("failed to read title: %w", err)
	}
	return title, nil
}

// PageSource returns the current page HTML
func (c *Chrome) PageSource(ctx context.Context) (string, error) {
	c.mu.RLock()
	navigated := c.navigated
	c.mu.RUnlock()

	if !navigated {
		return "", fmt.Errorf("cannot extract HTML: no page has been loaded")
	}

	runCtx, cancel := c.opContext(ctx, 0)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html)); err != nil {
		c.countError()
		return "", fmt.Errorf("failed to get page source: %w", err)
	}
	return html, nil
}

// WaitVisible waits for an element to become visible
func (c *Chrome) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	runCtx, cancel := c.opContext(ctx, timeout)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		c.mu.Lock()
		c.stats.TimeoutsOccurred++
		c.mu.Unlock()
		return fmt.Errorf("timed out waiting for %q: %w", selector, err)
	}
	return nil
}

// Click clicks the first element matching the selector
func (c *Chrome) Click(ctx context.Context, selector string) error {
	runCtx, cancel := c.opContext(ctx, 0)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		c.countError()
		return fmt.Errorf("click on %q failed: %w", selector, err)
	}
	return nil
}

// SendKeys types text into the element matching the selector
func (c *Chrome) SendKeys(ctx context.Context, selector, text string) error {
	runCtx, cancel := c.opContext(ctx, 0)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.SendKeys(selector, text, chromedp.ByQuery)); err != nil {
		c.countError()
		return fmt.Errorf("typing into %q failed: %w", selector, err)
	}
	return nil
}

// Clear empties an input element
func (c *Chrome) Clear(ctx context.Context, selector string) error {
	runCtx, cancel := c.opContext(ctx, 0)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Clear(selector, chromedp.ByQuery)); err != nil {
		c.countError()
		return fmt.Errorf("clearing %q failed: %w", selector, err)
	}
	return nil
}

// Evaluate runs JavaScript and returns its result
func (c *Chrome) Evaluate(ctx context.Context, script string) (*interface{}, error) {
	runCtx, cancel := c.opContext(ctx, 0)
	defer cancel()

	var result interface{}
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, &result)); err != nil {
		c.mu.Lock()
		c.stats.JavaScriptErrors++
		c.mu.Unlock()
		return nil, fmt.Errorf("script execution failed: %w", err)
	}
	return &result, nil
}

// Screenshot captures the full page as PNG bytes
func (c *Chrome) Screenshot(ctx context.Context) ([]byte, error) {
	runCtx, cancel := c.opContext(ctx, 0)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(runCtx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		c.countError()
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return buf, nil
}

// SaveScreenshot captures the page into the screenshot directory and
// returns the file path. The label becomes part of the file name, so
// failure shots can be found by flow step.
func (c *Chrome) SaveScreenshot(ctx context.Context, label string) (string, error) {
	buf, err := c.Screenshot(ctx)
	if err != nil {
		return "", err
	}

	dir := c.config.ScreenshotDir
	if dir == "" {
		dir = "screenshots"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	name := time.Now().Format("20060102_150405") + "_" + sanitizeLabel(label) + ".png"
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}

	c.mu.Lock()
	c.stats.ScreenshotsTaken++
	c.mu.Unlock()

	return path, nil
}

// Cookies returns the cookies visible to the current browser context
func (c *Chrome) Cookies(ctx context.Context) ([]*network.Cookie, error) {
	runCtx, cancel := c.opContext(ctx, 0)
	defer cancel()

	var cookies []*network.Cookie
	err := chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}
	return cookies, nil
}

// SetCookie adds a cookie to the browser context
func (c *Chrome) SetCookie(ctx context.Context, name, value, domain string) error {
	runCtx, cancel := c.opContext(ctx, 0)
	defer cancel()

	err := chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return network.SetCookie(name, value).WithDomain(domain).Do(ctx)
	}))
	if err != nil {
		return fmt.Errorf("failed to set cookie %q: %w", name, err)
	}
	return nil
}

// SetViewport sets the browser viewport size
func (c *Chrome) SetViewport(ctx context.Context, width, height int) error {
	runCtx, cancel := c.opContext(ctx, 0)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.EmulateViewport(int64(width), int64(height))); err != nil {
		return fmt.Errorf("viewport change failed: %w", err)
	}

	c.config.WindowWidth = width
	c.config.WindowHeight = height
	return nil
}

// GetStats returns a snapshot of browser session statistics
func (c *Chrome) GetStats() *Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stats := *c.stats
	return &stats
}

// Close shuts the browser down
func (c *Chrome) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	if c.allocCancel != nil {
		c.allocCancel()
	}
	return nil
}

// opContext derives a run context honoring both the caller's context and
// an operation timeout. The chromedp session context stays the parent so
// target state is preserved across operations.
func (c *Chrome) opContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var runCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(c.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(c.ctx)
	}

	if ctx == nil {
		return runCtx, cancel
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (c *Chrome) countError() {
	c.mu.Lock()
	c.stats.Errors++
	c.mu.Unlock()
}

func sanitizeLabel(label string) string {
	if label == "" {
		return "page"
	}
	out := make([]rune, 0, len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		case r == ' ':
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "page"
	}
	if len(out) > 60 {
		out = out[:60]
	}
	return string(out)
}
