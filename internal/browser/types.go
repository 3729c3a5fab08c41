// internal/browser/types.go
package browser

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/network"

	"github.com/osdlabs/chromepuppet/internal/config"
)

// Config defines the Chrome session configuration
type Config struct {
	Headless      bool          `yaml:"headless" json:"headless"`
	WindowWidth   int           `yaml:"window_width" json:"window_width"`
	WindowHeight  int           `yaml:"window_height" json:"window_height"`
	UserAgent     string        `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
	ChromePath    string        `yaml:"chrome_path,omitempty" json:"chrome_path,omitempty"`
	UserDataDir   string        `yaml:"user_data_dir,omitempty" json:"user_data_dir,omitempty"`
	Profile       string        `yaml:"profile,omitempty" json:"profile,omitempty"`
	DownloadDir   string        `yaml:"download_dir,omitempty" json:"download_dir,omitempty"`
	ScreenshotDir string        `yaml:"screenshot_dir,omitempty" json:"screenshot_dir,omitempty"`
	DisableImages bool          `yaml:"disable_images" json:"disable_images"`
	NavTimeout    time.Duration `yaml:"nav_timeout" json:"nav_timeout"`
	WaitTimeout   time.Duration `yaml:"wait_timeout" json:"wait_timeout"`
}

// DefaultConfig returns default Chrome configuration. Portal work runs
// with a visible window; headless is opt-in.
func DefaultConfig() *Config {
	return &Config{
		Headless:      false,
		WindowWidth:   1920,
		WindowHeight:  1080,
		ScreenshotDir: "screenshots",
		NavTimeout:    30 * time.Second,
		WaitTimeout:   10 * time.Second,
	}
}

// FromConfig builds a session Config from the YAML browser section.
func FromConfig(bc *config.BrowserConfig) *Config {
	if bc == nil {
		return DefaultConfig()
	}
	c := &Config{
		Headless:      bc.Headless,
		WindowWidth:   bc.WindowWidth,
		WindowHeight:  bc.WindowHeight,
		UserAgent:     bc.UserAgent,
		ChromePath:    bc.ChromePath,
		UserDataDir:   bc.UserDataDir,
		Profile:       bc.Profile,
		DownloadDir:   bc.DownloadDir,
		ScreenshotDir: bc.ScreenshotDir,
		DisableImages: bc.DisableImages,
		NavTimeout:    bc.NavTimeout,
		WaitTimeout:   bc.WaitTimeout,
	}
	d := DefaultConfig()
	if c.WindowWidth == 0 {
		c.WindowWidth = d.WindowWidth
	}
	if c.WindowHeight == 0 {
		c.WindowHeight = d.WindowHeight
	}
	if c.ScreenshotDir == "" {
		c.ScreenshotDir = d.ScreenshotDir
	}
	if c.NavTimeout == 0 {
		c.NavTimeout = d.NavTimeout
	}
	if c.WaitTimeout == 0 {
		c.WaitTimeout = d.WaitTimeout
	}
	return c
}

// Client defines the browser operations the automation flows depend on.
type Client interface {
	// Navigate loads a URL and waits for the document body
	Navigate(ctx context.Context, url string) error

	// CurrentURL returns the location of the active page
	CurrentURL(ctx context.Context) (string, error)

	// Title returns the active page title
	Title(ctx context.Context) (string, error)

	// PageSource returns the current page HTML
	PageSource(ctx context.Context) (string, error)

	// WaitVisible waits for an element to become visible
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error

	// Click clicks the first element matching the selector
	Click(ctx context.Context, selector string) error

	// SendKeys types text into the element matching the selector
	SendKeys(ctx context.Context, selector, text string) error

	// Clear empties an input element
	Clear(ctx context.Context, selector string) error

	// Evaluate runs JavaScript and returns its result
	Evaluate(ctx context.Context, script string) (*interface{}, error)

	// Screenshot captures the full page as PNG bytes
	Screenshot(ctx context.Context) ([]byte, error)

	// SaveScreenshot captures the page into the screenshot directory
	// and returns the file path
	SaveScreenshot(ctx context.Context, label string) (string, error)

	// Cookies returns the cookies visible to the current page
	Cookies(ctx context.Context) ([]*network.Cookie, error)

	// SetViewport sets the browser viewport size
	SetViewport(ctx context.Context, width, height int) error

	// Close shuts the browser down
	Close() error
}

// Pool manages a pool of browser instances
type Pool interface {
	// Get retrieves a browser from the pool
	Get(ctx context.Context) (Client, error)

	// Put returns a browser to the pool
	Put(browser Client) error

	// Close closes all browsers in the pool
	Close() error

	// Size returns the current pool size
	Size() int
}

// Stats contains browser session statistics
type Stats struct {
	PagesLoaded      int           `json:"pages_loaded"`
	AverageLoadTime  time.Duration `json:"average_load_time"`
	Errors           int           `json:"errors"`
	JavaScriptErrors int           `json:"javascript_errors"`
	TimeoutsOccurred int           `json:"timeouts_occurred"`
	ScreenshotsTaken int           `json:"screenshots_taken"`
}
