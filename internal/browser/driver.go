// internal/browser/driver.go
package browser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
)

// EnvChromePath overrides binary discovery when set.
const EnvChromePath = "CHROME_PATH"

// Candidate binary locations per platform, checked in order.
var chromeCandidates = map[string][]string{
	"linux": {
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/snap/bin/chromium",
	},
	"darwin": {
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/Applications/Chromium.app/Contents/MacOS/Chromium",
	},
	"windows": {
		`C:\Program Files\Google\Chrome\Application\chrome.exe`,
		`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
	},
}

// Names resolvable through PATH when no absolute candidate exists.
var chromeNames = []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "chrome"}

var versionPattern = regexp.MustCompile(`\d+\.\d+\.\d+(\.\d+)?`)

// FindChrome locates the installed Chrome or Chromium binary. The
// CHROME_PATH environment variable wins over platform candidates.
func FindChrome() (string, error) {
	if path := os.Getenv(EnvChromePath); path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%s points to %q: %w", EnvChromePath, path, err)
		}
		return path, nil
	}

	for _, candidate := range chromeCandidates[runtime.GOOS] {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	for _, name := range chromeNames {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no Chrome or Chromium installation found; set %s", EnvChromePath)
}

// ChromeVersion reports the version string of the binary at path.
func ChromeVersion(ctx context.Context, path string) (string, error) {
	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("failed to query %s version: %w", path, err)
	}
	return ParseChromeVersion(string(out))
}

// ParseChromeVersion extracts the dotted version from --version output,
// e.g. "Google Chrome 126.0.6478.126" or "Chromium 120.0.6099.224 snap".
func ParseChromeVersion(output string) (string, error) {
	v := versionPattern.FindString(output)
	if v == "" {
		return "", fmt.Errorf("no version found in %q", strings.TrimSpace(output))
	}
	return v, nil
}

// VerifyInstallation locates Chrome and confirms it answers a version
// query. Called once at startup so a missing browser fails fast instead
// of mid-run.
func VerifyInstallation(ctx context.Context) (path, version string, err error) {
	path, err = FindChrome()
	if err != nil {
		return "", "", err
	}

	version, err = ChromeVersion(ctx, path)
	if err != nil {
		return path, "", err
	}

	return path, version, nil
}
