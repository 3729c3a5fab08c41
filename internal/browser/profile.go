// internal/browser/profile.go
package browser

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// Profile describes one Chrome user profile.
type Profile struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
	IsDefault   bool   `json:"is_default"`
}

// Directory entries under the user data dir that are not user profiles.
var systemProfiles = map[string]bool{
	"System Profile":    true,
	"Guest Profile":     true,
	"Crashpad":          true,
	"Metrics Reporting": true,
	"ShaderCache":       true,
	"GrShaderCache":     true,
	"WidevineCdm":       true,
	"MEIPreload":        true,
	"Cache":             true,
	"Code Cache":        true,
	"GPUCache":          true,
	"Service Worker":    true,
	"DawnCache":         true,
}

// ProfileManager discovers Chrome user profiles on the local machine.
type ProfileManager struct {
	userDataDir string
}

// NewProfileManager creates a manager rooted at userDataDir. An empty
// dir triggers platform discovery.
func NewProfileManager(userDataDir string) *ProfileManager {
	return &ProfileManager{userDataDir: userDataDir}
}

// UserDataDir returns the resolved Chrome user data directory.
func (pm *ProfileManager) UserDataDir() (string, error) {
	if pm.userDataDir != "" {
		return pm.userDataDir, nil
	}

	for _, dir := range defaultUserDataDirs() {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
	}

	return "", fmt.Errorf("no Chrome user data directory found")
}

// defaultUserDataDirs lists the known user data locations per platform.
func defaultUserDataDirs() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	switch runtime.GOOS {
	case "windows":
		local := os.Getenv("LOCALAPPDATA")
		if local == "" {
			local = filepath.Join(home, "AppData", "Local")
		}
		return []string{
			filepath.Join(local, "Google", "Chrome", "User Data"),
			filepath.Join(local, "Chromium", "User Data"),
		}
	case "darwin":
		return []string{
			filepath.Join(home, "Library", "Application Support", "Google", "Chrome"),
			filepath.Join(home, "Library", "Application Support", "Chromium"),
		}
	default:
		return []string{
			filepath.Join(home, ".config", "google-chrome"),
			filepath.Join(home, ".config", "chromium"),
		}
	}
}

// Profiles enumerates the user profiles under the data directory.
// Entries without a Preferences file and unnumbered directories are
// skipped along with known system directories.
func (pm *ProfileManager) Profiles() ([]Profile, error) {
	dir, err := pm.UserDataDir()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read user data directory: %w", err)
	}

	var profiles []Profile
	for _, entry := range entries {
		if !entry.IsDir() || systemProfiles[entry.Name()] {
			continue
		}
		if !isProfileDir(filepath.Join(dir, entry.Name()), entry.Name()) {
			continue
		}

		p := Profile{
			Name:      entry.Name(),
			Path:      filepath.Join(dir, entry.Name()),
			IsDefault: entry.Name() == "Default",
		}
		readProfilePreferences(&p)
		profiles = append(profiles, p)
	}

	sort.Slice(profiles, func(i, j int) bool {
		// Default first, then lexical.
		if profiles[i].IsDefault != profiles[j].IsDefault {
			return profiles[i].IsDefault
		}
		return profiles[i].Name < profiles[j].Name
	})

	return profiles, nil
}

// DefaultProfile returns the Default profile, or the first discovered
// profile when none is named Default.
func (pm *ProfileManager) DefaultProfile() (*Profile, error) {
	profiles, err := pm.Profiles()
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("no Chrome profiles found")
	}
	return &profiles[0], nil
}

// FindProfile returns the profile whose directory or display name
// matches name, case-insensitively.
func (pm *ProfileManager) FindProfile(name string) (*Profile, error) {
	profiles, err := pm.Profiles()
	if err != nil {
		return nil, err
	}

	for i := range profiles {
		if strings.EqualFold(profiles[i].Name, name) || strings.EqualFold(profiles[i].DisplayName, name) {
			return &profiles[i], nil
		}
	}

	return nil, fmt.Errorf("profile %q not found", name)
}

// isProfileDir applies Chrome's profile directory naming: "Default" or
// "Profile <n>", and anything else only when it carries a Preferences file.
func isProfileDir(path, name string) bool {
	if name == "Default" {
		return true
	}
	if rest, ok := strings.CutPrefix(name, "Profile "); ok {
		for _, r := range rest {
			if r < '0' || r > '9' {
				return false
			}
		}
		return rest != ""
	}
	_, err := os.Stat(filepath.Join(path, "Preferences"))
	return err == nil
}

// preferencesFile is the subset of Chrome's Preferences JSON we read.
type preferencesFile struct {
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
	AccountInfo []struct {
		Email    string `json:"email"`
		FullName string `json:"full_name"`
	} `json:"account_info"`
}

// readProfilePreferences fills display name and email from the profile's
// Preferences file. Missing or malformed files leave the fields empty.
func readProfilePreferences(p *Profile) {
	data, err := os.ReadFile(filepath.Join(p.Path, "Preferences"))
	if err != nil {
		return
	}

	var prefs preferencesFile
	if err := json.Unmarshal(data, &prefs); err != nil {
		return
	}

	p.DisplayName = prefs.Profile.Name
	if len(prefs.AccountInfo) > 0 {
		p.Email = prefs.AccountInfo[0].Email
		if p.DisplayName == "" {
			p.DisplayName = prefs.AccountInfo[0].FullName
		}
	}
}
