// internal/browser/profile_test.go
package browser

import (
	"os"
	"path/filepath"
	"testing"
)

// writeProfile lays down a fake Chrome profile directory with an
// optional Preferences payload.
func writeProfile(t *testing.T, root, name, prefs string) {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if prefs != "" {
		if err := os.WriteFile(filepath.Join(dir, "Preferences"), []byte(prefs), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestProfilesDiscovery(t *testing.T) {
	root := t.TempDir()

	writeProfile(t, root, "Default", `{"profile":{"name":"Personal"},"account_info":[{"email":"me@example.com","full_name":"Me"}]}`)
	writeProfile(t, root, "Profile 1", `{"profile":{"name":"Work"}}`)
	writeProfile(t, root, "Profile 2", "")
	writeProfile(t, root, "System Profile", `{}`)
	writeProfile(t, root, "GPUCache", "")
	writeProfile(t, root, "RandomDir", "")

	pm := NewProfileManager(root)
	profiles, err := pm.Profiles()
	if err != nil {
		t.Fatalf("Profiles failed: %v", err)
	}

	if len(profiles) != 3 {
		names := make([]string, len(profiles))
		for i, p := range profiles {
			names[i] = p.Name
		}
		t.Fatalf("got %d profiles %v, want 3", len(profiles), names)
	}

	if !profiles[0].IsDefault || profiles[0].Name != "Default" {
		t.Errorf("first profile = %+v, want Default", profiles[0])
	}
	if profiles[0].DisplayName != "Personal" {
		t.Errorf("display name = %q, want Personal", profiles[0].DisplayName)
	}
	if profiles[0].Email != "me@example.com" {
		t.Errorf("email = %q, want me@example.com", profiles[0].Email)
	}
}

func TestProfilesMalformedPreferences(t *testing.T) {
	root := t.TempDir()
	writeProfile(t, root, "Default", "{not json")

	pm := NewProfileManager(root)
	profiles, err := pm.Profiles()
	if err != nil {
		t.Fatalf("Profiles failed: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("got %d profiles, want 1", len(profiles))
	}
	if profiles[0].DisplayName != "" {
		t.Errorf("display name = %q, want empty for malformed prefs", profiles[0].DisplayName)
	}
}

func TestFindProfile(t *testing.T) {
	root := t.TempDir()
	writeProfile(t, root, "Default", `{"profile":{"name":"Personal"}}`)
	writeProfile(t, root, "Profile 1", `{"profile":{"name":"Work"}}`)

	pm := NewProfileManager(root)

	p, err := pm.FindProfile("work")
	if err != nil {
		t.Fatalf("FindProfile failed: %v", err)
	}
	if p.Name != "Profile 1" {
		t.Errorf("found %q, want Profile 1", p.Name)
	}

	if _, err := pm.FindProfile("missing"); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestDefaultProfile(t *testing.T) {
	root := t.TempDir()
	writeProfile(t, root, "Profile 3", `{"profile":{"name":"Only"}}`)

	pm := NewProfileManager(root)
	p, err := pm.DefaultProfile()
	if err != nil {
		t.Fatalf("DefaultProfile failed: %v", err)
	}
	if p.Name != "Profile 3" {
		t.Errorf("default = %q, want the only existing profile", p.Name)
	}
}

func TestUserDataDirMissing(t *testing.T) {
	pm := NewProfileManager(filepath.Join(t.TempDir(), "gone"))
	if _, err := pm.Profiles(); err == nil {
		t.Error("expected error for missing user data dir")
	}
}
