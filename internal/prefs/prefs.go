// Package prefs persists cattlelens user preferences.
// Preferences are stored in ~/.config/cattlelens/prefs.toml.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences.
type Prefs struct {
	Theme string `toml:"theme"`
	// LastImageDir is the directory of the most recently classified image,
	// used to prefill the path input.
	LastImageDir string `toml:"last_image_dir,omitempty"`
}

const (
	defaultPrefsPath = "~/.config/cattlelens/prefs.toml"
	defaultTheme     = "Pasture"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from path. Preferences never stop the app from
// starting: a missing, unreadable or invalid file yields defaults, and a
// remembered directory that no longer exists is dropped.
func Load(path string) (Prefs, error) {
	defaults := Prefs{Theme: defaultTheme}

	resolved, err := resolvePath(path)
	if err != nil {
		return defaults, nil
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return defaults, nil
	}

	var p Prefs
	if err := toml.Unmarshal(data, &p); err != nil {
		return defaults, nil
	}

	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = defaultTheme
	}
	p.LastImageDir = existingDir(p.LastImageDir)
	return p, nil
}

// Save writes preferences to path, creating directories as needed. The file
// is replaced atomically.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("create temp prefs: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod prefs: %w", err)
	}
	if err := os.Rename(tmpName, resolved); err != nil {
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}

// existingDir expands dir and returns it only if it is still a directory.
func existingDir(dir string) string {
	if strings.TrimSpace(dir) == "" {
		return ""
	}
	expanded, err := expandPath(dir)
	if err != nil {
		return ""
	}
	info, err := os.Stat(expanded)
	if err != nil || !info.IsDir() {
		return ""
	}
	return expanded
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if rest, ok := strings.CutPrefix(trimmed, "~"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, rest)
	}
	return filepath.Abs(trimmed)
}
