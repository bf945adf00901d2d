package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// AppName names the config, cache and state directories.
const AppName = "appkit"

// UserConfigPath returns the path to the user-level config file.
// This follows the XDG Base Directory Specification:
// - Linux: ~/.config/appkit/config.yml
// - macOS: ~/Library/Application Support/appkit/config.yml
// - Windows: %LOCALAPPDATA%\appkit\config.yml
func UserConfigPath() string {
	return filepath.Join(UserConfigDir(), "config.yml")
}

// UserConfigDir returns the path to the user-level config directory.
func UserConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ProjectConfigPath returns the path to the project-level config file.
// This is always .appkit/config.yml relative to the current directory.
func ProjectConfigPath() string {
	return filepath.Join(ProjectConfigDir(), "config.yml")
}

// ProjectConfigDir returns the path to the project-level config directory.
func ProjectConfigDir() string {
	return ".appkit"
}

// LegacyUserConfigPath returns the path to the legacy user-level JSON config file.
// This was the old location: ~/.appkit/config.json
func LegacyUserConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".appkit", "config.json"), nil
}

// DefaultCacheDir returns the root of the template cache,
// $XDG_CACHE_HOME/appkit/templates.
func DefaultCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName, "templates")
}
