// Package xdg provides XDG Base Directory paths for otlib.
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "otlib"

// ConfigDir returns the XDG config directory for otlib.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// DataDir returns the XDG data directory for otlib.
// Checks XDG_DATA_HOME first, falls back to ~/.local/share.
func DataDir() string {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".local", "share")
	}
	return filepath.Join(base, appName)
}

// DefaultConfigFile returns the path consulted when no --config flag is
// given. The file may not exist.
func DefaultConfigFile() string {
	return filepath.Join(ConfigDir(), "otlib.yaml")
}

// DefaultBootFile returns the declaration file consulted when no boot file
// is configured. The file may not exist.
func DefaultBootFile() string {
	return filepath.Join(DataDir(), "boot.decl")
}
