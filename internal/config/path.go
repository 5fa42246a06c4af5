// Package config loads ledger settings from viper and the environment.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// AppName names the configuration and data directories.
const AppName = "ledger"

// ExpandPath resolves a leading ~ to the home directory and expands
// environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = home + path[1:]
		}
	}
	return filepath.Clean(os.ExpandEnv(path))
}

// ConfigDir is $XDG_CONFIG_HOME/ledger, falling back to ~/.config/ledger.
func ConfigDir() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", "~/.config"), AppName)
}

// DefaultDatabasePath is $XDG_DATA_HOME/ledger/ledger.db, falling back to
// ~/.local/share/ledger/ledger.db.
func DefaultDatabasePath() string {
	return filepath.Join(xdgDir("XDG_DATA_HOME", "~/.local/share"), AppName, "ledger.db")
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); filepath.IsAbs(dir) {
		return dir
	}
	return ExpandPath(fallback)
}
