package config

import (
	"os"
	"path/filepath"
)

const appDir = "jsonlog"

// DefaultDataDir returns the directory holding the blob emulator's data.
// XDG_DATA_HOME wins, then the platform's conventional per-user location,
// then ~/.jsonlog. Without a home directory it falls back to ./data.
func DefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return "./data"
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir)
	}
	candidates := []struct{ probe, dir string }{
		{filepath.Join(homeDir, ".local", "share"), filepath.Join(homeDir, ".local", "share", appDir)},
		{filepath.Join(homeDir, "Library"), filepath.Join(homeDir, "Library", "Application Support", appDir)},
		{filepath.Join(homeDir, "AppData"), filepath.Join(homeDir, "AppData", "Local", appDir)},
	}
	for _, c := range candidates {
		if isDir(c.probe) {
			return c.dir
		}
	}
	return filepath.Join(homeDir, "."+appDir)
}

// ResolveDataDir returns dir, or DefaultDataDir when dir is empty.
func ResolveDataDir(dir string) string {
	if dir != "" {
		return dir
	}
	return DefaultDataDir()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
