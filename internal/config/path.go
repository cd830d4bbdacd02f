package config

import (
	"os"
	"path/filepath"
)

// DefaultDataDir returns the default embedded-store directory based on the
// host OS. It prefers standard locations when available and falls back to
// a dotdir in the user's home directory.
func DefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return "./data"
	}

	// XDG (Linux) override
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "qbridge")
	}

	if isDir("/var/lib") {
		return "/var/lib/qbridge"
	}

	// macOS: ~/Library/Application Support/QBridge
	if isDir(filepath.Join(homeDir, "Library")) {
		return filepath.Join(homeDir, "Library", "Application Support", "QBridge")
	}

	// Windows: %USERPROFILE%/AppData/Local/QBridge
	if isDir(filepath.Join(homeDir, "AppData")) {
		return filepath.Join(homeDir, "AppData", "Local", "QBridge")
	}

	return filepath.Join(homeDir, ".qbridge")
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
