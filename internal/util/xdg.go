package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetXDGConfigDir returns the configuration directory for timecode.
// It respects XDG_CONFIG_HOME if set, otherwise falls back to ~/.config/timecode
func GetXDGConfigDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "timecode"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "timecode"), nil
}
