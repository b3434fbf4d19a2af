package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// GetHome returns the suzerain home directory
// Priority order:
//  1. SUZERAIN_HOME environment variable (if set)
//  2. ~/.suzerain
//
// The directory is created if it doesn't exist
func GetHome() (string, error) {
	home := os.Getenv("SUZERAIN_HOME")
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve user home directory: %w", err)
		}
		home = filepath.Join(userHome, ".suzerain")
	}

	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create suzerain home directory: %w", err)
	}
	return home, nil
}

// ConfigPath returns $SUZERAIN_HOME/config.yaml
func ConfigPath() (string, error) {
	home, err := GetHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "config.yaml"), nil
}

// DBPath returns the absolute path to the classification database
// Always returns: $SUZERAIN_HOME/suzerain.db
func DBPath() (string, error) {
	home, err := GetHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "suzerain.db"), nil
}

// PendingDir returns the directory holding shares that could not be delivered
func PendingDir() (string, error) {
	home, err := GetHome()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(home, "pending")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create pending directory: %w", err)
	}
	return dir, nil
}

// LocksDir returns the directory holding per-user lock files
func LocksDir() (string, error) {
	home, err := GetHome()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(home, "locks")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create locks directory: %w", err)
	}
	return dir, nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home directory: %w", err)
	}
	return filepath.Join(userHome, strings.TrimPrefix(path, "~")), nil
}

// ResolveUserID returns the configured user id or the OS account name.
func (c *Config) ResolveUserID() string {
	if c.UserID != "" {
		return c.UserID
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "local"
}
