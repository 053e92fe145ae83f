// Package paths resolves the default blockhour directories.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultStateDir returns the default blockhour state directory.
func DefaultStateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	return filepath.Join(home, ".local", "state", "blockhour"), nil
}

// StatsDir returns the session ledger directory under a state directory.
func StatsDir(stateDir string) string {
	return filepath.Join(stateDir, "stats")
}

// SchedulesPath returns the schedule definitions file under a state directory.
func SchedulesPath(stateDir string) string {
	return filepath.Join(stateDir, "schedules.toml")
}

// GlobalConfigPath returns the path of the global config file.
func GlobalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "blockhour", "config.toml"), nil
}
