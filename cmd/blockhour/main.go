// Package main implements the blockhour CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/amonks/blockhour/internal/config"
	"github.com/amonks/blockhour/internal/paths"
	"github.com/amonks/blockhour/schedule"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "blockhour",
	Short: "Blockhour - scheduled screen blocking",
}

// loadConfig loads the global config and resolves the state directory,
// creating it if needed.
func loadConfig() (*config.Config, string, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, "", err
	}

	stateDir, err := cfg.ResolveStateDir()
	if err != nil {
		return nil, "", err
	}
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create state dir: %w", err)
	}
	return cfg, stateDir, nil
}

// openScheduleStore returns the schedule store for the configured state
// directory.
func openScheduleStore() (*schedule.Store, error) {
	_, stateDir, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return schedule.NewStore(paths.SchedulesPath(stateDir)), nil
}
