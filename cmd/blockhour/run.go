package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/amonks/blockhour/blocker"
	"github.com/amonks/blockhour/internal/overlay"
	"github.com/amonks/blockhour/internal/paths"
	"github.com/amonks/blockhour/schedule"
	"github.com/amonks/blockhour/stats"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the blocking daemon",
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// overlayControls routes overlay keybindings onto the runner's control
// goroutine. The runner field is assigned after construction, before
// the loop starts.
type overlayControls struct {
	runner *blocker.Runner
}

func (c *overlayControls) Snooze(minutes int) {
	if c.runner != nil {
		c.runner.Snooze(minutes)
	}
}

func (c *overlayControls) ExitEarly() {
	if c.runner != nil {
		c.runner.ExitEarly()
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, stateDir, err := loadConfig()
	if err != nil {
		return err
	}

	logger := blocker.NewConsoleLogger(os.Stdout)
	ledger := stats.Open(paths.StatsDir(stateDir), stats.Options{Logger: logger})
	store := schedule.NewStore(paths.SchedulesPath(stateDir))

	controls := &overlayControls{}
	manager := blocker.NewManager(blocker.ManagerOptions{
		Schedules: store,
		Ledger:    ledger,
		Renderer:  overlay.New(controls, cfg.SnoozeMinutes),
		Logger:    logger,
	})
	runner := blocker.NewRunner(manager, blocker.RunnerOptions{
		Interval: cfg.TickInterval(),
	})
	controls.runner = runner

	schedules, err := store.Schedules()
	if err != nil {
		return fmt.Errorf("read schedules: %w", err)
	}
	fmt.Printf("blockhour: enforcing %d schedule(s), state in %s\n", len(schedules), stateDir)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runner.Run(ctx); !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
