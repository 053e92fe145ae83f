package main

import (
	"fmt"
	"time"

	"github.com/amonks/blockhour/internal/ui"
	"github.com/amonks/blockhour/schedule"
	"github.com/spf13/cobra"
)

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the current or next blocking window",
	Args:  cobra.NoArgs,
	RunE:  runNext,
}

func init() {
	rootCmd.AddCommand(nextCmd)
}

func runNext(cmd *cobra.Command, args []string) error {
	store, err := openScheduleStore()
	if err != nil {
		return err
	}
	schedules, err := store.Schedules()
	if err != nil {
		return err
	}

	now := time.Now()
	for _, sched := range schedules {
		if sched.IsActive(now) {
			fmt.Printf("Blocking now: %s, until %s\n",
				sched.Name, sched.EndFor(now).Format("15:04"))
			return nil
		}
	}

	var nextStart time.Time
	var nextSched schedule.Schedule
	for _, sched := range schedules {
		start, ok := sched.NextStart(now)
		if !ok {
			continue
		}
		if nextStart.IsZero() || start.Before(nextStart) {
			nextStart = start
			nextSched = sched
		}
	}

	if nextStart.IsZero() {
		fmt.Println("No upcoming blocks.")
		return nil
	}

	fmt.Printf("Next block: %s at %s (%s)\n",
		nextSched.Name,
		ui.FormatWallClock(nextStart),
		ui.FormatTimeUntil(nextStart, now))
	return nil
}
