package main

import (
	"fmt"
	"time"

	"github.com/amonks/blockhour/internal/paths"
	"github.com/amonks/blockhour/internal/ui"
	"github.com/amonks/blockhour/stats"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show recorded blocking time",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var (
	statsPeriod   string
	statsOffset   int
	statsSessions bool
)

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVar(&statsPeriod, "period", "day", "Reporting period: day, week, month, or year")
	statsCmd.Flags().IntVar(&statsOffset, "offset", 0, "Period offset: 0 is current, -1 is previous")
	statsCmd.Flags().BoolVar(&statsSessions, "sessions", false, "List individual sessions")
}

func runStats(cmd *cobra.Command, args []string) error {
	_, stateDir, err := loadConfig()
	if err != nil {
		return err
	}

	period, err := stats.ParsePeriod(statsPeriod)
	if err != nil {
		return err
	}

	// Read-only: a running daemon owns the ledger files.
	ledger := stats.Open(paths.StatsDir(stateDir), stats.Options{ReadOnly: true})

	totals := ledger.Totals(period, statsOffset)
	fmt.Printf("Active: %s  Snoozed: %s  Sleeping: %s  Total: %s\n",
		ui.FormatDurationShort(totals.Active),
		ui.FormatDurationShort(totals.Snoozed),
		ui.FormatDurationShort(totals.Sleeping),
		ui.FormatDurationShort(totals.Total()))

	if !statsSessions {
		return nil
	}

	sessions := ledger.Sessions(period, statsOffset)
	if len(sessions) == 0 {
		fmt.Println("No sessions in this period.")
		return nil
	}

	now := time.Now()
	builder := ui.NewTableBuilder([]string{"SCHEDULE", "STARTED", "ENDED", "STATE", "ACTIVE"}, len(sessions))
	for i := range sessions {
		session := &sessions[i]
		ended := "-"
		if at, ok := session.EndedAt(); ok {
			ended = ui.FormatWallClock(at)
		}
		builder.AddRow([]string{
			session.ScheduleName,
			ui.FormatWallClock(session.CreatedAt),
			ended,
			string(session.CurrentState()),
			ui.FormatDurationShort(session.Totals(now).Active),
		})
	}
	fmt.Print(builder.String())
	return nil
}
