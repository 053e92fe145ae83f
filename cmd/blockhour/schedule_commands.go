package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/amonks/blockhour/internal/ui"
	"github.com/amonks/blockhour/schedule"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage blocking schedules",
}

// schedule list
var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all schedules",
	Args:  cobra.NoArgs,
	RunE:  runScheduleList,
}

// schedule add
var scheduleAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a schedule",
	Args:  cobra.ExactArgs(1),
	RunE:  runScheduleAdd,
}

// schedule set
var scheduleSetCmd = &cobra.Command{
	Use:   "set <id>",
	Short: "Change a schedule's fields",
	Args:  cobra.ExactArgs(1),
	RunE:  runScheduleSet,
}

// schedule rm
var scheduleRmCmd = &cobra.Command{
	Use:     "rm <id>",
	Short:   "Remove a schedule",
	Aliases: []string{"remove"},
	Args:    cobra.ExactArgs(1),
	RunE:    runScheduleRm,
}

// schedule enable / disable
var scheduleEnableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Enable a schedule",
	Args:  cobra.ExactArgs(1),
	RunE:  runScheduleEnable,
}

var scheduleDisableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Disable a schedule",
	Args:  cobra.ExactArgs(1),
	RunE:  runScheduleDisable,
}

var (
	scheduleStart    string
	scheduleEnd      string
	scheduleDays     string
	scheduleMessage  string
	scheduleDisabled bool
)

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.AddCommand(scheduleListCmd, scheduleAddCmd, scheduleSetCmd,
		scheduleRmCmd, scheduleEnableCmd, scheduleDisableCmd)

	registerWindowFlags(scheduleAddCmd.Flags())
	registerWindowFlags(scheduleSetCmd.Flags())
	scheduleAddCmd.Flags().BoolVar(&scheduleDisabled, "disabled", false, "Create the schedule disabled")
}

// registerWindowFlags registers the window-shape flags shared by add
// and set.
func registerWindowFlags(flags *pflag.FlagSet) {
	flags.StringVar(&scheduleStart, "start", "", "Window start time (HH:MM)")
	flags.StringVar(&scheduleEnd, "end", "", "Window end time (HH:MM)")
	flags.StringVar(&scheduleDays, "days", "", "Comma-separated weekdays (mon,tue,...), or daily/weekdays")
	flags.StringVar(&scheduleMessage, "message", "", "Message shown on the block screen")
}

func runScheduleAdd(cmd *cobra.Command, args []string) error {
	store, err := openScheduleStore()
	if err != nil {
		return err
	}

	if scheduleStart == "" || scheduleEnd == "" {
		return fmt.Errorf("--start and --end are required")
	}
	start, err := schedule.ParseTimeOfDay(scheduleStart)
	if err != nil {
		return err
	}
	end, err := schedule.ParseTimeOfDay(scheduleEnd)
	if err != nil {
		return err
	}

	daysSpec := scheduleDays
	if daysSpec == "" {
		daysSpec = "daily"
	}
	days, err := parseDaysFlag(daysSpec)
	if err != nil {
		return err
	}

	id, err := store.Add(schedule.Schedule{
		Name:     args[0],
		Message:  scheduleMessage,
		Start:    start,
		End:      end,
		Weekdays: days,
		Enabled:  !scheduleDisabled,
	})
	if err != nil {
		return err
	}

	fmt.Println(id)
	return nil
}

func runScheduleList(cmd *cobra.Command, args []string) error {
	store, err := openScheduleStore()
	if err != nil {
		return err
	}

	schedules, err := store.Schedules()
	if err != nil {
		return err
	}
	if len(schedules) == 0 {
		fmt.Println("No schedules configured.")
		return nil
	}

	ids := make([]string, 0, len(schedules))
	for _, sched := range schedules {
		ids = append(ids, sched.ID)
	}
	prefixes := ui.UniqueIDPrefixLengths(ids)

	now := time.Now()
	rows := make([][]string, 0, len(schedules))
	for _, sched := range schedules {
		window := sched.Start.String() + "-" + sched.End.String()
		if sched.Overnight() {
			window += " (overnight)"
		}
		enabled := "yes"
		if !sched.Enabled {
			enabled = "no"
		}
		next := "-"
		if start, ok := sched.NextStart(now); ok {
			next = ui.FormatWallClock(start)
		}
		rows = append(rows, []string{
			ui.HighlightID(sched.ID, prefixes[strings.ToLower(sched.ID)]),
			sched.Name,
			window,
			schedule.FormatWeekdays(sched.Weekdays),
			enabled,
			next,
			ui.TruncateTableCell(sched.Message),
		})
	}

	fmt.Print(ui.FormatTable([]string{"ID", "NAME", "WINDOW", "DAYS", "ENABLED", "NEXT", "MESSAGE"}, rows))
	return nil
}

func runScheduleSet(cmd *cobra.Command, args []string) error {
	store, err := openScheduleStore()
	if err != nil {
		return err
	}

	id, err := resolveScheduleID(store, args[0])
	if err != nil {
		return err
	}

	var start, end schedule.TimeOfDay
	var days []time.Weekday
	if cmd.Flags().Changed("start") {
		if start, err = schedule.ParseTimeOfDay(scheduleStart); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("end") {
		if end, err = schedule.ParseTimeOfDay(scheduleEnd); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("days") {
		if days, err = parseDaysFlag(scheduleDays); err != nil {
			return err
		}
	}

	return store.Update(id, func(sched *schedule.Schedule) {
		if cmd.Flags().Changed("start") {
			sched.Start = start
		}
		if cmd.Flags().Changed("end") {
			sched.End = end
		}
		if cmd.Flags().Changed("days") {
			sched.Weekdays = days
		}
		if cmd.Flags().Changed("message") {
			sched.Message = scheduleMessage
		}
	})
}

func runScheduleRm(cmd *cobra.Command, args []string) error {
	store, err := openScheduleStore()
	if err != nil {
		return err
	}
	id, err := resolveScheduleID(store, args[0])
	if err != nil {
		return err
	}
	return store.Remove(id)
}

func runScheduleEnable(cmd *cobra.Command, args []string) error {
	return setScheduleEnabled(args[0], true)
}

func runScheduleDisable(cmd *cobra.Command, args []string) error {
	return setScheduleEnabled(args[0], false)
}

func setScheduleEnabled(ref string, enabled bool) error {
	store, err := openScheduleStore()
	if err != nil {
		return err
	}
	id, err := resolveScheduleID(store, ref)
	if err != nil {
		return err
	}
	return store.SetEnabled(id, enabled)
}

// resolveScheduleID resolves a schedule reference: an id, a unique id
// prefix, or an exact name.
func resolveScheduleID(store *schedule.Store, ref string) (string, error) {
	schedules, err := store.Schedules()
	if err != nil {
		return "", err
	}

	lowered := strings.ToLower(ref)
	var matches []string
	for _, sched := range schedules {
		if sched.ID == lowered {
			return sched.ID, nil
		}
		if strings.HasPrefix(sched.ID, lowered) || sched.Name == ref {
			matches = append(matches, sched.ID)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", fmt.Errorf("%w: %q", schedule.ErrScheduleNotFound, ref)
	default:
		return "", fmt.Errorf("ambiguous schedule reference %q matches %d schedules", ref, len(matches))
	}
}

// parseDaysFlag parses the --days flag, accepting the shorthand values
// daily and weekdays alongside a comma-separated weekday list.
func parseDaysFlag(value string) ([]time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "daily", "all":
		return []time.Weekday{
			time.Sunday, time.Monday, time.Tuesday, time.Wednesday,
			time.Thursday, time.Friday, time.Saturday,
		}, nil
	case "weekdays":
		return []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		}, nil
	}
	return schedule.ParseWeekdays(value)
}
