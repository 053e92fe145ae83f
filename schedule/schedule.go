// Package schedule implements recurring screen-block window definitions.
//
// A Schedule describes one recurring block window: a start and end
// wall-clock time, the weekdays it applies to, and an optional message
// shown while blocking. Windows whose end is at or before their start
// wrap past midnight into the following day.
package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DefaultDegenerateDuration is the window length used when a schedule's
// start and end are identical. A zero-length window is never useful, so
// this fixed default applies; it is a documented policy, not a derived
// invariant.
const DefaultDegenerateDuration = 30 * time.Minute

const minutesPerDay = 24 * 60

// TimeOfDay is a wall-clock time with minute precision.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses a "HH:MM" string.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	var t TimeOfDay
	if _, err := fmt.Sscanf(strings.TrimSpace(value), "%d:%d", &t.Hour, &t.Minute); err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	if err := t.Validate(); err != nil {
		return TimeOfDay{}, err
	}
	return t, nil
}

// Validate checks the hour and minute ranges.
func (t TimeOfDay) Validate() error {
	if t.Hour < 0 || t.Hour > 23 {
		return fmt.Errorf("%w: hour %d out of range", ErrInvalidTime, t.Hour)
	}
	if t.Minute < 0 || t.Minute > 59 {
		return fmt.Errorf("%w: minute %d out of range", ErrInvalidTime, t.Minute)
	}
	return nil
}

// Minutes returns the time as minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// String renders the time as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On places the time of day on the calendar date of at.
func (t TimeOfDay) On(at time.Time) time.Time {
	return time.Date(at.Year(), at.Month(), at.Day(), t.Hour, t.Minute, 0, 0, at.Location())
}

// Schedule is one recurring block window. Schedules are owned by the
// settings store and read-only to the blocking state machine.
type Schedule struct {
	ID       string
	Name     string
	Message  string
	Start    TimeOfDay
	End      TimeOfDay
	Weekdays []time.Weekday
	Enabled  bool
}

// Validate checks the schedule's fields. An empty weekday set is legal;
// such a schedule simply never activates.
func (s Schedule) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSchedule)
	}
	if err := s.Start.Validate(); err != nil {
		return err
	}
	if err := s.End.Validate(); err != nil {
		return err
	}
	seen := map[time.Weekday]bool{}
	for _, day := range s.Weekdays {
		if day < time.Sunday || day > time.Saturday {
			return fmt.Errorf("%w: %d", ErrInvalidWeekday, day)
		}
		if seen[day] {
			return fmt.Errorf("%w: duplicate weekday %s", ErrInvalidSchedule, day)
		}
		seen[day] = true
	}
	return nil
}

// window returns the effective start and end in minutes since
// midnight. Identical start and end resolve to a window of
// DefaultDegenerateDuration from the start.
func (s Schedule) window() (int, int) {
	start, end := s.Start.Minutes(), s.End.Minutes()
	if end == start {
		end = (start + int(DefaultDegenerateDuration/time.Minute)) % minutesPerDay
	}
	return start, end
}

// Overnight reports whether the effective window wraps past midnight.
func (s Schedule) Overnight() bool {
	start, end := s.window()
	return end <= start
}

// Duration returns the window length. Overnight windows wrap past
// midnight; identical start and end resolve to DefaultDegenerateDuration.
func (s Schedule) Duration() time.Duration {
	start, end := s.Start.Minutes(), s.End.Minutes()
	switch {
	case end > start:
		return time.Duration(end-start) * time.Minute
	case end < start:
		return time.Duration(minutesPerDay-start+end) * time.Minute
	default:
		return DefaultDegenerateDuration
	}
}

// EnabledOn reports whether the schedule applies on the given weekday.
func (s Schedule) EnabledOn(day time.Weekday) bool {
	for _, enabled := range s.Weekdays {
		if enabled == day {
			return true
		}
	}
	return false
}

// IsActive reports whether the window covers the given instant.
//
// Non-overnight windows are active for the half-open minute range
// [start, end) on enabled weekdays. Overnight windows have two activity
// regions: at or after start, gated on today's weekday; and before end
// on the following day, gated on the prior day's weekday. The second
// gate uses yesterday because a 22:00-02:00 window enabled on Monday
// must stay active into Tuesday morning even if Tuesday is disabled.
func (s Schedule) IsActive(at time.Time) bool {
	if !s.Enabled {
		return false
	}

	current := at.Hour()*60 + at.Minute()
	start, end := s.window()

	if end > start {
		return s.EnabledOn(at.Weekday()) && current >= start && current < end
	}

	if current >= start {
		return s.EnabledOn(at.Weekday())
	}
	if current < end {
		return s.EnabledOn(at.AddDate(0, 0, -1).Weekday())
	}
	return false
}

// NextStart returns the next time the window opens strictly after the
// given instant. Disabled schedules and schedules with no enabled
// weekday have no next start.
func (s Schedule) NextStart(after time.Time) (time.Time, bool) {
	if !s.Enabled || len(s.Weekdays) == 0 {
		return time.Time{}, false
	}

	if s.EnabledOn(after.Weekday()) {
		todayStart := s.Start.On(after)
		if todayStart.After(after) {
			return todayStart, true
		}
	}

	for offset := 1; offset <= 7; offset++ {
		day := after.AddDate(0, 0, offset)
		if s.EnabledOn(day.Weekday()) {
			return s.Start.On(day), true
		}
	}
	return time.Time{}, false
}

// EndFor returns the window's natural end for the occurrence covering
// or nearest to the given instant: today's end time, rolled to tomorrow
// when the window is overnight and the instant is at or past the start.
func (s Schedule) EndFor(at time.Time) time.Time {
	start, endMinutes := s.window()
	end := TimeOfDay{Hour: endMinutes / 60, Minute: endMinutes % 60}.On(at)
	if endMinutes <= start && at.Hour()*60+at.Minute() >= start {
		end = end.AddDate(0, 0, 1)
	}
	return end
}

// FormatWeekdays renders the weekday set as a compact comma list.
func FormatWeekdays(days []time.Weekday) string {
	if len(days) == 0 {
		return "-"
	}
	sorted := append([]time.Weekday(nil), days...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	names := make([]string, 0, len(sorted))
	for _, day := range sorted {
		names = append(names, strings.ToLower(day.String()[:3]))
	}
	return strings.Join(names, ",")
}

// ParseWeekday parses a weekday name, accepting full names and
// three-letter abbreviations in any case.
func ParseWeekday(value string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(value))
	for day := time.Sunday; day <= time.Saturday; day++ {
		full := strings.ToLower(day.String())
		if name == full || name == full[:3] {
			return day, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, value)
}

// ParseWeekdays parses a comma-separated weekday list, deduplicating.
func ParseWeekdays(value string) ([]time.Weekday, error) {
	var days []time.Weekday
	seen := map[time.Weekday]bool{}
	for _, part := range strings.Split(value, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		day, err := ParseWeekday(part)
		if err != nil {
			return nil, err
		}
		if seen[day] {
			continue
		}
		seen[day] = true
		days = append(days, day)
	}
	return days, nil
}
