package ui

import (
	"fmt"
	"time"
)

// FormatDurationShort formats a duration using short units (s/m/h/d).
func FormatDurationShort(duration time.Duration) string {
	if duration < 0 {
		duration = 0
	}

	duration = duration.Truncate(time.Second)
	seconds := int64(duration.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}

	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}

	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%dh%02dm", hours, minutes%60)
	}

	days := hours / 24
	return fmt.Sprintf("%dd%dh", days, hours%24)
}

// FormatTimeUntil returns a compact countdown string like "in 2m".
func FormatTimeUntil(then time.Time, now time.Time) string {
	if then.IsZero() || !then.After(now) {
		return "-"
	}
	return "in " + FormatDurationShort(then.Sub(now))
}

// FormatWallClock formats a timestamp as a short local wall-clock label.
func FormatWallClock(at time.Time) string {
	if at.IsZero() {
		return "-"
	}
	return at.Format("Mon 15:04")
}
