package stats

import (
	"fmt"
	"time"
)

// Period selects a reporting window size.
type Period string

const (
	// PeriodDay is a single calendar day.
	PeriodDay Period = "day"
	// PeriodWeek is a calendar week starting on Monday.
	PeriodWeek Period = "week"
	// PeriodMonth is a calendar month.
	PeriodMonth Period = "month"
	// PeriodYear is a calendar year.
	PeriodYear Period = "year"
)

// ValidPeriods returns all valid period values.
func ValidPeriods() []Period {
	return []Period{PeriodDay, PeriodWeek, PeriodMonth, PeriodYear}
}

// IsValid returns true if the period is a known value.
func (p Period) IsValid() bool {
	for _, valid := range ValidPeriods() {
		if p == valid {
			return true
		}
	}
	return false
}

// ErrInvalidPeriod indicates an unrecognized period value.
var ErrInvalidPeriod = fmt.Errorf("invalid period")

// ParsePeriod parses a period name.
func ParsePeriod(value string) (Period, error) {
	p := Period(value)
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q (valid: day, week, month, year)", ErrInvalidPeriod, value)
	}
	return p, nil
}

// DateRange returns the half-open interval [start, end) for the period
// containing the reference time, shifted by offset periods. Offset 0 is
// the current period; negative offsets step backward. Weeks start on
// Monday.
func (p Period) DateRange(reference time.Time, offset int) (time.Time, time.Time) {
	midnight := time.Date(reference.Year(), reference.Month(), reference.Day(), 0, 0, 0, 0, reference.Location())

	switch p {
	case PeriodWeek:
		sinceMonday := (int(midnight.Weekday()) + 6) % 7
		start := midnight.AddDate(0, 0, -sinceMonday+7*offset)
		return start, start.AddDate(0, 0, 7)
	case PeriodMonth:
		start := time.Date(reference.Year(), reference.Month(), 1, 0, 0, 0, 0, reference.Location()).AddDate(0, offset, 0)
		return start, start.AddDate(0, 1, 0)
	case PeriodYear:
		start := time.Date(reference.Year()+offset, time.January, 1, 0, 0, 0, 0, reference.Location())
		return start, start.AddDate(1, 0, 0)
	default:
		start := midnight.AddDate(0, 0, offset)
		return start, start.AddDate(0, 0, 1)
	}
}
