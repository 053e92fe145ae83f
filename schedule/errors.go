package schedule

import "errors"

var (
	// ErrInvalidTime indicates an hour or minute is out of range.
	ErrInvalidTime = errors.New("invalid time of day")
	// ErrInvalidWeekday indicates an unrecognized weekday value.
	ErrInvalidWeekday = errors.New("invalid weekday")
	// ErrInvalidSchedule indicates a schedule failed validation.
	ErrInvalidSchedule = errors.New("invalid schedule")
	// ErrScheduleNotFound indicates the requested schedule is missing.
	ErrScheduleNotFound = errors.New("schedule not found")
)
