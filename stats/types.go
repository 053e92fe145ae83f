// Package stats implements the event-sourced block session ledger.
//
// Every blocked span is recorded as a BlockSession holding an ordered,
// append-only sequence of BlockEvents. Sessions are persisted in one
// JSON file per calendar month, keyed by the month of the session's
// creation time, and recovered on startup.
package stats

import "time"

// State is the state recorded by a block event.
type State string

const (
	// StateActive indicates the block is being enforced.
	StateActive State = "active"
	// StateSnoozed indicates the block is postponed by a snooze grant.
	StateSnoozed State = "snoozed"
	// StateSleeping indicates the system was asleep during the block.
	StateSleeping State = "sleeping"
	// StateEnded indicates the session is closed.
	StateEnded State = "ended"
)

// ValidStates returns all valid event states.
func ValidStates() []State {
	return []State{StateActive, StateSnoozed, StateSleeping, StateEnded}
}

// IsValid returns true if the state is a known value.
func (s State) IsValid() bool {
	for _, valid := range ValidStates() {
		if s == valid {
			return true
		}
	}
	return false
}

// EndReason explains why a session ended. Meaningful only on events
// with StateEnded.
type EndReason string

const (
	// ReasonCompleted indicates the block ran to its natural end.
	ReasonCompleted EndReason = "completed"
	// ReasonExited indicates the user ended the block early.
	ReasonExited EndReason = "exited"
	// ReasonCancelled indicates the block was cancelled before enforcement.
	ReasonCancelled EndReason = "cancelled"
	// ReasonError indicates the session was closed by crash recovery.
	ReasonError EndReason = "error"
)

// ValidEndReasons returns all valid end reasons.
func ValidEndReasons() []EndReason {
	return []EndReason{ReasonCompleted, ReasonExited, ReasonCancelled, ReasonError}
}

// IsValid returns true if the reason is a known value.
func (r EndReason) IsValid() bool {
	for _, valid := range ValidEndReasons() {
		if r == valid {
			return true
		}
	}
	return false
}

// BlockEvent is one lifecycle transition within a session.
type BlockEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	State     State     `json:"state"`
	EndReason EndReason `json:"end_reason,omitempty"`
}

// BlockSession records one blocked span as an event sequence. Events
// are strictly non-decreasing in timestamp and the first event is
// always active.
type BlockSession struct {
	ID            string       `json:"id"`
	ScheduleName  string       `json:"schedule_name"`
	ScheduleID    string       `json:"schedule_id,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	LastUpdatedAt time.Time    `json:"last_updated_at"`
	Events        []BlockEvent `json:"events"`
}

// CurrentState returns the state of the last event, or StateEnded for
// an empty event sequence (only possible transiently).
func (s *BlockSession) CurrentState() State {
	if len(s.Events) == 0 {
		return StateEnded
	}
	return s.Events[len(s.Events)-1].State
}

// IsOpen reports whether the session has not ended.
func (s *BlockSession) IsOpen() bool {
	return s.CurrentState() != StateEnded
}

// EndedAt returns the closing timestamp of an ended session.
func (s *BlockSession) EndedAt() (time.Time, bool) {
	if len(s.Events) == 0 || s.IsOpen() {
		return time.Time{}, false
	}
	return s.Events[len(s.Events)-1].Timestamp, true
}

// Span returns the session's time range. Open sessions extend to now.
func (s *BlockSession) Span(now time.Time) (time.Time, time.Time) {
	start := s.CreatedAt
	if ended, ok := s.EndedAt(); ok {
		return start, ended
	}
	return start, now
}

// BlockTotals sums time spent per state over a reporting range.
type BlockTotals struct {
	Active   time.Duration `json:"active"`
	Snoozed  time.Duration `json:"snoozed"`
	Sleeping time.Duration `json:"sleeping"`
}

// Total returns the sum of all tracked states.
func (t BlockTotals) Total() time.Duration {
	return t.Active + t.Snoozed + t.Sleeping
}

// Add accumulates another totals value.
func (t *BlockTotals) Add(other BlockTotals) {
	t.Active += other.Active
	t.Snoozed += other.Snoozed
	t.Sleeping += other.Sleeping
}

// Totals attributes each inter-event interval to the earlier event's
// state. An unterminated trailing event is attributed up to now.
func (s *BlockSession) Totals(now time.Time) BlockTotals {
	return s.TotalsInRange(time.Time{}, time.Time{}, now)
}

// TotalsInRange computes totals clamped to the half-open range
// [from, to). Zero boundaries leave that side unclamped. Negative
// clamped intervals contribute nothing.
func (s *BlockSession) TotalsInRange(from, to, now time.Time) BlockTotals {
	var totals BlockTotals
	for i, event := range s.Events {
		if event.State == StateEnded {
			break
		}

		var segmentEnd time.Time
		if i+1 < len(s.Events) {
			segmentEnd = s.Events[i+1].Timestamp
		} else {
			segmentEnd = now
		}

		duration := clampInterval(event.Timestamp, segmentEnd, from, to)
		switch event.State {
		case StateActive:
			totals.Active += duration
		case StateSnoozed:
			totals.Snoozed += duration
		case StateSleeping:
			totals.Sleeping += duration
		}
	}
	return totals
}

func clampInterval(start, end, from, to time.Time) time.Duration {
	if !from.IsZero() && start.Before(from) {
		start = from
	}
	if !to.IsZero() && end.After(to) {
		end = to
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start)
}
