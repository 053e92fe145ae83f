package stats

import (
	"sort"
	"time"

	"github.com/amonks/blockhour/internal/ids"
)

// Logger receives warnings about storage degradation. Ledger failures
// never propagate to the blocking state machine; losing a mutation is
// preferable to interrupting enforcement.
type Logger interface {
	Warningf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warningf(string, ...any) {}

// Options configures a ledger.
type Options struct {
	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time

	// Logger receives storage warnings. Defaults to a no-op.
	Logger Logger

	// ReadOnly skips crash recovery, for query-only callers that must
	// not mutate files while a daemon owns them.
	ReadOnly bool
}

// Ledger owns the currently open session and the durable session
// history. All mutation happens on the single control-loop goroutine.
type Ledger struct {
	store  *Store
	now    func() time.Time
	logger Logger

	open     *BlockSession
	preSleep State
}

// Open creates a ledger over the given directory and runs crash
// recovery: any session left open by a previous process is closed with
// reason error at the recovery timestamp.
func Open(dir string, opts Options) *Ledger {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}

	ledger := &Ledger{
		store:  NewStore(dir),
		now:    opts.Now,
		logger: opts.Logger,
	}
	if !opts.ReadOnly {
		ledger.recover()
	}
	return ledger
}

// recover loads the current and previous month files and force-closes
// any session still open. The process that would have closed it
// normally did not get to run, so the recorded end time is the recovery
// time, not the crash time.
func (l *Ledger) recover() {
	now := l.now()
	for _, month := range []string{MonthKey(now.AddDate(0, -1, 0)), MonthKey(now)} {
		sessions, err := l.store.Load(month)
		if err != nil {
			l.logger.Warningf("stats: month file %s unreadable, treating as empty: %v", month, err)
			continue
		}

		changed := false
		for i := range sessions {
			if !sessions[i].IsOpen() {
				continue
			}
			sessions[i].Events = append(sessions[i].Events, BlockEvent{
				ID:        ids.GenerateWithTimestamp(sessions[i].ID, now, ids.DefaultLength),
				Timestamp: now,
				State:     StateEnded,
				EndReason: ReasonError,
			})
			sessions[i].LastUpdatedAt = now
			changed = true
		}
		if changed {
			if err := l.store.Save(month, sessions); err != nil {
				l.logger.Warningf("stats: recovery write for %s failed: %v", month, err)
			}
		}
	}
}

// HasOpenSession reports whether a session is currently open.
func (l *Ledger) HasOpenSession() bool {
	return l.open != nil
}

// StartSession opens a new session whose first event is active. If a
// session is already open its id is returned unchanged; at most one
// session is open system-wide at any instant.
func (l *Ledger) StartSession(scheduleName, scheduleID string) string {
	if l.open != nil {
		return l.open.ID
	}

	now := l.now()
	session := &BlockSession{
		ID:            ids.GenerateWithTimestamp(scheduleName, now, ids.SessionLength),
		ScheduleName:  scheduleName,
		ScheduleID:    scheduleID,
		CreatedAt:     now,
		LastUpdatedAt: now,
		Events: []BlockEvent{{
			ID:        ids.GenerateWithTimestamp(scheduleName+"/active", now, ids.DefaultLength),
			Timestamp: now,
			State:     StateActive,
		}},
	}
	l.open = session
	l.persist()
	return session.ID
}

// EndSession appends an ended event with the given reason and clears
// the open session. No-op if none is open.
func (l *Ledger) EndSession(reason EndReason) {
	if l.open == nil {
		return
	}
	l.appendEvent(StateEnded, reason)
	l.open = nil
}

// PauseForSnooze appends a snoozed event. Valid only from active;
// silently ignored otherwise.
func (l *Ledger) PauseForSnooze() {
	if l.open == nil || l.open.CurrentState() != StateActive {
		return
	}
	l.appendEvent(StateSnoozed, "")
}

// ResumeFromSnooze appends an active event. Valid only from snoozed;
// silently ignored otherwise.
func (l *Ledger) ResumeFromSnooze() {
	if l.open == nil || l.open.CurrentState() != StateSnoozed {
		return
	}
	l.appendEvent(StateActive, "")
}

// PauseForSleep appends a sleeping event, remembering the pre-sleep
// state so ResumeFromSleep can restore it.
func (l *Ledger) PauseForSleep() {
	if l.open == nil {
		return
	}
	current := l.open.CurrentState()
	if current != StateActive && current != StateSnoozed {
		return
	}
	l.preSleep = current
	l.appendEvent(StateSleeping, "")
}

// ResumeFromSleep appends a restore event after waking. An empty target
// restores the remembered pre-sleep state, falling back to active.
func (l *Ledger) ResumeFromSleep(target State) {
	if l.open == nil || l.open.CurrentState() != StateSleeping {
		return
	}
	if target == "" {
		target = l.preSleep
	}
	if target != StateActive && target != StateSnoozed {
		target = StateActive
	}
	l.preSleep = ""
	l.appendEvent(target, "")
}

// appendEvent appends an event to the open session and persists it.
// Timestamps are forced non-decreasing against the previous event.
func (l *Ledger) appendEvent(state State, reason EndReason) {
	now := l.now()
	if last := l.open.Events[len(l.open.Events)-1].Timestamp; now.Before(last) {
		now = last
	}
	l.open.Events = append(l.open.Events, BlockEvent{
		ID:        ids.GenerateWithTimestamp(l.open.ID+"/"+string(state), now, ids.DefaultLength),
		Timestamp: now,
		State:     state,
		EndReason: reason,
	})
	l.open.LastUpdatedAt = now
	l.persist()
}

// persist mirrors the open session to durable storage. Failures are
// logged and absorbed; the next successful write carries the
// superseding state.
func (l *Ledger) persist() {
	if l.open == nil {
		return
	}
	if err := l.store.Upsert(*l.open); err != nil {
		l.logger.Warningf("stats: persist session %s: %v", l.open.ID, err)
	}
}

// Sessions returns the sessions whose time range overlaps the period's
// interval at all, ordered by creation time. Overlap rather than
// containment matters because sessions can span a period boundary.
func (l *Ledger) Sessions(period Period, offset int) []BlockSession {
	now := l.now()
	from, to := period.DateRange(now, offset)

	var matched []BlockSession
	for _, month := range monthKeysAround(from, to) {
		sessions, err := l.store.Load(month)
		if err != nil {
			l.logger.Warningf("stats: month file %s unreadable, treating as empty: %v", month, err)
			continue
		}
		for _, session := range sessions {
			start, end := session.Span(now)
			if start.Before(to) && end.After(from) {
				matched = append(matched, session)
			}
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return matched
}

// Totals aggregates per-state durations over the period, clamping each
// session's intervals to the period boundaries.
func (l *Ledger) Totals(period Period, offset int) BlockTotals {
	now := l.now()
	from, to := period.DateRange(now, offset)

	var totals BlockTotals
	for _, session := range l.Sessions(period, offset) {
		totals.Add(session.TotalsInRange(from, to, now))
	}
	return totals
}

// monthKeysAround lists the month files that can hold sessions
// overlapping [from, to): sessions are filed under their creation
// month, and an overnight session created late in the prior month can
// still overlap the range, so one extra month before the start is
// included.
func monthKeysAround(from, to time.Time) []string {
	var months []string
	cursor := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, from.Location()).AddDate(0, -1, 0)
	last := to.Add(-time.Second)
	for !cursor.After(last) {
		months = append(months, MonthKey(cursor))
		cursor = cursor.AddDate(0, 1, 0)
	}
	return months
}
