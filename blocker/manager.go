package blocker

import (
	"time"

	"github.com/amonks/blockhour/schedule"
	"github.com/amonks/blockhour/stats"
)

// manualResumeWindow is the minimum remaining time for a manual block
// to use today's end; anything closer rolls to tomorrow's occurrence.
const manualResumeWindow = time.Minute

// Manager derives the authoritative blocking state from the schedule
// working set. It is constructed once at process start and must only be
// mutated from the Runner goroutine.
type Manager struct {
	schedules ScheduleSource
	ledger    *stats.Ledger
	renderer  Renderer
	logger    Logger
	clock     Clock

	blocking   bool
	visible    bool
	blockStart time.Time
	blockEnd   time.Time

	activeSched *schedule.Schedule

	snoozeUntil time.Time

	// snoozeExtended marks blockEnd as carrying a snooze grant past the
	// window's natural end, so the block outlives schedule matching.
	snoozeExtended bool

	manual    bool
	manualEnd time.Time

	// suppressed maps schedule id to the end of its exit suppression;
	// an exited occurrence must not re-trigger until its natural end.
	suppressed map[string]time.Time

	nextStart time.Time
	nextSched string

	subscribers []chan Snapshot
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Schedules ScheduleSource
	Ledger    *stats.Ledger
	Renderer  Renderer
	Logger    Logger
	Clock     Clock
}

// NewManager creates a blocking state machine.
func NewManager(opts ManagerOptions) *Manager {
	if opts.Renderer == nil {
		opts.Renderer = NopRenderer{}
	}
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	return &Manager{
		schedules:  opts.Schedules,
		ledger:     opts.Ledger,
		renderer:   opts.Renderer,
		logger:     opts.Logger,
		clock:      opts.Clock,
		suppressed: make(map[string]time.Time),
	}
}

// Tick runs one evaluation of the blocking state at the given instant.
// Calling it twice with the same instant and no intervening mutation
// produces no duplicate ledger events or render directives.
func (m *Manager) Tick(now time.Time) {
	// An unexpired snooze forces blocking off; an expired one clears
	// the cached start so a fresh block gets a new start timestamp.
	if !m.snoozeUntil.IsZero() {
		if now.Before(m.snoozeUntil) {
			m.hide()
			m.recomputeNext(now)
			return
		}
		m.snoozeUntil = time.Time{}
		m.blockStart = time.Time{}
	}

	// A live manual block short-circuits scheduled evaluation; an
	// expired one closes and falls through to scheduled evaluation on
	// this same tick.
	if m.manual {
		if now.Before(m.manualEnd) {
			m.ledger.ResumeFromSnooze()
			m.show()
			m.recomputeNext(now)
			return
		}
		m.ledger.EndSession(stats.ReasonCompleted)
		m.logger.Transition(TransitionLog{Message: "manual block completed", Schedule: m.activeName(), At: now})
		m.manual = false
		m.manualEnd = time.Time{}
		m.clearBlock()
	}

	for id, until := range m.suppressed {
		if !now.Before(until) {
			delete(m.suppressed, id)
		}
	}

	schedules, err := m.schedules.Schedules()
	if err != nil {
		m.logger.Warningf("blocker: read schedules: %v", err)
	}

	shouldBlock := false
	var winner *schedule.Schedule
	var end time.Time
	for i := range schedules {
		sched := schedules[i]
		if _, ok := m.suppressed[sched.ID]; ok {
			continue
		}
		if !sched.IsActive(now) {
			continue
		}
		candidate := sched.EndFor(now)
		if !shouldBlock || candidate.After(end) {
			end = candidate
			winner = &sched
		}
		shouldBlock = true
	}

	// A snooze taken during this block may have extended the end past
	// every schedule's natural end; the extension survives recomputation,
	// and keeps the block alive even after the window itself has closed.
	if m.snoozeExtended && m.activeSched != nil && m.blockEnd.After(now) {
		if !shouldBlock {
			shouldBlock = true
			winner = m.activeSched
			end = m.blockEnd
		} else if m.blockEnd.After(end) {
			end = m.blockEnd
		}
	}

	if shouldBlock && !end.After(now) {
		shouldBlock = false
	}

	switch {
	case shouldBlock && !m.blocking:
		m.blocking = true
		if m.blockStart.IsZero() {
			m.blockStart = now
		}
		m.blockEnd = end
		m.setActive(winner)
		m.ledger.StartSession(winner.Name, winner.ID)
		m.ledger.ResumeFromSnooze()
		m.show()
		m.logger.Transition(TransitionLog{Message: "block started", Schedule: winner.Name, At: now})
		m.notify()

	case !shouldBlock && m.blocking:
		m.ledger.EndSession(stats.ReasonCompleted)
		m.logger.Transition(TransitionLog{Message: "block completed", Schedule: m.activeName(), At: now})
		m.blocking = false
		m.clearBlock()
		m.hide()
		m.notify()

	case shouldBlock:
		// Still blocking: refresh the cached end and active schedule
		// (schedules may have been edited) and re-assert that the
		// session is open and visuals are shown, in case either was
		// dropped across a sleep cycle.
		m.blockEnd = end
		m.setActive(winner)
		m.ledger.StartSession(winner.Name, winner.ID)
		m.show()

	default:
		// Not blocking, and no snooze or manual block is pending: any
		// session left open (a snooze that outlived its window) is
		// closed, stale block state is dropped, and stray visuals are
		// torn down.
		if m.ledger.HasOpenSession() {
			m.ledger.EndSession(stats.ReasonCompleted)
			m.notify()
		}
		m.clearBlock()
		m.hide()
	}

	m.recomputeNext(now)
}

// Snooze postpones the current block by the given grant. The block end
// is extended by the same amount, so the block resumes for its
// remaining duration plus the grant. The active schedule reference is
// kept: the schedule resumes identically once the deadline passes.
func (m *Manager) Snooze(minutes int) {
	if minutes <= 0 {
		return
	}
	if !m.blocking && !m.manual {
		return
	}

	now := m.clock.Now()
	grant := time.Duration(minutes) * time.Minute
	m.snoozeUntil = now.Add(grant)
	if !m.blockEnd.IsZero() {
		m.blockEnd = m.blockEnd.Add(grant)
		m.snoozeExtended = true
	}
	if m.manual {
		m.manualEnd = m.manualEnd.Add(grant)
	}
	m.ledger.PauseForSnooze()
	m.blocking = false
	m.hide()
	m.logger.Transition(TransitionLog{Message: "snoozed", Schedule: m.activeName(), At: now})
	m.notify()
}

// StartManualBlock force-starts a block for the schedule outside its
// window. If this is a snooze-resume for the same schedule, the
// previously extended end is preserved; otherwise the end is today's
// end time, or tomorrow's when today's is less than a minute away.
func (m *Manager) StartManualBlock(sched schedule.Schedule) {
	now := m.clock.Now()

	end := m.blockEnd
	resume := m.activeSched != nil && m.activeSched.ID == sched.ID && end.After(now)
	if !resume {
		end = sched.End.On(now)
		if !end.After(now.Add(manualResumeWindow)) {
			end = end.AddDate(0, 0, 1)
		}
	}

	m.manual = true
	m.manualEnd = end
	m.blockEnd = end
	m.snoozeUntil = time.Time{}
	if m.blockStart.IsZero() {
		m.blockStart = now
	}
	m.setActive(&sched)
	m.ledger.StartSession(sched.Name, sched.ID)
	m.ledger.ResumeFromSnooze()
	m.show()
	m.logger.Transition(TransitionLog{Message: "manual block started", Schedule: sched.Name, At: now})
	m.notify()
}

// StopManualBlock ends a manual block early. No-op when no manual block
// is active.
func (m *Manager) StopManualBlock() {
	if !m.manual {
		return
	}
	now := m.clock.Now()
	m.ledger.EndSession(stats.ReasonExited)
	m.logger.Transition(TransitionLog{Message: "manual block exited", Schedule: m.activeName(), At: now})
	m.manual = false
	m.manualEnd = time.Time{}
	m.snoozeUntil = time.Time{}
	m.clearBlock()
	m.hide()
	m.notify()
}

// ExitBlockEarly ends a scheduled block early and suppresses the
// schedule until its natural end, so the same occurrence does not
// re-trigger on the next tick while future occurrences still fire.
func (m *Manager) ExitBlockEarly() {
	if !m.blocking {
		return
	}
	now := m.clock.Now()
	m.ledger.EndSession(stats.ReasonExited)
	m.logger.Transition(TransitionLog{Message: "block exited", Schedule: m.activeName(), At: now})
	if m.activeSched != nil {
		m.suppressed[m.activeSched.ID] = m.activeSched.EndFor(now)
	}
	m.blocking = false
	m.snoozeUntil = time.Time{}
	m.clearBlock()
	m.hide()
	m.notify()
}

// OnSystemWillSleep records the sleep transition in the ledger. The
// machine state itself is untouched: sleeping pauses the polling loop
// naturally.
func (m *Manager) OnSystemWillSleep() {
	m.ledger.PauseForSleep()
}

// OnSystemDidWake reconciles after an arbitrarily long suspension:
// restore the pre-sleep ledger state, re-run the full tick immediately
// rather than waiting for the next tick, and re-assert visuals if still
// blocking, since the renderer may have lost its state across sleep.
func (m *Manager) OnSystemDidWake() {
	m.ledger.ResumeFromSleep("")
	now := m.clock.Now()
	m.Tick(now)
	if m.blocking || m.manual {
		m.renderer.Show(m.blockInfo())
		m.visible = true
	}
}

// Snapshot returns a point-in-time view of the blocking state.
func (m *Manager) Snapshot() Snapshot {
	snap := Snapshot{
		IsBlocking:        m.blocking || m.manual,
		IsManual:          m.manual,
		BlockStartedAt:    m.blockStart,
		BlockEndsAt:       m.blockEnd,
		SnoozedUntil:      m.snoozeUntil,
		NextBlockStart:    m.nextStart,
		NextBlockSchedule: m.nextSched,
	}
	if m.activeSched != nil {
		snap.ActiveScheduleID = m.activeSched.ID
		snap.ActiveScheduleName = m.activeSched.Name
	}
	return snap
}

// Subscribe returns a channel receiving a Snapshot after every
// transition. Slow subscribers miss intermediate snapshots rather than
// blocking the control loop.
func (m *Manager) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, 8)
	m.subscribers = append(m.subscribers, ch)
	return ch
}

func (m *Manager) notify() {
	snap := m.Snapshot()
	for _, ch := range m.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
}

func (m *Manager) setActive(sched *schedule.Schedule) {
	copied := *sched
	m.activeSched = &copied
}

func (m *Manager) activeName() string {
	if m.activeSched == nil {
		return ""
	}
	return m.activeSched.Name
}

func (m *Manager) clearBlock() {
	m.blockStart = time.Time{}
	m.blockEnd = time.Time{}
	m.activeSched = nil
	m.snoozeExtended = false
}

func (m *Manager) blockInfo() BlockInfo {
	info := BlockInfo{EndsAt: m.blockEnd}
	if m.activeSched != nil {
		info.ScheduleName = m.activeSched.Name
		info.Message = m.activeSched.Message
	}
	return info
}

// show issues the render directive exactly once per false-to-true
// visual transition.
func (m *Manager) show() {
	if m.visible {
		return
	}
	m.renderer.Show(m.blockInfo())
	m.visible = true
}

func (m *Manager) hide() {
	if !m.visible {
		return
	}
	m.renderer.Hide()
	m.visible = false
}

// recomputeNext finds the earliest upcoming window start across all
// schedules, for display purposes.
func (m *Manager) recomputeNext(now time.Time) {
	schedules, err := m.schedules.Schedules()
	if err != nil {
		return
	}

	m.nextStart = time.Time{}
	m.nextSched = ""
	for _, sched := range schedules {
		start, ok := sched.NextStart(now)
		if !ok {
			continue
		}
		if m.nextStart.IsZero() || start.Before(m.nextStart) {
			m.nextStart = start
			m.nextSched = sched.Name
		}
	}
}
