package blocker

import (
	"context"
	"time"

	"github.com/amonks/blockhour/schedule"
)

// DefaultTickInterval is the nominal evaluation cadence. Deadline
// detection latency is bounded by this interval; only wake-from-sleep
// forces an immediate re-evaluation.
const DefaultTickInterval = time.Second

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	// Interval is the tick cadence. Defaults to DefaultTickInterval.
	Interval time.Duration

	// Power delivers sleep/wake events. Defaults to the no-signal stub.
	Power PowerMonitor

	// Clock overrides the clock, for tests.
	Clock Clock
}

// Runner drives a Manager: it owns the periodic tick, the power event
// subscription, and a command channel that serializes external calls
// onto the single control goroutine. There is no internal locking
// because there is no concurrent mutation.
type Runner struct {
	manager  *Manager
	interval time.Duration
	power    PowerMonitor
	clock    Clock
	commands chan func()
}

// NewRunner creates a runner for the manager.
func NewRunner(manager *Manager, opts RunnerOptions) *Runner {
	if opts.Interval <= 0 {
		opts.Interval = DefaultTickInterval
	}
	if opts.Power == nil {
		opts.Power = StubPowerMonitor{}
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	return &Runner{
		manager:  manager,
		interval: opts.Interval,
		power:    opts.Power,
		clock:    opts.Clock,
		commands: make(chan func(), 16),
	}
}

// Run executes the control loop until the context is cancelled. An
// immediate first tick runs before the ticker cadence begins.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.manager.Tick(r.clock.Now())

	power := r.power.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.manager.Tick(r.clock.Now())
		case fn := <-r.commands:
			fn()
		case event, ok := <-power:
			if !ok {
				power = nil
				continue
			}
			switch event {
			case PowerWillSleep:
				r.manager.OnSystemWillSleep()
			case PowerDidWake:
				r.manager.OnSystemDidWake()
			}
		}
	}
}

// Do marshals fn onto the control goroutine. It never blocks the
// caller; if the command buffer is full the call is dropped, matching
// the fire-and-forget contract of the UI surface.
func (r *Runner) Do(fn func()) {
	select {
	case r.commands <- fn:
	default:
	}
}

// Snooze postpones the current block by the given grant.
func (r *Runner) Snooze(minutes int) {
	r.Do(func() { r.manager.Snooze(minutes) })
}

// ExitEarly ends the current block early, routing to the manual or
// scheduled exit as appropriate.
func (r *Runner) ExitEarly() {
	r.Do(func() {
		if r.manager.Snapshot().IsManual {
			r.manager.StopManualBlock()
			return
		}
		r.manager.ExitBlockEarly()
	})
}

// StartManual force-starts a manual block for the schedule.
func (r *Runner) StartManual(sched schedule.Schedule) {
	r.Do(func() { r.manager.StartManualBlock(sched) })
}
