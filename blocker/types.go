// Package blocker implements the screen-block state machine.
//
// A Manager polls schedule definitions once per second, derives the
// authoritative blocking state, drives the session ledger, and issues
// show/hide directives to a Renderer. All Manager and Ledger mutation
// happens on the Runner goroutine; external callers marshal work onto
// it through the Runner.
package blocker

import (
	"time"

	"github.com/amonks/blockhour/schedule"
)

// Clock abstracts time to keep the state machine deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the local wall clock.
type SystemClock struct{}

// Now returns the current local time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// ScheduleSource provides the current schedule working set. The manager
// rereads it every tick, so settings edits take effect within one tick.
type ScheduleSource interface {
	Schedules() ([]schedule.Schedule, error)
}

// BlockInfo describes the block a renderer should present.
type BlockInfo struct {
	ScheduleName string
	Message      string
	EndsAt       time.Time
}

// Renderer receives show/hide directives. Both calls are idempotent and
// fire-and-forget; implementations must tolerate being called when
// already in the requested state.
type Renderer interface {
	Show(info BlockInfo)
	Hide()
}

// NopRenderer discards all directives.
type NopRenderer struct{}

// Show implements Renderer.
func (NopRenderer) Show(BlockInfo) {}

// Hide implements Renderer.
func (NopRenderer) Hide() {}

// PowerEvent is an edge-triggered power-state transition.
type PowerEvent int

const (
	// PowerWillSleep indicates the system is about to sleep.
	PowerWillSleep PowerEvent = iota
	// PowerDidWake indicates the system has resumed.
	PowerDidWake
)

// PowerMonitor delivers sleep/wake events. Events arrive at most once
// per actual sleep/wake cycle; the time between them is unbounded.
type PowerMonitor interface {
	// Events returns the event channel. A nil channel is legal and
	// means the platform delivers no power signals; missed ticks are
	// then reconciled on the next tick with higher latency.
	Events() <-chan PowerEvent
}

// StubPowerMonitor is the no-signal power monitor.
type StubPowerMonitor struct{}

// Events returns nil.
func (StubPowerMonitor) Events() <-chan PowerEvent { return nil }

// Snapshot is a point-in-time view of the blocking state for
// collaborators; it carries no references into the manager.
type Snapshot struct {
	IsBlocking         bool
	IsManual           bool
	ActiveScheduleID   string
	ActiveScheduleName string
	BlockStartedAt     time.Time
	BlockEndsAt        time.Time
	SnoozedUntil       time.Time
	NextBlockStart     time.Time
	NextBlockSchedule  string
}
