// Package overlay renders the fullscreen block screen. It implements
// blocker.Renderer on top of a bubbletea program: Show starts (or
// updates) the program, Hide quits it. The program's keybindings route
// snooze and early-exit requests back through Controls, so the overlay
// never mutates blocking state itself.
package overlay

import (
	"sync"

	"github.com/amonks/blockhour/blocker"
	tea "github.com/charmbracelet/bubbletea"
)

// Controls receives user requests from the overlay's keybindings. Both
// calls are fire-and-forget; the overlay is torn down by a later Hide
// directive, not by the keypress itself.
type Controls interface {
	Snooze(minutes int)
	ExitEarly()
}

// Overlay is a blocker.Renderer backed by a fullscreen terminal
// program. Show and Hide may be called from any goroutine.
type Overlay struct {
	controls      Controls
	snoozeMinutes int

	mu   sync.Mutex
	prog *tea.Program
}

// New creates an overlay. snoozeMinutes is the grant requested by the
// snooze keybinding.
func New(controls Controls, snoozeMinutes int) *Overlay {
	return &Overlay{controls: controls, snoozeMinutes: snoozeMinutes}
}

// Show presents the block screen. A repeated Show while already visible
// refreshes the displayed info instead of starting a second program.
func (o *Overlay) Show(info blocker.BlockInfo) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.prog != nil {
		o.prog.Send(infoMsg{info: info})
		return
	}

	prog := tea.NewProgram(newModel(info, o.controls, o.snoozeMinutes), tea.WithAltScreen())
	o.prog = prog
	go func() {
		_, _ = prog.Run()
		o.mu.Lock()
		if o.prog == prog {
			o.prog = nil
		}
		o.mu.Unlock()
	}()
}

// Hide tears the block screen down. No-op when nothing is shown.
func (o *Overlay) Hide() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.prog == nil {
		return
	}
	o.prog.Quit()
	o.prog = nil
}
