package overlay

import (
	"fmt"
	"strings"
	"time"

	"github.com/amonks/blockhour/blocker"
	"github.com/amonks/blockhour/internal/markdown"
	"github.com/amonks/blockhour/internal/ui"
	"github.com/charmbracelet/bubbles/timer"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

const maxFrameWidth = 64

type infoMsg struct {
	info blocker.BlockInfo
}

type model struct {
	info          blocker.BlockInfo
	controls      Controls
	snoozeMinutes int
	countdown     timer.Model
	width         int
	height        int
}

func newModel(info blocker.BlockInfo, controls Controls, snoozeMinutes int) model {
	return model{
		info:          info,
		controls:      controls,
		snoozeMinutes: snoozeMinutes,
		countdown:     timer.NewWithInterval(remainingUntil(info.EndsAt), time.Second),
	}
}

func remainingUntil(endsAt time.Time) time.Duration {
	remaining := time.Until(endsAt)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func (m model) Init() tea.Cmd {
	return m.countdown.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		// Every other key is swallowed: the block screen only
		// dismisses through the state machine.
		switch msg.String() {
		case "s":
			if m.controls != nil {
				m.controls.Snooze(m.snoozeMinutes)
			}
		case "q", "esc":
			if m.controls != nil {
				m.controls.ExitEarly()
			}
		}
		return m, nil
	case infoMsg:
		m.info = msg.info
		m.countdown.Timeout = remainingUntil(m.info.EndsAt)
		return m, nil
	}

	var cmd tea.Cmd
	m.countdown, cmd = m.countdown.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	contentWidth := m.width - 8
	if contentWidth > maxFrameWidth {
		contentWidth = maxFrameWidth
	}
	if contentWidth < 16 {
		contentWidth = 16
	}

	title := m.info.ScheduleName
	if title == "" {
		title = "Screen blocked"
	}

	remaining := m.countdown.Timeout
	if remaining < 0 {
		remaining = 0
	}
	countdown := fmt.Sprintf("%s remaining, ends at %s",
		ui.FormatDurationShort(remaining),
		m.info.EndsAt.Format("15:04"))

	lines := []string{
		titleStyle.Render(title),
		"",
		countdownStyle.Render(countdown),
	}
	if m.info.Message != "" {
		rendered := strings.TrimRight(markdown.Render(contentWidth, m.info.Message), "\n")
		if rendered == "" {
			rendered = wordwrap.String(m.info.Message, contentWidth)
		}
		lines = append(lines, "", rendered)
	}
	lines = append(lines, "",
		hintStyle.Render(fmt.Sprintf("s: snooze %dm   q: end block early", m.snoozeMinutes)))

	frame := frameStyle.Width(contentWidth).Render(strings.Join(lines, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, frame)
}
