package blocker

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Logger captures state machine transitions and storage warnings.
type Logger interface {
	Transition(entry TransitionLog)
	Warningf(format string, args ...any)
}

// TransitionLog captures one blocking transition.
type TransitionLog struct {
	Message  string
	Schedule string
	At       time.Time
}

type noopLogger struct{}

func (noopLogger) Transition(TransitionLog) {}
func (noopLogger) Warningf(string, ...any)  {}

// ConsoleLogger writes formatted log output.
type ConsoleLogger struct {
	writer       io.Writer
	headerStyle  lipgloss.Style
	warningStyle lipgloss.Style
}

// NewConsoleLogger builds a styled logger for interactive output.
func NewConsoleLogger(writer io.Writer) *ConsoleLogger {
	if writer == nil {
		writer = io.Discard
	}
	return &ConsoleLogger{
		writer:       writer,
		headerStyle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33")),
		warningStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("178")),
	}
}

// Transition logs a blocking transition.
func (logger *ConsoleLogger) Transition(entry TransitionLog) {
	if logger == nil {
		return
	}
	label := entry.Message
	if entry.Schedule != "" {
		label = fmt.Sprintf("%s (%s)", entry.Message, entry.Schedule)
	}
	fmt.Fprintf(logger.writer, "%s %s\n",
		entry.At.Format("15:04:05"),
		logger.headerStyle.Render(label))
}

// Warningf logs a storage or evaluation warning.
func (logger *ConsoleLogger) Warningf(format string, args ...any) {
	if logger == nil {
		return
	}
	fmt.Fprintln(logger.writer, logger.warningStyle.Render(fmt.Sprintf(format, args...)))
}
