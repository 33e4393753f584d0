package buffer

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

const (
	logLineWidth  = 80
	logBodyIndent = 4
)

// Logger receives session events.
type Logger interface {
	Launch(LaunchLog)
	Finish(FinishLog)
	Warn(WarnLog)
}

// LaunchLog is emitted just before the editor starts.
type LaunchLog struct {
	Command Command
	Path    string
	Mode    Mode
}

// FinishLog is emitted once the editor has exited or failed to start.
type FinishLog struct {
	Command  Command
	Path     string
	Err      error
	Duration time.Duration
}

// WarnLog reports a non-fatal problem, such as a scratch file that could not
// be removed.
type WarnLog struct {
	Message string
	Path    string
	Err     error
}

type noopLogger struct{}

func (noopLogger) Launch(LaunchLog) {}
func (noopLogger) Finish(FinishLog) {}
func (noopLogger) Warn(WarnLog)     {}

// ConsoleLogger writes formatted log output. Launch and Finish events are
// only written in verbose mode; warnings are always written.
type ConsoleLogger struct {
	writer      io.Writer
	verbose     bool
	headerStyle lipgloss.Style
	warnStyle   lipgloss.Style
}

// NewConsoleLogger builds a styled logger for interactive output.
func NewConsoleLogger(writer io.Writer, verbose bool) *ConsoleLogger {
	if writer == nil {
		writer = io.Discard
	}
	return &ConsoleLogger{
		writer:      writer,
		verbose:     verbose,
		headerStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33")),
		warnStyle:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
	}
}

// Launch logs the editor command and target.
func (logger *ConsoleLogger) Launch(entry LaunchLog) {
	if logger == nil || !logger.verbose {
		return
	}
	logger.writeBlock(
		logger.headerStyle.Render(fmt.Sprintf("Opening %s buffer:", entry.Mode)),
		formatLogBody(entry.Command.String()+" "+entry.Path),
	)
}

// Finish logs how the editor exited.
func (logger *ConsoleLogger) Finish(entry FinishLog) {
	if logger == nil || !logger.verbose {
		return
	}
	status := "ok"
	if entry.Err != nil {
		status = entry.Err.Error()
	}
	logger.writeBlock(
		logger.headerStyle.Render("Editor finished:"),
		formatLogBody(fmt.Sprintf("%s after %s", status, entry.Duration.Truncate(time.Millisecond))),
	)
}

// Warn logs a non-fatal problem.
func (logger *ConsoleLogger) Warn(entry WarnLog) {
	if logger == nil {
		return
	}
	lines := []string{logger.warnStyle.Render(entry.Message)}
	if entry.Err != nil {
		lines = append(lines, formatLogBody(entry.Err.Error()))
	} else if entry.Path != "" {
		lines = append(lines, formatLogBody(entry.Path))
	}
	logger.writeBlock(lines...)
}

func (logger *ConsoleLogger) writeBlock(lines ...string) {
	for _, line := range lines {
		if line == "" {
			continue
		}
		fmt.Fprintln(logger.writer, line)
	}
}

func formatLogBody(body string) string {
	body = strings.TrimRight(body, "\r\n")
	if strings.TrimSpace(body) == "" {
		body = "-"
	}
	wrapped := wordwrap.String(body, logLineWidth-logBodyIndent)
	return indent.String(wrapped, logBodyIndent)
}
