package ui

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/stall/internal/logtail"
)

// logState holds the tail of stall's own log file.
type logState struct {
	tail     logTail
	lines    []string
	follow   bool
	polling  bool
	err      error
	viewport viewport.Model
}

type logChangedMsg struct{}

type logLinesMsg struct {
	lines []string
	reset bool
	err   error
}

func newLogState(path string) logState {
	s := logState{follow: true}
	if path != "" {
		s.tail = logtail.NewTail(path, logBufferLimit)
	}
	return s
}

// pollLogs reads lines appended since the last poll. One poll runs at a time.
func (m *Model) pollLogs() tea.Cmd {
	if m.logs.tail == nil || m.logs.polling {
		return nil
	}
	m.logs.polling = true
	tail := m.logs.tail
	return func() tea.Msg {
		lines, reset, err := tail.Poll()
		return logLinesMsg{lines: lines, reset: reset, err: err}
	}
}

// waitLogChangeCmd waits for the next write to the log file. It returns
// nil once ctx is done.
func waitLogChangeCmd(ctx context.Context, changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			return logChangedMsg{}
		}
	}
}

func (m *Model) handleLogLines(msg logLinesMsg) {
	m.logs.polling = false
	m.logs.err = msg.err
	if msg.err != nil {
		return
	}
	if msg.reset {
		m.logs.lines = nil
	}
	if len(msg.lines) == 0 && !msg.reset {
		return
	}
	m.logs.lines = trimLogBuffer(append(m.logs.lines, msg.lines...), logBufferLimit)
	m.updateLogViewport()
}

// trimLogBuffer keeps the newest limit lines.
func trimLogBuffer(lines []string, limit int) []string {
	if limit <= 0 || len(lines) <= limit {
		return lines
	}
	return append([]string(nil), lines[len(lines)-limit:]...)
}

// handleLogsKey processes keyboard input for the log view.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logs.follow = !m.logs.follow
		if m.logs.follow {
			m.logs.viewport.GotoBottom()
			cmd := m.pollLogs()
			return m, cmd
		}
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.logs.follow = false
		m.logs.viewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.logs.viewport.GotoBottom()
		return m, nil
	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.HalfPageUp):
		m.logs.follow = false
	}

	var cmd tea.Cmd
	m.logs.viewport, cmd = m.logs.viewport.Update(msg)
	return m, cmd
}

// updateLogViewport resizes the viewport and re-renders the lines.
func (m *Model) updateLogViewport() {
	if m.width == 0 {
		return
	}
	// Box height = contentHeight, inner = minus borders and the status line.
	w := max(m.width-4, 10)
	h := max(m.contentHeight()-3, 1)
	if m.logs.viewport.Width == 0 {
		m.logs.viewport = viewport.New(w, h)
	}
	m.logs.viewport.Width = w
	m.logs.viewport.Height = h
	m.logs.viewport.SetContent(m.renderLogContent())
	if m.logs.follow {
		m.logs.viewport.GotoBottom()
	}
}

// renderLogContent colors each line by its severity.
func (m Model) renderLogContent() string {
	if len(m.logs.lines) == 0 {
		return m.theme.Styles().FaintText.Render("No log lines yet")
	}
	styles := m.theme.Styles()
	out := make([]string, len(m.logs.lines))
	for i, line := range m.logs.lines {
		switch logtail.Classify(line) {
		case logtail.KindError:
			out[i] = styles.DangerText.Render(line)
		case logtail.KindWarn:
			out[i] = styles.WarningText.Render(line)
		default:
			out[i] = styles.Text.Render(line)
		}
	}
	return strings.Join(out, "\n")
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	title := "Logs"
	if m.logs.tail != nil {
		title = "Logs " + m.logs.tail.Path()
	}

	follow := styles.SuccessText.Render("following")
	if !m.logs.follow {
		follow = styles.WarningText.Render("paused")
	}
	status := follow + styles.MutedText.Render("  "+strconv.Itoa(len(m.logs.lines))+" lines")
	if m.logs.err != nil {
		status += "  " + styles.DangerText.Render(m.logs.err.Error())
	}
	if m.logs.tail == nil {
		status = styles.MutedText.Render("Log file not configured")
	}

	content := lipgloss.JoinVertical(lipgloss.Left, m.logs.viewport.View(), status)
	return m.renderBox(title, content, m.width, m.contentHeight(), true)
}
