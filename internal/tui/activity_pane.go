package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"

	"github.com/aristath/studytracker/internal/events"
)

const activityLimit = 200

// ActivityPaneModel is a scrolling log of committed changes.
type ActivityPaneModel struct {
	lines    []string
	viewport viewport.Model
	width    int
	height   int
}

// NewActivityPaneModel creates an empty activity log.
func NewActivityPaneModel() ActivityPaneModel {
	return ActivityPaneModel{viewport: viewport.New(0, 0)}
}

// Append records a line for ev, if it is worth showing.
func (m *ActivityPaneModel) Append(ev events.Event) {
	line := describe(ev)
	if line == "" {
		return
	}
	m.lines = append(m.lines, line)
	if len(m.lines) > activityLimit {
		m.lines = m.lines[len(m.lines)-activityLimit:]
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

// Lines returns the recorded lines, oldest first.
func (m ActivityPaneModel) Lines() []string {
	return m.lines
}

func describe(ev events.Event) string {
	switch e := ev.(type) {
	case events.SubjectCreatedEvent:
		return fmt.Sprintf("%s  subject %s created", e.Timestamp.Format("15:04:05"), e.Code)
	case events.TaskCreatedEvent:
		return fmt.Sprintf("%s  %s: added %q", e.Timestamp.Format("15:04:05"), e.Subject, e.Task.Title)
	case events.TaskStateChangedEvent:
		return fmt.Sprintf("%s  #%d %s[%d] %s -> %s", e.Timestamp.Format("15:04:05"), e.Seq, e.Subject, e.Index, e.From, e.To)
	case events.TaskMarksChangedEvent:
		return fmt.Sprintf("%s  %s[%d] marked %d/100", e.Timestamp.Format("15:04:05"), e.Subject, e.Index, e.Marks)
	case events.CommandUndoneEvent:
		return fmt.Sprintf("%s  undo #%d %s[%d] back to %s (depth %d)", e.Timestamp.Format("15:04:05"), e.Seq, e.Subject, e.Index, e.Restored, e.Depth)
	case events.StoreResetEvent:
		return fmt.Sprintf("%s  store %s, %d subjects", e.Timestamp.Format("15:04:05"), e.Reason, len(e.Subjects))
	default:
		return ""
	}
}

// View renders the log.
func (m ActivityPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	content := m.viewport.View()
	if len(m.lines) == 0 {
		content = StyleMuted.Render("No activity yet.")
	}
	return StyleUnfocusedBorder.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(StyleTitle.Render("Activity") + "\n" + content)
}

// SetSize updates the pane dimensions.
func (m *ActivityPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = max(10, w-4)
	m.viewport.Height = max(1, h-3)
}
