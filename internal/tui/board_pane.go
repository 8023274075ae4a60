package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/studytracker/internal/store"
	"github.com/aristath/studytracker/internal/workflow"
)

// BoardPaneModel renders one subject as three state columns.
type BoardPaneModel struct {
	subjects   []store.Subject
	subjectIdx int
	taskIdx    int // canonical index within the selected subject
	styles     Styles
	now        func() time.Time
	width      int
	height     int
}

// NewBoardPaneModel creates an empty board.
func NewBoardPaneModel(styles Styles) BoardPaneModel {
	return BoardPaneModel{styles: styles, now: time.Now}
}

// SetSubjects replaces the displayed data and keeps the selection in range.
func (m *BoardPaneModel) SetSubjects(subjects []store.Subject) {
	m.subjects = subjects
	m.clamp()
}

// Selected returns the selected subject code and task index. ok is false
// when nothing is selectable.
func (m BoardPaneModel) Selected() (code string, index int, ok bool) {
	if m.subjectIdx >= len(m.subjects) {
		return "", 0, false
	}
	sub := m.subjects[m.subjectIdx]
	if m.taskIdx >= len(sub.Tasks) {
		return sub.Code, 0, false
	}
	return sub.Code, m.taskIdx, true
}

// SelectedTask returns a copy of the task under the cursor.
func (m BoardPaneModel) SelectedTask() (workflow.Task, bool) {
	_, index, ok := m.Selected()
	if !ok {
		return workflow.Task{}, false
	}
	return m.subjects[m.subjectIdx].Tasks[index], true
}

// SubjectCode returns the selected subject's code, or "".
func (m BoardPaneModel) SubjectCode() string {
	if m.subjectIdx >= len(m.subjects) {
		return ""
	}
	return m.subjects[m.subjectIdx].Code
}

// SelectSubject moves the cursor to the subject with code, if present.
func (m *BoardPaneModel) SelectSubject(code string) {
	for i, sub := range m.subjects {
		if sub.Code == code {
			m.subjectIdx = i
			m.taskIdx = 0
			return
		}
	}
}

// SelectTask moves the cursor to index within the selected subject.
func (m *BoardPaneModel) SelectTask(index int) {
	m.taskIdx = index
	m.clamp()
}

// MoveSubject cycles through subjects by delta.
func (m *BoardPaneModel) MoveSubject(delta int) {
	if len(m.subjects) == 0 {
		return
	}
	m.subjectIdx = (m.subjectIdx + delta + len(m.subjects)) % len(m.subjects)
	m.taskIdx = 0
}

// MoveTask moves the cursor by delta without wrapping.
func (m *BoardPaneModel) MoveTask(delta int) {
	m.taskIdx += delta
	m.clamp()
}

func (m *BoardPaneModel) clamp() {
	if m.subjectIdx >= len(m.subjects) {
		m.subjectIdx = max(0, len(m.subjects)-1)
	}
	if m.subjectIdx < 0 {
		m.subjectIdx = 0
	}
	n := 0
	if m.subjectIdx < len(m.subjects) {
		n = len(m.subjects[m.subjectIdx].Tasks)
	}
	if m.taskIdx >= n {
		m.taskIdx = max(0, n-1)
	}
	if m.taskIdx < 0 {
		m.taskIdx = 0
	}
}

// View renders the board.
func (m BoardPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if len(m.subjects) == 0 {
		return StyleUnfocusedBorder.
			Width(m.width - 2).
			Height(m.height - 2).
			Render(StyleMuted.Render("No subjects yet."))
	}

	sub := m.subjects[m.subjectIdx]
	colWidth := max(16, (m.width-2)/len(workflow.States)-2)

	var cols []string
	for _, state := range workflow.States {
		cols = append(cols, m.renderColumn(sub, state, colWidth))
	}

	header := lipgloss.JoinVertical(lipgloss.Left,
		m.renderTabs(),
		StyleMuted.Render(fmt.Sprintf("%s  %s", sub.Name, sub.Description)),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, cols...)

	return StyleFocusedBorder.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, header, "", body))
}

func (m BoardPaneModel) renderTabs() string {
	tabs := make([]string, len(m.subjects))
	for i, sub := range m.subjects {
		style := m.styles.PassiveTab
		if i == m.subjectIdx {
			style = m.styles.ActiveTab
		}
		tabs[i] = style.Render(sub.Code)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m BoardPaneModel) renderColumn(sub store.Subject, state workflow.TaskState, width int) string {
	var b strings.Builder

	count := 0
	for _, task := range sub.Tasks {
		if task.State == state {
			count++
		}
	}
	title := m.styles.State[state].Render(fmt.Sprintf("%s (%d)", state, count))
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(width, lipgloss.Width(title))))
	b.WriteString("\n")

	for i, task := range sub.Tasks {
		if task.State != state {
			continue
		}
		line := m.renderCard(task, width)
		if i == m.taskIdx {
			line = StyleSelected.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		Render(b.String())
}

func (m BoardPaneModel) renderCard(task workflow.Task, width int) string {
	title := task.Title
	if len(title) > width-2 && width > 5 {
		title = title[:width-5] + "..."
	}

	meta := task.Type.String()
	if !task.Deadline.IsZero() {
		meta += " · " + dueLabel(task.Deadline, m.now())
	}
	if task.Completed() && task.Marks > 0 {
		meta += fmt.Sprintf(" · %d/100", task.Marks)
	}
	return title + "\n  " + StyleMuted.Render(meta)
}

// dueLabel describes a deadline relative to now in whole days.
func dueLabel(deadline, now time.Time) string {
	days := int(deadline.Sub(now).Hours() / 24)
	switch {
	case deadline.Before(now):
		return "overdue"
	case days == 0:
		return "due today"
	default:
		return fmt.Sprintf("due in %dd", days)
	}
}

// SetSize updates the pane dimensions.
func (m *BoardPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}
