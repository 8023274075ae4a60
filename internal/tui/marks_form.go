package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// MarksFormModel records marks on a Completed task.
type MarksFormModel struct {
	form    *huh.Form
	subject string
	index   int
	title   string
	width   int
	visible bool
	marks   *string
}

// NewMarksFormModel creates a hidden form.
func NewMarksFormModel() MarksFormModel {
	m := MarksFormModel{}
	m.buildForm(0)
	return m
}

func (m *MarksFormModel) buildForm(current int) {
	marks := strconv.Itoa(current)
	m.marks = &marks

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("marks").
				Title("Marks (0-100)").
				Value(m.marks).
				Validate(validateMarks),
		),
	)
}

func validateMarks(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 || n > 100 {
		return errors.New("enter a whole number from 0 to 100")
	}
	return nil
}

// Open shows the form for the task at (subject, index), prefilled with its
// current marks.
func (m *MarksFormModel) Open(subject string, index int, title string, current int) tea.Cmd {
	m.subject, m.index, m.title = subject, index, title
	m.visible = true
	m.buildForm(current)
	if m.width > 8 {
		m.form.WithWidth(m.width - 8)
	}
	return m.form.Init()
}

// Update forwards msg to the form. submitted is true once the form completes.
func (m MarksFormModel) Update(msg tea.Msg) (MarksFormModel, tea.Cmd, bool) {
	if !m.visible {
		return m, nil, false
	}

	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		m.visible = false
		return m, nil, false
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.visible = false
		return m, cmd, true
	case huh.StateAborted:
		m.visible = false
	}
	return m, cmd, false
}

// Target returns the task the form was opened for.
func (m MarksFormModel) Target() (subject string, index int) {
	return m.subject, m.index
}

// Marks returns the entered value. Validation guarantees it parses.
func (m MarksFormModel) Marks() int {
	n, _ := strconv.Atoi(strings.TrimSpace(*m.marks))
	return n
}

// View renders the form.
func (m MarksFormModel) View() string {
	if !m.visible {
		return ""
	}
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62")).
		Render(fmt.Sprintf("Marks for %s[%d] %s", m.subject, m.index, m.title))

	body := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Width(max(20, m.width-4)).
		Render(m.form.View())

	return lipgloss.JoinVertical(lipgloss.Left, title, body)
}

// SetSize updates the width of the form.
func (m *MarksFormModel) SetSize(w, _ int) {
	m.width = w
}

// IsVisible reports whether the form is open.
func (m MarksFormModel) IsVisible() bool {
	return m.visible
}
