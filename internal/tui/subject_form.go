package tui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// SubjectFormModel collects a new subject.
type SubjectFormModel struct {
	form    *huh.Form
	width   int
	height  int
	visible bool
	fields  *subjectFields
}

type subjectFields struct {
	name        string
	code        string
	description string
}

// NewSubjectFormModel creates a hidden form.
func NewSubjectFormModel() SubjectFormModel {
	m := SubjectFormModel{}
	m.buildForm()
	return m
}

func required(label string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(label + " is required")
		}
		return nil
	}
}

func (m *SubjectFormModel) buildForm() {
	f := &subjectFields{}
	m.fields = f

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("code").
				Title("Code").
				Placeholder("CS101").
				Value(&f.code).
				Validate(required("code")),

			huh.NewInput().
				Key("name").
				Title("Name").
				Value(&f.name).
				Validate(required("name")),

			huh.NewInput().
				Key("description").
				Title("Description").
				Value(&f.description),
		).Title("New Subject"),
	)
}

// Open shows a fresh form.
func (m *SubjectFormModel) Open() tea.Cmd {
	m.visible = true
	m.buildForm()
	m.resizeForm()
	return m.form.Init()
}

// Update forwards msg to the form. submitted is true once the form completes.
func (m SubjectFormModel) Update(msg tea.Msg) (SubjectFormModel, tea.Cmd, bool) {
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

// Values returns the trimmed name, code and description.
func (m SubjectFormModel) Values() (name, code, description string) {
	return strings.TrimSpace(m.fields.name),
		strings.TrimSpace(m.fields.code),
		strings.TrimSpace(m.fields.description)
}

// View renders the form.
func (m SubjectFormModel) View() string {
	if !m.visible {
		return ""
	}
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62")).
		Render("+ New subject")

	body := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Width(max(20, m.width-4)).
		Render(m.form.View())

	return lipgloss.JoinVertical(lipgloss.Left, title, body)
}

// SetSize updates the dimensions of the form.
func (m *SubjectFormModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.resizeForm()
}

func (m *SubjectFormModel) resizeForm() {
	if m.form != nil && m.width > 8 && m.height > 8 {
		m.form.WithWidth(m.width - 8).WithHeight(m.height - 8)
	}
}

// IsVisible reports whether the form is open.
func (m SubjectFormModel) IsVisible() bool {
	return m.visible
}
