package tui

import (
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/studytracker/internal/engine"
	"github.com/aristath/studytracker/internal/workflow"
)

const dateLayout = "2006-01-02"

// TaskFormModel collects a new task for the selected subject.
type TaskFormModel struct {
	form    *huh.Form
	subject string
	width   int
	height  int
	visible bool
	fields  *taskFields
}

// taskFields is shared by every copy of the model so the form's bound
// pointers stay valid across Bubble Tea updates.
type taskFields struct {
	title       string
	description string
	taskType    workflow.TaskType
	deadline    string
}

// NewTaskFormModel creates a hidden form.
func NewTaskFormModel() TaskFormModel {
	m := TaskFormModel{}
	m.buildForm()
	return m
}

func (m *TaskFormModel) buildForm() {
	f := &taskFields{taskType: workflow.TypeLab}
	m.fields = f

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("title").
				Title("Title").
				Value(&f.title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("title is required")
					}
					return nil
				}),

			huh.NewInput().
				Key("description").
				Title("Description").
				Value(&f.description),

			huh.NewSelect[workflow.TaskType]().
				Key("type").
				Title("Type").
				Options(
					huh.NewOption("Lab", workflow.TypeLab),
					huh.NewOption("Exam", workflow.TypeExam),
					huh.NewOption("Project", workflow.TypeProject),
				).
				Value(&f.taskType),

			huh.NewInput().
				Key("deadline").
				Title("Deadline").
				Placeholder(dateLayout).
				Value(&f.deadline).
				Validate(validateDate),
		).Title("New Task"),
	)
}

func validateDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, strings.TrimSpace(s)); err != nil {
		return errors.New("use YYYY-MM-DD")
	}
	return nil
}

// Open shows a fresh form for subject.
func (m *TaskFormModel) Open(subject string) tea.Cmd {
	m.subject = subject
	m.visible = true
	m.buildForm()
	m.resizeForm()
	return m.form.Init()
}

// Update forwards msg to the form. submitted is true once the form completes.
func (m TaskFormModel) Update(msg tea.Msg) (TaskFormModel, tea.Cmd, bool) {
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

// Task returns the collected values.
func (m TaskFormModel) Task() engine.NewTask {
	nt := engine.NewTask{
		Title:       strings.TrimSpace(m.fields.title),
		Description: strings.TrimSpace(m.fields.description),
		Type:        m.fields.taskType,
	}
	if d, err := time.Parse(dateLayout, strings.TrimSpace(m.fields.deadline)); err == nil {
		nt.Deadline = d
	}
	return nt
}

// Subject returns the subject the form was opened for.
func (m TaskFormModel) Subject() string {
	return m.subject
}

// View renders the form.
func (m TaskFormModel) View() string {
	if !m.visible {
		return ""
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62")).
		Render("+ New task in " + m.subject)

	body := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Width(max(20, m.width-4)).
		Render(m.form.View())

	return lipgloss.JoinVertical(lipgloss.Left, title, body)
}

// SetSize updates the dimensions of the form.
func (m *TaskFormModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.resizeForm()
}

func (m *TaskFormModel) resizeForm() {
	if m.form != nil && m.width > 8 && m.height > 8 {
		m.form.WithWidth(m.width - 8).WithHeight(m.height - 8)
	}
}

// IsVisible reports whether the form is open.
func (m TaskFormModel) IsVisible() bool {
	return m.visible
}
