// Package tui is the kanban dashboard: subject tabs, one column per task
// state, and an activity log fed by the event bus.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/studytracker/internal/config"
	"github.com/aristath/studytracker/internal/engine"
	"github.com/aristath/studytracker/internal/events"
	"github.com/aristath/studytracker/internal/store"
	"github.com/aristath/studytracker/internal/workflow"
)

// Board is the engine surface the dashboard drives.
type Board interface {
	Subjects() []store.Subject
	ApplyTaskStateChange(ctx context.Context, subjectCode string, taskIndex int, newState workflow.TaskState) (engine.Command, error)
	UndoLastCommand(ctx context.Context) (engine.Command, error)
	CreateTask(ctx context.Context, subjectCode string, nt engine.NewTask) (int, error)
	CreateSubject(ctx context.Context, name, code, description string) error
	SetTaskMarks(ctx context.Context, subjectCode string, taskIndex, marks int) error
	HistoryDepth() int
	PeekUndo() (engine.Command, bool)
}

// Model is the root Bubble Tea model for the TUI.
type Model struct {
	ctx      context.Context
	board    Board
	eventSub <-chan events.Event

	keys         keyMap
	help         help.Model
	styles       Styles
	boardPane    BoardPaneModel
	activityPane ActivityPaneModel
	taskForm     TaskFormModel
	subjectForm  SubjectFormModel
	marksForm    MarksFormModel
	settingsPane SettingsPaneModel

	status    string
	statusErr bool
	width     int
	height    int
	quitting  bool
}

// New creates a new TUI model.
// It subscribes to all events from the event bus using SubscribeAll.
func New(ctx context.Context, board Board, eventBus *events.EventBus, cfg *config.TrackerConfig, globalPath, projectPath string) Model {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	styles := NewStyles(cfg.Theme)

	m := Model{
		ctx:          ctx,
		board:        board,
		eventSub:     eventBus.SubscribeAll(events.DefaultBufferSize),
		keys:         defaultKeyMap(),
		help:         help.New(),
		styles:       styles,
		boardPane:    NewBoardPaneModel(styles),
		activityPane: NewActivityPaneModel(),
		taskForm:     NewTaskFormModel(),
		subjectForm:  NewSubjectFormModel(),
		marksForm:    NewMarksFormModel(),
		settingsPane: NewSettingsPaneModel(cfg, globalPath, projectPath),
	}
	m.refresh()
	return m
}

// Init initializes the model and returns the initial command.
func (m Model) Init() tea.Cmd {
	return waitForEvent(m.eventSub)
}

// waitForEvent returns a command that waits for the next event from the event bus.
func waitForEvent(sub <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-sub
		if !ok {
			return nil // bus closed
		}
		return event
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.computeLayout()
		return m, nil

	case events.Event:
		m.activityPane.Append(msg)
		m.refresh()
		return m, waitForEvent(m.eventSub)
	}

	// Overlays are modal and receive everything else.
	if m.taskForm.IsVisible() {
		var cmd tea.Cmd
		var submitted bool
		m.taskForm, cmd, submitted = m.taskForm.Update(msg)
		if submitted {
			m.createTask(m.taskForm.Subject(), m.taskForm.Task())
		}
		return m, cmd
	}
	if m.subjectForm.IsVisible() {
		var cmd tea.Cmd
		var submitted bool
		m.subjectForm, cmd, submitted = m.subjectForm.Update(msg)
		if submitted {
			m.createSubject(m.subjectForm.Values())
		}
		return m, cmd
	}
	if m.marksForm.IsVisible() {
		var cmd tea.Cmd
		var submitted bool
		m.marksForm, cmd, submitted = m.marksForm.Update(msg)
		if submitted {
			code, index := m.marksForm.Target()
			m.setMarks(code, index, m.marksForm.Marks())
		}
		return m, cmd
	}
	if m.settingsPane.IsVisible() {
		var cmd tea.Cmd
		m.settingsPane, cmd = m.settingsPane.Update(msg)
		if m.settingsPane.Saved() {
			m.setStatus("Settings saved; they apply on next start.", false)
		}
		return m, cmd
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(keyMsg, m.keys.PrevSubject):
		m.boardPane.MoveSubject(-1)
	case key.Matches(keyMsg, m.keys.NextSubject):
		m.boardPane.MoveSubject(1)
	case key.Matches(keyMsg, m.keys.Up):
		m.boardPane.MoveTask(-1)
	case key.Matches(keyMsg, m.keys.Down):
		m.boardPane.MoveTask(1)

	case key.Matches(keyMsg, m.keys.Pending):
		m.apply(workflow.StatePending)
	case key.Matches(keyMsg, m.keys.InProgress):
		m.apply(workflow.StateInProgress)
	case key.Matches(keyMsg, m.keys.Completed):
		m.apply(workflow.StateCompleted)
	case key.Matches(keyMsg, m.keys.Undo):
		m.undo()

	case key.Matches(keyMsg, m.keys.NewTask):
		code := m.boardPane.SubjectCode()
		if code == "" {
			m.setStatus("Press a to add a subject first.", true)
			return m, nil
		}
		return m, m.taskForm.Open(code)

	case key.Matches(keyMsg, m.keys.NewSubject):
		return m, m.subjectForm.Open()

	case key.Matches(keyMsg, m.keys.Marks):
		task, ok := m.boardPane.SelectedTask()
		if !ok {
			m.setStatus("No task selected.", true)
			return m, nil
		}
		if !task.Completed() {
			m.setStatus("Only completed tasks take marks.", true)
			return m, nil
		}
		code, index, _ := m.boardPane.Selected()
		return m, m.marksForm.Open(code, index, task.Title, task.Marks)

	case key.Matches(keyMsg, m.keys.Settings):
		m.settingsPane.SetVisible(true)
		return m, m.settingsPane.Init()

	case key.Matches(keyMsg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.computeLayout()
	}

	return m, nil
}

func (m *Model) apply(state workflow.TaskState) {
	code, index, ok := m.boardPane.Selected()
	if !ok {
		m.setStatus("No task selected.", true)
		return
	}
	cmd, err := m.board.ApplyTaskStateChange(m.ctx, code, index, state)
	if err != nil {
		m.setStatus(describeError(err), true)
		return
	}
	m.refresh()
	m.setStatus(fmt.Sprintf("%s[%d] moved to %s.", cmd.SubjectCode, cmd.TaskIndex, cmd.Next), false)
}

func (m *Model) undo() {
	cmd, err := m.board.UndoLastCommand(m.ctx)
	m.refresh()
	if err != nil {
		m.setStatus(describeError(err), true)
		return
	}
	if cmd.SubjectCode == m.boardPane.SubjectCode() {
		m.boardPane.SelectTask(cmd.TaskIndex)
	}
	m.setStatus(fmt.Sprintf("Undid %s[%d]: back to %s.", cmd.SubjectCode, cmd.TaskIndex, cmd.Previous), false)
}

func (m *Model) createTask(code string, nt engine.NewTask) {
	index, err := m.board.CreateTask(m.ctx, code, nt)
	if err != nil {
		m.setStatus(describeError(err), true)
		return
	}
	m.refresh()
	if code == m.boardPane.SubjectCode() {
		m.boardPane.SelectTask(index)
	}
	m.setStatus(fmt.Sprintf("Added %q to %s.", nt.Title, code), false)
}

func (m *Model) createSubject(name, code, description string) {
	if err := m.board.CreateSubject(m.ctx, name, code, description); err != nil {
		m.setStatus(describeError(err), true)
		return
	}
	m.refresh()
	m.boardPane.SelectSubject(code)
	m.setStatus(fmt.Sprintf("Added subject %s.", code), false)
}

func (m *Model) setMarks(code string, index, marks int) {
	if err := m.board.SetTaskMarks(m.ctx, code, index, marks); err != nil {
		m.setStatus(describeError(err), true)
		return
	}
	m.refresh()
	m.setStatus(fmt.Sprintf("%s[%d] marked %d/100.", code, index, marks), false)
}

func (m *Model) refresh() {
	m.boardPane.SetSubjects(m.board.Subjects())
}

func (m *Model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

// describeError turns engine errors into status-line text.
func describeError(err error) string {
	switch {
	case errors.Is(err, workflow.ErrNoOpTransition):
		return "Task is already in that state."
	case errors.Is(err, workflow.ErrNothingToUndo):
		return "Nothing to undo."
	case errors.Is(err, workflow.ErrStaleReference):
		return "Undo target no longer exists; that step was discarded."
	case errors.Is(err, workflow.ErrDuplicate):
		return "That already exists."
	case errors.Is(err, workflow.ErrNotCompleted):
		return "Only completed tasks take marks."
	case errors.Is(err, workflow.ErrNotFound):
		return "That task no longer exists."
	default:
		return err.Error()
	}
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	if m.taskForm.IsVisible() {
		return m.taskForm.View()
	}
	if m.subjectForm.IsVisible() {
		return m.subjectForm.View()
	}
	if m.marksForm.IsVisible() {
		return m.marksForm.View()
	}
	if m.settingsPane.IsVisible() {
		return m.settingsPane.View()
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		m.boardPane.View(),
		m.activityPane.View(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusLine(), m.HelpView())
}

func (m Model) statusLine() string {
	info := fmt.Sprintf("undo depth %d", m.board.HistoryDepth())
	if next, ok := m.board.PeekUndo(); ok {
		back := next.Transition().Reverse()
		info += fmt.Sprintf(" · u: %s[%d] %s", next.SubjectCode, next.TaskIndex, back)
	}
	depth := StyleMuted.Render(info)
	if m.status == "" {
		return depth
	}
	style := m.styles.Info
	if m.statusErr {
		style = m.styles.Error
	}
	return style.Render(m.status) + "  " + depth
}

// HelpView returns the help bar for the current key bindings.
func (m Model) HelpView() string {
	return StyleHelp.Render(m.help.View(m.keys))
}

// Status returns the status line text.
func (m Model) Status() string {
	return m.status
}

// computeLayout calculates pane dimensions and updates all child models.
func (m *Model) computeLayout() {
	footer := 2
	if m.help.ShowAll {
		footer = 1 + len(m.keys.FullHelp()[0])
	}
	available := max(0, m.height-footer)
	activityHeight := max(4, available/4)
	boardHeight := max(0, available-activityHeight)

	m.help.Width = m.width
	m.boardPane.SetSize(m.width, boardHeight)
	m.activityPane.SetSize(m.width, activityHeight)
	m.taskForm.SetSize(m.width, m.height)
	m.subjectForm.SetSize(m.width, m.height)
	m.marksForm.SetSize(m.width, m.height)
	m.settingsPane.SetSize(m.width, m.height)
}
