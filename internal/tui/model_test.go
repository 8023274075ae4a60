package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aristath/studytracker/internal/config"
	"github.com/aristath/studytracker/internal/engine"
	"github.com/aristath/studytracker/internal/events"
	"github.com/aristath/studytracker/internal/workflow"
)

var seedTime = time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

// testModel returns a dashboard over a seeded engine, sized for rendering.
func testModel(t *testing.T) (Model, *engine.Engine, *events.EventBus) {
	t.Helper()
	bus := events.NewEventBus()
	t.Cleanup(bus.Close)

	eng := engine.New(engine.WithEventBus(bus))
	if err := eng.Seed(context.Background(), seedTime); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	dir := t.TempDir()
	m := New(context.Background(), eng, bus, config.DefaultConfig(), dir+"/global.json", dir+"/project.json")
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(Model), eng, bus
}

func press(t *testing.T, m Model, keys string) Model {
	t.Helper()
	for _, r := range keys {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(Model)
	}
	return m
}

func taskState(t *testing.T, eng *engine.Engine, code string, index int) workflow.TaskState {
	t.Helper()
	task, err := eng.Task(code, index)
	if err != nil {
		t.Fatalf("task %s[%d]: %v", code, index, err)
	}
	return task.State
}

func TestStateKeysApplyAndUndo(t *testing.T) {
	m, eng, _ := testModel(t)

	// MATH101[0] is already Completed.
	m = press(t, m, "3")
	if !strings.Contains(m.Status(), "already") {
		t.Errorf("status = %q, want no-op message", m.Status())
	}
	if eng.HistoryDepth() != 0 {
		t.Fatalf("no-op should not record history, depth = %d", eng.HistoryDepth())
	}

	// Move to the midterm and complete it.
	m = press(t, m, "j3")
	if got := taskState(t, eng, "MATH101", 1); got != workflow.StateCompleted {
		t.Fatalf("MATH101[1] = %s, want Completed", got)
	}
	if eng.HistoryDepth() != 1 {
		t.Errorf("depth = %d, want 1", eng.HistoryDepth())
	}

	m = press(t, m, "u")
	if got := taskState(t, eng, "MATH101", 1); got != workflow.StateInProgress {
		t.Errorf("after undo MATH101[1] = %s, want In Progress", got)
	}

	m = press(t, m, "u")
	if m.Status() != "Nothing to undo." {
		t.Errorf("status = %q, want nothing-to-undo message", m.Status())
	}
}

func TestSubjectNavigationWraps(t *testing.T) {
	m, eng, _ := testModel(t)

	m = press(t, m, "l")
	if got := m.boardPane.SubjectCode(); got != "CS101" {
		t.Fatalf("after l subject = %s, want CS101", got)
	}

	// CS101[0] is the In Progress web app project.
	m = press(t, m, "1")
	if got := taskState(t, eng, "CS101", 0); got != workflow.StatePending {
		t.Errorf("CS101[0] = %s, want Pending", got)
	}

	m = press(t, m, "hh")
	if got := m.boardPane.SubjectCode(); got != "PHYS101" {
		t.Errorf("after hh subject = %s, want PHYS101 (wrap)", got)
	}
}

func TestTaskCursorStaysInRange(t *testing.T) {
	m, _, _ := testModel(t)

	m = press(t, m, "kkk")
	if _, idx, _ := m.boardPane.Selected(); idx != 0 {
		t.Errorf("cursor = %d, want 0", idx)
	}
	m = press(t, m, "jjjjj")
	if _, idx, _ := m.boardPane.Selected(); idx != 1 {
		t.Errorf("cursor = %d, want 1 (MATH101 has two tasks)", idx)
	}
}

func TestBusEventsFeedActivity(t *testing.T) {
	m, eng, bus := testModel(t)
	sub := bus.SubscribeAll(4)

	if _, err := eng.ApplyTaskStateChange(context.Background(), "PHYS101", 0, workflow.StateCompleted); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	ev := <-sub

	updated, cmd := m.Update(ev)
	m = updated.(Model)
	if cmd == nil {
		t.Error("expected the model to keep listening for events")
	}

	lines := m.activityPane.Lines()
	if len(lines) != 1 || !strings.Contains(lines[0], "PHYS101[0] In Progress -> Completed") {
		t.Errorf("activity = %v", lines)
	}
}

func TestCreateTaskFromForm(t *testing.T) {
	m, eng, _ := testModel(t)

	m.createTask("CS101", engine.NewTask{Title: "Lab 3: Graphs", Type: workflow.TypeLab})
	tasks, err := eng.ListTasks("CS101")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(tasks) != 4 || tasks[3].Title != "Lab 3: Graphs" {
		t.Errorf("tasks = %+v", tasks)
	}

	m.createTask("CS101", engine.NewTask{Title: "Lab 3: Graphs", Type: workflow.TypeLab})
	if !m.statusErr || !strings.Contains(m.Status(), "already exists") {
		t.Errorf("status = %q, want duplicate message", m.Status())
	}
}

func TestNewTaskKeyOpensForm(t *testing.T) {
	m, _, _ := testModel(t)

	m = press(t, m, "n")
	if !m.taskForm.IsVisible() {
		t.Fatal("form should be open")
	}
	if m.taskForm.Subject() != "MATH101" {
		t.Errorf("form subject = %s, want MATH101", m.taskForm.Subject())
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	if m.taskForm.IsVisible() {
		t.Error("esc should close the form")
	}
}

func TestQuit(t *testing.T) {
	m, _, _ := testModel(t)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if updated.(Model).View() != "Goodbye!\n" {
		t.Error("expected goodbye view")
	}
}

func TestViewRendersBoard(t *testing.T) {
	m, _, _ := testModel(t)

	view := m.View()
	for _, want := range []string{"MATH101", "CS101", "Pending", "In Progress", "Completed", "Lab 1: Algebra", "undo depth 0"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestDueLabel(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		deadline time.Time
		want     string
	}{
		{now.Add(-time.Hour), "overdue"},
		{now.Add(3 * time.Hour), "due today"},
		{now.Add(72*time.Hour + time.Minute), "due in 3d"},
	}
	for _, tt := range tests {
		if got := dueLabel(tt.deadline, now); got != tt.want {
			t.Errorf("dueLabel(%v) = %q, want %q", tt.deadline, got, tt.want)
		}
	}
}

func TestCreateSubjectFromForm(t *testing.T) {
	m, eng, _ := testModel(t)

	m = press(t, m, "a")
	if !m.subjectForm.IsVisible() {
		t.Fatal("a should open the subject form")
	}
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)

	m.createSubject("Biology", "BIO100", "Cells and organisms")
	if _, err := eng.Subject("BIO100"); err != nil {
		t.Fatalf("subject not created: %v", err)
	}
	if got := m.boardPane.SubjectCode(); got != "BIO100" {
		t.Errorf("selected subject = %s, want BIO100", got)
	}

	m.createSubject("Maths again", "MATH101", "")
	if !m.statusErr || !strings.Contains(m.Status(), "already exists") {
		t.Errorf("status = %q, want duplicate message", m.Status())
	}
}

func TestMarksOnlyForCompletedTasks(t *testing.T) {
	m, eng, _ := testModel(t)

	// MATH101[0] is Completed with 90 marks.
	m = press(t, m, "m")
	if !m.marksForm.IsVisible() {
		t.Fatal("m should open the marks form on a completed task")
	}
	if got := m.marksForm.Marks(); got != 90 {
		t.Errorf("prefilled marks = %d, want 90", got)
	}
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)

	m.setMarks("MATH101", 0, 75)
	task, err := eng.Task("MATH101", 0)
	if err != nil {
		t.Fatalf("task: %v", err)
	}
	if task.Marks != 75 {
		t.Errorf("marks = %d, want 75", task.Marks)
	}

	m = press(t, m, "jm")
	if m.marksForm.IsVisible() {
		t.Error("marks form should not open for an in-progress task")
	}
	if m.Status() != "Only completed tasks take marks." {
		t.Errorf("status = %q", m.Status())
	}
}

func TestStatusLinePreviewsUndo(t *testing.T) {
	m, _, _ := testModel(t)

	m = press(t, m, "j3")
	if line := m.statusLine(); !strings.Contains(line, "u: MATH101[1] Completed -> In Progress") {
		t.Errorf("status line = %q, want undo preview", line)
	}

	m = press(t, m, "u")
	if line := m.statusLine(); strings.Contains(line, "u: ") {
		t.Errorf("status line = %q, want no preview with empty history", line)
	}
}
