package workflow

import (
	"fmt"
	"strings"
	"time"
)

// TaskState is the kanban column a task currently occupies.
type TaskState int

const (
	StatePending    TaskState = iota // Initial state, assigned at creation
	StateInProgress                  // Being worked on
	StateCompleted                   // Done; marks may be recorded
)

// States lists every state in board order.
var States = []TaskState{StatePending, StateInProgress, StateCompleted}

// Valid reports whether s is one of the defined states.
func (s TaskState) Valid() bool {
	return s >= StatePending && s <= StateCompleted
}

// String returns the display name used by the dashboard.
func (s TaskState) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateInProgress:
		return "In Progress"
	case StateCompleted:
		return "Completed"
	default:
		return fmt.Sprintf("TaskState(%d)", int(s))
	}
}

// Progress is the conceptual completion percentage for the state.
func (s TaskState) Progress() float64 {
	switch s {
	case StateInProgress:
		return 50
	case StateCompleted:
		return 100
	default:
		return 0
	}
}

// ParseTaskState accepts a display name ("In Progress"), a compact form
// ("inprogress", "in_progress") or a column number ("0".."2").
func ParseTaskState(s string) (TaskState, error) {
	key := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.TrimSpace(s)))
	switch key {
	case "pending", "0":
		return StatePending, nil
	case "inprogress", "1":
		return StateInProgress, nil
	case "completed", "2":
		return StateCompleted, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidState, s)
}

// TaskType classifies a task. It is fixed at creation.
type TaskType int

const (
	TypeLab TaskType = iota
	TypeExam
	TypeProject
)

// String returns the display name of the type.
func (t TaskType) String() string {
	switch t {
	case TypeLab:
		return "Lab"
	case TypeExam:
		return "Exam"
	case TypeProject:
		return "Project"
	default:
		return fmt.Sprintf("TaskType(%d)", int(t))
	}
}

// Valid reports whether t is one of the defined types.
func (t TaskType) Valid() bool {
	return t >= TypeLab && t <= TypeProject
}

// ParseTaskType accepts "Lab", "Exam" or "Project" in any case.
func ParseTaskType(s string) (TaskType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lab":
		return TypeLab, nil
	case "exam":
		return TypeExam, nil
	case "project":
		return TypeProject, nil
	}
	return 0, fmt.Errorf("%w: unknown task type %q", ErrInvalidInput, s)
}

// Task is a unit of work owned by exactly one subject.
type Task struct {
	ID          string    // Stable identity, survives reordering
	Title       string    // Unique within the owning subject
	Description string
	Deadline    time.Time
	Type        TaskType
	State       TaskState
	Marks       int // Only meaningful while Completed
}

// Completed reports whether the task is in the Completed column.
func (t Task) Completed() bool {
	return t.State == StateCompleted
}

// Progress returns the conceptual completion percentage.
func (t Task) Progress() float64 {
	return t.State.Progress()
}
