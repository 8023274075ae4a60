package events

import (
	"time"

	"github.com/aristath/studytracker/internal/store"
	"github.com/aristath/studytracker/internal/workflow"
)

// Event is the base interface for all events.
type Event interface {
	EventType() string
	SubjectCode() string
}

// Topic constants
const (
	TopicSubject = "subject"
	TopicTask    = "task"
	TopicHistory = "history"
)

// Event type constants
const (
	EventTypeSubjectCreated   = "subject.created"
	EventTypeTaskCreated      = "task.created"
	EventTypeTaskStateChanged = "task.state_changed"
	EventTypeTaskMarksChanged = "task.marks_changed"
	EventTypeCommandUndone    = "history.undone"
	EventTypeStoreReset       = "history.reset"
)

// SubjectCreatedEvent is published after a subject is added.
type SubjectCreatedEvent struct {
	Code        string
	Name        string
	Description string
	Timestamp   time.Time
}

func (e SubjectCreatedEvent) EventType() string   { return EventTypeSubjectCreated }
func (e SubjectCreatedEvent) SubjectCode() string { return e.Code }

// TaskCreatedEvent is published after a task is appended to a subject.
type TaskCreatedEvent struct {
	Subject   string
	Index     int
	Task      workflow.Task
	Timestamp time.Time
}

func (e TaskCreatedEvent) EventType() string   { return EventTypeTaskCreated }
func (e TaskCreatedEvent) SubjectCode() string { return e.Subject }

// TaskStateChangedEvent is published after a state change has been applied
// and recorded in history.
type TaskStateChangedEvent struct {
	Seq       uint64
	Subject   string
	Index     int
	TaskID    string
	From      workflow.TaskState
	To        workflow.TaskState
	Marks     int // Marks after the change
	Timestamp time.Time
}

func (e TaskStateChangedEvent) EventType() string   { return EventTypeTaskStateChanged }
func (e TaskStateChangedEvent) SubjectCode() string { return e.Subject }

// TaskMarksChangedEvent is published when marks are recorded on a task.
type TaskMarksChangedEvent struct {
	Subject   string
	Index     int
	TaskID    string
	Marks     int
	Timestamp time.Time
}

func (e TaskMarksChangedEvent) EventType() string   { return EventTypeTaskMarksChanged }
func (e TaskMarksChangedEvent) SubjectCode() string { return e.Subject }

// CommandUndoneEvent is published after the most recent command is reversed.
type CommandUndoneEvent struct {
	Seq       uint64
	Subject   string
	Index     int
	TaskID    string
	Reverted  workflow.TaskState // State the task left
	Restored  workflow.TaskState // State the task is back in
	Marks     int
	Depth     int // History depth after the undo
	Timestamp time.Time
}

func (e CommandUndoneEvent) EventType() string   { return EventTypeCommandUndone }
func (e CommandUndoneEvent) SubjectCode() string { return e.Subject }

// StoreResetEvent is published after a reset, reseed or bulk load. Subjects
// holds the complete new contents.
type StoreResetEvent struct {
	Reason    string
	Subjects  []store.Subject
	Timestamp time.Time
}

func (e StoreResetEvent) EventType() string   { return EventTypeStoreReset }
func (e StoreResetEvent) SubjectCode() string { return "" }
