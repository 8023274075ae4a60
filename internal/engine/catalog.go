package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aristath/studytracker/internal/events"
	"github.com/aristath/studytracker/internal/store"
	"github.com/aristath/studytracker/internal/workflow"
)

// NewTask holds the fields needed to create a task.
type NewTask struct {
	Title       string
	Description string
	Deadline    time.Time
	Type        workflow.TaskType
}

// CreateSubject registers a subject with no tasks.
func (e *Engine) CreateSubject(ctx context.Context, name, code, description string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, code = strings.TrimSpace(name), strings.TrimSpace(code)
	if name == "" || code == "" {
		return fmt.Errorf("subject name and code are required: %w", workflow.ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.AddSubject(code, name, description); err != nil {
		return err
	}

	e.log.Info("subject created", zap.String("subject", code), zap.String("name", name))
	e.publish(events.TopicSubject, events.SubjectCreatedEvent{
		Code:        code,
		Name:        name,
		Description: description,
		Timestamp:   e.now(),
	})
	return nil
}

// CreateTask appends a new Pending task to the subject and returns its index.
// Task creation is not a command and is never undone.
func (e *Engine) CreateTask(ctx context.Context, subjectCode string, nt NewTask) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, err
	}
	if strings.TrimSpace(nt.Title) == "" {
		return -1, fmt.Errorf("task title is required: %w", workflow.ErrInvalidInput)
	}
	if !nt.Type.Valid() {
		return -1, fmt.Errorf("task type %d: %w", int(nt.Type), workflow.ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	task := workflow.Task{
		ID:          e.newID(),
		Title:       nt.Title,
		Description: nt.Description,
		Deadline:    nt.Deadline,
		Type:        nt.Type,
		State:       workflow.StatePending,
	}
	index, err := e.store.AppendTask(subjectCode, task)
	if err != nil {
		return -1, err
	}

	e.log.Info("task created",
		zap.String("subject", subjectCode),
		zap.Int("index", index),
		zap.String("title", task.Title),
		zap.Stringer("type", task.Type))
	e.publish(events.TopicTask, events.TaskCreatedEvent{
		Subject:   subjectCode,
		Index:     index,
		Task:      task,
		Timestamp: e.now(),
	})
	return index, nil
}

// SetTaskMarks records marks on a Completed task. It is not undoable on its
// own; moving the task out of Completed clears the marks and undoing that
// move brings them back.
func (e *Engine) SetTaskMarks(ctx context.Context, subjectCode string, taskIndex, marks int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if marks < 0 || marks > 100 {
		return fmt.Errorf("marks %d outside 0..100: %w", marks, workflow.ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	task, err := e.store.Task(subjectCode, taskIndex)
	if err != nil {
		return err
	}
	if !task.Completed() {
		return fmt.Errorf("%s[%d] is %s: %w", subjectCode, taskIndex, task.State, workflow.ErrNotCompleted)
	}
	_ = e.store.SetTaskMarks(subjectCode, taskIndex, marks)

	e.publish(events.TopicTask, events.TaskMarksChangedEvent{
		Subject:   subjectCode,
		Index:     taskIndex,
		TaskID:    task.ID,
		Marks:     marks,
		Timestamp: e.now(),
	})
	return nil
}

// Subjects returns every subject with its tasks, in creation order.
func (e *Engine) Subjects() []store.Subject {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Subjects()
}

// Subject returns one subject with its tasks.
func (e *Engine) Subject(code string) (store.Subject, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Subject(code)
}

// ListTasks returns the subject's tasks in canonical order.
func (e *Engine) ListTasks(code string) ([]workflow.Task, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Tasks(code)
}

// Task returns the task at index.
func (e *Engine) Task(code string, index int) (workflow.Task, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Task(code, index)
}
