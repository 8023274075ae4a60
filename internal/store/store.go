// Package store holds the canonical subjects and their ordered tasks.
//
// Store is not safe for concurrent use. It has a single owner (the engine),
// which serializes every access together with the command history.
package store

import (
	"fmt"

	"github.com/aristath/studytracker/internal/workflow"
)

// Subject is a course container owning an ordered list of tasks.
type Subject struct {
	Code        string // Unique, immutable
	Name        string
	Description string
	Tasks       []workflow.Task // Insertion order is the canonical order
}

type subject struct {
	code        string
	name        string
	description string
	tasks       []*workflow.Task
}

// Store indexes subjects by code and remembers their creation order.
type Store struct {
	subjects map[string]*subject
	order    []string
}

// New creates an empty store.
func New() *Store {
	return &Store{
		subjects: make(map[string]*subject),
	}
}

// AddSubject registers a subject with no tasks.
func (s *Store) AddSubject(code, name, description string) error {
	if _, exists := s.subjects[code]; exists {
		return fmt.Errorf("subject %q: %w", code, workflow.ErrDuplicate)
	}
	s.subjects[code] = &subject{code: code, name: name, description: description}
	s.order = append(s.order, code)
	return nil
}

// Subject returns a copy of the subject and its tasks.
func (s *Store) Subject(code string) (Subject, error) {
	sub, ok := s.subjects[code]
	if !ok {
		return Subject{}, fmt.Errorf("subject %q: %w", code, workflow.ErrNotFound)
	}
	return sub.snapshot(), nil
}

// Subjects returns copies of all subjects in creation order.
func (s *Store) Subjects() []Subject {
	out := make([]Subject, 0, len(s.order))
	for _, code := range s.order {
		out = append(out, s.subjects[code].snapshot())
	}
	return out
}

// Tasks returns a copy of the subject's task sequence.
func (s *Store) Tasks(code string) ([]workflow.Task, error) {
	sub, ok := s.subjects[code]
	if !ok {
		return nil, fmt.Errorf("subject %q: %w", code, workflow.ErrNotFound)
	}
	return sub.snapshot().Tasks, nil
}

// Task returns a copy of the task at index.
func (s *Store) Task(code string, index int) (workflow.Task, error) {
	t, err := s.lookup(code, index)
	if err != nil {
		return workflow.Task{}, err
	}
	return *t, nil
}

// SetTaskState overwrites the task's state. No validation happens here.
func (s *Store) SetTaskState(code string, index int, state workflow.TaskState) error {
	t, err := s.lookup(code, index)
	if err != nil {
		return err
	}
	t.State = state
	return nil
}

// SetTaskMarks overwrites the task's marks. No validation happens here.
func (s *Store) SetTaskMarks(code string, index int, marks int) error {
	t, err := s.lookup(code, index)
	if err != nil {
		return err
	}
	t.Marks = marks
	return nil
}

// AppendTask adds task at the end of the subject's sequence and returns its
// index. Titles are unique within a subject.
func (s *Store) AppendTask(code string, task workflow.Task) (int, error) {
	sub, ok := s.subjects[code]
	if !ok {
		return -1, fmt.Errorf("subject %q: %w", code, workflow.ErrNotFound)
	}
	for _, existing := range sub.tasks {
		if existing.Title == task.Title {
			return -1, fmt.Errorf("task %q in subject %q: %w", task.Title, code, workflow.ErrDuplicate)
		}
	}
	cp := task
	sub.tasks = append(sub.tasks, &cp)
	return len(sub.tasks) - 1, nil
}

// Len returns the number of subjects.
func (s *Store) Len() int {
	return len(s.order)
}

// Clear drops every subject.
func (s *Store) Clear() {
	s.subjects = make(map[string]*subject)
	s.order = nil
}

func (s *Store) lookup(code string, index int) (*workflow.Task, error) {
	sub, ok := s.subjects[code]
	if !ok {
		return nil, fmt.Errorf("subject %q: %w", code, workflow.ErrNotFound)
	}
	if index < 0 || index >= len(sub.tasks) {
		return nil, fmt.Errorf("task index %d in subject %q (have %d): %w", index, code, len(sub.tasks), workflow.ErrNotFound)
	}
	return sub.tasks[index], nil
}

func (sub *subject) snapshot() Subject {
	tasks := make([]workflow.Task, len(sub.tasks))
	for i, t := range sub.tasks {
		tasks[i] = *t
	}
	return Subject{
		Code:        sub.code,
		Name:        sub.name,
		Description: sub.description,
		Tasks:       tasks,
	}
}
