package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aristath/studytracker/internal/events"
	"github.com/aristath/studytracker/internal/store"
	"github.com/aristath/studytracker/internal/workflow"
)

// Reset drops every subject and clears history.
func (e *Engine) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.store.Clear()
	e.history.Clear()
	e.log.Info("store reset")
	e.publishReset("reset")
	return nil
}

// Load replaces the store with previously persisted subjects and clears
// history. Task states, marks and identities are taken as given. Tasks
// without an identity get a fresh one.
func (e *Engine) Load(ctx context.Context, subjects []store.Subject) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadLocked(subjects)
}

func (e *Engine) loadLocked(subjects []store.Subject) error {
	fresh := store.New()
	for _, sub := range subjects {
		if err := fresh.AddSubject(sub.Code, sub.Name, sub.Description); err != nil {
			return fmt.Errorf("loading subject %q: %w", sub.Code, err)
		}
		for _, task := range sub.Tasks {
			if !task.State.Valid() {
				return fmt.Errorf("loading %q in %q: %w", task.Title, sub.Code, workflow.ErrInvalidState)
			}
			if task.ID == "" {
				task.ID = e.newID()
			}
			if _, err := fresh.AppendTask(sub.Code, task); err != nil {
				return fmt.Errorf("loading subject %q: %w", sub.Code, err)
			}
		}
	}

	e.store = fresh
	e.history.Clear()
	e.log.Info("store loaded", zap.Int("subjects", fresh.Len()))
	return nil
}

// Seed resets the engine and fills it with the demo curriculum. Deadlines
// are placed relative to now.
func (e *Engine) Seed(ctx context.Context, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	past := now.Add(-72 * time.Hour)
	soon := now.Add(7 * 24 * time.Hour)
	future := now.Add(30 * 24 * time.Hour)

	task := func(title, desc string, deadline time.Time, typ workflow.TaskType, state workflow.TaskState, marks int) workflow.Task {
		return workflow.Task{
			ID:          e.newID(),
			Title:       title,
			Description: desc,
			Deadline:    deadline,
			Type:        typ,
			State:       state,
			Marks:       marks,
		}
	}

	subjects := []store.Subject{
		{
			Code:        "MATH101",
			Name:        "Mathematics",
			Description: "Fundamental concepts of mathematics.",
			Tasks: []workflow.Task{
				task("Lab 1: Algebra", "Basic algebraic manipulations", past, workflow.TypeLab, workflow.StateCompleted, 90),
				task("Midterm Exam", "Covers first half of the course", soon, workflow.TypeExam, workflow.StateInProgress, 0),
			},
		},
		{
			Code:        "CS101",
			Name:        "Computer Science",
			Description: "Introduction to programming and algorithms.",
			Tasks: []workflow.Task{
				task("Project: Web App", "Develop a simple web application", future, workflow.TypeProject, workflow.StateInProgress, 0),
				task("Lab 1: Python Basics", "Introduction to Python syntax", past, workflow.TypeLab, workflow.StateCompleted, 95),
				task("Lab 2: Data Structures", "Implement lists and dictionaries", soon, workflow.TypeLab, workflow.StateCompleted, 88),
			},
		},
		{
			Code:        "PHYS101",
			Name:        "Physics",
			Description: "Classical mechanics and thermodynamics.",
			Tasks: []workflow.Task{
				task("Lab: Kinematics", "Experiments on motion", soon, workflow.TypeLab, workflow.StateInProgress, 0),
				task("Final Exam", "Comprehensive exam on all topics", future, workflow.TypeExam, workflow.StateInProgress, 0),
			},
		},
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.loadLocked(subjects); err != nil {
		return err
	}
	e.log.Info("store seeded", zap.Int("subjects", len(subjects)))
	e.publishReset("seed")
	return nil
}

// publishReset must be called with e.mu held.
func (e *Engine) publishReset(reason string) {
	e.publish(events.TopicHistory, events.StoreResetEvent{
		Reason:    reason,
		Subjects:  e.store.Subjects(),
		Timestamp: e.now(),
	})
}
