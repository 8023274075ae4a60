package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/studytracker/internal/store"
	"github.com/aristath/studytracker/internal/workflow"
)

// SaveSubject inserts or updates a subject. Creation order is kept.
func (s *SQLiteStore) SaveSubject(ctx context.Context, code, name, description string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subjects (code, name, description)
		VALUES (?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name,
			description = excluded.description
	`, code, name, description)
	if err != nil {
		return fmt.Errorf("failed to save subject %s: %w", code, err)
	}
	return nil
}

// SaveTask inserts or updates a task at its position within the subject.
func (s *SQLiteStore) SaveTask(ctx context.Context, subjectCode string, position int, task workflow.Task) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertTask(ctx, tx, subjectCode, position, task); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func upsertTask(ctx context.Context, tx *sql.Tx, subjectCode string, position int, task workflow.Task) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO tasks (id, subject_code, position, title, description, deadline, type, state, marks, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			subject_code = excluded.subject_code,
			position = excluded.position,
			title = excluded.title,
			description = excluded.description,
			deadline = excluded.deadline,
			type = excluded.type,
			state = excluded.state,
			marks = excluded.marks,
			updated_at = CURRENT_TIMESTAMP
	`, task.ID, subjectCode, position, task.Title, task.Description, formatTime(task.Deadline),
		int(task.Type), int(task.State), task.Marks)
	if err != nil {
		return fmt.Errorf("failed to upsert task %s: %w", task.ID, err)
	}
	return nil
}

// UpdateTaskState records a task's new state and marks.
func (s *SQLiteStore) UpdateTaskState(ctx context.Context, taskID string, state workflow.TaskState, marks int) error {
	return s.updateTask(ctx, taskID, `
		UPDATE tasks
		SET state = ?, marks = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, int(state), marks, taskID)
}

// UpdateTaskMarks records a task's marks.
func (s *SQLiteStore) UpdateTaskMarks(ctx context.Context, taskID string, marks int) error {
	return s.updateTask(ctx, taskID, `
		UPDATE tasks
		SET marks = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, marks, taskID)
}

func (s *SQLiteStore) updateTask(ctx context.Context, taskID, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update task %s: %w", taskID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task %s: %w", taskID, workflow.ErrNotFound)
	}
	return nil
}

// LoadSubjects returns every subject with its tasks, subjects in creation
// order and tasks by position.
func (s *SQLiteStore) LoadSubjects(ctx context.Context) ([]store.Subject, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, name, description
		FROM subjects
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query subjects: %w", err)
	}

	var subjects []store.Subject
	byCode := make(map[string]int)
	for rows.Next() {
		var sub store.Subject
		if err := rows.Scan(&sub.Code, &sub.Name, &sub.Description); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan subject: %w", err)
		}
		byCode[sub.Code] = len(subjects)
		subjects = append(subjects, sub)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subjects: %w", err)
	}

	// Subjects are fully read before tasks so the single connection is free.
	taskRows, err := s.db.QueryContext(ctx, `
		SELECT subject_code, id, title, description, deadline, type, state, marks
		FROM tasks
		ORDER BY subject_code, position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer taskRows.Close()

	for taskRows.Next() {
		var (
			code, deadline string
			typ, state     int
			task           workflow.Task
		)
		if err := taskRows.Scan(&code, &task.ID, &task.Title, &task.Description, &deadline, &typ, &state, &task.Marks); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		if task.Deadline, err = parseTime(deadline); err != nil {
			return nil, fmt.Errorf("task %s deadline: %w", task.ID, err)
		}
		task.Type = workflow.TaskType(typ)
		task.State = workflow.TaskState(state)

		i, ok := byCode[code]
		if !ok {
			return nil, fmt.Errorf("task %s references unknown subject %s", task.ID, code)
		}
		subjects[i].Tasks = append(subjects[i].Tasks, task)
	}

	if err := taskRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return subjects, nil
}

// ReplaceAll swaps the stored coursework for subjects in one transaction.
func (s *SQLiteStore) ReplaceAll(ctx context.Context, subjects []store.Subject) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("failed to clear tasks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM subjects`); err != nil {
		return fmt.Errorf("failed to clear subjects: %w", err)
	}

	for _, sub := range subjects {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO subjects (code, name, description) VALUES (?, ?, ?)
		`, sub.Code, sub.Name, sub.Description); err != nil {
			return fmt.Errorf("failed to insert subject %s: %w", sub.Code, err)
		}
		for i, task := range sub.Tasks {
			if err := upsertTask(ctx, tx, sub.Code, i, task); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
