package persistence

import (
	"context"
)

// initSchema creates all required tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS subjects (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		subject_code TEXT NOT NULL,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		deadline TEXT NOT NULL DEFAULT '',
		type INTEGER NOT NULL,
		state INTEGER NOT NULL,
		marks INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (subject_code, position),
		FOREIGN KEY (subject_code) REFERENCES subjects(code) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_subject_position ON tasks(subject_code, position);

	CREATE TABLE IF NOT EXISTS resumes (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		markdown TEXT NOT NULL,
		html TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS internships (
		id TEXT PRIMARY KEY,
		company TEXT NOT NULL,
		position TEXT NOT NULL,
		status INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL
	);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}
