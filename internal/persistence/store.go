package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	_ "modernc.org/sqlite"

	"github.com/aristath/studytracker/internal/catalog"
	"github.com/aristath/studytracker/internal/store"
	"github.com/aristath/studytracker/internal/workflow"
)

// Store defines the persistence interface for coursework and career records.
type Store interface {
	// Coursework
	SaveSubject(ctx context.Context, code, name, description string) error
	SaveTask(ctx context.Context, subjectCode string, position int, task workflow.Task) error
	UpdateTaskState(ctx context.Context, taskID string, state workflow.TaskState, marks int) error
	UpdateTaskMarks(ctx context.Context, taskID string, marks int) error
	LoadSubjects(ctx context.Context) ([]store.Subject, error)
	ReplaceAll(ctx context.Context, subjects []store.Subject) error

	// Career records
	SaveResume(ctx context.Context, r catalog.Resume) error
	ListResumes(ctx context.Context) ([]catalog.Resume, error)
	SaveInternship(ctx context.Context, in catalog.Internship) error
	ListInternships(ctx context.Context) ([]catalog.Internship, error)

	// Lifecycle
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var memoryDBs atomic.Uint64

// NewSQLiteStore creates a new SQLite-backed store at the given path.
// Creates parent directories if needed. Enables WAL mode, foreign keys and a
// busy timeout.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create parent directories: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", dbPath)
	return open(ctx, connStr)
}

// NewMemoryStore creates a private in-memory SQLite store. Each call gets its
// own database; connections of one store share it through the shared cache.
func NewMemoryStore(ctx context.Context) (*SQLiteStore, error) {
	connStr := fmt.Sprintf("file:studytracker-%d?mode=memory&cache=shared", memoryDBs.Add(1))
	return open(ctx, connStr)
}

func open(ctx context.Context, connStr string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps PRAGMA foreign_keys in effect for every statement.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
