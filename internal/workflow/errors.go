package workflow

import "errors"

var (
	// ErrNotFound means a subject code or task index does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrNoOpTransition means the requested state equals the current one.
	ErrNoOpTransition = errors.New("no-op transition")

	// ErrNothingToUndo means the history stack is empty.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrStaleReference means a recorded command no longer resolves in the
	// store. History and store have diverged.
	ErrStaleReference = errors.New("stale command reference")

	// ErrInvalidState means a state value outside the defined set.
	ErrInvalidState = errors.New("invalid task state")

	// ErrDuplicate means an entity with the same key already exists.
	ErrDuplicate = errors.New("already exists")

	// ErrNotCompleted means the operation needs a Completed task.
	ErrNotCompleted = errors.New("task is not completed")

	// ErrInvalidInput means a required field is missing or out of range.
	ErrInvalidInput = errors.New("invalid input")
)
