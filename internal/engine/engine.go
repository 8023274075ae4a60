// Package engine owns the task workflow: it applies task state changes as
// undoable commands and reverses them in strict LIFO order.
//
// The entity store and the command history are guarded together by a single
// lock, so no reader ever sees a state change that is not yet in history.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aristath/studytracker/internal/events"
	"github.com/aristath/studytracker/internal/store"
	"github.com/aristath/studytracker/internal/workflow"
)

// Engine is safe for concurrent use.
type Engine struct {
	mu      sync.RWMutex
	store   *store.Store
	history *History
	seq     uint64

	bus   *events.EventBus
	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithEventBus publishes committed changes to bus.
func WithEventBus(bus *events.EventBus) Option {
	return func(e *Engine) { e.bus = bus }
}

// WithLogger sets the logger. A nil logger is replaced by a no-op one.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithHistoryLimit caps the history depth (0 = unbounded).
func WithHistoryLimit(limit int) Option {
	return func(e *Engine) { e.history = NewHistory(limit) }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides how task identities are minted.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

// New creates an engine with an empty store and history.
func New(opts ...Option) *Engine {
	e := &Engine{
		store:   store.New(),
		history: NewHistory(0),
		log:     zap.NewNop(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ApplyTaskStateChange moves the task at (subjectCode, taskIndex) to
// newState and records the change so it can be undone.
//
// Fails with workflow.ErrNotFound when the task does not resolve and with
// workflow.ErrNoOpTransition when the task is already in newState. Nothing
// is mutated or recorded on failure.
func (e *Engine) ApplyTaskStateChange(ctx context.Context, subjectCode string, taskIndex int, newState workflow.TaskState) (Command, error) {
	if err := ctx.Err(); err != nil {
		return Command{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	task, err := e.store.Task(subjectCode, taskIndex)
	if err != nil {
		return Command{}, err
	}

	tr, err := workflow.Validate(task.State, newState)
	if err != nil {
		e.log.Debug("transition rejected",
			zap.String("subject", subjectCode),
			zap.Int("index", taskIndex),
			zap.Stringer("state", task.State),
			zap.Stringer("target", newState),
			zap.Error(err))
		return Command{}, fmt.Errorf("%s[%d]: %w", subjectCode, taskIndex, err)
	}

	// Lookup succeeded under the same lock, so the writes below cannot miss.
	_ = e.store.SetTaskState(subjectCode, taskIndex, tr.To)
	marks := task.Marks
	if tr.From == workflow.StateCompleted && marks != 0 {
		_ = e.store.SetTaskMarks(subjectCode, taskIndex, 0)
		marks = 0
	}

	e.seq++
	cmd := Command{
		Seq:           e.seq,
		SubjectCode:   subjectCode,
		TaskIndex:     taskIndex,
		TaskID:        task.ID,
		Previous:      tr.From,
		Next:          tr.To,
		PreviousMarks: task.Marks,
		AppliedAt:     e.now(),
	}
	if e.history.Push(cmd) {
		e.log.Warn("history full, oldest command evicted",
			zap.Int("depth", e.history.Depth()),
			zap.Uint64("evicted_total", e.history.Evicted()))
	}

	e.log.Info("task state changed",
		zap.Uint64("seq", cmd.Seq),
		zap.String("subject", subjectCode),
		zap.Int("index", taskIndex),
		zap.String("title", task.Title),
		zap.Stringer("from", tr.From),
		zap.Stringer("to", tr.To),
		zap.Int("depth", e.history.Depth()))

	e.publish(events.TopicTask, events.TaskStateChangedEvent{
		Seq:       cmd.Seq,
		Subject:   subjectCode,
		Index:     taskIndex,
		TaskID:    task.ID,
		From:      tr.From,
		To:        tr.To,
		Marks:     marks,
		Timestamp: cmd.AppliedAt,
	})

	return cmd, nil
}

// UndoLastCommand reverses the most recent recorded change anywhere in the
// engine and discards it; there is no redo.
//
// Fails with workflow.ErrNothingToUndo when history is empty. When the
// popped command no longer resolves to the task it was applied to, the
// command is dropped and workflow.ErrStaleReference is returned.
func (e *Engine) UndoLastCommand(ctx context.Context) (Command, error) {
	if err := ctx.Err(); err != nil {
		return Command{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	cmd, ok := e.history.Pop()
	if !ok {
		return Command{}, workflow.ErrNothingToUndo
	}

	task, err := e.store.Task(cmd.SubjectCode, cmd.TaskIndex)
	if err == nil && cmd.TaskID != "" && task.ID != cmd.TaskID {
		err = fmt.Errorf("task at index now has id %q, command recorded %q", task.ID, cmd.TaskID)
	}
	if err != nil {
		e.log.Error("history and store diverged, dropping command",
			zap.Uint64("seq", cmd.Seq),
			zap.String("subject", cmd.SubjectCode),
			zap.Int("index", cmd.TaskIndex),
			zap.String("task_id", cmd.TaskID),
			zap.Error(err))
		return cmd, fmt.Errorf("%w: %s: %v", workflow.ErrStaleReference, cmd, err)
	}

	// Restoring the recorded prior value bypasses validation by definition.
	_ = e.store.SetTaskState(cmd.SubjectCode, cmd.TaskIndex, cmd.Previous)
	_ = e.store.SetTaskMarks(cmd.SubjectCode, cmd.TaskIndex, cmd.PreviousMarks)

	depth := e.history.Depth()
	e.log.Info("command undone",
		zap.Uint64("seq", cmd.Seq),
		zap.String("subject", cmd.SubjectCode),
		zap.Int("index", cmd.TaskIndex),
		zap.Stringer("from", task.State),
		zap.Stringer("to", cmd.Previous),
		zap.Int("depth", depth))

	e.publish(events.TopicHistory, events.CommandUndoneEvent{
		Seq:       cmd.Seq,
		Subject:   cmd.SubjectCode,
		Index:     cmd.TaskIndex,
		TaskID:    cmd.TaskID,
		Reverted:  task.State,
		Restored:  cmd.Previous,
		Marks:     cmd.PreviousMarks,
		Depth:     depth,
		Timestamp: e.now(),
	})

	return cmd, nil
}

// CanUndo reports whether history holds at least one command.
func (e *Engine) CanUndo() bool {
	return e.HistoryDepth() > 0
}

// HistoryDepth returns the number of undoable commands.
func (e *Engine) HistoryDepth() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.Depth()
}

// PeekUndo returns the command the next undo would reverse, without
// removing it.
func (e *Engine) PeekUndo() (Command, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.Peek()
}

// History returns the recorded commands, oldest first.
func (e *Engine) History() []Command {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.Snapshot()
}

// publish must be called with e.mu held so that publication order matches
// commit order. Publishing never blocks.
func (e *Engine) publish(topic string, event events.Event) {
	if e.bus == nil {
		return
	}
	e.bus.Publish(topic, event)
}
