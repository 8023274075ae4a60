package engine

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/studytracker/internal/events"
	"github.com/aristath/studytracker/internal/store"
	"github.com/aristath/studytracker/internal/workflow"
)

var fixedNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

// testEngine creates an engine with deterministic ids and clock, holding
// subjects CS101 and MATH201 with two Pending tasks each.
func testEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()

	var n atomic.Int64
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { return fmt.Sprintf("task-%d", n.Add(1)) }),
	}
	e := New(append(base, opts...)...)

	ctx := context.Background()
	for _, code := range []string{"CS101", "MATH201"} {
		require.NoError(t, e.CreateSubject(ctx, code+" name", code, ""))
		for i := 0; i < 2; i++ {
			_, err := e.CreateTask(ctx, code, NewTask{
				Title:    fmt.Sprintf("%s task %d", code, i),
				Deadline: fixedNow.Add(24 * time.Hour),
				Type:     workflow.TypeLab,
			})
			require.NoError(t, err)
		}
	}
	return e
}

func stateOf(t *testing.T, e *Engine, code string, index int) workflow.TaskState {
	t.Helper()
	task, err := e.Task(code, index)
	require.NoError(t, err)
	return task.State
}

func TestApplyThenUndoRestoresEveryPair(t *testing.T) {
	ctx := context.Background()

	for _, from := range workflow.States {
		for _, to := range workflow.States {
			if from == to {
				continue
			}
			t.Run(fmt.Sprintf("%s to %s", from, to), func(t *testing.T) {
				e := testEngine(t)
				if from != workflow.StatePending {
					_, err := e.ApplyTaskStateChange(ctx, "CS101", 0, from)
					require.NoError(t, err)
				}
				depth := e.HistoryDepth()

				cmd, err := e.ApplyTaskStateChange(ctx, "CS101", 0, to)
				require.NoError(t, err)
				assert.Equal(t, from, cmd.Previous)
				assert.Equal(t, to, cmd.Next)
				assert.Equal(t, depth+1, e.HistoryDepth())
				assert.Equal(t, to, stateOf(t, e, "CS101", 0))

				undone, err := e.UndoLastCommand(ctx)
				require.NoError(t, err)
				assert.Equal(t, cmd, undone)
				assert.Equal(t, from, stateOf(t, e, "CS101", 0))
				assert.Equal(t, depth, e.HistoryDepth())
			})
		}
	}
}

func TestNoOpTransitionLeavesEverythingIntact(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t)

	for _, s := range workflow.States {
		if s != stateOf(t, e, "CS101", 1) {
			_, err := e.ApplyTaskStateChange(ctx, "CS101", 1, s)
			require.NoError(t, err)
		}
		before := e.Subjects()
		depth := e.HistoryDepth()

		_, err := e.ApplyTaskStateChange(ctx, "CS101", 1, s)
		require.ErrorIs(t, err, workflow.ErrNoOpTransition)

		assert.Equal(t, depth, e.HistoryDepth())
		assert.Equal(t, before, e.Subjects())
	}
}

func TestApplyNotFound(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t)

	tests := []struct {
		name  string
		code  string
		index int
	}{
		{"unknown subject", "BIO100", 0},
		{"negative index", "CS101", -1},
		{"index out of range", "CS101", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.ApplyTaskStateChange(ctx, tt.code, tt.index, workflow.StateCompleted)
			require.ErrorIs(t, err, workflow.ErrNotFound)
			assert.Equal(t, 0, e.HistoryDepth())
		})
	}
}

func TestApplyRejectsInvalidTarget(t *testing.T) {
	e := testEngine(t)
	_, err := e.ApplyTaskStateChange(context.Background(), "CS101", 0, workflow.TaskState(9))
	require.ErrorIs(t, err, workflow.ErrInvalidState)
	assert.Equal(t, 0, e.HistoryDepth())
}

func TestUndoOnEmptyHistory(t *testing.T) {
	e := testEngine(t)

	_, err := e.UndoLastCommand(context.Background())
	require.ErrorIs(t, err, workflow.ErrNothingToUndo)
	assert.Equal(t, 0, e.HistoryDepth())
	assert.False(t, e.CanUndo())
}

func TestCancelledContextHasNoEffect(t *testing.T) {
	e := testEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.ApplyTaskStateChange(ctx, "CS101", 0, workflow.StateCompleted)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, workflow.StatePending, stateOf(t, e, "CS101", 0))
	assert.Equal(t, 0, e.HistoryDepth())
}

// Task T starts Pending, moves to In Progress, rejects a repeat, completes,
// then unwinds back to Pending and refuses a third undo.
func TestScenarioSingleTaskUnwind(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t)

	_, err := e.ApplyTaskStateChange(ctx, "CS101", 0, workflow.StateInProgress)
	require.NoError(t, err)
	assert.Equal(t, 1, e.HistoryDepth())

	_, err = e.ApplyTaskStateChange(ctx, "CS101", 0, workflow.StateInProgress)
	require.ErrorIs(t, err, workflow.ErrNoOpTransition)
	assert.Equal(t, 1, e.HistoryDepth())

	_, err = e.ApplyTaskStateChange(ctx, "CS101", 0, workflow.StateCompleted)
	require.NoError(t, err)
	assert.Equal(t, 2, e.HistoryDepth())

	_, err = e.UndoLastCommand(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, e.HistoryDepth())
	assert.Equal(t, workflow.StateInProgress, stateOf(t, e, "CS101", 0))

	_, err = e.UndoLastCommand(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, e.HistoryDepth())
	assert.Equal(t, workflow.StatePending, stateOf(t, e, "CS101", 0))

	_, err = e.UndoLastCommand(ctx)
	require.ErrorIs(t, err, workflow.ErrNothingToUndo)
}

// Undo is global: it reverses the latest change regardless of subject.
func TestScenarioUndoAcrossSubjects(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t)

	_, err := e.ApplyTaskStateChange(ctx, "CS101", 0, workflow.StateCompleted)
	require.NoError(t, err)
	_, err = e.ApplyTaskStateChange(ctx, "MATH201", 0, workflow.StateInProgress)
	require.NoError(t, err)

	_, err = e.UndoLastCommand(ctx)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatePending, stateOf(t, e, "MATH201", 0))
	assert.Equal(t, workflow.StateCompleted, stateOf(t, e, "CS101", 0))

	_, err = e.UndoLastCommand(ctx)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatePending, stateOf(t, e, "CS101", 0))
}

func TestLIFOUnwindRestoresInitialState(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t)
	rng := rand.New(rand.NewSource(42))

	initial := e.Subjects()
	codes := []string{"CS101", "MATH201"}

	var applied []Command
	for len(applied) < 40 {
		code := codes[rng.Intn(len(codes))]
		idx := rng.Intn(2)
		target := workflow.States[rng.Intn(len(workflow.States))]

		cmd, err := e.ApplyTaskStateChange(ctx, code, idx, target)
		if err != nil {
			require.ErrorIs(t, err, workflow.ErrNoOpTransition)
			continue
		}
		applied = append(applied, cmd)
		assert.Equal(t, len(applied), e.HistoryDepth())
	}

	for i := len(applied) - 1; i >= 0; i-- {
		cmd, err := e.UndoLastCommand(ctx)
		require.NoError(t, err)
		assert.Equal(t, applied[i].Seq, cmd.Seq, "undo must run in reverse application order")
		assert.Equal(t, applied[i].Previous, stateOf(t, e, cmd.SubjectCode, cmd.TaskIndex))
	}

	assert.Equal(t, initial, e.Subjects())
	assert.Equal(t, 0, e.HistoryDepth())
}

func TestUndoDetectsStaleReference(t *testing.T) {
	ctx := context.Background()

	t.Run("index no longer resolves", func(t *testing.T) {
		e := testEngine(t)
		_, err := e.ApplyTaskStateChange(ctx, "CS101", 1, workflow.StateCompleted)
		require.NoError(t, err)

		// Simulate a store that lost the task behind the engine's back.
		e.store = store.New()

		_, err = e.UndoLastCommand(ctx)
		require.ErrorIs(t, err, workflow.ErrStaleReference)
		assert.Equal(t, 0, e.HistoryDepth(), "stale command is discarded")
	})

	t.Run("index holds a different task", func(t *testing.T) {
		e := testEngine(t)
		_, err := e.ApplyTaskStateChange(ctx, "CS101", 0, workflow.StateCompleted)
		require.NoError(t, err)

		replacement := store.New()
		require.NoError(t, replacement.AddSubject("CS101", "CS", ""))
		_, err = replacement.AppendTask("CS101", workflow.Task{ID: "other", Title: "Other", State: workflow.StateCompleted})
		require.NoError(t, err)
		e.store = replacement

		_, err = e.UndoLastCommand(ctx)
		require.ErrorIs(t, err, workflow.ErrStaleReference)
		assert.Equal(t, workflow.StateCompleted, stateOf(t, e, "CS101", 0), "no mutation on stale undo")
	})
}

func TestHistoryLimitEvictsOldest(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t, WithHistoryLimit(2))

	targets := []workflow.TaskState{workflow.StateInProgress, workflow.StateCompleted, workflow.StatePending}
	for _, s := range targets {
		_, err := e.ApplyTaskStateChange(ctx, "CS101", 0, s)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, e.HistoryDepth())

	history := e.History()
	require.Len(t, history, 2)
	assert.Equal(t, uint64(2), history[0].Seq)
	assert.Equal(t, uint64(3), history[1].Seq)

	for i := 0; i < 2; i++ {
		_, err := e.UndoLastCommand(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, workflow.StateInProgress, stateOf(t, e, "CS101", 0))

	_, err := e.UndoLastCommand(ctx)
	require.ErrorIs(t, err, workflow.ErrNothingToUndo)
}

func TestMarksTravelWithCommands(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t)

	require.ErrorIs(t, e.SetTaskMarks(ctx, "CS101", 0, 80), workflow.ErrNotCompleted)

	_, err := e.ApplyTaskStateChange(ctx, "CS101", 0, workflow.StateCompleted)
	require.NoError(t, err)
	require.NoError(t, e.SetTaskMarks(ctx, "CS101", 0, 80))
	require.ErrorIs(t, e.SetTaskMarks(ctx, "CS101", 0, 101), workflow.ErrInvalidInput)

	cmd, err := e.ApplyTaskStateChange(ctx, "CS101", 0, workflow.StateInProgress)
	require.NoError(t, err)
	assert.Equal(t, 80, cmd.PreviousMarks)

	task, err := e.Task("CS101", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, task.Marks, "leaving Completed clears marks")

	_, err = e.UndoLastCommand(ctx)
	require.NoError(t, err)
	task, err = e.Task("CS101", 0)
	require.NoError(t, err)
	assert.Equal(t, workflow.StateCompleted, task.State)
	assert.Equal(t, 80, task.Marks)
}

func TestConcurrentApplyAndUndo(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t)

	var applied, undone atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < 200; i++ {
				if rng.Intn(3) == 0 {
					if _, err := e.UndoLastCommand(ctx); err == nil {
						undone.Add(1)
					}
					continue
				}
				code := []string{"CS101", "MATH201"}[rng.Intn(2)]
				target := workflow.States[rng.Intn(3)]
				if _, err := e.ApplyTaskStateChange(ctx, code, rng.Intn(2), target); err == nil {
					applied.Add(1)
				}
				_, _ = e.ListTasks(code)
			}
		}(int64(w))
	}
	wg.Wait()

	assert.Equal(t, int(applied.Load()-undone.Load()), e.HistoryDepth())

	history := e.History()
	for i := 1; i < len(history); i++ {
		assert.Less(t, history[i-1].Seq, history[i].Seq, "history is recorded in application order")
	}
}

func TestEventsFollowCommitOrder(t *testing.T) {
	ctx := context.Background()
	bus := events.NewEventBus()
	defer bus.Close()
	e := testEngine(t, WithEventBus(bus))
	sub := bus.SubscribeAll(16)

	_, err := e.ApplyTaskStateChange(ctx, "CS101", 0, workflow.StateInProgress)
	require.NoError(t, err)
	_, err = e.UndoLastCommand(ctx)
	require.NoError(t, err)

	first := (<-sub).(events.TaskStateChangedEvent)
	assert.Equal(t, "task-1", first.TaskID)
	assert.Equal(t, workflow.StateInProgress, first.To)

	second := (<-sub).(events.CommandUndoneEvent)
	assert.Equal(t, first.Seq, second.Seq)
	assert.Equal(t, workflow.StatePending, second.Restored)
	assert.Equal(t, 0, second.Depth)
}

func TestPeekUndoShowsNextCommand(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t)

	_, ok := e.PeekUndo()
	assert.False(t, ok)

	_, err := e.ApplyTaskStateChange(ctx, "CS101", 0, workflow.StateInProgress)
	require.NoError(t, err)
	applied, err := e.ApplyTaskStateChange(ctx, "MATH201", 1, workflow.StateCompleted)
	require.NoError(t, err)

	next, ok := e.PeekUndo()
	require.True(t, ok)
	assert.Equal(t, applied, next)
	assert.Equal(t, 2, e.HistoryDepth(), "peeking does not pop")

	undone, err := e.UndoLastCommand(ctx)
	require.NoError(t, err)
	assert.Equal(t, next, undone)

	next, ok = e.PeekUndo()
	require.True(t, ok)
	assert.Equal(t, "CS101", next.SubjectCode)
}
