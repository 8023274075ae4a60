package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/studytracker/internal/events"
	"github.com/aristath/studytracker/internal/store"
	"github.com/aristath/studytracker/internal/workflow"
)

func TestCreateSubjectValidation(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t)

	tests := []struct {
		name    string
		subject string
		code    string
		wantErr error
	}{
		{"missing name", " ", "BIO100", workflow.ErrInvalidInput},
		{"missing code", "Biology", "", workflow.ErrInvalidInput},
		{"duplicate code", "Another CS", "CS101", workflow.ErrDuplicate},
		{"valid", "Biology", " BIO100 ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.CreateSubject(ctx, tt.subject, tt.code, "")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}

	sub, err := e.Subject("BIO100")
	require.NoError(t, err)
	assert.Equal(t, "Biology", sub.Name)
	assert.Empty(t, sub.Tasks)
}

func TestCreateTask(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t)

	idx, err := e.CreateTask(ctx, "CS101", NewTask{Title: "Final Exam", Type: workflow.TypeExam})
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	task, err := e.Task("CS101", idx)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatePending, task.State)
	assert.Equal(t, workflow.TypeExam, task.Type)
	assert.Equal(t, "task-5", task.ID)
	assert.Equal(t, 0, e.HistoryDepth(), "creation is not a command")

	_, err = e.CreateTask(ctx, "CS101", NewTask{Title: "Final Exam", Type: workflow.TypeExam})
	assert.ErrorIs(t, err, workflow.ErrDuplicate)

	_, err = e.CreateTask(ctx, "CS101", NewTask{Title: "", Type: workflow.TypeLab})
	assert.ErrorIs(t, err, workflow.ErrInvalidInput)

	_, err = e.CreateTask(ctx, "CS101", NewTask{Title: "Odd", Type: workflow.TaskType(7)})
	assert.ErrorIs(t, err, workflow.ErrInvalidInput)

	_, err = e.CreateTask(ctx, "BIO100", NewTask{Title: "Lab", Type: workflow.TypeLab})
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}

func TestCreateTaskKeepsUndoTargetsStable(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t)

	_, err := e.ApplyTaskStateChange(ctx, "CS101", 1, workflow.StateCompleted)
	require.NoError(t, err)
	_, err = e.CreateTask(ctx, "CS101", NewTask{Title: "Late addition", Type: workflow.TypeProject})
	require.NoError(t, err)

	_, err = e.UndoLastCommand(ctx)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatePending, stateOf(t, e, "CS101", 1))
	assert.Equal(t, workflow.StatePending, stateOf(t, e, "CS101", 2))
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	bus := events.NewEventBus()
	defer bus.Close()
	e := testEngine(t, WithEventBus(bus))

	_, err := e.ApplyTaskStateChange(ctx, "CS101", 0, workflow.StateCompleted)
	require.NoError(t, err)
	sub := bus.Subscribe(events.TopicHistory, 4)

	require.NoError(t, e.Seed(ctx, fixedNow))
	assert.Equal(t, 0, e.HistoryDepth(), "seeding clears history")

	subjects := e.Subjects()
	require.Len(t, subjects, 3)
	assert.Equal(t, []string{"MATH101", "CS101", "PHYS101"},
		[]string{subjects[0].Code, subjects[1].Code, subjects[2].Code})

	cs := subjects[1]
	require.Len(t, cs.Tasks, 3)
	assert.Equal(t, "Project: Web App", cs.Tasks[0].Title)
	assert.Equal(t, workflow.TypeProject, cs.Tasks[0].Type)
	assert.Equal(t, workflow.StateInProgress, cs.Tasks[0].State)
	assert.Equal(t, 95, cs.Tasks[1].Marks)
	assert.Equal(t, fixedNow.Add(-72*time.Hour), cs.Tasks[1].Deadline)

	ids := map[string]bool{}
	for _, s := range subjects {
		for _, task := range s.Tasks {
			assert.NotEmpty(t, task.ID)
			assert.False(t, ids[task.ID], "ids are unique")
			ids[task.ID] = true
		}
	}

	reset := (<-sub).(events.StoreResetEvent)
	assert.Equal(t, "seed", reset.Reason)
	assert.Len(t, reset.Subjects, 3)
}

func TestLoadReplacesStore(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t)
	_, err := e.ApplyTaskStateChange(ctx, "CS101", 0, workflow.StateCompleted)
	require.NoError(t, err)

	loaded := []store.Subject{{
		Code: "BIO100",
		Name: "Biology",
		Tasks: []workflow.Task{
			{ID: "kept", Title: "Dissection", Type: workflow.TypeLab, State: workflow.StateCompleted, Marks: 70},
			{Title: "Cells", Type: workflow.TypeExam, State: workflow.StateInProgress},
		},
	}}
	require.NoError(t, e.Load(ctx, loaded))

	assert.Equal(t, 0, e.HistoryDepth())
	_, err = e.Subject("CS101")
	assert.ErrorIs(t, err, workflow.ErrNotFound)

	tasks, err := e.ListTasks("BIO100")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "kept", tasks[0].ID)
	assert.Equal(t, 70, tasks[0].Marks)
	assert.NotEmpty(t, tasks[1].ID, "missing ids are minted")

	bad := []store.Subject{{Code: "X", Name: "X", Tasks: []workflow.Task{{Title: "t", State: workflow.TaskState(5)}}}}
	require.ErrorIs(t, e.Load(ctx, bad), workflow.ErrInvalidState)
	_, err = e.Subject("BIO100")
	assert.NoError(t, err, "failed load leaves the store untouched")
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	e := testEngine(t)
	_, err := e.ApplyTaskStateChange(ctx, "CS101", 0, workflow.StateCompleted)
	require.NoError(t, err)

	require.NoError(t, e.Reset(ctx))
	assert.Empty(t, e.Subjects())
	assert.False(t, e.CanUndo())
}
