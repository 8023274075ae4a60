package engine

import (
	"fmt"
	"time"

	"github.com/aristath/studytracker/internal/workflow"
)

// Command is an immutable record of one applied task-state transition,
// holding everything needed to reverse it.
type Command struct {
	Seq           uint64 // Monotonic per engine, in application order
	SubjectCode   string
	TaskIndex     int
	TaskID        string // Identity of the task at TaskIndex when applied
	Previous      workflow.TaskState
	Next          workflow.TaskState
	PreviousMarks int // Marks before the change; restored on undo
	AppliedAt     time.Time
}

// Transition returns the edge this command applied.
func (c Command) Transition() workflow.Transition {
	return workflow.Transition{From: c.Previous, To: c.Next}
}

func (c Command) String() string {
	return fmt.Sprintf("#%d %s[%d] %s", c.Seq, c.SubjectCode, c.TaskIndex, c.Transition())
}
