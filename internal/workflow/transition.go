package workflow

import "fmt"

// Transition is a validated edge between two distinct states.
type Transition struct {
	From TaskState
	To   TaskState
}

// Reverse returns the edge that undoes t.
func (t Transition) Reverse() Transition {
	return Transition{From: t.To, To: t.From}
}

func (t Transition) String() string {
	return fmt.Sprintf("%s -> %s", t.From, t.To)
}

// Validate checks a request to move a task from its current state to an
// absolute target. Every edge between distinct states is legal; the board
// lets a card be dragged to any column. Self-edges are rejected so that no
// vacuous command ever reaches the history.
func Validate(from, to TaskState) (Transition, error) {
	if !from.Valid() {
		return Transition{}, fmt.Errorf("%w: current state %d", ErrInvalidState, int(from))
	}
	if !to.Valid() {
		return Transition{}, fmt.Errorf("%w: target state %d", ErrInvalidState, int(to))
	}
	if from == to {
		return Transition{}, fmt.Errorf("%w: task is already %s", ErrNoOpTransition, to)
	}
	return Transition{From: from, To: to}, nil
}
