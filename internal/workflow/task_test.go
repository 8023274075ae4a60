package workflow

import (
	"errors"
	"testing"
)

func TestParseTaskState(t *testing.T) {
	tests := []struct {
		in      string
		want    TaskState
		wantErr bool
	}{
		{"Pending", StatePending, false},
		{"In Progress", StateInProgress, false},
		{"in_progress", StateInProgress, false},
		{"COMPLETED", StateCompleted, false},
		{"2", StateCompleted, false},
		{"done", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTaskState(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidState) {
					t.Fatalf("error = %v, want ErrInvalidState", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseTaskState(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestStateStringRoundTrip(t *testing.T) {
	for _, s := range States {
		got, err := ParseTaskState(s.String())
		if err != nil {
			t.Fatalf("ParseTaskState(%q): %v", s.String(), err)
		}
		if got != s {
			t.Errorf("round trip %s -> %s", s, got)
		}
	}
}

func TestTaskProgress(t *testing.T) {
	tests := []struct {
		state TaskState
		want  float64
	}{
		{StatePending, 0},
		{StateInProgress, 50},
		{StateCompleted, 100},
	}
	for _, tt := range tests {
		task := Task{State: tt.state}
		if got := task.Progress(); got != tt.want {
			t.Errorf("Progress() for %s = %v, want %v", tt.state, got, tt.want)
		}
		if task.Completed() != (tt.state == StateCompleted) {
			t.Errorf("Completed() mismatch for %s", tt.state)
		}
	}
}

func TestParseTaskType(t *testing.T) {
	for _, typ := range []TaskType{TypeLab, TypeExam, TypeProject} {
		got, err := ParseTaskType(typ.String())
		if err != nil || got != typ {
			t.Errorf("ParseTaskType(%q) = %v, %v", typ.String(), got, err)
		}
	}
	if _, err := ParseTaskType("essay"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}
