package task

import (
	"errors"
	"testing"
	"time"
)

// TestNewTask verifies that NewTask creates a task in the created state
func TestNewTask(t *testing.T) {
	task := NewTask("alpha beta gamma")

	if task.ID == "" {
		t.Error("Expected task ID to be generated")
	}

	if task.Input != "alpha beta gamma" {
		t.Errorf("Expected input to be kept, got %q", task.Input)
	}

	if task.State != StateCreated {
		t.Errorf("Expected task state to be %s, got %s", StateCreated, task.State)
	}

	if task.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}

	if task.StartedAt != nil || task.CompletedAt != nil {
		t.Error("Expected StartedAt and CompletedAt to be nil initially")
	}
}

// TestNewTaskUniqueIDs checks that every task gets its own ID
func TestNewTaskUniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewTask("x").ID
		if seen[id] {
			t.Fatalf("Duplicate task ID %s", id)
		}
		seen[id] = true
	}
}

// TestMarkStarted tests marking a task as running
func TestMarkStarted(t *testing.T) {
	task := NewTask("x")

	beforeMark := time.Now()
	if err := task.MarkStarted(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	afterMark := time.Now()

	if task.StartedAt == nil {
		t.Fatal("Expected StartedAt to be set")
	}

	if task.StartedAt.Before(beforeMark) || task.StartedAt.After(afterMark) {
		t.Error("StartedAt time is outside expected range")
	}

	if task.State != StateRunning {
		t.Errorf("Expected state to be %s, got %s", StateRunning, task.State)
	}
}

// TestMarkStartedTwice ensures a task cannot re-enter running
func TestMarkStartedTwice(t *testing.T) {
	task := NewTask("x")
	_ = task.MarkStarted()
	started := task.StartedAt

	err := task.MarkStarted()
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Expected ErrInvalidTransition, got %v", err)
	}
	if task.StartedAt != started {
		t.Error("StartedAt should not change on a rejected transition")
	}
}

// TestMarkCompleted tests marking a task as completed
func TestMarkCompleted(t *testing.T) {
	task := NewTask("x")
	_ = task.MarkStarted()

	result := NewFailure(task.ID, KindVerifier, errors.New("library error"))
	if err := task.MarkCompleted(result); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if task.State != StateCompleted {
		t.Errorf("Expected state to be %s, got %s", StateCompleted, task.State)
	}
	if task.CompletedAt == nil {
		t.Fatal("Expected CompletedAt to be set")
	}
	if task.Kind != KindVerifier {
		t.Errorf("Expected kind %s, got %s", KindVerifier, task.Kind)
	}
	if task.Error != "library error" {
		t.Errorf("Expected error to be recorded, got %q", task.Error)
	}
	if task.Duration() < 0 {
		t.Error("Expected non-negative duration")
	}
}

// TestInvalidTransitions covers every out-of-order move
func TestInvalidTransitions(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Task)
		move  func(*Task) error
	}{
		{
			name:  "complete before start",
			setup: func(*Task) {},
			move:  func(t *Task) error { return t.MarkCompleted(nil) },
		},
		{
			name: "complete twice",
			setup: func(t *Task) {
				_ = t.MarkStarted()
				_ = t.MarkCompleted(nil)
			},
			move: func(t *Task) error { return t.MarkCompleted(nil) },
		},
		{
			name: "start after completion",
			setup: func(t *Task) {
				_ = t.MarkStarted()
				_ = t.MarkCompleted(nil)
			},
			move: func(t *Task) error { return t.MarkStarted() },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := NewTask("x")
			tt.setup(task)
			state := task.State

			if err := tt.move(task); !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("Expected ErrInvalidTransition, got %v", err)
			}
			if task.State != state {
				t.Errorf("Expected state to stay %s, got %s", state, task.State)
			}
		})
	}
}

// TestDurationBeforeCompletion returns zero for unfinished tasks
func TestDurationBeforeCompletion(t *testing.T) {
	task := NewTask("x")
	if task.Duration() != 0 {
		t.Error("Expected zero duration for a created task")
	}
	_ = task.MarkStarted()
	if task.Duration() != 0 {
		t.Error("Expected zero duration for a running task")
	}
}
