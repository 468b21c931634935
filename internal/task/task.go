package task

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State represents the current state of a task
type State string

const (
	StateCreated   State = "created"
	StateRunning   State = "running"
	StateCompleted State = "completed"
)

// ErrInvalidTransition is returned when a task is moved out of order
var ErrInvalidTransition = errors.New("invalid task state transition")

// Task represents a single pending verification.
// A task moves created -> running -> completed exactly once.
type Task struct {
	ID          string     `json:"id"`
	Input       string     `json:"-"`
	State       State      `json:"state"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Kind        ErrorKind  `json:"kind,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// NewTask creates a task for the given input
func NewTask(input string) *Task {
	return &Task{
		ID:        uuid.New().String(),
		Input:     input,
		State:     StateCreated,
		CreatedAt: time.Now(),
	}
}

// MarkStarted marks the task as running
func (t *Task) MarkStarted() error {
	if t.State != StateCreated {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.State, StateRunning)
	}
	now := time.Now()
	t.StartedAt = &now
	t.State = StateRunning
	return nil
}

// MarkCompleted records the outcome and marks the task as completed
func (t *Task) MarkCompleted(r *Result) error {
	if t.State != StateRunning {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.State, StateCompleted)
	}
	now := time.Now()
	t.CompletedAt = &now
	t.State = StateCompleted
	if r != nil {
		t.Kind = r.Kind
		t.Error = r.Error
	}
	return nil
}

// Duration returns how long the task ran, or zero if it has not finished
func (t *Task) Duration() time.Duration {
	if t.StartedAt == nil || t.CompletedAt == nil {
		return 0
	}
	return t.CompletedAt.Sub(*t.StartedAt)
}
