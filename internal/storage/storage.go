package storage

import (
	"context"
	"errors"

	"github.com/farhan-ahmed1/seedcheck/internal/task"
)

// ErrNotFound is returned when a task or result does not exist
var ErrNotFound = errors.New("not found")

// Storage persists verification outcomes. Phrases and verifier output are
// never written.
type Storage interface {
	// SaveTask persists a task
	SaveTask(ctx context.Context, t *task.Task) error

	// GetTask retrieves a task by ID
	GetTask(ctx context.Context, taskID string) (*task.Task, error)

	// SaveResult persists a task result
	SaveResult(ctx context.Context, result *task.Result) error

	// GetResult retrieves a task result by task ID
	GetResult(ctx context.Context, taskID string) (*task.Result, error)

	// CountByState returns how many tasks are indexed under state
	CountByState(ctx context.Context, state task.State) (int64, error)

	// Close closes the storage connection
	Close() error
}
