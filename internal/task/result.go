package task

import (
	"context"
	"errors"
	"time"
)

// ErrorKind classifies why a verification did not produce a result
type ErrorKind string

const (
	KindNone        ErrorKind = ""
	KindInvalidSeed ErrorKind = "invalid_seed"
	KindVerifier    ErrorKind = "verifier"
	KindPanic       ErrorKind = "panic"
	KindTimeout     ErrorKind = "timeout"
	KindCanceled    ErrorKind = "canceled"
	KindRejected    ErrorKind = "rejected"
)

// Result represents the outcome of a verification.
// Output is only set when Kind is KindNone.
type Result struct {
	TaskID      string        `json:"task_id"`
	Success     bool          `json:"success"`
	Output      string        `json:"-"`
	Kind        ErrorKind     `json:"kind,omitempty"`
	Error       string        `json:"error,omitempty"`
	CompletedAt time.Time     `json:"completed_at"`
	Duration    time.Duration `json:"duration"`

	Err error `json:"-"`
}

// OK reports whether the verifier produced a value
func (r *Result) OK() bool {
	return r.Kind == KindNone
}

// NewSuccess builds a result carrying the verifier output
func NewSuccess(taskID, output string) *Result {
	return &Result{
		TaskID:      taskID,
		Success:     true,
		Output:      output,
		CompletedAt: time.Now().UTC(),
	}
}

// NewFailure builds a result for a failed verification
func NewFailure(taskID string, kind ErrorKind, err error) *Result {
	r := &Result{
		TaskID:      taskID,
		Kind:        kind,
		Err:         err,
		CompletedAt: time.Now().UTC(),
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Classify maps an error to its kind. invalid reports whether err
// means the collaborator rejected the input itself.
func Classify(err error, invalid func(error) bool) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case invalid != nil && invalid(err):
		return KindInvalidSeed
	default:
		return KindVerifier
	}
}
