// Package wallet defines the seed verification collaborator and a built-in
// mnemonic verifier.
package wallet

import (
	"context"
	"errors"
)

// ErrInvalidSeed is wrapped by every error that means the phrase itself was rejected
var ErrInvalidSeed = errors.New("invalid seed")

var (
	ErrWordCount   = errors.New("wrong number of words")
	ErrUnknownWord = errors.New("unknown word")
	ErrParity      = errors.New("word used in the wrong position")
	ErrChecksum    = errors.New("checksum mismatch")
)

// Verifier checks a seed phrase and returns the library's textual result.
// Implementations may block; they should return when ctx is done.
type Verifier interface {
	Verify(ctx context.Context, phrase string) (string, error)
}

// Func adapts a plain blocking verification call to a Verifier.
// The context is checked before the call but cannot interrupt it.
type Func func(phrase string) (string, error)

// Verify implements Verifier
func (f Func) Verify(ctx context.Context, phrase string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f(phrase)
}

// IsInvalidSeed reports whether err means the phrase was rejected
func IsInvalidSeed(err error) bool {
	return errors.Is(err, ErrInvalidSeed)
}

type seedError struct {
	reason error
	detail string
}

func (e *seedError) Error() string {
	if e.detail == "" {
		return ErrInvalidSeed.Error() + ": " + e.reason.Error()
	}
	return ErrInvalidSeed.Error() + ": " + e.reason.Error() + ": " + e.detail
}

func (e *seedError) Is(target error) bool {
	return target == ErrInvalidSeed || target == e.reason
}

func invalid(reason error, detail string) error {
	return &seedError{reason: reason, detail: detail}
}

// VerifierFunc adapts a context-aware function to a Verifier
type VerifierFunc func(ctx context.Context, phrase string) (string, error)

// Verify implements Verifier
func (f VerifierFunc) Verify(ctx context.Context, phrase string) (string, error) {
	return f(ctx, phrase)
}
