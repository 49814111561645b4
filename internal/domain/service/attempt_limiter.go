package service

import (
	"context"
)

// AttemptLimiter counts credential attempts per subject in a fixed window.
type AttemptLimiter interface {
	// Reserve counts one attempt before the credential is checked. It returns
	// domainerrors.ErrTooManyAttempts once the subject spent its budget, and the
	// attempts left in the window otherwise.
	Reserve(ctx context.Context, subject string) (remaining int, err error)

	// Reset clears the subject after a successful attempt.
	Reset(ctx context.Context, subject string) error
}
