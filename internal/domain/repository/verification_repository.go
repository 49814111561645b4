// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"
	"errors"

	"globalchek/internal/domain/entity"

	"github.com/google/uuid"
)

// Domain-specific errors for verification persistence.
var (
	// ErrVerificationNotFound is returned when a verification is not found.
	ErrVerificationNotFound = errors.New("verification not found")
	// ErrStaleVerification is returned when an update lost an optimistic lock race.
	ErrStaleVerification = errors.New("verification was modified concurrently")
)

// VerificationRepository defines persistence for guest verifications.
type VerificationRepository interface {
	Create(ctx context.Context, verification *entity.Verification) error

	// FindByID loads one verification with its property summary.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Verification, error)

	// FindByUser lists a host's verifications, newest first, with property summaries.
	FindByUser(ctx context.Context, userID uuid.UUID, filter entity.VerificationFilter) ([]*entity.Verification, error)

	// FindRecentByProperty returns the latest verifications of one property.
	FindRecentByProperty(ctx context.Context, propertyID uuid.UUID, limit int) ([]*entity.Verification, error)

	// CountByProperty returns per-status totals for the given properties.
	CountByProperty(ctx context.Context, propertyIDs ...uuid.UUID) (map[uuid.UUID]entity.VerificationCounts, error)

	// Update writes every mutable column when the stored version still equals
	// verification.Version, then bumps the version on the entity. A mismatch
	// returns ErrStaleVerification.
	Update(ctx context.Context, verification *entity.Verification) error
}
