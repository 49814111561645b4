// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"
	"errors"

	"globalchek/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrPropertyNotFound is returned when a property is not found.
var ErrPropertyNotFound = errors.New("property not found")

// PropertyRepository defines persistence for properties.
// Lookups are by id only; ownership is checked by the caller through policy.EnsureOwner.
type PropertyRepository interface {
	Create(ctx context.Context, property *entity.Property) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Property, error)

	// FindByUser lists a host's properties, newest first.
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Property, error)

	Update(ctx context.Context, property *entity.Property) error

	// Delete removes the property and, through the foreign key, its verifications.
	Delete(ctx context.Context, id uuid.UUID) error
}
