package usecase

import (
	"context"

	"globalchek/internal/domain/entity"

	"github.com/google/uuid"
)

// CreatePropertyInput defines the data required to create a property.
type CreatePropertyInput struct {
	Name         string
	Address      string
	City         string
	Country      *string // Defaults to entity.DefaultCountry.
	PropertyType string
	Capacity     *int
	Description  *string
	Images       []string
}

// PropertyWithCounts is a property together with its verification totals.
type PropertyWithCounts struct {
	Property *entity.Property
	Counts   entity.VerificationCounts
}

// PropertyDetail is a property with its most recent verifications.
type PropertyDetail struct {
	PropertyWithCounts
	RecentVerifications []*entity.Verification
}

// PropertyUsecase defines the owner-scoped property operations.
type PropertyUsecase interface {
	Create(ctx context.Context, userID uuid.UUID, input CreatePropertyInput) (*entity.Property, error)
	List(ctx context.Context, userID uuid.UUID) ([]*PropertyWithCounts, error)
	Get(ctx context.Context, userID, propertyID uuid.UUID) (*PropertyDetail, error)
	Update(ctx context.Context, userID, propertyID uuid.UUID, patch entity.PropertyPatch) (*entity.Property, error)
	Delete(ctx context.Context, userID, propertyID uuid.UUID) error
	Stats(ctx context.Context, userID, propertyID uuid.UUID) (*entity.PropertyStats, error)
}
