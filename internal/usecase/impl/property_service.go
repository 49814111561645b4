package impl

import (
	"context"
	"log/slog"
	"strings"

	"globalchek/internal/domain/entity"
	domainerrors "globalchek/internal/domain/errors"
	"globalchek/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// propertyService implements the PropertyUsecase interface.
type propertyService struct {
	verificationCore
}

// NewPropertyService is the constructor for propertyService.
func NewPropertyService(params VerificationParams) usecase.PropertyUsecase {
	return &propertyService{verificationCore: newVerificationCore(params)}
}

// Create stores a new active property for the host.
func (srv *propertyService) Create(ctx context.Context, userID uuid.UUID, input usecase.CreatePropertyInput) (*entity.Property, error) {
	property := &entity.Property{
		UserID:       userID,
		Name:         input.Name,
		Address:      input.Address,
		City:         input.City,
		Country:      entity.DefaultCountry,
		PropertyType: input.PropertyType,
		Capacity:     input.Capacity,
		Description:  input.Description,
		Images:       input.Images,
		IsActive:     true,
	}
	if input.Country != nil && strings.TrimSpace(*input.Country) != "" {
		property.Country = *input.Country
	}
	if property.Images == nil {
		property.Images = []string{}
	}

	if err := validateProperty(property); err != nil {
		return nil, err
	}

	if err := srv.propertyRepo.Create(ctx, property); err != nil {
		return nil, errors.Wrap(err, "failed to create property")
	}

	srv.log(ctx).Info("Property created", slog.Any("property_id", property.ID))

	return property, nil
}

// List returns the host's properties, newest first, with their verification counts.
func (srv *propertyService) List(ctx context.Context, userID uuid.UUID) ([]*usecase.PropertyWithCounts, error) {
	properties, err := srv.propertyRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list properties")
	}

	ids := make([]uuid.UUID, 0, len(properties))
	for _, property := range properties {
		ids = append(ids, property.ID)
	}

	counts, err := srv.verificationRepo.CountByProperty(ctx, ids...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count verifications")
	}

	result := make([]*usecase.PropertyWithCounts, 0, len(properties))
	for _, property := range properties {
		result = append(result, &usecase.PropertyWithCounts{Property: property, Counts: countsOrEmpty(counts, property.ID)})
	}

	return result, nil
}

// Get returns one property with its latest verifications.
func (srv *propertyService) Get(ctx context.Context, userID, propertyID uuid.UUID) (*usecase.PropertyDetail, error) {
	property, err := srv.loadOwnedProperty(ctx, userID, propertyID)
	if err != nil {
		return nil, err
	}

	recent, err := srv.verificationRepo.FindRecentByProperty(ctx, property.ID, srv.recentLimit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load recent verifications")
	}

	counts, err := srv.verificationRepo.CountByProperty(ctx, property.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count verifications")
	}

	return &usecase.PropertyDetail{
		PropertyWithCounts:  usecase.PropertyWithCounts{Property: property, Counts: countsOrEmpty(counts, property.ID)},
		RecentVerifications: recent,
	}, nil
}

// Update applies a partial change to one of the host's properties.
func (srv *propertyService) Update(ctx context.Context, userID, propertyID uuid.UUID, patch entity.PropertyPatch) (*entity.Property, error) {
	property, err := srv.loadOwnedProperty(ctx, userID, propertyID)
	if err != nil {
		return nil, err
	}

	patch.Apply(property)
	if property.Images == nil {
		property.Images = []string{}
	}

	if err := validateProperty(property); err != nil {
		return nil, err
	}

	if err := srv.propertyRepo.Update(ctx, property); err != nil {
		return nil, errors.Wrap(err, "failed to update property")
	}

	return property, nil
}

// Delete removes the property together with its verifications.
func (srv *propertyService) Delete(ctx context.Context, userID, propertyID uuid.UUID) error {
	property, err := srv.loadOwnedProperty(ctx, userID, propertyID)
	if err != nil {
		return err
	}

	if err := srv.propertyRepo.Delete(ctx, property.ID); err != nil {
		return errors.Wrap(err, "failed to delete property")
	}

	srv.log(ctx).Info("Property deleted", slog.Any("property_id", property.ID))

	return nil
}

// Stats aggregates the verification outcomes of one property.
func (srv *propertyService) Stats(ctx context.Context, userID, propertyID uuid.UUID) (*entity.PropertyStats, error) {
	property, err := srv.loadOwnedProperty(ctx, userID, propertyID)
	if err != nil {
		return nil, err
	}

	counts, err := srv.verificationRepo.CountByProperty(ctx, property.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count verifications")
	}
	c := countsOrEmpty(counts, property.ID)

	recent, err := srv.verificationRepo.FindRecentByProperty(ctx, property.ID, srv.statsRecentLimit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load recent verifications")
	}

	total := c.Total()
	completed := c[entity.StatusCompleted]
	stats := &entity.PropertyStats{
		TotalVerifications:     total,
		CompletedVerifications: completed,
		PendingVerifications:   c[entity.StatusPending] + c[entity.StatusInProgress] + c[entity.StatusProcessing],
		FailedVerifications:    c[entity.StatusRejected],
		SuccessRate:            entity.SuccessRate(completed, total),
		RecentVerifications:    make([]entity.RecentVerification, 0, len(recent)),
	}
	for _, v := range recent {
		stats.RecentVerifications = append(stats.RecentVerifications, entity.RecentVerification{
			ID:             v.ID,
			GuestFirstName: v.GuestFirstName,
			GuestLastName:  v.GuestLastName,
			Status:         v.Status,
			CreatedAt:      v.CreatedAt,
		})
	}

	return stats, nil
}

func countsOrEmpty(counts map[uuid.UUID]entity.VerificationCounts, propertyID uuid.UUID) entity.VerificationCounts {
	if c, ok := counts[propertyID]; ok && c != nil {
		return c
	}

	return entity.VerificationCounts{}
}

func validateProperty(property *entity.Property) error {
	var fields []domainerrors.FieldError

	required := []struct {
		path  string
		value string
	}{
		{"name", property.Name},
		{"address", property.Address},
		{"city", property.City},
		{"propertyType", property.PropertyType},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			fields = append(fields, domainerrors.FieldError{Path: field.path, Message: "is required"})
		}
	}

	if property.Capacity != nil && *property.Capacity <= 0 {
		fields = append(fields, domainerrors.FieldError{Path: "capacity", Message: "must be positive"})
	}

	if len(fields) > 0 {
		return domainerrors.NewValidationError(fields...)
	}

	return nil
}
