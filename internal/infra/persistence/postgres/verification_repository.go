// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"time"

	"globalchek/internal/domain/entity"
	domainerrors "globalchek/internal/domain/errors"
	"globalchek/internal/domain/repository"
	"globalchek/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// verificationRepository implements the repository.VerificationRepository interface.
type verificationRepository struct {
	db *gorm.DB
}

// NewVerificationRepository is the constructor for verificationRepository.
func NewVerificationRepository(db *gorm.DB) repository.VerificationRepository {
	return &verificationRepository{
		db: db,
	}
}

// Create persists a new verification.
func (repo *verificationRepository) Create(ctx context.Context, verification *entity.Verification) error {
	verificationM, err := fromVerificationDomain(verification)
	if err != nil {
		return err
	}
	if verificationM.Version == 0 {
		verificationM.Version = 1
	}

	if err := repo.db.WithContext(ctx).Omit("Property").Create(verificationM).Error; err != nil {
		if isForeignKeyConstraintViolation(err) {
			return repository.ErrPropertyNotFound
		}
		if isNotNullConstraintViolation(err) || isCheckConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WrapMessage("missing required verification information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create verification")
	}

	verification.ID = verificationM.ID
	verification.Version = verificationM.Version
	verification.CreatedAt = verificationM.CreatedAt
	verification.UpdatedAt = verificationM.UpdatedAt

	return nil
}

// FindByID loads one verification together with its property summary.
func (repo *verificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Verification, error) {
	var verificationM model.VerificationModel

	if err := repo.db.WithContext(ctx).
		Preload("Property").
		Where("id = ?", id).
		First(&verificationM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrVerificationNotFound
		}

		return nil, errors.Wrap(err, "failed to find verification by id")
	}

	return toVerificationDomain(&verificationM)
}

// FindByUser lists a host's verifications, newest first.
func (repo *verificationRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter entity.VerificationFilter) ([]*entity.Verification, error) {
	query := repo.db.WithContext(ctx).
		Preload("Property").
		Where("user_id = ?", userID)
	if filter.PropertyID != nil {
		query = query.Where("property_id = ?", *filter.PropertyID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}

	var verificationModels []*model.VerificationModel
	if err := query.Order("created_at DESC").Find(&verificationModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find verifications by user")
	}

	return toVerificationDomains(verificationModels)
}

// FindRecentByProperty returns the latest verifications of one property.
func (repo *verificationRepository) FindRecentByProperty(ctx context.Context, propertyID uuid.UUID, limit int) ([]*entity.Verification, error) {
	var verificationModels []*model.VerificationModel

	if err := repo.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("created_at DESC").
		Limit(limit).
		Find(&verificationModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find recent verifications")
	}

	return toVerificationDomains(verificationModels)
}

// CountByProperty groups verifications by property and status.
func (repo *verificationRepository) CountByProperty(ctx context.Context, propertyIDs ...uuid.UUID) (map[uuid.UUID]entity.VerificationCounts, error) {
	counts := make(map[uuid.UUID]entity.VerificationCounts, len(propertyIDs))
	if len(propertyIDs) == 0 {
		return counts, nil
	}

	var rows []model.VerificationStatusCount
	if err := repo.db.WithContext(ctx).
		Model(&model.VerificationModel{}).
		Select("property_id, status, COUNT(*) AS count").
		Where("property_id IN ?", propertyIDs).
		Group("property_id, status").
		Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "failed to count verifications")
	}

	for _, id := range propertyIDs {
		counts[id] = entity.VerificationCounts{}
	}
	for _, row := range rows {
		counts[row.PropertyID][entity.VerificationStatus(row.Status)] = row.Count
	}

	return counts, nil
}

// Update writes the record when the stored version still matches, and bumps it.
func (repo *verificationRepository) Update(ctx context.Context, verification *entity.Verification) error {
	verificationM, err := fromVerificationDomain(verification)
	if err != nil {
		return err
	}
	expected := verification.Version
	verificationM.Version = expected + 1
	verificationM.UpdatedAt = time.Now()

	result := repo.db.WithContext(ctx).
		Model(verificationM).
		Where("version = ?", expected).
		Select("*").
		Omit("id", "user_id", "property_id", "created_at", "Property").
		Updates(verificationM)
	if result.Error != nil {
		if isCheckConstraintViolation(result.Error) {
			return domainerrors.ErrValidationFailed.WrapMessage("invalid verification information")
		}

		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update verification")
	}
	if result.RowsAffected == 0 {
		return repository.ErrStaleVerification
	}

	verification.Version = verificationM.Version
	verification.UpdatedAt = verificationM.UpdatedAt

	return nil
}

// --- Mapper Functions ---

func toVerificationDomains(models []*model.VerificationModel) ([]*entity.Verification, error) {
	verifications := make([]*entity.Verification, 0, len(models))
	for _, verificationM := range models {
		verification, err := toVerificationDomain(verificationM)
		if err != nil {
			return nil, err
		}
		verifications = append(verifications, verification)
	}

	return verifications, nil
}

// toVerificationDomain converts a GORM VerificationModel to a domain Verification entity.
func toVerificationDomain(data *model.VerificationModel) (*entity.Verification, error) {
	if data == nil {
		return nil, nil
	}

	var ocr *entity.OCRResult
	if len(data.OCRData) > 0 && string(data.OCRData) != "null" {
		ocr = &entity.OCRResult{}
		if err := json.Unmarshal(data.OCRData, ocr); err != nil {
			return nil, errors.Wrap(err, "failed to decode stored ocr data")
		}
	}

	return &entity.Verification{
		ID:                    data.ID,
		UserID:                data.UserID,
		PropertyID:            data.PropertyID,
		Property:              toPropertySummary(data.Property),
		GuestFirstName:        data.GuestFirstName,
		GuestLastName:         data.GuestLastName,
		GuestEmail:            data.GuestEmail,
		GuestPhone:            data.GuestPhone,
		DocumentType:          entity.DocumentType(data.DocumentType),
		DocumentFrontImage:    data.DocumentFrontImage,
		DocumentBackImage:     data.DocumentBackImage,
		SelfieImage:           data.SelfieImage,
		SelfieVideo:           data.SelfieVideo,
		SignatureImage:        data.SignatureImage,
		DocumentNumber:        data.DocumentNumber,
		DocumentIssuedDate:    data.DocumentIssuedDate,
		DocumentExpiryDate:    data.DocumentExpiryDate,
		DocumentIssuedCountry: data.DocumentIssuedCountry,
		GuestNationality:      data.GuestNationality,
		OCRData:               ocr,
		FraudScore:            data.FraudScore,
		AINotes:               data.AINotes,
		FaceMatchScore:        data.FaceMatchScore,
		LivenessScore:         data.LivenessScore,
		LivenessStatus:        entity.LivenessStatus(data.LivenessStatus),
		Status:                entity.VerificationStatus(data.Status),
		RejectionReason:       data.RejectionReason,
		WizardStep:            data.WizardStep,
		SubmittedAt:           data.SubmittedAt,
		VerifiedAt:            data.VerifiedAt,
		Version:               data.Version,
		CreatedAt:             data.CreatedAt,
		UpdatedAt:             data.UpdatedAt,
	}, nil
}

// fromVerificationDomain converts a domain Verification entity to a GORM VerificationModel.
func fromVerificationDomain(data *entity.Verification) (*model.VerificationModel, error) {
	if data == nil {
		return nil, errors.New("nil verification")
	}

	var ocr datatypes.JSON
	if data.OCRData != nil {
		raw, err := json.Marshal(data.OCRData)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode ocr data")
		}
		ocr = raw
	}

	status := data.Status
	if status == "" {
		status = entity.StatusPending
	}
	liveness := data.LivenessStatus
	if liveness == "" {
		liveness = entity.LivenessNotEvaluated
	}

	return &model.VerificationModel{
		ID:                    data.ID,
		UserID:                data.UserID,
		PropertyID:            data.PropertyID,
		GuestFirstName:        data.GuestFirstName,
		GuestLastName:         data.GuestLastName,
		GuestEmail:            data.GuestEmail,
		GuestPhone:            data.GuestPhone,
		DocumentType:          string(data.DocumentType),
		DocumentFrontImage:    data.DocumentFrontImage,
		DocumentBackImage:     data.DocumentBackImage,
		SelfieImage:           data.SelfieImage,
		SelfieVideo:           data.SelfieVideo,
		SignatureImage:        data.SignatureImage,
		DocumentNumber:        data.DocumentNumber,
		DocumentIssuedDate:    data.DocumentIssuedDate,
		DocumentExpiryDate:    data.DocumentExpiryDate,
		DocumentIssuedCountry: data.DocumentIssuedCountry,
		GuestNationality:      data.GuestNationality,
		OCRData:               ocr,
		FraudScore:            data.FraudScore,
		AINotes:               data.AINotes,
		FaceMatchScore:        data.FaceMatchScore,
		LivenessScore:         data.LivenessScore,
		LivenessStatus:        string(liveness),
		Status:                string(status),
		RejectionReason:       data.RejectionReason,
		WizardStep:            data.WizardStep,
		SubmittedAt:           data.SubmittedAt,
		VerifiedAt:            data.VerifiedAt,
		Version:               data.Version,
		CreatedAt:             data.CreatedAt,
		UpdatedAt:             data.UpdatedAt,
	}, nil
}
