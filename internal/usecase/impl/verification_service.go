package impl

import (
	"context"
	"fmt"
	"log/slog"

	"globalchek/internal/domain/entity"
	domainerrors "globalchek/internal/domain/errors"
	"globalchek/internal/domain/repository"
	"globalchek/internal/domain/service"
	"globalchek/internal/domain/wizard"
	"globalchek/internal/infra/metrics"
	"globalchek/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// verificationService implements the host side of the verification lifecycle.
type verificationService struct {
	verificationCore
}

// NewVerificationService is the constructor for verificationService.
func NewVerificationService(params VerificationParams) usecase.VerificationUsecase {
	return &verificationService{verificationCore: newVerificationCore(params)}
}

// Create opens a PENDING verification on one of the host's properties.
func (srv *verificationService) Create(ctx context.Context, userID uuid.UUID, input usecase.CreateVerificationInput) (*entity.Verification, error) {
	property, err := srv.loadOwnedProperty(ctx, userID, input.PropertyID)
	if err != nil {
		return nil, err
	}

	verification := &entity.Verification{
		UserID:         userID,
		PropertyID:     property.ID,
		GuestFirstName: input.GuestFirstName,
		GuestLastName:  input.GuestLastName,
		GuestEmail:     input.GuestEmail,
		GuestPhone:     input.GuestPhone,
		DocumentType:   input.DocumentType,
		LivenessStatus: entity.LivenessNotEvaluated,
		Status:         entity.StatusPending,
		WizardStep:     string(wizard.StepDocuments),
	}

	var notification *entity.Notification
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.VerificationRepo().Create(ctx, verification); err != nil {
			return mapVerificationWriteError(err)
		}

		notification = newVerificationNotification(verification, entity.NotificationInfo,
			"New verification",
			"New verification request for "+guestName(verification),
		)

		return repoFactory.NotificationRepo().CreateNotification(ctx, notification)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create verification")
	}

	srv.push(ctx, notification)

	verification.Property = &entity.PropertySummary{
		ID:      property.ID,
		Name:    property.Name,
		City:    property.City,
		Country: property.Country,
	}

	srv.log(ctx).Info("Verification created", slog.Any("verification_id", verification.ID), slog.Any("property_id", property.ID))

	return verification, nil
}

// UploadDocument stores the document images and the manually entered fields.
// A PENDING record moves to IN_PROGRESS.
func (srv *verificationService) UploadDocument(ctx context.Context, userID, verificationID uuid.UUID, input usecase.UploadDocumentInput) (*entity.Verification, error) {
	verification, err := srv.loadOpenVerification(ctx, userID, verificationID)
	if err != nil {
		return nil, err
	}

	var written []string
	if input.Front != nil {
		path, err := srv.storeArtifact(ctx, verification.ID, artifactDocumentFront, input.Front)
		if err != nil {
			return nil, err
		}
		verification.DocumentFrontImage = &path
		written = append(written, path)
	}
	if input.Back != nil {
		path, err := srv.storeArtifact(ctx, verification.ID, artifactDocumentBack, input.Back)
		if err != nil {
			srv.discardArtifacts(ctx, written)

			return nil, err
		}
		verification.DocumentBackImage = &path
		written = append(written, path)
	}

	applyDocumentDetails(verification, input.Details)

	if verification.Status == entity.StatusPending {
		verification.Advance(entity.StatusInProgress)
	}
	verification.WizardStep = string(wizard.FromVerification(verification).Current())

	if err := srv.saveVerification(ctx, verification); err != nil {
		srv.discardArtifacts(ctx, written)

		return nil, err
	}

	return verification, nil
}

func applyDocumentDetails(verification *entity.Verification, details entity.DocumentDetails) {
	if details.DocumentNumber != nil {
		verification.DocumentNumber = details.DocumentNumber
	}
	if details.DocumentIssuedDate != nil {
		verification.DocumentIssuedDate = details.DocumentIssuedDate
	}
	if details.DocumentExpiryDate != nil {
		verification.DocumentExpiryDate = details.DocumentExpiryDate
	}
	if details.DocumentIssuedCountry != nil {
		verification.DocumentIssuedCountry = details.DocumentIssuedCountry
	}
}

// ProcessWithAI runs OCR and fraud scoring on the given document image. The status is unchanged.
func (srv *verificationService) ProcessWithAI(ctx context.Context, userID, verificationID uuid.UUID, document usecase.Upload) (*usecase.AIProcessingOutput, error) {
	verification, err := srv.loadOpenVerification(ctx, userID, verificationID)
	if err != nil {
		return nil, err
	}

	ocr, fraud, alert, err := srv.analyseDocument(ctx, verification, service.Image{Data: document.Data, MIMEType: document.ContentType})
	if err != nil {
		srv.log(ctx).Error("AI processing failed", slog.Any("verification_id", verification.ID), slog.Any("error", err))

		return nil, err
	}

	if err := srv.saveVerification(ctx, verification, compact(alert)...); err != nil {
		return nil, err
	}

	return &usecase.AIProcessingOutput{
		Verification:  verification,
		OCRData:       ocr,
		FraudAnalysis: fraud,
	}, nil
}

// UploadSelfie compares the selfie with the stored front document and stores both
// the selfie and the match score. Liveness is not evaluated.
func (srv *verificationService) UploadSelfie(ctx context.Context, userID, verificationID uuid.UUID, selfie usecase.Upload) (*usecase.SelfieOutput, error) {
	verification, err := srv.loadOpenVerification(ctx, userID, verificationID)
	if err != nil {
		return nil, err
	}
	if verification.DocumentFrontImage == nil {
		return nil, errors.Wrap(domainerrors.ErrInvalidState.WithMessage("The document has not been uploaded yet"), "selfie upload")
	}

	document, err := srv.loadImage(ctx, *verification.DocumentFrontImage)
	if err != nil {
		return nil, err
	}

	comparison, err := srv.ai.CompareFaces(ctx, document, service.Image{Data: selfie.Data, MIMEType: selfie.ContentType})
	if err != nil {
		srv.log(ctx).Error("Face comparison failed", slog.Any("verification_id", verification.ID), slog.Any("error", err))

		return nil, errors.Wrap(err, "face comparison failed")
	}

	path, err := srv.storeArtifact(ctx, verification.ID, artifactSelfie, &selfie)
	if err != nil {
		return nil, err
	}

	score := comparison.MatchScore
	verification.SelfieImage = &path
	verification.FaceMatchScore = &score
	verification.LivenessScore = nil
	verification.LivenessStatus = entity.LivenessNotEvaluated
	verification.WizardStep = string(wizard.FromVerification(verification).Current())

	if err := srv.saveVerification(ctx, verification); err != nil {
		srv.discardArtifacts(ctx, []string{path})

		return nil, err
	}

	return &usecase.SelfieOutput{Verification: verification, FaceComparison: comparison}, nil
}

// Complete applies the decision rules and closes the verification.
func (srv *verificationService) Complete(ctx context.Context, userID, verificationID uuid.UUID) (*entity.Verification, error) {
	verification, err := srv.loadOpenVerification(ctx, userID, verificationID)
	if err != nil {
		return nil, err
	}
	if verification.DocumentFrontImage == nil || !verification.HasSelfieArtifact() {
		return nil, errors.Wrap(domainerrors.ErrInvalidState.WithMessage("The verification is incomplete"), "complete")
	}
	// Once the document was analysed, the face rule must have a score to apply.
	if verification.FraudScore != nil && verification.FaceMatchScore == nil {
		return nil, errors.Wrap(
			domainerrors.ErrInvalidState.WithMessage("The face comparison has not run, upload a selfie photo first"),
			"complete without a face match score",
		)
	}

	decision := verification.Decide(srv.fraudRejectThreshold, srv.faceMatchThreshold)
	if !verification.Advance(decision.Status) {
		return nil, errors.Wrapf(domainerrors.ErrInvalidState, "cannot move from %s to %s", verification.Status, decision.Status)
	}
	verification.RejectionReason = decision.RejectionReason
	if decision.Status == entity.StatusCompleted {
		now := srv.now()
		verification.VerifiedAt = &now
	}

	kind, title := entity.NotificationWarning, "Verification rejected"
	if decision.Status == entity.StatusCompleted {
		kind, title = entity.NotificationSuccess, "Verification successful"
	}
	notification := newVerificationNotification(verification, kind, title,
		fmt.Sprintf("Verification of %s - %s", guestName(verification), decision.Status),
	)

	if err := srv.saveVerification(ctx, verification, notification); err != nil {
		return nil, err
	}

	metrics.RecordVerificationDecision(string(decision.Status))
	srv.log(ctx).Info("Verification completed",
		slog.Any("verification_id", verification.ID),
		slog.String("status", string(decision.Status)),
	)

	return verification, nil
}

// List returns the host's verifications, newest first.
func (srv *verificationService) List(ctx context.Context, userID uuid.UUID, filter entity.VerificationFilter) ([]*entity.Verification, error) {
	verifications, err := srv.verificationRepo.FindByUser(ctx, userID, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list verifications")
	}

	return verifications, nil
}

// Get returns one of the host's verifications.
func (srv *verificationService) Get(ctx context.Context, userID, verificationID uuid.UUID) (*entity.Verification, error) {
	return srv.loadOwnedVerification(ctx, userID, verificationID)
}
