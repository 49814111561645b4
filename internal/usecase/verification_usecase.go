package usecase

import (
	"context"

	"globalchek/internal/domain/entity"

	"github.com/google/uuid"
)

// Upload is an artifact whose content type has already been sniffed by the delivery layer.
type Upload struct {
	Data        []byte
	ContentType string
	Extension   string
}

// CreateVerificationInput defines the data required to open a guest check-in.
type CreateVerificationInput struct {
	PropertyID     uuid.UUID
	GuestFirstName string
	GuestLastName  string
	GuestEmail     string
	GuestPhone     *string
	DocumentType   entity.DocumentType
}

// UploadDocumentInput carries the document images and the manually captured fields.
type UploadDocumentInput struct {
	Front   *Upload
	Back    *Upload
	Details entity.DocumentDetails
}

// AIProcessingOutput is the result of running OCR and fraud scoring on a document.
type AIProcessingOutput struct {
	Verification  *entity.Verification
	OCRData       *entity.OCRResult
	FraudAnalysis *entity.FraudAnalysis
}

// SelfieOutput is the result of comparing a selfie with the stored document.
type SelfieOutput struct {
	Verification   *entity.Verification
	FaceComparison *entity.FaceComparison
}

// VerificationUsecase defines the host side of the verification lifecycle.
// Every call is scoped to the verifications owned by userID.
type VerificationUsecase interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateVerificationInput) (*entity.Verification, error)
	UploadDocument(ctx context.Context, userID, verificationID uuid.UUID, input UploadDocumentInput) (*entity.Verification, error)
	ProcessWithAI(ctx context.Context, userID, verificationID uuid.UUID, document Upload) (*AIProcessingOutput, error)
	UploadSelfie(ctx context.Context, userID, verificationID uuid.UUID, selfie Upload) (*SelfieOutput, error)
	Complete(ctx context.Context, userID, verificationID uuid.UUID) (*entity.Verification, error)
	List(ctx context.Context, userID uuid.UUID, filter entity.VerificationFilter) ([]*entity.Verification, error)
	Get(ctx context.Context, userID, verificationID uuid.UUID) (*entity.Verification, error)
}
