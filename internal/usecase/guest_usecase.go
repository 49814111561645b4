package usecase

import (
	"context"

	"globalchek/internal/domain/entity"
	"globalchek/internal/domain/wizard"

	"github.com/google/uuid"
)

// GuestView is what an unauthenticated guest may see of a verification.
type GuestView struct {
	ID             uuid.UUID
	GuestFirstName string
	GuestLastName  string
	GuestEmail     string
	DocumentType   entity.DocumentType
	Status         entity.VerificationStatus
	Property       *entity.PropertySummary
	Wizard         wizard.Progress
}

// SubmissionInput is the combined wizard submission. Artifacts already stored
// through step uploads may be left nil.
type SubmissionInput struct {
	DocumentFront *Upload
	DocumentBack  *Upload
	VideoSelfie   *Upload
	SelfieImage   *Upload
	Signature     *Upload
	AgreedToTerms bool
}

// GuestUsecase defines the public capture flow of a verification.
type GuestUsecase interface {
	// GetPublic returns the guest view with the persisted wizard progress.
	GetPublic(ctx context.Context, verificationID uuid.UUID) (*GuestView, error)

	// UploadStep stores the artifacts of one step so that a reload can resume the flow.
	UploadStep(ctx context.Context, verificationID uuid.UUID, step wizard.Step, input SubmissionInput) (*GuestView, error)

	// Submit moves the verification to PROCESSING and queues it for AI analysis.
	Submit(ctx context.Context, verificationID uuid.UUID, input SubmissionInput) (*GuestView, error)
}

// SubmissionProcessor runs the AI pipeline on a submitted verification.
type SubmissionProcessor interface {
	ProcessSubmission(ctx context.Context, verificationID uuid.UUID) error
}
