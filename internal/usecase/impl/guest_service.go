package impl

import (
	"context"
	"log/slog"
	"strings"

	deliverycontext "globalchek/internal/delivery/context"
	"globalchek/internal/domain/entity"
	domainerrors "globalchek/internal/domain/errors"
	"globalchek/internal/domain/service"
	"globalchek/internal/domain/wizard"
	"globalchek/internal/infra/metrics"
	"globalchek/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// guestService implements the public wizard flow. Guests are not authenticated:
// knowing the verification id is the capability.
type guestService struct {
	verificationCore
}

// NewGuestService is the constructor for guestService.
func NewGuestService(params VerificationParams) usecase.GuestUsecase {
	return &guestService{verificationCore: newVerificationCore(params)}
}

// GetPublic returns the guest view of an open verification.
func (srv *guestService) GetPublic(ctx context.Context, verificationID uuid.UUID) (*usecase.GuestView, error) {
	verification, err := srv.loadGuestVerification(ctx, verificationID)
	if err != nil {
		return nil, err
	}

	return guestView(verification), nil
}

// UploadStep stores the artifacts of a single wizard step.
func (srv *guestService) UploadStep(ctx context.Context, verificationID uuid.UUID, step wizard.Step, input usecase.SubmissionInput) (*usecase.GuestView, error) {
	verification, err := srv.loadCapturableVerification(ctx, verificationID)
	if err != nil {
		return nil, err
	}

	uploads, err := stepUploads(step, input)
	if err != nil {
		return nil, err
	}

	if captured := wizard.FromVerification(verification); !captured.CanEnter(step) {
		current := captured.Current()

		return nil, errors.Wrapf(
			domainerrors.ErrInvalidState.WithMessage("Complete the "+strings.ToLower(string(current))+" step first"),
			"step %s uploaded before %s", step, current,
		)
	}

	written, err := srv.storeUploads(ctx, verification, uploads)
	if err != nil {
		return nil, err
	}

	if verification.Status == entity.StatusPending {
		verification.Advance(entity.StatusInProgress)
	}
	verification.WizardStep = string(wizard.FromVerification(verification).Current())

	if err := srv.saveVerification(ctx, verification); err != nil {
		srv.discardArtifacts(ctx, written)

		return nil, err
	}

	srv.log(ctx).Debug("Wizard step stored",
		slog.Any("verification_id", verification.ID),
		slog.String("step", string(step)),
		slog.String("current_step", verification.WizardStep),
	)

	return guestView(verification), nil
}

// Submit closes the capture flow: every required artifact must be stored, either
// now or through earlier step uploads.
func (srv *guestService) Submit(ctx context.Context, verificationID uuid.UUID, input usecase.SubmissionInput) (*usecase.GuestView, error) {
	verification, err := srv.loadCapturableVerification(ctx, verificationID)
	if err != nil {
		return nil, err
	}
	if !input.AgreedToTerms {
		return nil, domainerrors.NewValidationError(domainerrors.FieldError{Path: "agreedToTerms", Message: "The contract terms must be accepted"})
	}

	uploads := artifactUploads{
		front:     input.DocumentFront,
		back:      input.DocumentBack,
		video:     input.VideoSelfie,
		selfie:    input.SelfieImage,
		signature: input.Signature,
	}

	captured := wizard.FromVerification(verification)
	captured.DocumentFront = captured.DocumentFront || uploads.front != nil
	captured.Selfie = captured.Selfie || uploads.video != nil || uploads.selfie != nil
	captured.Signature = captured.Signature || uploads.signature != nil
	captured.AgreedToTerms = input.AgreedToTerms

	if missing := captured.Missing(); len(missing) > 0 {
		fields := make([]domainerrors.FieldError, 0, len(missing))
		for _, name := range missing {
			fields = append(fields, domainerrors.FieldError{Path: name, Message: "is required"})
		}

		return nil, domainerrors.NewValidationError(fields...)
	}

	written, err := srv.storeUploads(ctx, verification, uploads)
	if err != nil {
		return nil, err
	}

	if !verification.Advance(entity.StatusProcessing) {
		srv.discardArtifacts(ctx, written)

		return nil, errors.Wrapf(domainerrors.ErrInvalidState, "cannot submit a %s verification", verification.Status)
	}
	now := srv.now()
	verification.SubmittedAt = &now
	verification.WizardStep = string(wizard.StepReview)

	notification := newVerificationNotification(verification, entity.NotificationInfo,
		"Guest submitted",
		guestName(verification)+" submitted their check-in documents",
	)

	if err := srv.saveVerification(ctx, verification, notification); err != nil {
		srv.discardArtifacts(ctx, written)

		return nil, err
	}

	metrics.RecordSubmission()
	srv.publishSubmission(ctx, verification)

	srv.log(ctx).Info("Guest submission accepted", slog.Any("verification_id", verification.ID))

	return guestView(verification), nil
}

// publishSubmission queues the record for the AI worker. A failed publish leaves the
// record PROCESSING; the host can still run the analysis from the dashboard.
func (srv *guestService) publishSubmission(ctx context.Context, verification *entity.Verification) {
	event := &service.VerificationSubmittedEvent{
		RequestID:      deliverycontext.GetRequestIDFromContext(ctx),
		VerificationID: verification.ID.String(),
		UserID:         verification.UserID.String(),
		Version:        verification.Version,
	}

	if err := srv.publisher.PublishVerificationSubmitted(ctx, event); err != nil {
		srv.log(ctx).Error("Failed to publish submission event",
			slog.Any("verification_id", verification.ID),
			slog.Any("error", err),
		)
	}
}

func (srv *guestService) loadGuestVerification(ctx context.Context, verificationID uuid.UUID) (*entity.Verification, error) {
	verification, err := srv.findVerification(ctx, verificationID)
	if err != nil {
		return nil, err
	}
	if verification.Status.IsTerminal() {
		return nil, errors.Wrapf(domainerrors.ErrVerificationClosed, "verification is %s", verification.Status)
	}

	return verification, nil
}

// loadCapturableVerification only returns records that still accept guest uploads.
func (srv *guestService) loadCapturableVerification(ctx context.Context, verificationID uuid.UUID) (*entity.Verification, error) {
	verification, err := srv.loadGuestVerification(ctx, verificationID)
	if err != nil {
		return nil, err
	}
	if verification.Status == entity.StatusProcessing {
		return nil, errors.Wrap(domainerrors.ErrInvalidState.WithMessage("This verification has already been submitted"), "guest upload")
	}

	return verification, nil
}

type artifactUploads struct {
	front     *usecase.Upload
	back      *usecase.Upload
	video     *usecase.Upload
	selfie    *usecase.Upload
	signature *usecase.Upload
}

// stepUploads picks the artifacts a step accepts and checks the required one is present.
func stepUploads(step wizard.Step, input usecase.SubmissionInput) (artifactUploads, error) {
	var uploads artifactUploads

	switch step {
	case wizard.StepDocuments:
		if input.DocumentFront == nil {
			return uploads, domainerrors.NewValidationError(domainerrors.FieldError{Path: wizard.ArtifactDocumentFront, Message: "is required"})
		}
		uploads.front, uploads.back = input.DocumentFront, input.DocumentBack
	case wizard.StepVideo:
		if input.VideoSelfie == nil && input.SelfieImage == nil {
			return uploads, domainerrors.NewValidationError(domainerrors.FieldError{Path: wizard.ArtifactVideoSelfie, Message: "is required"})
		}
		uploads.video, uploads.selfie = input.VideoSelfie, input.SelfieImage
	case wizard.StepSignature:
		var fields []domainerrors.FieldError
		if input.Signature == nil {
			fields = append(fields, domainerrors.FieldError{Path: wizard.ArtifactSignature, Message: "is required"})
		}
		if !input.AgreedToTerms {
			fields = append(fields, domainerrors.FieldError{Path: "agreedToTerms", Message: "The contract terms must be accepted"})
		}
		if len(fields) > 0 {
			return uploads, domainerrors.NewValidationError(fields...)
		}
		uploads.signature = input.Signature
	default:
		return uploads, domainerrors.NewValidationError(domainerrors.FieldError{Path: "step", Message: "No upload is accepted for step " + string(step)})
	}

	return uploads, nil
}

// storeUploads writes every present artifact and points the record at it.
// On failure the objects already written are removed.
func (srv *guestService) storeUploads(ctx context.Context, verification *entity.Verification, uploads artifactUploads) ([]string, error) {
	targets := []struct {
		name   string
		upload *usecase.Upload
		field  **string
	}{
		{artifactDocumentFront, uploads.front, &verification.DocumentFrontImage},
		{artifactDocumentBack, uploads.back, &verification.DocumentBackImage},
		{artifactSelfieVideo, uploads.video, &verification.SelfieVideo},
		{artifactSelfie, uploads.selfie, &verification.SelfieImage},
		{artifactSignature, uploads.signature, &verification.SignatureImage},
	}

	written := make([]string, 0, len(targets))
	for _, target := range targets {
		if target.upload == nil {
			continue
		}

		path, err := srv.storeArtifact(ctx, verification.ID, target.name, target.upload)
		if err != nil {
			srv.discardArtifacts(ctx, written)

			return nil, err
		}
		*target.field = &path
		written = append(written, path)
	}

	return written, nil
}

func guestView(verification *entity.Verification) *usecase.GuestView {
	view := &usecase.GuestView{
		ID:             verification.ID,
		GuestFirstName: verification.GuestFirstName,
		GuestLastName:  verification.GuestLastName,
		GuestEmail:     verification.GuestEmail,
		DocumentType:   verification.DocumentType,
		Status:         verification.Status,
		Property:       verification.Property,
		Wizard:         wizard.FromVerification(verification).Progress(),
	}

	if step, ok := wizard.ParseStep(verification.WizardStep); ok && verification.Status == entity.StatusProcessing {
		view.Wizard.CurrentStep = step
	}

	return view
}
