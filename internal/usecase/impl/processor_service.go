package impl

import (
	"context"
	"log/slog"

	"globalchek/internal/domain/entity"
	domainerrors "globalchek/internal/domain/errors"
	"globalchek/internal/domain/service"
	"globalchek/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// processorService runs the AI analysis of guest submissions for the worker.
// A returned error means the message should be redelivered.
type processorService struct {
	verificationCore
}

// NewSubmissionProcessor is the constructor for processorService.
func NewSubmissionProcessor(params VerificationParams) usecase.SubmissionProcessor {
	return &processorService{verificationCore: newVerificationCore(params)}
}

// ProcessSubmission analyses the document, then compares the selfie with it.
// Each stage is saved on its own and skipped when its result is already stored,
// so a redelivered message resumes where the previous attempt stopped.
func (srv *processorService) ProcessSubmission(ctx context.Context, verificationID uuid.UUID) error {
	verification, err := srv.findVerification(ctx, verificationID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrVerificationNotFound) {
			srv.log(ctx).Warn("Submitted verification no longer exists", slog.Any("verification_id", verificationID))

			return nil
		}

		return err
	}
	if verification.Status != entity.StatusProcessing {
		srv.log(ctx).Info("Skipping verification that is not processing",
			slog.Any("verification_id", verification.ID),
			slog.String("status", string(verification.Status)),
		)

		return nil
	}

	if verification.DocumentFrontImage == nil {
		return srv.recordFailure(ctx, verification, errors.New("no document image was submitted"))
	}

	var document *service.Image
	if verification.OCRData == nil || verification.FraudScore == nil {
		image, err := srv.loadImage(ctx, *verification.DocumentFrontImage)
		if err != nil {
			return srv.recordFailure(ctx, verification, err)
		}
		document = &image

		_, _, alert, err := srv.analyseDocument(ctx, verification, image)
		if err != nil {
			return srv.handleAIError(ctx, verification, err)
		}
		if err := srv.saveVerification(ctx, verification, compact(alert)...); err != nil {
			return err
		}
	}

	if verification.SelfieImage == nil || verification.FaceMatchScore != nil {
		srv.log(ctx).Info("Submission processed", slog.Any("verification_id", verification.ID))

		return nil
	}

	if document == nil {
		image, err := srv.loadImage(ctx, *verification.DocumentFrontImage)
		if err != nil {
			return srv.recordFailure(ctx, verification, err)
		}
		document = &image
	}

	selfie, err := srv.loadImage(ctx, *verification.SelfieImage)
	if err != nil {
		return srv.recordFailure(ctx, verification, err)
	}

	comparison, err := srv.ai.CompareFaces(ctx, *document, selfie)
	if err != nil {
		return srv.handleAIError(ctx, verification, errors.Wrap(err, "face comparison failed"))
	}

	score := comparison.MatchScore
	verification.FaceMatchScore = &score
	if err := srv.saveVerification(ctx, verification); err != nil {
		return err
	}

	srv.log(ctx).Info("Submission processed",
		slog.Any("verification_id", verification.ID),
		slog.Int("face_match_score", score),
	)

	return nil
}

// handleAIError returns transient failures for redelivery and records permanent ones.
func (srv *processorService) handleAIError(ctx context.Context, verification *entity.Verification, err error) error {
	if errors.Is(err, domainerrors.ErrAIResponseInvalid) || errors.Is(err, domainerrors.ErrAIRequestRejected) {
		return srv.recordFailure(ctx, verification, err)
	}

	srv.log(ctx).Warn("AI analysis will be retried", slog.Any("verification_id", verification.ID), slog.Any("error", err))

	return err
}

// recordFailure stores the cause in the AI notes and acknowledges the message.
// The host can still complete the record manually.
func (srv *processorService) recordFailure(ctx context.Context, verification *entity.Verification, cause error) error {
	note := "AI analysis failed: " + cause.Error()
	verification.AINotes = &note

	if err := srv.saveVerification(ctx, verification); err != nil {
		return err
	}

	srv.log(ctx).Error("AI analysis failed", slog.Any("verification_id", verification.ID), slog.Any("error", cause))

	return nil
}
