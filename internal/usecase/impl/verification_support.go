package impl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"globalchek/config"
	deliverycontext "globalchek/internal/delivery/context"
	"globalchek/internal/domain/entity"
	domainerrors "globalchek/internal/domain/errors"
	"globalchek/internal/domain/policy"
	"globalchek/internal/domain/repository"
	"globalchek/internal/domain/service"
	"globalchek/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Artifact names used in storage keys.
const (
	artifactDocumentFront = "document-front"
	artifactDocumentBack  = "document-back"
	artifactSelfie        = "selfie"
	artifactSelfieVideo   = "selfie-video"
	artifactSignature     = "signature"
)

// VerificationParams holds the dependencies shared by the verification, guest and
// processor services, injected by Fx.
type VerificationParams struct {
	fx.In

	TxManager        repository.TransactionManager
	PropertyRepo     repository.PropertyRepository
	VerificationRepo repository.VerificationRepository
	Storage          service.ArtifactStorage
	AIGateway        service.AIGateway
	Publisher        service.EventPublisher
	Notifier         usecase.Notifier
	Config           *config.Config
	Logger           *slog.Logger
}

// verificationCore carries what every verification flow needs: loading with the
// ownership check, optimistic writes, artifact storage and host notifications.
type verificationCore struct {
	txManager            repository.TransactionManager
	propertyRepo         repository.PropertyRepository
	verificationRepo     repository.VerificationRepository
	storage              service.ArtifactStorage
	ai                   service.AIGateway
	publisher            service.EventPublisher
	notifier             usecase.Notifier
	fraudRejectThreshold int
	faceMatchThreshold   int
	recentLimit          int
	statsRecentLimit     int
	logger               *slog.Logger
	now                  func() time.Time
}

func newVerificationCore(params VerificationParams) verificationCore {
	core := verificationCore{
		txManager:            params.TxManager,
		propertyRepo:         params.PropertyRepo,
		verificationRepo:     params.VerificationRepo,
		storage:              params.Storage,
		ai:                   params.AIGateway,
		publisher:            params.Publisher,
		notifier:             params.Notifier,
		fraudRejectThreshold: config.DefaultFraudRejectThreshold,
		faceMatchThreshold:   config.DefaultFaceMatchThreshold,
		recentLimit:          10,
		statsRecentLimit:     5,
		logger:               params.Logger,
		now:                  time.Now,
	}

	if params.Config != nil && params.Config.Verification != nil {
		cfg := params.Config.Verification
		if cfg.FraudRejectThreshold != nil {
			core.fraudRejectThreshold = *cfg.FraudRejectThreshold
		}
		if cfg.FaceMatchThreshold != nil {
			core.faceMatchThreshold = *cfg.FaceMatchThreshold
		}
		if cfg.RecentLimit > 0 {
			core.recentLimit = cfg.RecentLimit
		}
		if cfg.StatsRecentLimit > 0 {
			core.statsRecentLimit = cfg.StatsRecentLimit
		}
	}

	return core
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (c *verificationCore) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, c.logger)
}

func (c *verificationCore) findVerification(ctx context.Context, verificationID uuid.UUID) (*entity.Verification, error) {
	verification, err := c.verificationRepo.FindByID(ctx, verificationID)
	if err != nil {
		if errors.Is(err, repository.ErrVerificationNotFound) {
			return nil, errors.Wrap(domainerrors.ErrVerificationNotFound, "failed to find verification")
		}

		return nil, errors.Wrap(err, "failed to find verification")
	}

	return verification, nil
}

// loadOwnedVerification returns the verification when userID owns it. Anything else is not found.
func (c *verificationCore) loadOwnedVerification(ctx context.Context, userID, verificationID uuid.UUID) (*entity.Verification, error) {
	verification, err := c.findVerification(ctx, verificationID)
	if err != nil {
		return nil, err
	}

	verification, err = policy.EnsureOwner(userID, verification, domainerrors.ErrVerificationNotFound)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find verification")
	}

	return verification, nil
}

// loadOpenVerification is loadOwnedVerification for mutations: terminal records are gone.
func (c *verificationCore) loadOpenVerification(ctx context.Context, userID, verificationID uuid.UUID) (*entity.Verification, error) {
	verification, err := c.loadOwnedVerification(ctx, userID, verificationID)
	if err != nil {
		return nil, err
	}
	if verification.Status.IsTerminal() {
		return nil, errors.Wrapf(domainerrors.ErrVerificationClosed, "verification is %s", verification.Status)
	}

	return verification, nil
}

func (c *verificationCore) loadOwnedProperty(ctx context.Context, userID, propertyID uuid.UUID) (*entity.Property, error) {
	property, err := c.propertyRepo.FindByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, repository.ErrPropertyNotFound) {
			return nil, errors.Wrap(domainerrors.ErrPropertyNotFound, "failed to find property")
		}

		return nil, errors.Wrap(err, "failed to find property")
	}

	property, err = policy.EnsureOwner(userID, property, domainerrors.ErrPropertyNotFound)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find property")
	}

	return property, nil
}

// saveVerification writes the record under its optimistic lock and stores the
// notifications in the same transaction. Notifications are pushed after commit.
func (c *verificationCore) saveVerification(ctx context.Context, verification *entity.Verification, notifications ...*entity.Notification) error {
	err := c.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.VerificationRepo().Update(ctx, verification); err != nil {
			return mapVerificationWriteError(err)
		}

		notificationRepo := repoFactory.NotificationRepo()
		for _, notification := range notifications {
			if err := notificationRepo.CreateNotification(ctx, notification); err != nil {
				return errors.Wrap(err, "failed to create notification")
			}
		}

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to save verification")
	}

	c.push(ctx, notifications...)

	return nil
}

func (c *verificationCore) push(ctx context.Context, notifications ...*entity.Notification) {
	for _, notification := range notifications {
		c.notifier.Push(ctx, notification)
	}
}

func mapVerificationWriteError(err error) error {
	switch {
	case errors.Is(err, repository.ErrStaleVerification):
		return errors.Wrap(domainerrors.ErrVersionConflict, err.Error())
	case errors.Is(err, repository.ErrVerificationNotFound):
		return errors.Wrap(domainerrors.ErrVerificationNotFound, err.Error())
	case errors.Is(err, repository.ErrPropertyNotFound):
		return errors.Wrap(domainerrors.ErrPropertyNotFound, err.Error())
	default:
		return errors.Wrap(err, "failed to write verification")
	}
}

// storeArtifact saves an upload and returns its public path.
func (c *verificationCore) storeArtifact(ctx context.Context, verificationID uuid.UUID, name string, upload *usecase.Upload) (string, error) {
	key := service.ArtifactKey(verificationID, name, upload.Extension, c.now())

	stored, err := c.storage.Save(ctx, key, upload.Data, upload.ContentType)
	if err != nil {
		return "", errors.Wrap(domainerrors.ErrStorageFailed, err.Error())
	}

	return stored.PublicPath, nil
}

// discardArtifacts removes objects written by a call whose database update failed.
func (c *verificationCore) discardArtifacts(ctx context.Context, paths []string) {
	for _, path := range paths {
		if err := c.storage.Delete(ctx, path); err != nil {
			c.log(ctx).Warn("Failed to discard orphan artifact", slog.String("path", path), slog.Any("error", err))
		}
	}
}

// loadImage reads a stored artifact for the AI gateway.
func (c *verificationCore) loadImage(ctx context.Context, path string) (service.Image, error) {
	data, contentType, err := c.storage.Read(ctx, path)
	if err != nil {
		return service.Image{}, errors.Wrap(err, "failed to read stored artifact")
	}

	return service.Image{Data: data, MIMEType: contentType}, nil
}

// analyseDocument runs OCR then fraud scoring and merges both into the record.
// It returns the fraud alert to store when the score crosses the threshold.
func (c *verificationCore) analyseDocument(ctx context.Context, verification *entity.Verification, document service.Image) (*entity.OCRResult, *entity.FraudAnalysis, *entity.Notification, error) {
	ocr, err := c.ai.ExtractDocumentData(ctx, document, verification.DocumentType)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "OCR extraction failed")
	}

	fraud, err := c.ai.DetectFraud(ctx, document, ocr)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "fraud detection failed")
	}

	verification.ApplyOCR(ocr)
	verification.ApplyFraud(fraud)

	c.log(ctx).Info("Document analysed",
		slog.Any("verification_id", verification.ID),
		slog.Int("confidence", ocr.Confidence),
		slog.Int("fraud_score", fraud.FraudScore),
		slog.String("risk_level", string(fraud.RiskLevel)),
	)

	var alert *entity.Notification
	if fraud.FraudScore > c.fraudRejectThreshold {
		alert = newVerificationNotification(verification, entity.NotificationError,
			"Fraud alert",
			fmt.Sprintf("High fraud score (%d%%) for %s", fraud.FraudScore, guestName(verification)),
		)
	}

	return ocr, fraud, alert, nil
}

func newVerificationNotification(verification *entity.Verification, kind entity.NotificationType, title, message string) *entity.Notification {
	verificationID := verification.ID

	return &entity.Notification{
		UserID:         verification.UserID,
		Type:           kind,
		Title:          title,
		Message:        message,
		VerificationID: &verificationID,
	}
}

func guestName(verification *entity.Verification) string {
	return verification.GuestFirstName + " " + verification.GuestLastName
}

// compact drops nil notifications.
func compact(notifications ...*entity.Notification) []*entity.Notification {
	out := make([]*entity.Notification, 0, len(notifications))
	for _, notification := range notifications {
		if notification != nil {
			out = append(out, notification)
		}
	}

	return out
}
