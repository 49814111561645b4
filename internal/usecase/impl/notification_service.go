package impl

import (
	"context"
	"log/slog"
	"time"

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

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 100
)

type notificationService struct {
	notificationRepo repository.NotificationRepository
	deviceRepo       repository.DeviceRepository
	pushService      service.NotificationService
	logger           *slog.Logger
}

// NotificationServiceParams holds dependencies for the notification service, injected by Fx.
type NotificationServiceParams struct {
	fx.In

	NotificationRepo repository.NotificationRepository
	DeviceRepo       repository.DeviceRepository
	PushService      service.NotificationService `optional:"true"`
	Logger           *slog.Logger
}

func newNotificationService(params NotificationServiceParams) *notificationService {
	return &notificationService{
		notificationRepo: params.NotificationRepo,
		deviceRepo:       params.DeviceRepo,
		pushService:      params.PushService,
		logger:           params.Logger,
	}
}

// NewNotificationService creates the notification inbox.
func NewNotificationService(params NotificationServiceParams) usecase.NotificationUsecase {
	return newNotificationService(params)
}

// NewNotifier creates the device fan-out used when a notification is stored.
// Without a push service it does nothing.
func NewNotifier(params NotificationServiceParams) usecase.Notifier {
	return newNotificationService(params)
}

func (s *notificationService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, s.logger)
}

// List returns the user's notifications, newest first.
func (s *notificationService) List(ctx context.Context, userID uuid.UUID, input usecase.ListNotificationsInput) ([]*entity.Notification, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	limit = min(limit, maxNotificationLimit)
	offset := max(input.Offset, 0)

	notifications, err := s.notificationRepo.FindNotificationsByUser(ctx, userID, input.UnreadOnly, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}

	return notifications, nil
}

// MarkRead flags one of the user's notifications as read.
func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (*entity.Notification, error) {
	notification, err := s.notificationRepo.FindNotificationByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return nil, errors.Wrap(domainerrors.ErrNotificationNotFound, "failed to mark notification read")
		}

		return nil, errors.Wrap(err, "failed to find notification")
	}

	notification, err = policy.EnsureOwner(userID, notification, domainerrors.ErrNotificationNotFound)
	if err != nil {
		return nil, errors.Wrap(err, "failed to mark notification read")
	}

	if notification.IsRead {
		return notification, nil
	}

	if err := s.notificationRepo.MarkRead(ctx, notificationID); err != nil {
		return nil, errors.Wrap(err, "failed to mark notification read")
	}

	now := time.Now()
	notification.IsRead = true
	notification.ReadAt = &now

	return notification, nil
}

// MarkAllRead flags every unread notification of the user.
func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	updated, err := s.notificationRepo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to mark notifications read")
	}

	return updated, nil
}

// UnreadCount returns the badge count of the user.
func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count unread notifications")
	}

	return count, nil
}

// Push sends the notification to every active device of its owner. Tokens that
// FCM reports as invalid deactivate their devices.
func (s *notificationService) Push(ctx context.Context, notification *entity.Notification) {
	if s.pushService == nil || notification == nil {
		return
	}

	devices, err := s.deviceRepo.FindActiveDevicesByUser(ctx, notification.UserID)
	if err != nil {
		s.log(ctx).Warn("Failed to load devices for push", slog.Any("user_id", notification.UserID), slog.Any("error", err))

		return
	}
	if len(devices) == 0 {
		return
	}

	tokens := make([]string, 0, len(devices))
	for _, device := range devices {
		tokens = append(tokens, device.FCMToken)
	}

	data := map[string]string{
		"notification_id": notification.ID.String(),
		"type":            string(notification.Type),
	}
	if notification.VerificationID != nil {
		data["verification_id"] = notification.VerificationID.String()
	}

	report, err := s.pushService.SendToTokens(ctx, tokens, service.PushMessage{
		Title: notification.Title,
		Body:  notification.Message,
		Data:  data,
	})
	if err != nil {
		s.log(ctx).Warn("Push delivery failed", slog.Any("notification_id", notification.ID), slog.Any("error", err))

		return
	}

	s.log(ctx).Debug("Push delivered",
		slog.Any("notification_id", notification.ID),
		slog.Int("sent", report.Sent),
		slog.Int("failed", report.Failed),
	)

	if len(report.InvalidTokens) > 0 {
		if err := s.deviceRepo.DeactivateByFCMToken(ctx, report.InvalidTokens); err != nil {
			s.log(ctx).Warn("Failed to deactivate invalid devices", slog.Any("error", err))
		}
	}
}
