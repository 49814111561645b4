package usecase

import (
	"context"

	"globalchek/internal/domain/entity"

	"github.com/google/uuid"
)

// ListNotificationsInput narrows a notification listing.
type ListNotificationsInput struct {
	UnreadOnly bool
	Limit      int
	Offset     int
}

// NotificationUsecase defines the host notification inbox.
type NotificationUsecase interface {
	List(ctx context.Context, userID uuid.UUID, input ListNotificationsInput) ([]*entity.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (*entity.Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Notifier fans a stored notification out to the owner's devices. Delivery is best
// effort: failures are logged and never returned.
type Notifier interface {
	Push(ctx context.Context, notification *entity.Notification)
}
