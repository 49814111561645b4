// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"
	"errors"

	"globalchek/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrNotificationNotFound is returned when a notification is not found.
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepository defines the interface for notification-related database operations.
type NotificationRepository interface {
	// CreateNotification persists a new notification.
	CreateNotification(ctx context.Context, notification *entity.Notification) error

	// FindNotificationByID retrieves a notification by its unique ID.
	FindNotificationByID(ctx context.Context, id uuid.UUID) (*entity.Notification, error)

	// FindNotificationsByUser lists a user's notifications, newest first.
	FindNotificationsByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*entity.Notification, error)

	// CountUnread returns the number of unread notifications of a user.
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)

	// MarkRead flags one notification as read.
	MarkRead(ctx context.Context, id uuid.UUID) error

	// MarkAllRead flags every unread notification of a user and returns how many changed.
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}
