// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"

	"globalchek/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrDeviceNotFound is returned when a device is not found.
var ErrDeviceNotFound = errors.New("device not found")

// DeviceRepository stores the push targets of host accounts.
type DeviceRepository interface {
	// UpsertDevice registers the device or refreshes the row the user already
	// has for the same client device id, leaving it active. Any other device
	// still holding the same FCM token is deactivated. ID and timestamps are
	// written back to device.
	UpsertDevice(ctx context.Context, device *entity.UserDevice) error

	FindDeviceByID(ctx context.Context, id uuid.UUID) (*entity.UserDevice, error)

	// FindActiveDevicesByUser lists the devices notifications are pushed to.
	FindActiveDevicesByUser(ctx context.Context, userID uuid.UUID) ([]*entity.UserDevice, error)

	UpdateFCMToken(ctx context.Context, deviceID uuid.UUID, fcmToken string) error

	// DeactivateDevice stops pushes to a device without forgetting it.
	DeactivateDevice(ctx context.Context, id uuid.UUID) error

	// DeactivateByFCMToken marks every device holding a token rejected by FCM as inactive.
	DeactivateByFCMToken(ctx context.Context, fcmTokens []string) error
}
