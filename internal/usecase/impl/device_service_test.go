package impl

import (
	"context"
	"testing"

	"globalchek/internal/domain/entity"
	domainerrors "globalchek/internal/domain/errors"
	"globalchek/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// brokenDeviceRepo fails every registration.
type brokenDeviceRepo struct {
	memDevices
}

func (brokenDeviceRepo) UpsertDevice(context.Context, *entity.UserDevice) error {
	return errors.New("connection reset")
}

func TestDeviceService_RegisterDevice_NewDevice(t *testing.T) {
	store := newMemStore()
	svc := NewDeviceService(store.DeviceRepo())
	userID := uuid.New()

	device, err := svc.RegisterDevice(context.Background(), userID, &usecase.DeviceInfo{FCMToken: "fcm-1", DeviceID: "device-123", Platform: "ios"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, device.ID)
	assert.Equal(t, userID, device.UserID)
	assert.True(t, device.IsActive)
}

func TestDeviceService_RegisterDevice_RefreshesExisting(t *testing.T) {
	store := newMemStore()
	svc := NewDeviceService(store.DeviceRepo())
	ctx := context.Background()
	userID := uuid.New()

	first, err := svc.RegisterDevice(ctx, userID, &usecase.DeviceInfo{FCMToken: "fcm-1", DeviceID: "device-123", Platform: "ios"})
	require.NoError(t, err)
	require.NoError(t, svc.DeactivateDevice(ctx, userID, first.ID))

	second, err := svc.RegisterDevice(ctx, userID, &usecase.DeviceInfo{FCMToken: "fcm-2", DeviceID: "device-123", Platform: "ios"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "fcm-2", second.FCMToken)
	assert.True(t, second.IsActive)

	devices, err := svc.GetUserDevices(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, devices, 1)
}

func TestDeviceService_RegisterDevice_StoreError(t *testing.T) {
	store := newMemStore()
	svc := NewDeviceService(brokenDeviceRepo{memDevices{store}})

	_, err := svc.RegisterDevice(context.Background(), uuid.New(), &usecase.DeviceInfo{FCMToken: "fcm", DeviceID: "d", Platform: "web"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestDeviceService_RegisterDevice_TokenMovesToNewAccount(t *testing.T) {
	store := newMemStore()
	svc := NewDeviceService(store.DeviceRepo())
	ctx := context.Background()
	previousOwner, newOwner := uuid.New(), uuid.New()

	_, err := svc.RegisterDevice(ctx, previousOwner, &usecase.DeviceInfo{FCMToken: "shared", DeviceID: "tablet", Platform: "android"})
	require.NoError(t, err)
	_, err = svc.RegisterDevice(ctx, newOwner, &usecase.DeviceInfo{FCMToken: "shared", DeviceID: "tablet", Platform: "android"})
	require.NoError(t, err)

	devices, err := svc.GetUserDevices(ctx, previousOwner)
	require.NoError(t, err)
	assert.Empty(t, devices)

	devices, err = svc.GetUserDevices(ctx, newOwner)
	require.NoError(t, err)
	assert.Len(t, devices, 1)
}

func TestDeviceService_UpdateFCMToken(t *testing.T) {
	store := newMemStore()
	svc := NewDeviceService(store.DeviceRepo())
	ctx := context.Background()
	owner := uuid.New()

	device, err := svc.RegisterDevice(ctx, owner, &usecase.DeviceInfo{FCMToken: "old", DeviceID: "d", Platform: "android"})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateFCMToken(ctx, owner, device.ID, "new"))
	stored, err := store.DeviceRepo().FindDeviceByID(ctx, device.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", stored.FCMToken)

	err = svc.UpdateFCMToken(ctx, uuid.New(), device.ID, "hijack")
	assert.ErrorIs(t, err, domainerrors.ErrDeviceNotFound)

	err = svc.UpdateFCMToken(ctx, owner, uuid.New(), "new")
	assert.ErrorIs(t, err, domainerrors.ErrDeviceNotFound)
}

func TestDeviceService_DeactivateDevice(t *testing.T) {
	store := newMemStore()
	svc := NewDeviceService(store.DeviceRepo())
	ctx := context.Background()
	owner := uuid.New()

	device, err := svc.RegisterDevice(ctx, owner, &usecase.DeviceInfo{FCMToken: "t", DeviceID: "d", Platform: "web"})
	require.NoError(t, err)

	err = svc.DeactivateDevice(ctx, uuid.New(), device.ID)
	assert.ErrorIs(t, err, domainerrors.ErrDeviceNotFound)

	require.NoError(t, svc.DeactivateDevice(ctx, owner, device.ID))

	devices, err := svc.GetUserDevices(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, devices)
}
