package impl

import (
	"context"
	"fmt"
	"testing"

	"globalchek/internal/domain/entity"
	domainerrors "globalchek/internal/domain/errors"
	"globalchek/internal/domain/service"
	"globalchek/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockPushService is a testify mock of service.NotificationService.
type mockPushService struct {
	mock.Mock
}

func (m *mockPushService) SendToTokens(ctx context.Context, tokens []string, msg service.PushMessage) (*service.PushReport, error) {
	args := m.Called(ctx, tokens, msg)
	report, _ := args.Get(0).(*service.PushReport)

	return report, args.Error(1)
}

func newNotificationFixture(t *testing.T, push *mockPushService) (*memStore, NotificationServiceParams) {
	t.Helper()

	store := newMemStore()
	params := NotificationServiceParams{
		NotificationRepo: store.NotificationRepo(),
		DeviceRepo:       store.DeviceRepo(),
		Logger:           newDiscardLogger(),
	}
	if push != nil {
		params.PushService = push
		t.Cleanup(func() { push.AssertExpectations(t) })
	}

	return store, params
}

func seedNotifications(t *testing.T, store *memStore, userID uuid.UUID, n int) []*entity.Notification {
	t.Helper()

	out := make([]*entity.Notification, 0, n)
	for i := range n {
		notification := &entity.Notification{UserID: userID, Type: entity.NotificationInfo, Title: fmt.Sprintf("n%d", i), Message: "m"}
		require.NoError(t, store.NotificationRepo().CreateNotification(context.Background(), notification))
		out = append(out, notification)
	}

	return out
}

func TestNotificationService_ListAndCount(t *testing.T) {
	store, params := newNotificationFixture(t, nil)
	svc := NewNotificationService(params)
	ctx := context.Background()
	userID := uuid.New()
	seedNotifications(t, store, userID, 3)
	seedNotifications(t, store, uuid.New(), 2)

	list, err := svc.List(ctx, userID, usecase.ListNotificationsInput{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "n2", list[0].Title)

	page, err := svc.List(ctx, userID, usecase.ListNotificationsInput{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "n1", page[0].Title)

	count, err := svc.UnreadCount(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestNotificationService_MarkRead(t *testing.T) {
	store, params := newNotificationFixture(t, nil)
	svc := NewNotificationService(params)
	ctx := context.Background()
	userID := uuid.New()
	seeded := seedNotifications(t, store, userID, 2)

	_, err := svc.MarkRead(ctx, uuid.New(), seeded[0].ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotificationNotFound)

	_, err = svc.MarkRead(ctx, userID, uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrNotificationNotFound)

	read, err := svc.MarkRead(ctx, userID, seeded[0].ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
	assert.NotNil(t, read.ReadAt)

	unread, err := svc.List(ctx, userID, usecase.ListNotificationsInput{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, seeded[1].ID, unread[0].ID)

	changed, err := svc.MarkAllRead(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	count, err := svc.UnreadCount(ctx, userID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNotifier_PushDeactivatesInvalidTokens(t *testing.T) {
	push := &mockPushService{}
	store, params := newNotificationFixture(t, push)
	notifier := NewNotifier(params)
	ctx := context.Background()
	userID := uuid.New()

	for _, token := range []string{"token-ok", "token-stale"} {
		require.NoError(t, store.DeviceRepo().UpsertDevice(ctx, &entity.UserDevice{UserID: userID, FCMToken: token, DeviceID: token, Platform: "ios", IsActive: true}))
	}

	verificationID := uuid.New()
	notification := &entity.Notification{ID: uuid.New(), UserID: userID, Type: entity.NotificationSuccess, Title: "Verification successful", Message: "done", VerificationID: &verificationID}

	push.On("SendToTokens", mock.Anything, []string{"token-ok", "token-stale"}, service.PushMessage{
		Title: "Verification successful",
		Body:  "done",
		Data: map[string]string{
			"notification_id": notification.ID.String(),
			"type":            "success",
			"verification_id": verificationID.String(),
		},
	}).
		Return(&service.PushReport{Sent: 1, Failed: 1, InvalidTokens: []string{"token-stale"}}, nil).Once()

	notifier.Push(ctx, notification)

	active, err := store.DeviceRepo().FindActiveDevicesByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "token-ok", active[0].FCMToken)
}

func TestNotifier_PushFailureIsSwallowed(t *testing.T) {
	push := &mockPushService{}
	store, params := newNotificationFixture(t, push)
	notifier := NewNotifier(params)
	ctx := context.Background()
	userID := uuid.New()
	require.NoError(t, store.DeviceRepo().UpsertDevice(ctx, &entity.UserDevice{UserID: userID, FCMToken: "t", DeviceID: "d", Platform: "web", IsActive: true}))

	push.On("SendToTokens", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("fcm down")).Once()

	assert.NotPanics(t, func() {
		notifier.Push(ctx, &entity.Notification{UserID: userID, Type: entity.NotificationInfo, Title: "x", Message: "y"})
	})
}

func TestNotifier_WithoutPushService(t *testing.T) {
	_, params := newNotificationFixture(t, nil)

	assert.NotPanics(t, func() {
		NewNotifier(params).Push(context.Background(), &entity.Notification{UserID: uuid.New()})
	})
}
