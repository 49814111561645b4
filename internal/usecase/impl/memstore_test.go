package impl

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"globalchek/internal/domain/entity"
	"globalchek/internal/domain/repository"

	"github.com/google/uuid"
)

// memStore is an in-memory database behind every repository interface. Reads return
// copies, so an entity mutated without a write never reaches the store.
type memStore struct {
	mu            sync.Mutex
	users         map[uuid.UUID]entity.User
	refreshTokens map[uuid.UUID]entity.RefreshToken
	properties    map[uuid.UUID]entity.Property
	verifications map[uuid.UUID]entity.Verification
	notifications map[uuid.UUID]entity.Notification
	devices       map[uuid.UUID]entity.UserDevice
	clock         time.Time
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[uuid.UUID]entity.User{},
		refreshTokens: map[uuid.UUID]entity.RefreshToken{},
		properties:    map[uuid.UUID]entity.Property{},
		verifications: map[uuid.UUID]entity.Verification{},
		notifications: map[uuid.UUID]entity.Notification{},
		devices:       map[uuid.UUID]entity.UserDevice{},
		clock:         time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

// tick returns strictly increasing timestamps so newest-first ordering is stable.
func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)

	return s.clock
}

// Execute runs fn against the same store and restores the previous state on error.
func (s *memStore) Execute(ctx context.Context, fn func(txRepoFactory repository.RepositoryFactory) error) error {
	s.mu.Lock()
	snapshot := s.snapshot()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.restore(snapshot)
		s.mu.Unlock()

		return err
	}

	return nil
}

type memSnapshot struct {
	users         map[uuid.UUID]entity.User
	refreshTokens map[uuid.UUID]entity.RefreshToken
	properties    map[uuid.UUID]entity.Property
	verifications map[uuid.UUID]entity.Verification
	notifications map[uuid.UUID]entity.Notification
	devices       map[uuid.UUID]entity.UserDevice
}

func (s *memStore) snapshot() memSnapshot {
	return memSnapshot{
		users:         maps.Clone(s.users),
		refreshTokens: maps.Clone(s.refreshTokens),
		properties:    maps.Clone(s.properties),
		verifications: maps.Clone(s.verifications),
		notifications: maps.Clone(s.notifications),
		devices:       maps.Clone(s.devices),
	}
}

func (s *memStore) restore(snapshot memSnapshot) {
	s.users = snapshot.users
	s.refreshTokens = snapshot.refreshTokens
	s.properties = snapshot.properties
	s.verifications = snapshot.verifications
	s.notifications = snapshot.notifications
	s.devices = snapshot.devices
}

func (s *memStore) UserRepo() repository.UserRepository                 { return memUsers{s} }
func (s *memStore) RefreshTokenRepo() repository.RefreshTokenRepository { return memRefreshTokens{s} }
func (s *memStore) PropertyRepo() repository.PropertyRepository         { return memProperties{s} }
func (s *memStore) VerificationRepo() repository.VerificationRepository { return memVerifications{s} }
func (s *memStore) NotificationRepo() repository.NotificationRepository { return memNotifications{s} }
func (s *memStore) DeviceRepo() repository.DeviceRepository             { return memDevices{s} }

// storedVerification reads a row directly, for assertions.
func (s *memStore) storedVerification(id uuid.UUID) entity.Verification {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.verifications[id]
}

func (s *memStore) notificationsOf(userID uuid.UUID) []entity.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []entity.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	slices.SortFunc(out, func(a, b entity.Notification) int { return a.CreatedAt.Compare(b.CreatedAt) })

	return out
}

type memUsers struct{ s *memStore }

func (r memUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	return &user, nil
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, user := range r.s.users {
		if user.Email == email {
			return &user, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r memUsers) Create(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Email == user.Email {
			return repository.ErrUserAlreadyExists
		}
	}
	user.ID = uuid.New()
	user.CreatedAt = r.s.tick()
	user.UpdatedAt = user.CreatedAt
	r.s.users[user.ID] = *user

	return nil
}

func (r memUsers) Update(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	user.UpdatedAt = r.s.tick()
	r.s.users[user.ID] = *user

	return nil
}

type memRefreshTokens struct{ s *memStore }

func (r memRefreshTokens) CreateRefreshToken(_ context.Context, token *entity.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	token.ID = uuid.New()
	r.s.refreshTokens[token.ID] = *token

	return nil
}

func (r memRefreshTokens) FindRefreshTokenByHash(_ context.Context, tokenHash string) (*entity.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, token := range r.s.refreshTokens {
		if token.TokenHash == tokenHash {
			return &token, nil
		}
	}

	return nil, repository.ErrRefreshTokenNotFound
}

func (r memRefreshTokens) FindRefreshTokensByUserID(_ context.Context, userID uuid.UUID) ([]*entity.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	var out []*entity.RefreshToken
	for _, token := range r.s.refreshTokens {
		if token.UserID == userID && !token.IsExpired(now) {
			out = append(out, &token)
		}
	}

	return out, nil
}

func (r memRefreshTokens) DeleteRefreshTokenByHash(_ context.Context, tokenHash string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var deleted int64
	for id, token := range r.s.refreshTokens {
		if token.TokenHash == tokenHash {
			delete(r.s.refreshTokens, id)
			deleted++
		}
	}

	return deleted, nil
}

func (r memRefreshTokens) DeleteRefreshTokenByID(_ context.Context, userID, id uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	token, ok := r.s.refreshTokens[id]
	if !ok || token.UserID != userID {
		return 0, nil
	}
	delete(r.s.refreshTokens, id)

	return 1, nil
}

func (r memRefreshTokens) DeleteRefreshTokensByUserID(_ context.Context, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	maps.DeleteFunc(r.s.refreshTokens, func(_ uuid.UUID, token entity.RefreshToken) bool {
		return token.UserID == userID
	})

	return nil
}

func (r memRefreshTokens) DeleteExpiredRefreshTokens(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	before := len(r.s.refreshTokens)
	maps.DeleteFunc(r.s.refreshTokens, func(_ uuid.UUID, token entity.RefreshToken) bool {
		return token.IsExpired(now)
	})

	return int64(before - len(r.s.refreshTokens)), nil
}

type memProperties struct{ s *memStore }

func (r memProperties) Create(_ context.Context, property *entity.Property) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	property.ID = uuid.New()
	property.CreatedAt = r.s.tick()
	property.UpdatedAt = property.CreatedAt
	r.s.properties[property.ID] = *property

	return nil
}

func (r memProperties) FindByID(_ context.Context, id uuid.UUID) (*entity.Property, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	property, ok := r.s.properties[id]
	if !ok {
		return nil, repository.ErrPropertyNotFound
	}

	return &property, nil
}

func (r memProperties) FindByUser(_ context.Context, userID uuid.UUID) ([]*entity.Property, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*entity.Property
	for _, property := range r.s.properties {
		if property.UserID == userID {
			out = append(out, &property)
		}
	}
	slices.SortFunc(out, func(a, b *entity.Property) int { return b.CreatedAt.Compare(a.CreatedAt) })

	return out, nil
}

func (r memProperties) Update(_ context.Context, property *entity.Property) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.properties[property.ID]; !ok {
		return repository.ErrPropertyNotFound
	}
	property.UpdatedAt = r.s.tick()
	r.s.properties[property.ID] = *property

	return nil
}

func (r memProperties) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.properties[id]; !ok {
		return repository.ErrPropertyNotFound
	}
	delete(r.s.properties, id)
	maps.DeleteFunc(r.s.verifications, func(_ uuid.UUID, v entity.Verification) bool {
		return v.PropertyID == id
	})

	return nil
}

type memVerifications struct{ s *memStore }

func (r memVerifications) withProperty(v entity.Verification) *entity.Verification {
	if property, ok := r.s.properties[v.PropertyID]; ok {
		v.Property = &entity.PropertySummary{ID: property.ID, Name: property.Name, City: property.City, Country: property.Country}
	}

	return &v
}

func (r memVerifications) Create(_ context.Context, verification *entity.Verification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.properties[verification.PropertyID]; !ok {
		return repository.ErrPropertyNotFound
	}
	verification.ID = uuid.New()
	verification.Version = 1
	verification.CreatedAt = r.s.tick()
	verification.UpdatedAt = verification.CreatedAt
	stored := *verification
	stored.Property = nil
	r.s.verifications[verification.ID] = stored

	return nil
}

func (r memVerifications) FindByID(_ context.Context, id uuid.UUID) (*entity.Verification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	v, ok := r.s.verifications[id]
	if !ok {
		return nil, repository.ErrVerificationNotFound
	}

	return r.withProperty(v), nil
}

func (r memVerifications) FindByUser(_ context.Context, userID uuid.UUID, filter entity.VerificationFilter) ([]*entity.Verification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*entity.Verification
	for _, v := range r.s.verifications {
		if v.UserID != userID {
			continue
		}
		if filter.PropertyID != nil && v.PropertyID != *filter.PropertyID {
			continue
		}
		if filter.Status != nil && v.Status != *filter.Status {
			continue
		}
		out = append(out, r.withProperty(v))
	}
	slices.SortFunc(out, func(a, b *entity.Verification) int { return b.CreatedAt.Compare(a.CreatedAt) })

	return out, nil
}

func (r memVerifications) FindRecentByProperty(_ context.Context, propertyID uuid.UUID, limit int) ([]*entity.Verification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*entity.Verification
	for _, v := range r.s.verifications {
		if v.PropertyID == propertyID {
			out = append(out, r.withProperty(v))
		}
	}
	slices.SortFunc(out, func(a, b *entity.Verification) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (r memVerifications) CountByProperty(_ context.Context, propertyIDs ...uuid.UUID) (map[uuid.UUID]entity.VerificationCounts, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	counts := make(map[uuid.UUID]entity.VerificationCounts, len(propertyIDs))
	for _, v := range r.s.verifications {
		if !slices.Contains(propertyIDs, v.PropertyID) {
			continue
		}
		if counts[v.PropertyID] == nil {
			counts[v.PropertyID] = entity.VerificationCounts{}
		}
		counts[v.PropertyID][v.Status]++
	}

	return counts, nil
}

func (r memVerifications) Update(_ context.Context, verification *entity.Verification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.verifications[verification.ID]
	if !ok {
		return repository.ErrVerificationNotFound
	}
	if stored.Version != verification.Version {
		return repository.ErrStaleVerification
	}
	verification.Version++
	verification.UpdatedAt = r.s.tick()
	next := *verification
	next.Property = nil
	r.s.verifications[verification.ID] = next

	return nil
}

type memNotifications struct{ s *memStore }

func (r memNotifications) CreateNotification(_ context.Context, notification *entity.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	notification.ID = uuid.New()
	notification.CreatedAt = r.s.tick()
	r.s.notifications[notification.ID] = *notification

	return nil
}

func (r memNotifications) FindNotificationByID(_ context.Context, id uuid.UUID) (*entity.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	notification, ok := r.s.notifications[id]
	if !ok {
		return nil, repository.ErrNotificationNotFound
	}

	return &notification, nil
}

func (r memNotifications) FindNotificationsByUser(_ context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*entity.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*entity.Notification
	for _, notification := range r.s.notifications {
		if notification.UserID == userID && (!unreadOnly || !notification.IsRead) {
			out = append(out, &notification)
		}
	}
	slices.SortFunc(out, func(a, b *entity.Notification) int { return b.CreatedAt.Compare(a.CreatedAt) })

	if offset >= len(out) {
		return []*entity.Notification{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (r memNotifications) CountUnread(_ context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var count int64
	for _, notification := range r.s.notifications {
		if notification.UserID == userID && !notification.IsRead {
			count++
		}
	}

	return count, nil
}

func (r memNotifications) MarkRead(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	notification, ok := r.s.notifications[id]
	if !ok {
		return repository.ErrNotificationNotFound
	}
	if !notification.IsRead {
		now := r.s.tick()
		notification.IsRead = true
		notification.ReadAt = &now
		r.s.notifications[id] = notification
	}

	return nil
}

func (r memNotifications) MarkAllRead(_ context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var changed int64
	for id, notification := range r.s.notifications {
		if notification.UserID == userID && !notification.IsRead {
			now := r.s.tick()
			notification.IsRead = true
			notification.ReadAt = &now
			r.s.notifications[id] = notification
			changed++
		}
	}

	return changed, nil
}

type memDevices struct{ s *memStore }

func (r memDevices) UpsertDevice(_ context.Context, device *entity.UserDevice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.tick()
	for id, existing := range r.s.devices {
		if existing.FCMToken == device.FCMToken && (existing.UserID != device.UserID || existing.DeviceID != device.DeviceID) {
			existing.IsActive = false
			r.s.devices[id] = existing
		}
	}

	for id, existing := range r.s.devices {
		if existing.UserID == device.UserID && existing.DeviceID == device.DeviceID {
			existing.FCMToken = device.FCMToken
			existing.Platform = device.Platform
			existing.IsActive = true
			existing.UpdatedAt = now
			r.s.devices[id] = existing
			*device = existing

			return nil
		}
	}

	device.ID = uuid.New()
	device.IsActive = true
	device.CreatedAt = now
	device.UpdatedAt = now
	r.s.devices[device.ID] = *device

	return nil
}

func (r memDevices) FindDeviceByID(_ context.Context, id uuid.UUID) (*entity.UserDevice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	device, ok := r.s.devices[id]
	if !ok {
		return nil, repository.ErrDeviceNotFound
	}

	return &device, nil
}

func (r memDevices) FindActiveDevicesByUser(_ context.Context, userID uuid.UUID) ([]*entity.UserDevice, error) {
	return r.filter(func(d entity.UserDevice) bool { return d.UserID == userID && d.IsActive }), nil
}

func (r memDevices) filter(keep func(entity.UserDevice) bool) []*entity.UserDevice {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*entity.UserDevice
	for _, device := range r.s.devices {
		if keep(device) {
			out = append(out, &device)
		}
	}
	slices.SortFunc(out, func(a, b *entity.UserDevice) int { return a.CreatedAt.Compare(b.CreatedAt) })

	return out
}

func (r memDevices) UpdateFCMToken(_ context.Context, deviceID uuid.UUID, fcmToken string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	device, ok := r.s.devices[deviceID]
	if !ok {
		return repository.ErrDeviceNotFound
	}
	device.FCMToken = fcmToken
	device.IsActive = true
	r.s.devices[deviceID] = device

	return nil
}

func (r memDevices) DeactivateByFCMToken(_ context.Context, fcmTokens []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, device := range r.s.devices {
		if slices.Contains(fcmTokens, device.FCMToken) {
			device.IsActive = false
			r.s.devices[id] = device
		}
	}

	return nil
}

func (r memDevices) DeactivateDevice(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	device, ok := r.s.devices[id]
	if !ok {
		return repository.ErrDeviceNotFound
	}
	device.IsActive = false
	r.s.devices[id] = device

	return nil
}
