package postgres

import (
	"context"
	"testing"
	"time"

	"globalchek/internal/domain/entity"
	domainerrors "globalchek/internal/domain/errors"
	"globalchek/internal/domain/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)

	return db, mock
}

func TestUserRepository_FindByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	userID := uuid.New()

	t.Run("lowercases email and maps row", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "subscription_plan", "two_factor_enabled"}).
			AddRow(userID.String(), "host@example.com", "hash", "HOST", "FREE", true)
		mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).
			WithArgs("host@example.com", sqlmock.AnyArg()).
			WillReturnRows(rows)

		user, err := repo.FindByEmail(context.Background(), "  Host@Example.COM ")
		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
		assert.Equal(t, entity.RoleHost, user.Role)
		assert.True(t, user.TwoFactorEnabled)
	})

	t.Run("missing user maps to sentinel", func(t *testing.T) {
		mock.ExpectQuery(`SELECT \* FROM "users"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		user, err := repo.FindByEmail(context.Background(), "nobody@example.com")
		assert.Nil(t, user)
		assert.ErrorIs(t, err, repository.ErrUserNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	t.Run("copies generated id back", func(t *testing.T) {
		id := uuid.New()
		mock.ExpectQuery(`INSERT INTO "users"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))

		user := &entity.User{Email: "Host@Example.com", PasswordHash: "hash", Role: entity.RoleHost, SubscriptionPlan: entity.PlanFree}
		require.NoError(t, repo.Create(context.Background(), user))
		assert.Equal(t, id, user.ID)
	})

	t.Run("unique violation maps to already exists", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO "users"`).
			WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

		err := repo.Create(context.Background(), &entity.User{Email: "dup@example.com", PasswordHash: "hash"})
		assert.ErrorIs(t, err, repository.ErrUserAlreadyExists)
	})

	t.Run("other failures are database errors", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO "users"`).
			WillReturnError(assert.AnError)

		err := repo.Create(context.Background(), &entity.User{Email: "x@example.com", PasswordHash: "hash"})
		_, ok := err.(*domainerrors.DatabaseExecuteError)
		assert.True(t, ok)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_DeleteByHash(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRefreshTokenRepository(db)

	mock.ExpectExec(`DELETE FROM "refresh_tokens" WHERE token_hash = \$1`).
		WithArgs("abc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "refresh_tokens" WHERE token_hash = \$1`).
		WithArgs("abc").
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := repo.DeleteRefreshTokenByHash(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// A second rotation with the same token finds nothing to delete.
	n, err = repo.DeleteRefreshTokenByHash(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_DeleteExpired(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRefreshTokenRepository(db)
	now := time.Now()

	mock.ExpectExec(`DELETE FROM "refresh_tokens" WHERE expires_at <= \$1`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteExpiredRefreshTokens(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepository_Update(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewVerificationRepository(db)

	base := func() *entity.Verification {
		return &entity.Verification{
			ID:             uuid.New(),
			UserID:         uuid.New(),
			PropertyID:     uuid.New(),
			GuestFirstName: "Ana",
			GuestLastName:  "Diaz",
			GuestEmail:     "ana@example.com",
			DocumentType:   entity.DocumentPassport,
			Status:         entity.StatusInProgress,
			WizardStep:     "DOCUMENTS",
			Version:        3,
		}
	}

	t.Run("bumps version on success", func(t *testing.T) {
		v := base()
		mock.ExpectExec(`UPDATE "verifications" SET .*version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Update(context.Background(), v))
		assert.Equal(t, 4, v.Version)
	})

	t.Run("lost race is stale", func(t *testing.T) {
		v := base()
		mock.ExpectExec(`UPDATE "verifications"`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(context.Background(), v)
		assert.ErrorIs(t, err, repository.ErrStaleVerification)
		assert.Equal(t, 3, v.Version)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepository_FindByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewVerificationRepository(db)
	id, propertyID := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "verifications" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "property_id", "status", "ocr_data", "version"}).
			AddRow(id.String(), propertyID.String(), "PROCESSING", []byte(`{"firstName":"Ana","confidence":91}`), 2))
	mock.ExpectQuery(`SELECT \* FROM "properties" WHERE "properties"."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "city", "country"}).
			AddRow(propertyID.String(), "Riad", "Fes", "Morocco"))

	v, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusProcessing, v.Status)
	require.NotNil(t, v.Property)
	assert.Equal(t, "Riad", v.Property.Name)
	require.NotNil(t, v.OCRData)
	assert.Equal(t, "Ana", *v.OCRData.FirstName)
	assert.Equal(t, 91, v.OCRData.Confidence)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepository_CountByProperty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewVerificationRepository(db)
	a, b := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT property_id, status, COUNT\(\*\) AS count FROM "verifications" WHERE property_id IN \(\$1,\$2\) GROUP BY property_id, status`).
		WillReturnRows(sqlmock.NewRows([]string{"property_id", "status", "count"}).
			AddRow(a.String(), "COMPLETED", 3).
			AddRow(a.String(), "REJECTED", 1))

	counts, err := repo.CountByProperty(context.Background(), a, b)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts[a][entity.StatusCompleted])
	assert.Equal(t, int64(4), counts[a].Total())
	assert.Equal(t, int64(0), counts[b].Total())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPropertyRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPropertyRepository(db)

	mock.ExpectExec(`DELETE FROM "properties" WHERE id = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrPropertyNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_MarkAllRead(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)
	userID := uuid.New()

	mock.ExpectExec(`UPDATE "notifications" SET .* WHERE user_id = \$\d+ AND is_read = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 5))

	n, err := repo.MarkAllRead(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepository_DeactivateByFCMToken(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeviceRepository(db)

	require.NoError(t, repo.DeactivateByFCMToken(context.Background(), nil))

	mock.ExpectExec(`UPDATE "user_devices" SET "is_active"=\$1,"updated_at"=\$2 WHERE fcm_token IN \(\$3,\$4\)`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.DeactivateByFCMToken(context.Background(), []string{"t1", "t2"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepository_UpsertDevice(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeviceRepository(db)
	userID, deviceRowID := uuid.New(), uuid.New()
	created := time.Now().Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "user_devices" SET .* WHERE fcm_token = \$\d+ AND NOT \(user_id = \$\d+ AND device_id = \$\d+\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO "user_devices" .* ON CONFLICT \("user_id","device_id"\) DO UPDATE SET .* RETURNING \*`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "device_id", "fcm_token", "platform", "is_active", "created_at", "updated_at"}).
			AddRow(deviceRowID.String(), userID.String(), "phone-1", "token-2", "ios", true, created, time.Now()))
	mock.ExpectCommit()

	device := &entity.UserDevice{UserID: userID, DeviceID: "phone-1", FCMToken: "token-2", Platform: "ios"}
	require.NoError(t, repo.UpsertDevice(context.Background(), device))

	assert.Equal(t, deviceRowID, device.ID)
	assert.True(t, device.IsActive)
	assert.WithinDuration(t, created, device.CreatedAt, time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepository_DeactivateDevice_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeviceRepository(db)

	mock.ExpectExec(`UPDATE "user_devices" SET "is_active"=\$1,"updated_at"=\$2 WHERE id = \$3`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeactivateDevice(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrDeviceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_Execute(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		db, mock := newMockDB(t)
		tm := NewTransactionManager(db)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "user_devices" SET "is_active"=\$1,"updated_at"=\$2 WHERE id = \$3`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := tm.Execute(context.Background(), func(repos repository.RepositoryFactory) error {
			return repos.DeviceRepo().DeactivateDevice(context.Background(), uuid.New())
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back and keeps the callback error", func(t *testing.T) {
		db, mock := newMockDB(t)
		tm := NewTransactionManager(db)

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := tm.Execute(context.Background(), func(repository.RepositoryFactory) error {
			return domainerrors.ErrVerificationClosed
		})
		assert.ErrorIs(t, err, domainerrors.ErrVerificationClosed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
