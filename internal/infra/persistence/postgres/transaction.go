package postgres

import (
	"context"

	"globalchek/internal/domain/repository"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type gormTransactionManager struct {
	db *gorm.DB
}

// txRepositories hands out repositories bound to one open transaction.
type txRepositories struct {
	tx *gorm.DB
}

func (f *txRepositories) UserRepo() repository.UserRepository {
	return NewUserRepository(f.tx)
}

func (f *txRepositories) RefreshTokenRepo() repository.RefreshTokenRepository {
	return NewRefreshTokenRepository(f.tx)
}

func (f *txRepositories) PropertyRepo() repository.PropertyRepository {
	return NewPropertyRepository(f.tx)
}

func (f *txRepositories) VerificationRepo() repository.VerificationRepository {
	return NewVerificationRepository(f.tx)
}

func (f *txRepositories) NotificationRepo() repository.NotificationRepository {
	return NewNotificationRepository(f.tx)
}

func (f *txRepositories) DeviceRepo() repository.DeviceRepository {
	return NewDeviceRepository(f.tx)
}

// NewTransactionManager is the constructor for gormTransactionManager.
func NewTransactionManager(db *gorm.DB) repository.TransactionManager {
	return &gormTransactionManager{db: db}
}

// Execute commits when fn returns nil and rolls back on an error or a panic.
// The error of fn is returned as is so callers can match domain errors.
func (tm *gormTransactionManager) Execute(ctx context.Context, fn func(repoFactory repository.RepositoryFactory) error) error {
	var fnErr error

	err := tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(&txRepositories{tx: tx})

		return fnErr
	})
	switch {
	case err == nil:
		return nil
	case fnErr != nil:
		if !errors.Is(err, fnErr) {
			// The rollback itself failed; the work is lost either way.
			return errors.Wrapf(fnErr, "rollback failed: %v", err)
		}

		return fnErr
	default:
		return errors.Wrap(err, "transaction failed")
	}
}
