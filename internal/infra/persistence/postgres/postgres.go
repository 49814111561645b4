package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"globalchek/config"
	"globalchek/internal/domain/lifecycle"
	"globalchek/internal/infra/metrics"
	"globalchek/internal/infra/persistence/model"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	pgLib "github.com/slighter12/go-lib/database/postgres"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const (
	connectRetryInterval = 500 * time.Millisecond
	metricsDBName        = "globalchek"
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// New opens the PostgreSQL connection, waits for the server on start and
// migrates the schema when the database section asks for it.
func New(params Params) (*gorm.DB, error) {
	db, err := pgLib.New(params.Config.Postgres)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create PostgreSQL client")
	}
	db = db.Session(&gorm.Session{
		// Multi-step writes go through txManager.Execute.
		SkipDefaultTransaction: true,
		Logger:                 newGormSlogLogger(params.Logger, params.Config),
	})

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get PostgreSQL sql.DB")
	}

	if err := metrics.RegisterDBStats(sqlDB, metricsDBName); err != nil {
		return nil, errors.Wrap(err, "failed to register PostgreSQL pool metrics")
	}

	dbCfg := params.Config.Database
	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := pingWithRetry(ctx, params.Logger, sqlDB, dbCfg); err != nil {
				return err
			}

			if dbCfg != nil && dbCfg.AutoMigrate {
				if err := Migrate(db.WithContext(ctx)); err != nil {
					return err
				}
				params.Logger.Info("Database schema migrated")
			}

			return nil
		},
		OnStop: func(_ context.Context) error {
			return sqlDB.Close()
		},
	})

	return db, nil
}

// Migrate creates or updates the tables of every persisted model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.UserModel{},
		&model.RefreshTokenModel{},
		&model.PropertyModel{},
		&model.VerificationModel{},
		&model.UserDeviceModel{},
		&model.NotificationModel{},
	); err != nil {
		return errors.Wrap(err, "failed to migrate database schema")
	}

	return nil
}

func pingWithRetry(ctx context.Context, logger *slog.Logger, sqlDB *sql.DB, dbCfg *config.DatabaseConfig) error {
	retries := 0
	if dbCfg != nil {
		retries = max(dbCfg.ConnectRetries, 0)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewExponentialBackOff(backoff.WithInitialInterval(connectRetryInterval)),
			uint64(retries),
		),
		ctx,
	)

	err := backoff.RetryNotify(func() error {
		return sqlDB.PingContext(ctx)
	}, policy, func(err error, wait time.Duration) {
		logger.Warn("PostgreSQL not reachable yet",
			slog.Duration("wait", wait),
			slog.Any("error", err),
		)
	})
	if err != nil {
		return errors.Wrap(err, "failed to ping PostgreSQL")
	}

	return nil
}
