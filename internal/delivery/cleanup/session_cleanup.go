// Package cleanup runs the periodic purge of expired refresh tokens.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"globalchek/config"
	"globalchek/internal/delivery"
	"globalchek/internal/usecase"
	"globalchek/internal/util"

	"go.uber.org/fx"
)

const defaultInterval = time.Hour

type sessionCleanup struct {
	interval  time.Duration
	sessionUC usecase.SessionUsecase
	logger    *slog.Logger
	done      chan struct{}
}

// Params holds dependencies for the session cleanup job, injected by Fx.
type Params struct {
	fx.In

	Lc        fx.Lifecycle
	Cfg       *config.Config
	Logger    *slog.Logger
	SessionUC usecase.SessionUsecase
}

// NewSessionCleanup returns a delivery that purges expired sessions on a ticker.
// A negative interval disables the job.
func NewSessionCleanup(params Params) delivery.Delivery {
	interval := defaultInterval
	if params.Cfg.Auth != nil && params.Cfg.Auth.SessionCleanup != 0 {
		interval = params.Cfg.Auth.SessionCleanup
	}

	job := &sessionCleanup{
		interval:  interval,
		sessionUC: params.SessionUC,
		logger:    params.Logger,
		done:      make(chan struct{}),
	}

	params.Lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			close(job.done)

			return nil
		},
	})

	return job
}

// Serve blocks until the application stops.
func (j *sessionCleanup) Serve(ctx context.Context) error {
	if j.interval < 0 {
		j.logger.Info("Session cleanup disabled")

		return nil
	}

	j.logger.Info("Starting session cleanup", slog.String("interval", util.FormatDuration(j.interval)))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-j.done:
			return nil
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *sessionCleanup) runOnce(ctx context.Context) {
	deleted, err := j.sessionUC.CleanupExpiredSessions(ctx)
	if err != nil {
		j.logger.Error("Failed to clean up expired sessions", slog.Any("error", err))

		return
	}
	if deleted > 0 {
		j.logger.Info("Expired sessions removed", slog.Int64("count", deleted))
	}
}
