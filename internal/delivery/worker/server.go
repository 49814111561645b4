// Package worker serves the push endpoint the AI worker receives
// verification events on.
package worker

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"globalchek/config"
	"globalchek/internal/delivery"
	"globalchek/internal/delivery/middleware"
	"globalchek/internal/delivery/worker/handler"
	"globalchek/internal/domain/lifecycle"
	"globalchek/internal/infra/metrics"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// pushBodyLimit bounds a push request. Events only carry identifiers.
const pushBodyLimit = "256K"

type workerServer struct {
	port   int
	logger *slog.Logger
	server *echo.Echo
}

// ServerParams holds dependencies for the worker server
type ServerParams struct {
	fx.In

	Lc          fx.Lifecycle
	Cfg         *config.Config
	Logger      *slog.Logger
	DB          *gorm.DB
	PushHandler *handler.PushHandler
}

// NewServer creates the AI worker HTTP server.
func NewServer(params ServerParams) (delivery.Delivery, error) {
	srv := &workerServer{
		port:   params.Cfg.HTTP.Port,
		logger: params.Logger,
		server: newWorkerEcho(params.Cfg, params.Logger, params.PushHandler, pingDB(params.DB)),
	}

	params.Lc.Append(fx.Hook{
		OnStop: srv.stop,
	})

	return srv, nil
}

// newWorkerEcho wires the routes. ready reports whether processing can
// succeed, so Pub/Sub stops pushing to an instance that lost its database.
func newWorkerEcho(cfg *config.Config, logger *slog.Logger, push *handler.PushHandler, ready func(context.Context) error) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadHeaderTimeout = cfg.HTTP.Timeouts.ReadHeaderTimeout
	e.Server.IdleTimeout = cfg.HTTP.Timeouts.IdleTimeout

	e.Use(echomiddleware.Recover())
	e.Use(middleware.NewRequestIDMiddleware(logger).Process())
	e.Use(middleware.NewLoggerMiddleware(logger, cfg).Handle())
	e.Use(middleware.Metrics)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if err := ready(c.Request().Context()); err != nil {
			logger.Warn("Worker not ready", slog.Any("error", err))

			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}

		return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	// Processing an event can take as long as the AI calls do, so the push
	// route gets no write timeout of its own.
	e.POST("/push", push.HandlePush, echomiddleware.BodyLimit(pushBodyLimit))

	return e
}

func pingDB(db *gorm.DB) func(context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return errors.WithStack(err)
		}

		ctx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
		defer cancel()

		return errors.WithStack(sqlDB.PingContext(ctx))
	}
}

// Serve starts the worker HTTP server
func (s *workerServer) Serve(context.Context) error {
	hostPort := net.JoinHostPort("0.0.0.0", strconv.Itoa(s.port))
	s.logger.Info("Starting worker HTTP server", slog.String("hostPort", hostPort))
	if err := s.server.Start(hostPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.WithStack(err)
	}

	return nil
}

func (s *workerServer) stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	s.logger.Info("Shutting down worker HTTP server")

	return errors.WithStack(s.server.Shutdown(shutdownCtx))
}
