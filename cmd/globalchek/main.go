package main

import (
	"context"
	"log/slog"
	"os"

	"globalchek/config"
	"globalchek/internal/delivery"
	"globalchek/internal/delivery/api"
	"globalchek/internal/delivery/api/middleware"
	"globalchek/internal/delivery/api/router/handler"
	"globalchek/internal/delivery/cleanup"
	"globalchek/internal/infra/ai"
	"globalchek/internal/infra/auth"
	logs "globalchek/internal/infra/log"
	"globalchek/internal/infra/notification"
	"globalchek/internal/infra/persistence/postgres"
	"globalchek/internal/infra/pubsub"
	"globalchek/internal/infra/qrcode"
	"globalchek/internal/infra/ratelimit"
	"globalchek/internal/infra/storage"
	"globalchek/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle
	fx.Shutdowner

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
		ratelimit.NewRedisClient,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewUserRepository,
			postgres.NewRefreshTokenRepository,
			postgres.NewPropertyRepository,
			postgres.NewVerificationRepository,
			postgres.NewDeviceRepository,
			postgres.NewNotificationRepository,
			postgres.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewJWTService,
			auth.NewTOTPService,
			qrcode.NewQRCodeService,
			ratelimit.NewAttemptLimiter,
			storage.NewArtifactStorage,
			ai.NewOpenAIGateway,
			pubsub.NewEventPublisher,
			notification.NewOptionalFirebaseService,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAuthService,
			impl.NewSessionService,
			impl.NewPropertyService,
			impl.NewVerificationService,
			impl.NewGuestService,
			impl.NewNotifier,
			impl.NewNotificationService,
			impl.NewDeviceService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
			middleware.NewErrorMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
			handler.NewSessionHandler,
			handler.NewPropertyHandler,
			handler.NewVerificationHandler,
			handler.NewGuestHandler,
			handler.NewNotificationHandler,
			handler.NewDeviceHandler,
			handler.NewUploadHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				api.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
			fx.Annotate(
				cleanup.NewSessionCleanup,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))

				// Trigger graceful shutdown to execute all OnStop hooks
				if shutdownErr := params.Shutdown(); shutdownErr != nil {
					slog.Error("Failed to shutdown gracefully", slog.Any("error", shutdownErr))
					os.Exit(1)
				}
			}
		}()
	}
}
