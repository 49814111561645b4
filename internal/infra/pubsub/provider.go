// Package pubsub publishes verification events to the AI worker, either
// through Google Cloud Pub/Sub or, in development, by posting push requests
// straight to the worker.
package pubsub

import (
	"context"
	"log/slog"

	"globalchek/config"
	"globalchek/internal/domain/constants"
	"globalchek/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// disabledPublisher drops events. Submissions then stay PENDING until a host
// completes them by hand.
type disabledPublisher struct {
	logger *slog.Logger
}

func (p *disabledPublisher) PublishVerificationSubmitted(ctx context.Context, event *service.VerificationSubmittedEvent) error {
	p.logger.DebugContext(ctx, "Event publishing disabled, submission not queued for analysis",
		slog.String("verification_id", event.VerificationID),
	)

	return nil
}

func (p *disabledPublisher) Close() error {
	return nil
}

// PublisherParams holds dependencies for EventPublisher, injected by Fx
type PublisherParams struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewEventPublisher selects the publisher named by pubsub.provider.
func NewEventPublisher(params PublisherParams) (service.EventPublisher, error) {
	cfg := params.Config.PubSub
	logger := params.Logger.With(slog.String("component", "pubsub"))

	if cfg == nil || cfg.Provider == "" {
		logger.Warn("PubSub not configured, submissions will not be analysed")

		return &disabledPublisher{logger: logger}, nil
	}

	var (
		publisher service.EventPublisher
		err       error
	)
	switch cfg.Provider {
	case constants.PubSubProviderLocal:
		if cfg.LocalEndpoint == "" {
			return nil, errors.New("pubsub.localEndpoint is required for the local provider")
		}
		publisher = NewLocalHTTPPublisher(cfg.LocalEndpoint, logger)
	case constants.PubSubProviderGoogle:
		publisher, err = NewGooglePubSubPublisher(params.Ctx, cfg.ProjectID, cfg.TopicID, logger)
		if err != nil {
			return nil, err
		}
	default:
		return nil, errors.Errorf("unknown pubsub provider: %s", cfg.Provider)
	}

	logger.Info("Event publisher ready", slog.String("provider", cfg.Provider))

	params.Lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return publisher.Close()
		},
	})

	return publisher, nil
}
