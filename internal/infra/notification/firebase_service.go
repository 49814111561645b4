// Package notification delivers host alerts as Firebase Cloud Messaging pushes.
package notification

import (
	"context"
	"log/slog"

	"globalchek/config"
	"globalchek/internal/domain/service"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// maxMulticastTokens is the FCM limit per multicast request.
const maxMulticastTokens = 500

// multicastSender is the part of the messaging client used here.
type multicastSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

type firebaseService struct {
	client multicastSender
}

// NewOptionalFirebaseService builds the push service when Firebase is configured.
// Without configuration it returns nil and in-app notifications are stored only.
func NewOptionalFirebaseService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.NotificationService, error) {
	if cfg.Firebase == nil {
		logger.Warn("Firebase not configured, push notifications are disabled")

		return nil, nil
	}

	return NewFirebaseService(ctx, cfg.Firebase)
}

// NewFirebaseService creates a Firebase notification service from configuration.
func NewFirebaseService(ctx context.Context, cfg *config.FirebaseConfig) (service.NotificationService, error) {
	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}

	var appCfg *firebase.Config
	if cfg.ProjectID != "" {
		appCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, appCfg, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize Firebase app")
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get messaging client")
	}

	return &firebaseService{
		client: client,
	}, nil
}

// SendToTokens fans a notification out to every token, in chunks of
// maxMulticastTokens. A failed chunk aborts the fan-out; the report then
// covers the chunks already sent.
func (s *firebaseService) SendToTokens(ctx context.Context, tokens []string, msg service.PushMessage) (*service.PushReport, error) {
	report := &service.PushReport{InvalidTokens: make([]string, 0)}

	for start := 0; start < len(tokens); start += maxMulticastTokens {
		chunk := tokens[start:min(start+maxMulticastTokens, len(tokens))]

		response, err := s.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens: chunk,
			Notification: &messaging.Notification{
				Title: msg.Title,
				Body:  msg.Body,
			},
			Data: msg.Data,
		})
		if err != nil {
			return report, errors.Wrap(err, "failed to send multicast notification")
		}

		report.Sent += response.SuccessCount
		report.Failed += response.FailureCount
		for idx, sendResponse := range response.Responses {
			if isStaleToken(sendResponse.Error) {
				report.InvalidTokens = append(report.InvalidTokens, chunk[idx])
			}
		}
	}

	return report, nil
}

func isStaleToken(err error) bool {
	return err != nil && (messaging.IsInvalidArgument(err) || messaging.IsUnregistered(err))
}
