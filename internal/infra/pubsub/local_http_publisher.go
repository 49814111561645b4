package pubsub

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"globalchek/internal/domain/service"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	localSubscription   = "projects/local/subscriptions/verification-submitted"
	localRequestTimeout = 30 * time.Second
	localMaxRetries     = 3
	localRetryInterval  = 200 * time.Millisecond
)

// pushRequest is the body Pub/Sub sends to push subscribers.
type pushRequest struct {
	Message struct {
		Data        string            `json:"data"`
		Attributes  map[string]string `json:"attributes,omitempty"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
		OrderingKey string            `json:"orderingKey,omitempty"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// localHTTPPublisher posts push requests straight to the worker, redelivering
// on 5xx answers the way a push subscription does.
type localHTTPPublisher struct {
	endpoint      string
	httpClient    *http.Client
	logger        *slog.Logger
	maxRetries    uint64
	retryInterval time.Duration
}

// NewLocalHTTPPublisher creates the development publisher.
func NewLocalHTTPPublisher(endpoint string, logger *slog.Logger) service.EventPublisher {
	return &localHTTPPublisher{
		endpoint:      endpoint,
		httpClient:    &http.Client{Timeout: localRequestTimeout},
		logger:        logger,
		maxRetries:    localMaxRetries,
		retryInterval: localRetryInterval,
	}
}

func (p *localHTTPPublisher) PublishVerificationSubmitted(ctx context.Context, event *service.VerificationSubmittedEvent) error {
	env, err := newSubmittedEnvelope(event)
	if err != nil {
		return err
	}

	var push pushRequest
	push.Subscription = localSubscription
	push.Message.Data = base64.StdEncoding.EncodeToString(env.data)
	push.Message.Attributes = env.attributes
	push.Message.MessageID = uuid.NewString()
	push.Message.PublishTime = time.Now().UTC().Format(time.RFC3339Nano)
	push.Message.OrderingKey = env.orderingKey

	body, err := json.Marshal(push)
	if err != nil {
		return errors.Wrap(err, "failed to encode push request")
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(backoff.WithInitialInterval(p.retryInterval)), p.maxRetries),
		ctx,
	)
	err = backoff.RetryNotify(func() error {
		return p.deliver(ctx, body, event.RequestID)
	}, policy, func(err error, wait time.Duration) {
		p.logger.WarnContext(ctx, "Worker push failed, redelivering",
			slog.String("verification_id", event.VerificationID),
			slog.Duration("wait", wait),
			slog.Any("error", err),
		)
	})
	if err != nil {
		return errors.Wrap(err, "failed to push verification submitted event")
	}

	p.logger.InfoContext(ctx, "Verification pushed to local worker",
		slog.String("verification_id", event.VerificationID),
		slog.String("message_id", push.Message.MessageID),
	)

	return nil
}

func (p *localHTTPPublisher) deliver(ctx context.Context, body []byte, requestID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(errors.WithStack(err))
	}
	req.Header.Set("Content-Type", "application/json")
	if requestID != "" {
		req.Header.Set("X-Request-Id", requestID)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return errors.Errorf("worker returned status %d", resp.StatusCode)
	default:
		return backoff.Permanent(errors.Errorf("worker rejected the message with status %d", resp.StatusCode))
	}
}

func (p *localHTTPPublisher) Close() error {
	p.httpClient.CloseIdleConnections()

	return nil
}
