package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"globalchek/config"
	domainerrors "globalchek/internal/domain/errors"
	"globalchek/internal/domain/service"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const (
	keyPrefix          = "attempts:"
	defaultMaxAttempts = 5
	defaultWindow      = 15 * time.Minute
)

// reserveScript counts the attempt and starts the window on the first one.
// A key that lost its TTL gets a fresh window so it cannot block forever.
var reserveScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
local ttl = redis.call("PTTL", KEYS[1])
if count == 1 or ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

type redisAttemptLimiter struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
	logger      *slog.Logger
}

// LimiterParams holds dependencies for the attempt limiter, injected by Fx
type LimiterParams struct {
	fx.In

	Client *redis.Client `optional:"true"`
	Config *config.Config
	Logger *slog.Logger
}

// NewAttemptLimiter returns a Redis fixed-window limiter, or a no-op one without Redis.
func NewAttemptLimiter(params LimiterParams) service.AttemptLimiter {
	if params.Client == nil {
		return noopLimiter{}
	}

	maxAttempts, window := defaultMaxAttempts, defaultWindow
	if auth := params.Config.Auth; auth != nil {
		if auth.LoginMaxAttempts > 0 {
			maxAttempts = auth.LoginMaxAttempts
		}
		if auth.LoginWindow > 0 {
			window = auth.LoginWindow
		}
	}

	return newRedisAttemptLimiter(params.Client, maxAttempts, window, params.Logger)
}

func newRedisAttemptLimiter(client *redis.Client, maxAttempts int, window time.Duration, logger *slog.Logger) *redisAttemptLimiter {
	return &redisAttemptLimiter{
		client:      client,
		maxAttempts: maxAttempts,
		window:      window,
		logger:      logger,
	}
}

// Reserve takes one attempt from the subject's budget in a single round trip,
// so concurrent guesses cannot all pass before any of them is counted.
// Redis errors are logged and let the attempt through.
func (l *redisAttemptLimiter) Reserve(ctx context.Context, subject string) (int, error) {
	res, err := reserveScript.Run(ctx, l.client, []string{keyPrefix + subject}, l.window.Milliseconds()).Int64Slice()
	if err != nil || len(res) != 2 {
		l.logger.WarnContext(ctx, "Attempt limiter unavailable", slog.Any("error", err))

		return l.maxAttempts, nil
	}

	count := int(res[0])
	if count > l.maxAttempts {
		retryAfter := time.Duration(res[1]) * time.Millisecond

		return 0, errors.Wrapf(domainerrors.ErrTooManyAttempts, "retry after %s", retryAfter.Round(time.Second))
	}

	return l.maxAttempts - count, nil
}

// Reset clears the subject after a successful attempt.
func (l *redisAttemptLimiter) Reset(ctx context.Context, subject string) error {
	if err := l.client.Del(ctx, keyPrefix+subject).Err(); err != nil {
		l.logger.WarnContext(ctx, "Attempt limiter reset failed", slog.Any("error", err))
	}

	return nil
}

type noopLimiter struct{}

func (noopLimiter) Reserve(context.Context, string) (int, error) { return 1, nil }

func (noopLimiter) Reset(context.Context, string) error { return nil }
