package middleware

import (
	"encoding/json"
	"net/http"

	"globalchek/config"
	"globalchek/internal/delivery/api/response"
	domainerrors "globalchek/internal/domain/errors"

	"github.com/go-chi/httprate"
	"github.com/labstack/echo/v4"
)

// RateLimit caps the number of requests per client IP. A missing or zero budget
// disables the limit.
func RateLimit(cfg *config.RateLimitConfig) echo.MiddlewareFunc {
	if cfg == nil || cfg.Requests <= 0 || cfg.Window <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	limiter := httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(writeTooManyRequests),
	)

	return echo.WrapMiddleware(limiter)
}

func writeTooManyRequests(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(response.Envelope{
		Success: false,
		Message: domainerrors.ErrTooManyRequests.Message(),
	})
}
