package middleware

import (
	"time"

	"globalchek/internal/infra/metrics"

	"github.com/labstack/echo/v4"
)

// unmatchedRoute groups every request that hit no route, so scanners cannot
// blow up the label cardinality.
const unmatchedRoute = "unmatched"

// Metrics records the Prometheus HTTP request counters. Errors are rendered
// here first so the recorded status is the one the client receives.
func Metrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		route := c.Path()
		if route == "" {
			route = unmatchedRoute
		}
		metrics.RecordHTTPRequest(c.Request().Method, route, c.Response().Status, time.Since(start))

		return err
	}
}
