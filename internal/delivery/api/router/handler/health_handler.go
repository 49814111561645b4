package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// APIVersion is reported by the welcome and health routes.
const APIVersion = "2.0.0"

type healthResponse struct {
	Success       bool      `json:"success"`
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
	Version       string    `json:"version"`
	Documentation string    `json:"documentation,omitempty"`
}

// Welcome answers the root route.
func Welcome(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Success:       true,
		Message:       "Welcome to GlobalChek API",
		Timestamp:     time.Now().UTC(),
		Version:       APIVersion,
		Documentation: "/api/v1/docs",
	})
}

// HealthCheck reports that the API is up.
func HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Success:   true,
		Message:   "GlobalChek API is running",
		Timestamp: time.Now().UTC(),
		Version:   APIVersion,
	})
}
