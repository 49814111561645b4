// Package response writes the JSON envelope shared by every API route.
package response

import (
	"net/http"

	domainerrors "globalchek/internal/domain/errors"

	"github.com/labstack/echo/v4"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Success bool                      `json:"success"`
	Message string                    `json:"message,omitempty"`
	Data    any                       `json:"data,omitempty"`
	Errors  []domainerrors.FieldError `json:"errors,omitempty"`
}

// Success writes a successful envelope.
func Success(c echo.Context, statusCode int, message string, data any) error {
	return c.JSON(statusCode, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// OK writes a 200 envelope carrying data only.
func OK(c echo.Context, data any) error {
	return Success(c, http.StatusOK, "", data)
}

// Created writes a 201 envelope.
func Created(c echo.Context, message string, data any) error {
	return Success(c, http.StatusCreated, message, data)
}

// Message writes a 200 envelope without data.
func Message(c echo.Context, message string) error {
	return Success(c, http.StatusOK, message, nil)
}

// Error writes a failed envelope. Field errors are dropped for 5xx, 401 and 403.
func Error(c echo.Context, statusCode int, message string, fields []domainerrors.FieldError) error {
	if statusCode >= http.StatusInternalServerError || statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
		fields = nil
	}
	if message == "" {
		message = http.StatusText(statusCode)
	}

	return c.JSON(statusCode, Envelope{
		Success: false,
		Message: message,
		Errors:  fields,
	})
}
