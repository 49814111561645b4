// Package handler holds the echo handlers of the GlobalChek API.
package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	deliverycontext "globalchek/internal/delivery/context"
	domainerrors "globalchek/internal/domain/errors"
	"globalchek/internal/infra/media"
	"globalchek/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// currentUser returns the host authenticated by the auth middleware.
func currentUser(c echo.Context) (uuid.UUID, error) {
	userID, ok := deliverycontext.GetUserID(c)
	if !ok {
		return uuid.Nil, domainerrors.ErrUnauthorized
	}

	return userID, nil
}

// pathID parses a uuid path parameter. A malformed id cannot name anything, so it
// fails with notFound.
func pathID(c echo.Context, name string, notFound *domainerrors.BaseError) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, notFound
	}

	return id, nil
}

// bindAndValidate decodes the request body into req and runs the struct validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domainerrors.ErrValidationFailed.WithMessage("Invalid request body")
	}

	return c.Validate(req)
}

func fieldError(path, message string) error {
	return domainerrors.NewValidationError(domainerrors.FieldError{Path: path, Message: message})
}

func toUpload(artifact *media.Artifact) *usecase.Upload {
	if artifact == nil {
		return nil
	}

	return &usecase.Upload{
		Data:        artifact.Data,
		ContentType: artifact.ContentType,
		Extension:   artifact.Extension,
	}
}

// base64Image decodes an optional base64 or data URL image field.
func base64Image(field string, raw *string, limit int64) (*usecase.Upload, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}

	artifact, err := media.DecodeImage(field, *raw)
	if err != nil {
		return nil, err
	}
	if err := media.CheckSize(field, int64(len(artifact.Data)), limit); err != nil {
		return nil, err
	}

	return toUpload(artifact), nil
}

// formFile reads an optional multipart file. A missing field returns nil.
func formFile(c echo.Context, field string, limit int64) ([]byte, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}

		return nil, domainerrors.ErrValidationFailed.WithMessage("Invalid multipart form")
	}
	if err := media.CheckSize(field, header.Size, limit); err != nil {
		return nil, err
	}

	return readFormFile(field, header, limit)
}

func readFormFile(field string, header *multipart.FileHeader, limit int64) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", field)
	}
	defer file.Close()

	reader := io.Reader(file)
	if limit > 0 {
		reader = io.LimitReader(file, limit+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", field)
	}
	if err := media.CheckSize(field, int64(len(data)), limit); err != nil {
		return nil, err
	}

	return data, nil
}

// formArtifact reads and sniffs an optional multipart file.
func formArtifact(c echo.Context, field string, limit int64, allowed ...string) (*usecase.Upload, error) {
	data, err := formFile(c, field, limit)
	if err != nil || data == nil {
		return nil, err
	}

	artifact, err := media.Sniff(field, data, allowed...)
	if err != nil {
		return nil, err
	}

	return toUpload(artifact), nil
}

// formBool accepts the usual checkbox encodings.
func formBool(c echo.Context, field string) bool {
	raw := strings.TrimSpace(c.FormValue(field))
	if strings.EqualFold(raw, "on") {
		return true
	}
	value, err := strconv.ParseBool(raw)

	return err == nil && value
}
