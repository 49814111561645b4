package handler

import (
	"net/http"
	"strconv"

	"globalchek/internal/domain/service"

	"github.com/labstack/echo/v4"
)

// UploadHandler streams stored artifacts to holders of a signed URL.
type UploadHandler struct {
	storage service.ArtifactStorage
}

// NewUploadHandler is the constructor for UploadHandler
func NewUploadHandler(storage service.ArtifactStorage) *UploadHandler {
	return &UploadHandler{storage: storage}
}

// Serve checks the URL signature and streams the artifact it grants.
func (h *UploadHandler) Serve(c echo.Context) error {
	ctx := c.Request().Context()

	key, err := h.storage.ResolveSignedURL(ctx, c.Request().URL)
	if err != nil {
		return err
	}

	reader, obj, err := h.storage.Open(ctx, key)
	if err != nil {
		return err
	}
	defer reader.Close()

	header := c.Response().Header()
	header.Set(echo.HeaderContentLength, strconv.FormatInt(obj.Size, 10))
	header.Set(echo.HeaderLastModified, obj.ModTime.UTC().Format(http.TimeFormat))
	header.Set("Cache-Control", "private, no-store")
	header.Set("X-Content-Type-Options", "nosniff")

	return c.Stream(http.StatusOK, obj.ContentType, reader)
}
