package handler

import (
	"net/http"
	"strings"

	"globalchek/config"
	"globalchek/internal/delivery/api/response"
	domainerrors "globalchek/internal/domain/errors"
	"globalchek/internal/domain/wizard"
	"globalchek/internal/infra/media"
	"globalchek/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// GuestHandlerParams holds dependencies for GuestHandler, injected by Fx.
type GuestHandlerParams struct {
	fx.In

	GuestUC usecase.GuestUsecase
	Config  *config.Config
}

// GuestHandler serves the unauthenticated capture wizard.
type GuestHandler struct {
	guestUC            usecase.GuestUsecase
	maxUploadSize      int64
	maxSignaturePixels int64
}

// NewGuestHandler is the constructor for GuestHandler
func NewGuestHandler(params GuestHandlerParams) *GuestHandler {
	return &GuestHandler{
		guestUC:            params.GuestUC,
		maxUploadSize:      params.Config.Storage.MaxUploadSize,
		maxSignaturePixels: params.Config.Storage.MaxSignaturePixels,
	}
}

// GetPublic returns what the guest may see of the verification, with wizard progress.
func (h *GuestHandler) GetPublic(c echo.Context) error {
	verificationID, err := pathID(c, "id", domainerrors.ErrVerificationNotFound)
	if err != nil {
		return err
	}

	view, err := h.guestUC.GetPublic(c.Request().Context(), verificationID)
	if err != nil {
		return err
	}

	return response.OK(c, toGuestViewResponse(view))
}

// UploadStep stores the artifacts of one wizard step.
func (h *GuestHandler) UploadStep(c echo.Context) error {
	verificationID, err := pathID(c, "id", domainerrors.ErrVerificationNotFound)
	if err != nil {
		return err
	}

	step, ok := wizard.ParseStep(strings.ToUpper(c.Param("step")))
	if !ok {
		return fieldError("step", "is not a wizard step")
	}

	input, err := h.submissionInput(c)
	if err != nil {
		return err
	}

	view, err := h.guestUC.UploadStep(c.Request().Context(), verificationID, step, *input)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, "Step saved", toGuestViewResponse(view))
}

// Submit hands the wizard over for analysis.
func (h *GuestHandler) Submit(c echo.Context) error {
	verificationID, err := pathID(c, "id", domainerrors.ErrVerificationNotFound)
	if err != nil {
		return err
	}

	input, err := h.submissionInput(c)
	if err != nil {
		return err
	}

	view, err := h.guestUC.Submit(c.Request().Context(), verificationID, *input)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, "Documents submitted successfully", toGuestViewResponse(view))
}

// submissionInput reads every artifact the multipart form carries. Absent fields stay nil.
func (h *GuestHandler) submissionInput(c echo.Context) (*usecase.SubmissionInput, error) {
	input := &usecase.SubmissionInput{AgreedToTerms: formBool(c, "agreedToTerms")}

	var err error
	if input.DocumentFront, err = formArtifact(c, wizard.ArtifactDocumentFront, h.maxUploadSize, media.ImageTypes...); err != nil {
		return nil, err
	}
	if input.DocumentBack, err = formArtifact(c, wizard.ArtifactDocumentBack, h.maxUploadSize, media.ImageTypes...); err != nil {
		return nil, err
	}
	if input.VideoSelfie, err = formArtifact(c, wizard.ArtifactVideoSelfie, h.maxUploadSize, media.VideoTypes...); err != nil {
		return nil, err
	}
	if input.SelfieImage, err = formArtifact(c, wizard.ArtifactSelfieImage, h.maxUploadSize, media.ImageTypes...); err != nil {
		return nil, err
	}
	if input.Signature, err = h.signature(c); err != nil {
		return nil, err
	}

	return input, nil
}

// signature accepts either a file or a data URL string, as exported by the drawing canvas.
func (h *GuestHandler) signature(c echo.Context) (*usecase.Upload, error) {
	data, err := formFile(c, wizard.ArtifactSignature, h.maxUploadSize)
	if err != nil {
		return nil, err
	}
	if data == nil {
		raw := c.FormValue(wizard.ArtifactSignature)
		if strings.TrimSpace(raw) == "" {
			return nil, nil
		}
		if data, err = media.DecodeBase64(wizard.ArtifactSignature, raw); err != nil {
			return nil, err
		}
		if err := media.CheckSize(wizard.ArtifactSignature, int64(len(data)), h.maxUploadSize); err != nil {
			return nil, err
		}
	}

	artifact, err := media.Signature(wizard.ArtifactSignature, data, h.maxSignaturePixels)
	if err != nil {
		return nil, err
	}

	return toUpload(artifact), nil
}
