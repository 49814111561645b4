package handler

import (
	"net/http"
	"strings"
	"time"

	"globalchek/config"
	"globalchek/internal/delivery/api/response"
	"globalchek/internal/domain/entity"
	domainerrors "globalchek/internal/domain/errors"
	"globalchek/internal/domain/service"
	"globalchek/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

var documentDateLayouts = []string{time.RFC3339, "2006-01-02"}

// VerificationHandlerParams holds dependencies for VerificationHandler, injected by Fx.
type VerificationHandlerParams struct {
	fx.In

	VerificationUC usecase.VerificationUsecase
	Storage        service.ArtifactStorage
	Config         *config.Config
}

// VerificationHandler serves the host side of the verification lifecycle.
type VerificationHandler struct {
	verificationUC usecase.VerificationUsecase
	storage        service.ArtifactStorage
	maxUploadSize  int64
}

// NewVerificationHandler is the constructor for VerificationHandler
func NewVerificationHandler(params VerificationHandlerParams) *VerificationHandler {
	return &VerificationHandler{
		verificationUC: params.VerificationUC,
		storage:        params.Storage,
		maxUploadSize:  params.Config.Storage.MaxUploadSize,
	}
}

type createVerificationRequest struct {
	PropertyID     string  `json:"propertyId" validate:"required,uuid"`
	GuestFirstName string  `json:"guestFirstName" validate:"required,notblank,max=100"`
	GuestLastName  string  `json:"guestLastName" validate:"required,notblank,max=100"`
	GuestEmail     string  `json:"guestEmail" validate:"required,email"`
	GuestPhone     *string `json:"guestPhone" validate:"omitempty,max=32"`
	DocumentType   string  `json:"documentType" validate:"required"`
}

type uploadDocumentRequest struct {
	DocumentFrontImage    *string `json:"documentFrontImage"`
	DocumentBackImage     *string `json:"documentBackImage"`
	DocumentNumber        *string `json:"documentNumber" validate:"omitempty,notblank"`
	DocumentIssuedDate    *string `json:"documentIssuedDate"`
	DocumentExpiryDate    *string `json:"documentExpiryDate"`
	DocumentIssuedCountry *string `json:"documentIssuedCountry" validate:"omitempty,notblank"`
}

type processAIRequest struct {
	DocumentImageBase64 string `json:"documentImageBase64" validate:"required"`
}

type uploadSelfieRequest struct {
	SelfieImageBase64 string `json:"selfieImageBase64" validate:"required"`
}

type aiProcessingResponse struct {
	Verification  *verificationResponse `json:"verification"`
	OCRData       *entity.OCRResult     `json:"ocrData"`
	FraudAnalysis *entity.FraudAnalysis `json:"fraudAnalysis"`
}

type selfieResponse struct {
	Verification   *verificationResponse  `json:"verification"`
	FaceComparison *entity.FaceComparison `json:"faceComparison"`
}

// Create opens a guest check-in on one of the host's properties.
func (h *VerificationHandler) Create(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req createVerificationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	documentType, ok := entity.ParseDocumentType(req.DocumentType)
	if !ok {
		return fieldError("documentType", "must be one of PASSPORT, NATIONAL_ID, DRIVERS_LICENSE, OTHER")
	}

	verification, err := h.verificationUC.Create(c.Request().Context(), userID, usecase.CreateVerificationInput{
		PropertyID:     uuid.MustParse(req.PropertyID),
		GuestFirstName: strings.TrimSpace(req.GuestFirstName),
		GuestLastName:  strings.TrimSpace(req.GuestLastName),
		GuestEmail:     strings.ToLower(strings.TrimSpace(req.GuestEmail)),
		GuestPhone:     req.GuestPhone,
		DocumentType:   documentType,
	})
	if err != nil {
		return err
	}

	return response.Created(c, "Verification created successfully", h.present(c, verification))
}

// UploadDocument stores the document images and manually entered fields.
func (h *VerificationHandler) UploadDocument(c echo.Context) error {
	userID, verificationID, err := h.ids(c)
	if err != nil {
		return err
	}

	var req uploadDocumentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	input, err := h.documentInput(&req)
	if err != nil {
		return err
	}

	verification, err := h.verificationUC.UploadDocument(c.Request().Context(), userID, verificationID, *input)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, "Document uploaded successfully", h.present(c, verification))
}

func (h *VerificationHandler) documentInput(req *uploadDocumentRequest) (*usecase.UploadDocumentInput, error) {
	front, err := base64Image("documentFrontImage", req.DocumentFrontImage, h.maxUploadSize)
	if err != nil {
		return nil, err
	}
	back, err := base64Image("documentBackImage", req.DocumentBackImage, h.maxUploadSize)
	if err != nil {
		return nil, err
	}
	issued, err := parseDocumentDate("documentIssuedDate", req.DocumentIssuedDate)
	if err != nil {
		return nil, err
	}
	expiry, err := parseDocumentDate("documentExpiryDate", req.DocumentExpiryDate)
	if err != nil {
		return nil, err
	}

	return &usecase.UploadDocumentInput{
		Front: front,
		Back:  back,
		Details: entity.DocumentDetails{
			DocumentNumber:        req.DocumentNumber,
			DocumentIssuedDate:    issued,
			DocumentExpiryDate:    expiry,
			DocumentIssuedCountry: req.DocumentIssuedCountry,
		},
	}, nil
}

// ProcessWithAI runs OCR and fraud scoring on a document image.
func (h *VerificationHandler) ProcessWithAI(c echo.Context) error {
	userID, verificationID, err := h.ids(c)
	if err != nil {
		return err
	}

	var req processAIRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	document, err := base64Image("documentImageBase64", &req.DocumentImageBase64, h.maxUploadSize)
	if err != nil {
		return err
	}

	out, err := h.verificationUC.ProcessWithAI(c.Request().Context(), userID, verificationID, *document)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, "Document processed successfully", aiProcessingResponse{
		Verification:  h.present(c, out.Verification),
		OCRData:       out.OCRData,
		FraudAnalysis: out.FraudAnalysis,
	})
}

// UploadSelfie compares a selfie with the stored document.
func (h *VerificationHandler) UploadSelfie(c echo.Context) error {
	userID, verificationID, err := h.ids(c)
	if err != nil {
		return err
	}

	var req uploadSelfieRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	selfie, err := base64Image("selfieImageBase64", &req.SelfieImageBase64, h.maxUploadSize)
	if err != nil {
		return err
	}

	out, err := h.verificationUC.UploadSelfie(c.Request().Context(), userID, verificationID, *selfie)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, "Selfie uploaded and processed successfully", selfieResponse{
		Verification:   h.present(c, out.Verification),
		FaceComparison: out.FaceComparison,
	})
}

// Complete takes the final decision.
func (h *VerificationHandler) Complete(c echo.Context) error {
	userID, verificationID, err := h.ids(c)
	if err != nil {
		return err
	}

	verification, err := h.verificationUC.Complete(c.Request().Context(), userID, verificationID)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, "Verification completed", h.present(c, verification))
}

// List returns the host's verifications, optionally filtered by property and status.
func (h *VerificationHandler) List(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var filter entity.VerificationFilter
	if raw := c.QueryParam("propertyId"); raw != "" {
		propertyID, err := uuid.Parse(raw)
		if err != nil {
			return fieldError("propertyId", "must be a valid UUID")
		}
		filter.PropertyID = &propertyID
	}
	if raw := c.QueryParam("status"); raw != "" {
		status := entity.VerificationStatus(strings.ToUpper(raw))
		if !status.IsValid() {
			return fieldError("status", "is not a known status")
		}
		filter.Status = &status
	}

	list, err := h.verificationUC.List(c.Request().Context(), userID, filter)
	if err != nil {
		return err
	}

	return response.OK(c, h.presentList(c, list))
}

// Get returns one verification.
func (h *VerificationHandler) Get(c echo.Context) error {
	userID, verificationID, err := h.ids(c)
	if err != nil {
		return err
	}

	verification, err := h.verificationUC.Get(c.Request().Context(), userID, verificationID)
	if err != nil {
		return err
	}

	return response.OK(c, h.present(c, verification))
}

// present renders a verification with signed artifact URLs.
func (h *VerificationHandler) present(c echo.Context, v *entity.Verification) *verificationResponse {
	resp := toVerificationResponse(v)
	signArtifacts(c.Request().Context(), h.storage, resp)

	return resp
}

func (h *VerificationHandler) presentList(c echo.Context, list []*entity.Verification) []*verificationResponse {
	resp := toVerificationResponses(list)
	signArtifacts(c.Request().Context(), h.storage, resp...)

	return resp
}

func (h *VerificationHandler) ids(c echo.Context) (userID, verificationID uuid.UUID, err error) {
	userID, err = currentUser(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	verificationID, err = pathID(c, "id", domainerrors.ErrVerificationNotFound)

	return userID, verificationID, err
}

func parseDocumentDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	for _, layout := range documentDateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(*raw)); err == nil {
			return &t, nil
		}
	}

	return nil, fieldError(field, "must be an ISO 8601 date")
}
