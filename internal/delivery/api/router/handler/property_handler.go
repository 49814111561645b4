package handler

import (
	"net/http"

	"globalchek/internal/delivery/api/response"
	"globalchek/internal/domain/entity"
	domainerrors "globalchek/internal/domain/errors"
	"globalchek/internal/domain/service"
	"globalchek/internal/usecase"

	"github.com/labstack/echo/v4"
)

// PropertyHandler serves the owner-scoped property routes.
type PropertyHandler struct {
	propertyUC usecase.PropertyUsecase
	storage    service.ArtifactStorage
}

// NewPropertyHandler is the constructor for PropertyHandler
func NewPropertyHandler(propertyUC usecase.PropertyUsecase, storage service.ArtifactStorage) *PropertyHandler {
	return &PropertyHandler{propertyUC: propertyUC, storage: storage}
}

type createPropertyRequest struct {
	Name         string   `json:"name" validate:"required,notblank"`
	Address      string   `json:"address" validate:"required,notblank"`
	City         string   `json:"city" validate:"required,notblank"`
	Country      *string  `json:"country" validate:"omitempty,notblank"`
	PropertyType string   `json:"propertyType" validate:"required,notblank"`
	Capacity     *int     `json:"capacity" validate:"omitempty,gt=0"`
	Description  *string  `json:"description"`
	Images       []string `json:"images" validate:"omitempty,dive,required"`
}

type updatePropertyRequest struct {
	Name         *string   `json:"name" validate:"omitempty,notblank"`
	Address      *string   `json:"address" validate:"omitempty,notblank"`
	City         *string   `json:"city" validate:"omitempty,notblank"`
	Country      *string   `json:"country"`
	PropertyType *string   `json:"propertyType" validate:"omitempty,notblank"`
	Capacity     *int      `json:"capacity" validate:"omitempty,gt=0"`
	Description  *string   `json:"description"`
	Images       *[]string `json:"images" validate:"omitempty,dive,required"`
	IsActive     *bool     `json:"isActive"`
}

// Create adds a property to the host's portfolio.
func (h *PropertyHandler) Create(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req createPropertyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	property, err := h.propertyUC.Create(c.Request().Context(), userID, usecase.CreatePropertyInput{
		Name:         req.Name,
		Address:      req.Address,
		City:         req.City,
		Country:      req.Country,
		PropertyType: req.PropertyType,
		Capacity:     req.Capacity,
		Description:  req.Description,
		Images:       req.Images,
	})
	if err != nil {
		return err
	}

	return response.Created(c, "Property created successfully", property)
}

// List returns the host's properties with verification counts, newest first.
func (h *PropertyHandler) List(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	list, err := h.propertyUC.List(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	out := make([]*propertyResponse, 0, len(list))
	for _, item := range list {
		out = append(out, toPropertyResponse(item))
	}

	return response.OK(c, out)
}

// Get returns one property with its most recent verifications.
func (h *PropertyHandler) Get(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	propertyID, err := pathID(c, "id", domainerrors.ErrPropertyNotFound)
	if err != nil {
		return err
	}

	detail, err := h.propertyUC.Get(c.Request().Context(), userID, propertyID)
	if err != nil {
		return err
	}

	resp := toPropertyResponse(&detail.PropertyWithCounts)
	resp.Verifications = toVerificationResponses(detail.RecentVerifications)
	signArtifacts(c.Request().Context(), h.storage, resp.Verifications...)

	return response.OK(c, resp)
}

// Update applies a partial change.
func (h *PropertyHandler) Update(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	propertyID, err := pathID(c, "id", domainerrors.ErrPropertyNotFound)
	if err != nil {
		return err
	}

	var req updatePropertyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	property, err := h.propertyUC.Update(c.Request().Context(), userID, propertyID, entity.PropertyPatch{
		Name:         req.Name,
		Address:      req.Address,
		City:         req.City,
		Country:      req.Country,
		PropertyType: req.PropertyType,
		Capacity:     req.Capacity,
		Description:  req.Description,
		Images:       req.Images,
		IsActive:     req.IsActive,
	})
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, "Property updated successfully", property)
}

// Delete removes a property and its verifications.
func (h *PropertyHandler) Delete(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	propertyID, err := pathID(c, "id", domainerrors.ErrPropertyNotFound)
	if err != nil {
		return err
	}

	if err := h.propertyUC.Delete(c.Request().Context(), userID, propertyID); err != nil {
		return err
	}

	return response.Message(c, "Property deleted successfully")
}

// Stats returns the verification statistics of a property.
func (h *PropertyHandler) Stats(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	propertyID, err := pathID(c, "id", domainerrors.ErrPropertyNotFound)
	if err != nil {
		return err
	}

	stats, err := h.propertyUC.Stats(c.Request().Context(), userID, propertyID)
	if err != nil {
		return err
	}

	return response.OK(c, stats)
}
