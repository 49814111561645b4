package handler

import (
	"net/http"

	"globalchek/internal/delivery/api/response"
	domainerrors "globalchek/internal/domain/errors"
	"globalchek/internal/usecase"

	"github.com/labstack/echo/v4"
)

// HeaderRefreshToken lets a client mark its own session in the listing.
const HeaderRefreshToken = "X-Refresh-Token"

// SessionHandler lists and revokes the refresh tokens of a host.
type SessionHandler struct {
	sessionUC usecase.SessionUsecase
}

// NewSessionHandler is the constructor for SessionHandler
func NewSessionHandler(sessionUC usecase.SessionUsecase) *SessionHandler {
	return &SessionHandler{sessionUC: sessionUC}
}

// List returns the active sessions, newest first.
func (h *SessionHandler) List(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	sessions, err := h.sessionUC.GetActiveSessions(c.Request().Context(), userID, c.Request().Header.Get(HeaderRefreshToken))
	if err != nil {
		return err
	}

	return response.OK(c, sessions)
}

// Revoke ends one session.
func (h *SessionHandler) Revoke(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	sessionID, err := pathID(c, "id", domainerrors.ErrSessionNotFound)
	if err != nil {
		return err
	}

	if err := h.sessionUC.RevokeSession(c.Request().Context(), userID, sessionID); err != nil {
		return err
	}

	return response.Message(c, "Session revoked successfully")
}

// RevokeAll signs the host out everywhere.
func (h *SessionHandler) RevokeAll(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	if err := h.sessionUC.RevokeAllSessions(c.Request().Context(), userID); err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, "All sessions revoked", nil)
}
