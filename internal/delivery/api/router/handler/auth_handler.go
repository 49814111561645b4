package handler

import (
	"log/slog"
	"net/http"

	"globalchek/internal/delivery/api/response"
	"globalchek/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// AuthHandlerParams holds dependencies for AuthHandler, injected by Fx.
type AuthHandlerParams struct {
	fx.In

	AuthUC usecase.AuthUsecase
	Logger *slog.Logger
}

// AuthHandler serves registration, login, token rotation and 2FA management.
type AuthHandler struct {
	authUC usecase.AuthUsecase
	logger *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler
func NewAuthHandler(params AuthHandlerParams) *AuthHandler {
	return &AuthHandler{
		authUC: params.AuthUC,
		logger: params.Logger,
	}
}

type registerRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required"`
	FirstName *string `json:"firstName" validate:"omitempty,max=100"`
	LastName  *string `json:"lastName" validate:"omitempty,max=100"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type verifyTwoFactorRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
	Token  string `json:"token" validate:"required,len=6,numeric"`
}

type twoFactorCodeRequest struct {
	Token string `json:"token" validate:"required,len=6,numeric"`
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type loginChallengeResponse struct {
	Requires2FA bool      `json:"requires2FA"`
	UserID      uuid.UUID `json:"userId"`
}

type twoFactorSetupResponse struct {
	Secret string `json:"secret"`
	QRCode string `json:"qrCode"`
}

// Register opens a host account and starts its first session.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.authUC.Register(c.Request().Context(), usecase.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return err
	}

	return response.Created(c, "Registration successful", toAuthResponse(out.User, out.Tokens))
}

// Login checks the password. Accounts with 2FA get a challenge instead of tokens.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.authUC.Login(c.Request().Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	if out.Requires2FA {
		return response.Success(c, http.StatusOK, "2FA verification required", loginChallengeResponse{
			Requires2FA: true,
			UserID:      out.UserID,
		})
	}

	return response.Success(c, http.StatusOK, "Login successful", toAuthResponse(out.User, out.Tokens))
}

// VerifyTwoFactor completes a login challenge.
func (h *AuthHandler) VerifyTwoFactor(c echo.Context) error {
	var req verifyTwoFactorRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.authUC.VerifyTwoFactor(c.Request().Context(), uuid.MustParse(req.UserID), req.Token)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, "2FA verification successful", toAuthResponse(out.User, out.Tokens))
}

// Refresh rotates a refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshTokenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	tokens, err := h.authUC.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, "Tokens refreshed", tokens)
}

// Logout revokes a refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshTokenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authUC.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		return err
	}

	return response.Message(c, "Logged out successfully")
}

// Profile returns the authenticated host.
func (h *AuthHandler) Profile(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	user, err := h.authUC.Profile(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return response.OK(c, map[string]any{"user": toUserResponse(user)})
}

// EnableTwoFactor starts 2FA setup and returns the secret with its QR code.
func (h *AuthHandler) EnableTwoFactor(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	setup, err := h.authUC.EnableTwoFactor(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, "2FA setup initiated", twoFactorSetupResponse{
		Secret: setup.Secret,
		QRCode: setup.QRCode,
	})
}

// ConfirmTwoFactor enables 2FA once the first code checks out.
func (h *AuthHandler) ConfirmTwoFactor(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req twoFactorCodeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authUC.ConfirmTwoFactor(c.Request().Context(), userID, req.Token); err != nil {
		return err
	}

	return response.Message(c, "2FA enabled successfully")
}

// DisableTwoFactor turns 2FA off after checking a current code.
func (h *AuthHandler) DisableTwoFactor(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req twoFactorCodeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authUC.DisableTwoFactor(c.Request().Context(), userID, req.Token); err != nil {
		return err
	}

	return response.Message(c, "2FA disabled successfully")
}
