package middleware

import (
	"strings"

	deliverycontext "globalchek/internal/delivery/context"
	domainerrors "globalchek/internal/domain/errors"
	"globalchek/internal/domain/service"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const bearerPrefix = "Bearer "

// AuthMiddleware authenticates hosts with their access token.
type AuthMiddleware struct {
	tokenSvc service.TokenService
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenSvc service.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc}
}

// Authenticate validates the Bearer access token and stores the host id on the context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return domainerrors.ErrUnauthorized.WithMessage("Authorization header is missing")
		}
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			return domainerrors.ErrInvalidToken.WithMessage("Invalid token format, must be Bearer token")
		}

		claims, err := m.tokenSvc.ValidateAccessToken(strings.TrimPrefix(authHeader, bearerPrefix))
		if err != nil {
			return errors.Wrap(domainerrors.ErrInvalidToken, err.Error())
		}

		deliverycontext.SetUserID(c, claims.UserID)

		return next(c)
	}
}
