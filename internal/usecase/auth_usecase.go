// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"globalchek/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// RegisterInput defines the data required to open a host account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName *string
	LastName  *string
}

// LoginInput defines the data required for a host to log in.
type LoginInput struct {
	Email    string
	Password string
}

// --- Output DTOs ---

// AuthOutput is returned by every call that ends with a new session.
type AuthOutput struct {
	User   *entity.User
	Tokens *entity.TokenPair
}

// LoginOutput either carries a session, or asks for the second factor.
// When Requires2FA is set, only UserID is filled and no token has been issued.
type LoginOutput struct {
	Requires2FA bool
	UserID      uuid.UUID
	User        *entity.User
	Tokens      *entity.TokenPair
}

// TwoFactorSetup is the provisioning material shown while enabling 2FA.
type TwoFactorSetup struct {
	Secret string
	QRCode string // data:image/png;base64 URL of the otpauth URI
}

// AuthUsecase defines the host authentication operations.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type AuthUsecase interface {
	Register(ctx context.Context, input RegisterInput) (*AuthOutput, error)
	Login(ctx context.Context, input LoginInput) (*LoginOutput, error)
	VerifyTwoFactor(ctx context.Context, userID uuid.UUID, code string) (*AuthOutput, error)

	// Refresh consumes a refresh token and issues a new pair. A token can be used once.
	Refresh(ctx context.Context, refreshToken string) (*entity.TokenPair, error)

	// Logout revokes the refresh token. Unknown tokens are ignored.
	Logout(ctx context.Context, refreshToken string) error

	Profile(ctx context.Context, userID uuid.UUID) (*entity.User, error)

	EnableTwoFactor(ctx context.Context, userID uuid.UUID) (*TwoFactorSetup, error)
	ConfirmTwoFactor(ctx context.Context, userID uuid.UUID, code string) error
	DisableTwoFactor(ctx context.Context, userID uuid.UUID, code string) error
}
