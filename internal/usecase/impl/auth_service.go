// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"globalchek/config"
	deliverycontext "globalchek/internal/delivery/context"
	"globalchek/internal/domain/entity"
	domainerrors "globalchek/internal/domain/errors"
	"globalchek/internal/domain/repository"
	"globalchek/internal/domain/service"
	"globalchek/internal/infra/metrics"
	"globalchek/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Attempt limiter subjects.
const (
	loginSubjectPrefix     = "login:"
	twoFactorSubjectPrefix = "2fa:"
)

// authService implements the AuthUsecase interface.
type authService struct {
	txManager         repository.TransactionManager
	userRepo          repository.UserRepository
	refreshTokenRepo  repository.RefreshTokenRepository
	hasher            service.PasswordHasher
	tokenService      service.TokenService
	totpService       service.TOTPService
	qrCodeService     service.QRCodeService
	limiter           service.AttemptLimiter
	passwordMinLength int
	logger            *slog.Logger
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager        repository.TransactionManager
	UserRepo         repository.UserRepository
	RefreshTokenRepo repository.RefreshTokenRepository
	Hasher           service.PasswordHasher
	TokenService     service.TokenService
	TOTPService      service.TOTPService
	QRCodeService    service.QRCodeService
	Limiter          service.AttemptLimiter
	Config           *config.Config
	Logger           *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	passwordMinLength := 8
	if params.Config != nil && params.Config.Auth != nil && params.Config.Auth.PasswordMinLength > 0 {
		passwordMinLength = params.Config.Auth.PasswordMinLength
	}

	return &authService{
		txManager:         params.TxManager,
		userRepo:          params.UserRepo,
		refreshTokenRepo:  params.RefreshTokenRepo,
		hasher:            params.Hasher,
		tokenService:      params.TokenService,
		totpService:       params.TOTPService,
		qrCodeService:     params.QRCodeService,
		limiter:           params.Limiter,
		passwordMinLength: passwordMinLength,
		logger:            params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a HOST account and opens its first session.
func (srv *authService) Register(ctx context.Context, input usecase.RegisterInput) (*usecase.AuthOutput, error) {
	email := normalizeEmail(input.Email)
	srv.log(ctx).Info("Starting registration", slog.String("email", email))

	if len(input.Password) < srv.passwordMinLength {
		return nil, domainerrors.NewValidationError(domainerrors.FieldError{
			Path:    "password",
			Message: "Password must be at least " + strconv.Itoa(srv.passwordMinLength) + " characters",
		})
	}

	hashedPassword, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during registration", slog.Any("error", err))

		return nil, errors.Wrap(domainerrors.ErrPasswordHashFailed, "failed to hash password")
	}

	newUser := &entity.User{
		Email:            email,
		PasswordHash:     hashedPassword,
		FirstName:        input.FirstName,
		LastName:         input.LastName,
		Role:             entity.RoleHost,
		SubscriptionPlan: entity.PlanFree,
	}

	var tokens *entity.TokenPair
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return errors.Wrap(domainerrors.ErrEmailTaken, "email already registered")
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return errors.Wrap(err, "failed to check existing email")
		}

		if err := userRepo.Create(ctx, newUser); err != nil {
			if errors.Is(err, repository.ErrUserAlreadyExists) {
				return errors.Wrap(domainerrors.ErrEmailTaken, "email already registered")
			}

			return errors.Wrap(err, "failed to create user during registration")
		}

		var issueErr error
		tokens, issueErr = srv.issueSession(ctx, repoFactory.RefreshTokenRepo(), newUser)

		return issueErr
	})
	if err != nil {
		srv.log(ctx).Warn("Registration failed", slog.String("email", email), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute user registration transaction")
	}

	srv.log(ctx).Debug("Registration completed", slog.Any("userID", newUser.ID))

	return &usecase.AuthOutput{User: newUser, Tokens: tokens}, nil
}

// Login checks the password. Accounts with 2FA get a challenge instead of tokens.
func (srv *authService) Login(ctx context.Context, input usecase.LoginInput) (*usecase.LoginOutput, error) {
	email := normalizeEmail(input.Email)
	subject := loginSubjectPrefix + email
	srv.log(ctx).Debug("Starting user login", slog.String("email", email))

	if err := srv.reserveAttempt(ctx, subject); err != nil {
		metrics.RecordLogin(metrics.LoginBlocked)
		srv.log(ctx).Warn("Login blocked by attempt limiter", slog.String("email", email))

		return nil, errors.Wrap(err, "login blocked")
	}

	user, err := srv.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, errors.Wrap(err, "failed to find user by email")
	}

	// bcrypt is CPU-bound, so it runs outside any transaction.
	if user == nil || !srv.hasher.Check(input.Password, user.PasswordHash) {
		metrics.RecordLogin(metrics.LoginFailure)
		srv.log(ctx).Warn("Login failed", slog.String("email", email))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
	}

	srv.resetAttempts(ctx, subject)

	if user.TwoFactorEnabled {
		metrics.RecordLogin(metrics.LoginTwoFactor)
		srv.log(ctx).Debug("Login requires second factor", slog.Any("userID", user.ID))

		return &usecase.LoginOutput{Requires2FA: true, UserID: user.ID}, nil
	}

	tokens, err := srv.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	metrics.RecordLogin(metrics.LoginSuccess)
	srv.log(ctx).Debug("User logged in successfully", slog.Any("userID", user.ID))

	return &usecase.LoginOutput{User: user, Tokens: tokens}, nil
}

// VerifyTwoFactor completes a login that was answered with Requires2FA.
func (srv *authService) VerifyTwoFactor(ctx context.Context, userID uuid.UUID, code string) (*usecase.AuthOutput, error) {
	user, err := srv.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.TwoFactorEnabled || user.TwoFactorSecret == nil {
		return nil, errors.Wrap(domainerrors.ErrTwoFactorNotConfigured, "2FA verification requested")
	}

	if err := srv.checkCode(ctx, user, code); err != nil {
		return nil, err
	}

	tokens, err := srv.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	metrics.RecordLogin(metrics.LoginSuccess)
	srv.log(ctx).Debug("Second factor verified", slog.Any("userID", user.ID))

	return &usecase.AuthOutput{User: user, Tokens: tokens}, nil
}

// Refresh rotates a refresh token. The old row is deleted and the new one inserted in
// one transaction; only the caller whose delete removed the row gets a new pair.
func (srv *authService) Refresh(ctx context.Context, refreshToken string) (*entity.TokenPair, error) {
	srv.log(ctx).Info("Attempting to refresh tokens")

	claims, err := srv.tokenService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrInvalidToken, "invalid refresh token")
	}

	tokenHash := srv.tokenService.HashToken(refreshToken)

	var tokens *entity.TokenPair
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		refreshRepo := repoFactory.RefreshTokenRepo()

		stored, err := refreshRepo.FindRefreshTokenByHash(ctx, tokenHash)
		if err != nil {
			if errors.Is(err, repository.ErrRefreshTokenNotFound) {
				return errors.Wrap(domainerrors.ErrInvalidToken, "refresh token not found")
			}

			return errors.Wrap(err, "failed to find refresh token")
		}
		if stored.UserID != claims.UserID || stored.IsExpired(time.Now()) {
			return errors.Wrap(domainerrors.ErrInvalidToken, "refresh token expired or mismatched")
		}

		deleted, err := refreshRepo.DeleteRefreshTokenByHash(ctx, tokenHash)
		if err != nil {
			return errors.Wrap(err, "failed to consume refresh token")
		}
		if deleted != 1 {
			return errors.Wrap(domainerrors.ErrInvalidToken, "refresh token already consumed")
		}

		user, err := repoFactory.UserRepo().FindByID(ctx, stored.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return errors.Wrap(domainerrors.ErrInvalidToken, "refresh token owner no longer exists")
			}

			return errors.Wrap(err, "failed to find user")
		}

		var issueErr error
		tokens, issueErr = srv.issueSession(ctx, refreshRepo, user)

		return issueErr
	})
	if err != nil {
		srv.log(ctx).Warn("Token refresh failed", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute refresh transaction")
	}

	return tokens, nil
}

// Logout deletes the stored refresh token. Logging out twice is not an error.
func (srv *authService) Logout(ctx context.Context, refreshToken string) error {
	deleted, err := srv.refreshTokenRepo.DeleteRefreshTokenByHash(ctx, srv.tokenService.HashToken(refreshToken))
	if err != nil {
		return errors.Wrap(err, "failed to revoke refresh token")
	}

	srv.log(ctx).Debug("Logged out", slog.Int64("revoked", deleted))

	return nil
}

// Profile returns the authenticated host.
func (srv *authService) Profile(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	return srv.findUser(ctx, userID)
}

// EnableTwoFactor stores a fresh unconfirmed secret and returns its provisioning QR code.
func (srv *authService) EnableTwoFactor(ctx context.Context, userID uuid.UUID) (*usecase.TwoFactorSetup, error) {
	user, err := srv.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TwoFactorEnabled {
		return nil, errors.Wrap(domainerrors.ErrTwoFactorAlreadyEnabled, "2FA setup requested")
	}

	key, err := srv.totpService.Generate(user.Email)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate TOTP secret")
	}

	qrCode, err := srv.qrCodeService.GenerateDataURL(key.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to render provisioning QR code")
	}

	user.TwoFactorSecret = &key.Secret
	if err := srv.userRepo.Update(ctx, user); err != nil {
		return nil, errors.Wrap(err, "failed to store TOTP secret")
	}

	srv.log(ctx).Info("2FA setup started", slog.Any("userID", user.ID))

	return &usecase.TwoFactorSetup{Secret: key.Secret, QRCode: qrCode}, nil
}

// ConfirmTwoFactor enables 2FA once the user proves the authenticator is set up.
func (srv *authService) ConfirmTwoFactor(ctx context.Context, userID uuid.UUID, code string) error {
	user, err := srv.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.TwoFactorSecret == nil {
		return errors.Wrap(domainerrors.ErrTwoFactorNotConfigured, "2FA confirmation requested")
	}
	if user.TwoFactorEnabled {
		return errors.Wrap(domainerrors.ErrTwoFactorAlreadyEnabled, "2FA confirmation requested")
	}

	if err := srv.checkCode(ctx, user, code); err != nil {
		return err
	}

	user.TwoFactorEnabled = true
	if err := srv.userRepo.Update(ctx, user); err != nil {
		return errors.Wrap(err, "failed to enable 2FA")
	}

	srv.log(ctx).Info("2FA enabled", slog.Any("userID", user.ID))

	return nil
}

// DisableTwoFactor clears the secret. A valid current code is required.
func (srv *authService) DisableTwoFactor(ctx context.Context, userID uuid.UUID, code string) error {
	user, err := srv.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.TwoFactorSecret == nil {
		return errors.Wrap(domainerrors.ErrTwoFactorNotConfigured, "2FA disable requested")
	}

	if err := srv.checkCode(ctx, user, code); err != nil {
		return err
	}

	user.TwoFactorEnabled = false
	user.TwoFactorSecret = nil
	if err := srv.userRepo.Update(ctx, user); err != nil {
		return errors.Wrap(err, "failed to disable 2FA")
	}

	srv.log(ctx).Info("2FA disabled", slog.Any("userID", user.ID))

	return nil
}

// checkCode validates a TOTP code under the per-user attempt limit.
func (srv *authService) checkCode(ctx context.Context, user *entity.User, code string) error {
	subject := twoFactorSubjectPrefix + user.ID.String()

	if err := srv.reserveAttempt(ctx, subject); err != nil {
		srv.log(ctx).Warn("2FA blocked by attempt limiter", slog.Any("userID", user.ID))

		return errors.Wrap(err, "2FA verification blocked")
	}

	if !srv.totpService.Validate(code, *user.TwoFactorSecret) {
		srv.log(ctx).Warn("Invalid 2FA code", slog.Any("userID", user.ID))

		return errors.Wrap(domainerrors.ErrInvalidTwoFactorCode, "2FA verification failed")
	}

	srv.resetAttempts(ctx, subject)

	return nil
}

func (srv *authService) findUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.Wrap(domainerrors.ErrUserNotFound, "failed to find user")
		}

		return nil, errors.Wrap(err, "failed to find user")
	}

	return user, nil
}

// openSession completes a login: it stamps LastLoginAt, then issues a token
// pair and stores its refresh token.
func (srv *authService) openSession(ctx context.Context, user *entity.User) (*entity.TokenPair, error) {
	now := time.Now()
	user.LastLoginAt = &now
	if err := srv.userRepo.Update(ctx, user); err != nil {
		return nil, errors.Wrap(err, "failed to record last login")
	}

	tokens, err := srv.issueSession(ctx, srv.refreshTokenRepo, user)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open session")
	}

	return tokens, nil
}

func (srv *authService) issueSession(ctx context.Context, refreshRepo repository.RefreshTokenRepository, user *entity.User) (*entity.TokenPair, error) {
	tokens, err := srv.tokenService.GenerateTokens(user)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate tokens")
	}

	now := time.Now()
	refreshTokenEntity := &entity.RefreshToken{
		UserID:    user.ID,
		TokenHash: srv.tokenService.HashToken(tokens.RefreshToken),
		ExpiresAt: now.Add(srv.tokenService.GetRefreshTokenDuration()),
		CreatedAt: now,
	}

	if err := refreshRepo.CreateRefreshToken(ctx, refreshTokenEntity); err != nil {
		return nil, errors.Wrap(err, "failed to store refresh token")
	}

	return tokens, nil
}

// reserveAttempt spends one attempt of the subject's budget before a credential
// is checked. Only ErrTooManyAttempts blocks; the limiter fails open.
func (srv *authService) reserveAttempt(ctx context.Context, subject string) error {
	remaining, err := srv.limiter.Reserve(ctx, subject)
	if err != nil {
		return err
	}

	srv.log(ctx).Debug("Attempt reserved", slog.String("subject", subject), slog.Int("remaining", remaining))

	return nil
}

func (srv *authService) resetAttempts(ctx context.Context, subject string) {
	if err := srv.limiter.Reset(ctx, subject); err != nil {
		srv.log(ctx).Warn("Failed to reset attempt counter", slog.Any("error", err))
	}
}
