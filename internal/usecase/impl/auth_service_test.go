package impl

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	domainerrors "globalchek/internal/domain/errors"
	"globalchek/internal/domain/service"
	"globalchek/internal/infra/auth"
	"globalchek/internal/infra/qrcode"
	"globalchek/internal/infra/ratelimit"
	"globalchek/internal/usecase"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/pquerna/otp/totp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	store    *memStore
	tokens   service.TokenService
	sessions usecase.SessionUsecase
	service  usecase.AuthUsecase
	redis    *miniredis.Miniredis
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	cfg := newTestConfig()
	cfg.Auth.LoginMaxAttempts = 3
	cfg.Auth.LoginWindow = time.Minute

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	tokens, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	store := newMemStore()
	logger := newDiscardLogger()

	return &authFixture{
		store:    store,
		tokens:   tokens,
		redis:    mr,
		sessions: NewSessionService(store.RefreshTokenRepo(), tokens, logger),
		service: NewAuthService(AuthServiceParams{
			TxManager:        store,
			UserRepo:         store.UserRepo(),
			RefreshTokenRepo: store.RefreshTokenRepo(),
			Hasher:           auth.NewBcryptHasher(cfg),
			TokenService:     tokens,
			TOTPService:      auth.NewTOTPService(cfg),
			QRCodeService:    qrcode.NewQRCodeService(cfg),
			Limiter:          ratelimit.NewAttemptLimiter(ratelimit.LimiterParams{Client: client, Config: cfg, Logger: logger}),
			Config:           cfg,
			Logger:           logger,
		}),
	}
}

func (f *authFixture) register(t *testing.T, email, password string) *usecase.AuthOutput {
	t.Helper()

	out, err := f.service.Register(context.Background(), usecase.RegisterInput{Email: email, Password: password, FirstName: strPtr("Youssef")})
	require.NoError(t, err)

	return out
}

func TestAuthService_Register(t *testing.T) {
	f := newAuthFixture(t)

	out := f.register(t, "  Host@Example.com ", "s3cret-pass")

	assert.Equal(t, "host@example.com", out.User.Email)
	assert.NotEqual(t, "s3cret-pass", out.User.PasswordHash)
	assert.True(t, strings.HasPrefix(out.User.PasswordHash, "$2a$"))
	require.NotNil(t, out.Tokens)

	claims, err := f.tokens.ValidateAccessToken(out.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, out.User.ID, claims.UserID)

	_, err = f.store.RefreshTokenRepo().FindRefreshTokenByHash(context.Background(), f.tokens.HashToken(out.Tokens.RefreshToken))
	require.NoError(t, err)
}

func TestAuthService_Register_Rejections(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "host@example.com", "s3cret-pass")

	_, err := f.service.Register(ctx, usecase.RegisterInput{Email: "HOST@example.com", Password: "another-pass"})
	assert.ErrorIs(t, err, domainerrors.ErrEmailTaken)

	_, err = f.service.Register(ctx, usecase.RegisterInput{Email: "new@example.com", Password: "short"})
	assert.Equal(t, []string{"password"}, fieldPaths(t, err))
}

func TestAuthService_Login(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	registered := f.register(t, "host@example.com", "s3cret-pass")

	out, err := f.service.Login(ctx, usecase.LoginInput{Email: "HOST@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.False(t, out.Requires2FA)
	require.NotNil(t, out.Tokens)
	assert.Equal(t, registered.User.ID, out.User.ID)
	assert.NotNil(t, out.User.LastLoginAt)

	_, err = f.service.Login(ctx, usecase.LoginInput{Email: "host@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	_, err = f.service.Login(ctx, usecase.LoginInput{Email: "nobody@example.com", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestAuthService_Login_BlockedAfterFailures(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "host@example.com", "s3cret-pass")

	for range 3 {
		_, err := f.service.Login(ctx, usecase.LoginInput{Email: "host@example.com", Password: "wrong-pass"})
		require.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	}

	// Even the right password is refused while the window is open.
	_, err := f.service.Login(ctx, usecase.LoginInput{Email: "host@example.com", Password: "s3cret-pass"})
	require.ErrorIs(t, err, domainerrors.ErrTooManyAttempts)

	f.redis.FastForward(2 * time.Minute)

	_, err = f.service.Login(ctx, usecase.LoginInput{Email: "host@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
}

func TestAuthService_Login_ConcurrentGuessesAreCapped(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "host@example.com", "s3cret-pass")

	const guesses = 20
	var (
		wg               sync.WaitGroup
		start            = make(chan struct{})
		mu               sync.Mutex
		invalid, blocked int
	)
	for range guesses {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.service.Login(context.Background(), usecase.LoginInput{Email: "host@example.com", Password: "wrong-pass"})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, domainerrors.ErrInvalidCredentials):
				invalid++
			case errors.Is(err, domainerrors.ErrTooManyAttempts):
				blocked++
			}
		}()
	}
	close(start)
	wg.Wait()

	// Only the configured three guesses reach the password check.
	assert.Equal(t, 3, invalid)
	assert.Equal(t, guesses-3, blocked)
}

func TestAuthService_Login_LimiterUnavailable(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "host@example.com", "s3cret-pass")
	f.redis.Close()

	out, err := f.service.Login(context.Background(), usecase.LoginInput{Email: "host@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotNil(t, out.Tokens)
}

func TestAuthService_Refresh_SingleUse(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	registered := f.register(t, "host@example.com", "s3cret-pass")

	rotated, err := f.service.Refresh(ctx, registered.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, registered.Tokens.RefreshToken, rotated.RefreshToken)

	_, err = f.service.Refresh(ctx, registered.Tokens.RefreshToken)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidToken)

	_, err = f.service.Refresh(ctx, rotated.RefreshToken)
	require.NoError(t, err)

	_, err = f.service.Refresh(ctx, registered.Tokens.AccessToken)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidToken)
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	registered := f.register(t, "host@example.com", "s3cret-pass")

	require.NoError(t, f.service.Logout(ctx, registered.Tokens.RefreshToken))
	require.NoError(t, f.service.Logout(ctx, registered.Tokens.RefreshToken))

	_, err := f.service.Refresh(ctx, registered.Tokens.RefreshToken)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidToken)
}

func TestAuthService_TwoFactorFlow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	registered := f.register(t, "host@example.com", "s3cret-pass")
	userID := registered.User.ID

	setup, err := f.service.EnableTwoFactor(ctx, userID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(setup.QRCode, "data:image/png;base64,"))

	// Not enabled until a valid code confirms the secret.
	out, err := f.service.Login(ctx, usecase.LoginInput{Email: "host@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.False(t, out.Requires2FA)

	err = f.service.ConfirmTwoFactor(ctx, userID, "000000")
	require.ErrorIs(t, err, domainerrors.ErrInvalidTwoFactorCode)

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, f.service.ConfirmTwoFactor(ctx, userID, code))

	_, err = f.service.EnableTwoFactor(ctx, userID)
	assert.ErrorIs(t, err, domainerrors.ErrTwoFactorAlreadyEnabled)

	out, err = f.service.Login(ctx, usecase.LoginInput{Email: "host@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.True(t, out.Requires2FA)
	assert.Equal(t, userID, out.UserID)
	assert.Nil(t, out.Tokens)

	verified, err := f.service.VerifyTwoFactor(ctx, userID, code)
	require.NoError(t, err)
	assert.NotNil(t, verified.Tokens)

	require.NoError(t, f.service.DisableTwoFactor(ctx, userID, code))
	user, err := f.service.Profile(ctx, userID)
	require.NoError(t, err)
	assert.False(t, user.TwoFactorEnabled)
	assert.Nil(t, user.TwoFactorSecret)
}

func TestAuthService_LastLoginWaitsForSecondFactor(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	userID := f.register(t, "host@example.com", "s3cret-pass").User.ID

	setup, err := f.service.EnableTwoFactor(ctx, userID)
	require.NoError(t, err)
	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, f.service.ConfirmTwoFactor(ctx, userID, code))

	out, err := f.service.Login(ctx, usecase.LoginInput{Email: "host@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	require.True(t, out.Requires2FA)

	_, err = f.service.VerifyTwoFactor(ctx, userID, "000000")
	require.ErrorIs(t, err, domainerrors.ErrInvalidTwoFactorCode)

	user, err := f.service.Profile(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, user.LastLoginAt)

	verified, err := f.service.VerifyTwoFactor(ctx, userID, code)
	require.NoError(t, err)
	assert.NotNil(t, verified.User.LastLoginAt)
}

func TestAuthService_VerifyTwoFactor_NotConfigured(t *testing.T) {
	f := newAuthFixture(t)
	registered := f.register(t, "host@example.com", "s3cret-pass")

	_, err := f.service.VerifyTwoFactor(context.Background(), registered.User.ID, "123456")
	assert.ErrorIs(t, err, domainerrors.ErrTwoFactorNotConfigured)

	_, err = f.service.Profile(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrUserNotFound)
}
