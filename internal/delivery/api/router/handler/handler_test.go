package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	apimiddleware "globalchek/internal/delivery/api/middleware"
	"globalchek/internal/delivery/api/response"
	"globalchek/internal/delivery/api/validator"
	deliverycontext "globalchek/internal/delivery/context"
	"globalchek/internal/domain/entity"
	"globalchek/internal/domain/wizard"
	"globalchek/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestEcho builds an echo instance with the production error handler and validator.
func newTestEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = apimiddleware.NewErrorMiddleware(discardLogger()).HandleHTTPError
	e.Validator = validator.New()

	return e
}

// asUser marks the request as authenticated by userID.
func asUser(userID uuid.UUID) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			deliverycontext.SetUserID(c, userID)

			return next(c)
		}
	}
}

func doJSON(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

// decodeEnvelope decodes the envelope and re-decodes its data into data when non-nil.
func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data any) response.Envelope {
	t.Helper()

	var raw struct {
		response.Envelope
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	if data != nil {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}

	return raw.Envelope
}

func pngBytes(t *testing.T, inked bool) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := range 8 {
		for x := range 8 {
			img.Set(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	if inked {
		img.Set(3, 3, color.NRGBA{A: 255})
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

type mockAuthUsecase struct {
	mock.Mock
}

func (m *mockAuthUsecase) Register(ctx context.Context, input usecase.RegisterInput) (*usecase.AuthOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*usecase.AuthOutput)

	return out, args.Error(1)
}

func (m *mockAuthUsecase) Login(ctx context.Context, input usecase.LoginInput) (*usecase.LoginOutput, error) {
	args := m.Called(ctx, input)
	out, _ := args.Get(0).(*usecase.LoginOutput)

	return out, args.Error(1)
}

func (m *mockAuthUsecase) VerifyTwoFactor(ctx context.Context, userID uuid.UUID, code string) (*usecase.AuthOutput, error) {
	args := m.Called(ctx, userID, code)
	out, _ := args.Get(0).(*usecase.AuthOutput)

	return out, args.Error(1)
}

func (m *mockAuthUsecase) Refresh(ctx context.Context, refreshToken string) (*entity.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	out, _ := args.Get(0).(*entity.TokenPair)

	return out, args.Error(1)
}

func (m *mockAuthUsecase) Logout(ctx context.Context, refreshToken string) error {
	return m.Called(ctx, refreshToken).Error(0)
}

func (m *mockAuthUsecase) Profile(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).(*entity.User)

	return out, args.Error(1)
}

func (m *mockAuthUsecase) EnableTwoFactor(ctx context.Context, userID uuid.UUID) (*usecase.TwoFactorSetup, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).(*usecase.TwoFactorSetup)

	return out, args.Error(1)
}

func (m *mockAuthUsecase) ConfirmTwoFactor(ctx context.Context, userID uuid.UUID, code string) error {
	return m.Called(ctx, userID, code).Error(0)
}

func (m *mockAuthUsecase) DisableTwoFactor(ctx context.Context, userID uuid.UUID, code string) error {
	return m.Called(ctx, userID, code).Error(0)
}

type mockGuestUsecase struct {
	mock.Mock
}

func (m *mockGuestUsecase) GetPublic(ctx context.Context, verificationID uuid.UUID) (*usecase.GuestView, error) {
	args := m.Called(ctx, verificationID)
	out, _ := args.Get(0).(*usecase.GuestView)

	return out, args.Error(1)
}

func (m *mockGuestUsecase) UploadStep(ctx context.Context, verificationID uuid.UUID, step wizard.Step, input usecase.SubmissionInput) (*usecase.GuestView, error) {
	args := m.Called(ctx, verificationID, step, input)
	out, _ := args.Get(0).(*usecase.GuestView)

	return out, args.Error(1)
}

func (m *mockGuestUsecase) Submit(ctx context.Context, verificationID uuid.UUID, input usecase.SubmissionInput) (*usecase.GuestView, error) {
	args := m.Called(ctx, verificationID, input)
	out, _ := args.Get(0).(*usecase.GuestView)

	return out, args.Error(1)
}

var (
	_ usecase.AuthUsecase  = (*mockAuthUsecase)(nil)
	_ usecase.GuestUsecase = (*mockGuestUsecase)(nil)
)
