package impl

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"globalchek/config"
	"globalchek/internal/domain/entity"
	"globalchek/internal/domain/service"
	"globalchek/internal/infra/storage"
	"globalchek/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	cfg := &config.Config{
		Auth: &config.AuthConfig{
			BcryptCost:        4,
			AccessTokenTTL:    15 * time.Minute,
			RefreshTokenTTL:   24 * time.Hour,
			PasswordMinLength: 8,
		},
		Verification: &config.VerificationConfig{
			FraudRejectThreshold: intPtr(70),
			FaceMatchThreshold:   intPtr(85),
			RecentLimit:          10,
			StatsRecentLimit:     5,
		},
	}
	cfg.SecretKey.Access = "access-secret-for-tests"
	cfg.SecretKey.Refresh = "refresh-secret-for-tests"

	return cfg
}

// mockAIGateway is a testify mock of service.AIGateway.
type mockAIGateway struct {
	mock.Mock
}

func (m *mockAIGateway) ExtractDocumentData(ctx context.Context, document service.Image, documentType entity.DocumentType) (*entity.OCRResult, error) {
	args := m.Called(ctx, document, documentType)
	result, _ := args.Get(0).(*entity.OCRResult)

	return result, args.Error(1)
}

func (m *mockAIGateway) DetectFraud(ctx context.Context, document service.Image, ocr *entity.OCRResult) (*entity.FraudAnalysis, error) {
	args := m.Called(ctx, document, ocr)
	result, _ := args.Get(0).(*entity.FraudAnalysis)

	return result, args.Error(1)
}

func (m *mockAIGateway) CompareFaces(ctx context.Context, document, selfie service.Image) (*entity.FaceComparison, error) {
	args := m.Called(ctx, document, selfie)
	result, _ := args.Get(0).(*entity.FaceComparison)

	return result, args.Error(1)
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*service.VerificationSubmittedEvent
	err    error
}

func (p *recordingPublisher) PublishVerificationSubmitted(_ context.Context, event *service.VerificationSubmittedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

// recordingNotifier keeps every pushed notification.
type recordingNotifier struct {
	mu     sync.Mutex
	pushed []*entity.Notification
}

func (n *recordingNotifier) Push(_ context.Context, notification *entity.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.pushed = append(n.pushed, notification)
}

func (n *recordingNotifier) titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	titles := make([]string, 0, len(n.pushed))
	for _, notification := range n.pushed {
		titles = append(titles, notification.Title)
	}

	return titles
}

// verificationFixture wires the verification services on one in-memory store.
type verificationFixture struct {
	params       VerificationParams
	store        *memStore
	storage      service.ArtifactStorage
	ai           *mockAIGateway
	publisher    *recordingPublisher
	notifier     *recordingNotifier
	verification usecase.VerificationUsecase
	property     usecase.PropertyUsecase
	guest        usecase.GuestUsecase
	processor    usecase.SubmissionProcessor
}

func newVerificationFixture(t *testing.T) *verificationFixture {
	t.Helper()

	bucket := memblob.OpenBucket(nil)
	t.Cleanup(func() { _ = bucket.Close() })

	store := newMemStore()
	ai := &mockAIGateway{}
	t.Cleanup(func() { ai.AssertExpectations(t) })

	f := &verificationFixture{
		store:     store,
		storage:   storage.NewBlobStorage(bucket, "/uploads", []byte("test-signing-key"), time.Minute),
		ai:        ai,
		publisher: &recordingPublisher{},
		notifier:  &recordingNotifier{},
	}

	params := VerificationParams{
		TxManager:        store,
		PropertyRepo:     store.PropertyRepo(),
		VerificationRepo: store.VerificationRepo(),
		Storage:          f.storage,
		AIGateway:        ai,
		Publisher:        f.publisher,
		Notifier:         f.notifier,
		Config:           newTestConfig(),
		Logger:           newDiscardLogger(),
	}
	f.params = params
	f.verification = NewVerificationService(params)
	f.property = NewPropertyService(params)
	f.guest = NewGuestService(params)
	f.processor = NewSubmissionProcessor(params)

	return f
}

func (f *verificationFixture) createProperty(t *testing.T, userID uuid.UUID) *entity.Property {
	t.Helper()

	property, err := f.property.Create(context.Background(), userID, usecase.CreatePropertyInput{
		Name:         "Riad Atlas",
		Address:      "12 Derb Sidi Bouloukat",
		City:         "Marrakech",
		PropertyType: "riad",
	})
	require.NoError(t, err)

	return property
}

func (f *verificationFixture) createVerification(t *testing.T, userID, propertyID uuid.UUID) *entity.Verification {
	t.Helper()

	verification, err := f.verification.Create(context.Background(), userID, usecase.CreateVerificationInput{
		PropertyID:     propertyID,
		GuestFirstName: "Amina",
		GuestLastName:  "Benali",
		GuestEmail:     "amina@example.com",
		DocumentType:   entity.DocumentPassport,
	})
	require.NoError(t, err)

	return verification
}

func pngUpload(payload string) *usecase.Upload {
	return &usecase.Upload{Data: []byte(payload), ContentType: "image/png", Extension: ".png"}
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
