package cleanup

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"globalchek/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSessions struct {
	calls atomic.Int32
	err   error
}

func (s *countingSessions) GetActiveSessions(context.Context, uuid.UUID, string) ([]*entity.SessionInfo, error) {
	return nil, nil
}

func (s *countingSessions) RevokeSession(context.Context, uuid.UUID, uuid.UUID) error {
	return nil
}

func (s *countingSessions) RevokeAllSessions(context.Context, uuid.UUID) error {
	return nil
}

func (s *countingSessions) CleanupExpiredSessions(context.Context) (int64, error) {
	s.calls.Add(1)

	return 2, s.err
}

func newJob(sessions *countingSessions, interval time.Duration) *sessionCleanup {
	return &sessionCleanup{
		interval:  interval,
		sessionUC: sessions,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		done:      make(chan struct{}),
	}
}

func TestSessionCleanup_RunsUntilStopped(t *testing.T) {
	sessions := &countingSessions{err: errors.New("db down")}
	job := newJob(sessions, 5*time.Millisecond)

	finished := make(chan error, 1)
	go func() { finished <- job.Serve(context.Background()) }()

	require.Eventually(t, func() bool { return sessions.calls.Load() >= 2 }, time.Second, time.Millisecond)

	close(job.done)
	select {
	case err := <-finished:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("cleanup did not stop")
	}
}

func TestSessionCleanup_Disabled(t *testing.T) {
	sessions := &countingSessions{}
	job := newJob(sessions, -1)

	require.NoError(t, job.Serve(context.Background()))
	assert.Zero(t, sessions.calls.Load())
}
