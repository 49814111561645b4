// Package usecase contains the application-specific business rules.
package usecase

import (
	"context"

	"globalchek/internal/domain/entity"

	"github.com/google/uuid"
)

// SessionUsecase defines the interface for session management operations.
// A session is one stored refresh token.
type SessionUsecase interface {
	// GetActiveSessions lists unexpired sessions. currentRefreshToken, when set, marks the caller's own session.
	GetActiveSessions(ctx context.Context, userID uuid.UUID, currentRefreshToken string) ([]*entity.SessionInfo, error)
	RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) error
	RevokeAllSessions(ctx context.Context, userID uuid.UUID) error

	// CleanupExpiredSessions purges expired refresh tokens and returns how many were removed.
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}
