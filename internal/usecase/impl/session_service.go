// Package impl contains the application-specific business rules implementations.
package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "globalchek/internal/delivery/context"
	"globalchek/internal/domain/entity"
	domainerrors "globalchek/internal/domain/errors"
	"globalchek/internal/domain/repository"
	"globalchek/internal/domain/service"
	"globalchek/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// sessionService implements the SessionUsecase interface.
type sessionService struct {
	refreshTokenRepo repository.RefreshTokenRepository
	tokenService     service.TokenService
	logger           *slog.Logger
}

// NewSessionService is the constructor for sessionService.
func NewSessionService(
	refreshTokenRepo repository.RefreshTokenRepository,
	tokenService service.TokenService,
	logger *slog.Logger,
) usecase.SessionUsecase {
	return &sessionService{
		refreshTokenRepo: refreshTokenRepo,
		tokenService:     tokenService,
		logger:           logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *sessionService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// GetActiveSessions retrieves all unexpired sessions for a user, newest first.
func (srv *sessionService) GetActiveSessions(ctx context.Context, userID uuid.UUID, currentRefreshToken string) ([]*entity.SessionInfo, error) {
	srv.log(ctx).Debug("Getting active sessions", slog.Any("user_id", userID))

	tokens, err := srv.refreshTokenRepo.FindRefreshTokensByUserID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find refresh tokens")
	}

	currentHash := ""
	if currentRefreshToken != "" {
		currentHash = srv.tokenService.HashToken(currentRefreshToken)
	}

	sessions := make([]*entity.SessionInfo, 0, len(tokens))
	for _, token := range tokens {
		sessions = append(sessions, &entity.SessionInfo{
			ID:        token.ID,
			CreatedAt: token.CreatedAt,
			ExpiresAt: token.ExpiresAt,
			IsCurrent: currentHash != "" && token.TokenHash == currentHash,
		})
	}

	return sessions, nil
}

// RevokeSession deletes one session of the user.
func (srv *sessionService) RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	deleted, err := srv.refreshTokenRepo.DeleteRefreshTokenByID(ctx, userID, sessionID)
	if err != nil {
		return errors.Wrap(err, "failed to revoke session")
	}
	if deleted == 0 {
		return errors.Wrap(domainerrors.ErrSessionNotFound, "failed to revoke session")
	}

	srv.log(ctx).Info("Session revoked", slog.Any("user_id", userID), slog.Any("session_id", sessionID))

	return nil
}

// RevokeAllSessions logs the user out everywhere.
func (srv *sessionService) RevokeAllSessions(ctx context.Context, userID uuid.UUID) error {
	if err := srv.refreshTokenRepo.DeleteRefreshTokensByUserID(ctx, userID); err != nil {
		return errors.Wrap(err, "failed to revoke all sessions")
	}

	srv.log(ctx).Info("All sessions revoked", slog.Any("user_id", userID))

	return nil
}

// CleanupExpiredSessions removes expired refresh tokens.
func (srv *sessionService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	deleted, err := srv.refreshTokenRepo.DeleteExpiredRefreshTokens(ctx, time.Now())
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete expired refresh tokens")
	}

	if deleted > 0 {
		srv.log(ctx).Info("Expired sessions cleaned up", slog.Int64("count", deleted))
	}

	return deleted, nil
}
