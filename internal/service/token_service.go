package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/accounts-server/internal/apperrors"
	"github.com/dtroode/accounts-server/internal/logger"
	"github.com/dtroode/accounts-server/internal/model"
)

// TokenService resolves bearer session tokens to account IDs. A token is
// accepted only while it is still the account's stored session token.
type TokenService struct {
	manager model.TokenManager
	store   model.AccountStore
	logger  *logger.Logger
}

func NewTokenService(manager model.TokenManager, store model.AccountStore, logger *logger.Logger) *TokenService {
	return &TokenService{manager: manager, store: store, logger: logger}
}

// Authenticate validates token and returns the ID of its account.
func (s *TokenService) Authenticate(ctx context.Context, token string) (uuid.UUID, error) {
	accountID, err := s.manager.ParseSessionToken(token)
	if err != nil {
		s.logger.Debug("Token service: rejected token",
			"error", err.Error())
		return uuid.Nil, apperrors.NewErrNotAuthorized()
	}

	account, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return uuid.Nil, apperrors.NewErrNotAuthorized()
		}
		s.logger.Error("Token service: failed to get account by id",
			"account_id", accountID,
			"error", err.Error())
		return uuid.Nil, fmt.Errorf("failed to get account by id: %w", err)
	}

	if !sameToken(account.SessionToken, token) {
		s.logger.Debug("Token service: token is not the active session",
			"account_id", accountID)
		return uuid.Nil, apperrors.NewErrNotAuthorized()
	}

	return accountID, nil
}

func sameToken(stored *string, presented string) bool {
	if stored == nil || *stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*stored), []byte(presented)) == 1
}
