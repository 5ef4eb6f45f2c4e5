package model

import (
	"time"

	"github.com/google/uuid"
)

// TokenManager issues and validates signed session tokens.
type TokenManager interface {
	GenerateSessionToken(accountID uuid.UUID, ttl time.Duration) (string, error)
	ParseSessionToken(token string) (uuid.UUID, error)
}

// MaxPasswordBytes is the longest password bcrypt digests in full.
const MaxPasswordBytes = 72

// Hasher hashes and verifies credentials.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Compare(plaintext, hash string) (bool, error)
}
