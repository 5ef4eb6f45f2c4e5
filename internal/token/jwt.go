package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/accounts-server/internal/model"
)

var (
	// ErrExpired is returned for a well-signed token past its expiry.
	ErrExpired = errors.New("session token expired")
	// ErrInvalid is returned for any other rejected token.
	ErrInvalid = errors.New("session token invalid")
)

// Claims represents JWT claims with token type and account ID.
type Claims struct {
	jwt.RegisteredClaims
	AccountID uuid.UUID `json:"id"`
	TokenType string    `json:"typ"`
}

// JWT implements TokenManager backed by symmetric HMAC.
type JWT struct {
	secretKey []byte
	now       func() time.Time
}

// NewJWT creates a new JWT token manager with the provided secret key.
func NewJWT(secretKey string) *JWT {
	return &JWT{secretKey: []byte(secretKey), now: time.Now}
}

var _ model.TokenManager = (*JWT)(nil)

const typeSession = "session"

// GenerateSessionToken signs a token for accountID valid for ttl.
// Every token carries a fresh jti, so two logins in the same second still differ.
func (j *JWT) GenerateSessionToken(accountID uuid.UUID, ttl time.Duration) (string, error) {
	now := j.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		AccountID: accountID,
		TokenType: typeSession,
	})

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, nil
}

// ParseSessionToken validates tokenString and extracts the account ID.
func (j *JWT) ParseSessionToken(tokenString string) (uuid.UUID, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return j.secretKey, nil
	}, jwt.WithTimeFunc(j.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, ErrExpired
		}
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !token.Valid {
		return uuid.Nil, ErrInvalid
	}
	if claims.TokenType != typeSession {
		return uuid.Nil, fmt.Errorf("%w: token type mismatch: %s", ErrInvalid, claims.TokenType)
	}
	if claims.AccountID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: missing account id", ErrInvalid)
	}
	return claims.AccountID, nil
}
