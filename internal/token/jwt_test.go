package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWT_SessionToken_Roundtrip(t *testing.T) {
	j := NewJWT("secret")
	id := uuid.New()

	tok, err := j.GenerateSessionToken(id, 23*time.Hour)
	require.NoError(t, err)

	got, err := j.ParseSessionToken(tok)
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestJWT_TokensAreUnique(t *testing.T) {
	j := NewJWT("secret")
	id := uuid.New()

	first, err := j.GenerateSessionToken(id, time.Hour)
	require.NoError(t, err)
	second, err := j.GenerateSessionToken(id, time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestJWT_Expired(t *testing.T) {
	j := NewJWT("secret")
	issued := time.Now().Add(-24 * time.Hour)
	j.now = func() time.Time { return issued }

	tok, err := j.GenerateSessionToken(uuid.New(), 23*time.Hour)
	require.NoError(t, err)

	j.now = time.Now
	_, err = j.ParseSessionToken(tok)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestJWT_WrongSecret(t *testing.T) {
	tok, err := NewJWT("secret").GenerateSessionToken(uuid.New(), time.Hour)
	require.NoError(t, err)

	_, err = NewJWT("other").ParseSessionToken(tok)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestJWT_Garbage(t *testing.T) {
	_, err := NewJWT("secret").ParseSessionToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestJWT_TokenTypeMismatch(t *testing.T) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		AccountID: uuid.New(),
		TokenType: "refresh",
	})
	signed, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewJWT("secret").ParseSessionToken(signed)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestJWT_NoneAlgorithmRejected(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		AccountID: uuid.New(),
		TokenType: typeSession,
	})
	signed, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewJWT("secret").ParseSessionToken(signed)
	assert.ErrorIs(t, err, ErrInvalid)
}
