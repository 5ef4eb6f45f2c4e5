package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "conflict", err: NewErrEmailInUse(), want: KindConflict},
		{name: "wrapped unauthorized", err: fmt.Errorf("login: %w", NewErrWrongCredentials()), want: KindUnauthorized},
		{name: "not found", err: NewErrVerificationNotFound(), want: KindNotFound},
		{name: "validation", err: NewErrValidation("email: must be a valid email address."), want: KindValidation},
		{name: "plain error is internal", err: errors.New("connection refused"), want: KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestPublic_HidesInternalDetail(t *testing.T) {
	got := Public(errors.New("pq: relation accounts does not exist"))

	assert.Equal(t, http.StatusInternalServerError, got.HTTPStatus)
	assert.Equal(t, "Internal server error", got.Message)
}

func TestPublic_KeepsAPIError(t *testing.T) {
	got := Public(fmt.Errorf("wrapped: %w", NewErrAlreadyVerified()))

	assert.Equal(t, http.StatusUnauthorized, got.HTTPStatus)
	assert.Equal(t, "Verification has already been passed", got.Message)
}
