//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dtroode/accounts-server/internal/model"
	repo "github.com/dtroode/accounts-server/internal/repository/postgres"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "accounts_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/accounts_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func newAccount(email string) model.Account {
	token := uuid.NewString()
	now := time.Now().UTC().Truncate(time.Microsecond)
	return model.Account{
		ID:                uuid.New(),
		Email:             email,
		PasswordHash:      "$2a$10$hash",
		Subscription:      model.SubscriptionStarter,
		AvatarURL:         "//www.gravatar.com/avatar/x",
		VerificationToken: &token,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func TestAccountRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ar := repo.NewAccountRepository(conn)
	require.NoError(t, ar.Ping(ctx))

	a := newAccount("life@example.com")
	saved, err := ar.Create(ctx, a)
	require.NoError(t, err)
	require.Equal(t, a.ID, saved.ID)

	_, err = ar.Create(ctx, newAccount(a.Email))
	require.ErrorIs(t, err, model.ErrAlreadyExists)

	byToken, err := ar.GetByVerificationToken(ctx, *a.VerificationToken)
	require.NoError(t, err)
	require.Equal(t, a.ID, byToken.ID)

	require.NoError(t, ar.MarkVerified(ctx, a.ID, *a.VerificationToken))
	require.ErrorIs(t, ar.MarkVerified(ctx, a.ID, *a.VerificationToken), model.ErrNotFound)

	_, err = ar.GetByVerificationToken(ctx, *a.VerificationToken)
	require.ErrorIs(t, err, model.ErrNotFound)
	require.ErrorIs(t, ar.SetVerificationToken(ctx, a.ID, "again"), model.ErrNotFound)

	session := "session-jwt"
	require.NoError(t, ar.SetSessionToken(ctx, a.ID, &session))
	byEmail, err := ar.GetByEmail(ctx, a.Email)
	require.NoError(t, err)
	require.True(t, byEmail.Verified)
	require.Nil(t, byEmail.VerificationToken)
	require.NotNil(t, byEmail.SessionToken)
	require.Equal(t, session, *byEmail.SessionToken)

	require.NoError(t, ar.SetSessionToken(ctx, a.ID, nil))
	require.NoError(t, ar.SetAvatarURL(ctx, a.ID, "avatars/key.png"))
	byID, err := ar.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Nil(t, byID.SessionToken)
	require.Equal(t, "avatars/key.png", byID.AvatarURL)

	_, err = ar.GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestAccountRepository_MarkVerifiedOnce(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ar := repo.NewAccountRepository(conn)
	a := newAccount("race@example.com")
	_, err = ar.Create(ctx, a)
	require.NoError(t, err)

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ar.MarkVerified(ctx, a.ID, *a.VerificationToken); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, success)
}
