//go:build integration

package mongodb_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dtroode/accounts-server/internal/model"
	"github.com/dtroode/accounts-server/internal/repository/mongodb"
)

var uri string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(2 * time.Minute),
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
	port, err := container.MappedPort(ctx, "27017")
	if err != nil {
		panic(err)
	}
	uri = fmt.Sprintf("mongodb://%s:%s", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func TestAccountRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	client, err := mongodb.NewClient(ctx, uri)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close(context.Background()) })

	ar := mongodb.NewAccountRepository(client.Database("accounts_test").Collection("users"))
	require.NoError(t, ar.EnsureIndexes(ctx))
	require.NoError(t, ar.Ping(ctx))

	token := uuid.NewString()
	now := time.Now().UTC().Truncate(time.Millisecond)
	a := model.Account{
		ID:                uuid.New(),
		Email:             "life@example.com",
		PasswordHash:      "$2a$10$hash",
		Subscription:      model.SubscriptionStarter,
		VerificationToken: &token,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	_, err = ar.Create(ctx, a)
	require.NoError(t, err)

	dup := a
	dup.ID = uuid.New()
	dup.VerificationToken = nil
	_, err = ar.Create(ctx, dup)
	require.ErrorIs(t, err, model.ErrAlreadyExists)

	got, err := ar.GetByVerificationToken(ctx, token)
	require.NoError(t, err)
	require.Equal(t, a.ID, got.ID)

	require.NoError(t, ar.MarkVerified(ctx, a.ID, token))
	require.ErrorIs(t, ar.MarkVerified(ctx, a.ID, token), model.ErrNotFound)
	_, err = ar.GetByVerificationToken(ctx, token)
	require.ErrorIs(t, err, model.ErrNotFound)

	session := "session-jwt"
	require.NoError(t, ar.SetSessionToken(ctx, a.ID, &session))
	got, err = ar.GetByEmail(ctx, a.Email)
	require.NoError(t, err)
	require.True(t, got.Verified)
	require.Nil(t, got.VerificationToken)
	require.Equal(t, session, *got.SessionToken)

	require.NoError(t, ar.SetSessionToken(ctx, a.ID, nil))
	got, err = ar.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Nil(t, got.SessionToken)
}
