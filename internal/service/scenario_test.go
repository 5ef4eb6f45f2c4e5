package service_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/accounts-server/internal/apperrors"
	"github.com/dtroode/accounts-server/internal/imaging"
	"github.com/dtroode/accounts-server/internal/model"
	"github.com/dtroode/accounts-server/internal/password"
	"github.com/dtroode/accounts-server/internal/repository/memory"
	"github.com/dtroode/accounts-server/internal/service"
	"github.com/dtroode/accounts-server/internal/storage/local"
	"github.com/dtroode/accounts-server/internal/testutil"
	"github.com/dtroode/accounts-server/internal/token"
)

type outbox struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (o *outbox) SendVerification(_ context.Context, email, verificationToken string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tokens[email] = verificationToken
	return nil
}

func (o *outbox) last(email string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.tokens[email]
}

type stack struct {
	accounts *service.Account
	tokens   *service.TokenService
	outbox   *outbox
}

func newStack(t *testing.T) stack {
	t.Helper()
	store := memory.NewAccountRepository()
	issuer := token.NewJWT("test-secret")
	dir, err := local.NewDir(t.TempDir())
	require.NoError(t, err)
	box := &outbox{tokens: map[string]string{}}
	log := testutil.MakeNoopLogger()

	return stack{
		accounts: service.NewAccount(store, password.NewBcrypt(bcrypt.MinCost), issuer, box,
			imaging.NewResizer(32), dir, time.Hour, log),
		tokens: service.NewTokenService(issuer, store, log),
		outbox: box,
	}
}

func TestScenario_RegisterVerifyLoginLogout(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	account, err := s.accounts.Register(ctx, model.RegisterParams{Email: "a@x.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionStarter, account.Subscription)

	_, err = s.accounts.Register(ctx, model.RegisterParams{Email: "a@x.com", Password: "other1"})
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	_, err = s.accounts.Login(ctx, "a@x.com", "secret")
	assert.Equal(t, apperrors.NewErrWrongCredentials(), apperrors.Public(err))

	verificationToken := s.outbox.last("a@x.com")
	require.NotEmpty(t, verificationToken)
	require.NoError(t, s.accounts.Verify(ctx, verificationToken))
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(s.accounts.Verify(ctx, verificationToken)))
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(s.accounts.ResendVerification(ctx, "a@x.com")))

	_, err = s.accounts.Login(ctx, "a@x.com", "wrong!")
	assert.Equal(t, apperrors.NewErrWrongCredentials(), apperrors.Public(err))

	session, err := s.accounts.Login(ctx, "a@x.com", "secret")
	require.NoError(t, err)

	id, err := s.tokens.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	current, err := s.accounts.GetCurrent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", current.Email)
	assert.Equal(t, model.SubscriptionStarter, current.Subscription)

	require.NoError(t, s.accounts.Logout(ctx, id))
	require.NoError(t, s.accounts.Logout(ctx, id))
	_, err = s.tokens.Authenticate(ctx, session.Token)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
}

func TestScenario_OnlyLatestSessionAuthenticates(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	_, err := s.accounts.Register(ctx, model.RegisterParams{Email: "b@x.com", Password: "secret"})
	require.NoError(t, err)
	require.NoError(t, s.accounts.Verify(ctx, s.outbox.last("b@x.com")))

	first, err := s.accounts.Login(ctx, "b@x.com", "secret")
	require.NoError(t, err)
	second, err := s.accounts.Login(ctx, "b@x.com", "secret")
	require.NoError(t, err)
	require.NotEqual(t, first.Token, second.Token)

	_, err = s.tokens.Authenticate(ctx, first.Token)
	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(err))
	_, err = s.tokens.Authenticate(ctx, second.Token)
	assert.NoError(t, err)
}

func TestScenario_ResendDeliversWorkingToken(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	_, err := s.accounts.Register(ctx, model.RegisterParams{Email: "c@x.com", Password: "secret"})
	require.NoError(t, err)
	s.outbox.tokens = map[string]string{}

	require.NoError(t, s.accounts.ResendVerification(ctx, "c@x.com"))
	require.NoError(t, s.accounts.Verify(ctx, s.outbox.last("c@x.com")))

	assert.Equal(t, apperrors.KindUnauthorized, apperrors.KindOf(s.accounts.ResendVerification(ctx, "nobody@x.com")))
}

func TestScenario_ConcurrentRegistration(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.accounts.Register(ctx, model.RegisterParams{Email: "race@x.com", Password: "secret"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case apperrors.KindOf(err) == apperrors.KindConflict:
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)
}

func TestScenario_UpdateAvatar(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	account, err := s.accounts.Register(ctx, model.RegisterParams{Email: "d@x.com", Password: "secret"})
	require.NoError(t, err)

	src := image.NewRGBA(image.Rect(0, 0, 64, 48))
	src.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	first, err := s.accounts.UpdateAvatar(ctx, account.ID, bytes.NewReader(buf.Bytes()), "me.png")
	require.NoError(t, err)
	second, err := s.accounts.UpdateAvatar(ctx, account.ID, bytes.NewReader(buf.Bytes()), "me.png")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	current, err := s.accounts.GetCurrent(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, second, current.AvatarURL)

	_, err = s.accounts.UpdateAvatar(ctx, account.ID, bytes.NewReader([]byte("not an image")), "x.png")
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
}
