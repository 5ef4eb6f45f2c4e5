package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/accounts-server/internal/apperrors"
	"github.com/dtroode/accounts-server/internal/avatar"
	"github.com/dtroode/accounts-server/internal/logger"
	"github.com/dtroode/accounts-server/internal/model"
)

// DefaultSessionTTL is how long a login stays valid unless configured otherwise.
const DefaultSessionTTL = 23 * time.Hour

// Account runs the account lifecycle: registration, email verification,
// login into a single active session, logout and avatar updates.
type Account struct {
	store      model.AccountStore
	hasher     model.Hasher
	tokens     model.TokenManager
	notifier   model.Notifier
	images     model.ImageProcessor
	storage    model.Storage
	sessionTTL time.Duration
	logger     *logger.Logger
	now        func() time.Time

	decoyOnce sync.Once
	decoyHash string
}

func NewAccount(
	store model.AccountStore,
	hasher model.Hasher,
	tokens model.TokenManager,
	notifier model.Notifier,
	images model.ImageProcessor,
	storage model.Storage,
	sessionTTL time.Duration,
	logger *logger.Logger,
) *Account {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &Account{
		store:      store,
		hasher:     hasher,
		tokens:     tokens,
		notifier:   notifier,
		images:     images,
		storage:    storage,
		sessionTTL: sessionTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// Register creates an unverified account and sends its verification link.
// The account is stored before the link is sent; a failed send is logged
// and can be retried with ResendVerification.
func (a *Account) Register(ctx context.Context, params model.RegisterParams) (model.Account, error) {
	a.logger.Debug("Account service: starting registration",
		"email", params.Email)

	subscription := params.Subscription
	if subscription == "" {
		subscription = model.SubscriptionStarter
	}
	if !slices.Contains(model.Subscriptions, subscription) {
		return model.Account{}, apperrors.NewErrValidation(fmt.Sprintf("unknown subscription %q", subscription))
	}

	_, err := a.store.GetByEmail(ctx, params.Email)
	switch {
	case err == nil:
		a.logger.Info("Account service: email already registered",
			"email", params.Email)
		return model.Account{}, apperrors.NewErrEmailInUse()
	case !errors.Is(err, model.ErrNotFound):
		a.logger.Error("Account service: failed to get account by email",
			"email", params.Email,
			"error", err.Error())
		return model.Account{}, fmt.Errorf("failed to get account by email: %w", err)
	}

	passwordHash, err := a.hasher.Hash(params.Password)
	if err != nil {
		if errors.Is(err, model.ErrPasswordTooLong) {
			return model.Account{}, apperrors.NewErrValidation(
				fmt.Sprintf("password: the length must be no more than %d bytes", model.MaxPasswordBytes))
		}
		a.logger.Error("Account service: failed to hash password",
			"email", params.Email,
			"error", err.Error())
		return model.Account{}, fmt.Errorf("failed to hash password: %w", err)
	}

	verificationToken := uuid.NewString()
	now := a.now().UTC()
	account, err := a.store.Create(ctx, model.Account{
		ID:                uuid.New(),
		Email:             params.Email,
		PasswordHash:      passwordHash,
		Subscription:      subscription,
		AvatarURL:         avatar.Gravatar(params.Email),
		VerificationToken: &verificationToken,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			a.logger.Info("Account service: concurrent registration lost the race",
				"email", params.Email)
			return model.Account{}, apperrors.NewErrEmailInUse()
		}
		a.logger.Error("Account service: failed to create account",
			"email", params.Email,
			"error", err.Error())
		return model.Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	if err := a.notifier.SendVerification(ctx, account.Email, verificationToken); err != nil {
		a.logger.Warn("Account service: failed to send verification email",
			"account_id", account.ID,
			"error", err.Error())
	}

	a.logger.Info("Account service: account registered",
		"account_id", account.ID,
		"subscription", account.Subscription)

	return account, nil
}

// Verify consumes verificationToken and marks its account verified.
func (a *Account) Verify(ctx context.Context, verificationToken string) error {
	account, err := a.store.GetByVerificationToken(ctx, verificationToken)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			a.logger.Info("Account service: unknown verification token")
			return apperrors.NewErrVerificationNotFound()
		}
		a.logger.Error("Account service: failed to get account by verification token",
			"error", err.Error())
		return fmt.Errorf("failed to get account by verification token: %w", err)
	}

	if err := a.store.MarkVerified(ctx, account.ID, verificationToken); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			a.logger.Info("Account service: verification token already consumed",
				"account_id", account.ID)
			return apperrors.NewErrVerificationNotFound()
		}
		a.logger.Error("Account service: failed to mark account verified",
			"account_id", account.ID,
			"error", err.Error())
		return fmt.Errorf("failed to mark account verified: %w", err)
	}

	a.logger.Info("Account service: account verified",
		"account_id", account.ID)

	return nil
}

// ResendVerification sends the pending verification link again.
func (a *Account) ResendVerification(ctx context.Context, email string) error {
	account, err := a.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return apperrors.NewErrEmailNotFound()
		}
		a.logger.Error("Account service: failed to get account by email",
			"email", email,
			"error", err.Error())
		return fmt.Errorf("failed to get account by email: %w", err)
	}

	if account.Verified {
		return apperrors.NewErrAlreadyVerified()
	}

	var token string
	if account.VerificationToken != nil {
		token = *account.VerificationToken
	} else {
		token = uuid.NewString()
		if err := a.store.SetVerificationToken(ctx, account.ID, token); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return apperrors.NewErrAlreadyVerified()
			}
			a.logger.Error("Account service: failed to store verification token",
				"account_id", account.ID,
				"error", err.Error())
			return fmt.Errorf("failed to store verification token: %w", err)
		}
	}

	if err := a.notifier.SendVerification(ctx, account.Email, token); err != nil {
		a.logger.Error("Account service: failed to resend verification email",
			"account_id", account.ID,
			"error", err.Error())
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	a.logger.Info("Account service: verification email resent",
		"account_id", account.ID)

	return nil
}

// Login checks credentials of a verified account and starts a new session,
// replacing any previous one. Every credential failure yields the same error.
func (a *Account) Login(ctx context.Context, email, password string) (model.Session, error) {
	account, err := a.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			a.logger.Info("Account service: login rejected",
				"reason", "unknown email")
			a.compareDecoy(password)
			return model.Session{}, apperrors.NewErrWrongCredentials()
		}
		a.logger.Error("Account service: failed to get account by email",
			"email", email,
			"error", err.Error())
		return model.Session{}, fmt.Errorf("failed to get account by email: %w", err)
	}

	if !account.Verified {
		a.logger.Info("Account service: login rejected",
			"account_id", account.ID,
			"reason", "not verified")
		a.compareDecoy(password)
		return model.Session{}, apperrors.NewErrWrongCredentials()
	}

	ok, err := a.hasher.Compare(password, account.PasswordHash)
	if err != nil {
		a.logger.Error("Account service: failed to compare password",
			"account_id", account.ID,
			"error", err.Error())
		return model.Session{}, fmt.Errorf("failed to compare password: %w", err)
	}
	if !ok {
		a.logger.Info("Account service: login rejected",
			"account_id", account.ID,
			"reason", "wrong password")
		return model.Session{}, apperrors.NewErrWrongCredentials()
	}

	token, err := a.tokens.GenerateSessionToken(account.ID, a.sessionTTL)
	if err != nil {
		a.logger.Error("Account service: failed to generate session token",
			"account_id", account.ID,
			"error", err.Error())
		return model.Session{}, fmt.Errorf("failed to generate session token: %w", err)
	}

	if err := a.store.SetSessionToken(ctx, account.ID, &token); err != nil {
		a.logger.Error("Account service: failed to store session token",
			"account_id", account.ID,
			"error", err.Error())
		return model.Session{}, fmt.Errorf("failed to store session token: %w", err)
	}
	account.SessionToken = &token

	a.logger.Info("Account service: logged in",
		"account_id", account.ID)

	return model.Session{Token: token, Account: account}, nil
}

// compareDecoy spends one hash comparison so rejected logins take as long
// as a wrong password.
func (a *Account) compareDecoy(password string) {
	a.decoyOnce.Do(func() {
		h, err := a.hasher.Hash(uuid.NewString())
		if err != nil {
			a.logger.Error("Account service: failed to hash decoy password",
				"error", err.Error())
			return
		}
		a.decoyHash = h
	})
	if a.decoyHash == "" {
		return
	}
	_, _ = a.hasher.Compare(password, a.decoyHash)
}

// Logout ends the active session. Logging out twice is not an error.
func (a *Account) Logout(ctx context.Context, accountID uuid.UUID) error {
	if err := a.store.SetSessionToken(ctx, accountID, nil); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return apperrors.NewErrNotAuthorized()
		}
		a.logger.Error("Account service: failed to clear session token",
			"account_id", accountID,
			"error", err.Error())
		return fmt.Errorf("failed to clear session token: %w", err)
	}

	a.logger.Info("Account service: logged out",
		"account_id", accountID)

	return nil
}

// GetCurrent returns the account behind an authenticated session.
func (a *Account) GetCurrent(ctx context.Context, accountID uuid.UUID) (model.Account, error) {
	account, err := a.store.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Account{}, apperrors.NewErrNotAuthorized()
		}
		a.logger.Error("Account service: failed to get account by id",
			"account_id", accountID,
			"error", err.Error())
		return model.Account{}, fmt.Errorf("failed to get account by id: %w", err)
	}
	return account, nil
}
