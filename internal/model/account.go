package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Subscription is the plan an account is on.
type Subscription string

const (
	// SubscriptionStarter is the default plan.
	SubscriptionStarter Subscription = "starter"
	// SubscriptionPro is the pro plan.
	SubscriptionPro Subscription = "pro"
	// SubscriptionBusiness is the business plan.
	SubscriptionBusiness Subscription = "business"
)

// Subscriptions lists every known plan.
var Subscriptions = []Subscription{SubscriptionStarter, SubscriptionPro, SubscriptionBusiness}

// AccountStore defines persistence operations for accounts.
//
// Every mutating method names the fields it is allowed to touch.
type AccountStore interface {
	Create(ctx context.Context, account Account) (Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (Account, error)
	GetByEmail(ctx context.Context, email string) (Account, error)
	// GetByVerificationToken looks up unverified accounts only.
	GetByVerificationToken(ctx context.Context, token string) (Account, error)
	// MarkVerified sets verified and clears the verification token if the
	// account still holds token. Returns ErrNotFound otherwise.
	MarkVerified(ctx context.Context, id uuid.UUID, token string) error
	SetVerificationToken(ctx context.Context, id uuid.UUID, token string) error
	// SetSessionToken replaces the single active session token; nil clears it.
	SetSessionToken(ctx context.Context, id uuid.UUID, token *string) error
	SetAvatarURL(ctx context.Context, id uuid.UUID, avatarURL string) error
	Ping(ctx context.Context) error
}

// Account represents a registered user.
type Account struct {
	ID                uuid.UUID
	Email             string
	PasswordHash      string
	Subscription      Subscription
	AvatarURL         string
	Verified          bool
	VerificationToken *string
	SessionToken      *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// RegisterParams contains parameters to register an account.
type RegisterParams struct {
	Email        string
	Password     string
	Subscription Subscription
}

// Session is the result of a successful login.
type Session struct {
	Token   string
	Account Account
}
