package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/dtroode/accounts-server/internal/model"
)

var _ model.AccountStore = (*AccountRepository)(nil)

// accountDocument is the stored shape of model.Account.
type accountDocument struct {
	ID                string    `bson:"_id"`
	Email             string    `bson:"email"`
	PasswordHash      string    `bson:"password"`
	Subscription      string    `bson:"subscription"`
	AvatarURL         string    `bson:"avatarURL"`
	Verified          bool      `bson:"verify"`
	VerificationToken *string   `bson:"verificationToken,omitempty"`
	SessionToken      *string   `bson:"token"`
	CreatedAt         time.Time `bson:"createdAt"`
	UpdatedAt         time.Time `bson:"updatedAt"`
}

func toDocument(a model.Account) accountDocument {
	return accountDocument{
		ID:                a.ID.String(),
		Email:             a.Email,
		PasswordHash:      a.PasswordHash,
		Subscription:      string(a.Subscription),
		AvatarURL:         a.AvatarURL,
		Verified:          a.Verified,
		VerificationToken: a.VerificationToken,
		SessionToken:      a.SessionToken,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

func (d accountDocument) toAccount() (model.Account, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return model.Account{}, fmt.Errorf("failed to parse account id: %w", err)
	}
	return model.Account{
		ID:                id,
		Email:             d.Email,
		PasswordHash:      d.PasswordHash,
		Subscription:      model.Subscription(d.Subscription),
		AvatarURL:         d.AvatarURL,
		Verified:          d.Verified,
		VerificationToken: d.VerificationToken,
		SessionToken:      d.SessionToken,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}, nil
}

// AccountRepository stores accounts as documents of one collection.
type AccountRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewAccountRepository creates a repository on top of coll.
func NewAccountRepository(coll *mongo.Collection) *AccountRepository {
	return &AccountRepository{
		coll: coll,
		now:  time.Now,
	}
}

// EnsureIndexes creates the unique email index and the partial unique
// index over pending verification tokens.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "verificationToken", Value: 1}},
			Options: options.Index().
				SetName("verification_token_pending").
				SetUnique(true).
				SetPartialFilterExpression(bson.D{
					{Key: "verify", Value: false},
					{Key: "verificationToken", Value: bson.D{{Key: "$type", Value: "string"}}},
				}),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create account indexes: %w", err)
	}
	return nil
}

// Create inserts account. A duplicate email yields model.ErrAlreadyExists.
func (r *AccountRepository) Create(ctx context.Context, account model.Account) (model.Account, error) {
	if _, err := r.coll.InsertOne(ctx, toDocument(account)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.Account{}, model.ErrAlreadyExists
		}
		return model.Account{}, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

func (r *AccountRepository) findOne(ctx context.Context, what string, filter bson.D) (model.Account, error) {
	var doc accountDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by %s: %w", what, err)
	}
	return doc.toAccount()
}

// GetByID returns the account with id.
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	return r.findOne(ctx, "id", bson.D{{Key: "_id", Value: id.String()}})
}

// GetByEmail returns the account registered with email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	return r.findOne(ctx, "email", bson.D{{Key: "email", Value: email}})
}

// GetByVerificationToken returns the unverified account holding token.
func (r *AccountRepository) GetByVerificationToken(ctx context.Context, token string) (model.Account, error) {
	return r.findOne(ctx, "verification token", bson.D{
		{Key: "verificationToken", Value: token},
		{Key: "verify", Value: false},
	})
}

func (r *AccountRepository) updateOne(ctx context.Context, what string, filter, update bson.D) error {
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	if res.MatchedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

// MarkVerified flips the account to verified and consumes token. It fails
// with model.ErrNotFound when token is no longer pending on the account.
func (r *AccountRepository) MarkVerified(ctx context.Context, id uuid.UUID, token string) error {
	return r.updateOne(ctx, "mark account verified",
		bson.D{
			{Key: "_id", Value: id.String()},
			{Key: "verificationToken", Value: token},
			{Key: "verify", Value: false},
		},
		bson.D{
			{Key: "$set", Value: bson.D{{Key: "verify", Value: true}, {Key: "updatedAt", Value: r.now().UTC()}}},
			{Key: "$unset", Value: bson.D{{Key: "verificationToken", Value: ""}}},
		},
	)
}

// SetVerificationToken stores a new token on an unverified account.
func (r *AccountRepository) SetVerificationToken(ctx context.Context, id uuid.UUID, token string) error {
	return r.updateOne(ctx, "set verification token",
		bson.D{{Key: "_id", Value: id.String()}, {Key: "verify", Value: false}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "verificationToken", Value: token},
			{Key: "updatedAt", Value: r.now().UTC()},
		}}},
	)
}

// SetSessionToken replaces the session token; nil clears it.
func (r *AccountRepository) SetSessionToken(ctx context.Context, id uuid.UUID, token *string) error {
	return r.updateOne(ctx, "set session token",
		bson.D{{Key: "_id", Value: id.String()}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "token", Value: token},
			{Key: "updatedAt", Value: r.now().UTC()},
		}}},
	)
}

// SetAvatarURL replaces the avatar reference.
func (r *AccountRepository) SetAvatarURL(ctx context.Context, id uuid.UUID, url string) error {
	return r.updateOne(ctx, "set avatar url",
		bson.D{{Key: "_id", Value: id.String()}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "avatarURL", Value: url},
			{Key: "updatedAt", Value: r.now().UTC()},
		}}},
	)
}

// Ping checks that the primary answers.
func (r *AccountRepository) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, readpref.Primary())
}
