package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dtroode/accounts-server/internal/model"
)

const uniqueViolation = "23505"

// querier is the part of *Connection the repository needs.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

var _ model.AccountStore = (*AccountRepository)(nil)

// AccountRepository stores accounts in the accounts table.
type AccountRepository struct {
	db querier
}

// NewAccountRepository creates a repository on top of db.
func NewAccountRepository(db *Connection) *AccountRepository {
	return &AccountRepository{
		db: db,
	}
}

const accountColumns = `id, email, password_hash, subscription, avatar_url, verified,
	verification_token, session_token, created_at, updated_at`

func scanAccount(row pgx.Row) (model.Account, error) {
	var a model.Account
	err := row.Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.Subscription, &a.AvatarURL, &a.Verified,
		&a.VerificationToken, &a.SessionToken, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

func (r *AccountRepository) getOne(ctx context.Context, what, query string, arg any) (model.Account, error) {
	account, err := scanAccount(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by %s: %w", what, err)
	}
	return account, nil
}

// Create inserts account. A duplicate email yields model.ErrAlreadyExists.
func (r *AccountRepository) Create(ctx context.Context, account model.Account) (model.Account, error) {
	query := `INSERT INTO accounts (id, email, password_hash, subscription, avatar_url, verified,
			  verification_token, session_token, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING ` + accountColumns

	saved, err := scanAccount(r.db.QueryRow(ctx, query,
		account.ID, account.Email, account.PasswordHash, account.Subscription, account.AvatarURL, account.Verified,
		account.VerificationToken, account.SessionToken, account.CreatedAt, account.UpdatedAt,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.Account{}, model.ErrAlreadyExists
		}
		return model.Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	return saved, nil
}

// GetByID returns the account with id.
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	return r.getOne(ctx, "id", `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// GetByEmail returns the account registered with email.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	return r.getOne(ctx, "email", `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
}

// GetByVerificationToken returns the unverified account holding token.
func (r *AccountRepository) GetByVerificationToken(ctx context.Context, token string) (model.Account, error) {
	return r.getOne(ctx, "verification token",
		`SELECT `+accountColumns+` FROM accounts WHERE verification_token = $1 AND verified = FALSE`, token)
}

func (r *AccountRepository) execOne(ctx context.Context, what, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// MarkVerified consumes token. Only one caller can win for a given token.
func (r *AccountRepository) MarkVerified(ctx context.Context, id uuid.UUID, token string) error {
	return r.execOne(ctx, "mark account verified",
		`UPDATE accounts SET verified = TRUE, verification_token = NULL, updated_at = now()
		 WHERE id = $1 AND verification_token = $2 AND verified = FALSE`,
		id, token)
}

// SetVerificationToken replaces the token of an unverified account.
func (r *AccountRepository) SetVerificationToken(ctx context.Context, id uuid.UUID, token string) error {
	return r.execOne(ctx, "set verification token",
		`UPDATE accounts SET verification_token = $2, updated_at = now()
		 WHERE id = $1 AND verified = FALSE`,
		id, token)
}

// SetSessionToken overwrites the session token; nil clears it.
func (r *AccountRepository) SetSessionToken(ctx context.Context, id uuid.UUID, token *string) error {
	return r.execOne(ctx, "set session token",
		`UPDATE accounts SET session_token = $2, updated_at = now() WHERE id = $1`,
		id, token)
}

// SetAvatarURL updates the avatar reference.
func (r *AccountRepository) SetAvatarURL(ctx context.Context, id uuid.UUID, avatarURL string) error {
	return r.execOne(ctx, "set avatar url",
		`UPDATE accounts SET avatar_url = $2, updated_at = now() WHERE id = $1`,
		id, avatarURL)
}

// Ping checks the database is reachable.
func (r *AccountRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
