package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/accounts-server/internal/model"
)

var _ model.AccountStore = (*AccountRepository)(nil)

// AccountRepository keeps accounts in process memory.
type AccountRepository struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]model.Account
	byEmail  map[string]uuid.UUID
	now      func() time.Time
}

// NewAccountRepository returns an empty repository.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		accounts: make(map[uuid.UUID]model.Account),
		byEmail:  make(map[string]uuid.UUID),
		now:      time.Now,
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// clone detaches the pointer fields so callers never share them with the map.
func clone(a model.Account) model.Account {
	a.VerificationToken = cloneString(a.VerificationToken)
	a.SessionToken = cloneString(a.SessionToken)
	return a
}

func (r *AccountRepository) Create(_ context.Context, account model.Account) (model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[account.Email]; ok {
		return model.Account{}, model.ErrAlreadyExists
	}
	if _, ok := r.accounts[account.ID]; ok {
		return model.Account{}, model.ErrAlreadyExists
	}
	if account.VerificationToken != nil && !account.Verified {
		for _, a := range r.accounts {
			if !a.Verified && a.VerificationToken != nil && *a.VerificationToken == *account.VerificationToken {
				return model.Account{}, model.ErrAlreadyExists
			}
		}
	}

	r.accounts[account.ID] = clone(account)
	r.byEmail[account.Email] = account.ID
	return clone(account), nil
}

func (r *AccountRepository) GetByID(_ context.Context, id uuid.UUID) (model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[id]
	if !ok {
		return model.Account{}, model.ErrNotFound
	}
	return clone(a), nil
}

func (r *AccountRepository) GetByEmail(_ context.Context, email string) (model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return model.Account{}, model.ErrNotFound
	}
	return clone(r.accounts[id]), nil
}

func (r *AccountRepository) GetByVerificationToken(_ context.Context, token string) (model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.accounts {
		if !a.Verified && a.VerificationToken != nil && *a.VerificationToken == token {
			return clone(a), nil
		}
	}
	return model.Account{}, model.ErrNotFound
}

// update applies fn to the account with id under the write lock. fn reports
// whether the account matched its precondition.
func (r *AccountRepository) update(id uuid.UUID, fn func(a *model.Account) bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok || !fn(&a) {
		return model.ErrNotFound
	}
	a.UpdatedAt = r.now().UTC()
	r.accounts[id] = a
	return nil
}

func (r *AccountRepository) MarkVerified(_ context.Context, id uuid.UUID, token string) error {
	return r.update(id, func(a *model.Account) bool {
		if a.Verified || a.VerificationToken == nil || *a.VerificationToken != token {
			return false
		}
		a.Verified = true
		a.VerificationToken = nil
		return true
	})
}

func (r *AccountRepository) SetVerificationToken(_ context.Context, id uuid.UUID, token string) error {
	return r.update(id, func(a *model.Account) bool {
		if a.Verified {
			return false
		}
		a.VerificationToken = &token
		return true
	})
}

func (r *AccountRepository) SetSessionToken(_ context.Context, id uuid.UUID, token *string) error {
	token = cloneString(token)
	return r.update(id, func(a *model.Account) bool {
		a.SessionToken = token
		return true
	})
}

func (r *AccountRepository) SetAvatarURL(_ context.Context, id uuid.UUID, url string) error {
	return r.update(id, func(a *model.Account) bool {
		a.AvatarURL = url
		return true
	})
}

func (r *AccountRepository) Ping(context.Context) error {
	return nil
}
