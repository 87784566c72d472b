// Package accountrepo manages repository layer of accounts.
package accountrepo

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/idgen"
	"github.com/shopspring/decimal"
)

// RepoMem is an in-memory account store with a user to accounts index.
//
// Every method is safe for concurrent use. It does not enforce business rules:
// ownership, tier limits and balance checks belong to the service and ledger layers.
type RepoMem struct {
	mu        sync.RWMutex
	ids       *idgen.Generator
	accounts  map[int64]domain.Account
	userIndex map[int64][]int64 // account ids in creation order
	now       func() time.Time
}

// NewRepoMem returns an empty account RepoMem.
func NewRepoMem() *RepoMem {
	return &RepoMem{
		ids:       idgen.New(),
		accounts:  make(map[int64]domain.Account),
		userIndex: make(map[int64][]int64),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new zero-balance account for the given user and returns it.
func (r *RepoMem) Create(ctx context.Context, userID int64) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a := domain.Account{
		Meta:    domain.NewMeta(r.ids.Next(), r.now()),
		UserID:  userID,
		Balance: decimal.Zero,
	}

	r.accounts[a.ID] = a
	r.userIndex[userID] = append(r.userIndex[userID], a.ID)

	return a, nil
}

// CountByUser returns the number of accounts owned by the user.
func (r *RepoMem) CountByUser(ctx context.Context, userID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.userIndex[userID])
}

// Get returns the account with the given id.
func (r *RepoMem) Get(ctx context.Context, id int64) (domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[id]
	if !ok {
		return domain.Account{}, domain.NewNotFound(domain.EntityAccount, id)
	}

	return a, nil
}

// ListByUser returns the accounts owned by the user in creation order.
func (r *RepoMem) ListByUser(ctx context.Context, userID int64) ([]domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.userIndex[userID]
	items := make([]domain.Account, 0, len(ids))

	for _, id := range ids {
		if a, ok := r.accounts[id]; ok {
			items = append(items, a)
		}
	}

	return items, nil
}

// List returns all accounts ordered by id.
func (r *RepoMem) List(ctx context.Context) ([]domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]domain.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		items = append(items, a)
	}

	slices.SortFunc(items, func(a, b domain.Account) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return items, nil
}

// UpdateBalance overwrites the account balance and returns the changed account.
//
// The new value is not validated.
func (r *RepoMem) UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return domain.Account{}, domain.NewNotFound(domain.EntityAccount, id)
	}

	a.Balance = balance
	a.Touch(r.now())
	r.accounts[id] = a

	return a, nil
}

// Update replaces the account data, moving it between user indexes when the owner changes.
func (r *RepoMem) Update(ctx context.Context, id int64, arg domain.UpdateAccountParams) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return domain.Account{}, domain.NewNotFound(domain.EntityAccount, id)
	}

	if a.UserID != arg.UserID {
		r.unindex(a.UserID, id)
		r.userIndex[arg.UserID] = append(r.userIndex[arg.UserID], id)
	}

	a.UserID = arg.UserID
	a.Touch(r.now())
	r.accounts[id] = a

	return a, nil
}

// Delete removes the account from the store and from its owner's index.
func (r *RepoMem) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return domain.NewNotFound(domain.EntityAccount, id)
	}

	delete(r.accounts, id)
	r.unindex(a.UserID, id)

	return nil
}

// unindex drops the account id from the user's index. Must hold r.mu.
func (r *RepoMem) unindex(userID, id int64) {
	ids := slices.DeleteFunc(r.userIndex[userID], func(v int64) bool { return v == id })
	if len(ids) == 0 {
		delete(r.userIndex, userID)
		return
	}

	r.userIndex[userID] = ids
}

// Exists reports whether the account with the given id is stored.
func (r *RepoMem) Exists(ctx context.Context, id int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.accounts[id]

	return ok
}
