// Package transactionrepo manages repository layer of ledger transactions.
package transactionrepo

import (
	"context"
	"sync"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/idgen"
)

// RepoMem is an append-only in-memory transaction log.
//
// Every method is safe for concurrent use.
type RepoMem struct {
	mu    sync.RWMutex
	ids   *idgen.Generator
	txs   map[int64]domain.Transaction
	order []int64 // ids in append order
	now   func() time.Time
}

// NewRepoMem returns an empty transaction RepoMem.
func NewRepoMem() *RepoMem {
	return &RepoMem{
		ids: idgen.New(),
		txs: make(map[int64]domain.Transaction),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Create appends a successful transaction to the log and returns it.
func (r *RepoMem) Create(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := domain.Transaction{
		Meta:          domain.NewMeta(r.ids.Next(), r.now()),
		Type:          arg.Type,
		FromAccountID: copyID(arg.FromAccountID),
		ToAccountID:   copyID(arg.ToAccountID),
		Amount:        arg.Amount,
		Commission:    arg.Commission,
		Status:        domain.TransactionSuccess,
		Description:   arg.Description,
	}

	r.txs[t.ID] = t
	r.order = append(r.order, t.ID)

	return t, nil
}

// Get returns the transaction with the given id.
func (r *RepoMem) Get(ctx context.Context, id int64) (domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.txs[id]
	if !ok {
		return domain.Transaction{}, domain.NewNotFound(domain.EntityTransaction, id)
	}

	return t, nil
}

// List returns all transactions in append order.
func (r *RepoMem) List(ctx context.Context) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filter(func(domain.Transaction) bool { return true }), nil
}

// ListByAccount returns the transactions where the account is the source or
// the destination, in append order.
func (r *RepoMem) ListByAccount(ctx context.Context, accountID int64) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filter(func(t domain.Transaction) bool { return t.Involves(accountID) }), nil
}

// filter must be called with r.mu held.
func (r *RepoMem) filter(keep func(domain.Transaction) bool) []domain.Transaction {
	items := []domain.Transaction{}

	for _, id := range r.order {
		t, ok := r.txs[id]
		if ok && keep(t) {
			items = append(items, t)
		}
	}

	return items
}

// Update replaces the description of the transaction.
func (r *RepoMem) Update(ctx context.Context, id int64, arg domain.UpdateTransactionParams) (domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.txs[id]
	if !ok {
		return domain.Transaction{}, domain.NewNotFound(domain.EntityTransaction, id)
	}

	t.Description = arg.Description
	t.Touch(r.now())
	r.txs[id] = t

	return t, nil
}

// Delete removes the transaction from the log.
func (r *RepoMem) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.txs[id]; !ok {
		return domain.NewNotFound(domain.EntityTransaction, id)
	}

	delete(r.txs, id)

	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	return nil
}

// Exists reports whether the transaction with the given id is stored.
func (r *RepoMem) Exists(ctx context.Context, id int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.txs[id]

	return ok
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}

	v := *id

	return &v
}
