// Package userrepo manages repository layer of users.
package userrepo

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/idgen"
)

// RepoMem is an in-memory user store with unique username and email indexes.
//
// Every method is safe for concurrent use. Uniqueness checks, id allocation and
// index updates happen under one write lock, so two callers can never register
// the same username or email.
type RepoMem struct {
	mu         sync.RWMutex
	ids        *idgen.Generator
	users      map[int64]domain.User
	byUsername map[string]int64
	byEmail    map[string]int64
	now        func() time.Time
}

// NewRepoMem returns an empty user RepoMem.
func NewRepoMem() *RepoMem {
	return &RepoMem{
		ids:        idgen.New(),
		users:      make(map[int64]domain.User),
		byUsername: make(map[string]int64),
		byEmail:    make(map[string]int64),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new user and returns it.
//
// It fails with DuplicateElementError before allocating an id if the username or
// email is already taken.
func (r *RepoMem) Create(ctx context.Context, arg domain.CreateUserParams) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkUnique(0, arg.Username, arg.Email); err != nil {
		return domain.User{}, err
	}

	u := domain.User{
		Meta:        domain.NewMeta(r.ids.Next(), r.now()),
		Username:    arg.Username,
		Email:       arg.Email,
		IsCorporate: arg.IsCorporate,
	}

	r.users[u.ID] = u
	r.byUsername[u.Username] = u.ID
	r.byEmail[u.Email] = u.ID

	return u, nil
}

// checkUnique reports a conflict with any user other than self. Must hold r.mu.
func (r *RepoMem) checkUnique(self int64, username, email string) error {
	if id, ok := r.byUsername[username]; ok && id != self {
		return &domain.DuplicateElementError{Field: "Username", Value: username}
	}

	if id, ok := r.byEmail[email]; ok && id != self {
		return &domain.DuplicateElementError{Field: "Email", Value: email}
	}

	return nil
}

// Get returns the user with the given id.
func (r *RepoMem) Get(ctx context.Context, id int64) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.NewNotFound(domain.EntityUser, id)
	}

	return u, nil
}

// List returns all users ordered by id.
func (r *RepoMem) List(ctx context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		items = append(items, u)
	}

	slices.SortFunc(items, func(a, b domain.User) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return items, nil
}

// Update replaces the user fields, keeping its id and creation time.
//
// The username and email indexes follow the new values.
func (r *RepoMem) Update(ctx context.Context, id int64, arg domain.UpdateUserParams) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.NewNotFound(domain.EntityUser, id)
	}

	if err := r.checkUnique(id, arg.Username, arg.Email); err != nil {
		return domain.User{}, err
	}

	delete(r.byUsername, u.Username)
	delete(r.byEmail, u.Email)

	u.Username = arg.Username
	u.Email = arg.Email
	u.IsCorporate = arg.IsCorporate
	u.Touch(r.now())

	r.users[id] = u
	r.byUsername[u.Username] = id
	r.byEmail[u.Email] = id

	return u, nil
}

// Delete removes the user and frees its username and email.
func (r *RepoMem) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return domain.NewNotFound(domain.EntityUser, id)
	}

	delete(r.users, id)
	delete(r.byUsername, u.Username)
	delete(r.byEmail, u.Email)

	return nil
}

// Exists reports whether the user with the given id is stored.
func (r *RepoMem) Exists(ctx context.Context, id int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.users[id]

	return ok
}
