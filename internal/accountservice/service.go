// Package accountservice manages business logic layer of accounts.
package accountservice

import (
	"context"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/keylock"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repo provides data access layer interface needed by account service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package accountservice
type Repo interface {
	Create(ctx context.Context, userID int64) (domain.Account, error)
	CountByUser(ctx context.Context, userID int64) int
	Get(ctx context.Context, id int64) (domain.Account, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)
	UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) (domain.Account, error)
	Update(ctx context.Context, id int64, arg domain.UpdateAccountParams) (domain.Account, error)
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, id int64) bool
}

// UserService provides user lookups needed to validate account ownership.
type UserService interface {
	Get(ctx context.Context, id int64) (domain.User, error)
}

// Metrics receives account lifecycle events.
type Metrics interface {
	AccountCreated()
	AccountLimitRejected()
}

// Limits holds the maximum number of accounts per user tier.
type Limits struct {
	Regular   int
	Corporate int
}

// DefaultLimits returns 5 accounts for regular users and 10 for corporate ones.
func DefaultLimits() Limits {
	return Limits{
		Regular:   domain.DefaultRegularAccountLimit,
		Corporate: domain.DefaultCorporateAccountLimit,
	}
}

// For returns the account limit that applies to the user.
func (l Limits) For(u domain.User) int {
	if u.IsCorporate {
		return l.Corporate
	}

	return l.Regular
}

// Service facilitates account service layer logic.
type Service struct {
	repo    Repo
	users   UserService
	locks   *keylock.Locker
	limits  Limits
	metrics Metrics
}

// New returns account service struct to manage account bussines logic.
//
// locks must be shared with every component that changes account balances.
// metrics may be nil.
func New(ar Repo, us UserService, locks *keylock.Locker, limits Limits, metrics Metrics) *Service {
	return &Service{
		repo:    ar,
		users:   us,
		locks:   locks,
		limits:  limits,
		metrics: metrics,
	}
}

// Create opens a zero-balance account for the given user.
//
// The user's account count is checked against its tier limit while the user's
// key is held, so concurrent calls cannot exceed the limit.
func (s *Service) Create(ctx context.Context, userID int64) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	unlock := s.locks.Lock(domain.UserLockKey(userID))
	defer unlock()

	u, err := s.users.Get(ctx, userID)
	if err != nil {
		l.Info().Err(err).Send()
		return domain.Account{}, err
	}

	limit := s.limits.For(u)

	current := s.repo.CountByUser(ctx, userID)
	if current >= limit {
		err := &domain.AccountLimitError{
			UserType: u.Type(),
			Limit:    limit,
			Current:  current,
		}

		l.Info().Err(err).Int64("user_id", userID).Send()

		if s.metrics != nil {
			s.metrics.AccountLimitRejected()
		}

		return domain.Account{}, err
	}

	account, err := s.repo.Create(ctx, userID)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Account{}, err
	}

	if s.metrics != nil {
		s.metrics.AccountCreated()
	}

	l.Debug().Int64("account_id", account.ID).Int64("user_id", userID).Msg("account created")

	return account, nil
}

// Get returns account for the given account ID.
func (s *Service) Get(ctx context.Context, id int64) (domain.Account, error) {
	return s.repo.Get(ctx, id)
}

// ListByUser returns accounts that are owned by the given user in creation order.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]domain.Account, error) {
	return s.repo.ListByUser(ctx, userID)
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]domain.Account, error) {
	return s.repo.List(ctx)
}

// UpdateBalance overwrites the account balance without validating it.
//
// It is the only way to change a balance. The caller must hold the account's
// lock key and is responsible for keeping the balance non-negative.
func (s *Service) UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) (domain.Account, error) {
	return s.repo.UpdateBalance(ctx, id, balance)
}

// Update reassigns the account to another user.
//
// The new owner must exist and have room under its tier limit.
func (s *Service) Update(ctx context.Context, id int64, arg domain.UpdateAccountParams) (domain.Account, error) {
	l := zerolog.Ctx(ctx)

	account, unlock, err := s.lockWithOwner(ctx, id, domain.UserLockKey(arg.UserID))
	if err != nil {
		l.Info().Err(err).Send()
		return domain.Account{}, err
	}
	defer unlock()

	if account.UserID != arg.UserID {
		u, err := s.users.Get(ctx, arg.UserID)
		if err != nil {
			l.Info().Err(err).Send()
			return domain.Account{}, err
		}

		limit := s.limits.For(u)
		if current := s.repo.CountByUser(ctx, arg.UserID); current >= limit {
			err := &domain.AccountLimitError{UserType: u.Type(), Limit: limit, Current: current}
			l.Info().Err(err).Send()

			return domain.Account{}, err
		}
	}

	return s.repo.Update(ctx, id, arg)
}

// Delete removes the account and drops it from its owner's account list.
func (s *Service) Delete(ctx context.Context, id int64) error {
	_, unlock, err := s.lockWithOwner(ctx, id)
	if err != nil {
		zerolog.Ctx(ctx).Info().Err(err).Send()
		return err
	}
	defer unlock()

	return s.repo.Delete(ctx, id)
}

// Exists reports whether the account with the given id exists.
func (s *Service) Exists(ctx context.Context, id int64) bool {
	return s.repo.Exists(ctx, id)
}

// lockWithOwner locks the account, its current owner and the extra keys, and
// returns the account as seen under the lock.
func (s *Service) lockWithOwner(ctx context.Context, id int64, extra ...string) (domain.Account, func(), error) {
	for {
		seen, err := s.repo.Get(ctx, id)
		if err != nil {
			return domain.Account{}, nil, err
		}

		keys := append([]string{domain.AccountLockKey(id), domain.UserLockKey(seen.UserID)}, extra...)
		unlock := s.locks.Lock(keys...)

		account, err := s.repo.Get(ctx, id)
		if err != nil {
			unlock()
			return domain.Account{}, nil, err
		}

		if account.UserID == seen.UserID {
			return account, unlock, nil
		}

		// The owner changed before the lock was taken.
		unlock()
	}
}
