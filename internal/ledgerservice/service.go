// Package ledgerservice moves money between accounts and keeps the transaction log.
package ledgerservice

import (
	"context"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/keylock"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repo provides the transaction log needed by ledger service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package ledgerservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error)
	Get(ctx context.Context, id int64) (domain.Transaction, error)
	List(ctx context.Context) ([]domain.Transaction, error)
	ListByAccount(ctx context.Context, accountID int64) ([]domain.Transaction, error)
}

// AccountService provides account lookups and balance updates.
type AccountService interface {
	Get(ctx context.Context, id int64) (domain.Account, error)
	UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) (domain.Account, error)
}

// UserService provides lookups of account owners.
type UserService interface {
	Get(ctx context.Context, id int64) (domain.User, error)
}

// Metrics receives the outcome of every ledger operation.
type Metrics interface {
	TransactionCommitted(typ domain.TransactionType, commission decimal.Decimal, elapsed time.Duration)
	TransactionRejected(typ domain.TransactionType, elapsed time.Duration)
}

// Options configures the ledger.
type Options struct {
	// CommissionRate is charged on transfers to accounts of corporate users.
	CommissionRate decimal.Decimal
}

// DefaultOptions returns the options with a 1% commission rate.
func DefaultOptions() Options {
	return Options{CommissionRate: domain.DefaultCommissionRate}
}

// Service facilitates ledger service layer logic.
type Service struct {
	repo     Repo
	accounts AccountService
	users    UserService
	locks    *keylock.Locker
	opts     Options
	metrics  Metrics
}

// New returns ledger service struct to manage deposits, withdraws and transfers.
//
// locks must be the same locker the account service uses. metrics may be nil.
func New(tr Repo, as AccountService, us UserService, locks *keylock.Locker, opts Options, metrics Metrics) *Service {
	return &Service{
		repo:     tr,
		accounts: as,
		users:    us,
		locks:    locks,
		opts:     opts,
		metrics:  metrics,
	}
}

func validAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.NewInvalidOperation("amount must be positive")
	}

	return nil
}

// Deposit adds the amount to the account balance and records the transaction.
func (s *Service) Deposit(ctx context.Context, arg domain.DepositParams) (domain.Transaction, error) {
	start := time.Now()

	t, err := s.deposit(ctx, arg)
	s.observe(domain.TransactionDeposit, t, err, start)

	return t, err
}

func (s *Service) deposit(ctx context.Context, arg domain.DepositParams) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	if err := validAmount(arg.Amount); err != nil {
		l.Info().Err(err).Send()
		return domain.Transaction{}, err
	}

	unlock := s.locks.Lock(domain.AccountLockKey(arg.AccountID))
	defer unlock()

	account, err := s.accounts.Get(ctx, arg.AccountID)
	if err != nil {
		l.Info().Err(err).Send()
		return domain.Transaction{}, err
	}

	changes := []balanceChange{
		{account: account, balance: account.Balance.Add(arg.Amount)},
	}

	return s.commit(ctx, changes, domain.CreateTransactionParams{
		Type:        domain.TransactionDeposit,
		ToAccountID: &arg.AccountID,
		Amount:      arg.Amount,
		Commission:  decimal.Zero,
		Description: arg.Description,
	})
}

// Withdraw takes the amount from the account balance and records the transaction.
func (s *Service) Withdraw(ctx context.Context, arg domain.WithdrawParams) (domain.Transaction, error) {
	start := time.Now()

	t, err := s.withdraw(ctx, arg)
	s.observe(domain.TransactionWithdraw, t, err, start)

	return t, err
}

func (s *Service) withdraw(ctx context.Context, arg domain.WithdrawParams) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	if err := validAmount(arg.Amount); err != nil {
		l.Info().Err(err).Send()
		return domain.Transaction{}, err
	}

	unlock := s.locks.Lock(domain.AccountLockKey(arg.AccountID))
	defer unlock()

	account, err := s.accounts.Get(ctx, arg.AccountID)
	if err != nil {
		l.Info().Err(err).Send()
		return domain.Transaction{}, err
	}

	if account.Balance.LessThan(arg.Amount) {
		err := &domain.InsufficientBalanceError{Available: account.Balance, Required: arg.Amount}
		l.Info().Err(err).Int64("account_id", account.ID).Send()

		return domain.Transaction{}, err
	}

	changes := []balanceChange{
		{account: account, balance: account.Balance.Sub(arg.Amount)},
	}

	return s.commit(ctx, changes, domain.CreateTransactionParams{
		Type:          domain.TransactionWithdraw,
		FromAccountID: &arg.AccountID,
		Amount:        arg.Amount,
		Commission:    decimal.Zero,
		Description:   arg.Description,
	})
}

// Transfer moves the amount between two accounts and records the transaction.
//
// When the recipient's owner is corporate the sender also pays a commission of
// amount times the commission rate. The recipient always receives exactly amount.
func (s *Service) Transfer(ctx context.Context, arg domain.TransferParams) (domain.Transaction, error) {
	start := time.Now()

	t, err := s.transfer(ctx, arg)
	s.observe(domain.TransactionTransfer, t, err, start)

	return t, err
}

func (s *Service) transfer(ctx context.Context, arg domain.TransferParams) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	if arg.FromAccountID == arg.ToAccountID {
		err := domain.NewInvalidOperation("cannot transfer to the same account")
		l.Info().Err(err).Send()

		return domain.Transaction{}, err
	}

	if err := validAmount(arg.Amount); err != nil {
		l.Info().Err(err).Send()
		return domain.Transaction{}, err
	}

	unlock := s.locks.Lock(domain.AccountLockKey(arg.FromAccountID), domain.AccountLockKey(arg.ToAccountID))
	defer unlock()

	from, err := s.accounts.Get(ctx, arg.FromAccountID)
	if err != nil {
		l.Info().Err(err).Send()
		return domain.Transaction{}, err
	}

	to, err := s.accounts.Get(ctx, arg.ToAccountID)
	if err != nil {
		l.Info().Err(err).Send()
		return domain.Transaction{}, err
	}

	if _, err := s.users.Get(ctx, from.UserID); err != nil {
		l.Info().Err(err).Send()
		return domain.Transaction{}, err
	}

	recipient, err := s.users.Get(ctx, to.UserID)
	if err != nil {
		l.Info().Err(err).Send()
		return domain.Transaction{}, err
	}

	commission := decimal.Zero
	if recipient.IsCorporate {
		commission = arg.Amount.Mul(s.opts.CommissionRate)
	}

	required := arg.Amount.Add(commission)
	if from.Balance.LessThan(required) {
		err := &domain.InsufficientBalanceError{Available: from.Balance, Required: required}
		l.Info().Err(err).Int64("account_id", from.ID).Send()

		return domain.Transaction{}, err
	}

	changes := []balanceChange{
		{account: from, balance: from.Balance.Sub(required)},
		{account: to, balance: to.Balance.Add(arg.Amount)},
	}

	return s.commit(ctx, changes, domain.CreateTransactionParams{
		Type:          domain.TransactionTransfer,
		FromAccountID: &arg.FromAccountID,
		ToAccountID:   &arg.ToAccountID,
		Amount:        arg.Amount,
		Commission:    commission,
		Description:   arg.Description,
	})
}

type balanceChange struct {
	account domain.Account // as read under the lock
	balance decimal.Decimal
}

// commit applies the balance changes and appends the transaction.
//
// If any step fails the balances already written are restored, so the ledger
// is left as it was. The caller must hold the keys of every changed account.
func (s *Service) commit(ctx context.Context, changes []balanceChange, arg domain.CreateTransactionParams) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	applied := make([]balanceChange, 0, len(changes))

	rollback := func() {
		for i := len(applied) - 1; i >= 0; i-- {
			c := applied[i]
			if _, err := s.accounts.UpdateBalance(ctx, c.account.ID, c.account.Balance); err != nil {
				l.Error().Err(err).Int64("account_id", c.account.ID).Msg("balance rollback failed")
			}
		}
	}

	for _, c := range changes {
		if _, err := s.accounts.UpdateBalance(ctx, c.account.ID, c.balance); err != nil {
			l.Error().Err(err).Send()
			rollback()

			return domain.Transaction{}, err
		}

		applied = append(applied, c)
	}

	t, err := s.repo.Create(ctx, arg)
	if err != nil {
		l.Error().Err(err).Send()
		rollback()

		return domain.Transaction{}, err
	}

	l.Debug().
		Int64("transaction_id", t.ID).
		Str("type", string(t.Type)).
		Stringer("amount", t.Amount).
		Stringer("commission", t.Commission).
		Msg("transaction committed")

	return t, nil
}

func (s *Service) observe(typ domain.TransactionType, t domain.Transaction, err error, start time.Time) {
	if s.metrics == nil {
		return
	}

	if err != nil {
		s.metrics.TransactionRejected(typ, time.Since(start))
		return
	}

	s.metrics.TransactionCommitted(typ, t.Commission, time.Since(start))
}

// Get returns the transaction with the given id.
func (s *Service) Get(ctx context.Context, id int64) (domain.Transaction, error) {
	return s.repo.Get(ctx, id)
}

// List returns all transactions in the order they were committed.
func (s *Service) List(ctx context.Context) ([]domain.Transaction, error) {
	return s.repo.List(ctx)
}

// ListByAccount returns the transactions of an existing account in the order
// they were committed.
func (s *Service) ListByAccount(ctx context.Context, accountID int64) ([]domain.Transaction, error) {
	if _, err := s.accounts.Get(ctx, accountID); err != nil {
		zerolog.Ctx(ctx).Info().Err(err).Send()
		return nil, err
	}

	return s.repo.ListByAccount(ctx, accountID)
}
