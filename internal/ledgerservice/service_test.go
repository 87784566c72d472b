package ledgerservice

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/errorspkg"
	"github.com/go-petr/pet-ledger/pkg/keylock"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
	gomock "github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type decimalMatcher struct{ want decimal.Decimal }

func (m decimalMatcher) Matches(x interface{}) bool {
	d, ok := x.(decimal.Decimal)
	return ok && d.Equal(m.want)
}

func (m decimalMatcher) String() string { return fmt.Sprintf("is equal to %s", m.want) }

func eqDecimal(s string) gomock.Matcher {
	return decimalMatcher{want: decimal.RequireFromString(s)}
}

func randomAccount(id, userID int64, balance string) domain.Account {
	return domain.Account{
		Meta:    domain.NewMeta(id, time.Now().UTC().Truncate(time.Second)),
		UserID:  userID,
		Balance: decimal.RequireFromString(balance),
	}
}

func randomUser(id int64, isCorporate bool) domain.User {
	return domain.User{
		Meta:        domain.NewMeta(id, time.Now().UTC().Truncate(time.Second)),
		Username:    randompkg.Username(),
		Email:       randompkg.Email(),
		IsCorporate: isCorporate,
	}
}

func TestTransfer(t *testing.T) {
	t.Parallel()

	regular := randomUser(1, false)
	corporate := randomUser(2, true)

	from := randomAccount(1, regular.ID, "1000")
	toRegular := randomAccount(2, regular.ID, "50")
	toCorporate := randomAccount(3, corporate.ID, "50")

	type stubs struct {
		repo     *MockRepo
		accounts *MockAccountService
		users    *MockUserService
	}

	testCases := []struct {
		name       string
		arg        domain.TransferParams
		buildStubs func(s stubs)
		checkTx    func(t *testing.T, tx domain.Transaction)
		wantError  error
	}{
		{
			name: "OK",
			arg: domain.TransferParams{
				FromAccountID: from.ID,
				ToAccountID:   toRegular.ID,
				Amount:        decimal.RequireFromString("100"),
			},
			buildStubs: func(s stubs) {
				s.accounts.EXPECT().Get(gomock.Any(), gomock.Eq(from.ID)).Times(1).Return(from, nil)
				s.accounts.EXPECT().Get(gomock.Any(), gomock.Eq(toRegular.ID)).Times(1).Return(toRegular, nil)
				s.users.EXPECT().Get(gomock.Any(), gomock.Eq(regular.ID)).Times(2).Return(regular, nil)

				s.accounts.EXPECT().UpdateBalance(gomock.Any(), gomock.Eq(from.ID), eqDecimal("900")).Times(1)
				s.accounts.EXPECT().UpdateBalance(gomock.Any(), gomock.Eq(toRegular.ID), eqDecimal("150")).Times(1)

				s.repo.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Times(1).
					DoAndReturn(func(_ context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error) {
						return domain.Transaction{
							Meta:          domain.NewMeta(1, time.Now()),
							Type:          arg.Type,
							FromAccountID: arg.FromAccountID,
							ToAccountID:   arg.ToAccountID,
							Amount:        arg.Amount,
							Commission:    arg.Commission,
							Status:        domain.TransactionSuccess,
						}, nil
					})
			},
			checkTx: func(t *testing.T, tx domain.Transaction) {
				require.Equal(t, domain.TransactionTransfer, tx.Type)
				require.True(t, tx.Commission.IsZero())
				require.Equal(t, from.ID, *tx.FromAccountID)
				require.Equal(t, toRegular.ID, *tx.ToAccountID)
			},
		},
		{
			name: "CorporateRecipient",
			arg: domain.TransferParams{
				FromAccountID: from.ID,
				ToAccountID:   toCorporate.ID,
				Amount:        decimal.RequireFromString("100"),
			},
			buildStubs: func(s stubs) {
				s.accounts.EXPECT().Get(gomock.Any(), gomock.Eq(from.ID)).Times(1).Return(from, nil)
				s.accounts.EXPECT().Get(gomock.Any(), gomock.Eq(toCorporate.ID)).Times(1).Return(toCorporate, nil)
				s.users.EXPECT().Get(gomock.Any(), gomock.Eq(regular.ID)).Times(1).Return(regular, nil)
				s.users.EXPECT().Get(gomock.Any(), gomock.Eq(corporate.ID)).Times(1).Return(corporate, nil)

				s.accounts.EXPECT().UpdateBalance(gomock.Any(), gomock.Eq(from.ID), eqDecimal("899")).Times(1)
				s.accounts.EXPECT().UpdateBalance(gomock.Any(), gomock.Eq(toCorporate.ID), eqDecimal("150")).Times(1)

				s.repo.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Times(1).
					DoAndReturn(func(_ context.Context, arg domain.CreateTransactionParams) (domain.Transaction, error) {
						return domain.Transaction{Type: arg.Type, Amount: arg.Amount, Commission: arg.Commission}, nil
					})
			},
			checkTx: func(t *testing.T, tx domain.Transaction) {
				require.True(t, decimal.RequireFromString("1").Equal(tx.Commission), tx.Commission.String())
				require.True(t, decimal.RequireFromString("100").Equal(tx.Amount))
			},
		},
		{
			name: "SameAccount",
			arg: domain.TransferParams{
				FromAccountID: from.ID,
				ToAccountID:   from.ID,
				Amount:        decimal.RequireFromString("1"),
			},
			buildStubs: func(s stubs) {
				s.accounts.EXPECT().Get(gomock.Any(), gomock.Any()).Times(0)
				s.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			wantError: domain.ErrInvalidOperation,
		},
		{
			name: "NonPositiveAmount",
			arg: domain.TransferParams{
				FromAccountID: from.ID,
				ToAccountID:   toRegular.ID,
				Amount:        decimal.Zero,
			},
			buildStubs: func(s stubs) {
				s.accounts.EXPECT().Get(gomock.Any(), gomock.Any()).Times(0)
				s.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			wantError: domain.ErrInvalidOperation,
		},
		{
			name: "RecipientNotFound",
			arg: domain.TransferParams{
				FromAccountID: from.ID,
				ToAccountID:   404,
				Amount:        decimal.RequireFromString("1"),
			},
			buildStubs: func(s stubs) {
				s.accounts.EXPECT().Get(gomock.Any(), gomock.Eq(from.ID)).Times(1).Return(from, nil)
				s.accounts.EXPECT().
					Get(gomock.Any(), gomock.Eq(int64(404))).
					Times(1).
					Return(domain.Account{}, domain.NewNotFound(domain.EntityAccount, 404))
				s.accounts.EXPECT().UpdateBalance(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				s.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			wantError: domain.ErrNotFound,
		},
		{
			name: "InsufficientWithCommission",
			arg: domain.TransferParams{
				FromAccountID: from.ID,
				ToAccountID:   toCorporate.ID,
				Amount:        decimal.RequireFromString("1000"),
			},
			buildStubs: func(s stubs) {
				s.accounts.EXPECT().Get(gomock.Any(), gomock.Eq(from.ID)).Times(1).Return(from, nil)
				s.accounts.EXPECT().Get(gomock.Any(), gomock.Eq(toCorporate.ID)).Times(1).Return(toCorporate, nil)
				s.users.EXPECT().Get(gomock.Any(), gomock.Eq(regular.ID)).Times(1).Return(regular, nil)
				s.users.EXPECT().Get(gomock.Any(), gomock.Eq(corporate.ID)).Times(1).Return(corporate, nil)
				s.accounts.EXPECT().UpdateBalance(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				s.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
			},
			wantError: domain.ErrInsufficientBalance,
		},
		{
			name: "RepoErrRestoresBalances",
			arg: domain.TransferParams{
				FromAccountID: from.ID,
				ToAccountID:   toRegular.ID,
				Amount:        decimal.RequireFromString("100"),
			},
			buildStubs: func(s stubs) {
				s.accounts.EXPECT().Get(gomock.Any(), gomock.Eq(from.ID)).Times(1).Return(from, nil)
				s.accounts.EXPECT().Get(gomock.Any(), gomock.Eq(toRegular.ID)).Times(1).Return(toRegular, nil)
				s.users.EXPECT().Get(gomock.Any(), gomock.Eq(regular.ID)).Times(2).Return(regular, nil)

				gomock.InOrder(
					s.accounts.EXPECT().UpdateBalance(gomock.Any(), gomock.Eq(from.ID), eqDecimal("900")),
					s.accounts.EXPECT().UpdateBalance(gomock.Any(), gomock.Eq(toRegular.ID), eqDecimal("150")),
					s.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(domain.Transaction{}, errorspkg.ErrInternal),
					s.accounts.EXPECT().UpdateBalance(gomock.Any(), gomock.Eq(toRegular.ID), eqDecimal("50")),
					s.accounts.EXPECT().UpdateBalance(gomock.Any(), gomock.Eq(from.ID), eqDecimal("1000")),
				)
			},
			wantError: errorspkg.ErrInternal,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			s := stubs{
				repo:     NewMockRepo(ctrl),
				accounts: NewMockAccountService(ctrl),
				users:    NewMockUserService(ctrl),
			}
			ledger := New(s.repo, s.accounts, s.users, keylock.New(), DefaultOptions(), nil)

			tc.buildStubs(s)

			got, err := ledger.Transfer(context.Background(), tc.arg)
			if tc.wantError != nil {
				if !errors.Is(err, tc.wantError) {
					t.Fatalf("ledger.Transfer(context.Background(), %+v) got error %v, want %v", tc.arg, err, tc.wantError)
				}

				return
			}

			if err != nil {
				t.Fatalf("ledger.Transfer(context.Background(), %+v) returned unexpected error %v", tc.arg, err)
			}

			tc.checkTx(t, got)
		})
	}
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	account := randomAccount(1, 1, "10")

	repo := NewMockRepo(ctrl)
	accounts := NewMockAccountService(ctrl)
	metrics := NewMockMetrics(ctrl)
	ledger := New(repo, accounts, NewMockUserService(ctrl), keylock.New(), DefaultOptions(), metrics)

	accounts.EXPECT().Get(gomock.Any(), gomock.Eq(account.ID)).Times(2).Return(account, nil)
	accounts.EXPECT().UpdateBalance(gomock.Any(), gomock.Eq(account.ID), eqDecimal("15")).Times(1)
	repo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		Times(1).
		Return(domain.Transaction{Type: domain.TransactionDeposit, Commission: decimal.Zero}, nil)

	metrics.EXPECT().TransactionCommitted(gomock.Eq(domain.TransactionDeposit), gomock.Any(), gomock.Any()).Times(1)
	metrics.EXPECT().TransactionRejected(gomock.Eq(domain.TransactionWithdraw), gomock.Any()).Times(1)

	_, err := ledger.Deposit(context.Background(), domain.DepositParams{AccountID: account.ID, Amount: decimal.NewFromInt(5)})
	require.NoError(t, err)

	_, err = ledger.Withdraw(context.Background(), domain.WithdrawParams{AccountID: account.ID, Amount: decimal.NewFromInt(50)})
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
}
