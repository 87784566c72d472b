package tests

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/go-petr/pet-ledger/internal/integrationtest"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/stretchr/testify/require"
)

func TestLedgerScenarioAPI(t *testing.T) {
	t.Parallel()

	server := integrationtest.SetupServer(t)

	getBalance := func(id int64) string {
		t.Helper()

		recorder := integrationtest.Do(t, server, http.MethodGet, "/accounts/"+itoa(id), nil)
		require.Equal(t, http.StatusOK, recorder.Code)

		var got account
		integrationtest.Decode(t, recorder, &got)

		return got.Balance
	}

	recorder := integrationtest.Do(t, server, http.MethodPost, "/users",
		map[string]any{"username": "alice", "email": "alice@x.com"})
	require.Equal(t, http.StatusCreated, recorder.Code)

	var alice user
	integrationtest.Decode(t, recorder, &alice)
	require.Equal(t, int64(1), alice.ID)

	recorder = integrationtest.Do(t, server, http.MethodPost, "/accounts?user_id=1", nil)
	require.Equal(t, http.StatusCreated, recorder.Code)

	var account1 account
	integrationtest.Decode(t, recorder, &account1)
	require.Equal(t, account{ID: 1, UserID: 1, Balance: "0", Username: "alice"}, account1)

	recorder = integrationtest.Do(t, server, http.MethodPost, "/transactions/deposit",
		map[string]any{"account_id": 1, "amount": "500.00"})
	require.Equal(t, http.StatusCreated, recorder.Code)

	var deposit transaction
	integrationtest.Decode(t, recorder, &deposit)
	require.Equal(t, "DEPOSIT", deposit.Type)
	require.Equal(t, "SUCCESS", deposit.Status)
	require.Nil(t, deposit.FromAccountID)
	require.NotNil(t, deposit.ToAccountID)
	require.Equal(t, "500", getBalance(1))

	recorder = integrationtest.Do(t, server, http.MethodPost, "/transactions/withdraw",
		map[string]any{"account_id": 1, "amount": "600.00"})
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Equal(t, "There is not enough money in the account. Available: 500, Requirement: 600",
		integrationtest.Decode(t, recorder, nil))
	require.Equal(t, "500", getBalance(1))

	recorder = integrationtest.Do(t, server, http.MethodPost, "/users",
		map[string]any{"username": "bigco", "email": "bigco@x.com", "is_corporate": true})
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = integrationtest.Do(t, server, http.MethodPost, "/accounts?user_id=2", nil)
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = integrationtest.Do(t, server, http.MethodPost, "/transactions/transfer",
		map[string]any{"from_account_id": 1, "to_account_id": 2, "amount": "100.00"})
	require.Equal(t, http.StatusCreated, recorder.Code)

	var transfer transaction
	integrationtest.Decode(t, recorder, &transfer)
	require.Equal(t, "TRANSFER", transfer.Type)
	require.Equal(t, "100", transfer.Amount)
	require.Equal(t, "1", transfer.Commission)
	require.Equal(t, "399", getBalance(1))
	require.Equal(t, "100", getBalance(2))

	for i := 0; i < 4; i++ {
		recorder = integrationtest.Do(t, server, http.MethodPost, "/accounts?user_id=1", nil)
		require.Equal(t, http.StatusCreated, recorder.Code)
	}

	recorder = integrationtest.Do(t, server, http.MethodPost, "/accounts?user_id=1", nil)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Equal(t, "Regular user can open a maximum of 5 accounts. You already have 5 accounts",
		integrationtest.Decode(t, recorder, nil))

	recorder = integrationtest.Do(t, server, http.MethodGet, "/accounts/1/transactions", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var history []transaction
	integrationtest.Decode(t, recorder, &history)
	require.Len(t, history, 2)
	require.Equal(t, deposit.ID, history[0].ID)
	require.Equal(t, transfer.ID, history[1].ID)

	recorder = integrationtest.Do(t, server, http.MethodGet, "/transactions/"+itoa(transfer.ID), nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var got transaction
	integrationtest.Decode(t, recorder, &got)
	require.Equal(t, transfer, got)

	recorder = integrationtest.Do(t, server, http.MethodGet, "/transactions", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var all []transaction
	integrationtest.Decode(t, recorder, &all)
	require.Len(t, all, 2)

	recorder = integrationtest.Do(t, server, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), `ledger_transactions_total{status="rejected",type="WITHDRAW"} 1`)
}

func TestTransactionValidationAPI(t *testing.T) {
	t.Parallel()

	server := integrationtest.SetupServer(t)

	owner := integrationtest.SeedUser(t, server, false)
	seeded := integrationtest.SeedAccount(t, server, owner.ID, "10")

	testCases := []struct {
		name           string
		url            string
		body           map[string]any
		wantStatusCode int
		wantError      string
	}{
		{
			name:           "AmountBelowMinimum",
			url:            "/transactions/deposit",
			body:           map[string]any{"account_id": seeded.ID, "amount": "0.001"},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Amount must be a decimal of at least 0.01",
		},
		{
			name:           "MissingAmount",
			url:            "/transactions/withdraw",
			body:           map[string]any{"account_id": seeded.ID},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Amount must be a decimal of at least 0.01",
		},
		{
			name:           "AccountNotFound",
			url:            "/transactions/deposit",
			body:           map[string]any{"account_id": 404, "amount": "1"},
			wantStatusCode: http.StatusNotFound,
			wantError:      "Account ID: 404 not found",
		},
		{
			name:           "SameAccount",
			url:            "/transactions/transfer",
			body:           map[string]any{"from_account_id": seeded.ID, "to_account_id": seeded.ID, "amount": "1"},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "cannot transfer to the same account",
		},
		{
			name:           "LongDescription",
			url:            "/transactions/deposit",
			body:           map[string]any{"account_id": seeded.ID, "amount": "1", "description": strings.Repeat("a", 256)},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "Description must be at most 255",
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			recorder := integrationtest.Do(t, server, http.MethodPost, tc.url, tc.body)
			require.Equal(t, tc.wantStatusCode, recorder.Code)
			require.Contains(t, integrationtest.Decode(t, recorder, nil), tc.wantError)
		})
	}

	got, err := server.App.Accounts.Get(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Equal(t, "10", got.Balance.String())
}

func TestConcurrentWithdrawAPI(t *testing.T) {
	t.Parallel()

	server := integrationtest.SetupServer(t)

	owner := integrationtest.SeedUser(t, server, false)
	seeded := integrationtest.SeedAccount(t, server, owner.ID, "100")

	const n = 30

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)

	for i := 0; i < n; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			recorder := integrationtest.Do(t, server, http.MethodPost, "/transactions/withdraw",
				map[string]any{"account_id": seeded.ID, "amount": "10"})

			if recorder.Code == http.StatusCreated {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	require.Equal(t, 10, succeeded)

	got, err := server.App.Accounts.Get(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.True(t, got.Balance.IsZero())
}

func TestMetricsDisabledAPI(t *testing.T) {
	t.Parallel()

	config := configpkg.Default()
	config.MetricsEnabled = false

	server := integrationtest.SetupServerWith(t, config)

	recorder := integrationtest.Do(t, server, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusNotFound, recorder.Code)
}
