// Package integrationtest provides server and seed helpers used in end-to-end tests.
package integrationtest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/go-petr/pet-ledger/cmd/httpserver"
	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SetupServer returns test server with an empty ledger and the default configuration.
func SetupServer(t *testing.T) *httpserver.Server {
	t.Helper()

	return SetupServerWith(t, configpkg.Default())
}

// SetupServerWith returns test server with an empty ledger configured by config.
func SetupServerWith(t *testing.T, config configpkg.Config) *httpserver.Server {
	t.Helper()

	server, err := httpserver.New(zerolog.Nop(), config)
	if err != nil {
		t.Fatalf(`httpserver.New(logger, config) returned error: %v`, err)
	}

	return server
}

// SeedUser creates a user with random username and email.
func SeedUser(t *testing.T, server *httpserver.Server, isCorporate bool) domain.User {
	t.Helper()

	u, err := server.App.Users.Create(context.Background(), randompkg.Username(), randompkg.Email(), isCorporate)
	if err != nil {
		t.Fatalf("server.App.Users.Create() returned error: %v", err)
	}

	return u
}

// SeedAccount opens an account for the user and deposits balance into it.
func SeedAccount(t *testing.T, server *httpserver.Server, userID int64, balance string) domain.Account {
	t.Helper()

	ctx := context.Background()

	account, err := server.App.Accounts.Create(ctx, userID)
	if err != nil {
		t.Fatalf("server.App.Accounts.Create(ctx, %v) returned error: %v", userID, err)
	}

	amount := decimal.RequireFromString(balance)
	if !amount.IsPositive() {
		return account
	}

	if _, err := server.App.Ledger.Deposit(ctx, domain.DepositParams{AccountID: account.ID, Amount: amount}); err != nil {
		t.Fatalf("server.App.Ledger.Deposit(ctx, %v, %v) returned error: %v", account.ID, balance, err)
	}

	account, err = server.App.Accounts.Get(ctx, account.ID)
	if err != nil {
		t.Fatalf("server.App.Accounts.Get(ctx, %v) returned error: %v", account.ID, err)
	}

	return account
}

// Do sends a request with body encoded as JSON unless it is nil.
func Do(t *testing.T, server *httpserver.Server, method, url string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer

	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("json.Encode(%v) returned error: %v", body, err)
		}
	}

	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)

	return recorder
}

// Decode unmarshals the data field of a web.Response into v and returns the error field.
func Decode(t *testing.T, recorder *httptest.ResponseRecorder, v any) string {
	t.Helper()

	var res struct {
		Data  json.RawMessage `json:"data"`
		Error string          `json:"error"`
	}

	if err := json.Unmarshal(recorder.Body.Bytes(), &res); err != nil {
		t.Fatalf("json.Unmarshal(%s) returned error: %v", recorder.Body.String(), err)
	}

	if v != nil && len(res.Data) > 0 {
		if err := json.Unmarshal(res.Data, v); err != nil {
			t.Fatalf("json.Unmarshal(%s) returned error: %v", res.Data, err)
		}
	}

	return res.Error
}
