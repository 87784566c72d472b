package domain

import "github.com/shopspring/decimal"

// Account tier limits used when no configuration overrides them.
const (
	DefaultRegularAccountLimit   = 5
	DefaultCorporateAccountLimit = 10
)

// Account holds the balance of a user account.
type Account struct {
	Meta
	UserID  int64           `json:"user_id"`
	Balance decimal.Decimal `json:"balance"` // never negative after a committed operation
}

// UpdateAccountParams is the replacement data for an existing account.
//
// The balance is not part of it: balances change only through ledger operations.
type UpdateAccountParams struct {
	UserID int64 `json:"user_id"`
}
