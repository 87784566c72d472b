package domain

import "github.com/shopspring/decimal"

// TransactionType is the kind of money movement.
type TransactionType string

// Supported transaction types.
const (
	TransactionDeposit  TransactionType = "DEPOSIT"
	TransactionWithdraw TransactionType = "WITHDRAW"
	TransactionTransfer TransactionType = "TRANSFER"
)

// TransactionStatus is the outcome of a ledger operation.
//
// Failed attempts never produce a record, so every stored transaction is a success.
type TransactionStatus string

// TransactionSuccess marks a committed transaction.
const TransactionSuccess TransactionStatus = "SUCCESS"

// DefaultCommissionRate is the share of a transfer amount charged when the recipient is corporate.
var DefaultCommissionRate = decimal.RequireFromString("0.01")

// Transaction is an immutable record of a committed ledger operation.
type Transaction struct {
	Meta
	Type          TransactionType   `json:"type"`
	FromAccountID *int64            `json:"from_account_id"` // set for withdraws and transfers
	ToAccountID   *int64            `json:"to_account_id"`   // set for deposits and transfers
	Amount        decimal.Decimal   `json:"amount"`          // must be positive
	Commission    decimal.Decimal   `json:"commission"`
	Status        TransactionStatus `json:"status"`
	Description   string            `json:"description,omitempty"`
}

// Involves reports whether the account is the source or the destination of the transaction.
func (t Transaction) Involves(accountID int64) bool {
	return (t.FromAccountID != nil && *t.FromAccountID == accountID) ||
		(t.ToAccountID != nil && *t.ToAccountID == accountID)
}

// CreateTransactionParams is the input data to append a transaction to the log.
type CreateTransactionParams struct {
	Type          TransactionType
	FromAccountID *int64
	ToAccountID   *int64
	Amount        decimal.Decimal
	Commission    decimal.Decimal
	Description   string
}

// DepositParams is the input data for a deposit.
type DepositParams struct {
	AccountID   int64           `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// WithdrawParams is the input data for a withdraw.
type WithdrawParams struct {
	AccountID   int64           `json:"account_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// TransferParams is the input data for a transfer between two accounts.
type TransferParams struct {
	FromAccountID int64           `json:"from_account_id"`
	ToAccountID   int64           `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description,omitempty"`
}

// UpdateTransactionParams is the replacement data for a stored transaction.
//
// Only the description can change; amounts and parties are fixed at creation.
type UpdateTransactionParams struct {
	Description string `json:"description"`
}
