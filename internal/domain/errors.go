package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Error kinds returned by the registries and the ledger.
// Use errors.Is to match a kind and errors.As to read its details.
var (
	// ErrNotFound indicates that the referenced user, account or transaction does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateElement indicates that the username or email is already registered.
	ErrDuplicateElement = errors.New("duplicate element")
	// ErrAccountLimit indicates that the user reached the account limit of its tier.
	ErrAccountLimit = errors.New("account limit reached")
	// ErrInsufficientBalance indicates that the account does not have sufficient balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInvalidOperation indicates a semantic misuse of an operation.
	ErrInvalidOperation = errors.New("invalid operation")
)

// Entity names used in NotFoundError.
const (
	EntityUser        = "User"
	EntityAccount     = "Account"
	EntityTransaction = "Transaction"
)

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s ID: %d not found", e.Entity, e.ID)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NewNotFound returns NotFoundError for the given entity kind and id.
func NewNotFound(entity string, id int64) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// DuplicateElementError reports a uniqueness violation on a user field.
type DuplicateElementError struct {
	Field string
	Value string
}

func (e *DuplicateElementError) Error() string {
	return fmt.Sprintf("%s '%s' already exists", e.Field, e.Value)
}

// Is reports whether target is ErrDuplicateElement.
func (e *DuplicateElementError) Is(target error) bool { return target == ErrDuplicateElement }

// AccountLimitError reports that the user cannot open another account.
type AccountLimitError struct {
	UserType string
	Limit    int
	Current  int
}

func (e *AccountLimitError) Error() string {
	return fmt.Sprintf("%s user can open a maximum of %d accounts. You already have %d accounts",
		e.UserType, e.Limit, e.Current)
}

// Is reports whether target is ErrAccountLimit.
func (e *AccountLimitError) Is(target error) bool { return target == ErrAccountLimit }

// InsufficientBalanceError reports that a debit exceeds the available funds.
type InsufficientBalanceError struct {
	Available decimal.Decimal
	Required  decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("There is not enough money in the account. Available: %s, Requirement: %s",
		e.Available.String(), e.Required.String())
}

// Is reports whether target is ErrInsufficientBalance.
func (e *InsufficientBalanceError) Is(target error) bool { return target == ErrInsufficientBalance }

// InvalidOperationError reports a rejected operation with its reason.
type InvalidOperationError struct {
	Reason string
}

func (e *InvalidOperationError) Error() string { return e.Reason }

// Is reports whether target is ErrInvalidOperation.
func (e *InvalidOperationError) Is(target error) bool { return target == ErrInvalidOperation }

// NewInvalidOperation returns InvalidOperationError with the given reason.
func NewInvalidOperation(reason string) error {
	return &InvalidOperationError{Reason: reason}
}
