package error

import (
	"errors"
	"fmt"
)

// Error codes for standardized API responses
const (
	// 4xxx - Client errors
	CodeInsufficientFunds = 4001
	CodeInvalidAmount     = 4002
	CodeInvalidInput      = 4003
	CodeInvalidKind       = 4004
	CodeAmountOverflow    = 4006
	CodeNotFound          = 4040
	CodeUserNotFound      = 4041
	CodeWalletNotFound    = 4042
	CodeConflict          = 4090
	CodeDuplicateUser     = 4091

	// 5xxx - Server errors
	CodeInternalServer     = 5000
	CodeStorageUnavailable = 5030
)

// Base error types
var (
	// ErrInsufficientFunds is returned when a send would take a wallet balance below zero
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount is returned when an amount is not a positive value with at most two decimals
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrAmountOverflow is returned when an amount or resulting balance does not fit in minor units
	ErrAmountOverflow = errors.New("amount is too large and would cause overflow")

	// ErrInvalidInput is returned when a request field is missing or malformed
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidKind is returned when the transaction kind is neither send nor receive
	ErrInvalidKind = errors.New("invalid transaction kind")

	// ErrNotFound is returned when a generic resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrUserNotFound is returned when no user matches the external identifier
	ErrUserNotFound = fmt.Errorf("user: %w", ErrNotFound)

	// ErrWalletNotFound is returned when the wallet does not exist
	ErrWalletNotFound = fmt.Errorf("wallet: %w", ErrNotFound)

	// ErrConflict is returned when a concurrent write won the race for the same row
	ErrConflict = errors.New("concurrent modification conflict")

	// ErrDuplicateUser is returned when a user with the same external identifier already exists
	ErrDuplicateUser = fmt.Errorf("user already exists: %w", ErrConflict)

	// ErrStorageUnavailable is returned when the ledger store cannot be reached
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrInternalServer is returned for unexpected server-side errors
	ErrInternalServer = errors.New("internal server error")
)

// ErrorCode returns standardized error codes for known errors
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrInsufficientFunds):
		return CodeInsufficientFunds
	case errors.Is(err, ErrAmountOverflow):
		return CodeAmountOverflow
	case errors.Is(err, ErrInvalidAmount):
		return CodeInvalidAmount
	case errors.Is(err, ErrInvalidKind):
		return CodeInvalidKind
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrUserNotFound):
		return CodeUserNotFound
	case errors.Is(err, ErrWalletNotFound):
		return CodeWalletNotFound
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrDuplicateUser):
		return CodeDuplicateUser
	case errors.Is(err, ErrConflict):
		return CodeConflict
	case errors.Is(err, ErrStorageUnavailable):
		return CodeStorageUnavailable
	default:
		return CodeInternalServer
	}
}

// InsufficientFundsError provides detailed error information for a rejected send
type InsufficientFundsError struct {
	WalletID string
	Amount   string
	Balance  string
}

// Error implements the error interface
func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds in wallet %s: required %s, available %s",
		e.WalletID, e.Amount, e.Balance)
}

// Is checks if the target error is an ErrInsufficientFunds
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// LogFields returns a map of fields for structured logging
func (e *InsufficientFundsError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "insufficient_funds",
		"wallet_id":  e.WalletID,
		"amount":     e.Amount,
		"balance":    e.Balance,
		"error_code": CodeInsufficientFunds,
	}
}

// NewInsufficientFundsError creates a new detailed insufficient funds error
func NewInsufficientFundsError(walletID, amount, balance string) error {
	return &InsufficientFundsError{
		WalletID: walletID,
		Amount:   amount,
		Balance:  balance,
	}
}

// WalletError wraps a failure of a balance-affecting operation with its context
type WalletError struct {
	WalletID  string
	Operation string
	Kind      string
	Amount    string
	Err       error
}

// Error implements the error interface for WalletError
func (e *WalletError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("%s failed for wallet %s (amount: %s): %v",
			e.Operation, e.WalletID, e.Amount, e.Err)
	}
	return fmt.Sprintf("%s failed for wallet %s (%s %s): %v",
		e.Operation, e.WalletID, e.Kind, e.Amount, e.Err)
}

// Unwrap returns the underlying error
func (e *WalletError) Unwrap() error {
	return e.Err
}

// LogFields returns a map of fields for structured logging
func (e *WalletError) LogFields() map[string]any {
	fields := map[string]any{
		"error_type": "wallet_error",
		"wallet_id":  e.WalletID,
		"operation":  e.Operation,
		"amount":     e.Amount,
		"error":      e.Err.Error(),
		"error_code": ErrorCode(e.Err),
	}
	if e.Kind != "" {
		fields["kind"] = e.Kind
	}
	return fields
}

// NewWalletError creates a detailed wallet operation error
func NewWalletError(walletID, operation, kind, amount string, err error) error {
	return &WalletError{
		WalletID:  walletID,
		Operation: operation,
		Kind:      kind,
		Amount:    amount,
		Err:       err,
	}
}

// LogFielder is implemented by errors that carry structured logging context
type LogFielder interface {
	LogFields() map[string]any
}

// Fields extracts structured logging fields from err, falling back to its message
func Fields(err error) map[string]any {
	var lf LogFielder
	if errors.As(err, &lf) {
		return lf.LogFields()
	}
	return map[string]any{
		"error":      err.Error(),
		"error_code": ErrorCode(err),
	}
}

// IsInsufficientFundsError checks if the error is related to insufficient funds
func IsInsufficientFundsError(err error) bool {
	return errors.Is(err, ErrInsufficientFunds)
}

// IsNotFoundError checks if the error is any "not found" type of error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if the error was caused by caller input
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidKind) ||
		errors.Is(err, ErrAmountOverflow)
}

// IsConflictError checks if the error signals concurrent write contention
func IsConflictError(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsStorageUnavailableError checks if the error is an infrastructure failure
func IsStorageUnavailableError(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}
