package error

import (
	"errors"
	"fmt"
	"testing"
)

func TestBaseErrorTypes(t *testing.T) {
	if ErrInsufficientFunds.Error() != "insufficient funds" {
		t.Errorf("ErrInsufficientFunds has unexpected message: %s", ErrInsufficientFunds.Error())
	}
	if ErrWalletNotFound.Error() != "wallet: resource not found" {
		t.Errorf("ErrWalletNotFound has unexpected message: %s", ErrWalletNotFound.Error())
	}
	if !errors.Is(ErrUserNotFound, ErrNotFound) {
		t.Errorf("ErrUserNotFound should wrap ErrNotFound")
	}
	if !errors.Is(ErrDuplicateUser, ErrConflict) {
		t.Errorf("ErrDuplicateUser should wrap ErrConflict")
	}
}

func TestErrorCode(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected int
	}{
		{"InsufficientFunds", ErrInsufficientFunds, 4001},
		{"InvalidAmount", ErrInvalidAmount, 4002},
		{"InvalidInput", ErrInvalidInput, 4003},
		{"InvalidKind", ErrInvalidKind, 4004},
		{"AmountOverflow", ErrAmountOverflow, 4006},
		{"NotFound", ErrNotFound, 4040},
		{"UserNotFound", ErrUserNotFound, 4041},
		{"WalletNotFound", ErrWalletNotFound, 4042},
		{"Conflict", ErrConflict, 4090},
		{"DuplicateUser", ErrDuplicateUser, 4091},
		{"StorageUnavailable", ErrStorageUnavailable, 5030},
		{"UnknownError", errors.New("unknown error"), 5000},
		{"WrappedError", fmt.Errorf("wrapped: %w", ErrWalletNotFound), 4042},
		{"DetailedInsufficientFunds", NewInsufficientFundsError("w1", "1.00", "0.50"), 4001},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code := ErrorCode(tc.err)
			if code != tc.expected {
				t.Errorf("ErrorCode(%v) = %d, want %d", tc.err, code, tc.expected)
			}
		})
	}
}

func TestInsufficientFundsError(t *testing.T) {
	err := NewInsufficientFundsError("wallet-1", "100.00", "60.00")

	expectedErrMsg := "insufficient funds in wallet wallet-1: required 100.00, available 60.00"
	if err.Error() != expectedErrMsg {
		t.Errorf("InsufficientFundsError.Error() = %s, want %s", err.Error(), expectedErrMsg)
	}

	if !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("errors.Is(err, ErrInsufficientFunds) = false, want true")
	}

	if !IsInsufficientFundsError(fmt.Errorf("apply: %w", err)) {
		t.Errorf("IsInsufficientFundsError(wrapped) = false, want true")
	}

	fields := Fields(err)
	if fields["wallet_id"] != "wallet-1" {
		t.Errorf("Fields(err)[wallet_id] = %v, want wallet-1", fields["wallet_id"])
	}
}

func TestWalletError(t *testing.T) {
	err := NewWalletError("wallet-2", "apply transaction", "send", "40.00", ErrConflict)

	expectedErrMsg := "apply transaction failed for wallet wallet-2 (send 40.00): concurrent modification conflict"
	if err.Error() != expectedErrMsg {
		t.Errorf("WalletError.Error() = %s, want %s", err.Error(), expectedErrMsg)
	}

	if !IsConflictError(err) {
		t.Errorf("IsConflictError(err) = false, want true")
	}

	var walletErr *WalletError
	if !errors.As(err, &walletErr) {
		t.Fatalf("errors.As failed: not a *WalletError")
	}

	fields := walletErr.LogFields()
	if fields["error_code"] != CodeConflict {
		t.Errorf("LogFields()[error_code] = %v, want %d", fields["error_code"], CodeConflict)
	}
	if fields["kind"] != "send" {
		t.Errorf("LogFields()[kind] = %v, want send", fields["kind"])
	}

	noKind := NewWalletError("wallet-3", "set balance", "", "5.00", ErrInvalidAmount)
	if noKind.Error() != "set balance failed for wallet wallet-3 (amount: 5.00): invalid amount" {
		t.Errorf("unexpected message: %s", noKind.Error())
	}
}

func TestErrorHelperFunctions(t *testing.T) {
	if IsInsufficientFundsError(ErrInvalidAmount) {
		t.Errorf("IsInsufficientFundsError(ErrInvalidAmount) = true, want false")
	}

	if !IsNotFoundError(fmt.Errorf("lookup: %w", ErrUserNotFound)) {
		t.Errorf("IsNotFoundError(wrapped ErrUserNotFound) = false, want true")
	}

	if !IsValidationError(ErrInvalidKind) {
		t.Errorf("IsValidationError(ErrInvalidKind) = false, want true")
	}

	if IsValidationError(ErrConflict) {
		t.Errorf("IsValidationError(ErrConflict) = true, want false")
	}

	if !IsStorageUnavailableError(fmt.Errorf("db: %w", ErrStorageUnavailable)) {
		t.Errorf("IsStorageUnavailableError(wrapped) = false, want true")
	}

	plain := Fields(errors.New("boom"))
	if plain["error"] != "boom" || plain["error_code"] != CodeInternalServer {
		t.Errorf("Fields(plain) = %v", plain)
	}
}
