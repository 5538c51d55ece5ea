package entity

import (
	"fmt"
	"strings"
	"time"

	errs "github.com/amirhossein-jamali/wallet-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/core"
	"github.com/google/uuid"
)

// Wallet is a per-user balance whose value equals the net of its transactions
type Wallet struct {
	ID           string
	UserID       string
	balance      int64 // minor units, never negative (private)
	CreatedAt    time.Time
	UpdatedAt    time.Time // creation time of the latest entry, or of the wallet itself
	Transactions []*Transaction
}

// NewWallet creates a wallet for the given user
func NewWallet(userID string, initialBalance int64, timeProvider coreport.TimeProvider) (*Wallet, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user id is required", errs.ErrInvalidInput)
	}
	if initialBalance < 0 {
		return nil, fmt.Errorf("%w: balance cannot be negative", errs.ErrInvalidAmount)
	}

	now := timeProvider.Now().UTC().Truncate(time.Microsecond)
	return &Wallet{
		ID:        uuid.NewString(),
		UserID:    userID,
		balance:   initialBalance,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// RestoreWallet rebuilds a wallet from stored state (for repositories)
func RestoreWallet(id, userID string, balance int64, createdAt, updatedAt time.Time) *Wallet {
	return &Wallet{
		ID:        id,
		UserID:    userID,
		balance:   balance,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// Balance returns the current balance in minor units
func (w *Wallet) Balance() int64 {
	return w.balance
}

// FormattedBalance returns the balance as a string with 2 decimal places
func (w *Wallet) FormattedBalance() string {
	return FormatAmount(w.balance)
}

// NextEntryTime returns the timestamp for the next entry of this wallet.
// Stamps are truncated to microseconds and strictly increase per wallet.
func (w *Wallet) NextEntryTime(now time.Time) time.Time {
	now = now.UTC().Truncate(time.Microsecond)
	last := w.UpdatedAt.UTC().Truncate(time.Microsecond)
	if !now.After(last) {
		return last.Add(time.Microsecond)
	}
	return now
}

// ProjectBalance returns the balance that would result from applying kind/amount
func (w *Wallet) ProjectBalance(kind TransactionKind, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: must be greater than zero", errs.ErrInvalidAmount)
	}

	projected, err := addMinorUnits(w.balance, kind.Sign()*amount)
	if err != nil {
		return 0, err
	}
	if projected < 0 {
		return 0, errs.NewInsufficientFundsError(w.ID, FormatAmount(amount), w.FormattedBalance())
	}
	return projected, nil
}

// Apply moves the balance by the transaction's delta. On error the wallet is unchanged.
func (w *Wallet) Apply(tx *Transaction) error {
	if tx.WalletID != w.ID {
		return fmt.Errorf("%w: transaction belongs to wallet %s", errs.ErrInvalidInput, tx.WalletID)
	}

	projected, err := w.ProjectBalance(tx.Kind, tx.Amount)
	if err != nil {
		return err
	}

	w.balance = projected
	w.UpdatedAt = tx.CreatedAt
	return nil
}

// AdjustmentTo returns the entry that moves the balance to target.
// ok is false when the balance already equals target.
func (w *Wallet) AdjustmentTo(target int64) (kind TransactionKind, amount int64, ok bool, err error) {
	if target < 0 {
		return "", 0, false, fmt.Errorf("%w: balance cannot be negative", errs.ErrInvalidAmount)
	}

	switch delta := target - w.balance; {
	case delta > 0:
		return KindReceive, delta, true, nil
	case delta < 0:
		return KindSend, -delta, true, nil
	default:
		return "", 0, false, nil
	}
}
