package usecase

import (
	"context"

	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/entity"
)

// ApplyTransactionRequest is a validated-at-the-boundary request to move a wallet balance
type ApplyTransactionRequest struct {
	WalletID string
	Kind     entity.TransactionKind
	Amount   int64 // minor units
	Category string
}

// ApplyTransactionResult carries the stored entry and the wallet after it was applied
type ApplyTransactionResult struct {
	Transaction *entity.Transaction
	Wallet      *entity.Wallet
}

// SetBalanceResult carries the wallet after the override and the adjustment entry
// recorded for it. Adjustment is nil when the balance was already at the target.
type SetBalanceResult struct {
	Wallet     *entity.Wallet
	Adjustment *entity.Transaction
}

// BalanceUseCase is the only writer of wallet balances
type BalanceUseCase interface {
	// ApplyTransaction moves the balance and appends the entry as one atomic unit
	ApplyTransaction(ctx context.Context, req ApplyTransactionRequest) (*ApplyTransactionResult, error)

	// SetBalance moves the balance to newBalance by recording an adjustment entry
	SetBalance(ctx context.Context, walletID string, newBalance int64) (*SetBalanceResult, error)
}
