package dto

import (
	"time"

	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// SetBalanceRequest overrides a wallet balance. balance may be a JSON number or string.
type SetBalanceRequest struct {
	Balance decimal.NullDecimal `json:"balance"`
}

// WalletResponse represents a wallet. balance is formatted with two decimals,
// balanceMinor carries the same value in minor units.
type WalletResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Balance      string    `json:"balance"`
	BalanceMinor int64     `json:"balanceMinor"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// WalletViewResponse is a wallet with its transactions, newest first
type WalletViewResponse struct {
	WalletResponse
	Transactions []TransactionResponse `json:"transactions"`
}

// NewWalletResponse converts a wallet entity without its transactions
func NewWalletResponse(wallet *entity.Wallet) WalletResponse {
	return WalletResponse{
		ID:           wallet.ID,
		UserID:       wallet.UserID,
		Balance:      wallet.FormattedBalance(),
		BalanceMinor: wallet.Balance(),
		CreatedAt:    wallet.CreatedAt,
		UpdatedAt:    wallet.UpdatedAt,
	}
}

// SetBalanceResponse is the wallet after an override and the adjustment recorded for it
type SetBalanceResponse struct {
	WalletResponse
	Adjustment *TransactionResponse `json:"adjustment,omitempty"`
}
