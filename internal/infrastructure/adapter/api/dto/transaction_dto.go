package dto

import (
	"time"

	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest represents a send or receive against a wallet
type CreateTransactionRequest struct {
	Type     string              `json:"type" binding:"required"`
	Amount   decimal.NullDecimal `json:"amount"`
	Category string              `json:"category"`
}

// TransactionResponse represents a ledger entry
type TransactionResponse struct {
	ID          string    `json:"id"`
	WalletID    string    `json:"walletId"`
	Type        string    `json:"type"`
	Amount      string    `json:"amount"`
	AmountMinor int64     `json:"amountMinor"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewTransactionResponse converts a transaction entity
func NewTransactionResponse(tx *entity.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          tx.ID,
		WalletID:    tx.WalletID,
		Type:        string(tx.Kind),
		Amount:      tx.FormattedAmount(),
		AmountMinor: tx.Amount,
		Category:    tx.Category,
		CreatedAt:   tx.CreatedAt,
	}
}

// NewTransactionList converts a history, keeping its order. It never returns nil.
func NewTransactionList(history []*entity.Transaction) []TransactionResponse {
	list := make([]TransactionResponse, 0, len(history))
	for _, tx := range history {
		list = append(list, NewTransactionResponse(tx))
	}
	return list
}

// AppliedTransactionResponse is a new entry together with the wallet balance it produced
type AppliedTransactionResponse struct {
	TransactionResponse
	Balance      string `json:"balance"`
	BalanceMinor int64  `json:"balanceMinor"`
}
