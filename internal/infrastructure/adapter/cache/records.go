package cache

import (
	"time"

	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/entity"
)

// Cached views are stored as JSON snapshots of these records

type userRecord struct {
	ID          string         `json:"id"`
	ExternalID  string         `json:"externalId"`
	Email       string         `json:"email,omitempty"`
	DisplayName string         `json:"displayName,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	Wallets     []walletRecord `json:"wallets"`
}

type walletRecord struct {
	ID           string              `json:"id"`
	UserID       string              `json:"userId"`
	Balance      int64               `json:"balance"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
	Transactions []transactionRecord `json:"transactions"`
}

type transactionRecord struct {
	ID        string    `json:"id"`
	WalletID  string    `json:"walletId"`
	Kind      string    `json:"kind"`
	Amount    int64     `json:"amount"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"createdAt"`
}

func newUserRecord(user *entity.User) userRecord {
	record := userRecord{
		ID:          user.ID,
		ExternalID:  user.ExternalID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
		Wallets:     make([]walletRecord, 0, len(user.Wallets)),
	}
	for _, wallet := range user.Wallets {
		record.Wallets = append(record.Wallets, walletRecord{
			ID:           wallet.ID,
			UserID:       wallet.UserID,
			Balance:      wallet.Balance(),
			CreatedAt:    wallet.CreatedAt,
			UpdatedAt:    wallet.UpdatedAt,
			Transactions: newTransactionRecords(wallet.Transactions),
		})
	}
	return record
}

func (r userRecord) toEntity() *entity.User {
	user := &entity.User{
		ID:          r.ID,
		ExternalID:  r.ExternalID,
		Email:       r.Email,
		DisplayName: r.DisplayName,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	for _, w := range r.Wallets {
		wallet := entity.RestoreWallet(w.ID, w.UserID, w.Balance, w.CreatedAt, w.UpdatedAt)
		wallet.Transactions = transactionEntities(w.Transactions)
		user.Wallets = append(user.Wallets, wallet)
	}
	return user
}

func newTransactionRecords(history []*entity.Transaction) []transactionRecord {
	records := make([]transactionRecord, 0, len(history))
	for _, tx := range history {
		records = append(records, transactionRecord{
			ID:        tx.ID,
			WalletID:  tx.WalletID,
			Kind:      string(tx.Kind),
			Amount:    tx.Amount,
			Category:  tx.Category,
			CreatedAt: tx.CreatedAt,
		})
	}
	return records
}

func transactionEntities(records []transactionRecord) []*entity.Transaction {
	history := make([]*entity.Transaction, 0, len(records))
	for _, r := range records {
		history = append(history, &entity.Transaction{
			ID:        r.ID,
			WalletID:  r.WalletID,
			Kind:      entity.TransactionKind(r.Kind),
			Amount:    r.Amount,
			Category:  r.Category,
			CreatedAt: r.CreatedAt,
		})
	}
	return history
}
