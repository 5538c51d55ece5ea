package model

import (
	"time"
)

// Transaction represents the database model for ledger entries. Rows are only ever inserted.
type Transaction struct {
	ID        string    `gorm:"primaryKey;size:36"`
	WalletID  string    `gorm:"not null;size:36;index:idx_transactions_wallet_created,priority:1"`
	Kind      string    `gorm:"not null;size:16;check:chk_transactions_kind,kind IN ('send','receive')"`
	Amount    int64     `gorm:"not null;check:chk_transactions_amount_positive,amount > 0"` // minor units
	Category  string    `gorm:"not null;default:'';size:100"`
	CreatedAt time.Time `gorm:"not null;index:idx_transactions_wallet_created,priority:2,sort:desc"`
}

// TableName specifies the table name for Transaction
func (Transaction) TableName() string {
	return "transactions"
}
