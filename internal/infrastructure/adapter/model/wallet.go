package model

import (
	"time"
)

// Wallet represents the database model for wallets
type Wallet struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"not null;size:36;index:idx_wallets_user_id"`
	Balance   int64     `gorm:"not null;default:0;check:chk_wallets_balance_non_negative,balance >= 0"` // minor units
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	// Define relationships
	Transactions []Transaction `gorm:"foreignKey:WalletID;references:ID;constraint:OnDelete:RESTRICT"`
}

// TableName specifies the table name for Wallet
func (Wallet) TableName() string {
	return "wallets"
}
