package model

import (
	"time"
)

// User represents the database model for users imported from the auth provider
type User struct {
	ID          string    `gorm:"primaryKey;size:36"`
	ExternalID  string    `gorm:"uniqueIndex:idx_users_external_id;not null;size:255"`
	Email       string    `gorm:"size:255"`
	DisplayName string    `gorm:"size:255"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`

	// Define relationships
	Wallets []Wallet `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:RESTRICT"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}
