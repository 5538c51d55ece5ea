package dto

import (
	"strings"
	"time"

	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/entity"
)

// ProvisionUserRequest identifies the signed-in user. clerkId is accepted as an alias of externalId.
type ProvisionUserRequest struct {
	ExternalID string `json:"externalId"`
	ClerkID    string `json:"clerkId"`
	Email      string `json:"email"`
	Username   string `json:"username"`
}

// Identity returns the external id, preferring externalId over clerkId
func (r ProvisionUserRequest) Identity() string {
	if id := strings.TrimSpace(r.ExternalID); id != "" {
		return id
	}
	return strings.TrimSpace(r.ClerkID)
}

// UserResponse is a user with its wallets and their transactions, newest first
type UserResponse struct {
	ID         string               `json:"id"`
	ExternalID string               `json:"externalId"`
	ClerkID    string               `json:"clerkId"`
	Email      string               `json:"email"`
	Username   string               `json:"username"`
	CreatedAt  time.Time            `json:"createdAt"`
	UpdatedAt  time.Time            `json:"updatedAt"`
	Wallets    []WalletViewResponse `json:"wallets"`
}

// NewUserResponse converts a user entity
func NewUserResponse(user *entity.User) UserResponse {
	resp := UserResponse{
		ID:         user.ID,
		ExternalID: user.ExternalID,
		ClerkID:    user.ExternalID,
		Email:      user.Email,
		Username:   user.DisplayName,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
		Wallets:    make([]WalletViewResponse, 0, len(user.Wallets)),
	}
	for _, wallet := range user.Wallets {
		resp.Wallets = append(resp.Wallets, WalletViewResponse{
			WalletResponse: NewWalletResponse(wallet),
			Transactions:   NewTransactionList(wallet.Transactions),
		})
	}
	return resp
}
