package usecase

import (
	"context"

	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/entity"
)

// ProvisionRequest identifies the signed-in external identity
type ProvisionRequest struct {
	ExternalID  string
	Email       string
	DisplayName string
}

// ProvisionResult is the user with its wallets; Created is false when the user already existed
type ProvisionResult struct {
	User    *entity.User
	Created bool
}

// ProvisioningUseCase performs idempotent find-or-create of a user and its wallet
type ProvisioningUseCase interface {
	Provision(ctx context.Context, req ProvisionRequest) (*ProvisionResult, error)
}
