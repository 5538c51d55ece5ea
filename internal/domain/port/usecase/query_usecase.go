package usecase

import (
	"context"

	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/entity"
)

// QueryUseCase assembles read views
type QueryUseCase interface {
	// GetUserView returns the user with wallets and their transactions, newest first
	GetUserView(ctx context.Context, externalID string) (*entity.User, error)

	// GetHistory returns the transactions of a wallet, newest first
	GetHistory(ctx context.Context, walletID string) ([]*entity.Transaction, error)
}
