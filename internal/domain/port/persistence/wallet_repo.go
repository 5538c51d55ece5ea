package persistence

import (
	"context"
	"time"

	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/entity"
)

// WalletRepository defines methods to interact with wallet data.
// Only the balance engine writes balances, always inside a unit of work.
type WalletRepository interface {
	// Create stores a new wallet for an existing user
	//
	// Possible errors:
	// - ErrUserNotFound: If the owning user does not exist
	// - ErrStorageUnavailable: If database connection fails
	Create(ctx context.Context, wallet *entity.Wallet) error

	// GetByID retrieves a wallet without its transactions
	//
	// Possible errors:
	// - ErrWalletNotFound: If the wallet doesn't exist
	// - ErrStorageUnavailable: If database connection fails
	GetByID(ctx context.Context, id string) (*entity.Wallet, error)

	// GetForUpdate retrieves a wallet and locks its row until the unit of work ends
	//
	// Possible errors:
	// - ErrWalletNotFound: If the wallet doesn't exist
	// - ErrConflict: If the lock could not be taken (deadlock or lock timeout)
	// - ErrStorageUnavailable: If database connection fails
	GetForUpdate(ctx context.Context, id string) (*entity.Wallet, error)

	// ListByUserID returns the wallets of a user, oldest first
	ListByUserID(ctx context.Context, userID string) ([]*entity.Wallet, error)

	// UpdateBalance overwrites the balance, guarded by the balance previously read.
	//
	// Possible errors:
	// - ErrWalletNotFound: If the wallet doesn't exist
	// - ErrConflict: If the stored balance no longer equals expected
	// - ErrStorageUnavailable: If database connection fails
	UpdateBalance(ctx context.Context, id string, expected, balance int64, updatedAt time.Time) error
}
