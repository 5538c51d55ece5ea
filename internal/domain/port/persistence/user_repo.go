package persistence

import (
	"context"

	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/entity"
)

// UserRepository defines methods to interact with user data
type UserRepository interface {
	// GetByExternalID retrieves a user by the identifier issued by the auth provider.
	// Wallets are not loaded.
	//
	// Possible errors:
	// - ErrUserNotFound: If no user has this external id
	// - ErrStorageUnavailable: If database connection fails
	GetByExternalID(ctx context.Context, externalID string) (*entity.User, error)

	// GetWithWallets retrieves a user with its wallets (oldest first), each wallet
	// carrying its transactions newest first
	//
	// Possible errors:
	// - ErrUserNotFound: If no user has this external id
	// - ErrStorageUnavailable: If database connection fails
	GetWithWallets(ctx context.Context, externalID string) (*entity.User, error)

	// Create stores a new user
	//
	// Possible errors:
	// - ErrDuplicateUser: If a user with the same external id already exists
	// - ErrStorageUnavailable: If database connection fails
	Create(ctx context.Context, user *entity.User) error
}
