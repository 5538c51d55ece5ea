package persistence

import (
	"context"

	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/entity"
)

// TransactionRepository stores the append-only ledger entries.
// Entries are never updated or deleted.
type TransactionRepository interface {
	// Append stores a new entry
	//
	// Possible errors:
	// - ErrWalletNotFound: If the wallet doesn't exist
	// - ErrStorageUnavailable: If database connection fails
	Append(ctx context.Context, tx *entity.Transaction) error

	// ListByWalletID returns the entries of a wallet, newest first. An empty slice is not an error.
	ListByWalletID(ctx context.Context, walletID string) ([]*entity.Transaction, error)
}
