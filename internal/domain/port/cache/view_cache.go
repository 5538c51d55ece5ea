package cache

import (
	"context"

	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/entity"
)

// ViewCache keeps read views close to the API. A miss is reported as (nil, false, nil);
// errors are advisory and callers fall back to the store.
//
// Readers take Generation before loading from the store and pass it to the Set
// calls. A Set whose generation was overtaken by an invalidation stores nothing.
type ViewCache interface {
	Generation(ctx context.Context) (int64, error)

	GetUserView(ctx context.Context, externalID string) (*entity.User, bool, error)
	SetUserView(ctx context.Context, user *entity.User, generation int64) error

	GetHistory(ctx context.Context, walletID string) ([]*entity.Transaction, bool, error)
	SetHistory(ctx context.Context, walletID string, history []*entity.Transaction, generation int64) error

	// InvalidateWallet advances the generation, then drops the history of the
	// wallet and the view of its owner
	InvalidateWallet(ctx context.Context, walletID string) error
}
