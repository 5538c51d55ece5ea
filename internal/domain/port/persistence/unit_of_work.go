package persistence

import (
	"context"
)

// UnitOfWork defines an interface for coordinating transaction operations
// across multiple repositories to maintain data consistency
type UnitOfWork interface {
	// Begin starts a new transaction and returns a transactional context
	//
	// Possible errors:
	// - ErrStorageUnavailable: If the store cannot open a transaction
	Begin(ctx context.Context) (context.Context, error)

	// Commit commits the transaction in the given context
	//
	// Possible errors:
	// - ErrConflict: If the store aborted the transaction because of a concurrent write
	// - ErrStorageUnavailable: If the commit could not reach the store
	Commit(ctx context.Context) error

	// Rollback rolls back the transaction in the given context
	Rollback(ctx context.Context) error

	// GetUserRepository returns a user repository bound to the current transaction
	GetUserRepository(ctx context.Context) UserRepository

	// GetWalletRepository returns a wallet repository bound to the current transaction
	GetWalletRepository(ctx context.Context) WalletRepository

	// GetTransactionRepository returns a transaction repository bound to the current transaction
	GetTransactionRepository(ctx context.Context) TransactionRepository
}

// WithinUnit runs fn inside one unit of work. The unit is committed when fn returns nil
// and rolled back otherwise, so either every write in fn is stored or none is.
func WithinUnit(ctx context.Context, uow UnitOfWork, fn func(txCtx context.Context) error) (err error) {
	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = uow.Rollback(txCtx)
			panic(p)
		}
	}()

	if err = fn(txCtx); err != nil {
		_ = uow.Rollback(txCtx)
		return err
	}

	return uow.Commit(txCtx)
}
