package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	errs "github.com/amirhossein-jamali/wallet-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/adapter/repository"
	"gorm.io/gorm"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

// Context keys
const txKey contextKey = "tx"

// UnitOfWork implements persistence.UnitOfWork on top of GORM transactions.
// Transactions run at READ COMMITTED; wallet rows are serialised with
// SELECT ... FOR UPDATE and the compare-and-set balance write.
type UnitOfWork struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *repository.ErrorClassifier
}

// NewUnitOfWork creates a new UnitOfWork instance
func NewUnitOfWork(db *gorm.DB, logger coreport.Logger) *UnitOfWork {
	return &UnitOfWork{
		db:              db,
		logger:          logger,
		errorClassifier: repository.NewErrorClassifier(),
	}
}

// Begin starts a new database transaction and stores it in the returned context
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	tx := u.db.WithContext(ctx).Begin(&sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if tx.Error != nil {
		u.logger.Error("Failed to begin transaction", map[string]any{"error": tx.Error.Error()})
		if errors.Is(tx.Error, context.Canceled) {
			return nil, tx.Error
		}
		return nil, fmt.Errorf("%w: failed to begin transaction: %s", errs.ErrStorageUnavailable, tx.Error.Error())
	}

	return context.WithValue(ctx, txKey, tx), nil
}

// Commit commits the current transaction
func (u *UnitOfWork) Commit(ctx context.Context) error {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if !ok || tx == nil {
		return fmt.Errorf("%w: no transaction found in context", errs.ErrInternalServer)
	}

	if err := tx.Commit().Error; err != nil {
		u.logger.Error("Failed to commit transaction", map[string]any{"error": err.Error()})
		return u.errorClassifier.MapError(err, errs.ErrNotFound, "commit")
	}

	return nil
}

// Rollback rolls back the current transaction. Rolling back a finished transaction is a no-op.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if !ok || tx == nil {
		return fmt.Errorf("%w: no transaction found in context", errs.ErrInternalServer)
	}

	err := tx.Rollback().Error
	if err == nil || errors.Is(err, sql.ErrTxDone) || errors.Is(err, gorm.ErrInvalidTransaction) {
		return nil
	}

	u.logger.Error("Failed to rollback transaction", map[string]any{"error": err.Error()})
	return fmt.Errorf("failed to rollback transaction: %w", err)
}

// GetUserRepository returns a user repository in the current transaction
func (u *UnitOfWork) GetUserRepository(ctx context.Context) persistence.UserRepository {
	return repository.NewUserRepository(u.getDbFromContext(ctx), u.logger)
}

// GetWalletRepository returns a wallet repository in the current transaction
func (u *UnitOfWork) GetWalletRepository(ctx context.Context) persistence.WalletRepository {
	return repository.NewWalletRepository(u.getDbFromContext(ctx), u.logger)
}

// GetTransactionRepository returns a transaction repository in the current transaction
func (u *UnitOfWork) GetTransactionRepository(ctx context.Context) persistence.TransactionRepository {
	return repository.NewTransactionRepository(u.getDbFromContext(ctx), u.logger)
}

// getDbFromContext retrieves the transaction from context, falling back to the pool
func (u *UnitOfWork) getDbFromContext(ctx context.Context) *gorm.DB {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	if ok && tx != nil {
		return tx
	}
	return u.db.WithContext(ctx)
}
