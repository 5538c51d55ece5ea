package repository

import (
	"context"
	"time"

	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/wallet-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WalletRepository implements persistence.WalletRepository using GORM
type WalletRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewWalletRepository creates a new WalletRepository instance
func NewWalletRepository(db *gorm.DB, logger coreport.Logger) *WalletRepository {
	return &WalletRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func walletToEntity(walletModel *model.Wallet) *entity.Wallet {
	wallet := entity.RestoreWallet(
		walletModel.ID,
		walletModel.UserID,
		walletModel.Balance,
		walletModel.CreatedAt.UTC(),
		walletModel.UpdatedAt.UTC(),
	)
	for i := range walletModel.Transactions {
		wallet.Transactions = append(wallet.Transactions, transactionToEntity(&walletModel.Transactions[i]))
	}
	return wallet
}

func (r *WalletRepository) handleDatabaseError(operation string, err error, walletID string) error {
	mapped := r.errorClassifier.MapError(err, errs.ErrWalletNotFound, operation)
	switch {
	case errs.IsNotFoundError(mapped):
	case errs.IsConflictError(mapped):
		r.logger.Warn("Wallet row contended", map[string]any{
			"wallet_id": walletID,
			"operation": operation,
			"error":     err.Error(),
		})
	default:
		r.logger.Error("Database error when "+operation, map[string]any{
			"wallet_id": walletID,
			"error":     err.Error(),
		})
	}
	return mapped
}

// Create stores a new wallet. A missing owner surfaces as ErrUserNotFound.
func (r *WalletRepository) Create(ctx context.Context, wallet *entity.Wallet) error {
	walletModel := model.Wallet{
		ID:        wallet.ID,
		UserID:    wallet.UserID,
		Balance:   wallet.Balance(),
		CreatedAt: wallet.CreatedAt,
		UpdatedAt: wallet.UpdatedAt,
	}

	result := r.db.WithContext(ctx).Omit("Transactions").Create(&walletModel)
	if result.Error != nil {
		if r.errorClassifier.Classify(result.Error) == ForeignKeyError {
			return errs.ErrUserNotFound
		}
		return r.handleDatabaseError("creating wallet", result.Error, wallet.ID)
	}

	return nil
}

// GetByID retrieves a wallet without its transactions
func (r *WalletRepository) GetByID(ctx context.Context, id string) (*entity.Wallet, error) {
	var walletModel model.Wallet
	result := r.db.WithContext(ctx).Where("id = ?", id).Take(&walletModel)
	if result.Error != nil {
		return nil, r.handleDatabaseError("getting wallet", result.Error, id)
	}

	return walletToEntity(&walletModel), nil
}

// GetForUpdate reads the wallet with SELECT ... FOR UPDATE; the row stays locked
// until the surrounding transaction ends
func (r *WalletRepository) GetForUpdate(ctx context.Context, id string) (*entity.Wallet, error) {
	var walletModel model.Wallet
	result := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Where("id = ?", id).
		Take(&walletModel)
	if result.Error != nil {
		return nil, r.handleDatabaseError("locking wallet", result.Error, id)
	}

	return walletToEntity(&walletModel), nil
}

// ListByUserID returns the wallets of a user, oldest first
func (r *WalletRepository) ListByUserID(ctx context.Context, userID string) ([]*entity.Wallet, error) {
	var walletModels []model.Wallet
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&walletModels)
	if result.Error != nil {
		return nil, r.handleDatabaseError("listing wallets", result.Error, "")
	}

	wallets := make([]*entity.Wallet, 0, len(walletModels))
	for i := range walletModels {
		wallets = append(wallets, walletToEntity(&walletModels[i]))
	}
	return wallets, nil
}

// UpdateBalance writes the balance only if the row still holds expected
func (r *WalletRepository) UpdateBalance(ctx context.Context, id string, expected, balance int64, updatedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Wallet{}).
		Where("id = ? AND balance = ?", id, expected).
		Updates(map[string]any{
			"balance":    balance,
			"updated_at": updatedAt,
		})
	if result.Error != nil {
		return r.handleDatabaseError("updating balance", result.Error, id)
	}

	if result.RowsAffected == 1 {
		return nil
	}

	// Nothing matched: either the wallet is gone or its balance moved
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Wallet{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return r.handleDatabaseError("checking wallet", err, id)
	}
	if count == 0 {
		return errs.ErrWalletNotFound
	}

	r.logger.Warn("Wallet balance changed concurrently", map[string]any{
		"wallet_id": id,
		"expected":  entity.FormatAmount(expected),
	})
	return errs.ErrConflict
}
