package repository

import (
	"context"

	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/wallet-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
)

// historyOrder is newest first, with the id breaking ties between equal timestamps
const historyOrder = "created_at DESC, id DESC"

// TransactionRepository implements persistence.TransactionRepository using GORM
type TransactionRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewTransactionRepository creates a new TransactionRepository instance
func NewTransactionRepository(db *gorm.DB, logger coreport.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

// entityToModel converts a transaction entity to a database model
func (r *TransactionRepository) entityToModel(transaction *entity.Transaction) model.Transaction {
	return model.Transaction{
		ID:        transaction.ID,
		WalletID:  transaction.WalletID,
		Kind:      string(transaction.Kind),
		Amount:    transaction.Amount,
		Category:  transaction.Category,
		CreatedAt: transaction.CreatedAt,
	}
}

func transactionToEntity(transactionModel *model.Transaction) *entity.Transaction {
	return &entity.Transaction{
		ID:        transactionModel.ID,
		WalletID:  transactionModel.WalletID,
		Kind:      entity.TransactionKind(transactionModel.Kind),
		Amount:    transactionModel.Amount,
		Category:  transactionModel.Category,
		CreatedAt: transactionModel.CreatedAt.UTC(),
	}
}

// Append inserts a ledger entry
func (r *TransactionRepository) Append(ctx context.Context, transaction *entity.Transaction) error {
	transactionModel := r.entityToModel(transaction)

	result := r.db.WithContext(ctx).Create(&transactionModel)
	if result.Error != nil {
		mapped := r.errorClassifier.MapError(result.Error, errs.ErrWalletNotFound, "appending transaction")
		if !errs.IsNotFoundError(mapped) {
			r.logger.Error("Failed to append transaction", map[string]any{
				"transaction_id": transaction.ID,
				"wallet_id":      transaction.WalletID,
				"error":          result.Error.Error(),
			})
		}
		return mapped
	}

	r.logger.Debug("Transaction appended", map[string]any{
		"transaction_id": transaction.ID,
		"wallet_id":      transaction.WalletID,
		"kind":           transactionModel.Kind,
		"amount":         transaction.FormattedAmount(),
	})
	return nil
}

// ListByWalletID returns the entries of a wallet, newest first
func (r *TransactionRepository) ListByWalletID(ctx context.Context, walletID string) ([]*entity.Transaction, error) {
	var transactionModels []model.Transaction
	result := r.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order(historyOrder).
		Find(&transactionModels)
	if result.Error != nil {
		mapped := r.errorClassifier.MapError(result.Error, errs.ErrWalletNotFound, "listing transactions")
		r.logger.Error("Failed to list transactions", map[string]any{
			"wallet_id": walletID,
			"error":     result.Error.Error(),
		})
		return nil, mapped
	}

	history := make([]*entity.Transaction, 0, len(transactionModels))
	for i := range transactionModels {
		history = append(history, transactionToEntity(&transactionModels[i]))
	}
	return history, nil
}
