package repository

import (
	"context"

	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/wallet-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
)

// UserRepository implements persistence.UserRepository using GORM
type UserRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewUserRepository creates a new UserRepository instance
func NewUserRepository(db *gorm.DB, logger coreport.Logger) *UserRepository {
	return &UserRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

// userToEntity converts a user model, with any preloaded wallets, to an entity
func userToEntity(userModel *model.User) *entity.User {
	user := &entity.User{
		ID:          userModel.ID,
		ExternalID:  userModel.ExternalID,
		Email:       userModel.Email,
		DisplayName: userModel.DisplayName,
		CreatedAt:   userModel.CreatedAt.UTC(),
		UpdatedAt:   userModel.UpdatedAt.UTC(),
	}
	for i := range userModel.Wallets {
		user.Wallets = append(user.Wallets, walletToEntity(&userModel.Wallets[i]))
	}
	return user
}

// handleDatabaseError standardizes database error handling
func (r *UserRepository) handleDatabaseError(operation string, err error, externalID string) error {
	mapped := r.errorClassifier.MapError(err, errs.ErrUserNotFound, operation)
	if errs.IsNotFoundError(mapped) {
		return mapped
	}

	r.logger.Error("Database error when "+operation, map[string]any{
		"external_id": externalID,
		"error":       err.Error(),
	})
	return mapped
}

// GetByExternalID retrieves a user by the identifier issued by the auth provider
func (r *UserRepository) GetByExternalID(ctx context.Context, externalID string) (*entity.User, error) {
	var userModel model.User
	result := r.db.WithContext(ctx).Where("external_id = ?", externalID).Take(&userModel)
	if result.Error != nil {
		return nil, r.handleDatabaseError("getting user", result.Error, externalID)
	}

	return userToEntity(&userModel), nil
}

// GetWithWallets retrieves a user with wallets oldest first and each wallet's
// transactions newest first
func (r *UserRepository) GetWithWallets(ctx context.Context, externalID string) (*entity.User, error) {
	var userModel model.User
	result := r.db.WithContext(ctx).
		Preload("Wallets", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Wallets.Transactions", func(db *gorm.DB) *gorm.DB {
			return db.Order(historyOrder)
		}).
		Where("external_id = ?", externalID).
		Take(&userModel)
	if result.Error != nil {
		return nil, r.handleDatabaseError("getting user with wallets", result.Error, externalID)
	}

	return userToEntity(&userModel), nil
}

// Create stores a new user. A unique violation on external_id is reported as ErrDuplicateUser.
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	userModel := model.User{
		ID:          user.ID,
		ExternalID:  user.ExternalID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}

	result := r.db.WithContext(ctx).Omit("Wallets").Create(&userModel)
	if result.Error != nil {
		if r.errorClassifier.IsDuplicateKeyError(result.Error) {
			r.logger.Debug("User already exists", map[string]any{
				"external_id": user.ExternalID,
			})
			return errs.ErrDuplicateUser
		}
		return r.handleDatabaseError("creating user", result.Error, user.ExternalID)
	}

	r.logger.Debug("User created", map[string]any{
		"user_id":     user.ID,
		"external_id": user.ExternalID,
	})
	return nil
}
