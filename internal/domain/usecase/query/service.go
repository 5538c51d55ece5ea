package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/wallet-ledger/internal/domain/error"
	cacheport "github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/cache"
	coreport "github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/persistence"
)

// Service implements usecase.QueryUseCase with an optional read-through cache
type Service struct {
	uow    persistence.UnitOfWork
	cache  cacheport.ViewCache
	logger coreport.Logger
}

// NewService creates the query service. cache may be nil.
func NewService(uow persistence.UnitOfWork, cache cacheport.ViewCache, logger coreport.Logger) *Service {
	return &Service{
		uow:    uow,
		cache:  cache,
		logger: logger,
	}
}

// GetUserView returns the user with its wallets, each with transactions newest first
func (s *Service) GetUserView(ctx context.Context, externalID string) (*entity.User, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, fmt.Errorf("%w: external id is required", errs.ErrInvalidInput)
	}

	var generation int64
	fill := false
	if s.cache != nil {
		user, ok, err := s.cache.GetUserView(ctx, externalID)
		if err != nil {
			s.logCacheError("read user view", externalID, err)
		} else if ok {
			return user, nil
		}
		generation, fill = s.generation(ctx, externalID)
	}

	user, err := s.uow.GetUserRepository(ctx).GetWithWallets(ctx, externalID)
	if err != nil {
		return nil, err
	}

	if fill {
		if err := s.cache.SetUserView(ctx, user, generation); err != nil {
			s.logCacheError("store user view", externalID, err)
		}
	}

	return user, nil
}

// GetHistory returns the wallet's transactions newest first. A wallet without
// transactions yields an empty slice; a missing wallet is ErrWalletNotFound.
func (s *Service) GetHistory(ctx context.Context, walletID string) ([]*entity.Transaction, error) {
	walletID = strings.TrimSpace(walletID)
	if walletID == "" {
		return nil, fmt.Errorf("%w: wallet id is required", errs.ErrInvalidInput)
	}

	var generation int64
	fill := false
	if s.cache != nil {
		history, ok, err := s.cache.GetHistory(ctx, walletID)
		if err != nil {
			s.logCacheError("read history", walletID, err)
		} else if ok {
			return history, nil
		}
		generation, fill = s.generation(ctx, walletID)
	}

	if _, err := s.uow.GetWalletRepository(ctx).GetByID(ctx, walletID); err != nil {
		return nil, err
	}

	history, err := s.uow.GetTransactionRepository(ctx).ListByWalletID(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []*entity.Transaction{}
	}

	if fill {
		if err := s.cache.SetHistory(ctx, walletID, history, generation); err != nil {
			s.logCacheError("store history", walletID, err)
		}
	}

	return history, nil
}

// generation must be read before the store so a write committing in between
// makes the later Set a no-op
func (s *Service) generation(ctx context.Context, key string) (int64, bool) {
	generation, err := s.cache.Generation(ctx)
	if err != nil {
		s.logCacheError("read generation", key, err)
		return 0, false
	}
	return generation, true
}

func (s *Service) logCacheError(action, key string, err error) {
	s.logger.Warn("View cache unavailable, serving from store", map[string]any{
		"action": action,
		"key":    key,
		"error":  err.Error(),
	})
}
