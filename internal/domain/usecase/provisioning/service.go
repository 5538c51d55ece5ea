package provisioning

import (
	"context"
	"fmt"
	"strings"

	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/wallet-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/usecase"
)

// maxReadRetries bounds how often a caller that lost a creation race re-reads the winner
const maxReadRetries = 3

// Service implements usecase.ProvisioningUseCase
type Service struct {
	uow          persistence.UnitOfWork
	metrics      coreport.Metrics
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewService creates a provisioning service. metrics may be nil.
func NewService(
	uow persistence.UnitOfWork,
	metrics coreport.Metrics,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Service {
	return &Service{
		uow:          uow,
		metrics:      metrics,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Provision returns the user for the external id, creating it with one zero-balance
// wallet on first contact. The unique external id in the store decides concurrent
// first contacts; the loser re-reads and returns the winner's user.
func (s *Service) Provision(ctx context.Context, req usecase.ProvisionRequest) (*usecase.ProvisionResult, error) {
	externalID := strings.TrimSpace(req.ExternalID)
	if externalID == "" {
		return nil, fmt.Errorf("%w: external id is required", errs.ErrInvalidInput)
	}

	var lastErr error
	for attempt := 0; attempt < maxReadRetries; attempt++ {
		existing, err := s.uow.GetUserRepository(ctx).GetWithWallets(ctx, externalID)
		if err == nil {
			s.observe(false)
			s.logger.Debug("User already provisioned", map[string]any{
				"external_id": externalID,
				"user_id":     existing.ID,
			})
			return &usecase.ProvisionResult{User: existing, Created: false}, nil
		}
		if !errs.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to look up user %s: %w", externalID, err)
		}

		created, err := s.create(ctx, req)
		if err == nil {
			s.observe(true)
			s.logger.Info("User provisioned", map[string]any{
				"external_id": created.ExternalID,
				"user_id":     created.ID,
				"wallet_id":   created.PrimaryWallet().ID,
			})
			return &usecase.ProvisionResult{User: created, Created: true}, nil
		}
		if !errs.IsConflictError(err) {
			return nil, err
		}

		lastErr = err
		s.logger.Warn("Concurrent provisioning detected, re-reading user", map[string]any{
			"external_id": externalID,
			"attempt":     attempt + 1,
		})
	}

	return nil, fmt.Errorf("provisioning %s did not settle after %d attempts: %w", externalID, maxReadRetries, lastErr)
}

// create stores the user and its wallet as one unit
func (s *Service) create(ctx context.Context, req usecase.ProvisionRequest) (*entity.User, error) {
	user, err := entity.NewUser(req.ExternalID, req.Email, req.DisplayName, s.timeProvider)
	if err != nil {
		return nil, err
	}

	wallet, err := entity.NewWallet(user.ID, 0, s.timeProvider)
	if err != nil {
		return nil, err
	}

	err = persistence.WithinUnit(ctx, s.uow, func(txCtx context.Context) error {
		if err := s.uow.GetUserRepository(txCtx).Create(txCtx, user); err != nil {
			return err
		}
		return s.uow.GetWalletRepository(txCtx).Create(txCtx, wallet)
	})
	if err != nil {
		return nil, err
	}

	user.Wallets = []*entity.Wallet{wallet}
	return user, nil
}

func (s *Service) observe(created bool) {
	if s.metrics != nil {
		s.metrics.ObserveProvision(created)
	}
}
