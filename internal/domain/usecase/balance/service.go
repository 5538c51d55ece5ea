package balance

import (
	"context"

	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/wallet-ledger/internal/domain/error"
	cacheport "github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/cache"
	coreport "github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/usecase"
)

const (
	operationApply      = "apply_transaction"
	operationSetBalance = "set_balance"
)

// Service implements usecase.BalanceUseCase. Every balance change reads the wallet
// under a row lock, checks funds, writes the balance guarded by the value read,
// and appends the entry, all in one unit of work.
type Service struct {
	uow          persistence.UnitOfWork
	validator    *TransactionValidator
	serializer   *WalletSerializer
	cache        cacheport.ViewCache
	metrics      coreport.Metrics
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
	retry        RetryPolicy
}

// Option configures optional collaborators of the Service
type Option func(*Service)

// WithRetryPolicy overrides DefaultRetryPolicy
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(s *Service) { s.retry = policy }
}

// WithSerializer enables in-process per-wallet queueing
func WithSerializer(serializer *WalletSerializer) Option {
	return func(s *Service) { s.serializer = serializer }
}

// WithViewCache invalidates cached read views after each committed write
func WithViewCache(cache cacheport.ViewCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithMetrics records outcomes and retries
func WithMetrics(metrics coreport.Metrics) Option {
	return func(s *Service) { s.metrics = metrics }
}

// NewService creates the balance engine
func NewService(
	uow persistence.UnitOfWork,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		uow:          uow,
		validator:    NewTransactionValidator(),
		metrics:      nopMetrics{},
		timeProvider: timeProvider,
		logger:       logger,
		retry:        DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ApplyTransaction moves the wallet balance by the request and records the entry
func (s *Service) ApplyTransaction(
	ctx context.Context,
	req usecase.ApplyTransactionRequest,
) (*usecase.ApplyTransactionResult, error) {
	kind := string(req.Kind)
	amount := entity.FormatAmount(req.Amount)

	if err := s.validator.ValidateApply(req); err != nil {
		s.metrics.ObserveTransaction(kind, coreport.OutcomeInvalid)
		return nil, errs.NewWalletError(req.WalletID, "apply transaction", kind, amount, err)
	}

	release := s.serializer.Lock(req.WalletID)
	defer release()

	var result *usecase.ApplyTransactionResult
	err := s.retryOnConflict(ctx, operationApply, func() error {
		return persistence.WithinUnit(ctx, s.uow, func(txCtx context.Context) error {
			wallets := s.uow.GetWalletRepository(txCtx)

			wallet, err := wallets.GetForUpdate(txCtx, req.WalletID)
			if err != nil {
				return err
			}

			tx, err := s.record(txCtx, wallet, req.Kind, req.Amount, req.Category)
			if err != nil {
				return err
			}

			result = &usecase.ApplyTransactionResult{Transaction: tx, Wallet: wallet}
			return nil
		})
	})
	if err != nil {
		s.observeFailure(kind, err)
		walletErr := errs.NewWalletError(req.WalletID, "apply transaction", kind, amount, err)
		s.logFailure("Transaction rejected", walletErr)
		return nil, walletErr
	}

	s.metrics.ObserveTransaction(kind, coreport.OutcomeApplied)
	s.invalidate(ctx, req.WalletID)

	s.logger.Info("Transaction applied", map[string]any{
		"wallet_id":      result.Wallet.ID,
		"transaction_id": result.Transaction.ID,
		"kind":           kind,
		"amount":         amount,
		"category":       result.Transaction.Category,
		"balance":        result.Wallet.FormattedBalance(),
	})

	return result, nil
}

// SetBalance moves the wallet to newBalance through an adjustment entry so the
// balance keeps equalling the net of its transactions
func (s *Service) SetBalance(ctx context.Context, walletID string, newBalance int64) (*usecase.SetBalanceResult, error) {
	target := entity.FormatAmount(newBalance)

	if err := s.validator.ValidateSetBalance(walletID, newBalance); err != nil {
		s.metrics.ObserveTransaction(entity.CategoryAdjustment, coreport.OutcomeInvalid)
		return nil, errs.NewWalletError(walletID, "set balance", "", target, err)
	}

	release := s.serializer.Lock(walletID)
	defer release()

	var result *usecase.SetBalanceResult
	err := s.retryOnConflict(ctx, operationSetBalance, func() error {
		return persistence.WithinUnit(ctx, s.uow, func(txCtx context.Context) error {
			wallet, err := s.uow.GetWalletRepository(txCtx).GetForUpdate(txCtx, walletID)
			if err != nil {
				return err
			}

			kind, amount, needed, err := wallet.AdjustmentTo(newBalance)
			if err != nil {
				return err
			}

			result = &usecase.SetBalanceResult{Wallet: wallet}
			if !needed {
				return nil
			}

			result.Adjustment, err = s.record(txCtx, wallet, kind, amount, entity.CategoryAdjustment)
			return err
		})
	})
	if err != nil {
		s.observeFailure(entity.CategoryAdjustment, err)
		walletErr := errs.NewWalletError(walletID, "set balance", "", target, err)
		s.logFailure("Balance override rejected", walletErr)
		return nil, walletErr
	}

	if result.Adjustment == nil {
		return result, nil
	}

	s.metrics.ObserveTransaction(entity.CategoryAdjustment, coreport.OutcomeApplied)
	s.invalidate(ctx, walletID)

	s.logger.Info("Balance adjusted", map[string]any{
		"wallet_id":      walletID,
		"transaction_id": result.Adjustment.ID,
		"kind":           string(result.Adjustment.Kind),
		"amount":         result.Adjustment.FormattedAmount(),
		"balance":        result.Wallet.FormattedBalance(),
	})

	return result, nil
}

// record applies one entry to a locked wallet and stores both. It must run inside a unit of work.
func (s *Service) record(
	txCtx context.Context,
	wallet *entity.Wallet,
	kind entity.TransactionKind,
	amount int64,
	category string,
) (*entity.Transaction, error) {
	tx, err := entity.NewTransaction(wallet.ID, kind, amount, category, wallet.NextEntryTime(s.timeProvider.Now()))
	if err != nil {
		return nil, err
	}

	previous := wallet.Balance()
	if err := wallet.Apply(tx); err != nil {
		return nil, err
	}

	if err := s.uow.GetWalletRepository(txCtx).UpdateBalance(txCtx, wallet.ID, previous, wallet.Balance(), wallet.UpdatedAt); err != nil {
		return nil, err
	}

	if err := s.uow.GetTransactionRepository(txCtx).Append(txCtx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

func (s *Service) invalidate(ctx context.Context, walletID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateWallet(ctx, walletID); err != nil {
		s.logger.Warn("Failed to invalidate cached views", map[string]any{
			"wallet_id": walletID,
			"error":     err.Error(),
		})
	}
}

func (s *Service) observeFailure(kind string, err error) {
	switch {
	case errs.IsInsufficientFundsError(err):
		s.metrics.ObserveTransaction(kind, coreport.OutcomeInsufficientFunds)
	case errs.IsNotFoundError(err):
		s.metrics.ObserveTransaction(kind, coreport.OutcomeNotFound)
	case errs.IsValidationError(err):
		s.metrics.ObserveTransaction(kind, coreport.OutcomeInvalid)
	case errs.IsConflictError(err):
		s.metrics.ObserveTransaction(kind, coreport.OutcomeConflict)
	default:
		s.metrics.ObserveTransaction(kind, coreport.OutcomeError)
	}
}

func (s *Service) logFailure(message string, err error) {
	fields := errs.Fields(err)
	switch {
	case errs.IsInsufficientFundsError(err), errs.IsNotFoundError(err), errs.IsValidationError(err):
		s.logger.Info(message, fields)
	case errs.IsConflictError(err):
		s.logger.Warn(message, fields)
	default:
		s.logger.Error(message, fields)
	}
}

type nopMetrics struct{}

func (nopMetrics) ObserveTransaction(string, string) {}
func (nopMetrics) ObserveRetry(string)               {}
func (nopMetrics) ObserveProvision(bool)             {}
