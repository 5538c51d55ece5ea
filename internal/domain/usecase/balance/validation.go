package balance

import (
	"fmt"
	"strings"

	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/wallet-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/usecase"
)

// TransactionValidator checks balance requests before any storage access
type TransactionValidator struct{}

// NewTransactionValidator creates a new TransactionValidator
func NewTransactionValidator() *TransactionValidator {
	return &TransactionValidator{}
}

// ValidateApply validates all fields of an apply request
func (v *TransactionValidator) ValidateApply(req usecase.ApplyTransactionRequest) error {
	if err := v.validateWalletID(req.WalletID); err != nil {
		return err
	}

	if !req.Kind.IsValid() {
		return fmt.Errorf("%w: %q", errs.ErrInvalidKind, req.Kind)
	}

	if req.Amount <= 0 {
		return fmt.Errorf("%w: must be greater than zero", errs.ErrInvalidAmount)
	}

	if _, err := entity.NormalizeCategory(req.Category); err != nil {
		return err
	}

	return nil
}

// ValidateSetBalance validates an administrative balance override
func (v *TransactionValidator) ValidateSetBalance(walletID string, newBalance int64) error {
	if err := v.validateWalletID(walletID); err != nil {
		return err
	}

	if newBalance < 0 {
		return fmt.Errorf("%w: balance cannot be negative", errs.ErrInvalidAmount)
	}

	return nil
}

func (v *TransactionValidator) validateWalletID(walletID string) error {
	if strings.TrimSpace(walletID) == "" {
		return fmt.Errorf("%w: wallet id is required", errs.ErrInvalidInput)
	}
	return nil
}
