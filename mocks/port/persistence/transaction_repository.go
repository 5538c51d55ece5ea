package persistence

import (
	"context"

	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/entity"
	"github.com/stretchr/testify/mock"
)

// MockTransactionRepository is a testify mock of persistence.TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

// NewMockTransactionRepository creates a mock and registers expectation checks on cleanup
func NewMockTransactionRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTransactionRepository {
	m := &MockTransactionRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTransactionRepository) Append(ctx context.Context, tx *entity.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) ListByWalletID(ctx context.Context, walletID string) ([]*entity.Transaction, error) {
	args := m.Called(ctx, walletID)
	history, _ := args.Get(0).([]*entity.Transaction)
	return history, args.Error(1)
}
