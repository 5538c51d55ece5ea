package persistence

import (
	"context"
	"time"

	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/entity"
	"github.com/stretchr/testify/mock"
)

// MockWalletRepository is a testify mock of persistence.WalletRepository
type MockWalletRepository struct {
	mock.Mock
}

// NewMockWalletRepository creates a mock and registers expectation checks on cleanup
func NewMockWalletRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockWalletRepository {
	m := &MockWalletRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockWalletRepository) Create(ctx context.Context, wallet *entity.Wallet) error {
	args := m.Called(ctx, wallet)
	return args.Error(0)
}

func (m *MockWalletRepository) GetByID(ctx context.Context, id string) (*entity.Wallet, error) {
	args := m.Called(ctx, id)
	wallet, _ := args.Get(0).(*entity.Wallet)
	return wallet, args.Error(1)
}

func (m *MockWalletRepository) GetForUpdate(ctx context.Context, id string) (*entity.Wallet, error) {
	args := m.Called(ctx, id)
	wallet, _ := args.Get(0).(*entity.Wallet)
	return wallet, args.Error(1)
}

func (m *MockWalletRepository) ListByUserID(ctx context.Context, userID string) ([]*entity.Wallet, error) {
	args := m.Called(ctx, userID)
	wallets, _ := args.Get(0).([]*entity.Wallet)
	return wallets, args.Error(1)
}

func (m *MockWalletRepository) UpdateBalance(ctx context.Context, id string, expected, balance int64, updatedAt time.Time) error {
	args := m.Called(ctx, id, expected, balance, updatedAt)
	return args.Error(0)
}
