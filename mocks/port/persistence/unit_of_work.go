package persistence

import (
	"context"

	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/persistence"
	"github.com/stretchr/testify/mock"
)

// MockUnitOfWork is a testify mock of persistence.UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

// NewMockUnitOfWork creates a mock and registers expectation checks on cleanup
func NewMockUnitOfWork(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUnitOfWork {
	m := &MockUnitOfWork{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	var txCtx context.Context
	if v := args.Get(0); v != nil {
		txCtx = v.(context.Context)
	}
	return txCtx, args.Error(1)
}

func (m *MockUnitOfWork) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) GetUserRepository(ctx context.Context) persistence.UserRepository {
	args := m.Called(ctx)
	return args.Get(0).(persistence.UserRepository)
}

func (m *MockUnitOfWork) GetWalletRepository(ctx context.Context) persistence.WalletRepository {
	args := m.Called(ctx)
	return args.Get(0).(persistence.WalletRepository)
}

func (m *MockUnitOfWork) GetTransactionRepository(ctx context.Context) persistence.TransactionRepository {
	args := m.Called(ctx)
	return args.Get(0).(persistence.TransactionRepository)
}
