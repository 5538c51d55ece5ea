package cache

import (
	"context"

	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/entity"
	"github.com/stretchr/testify/mock"
)

// MockViewCache is a testify mock of cache.ViewCache
type MockViewCache struct {
	mock.Mock
}

// NewMockViewCache creates a mock and registers expectation checks on cleanup
func NewMockViewCache(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockViewCache {
	m := &MockViewCache{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockViewCache) Generation(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockViewCache) GetUserView(ctx context.Context, externalID string) (*entity.User, bool, error) {
	args := m.Called(ctx, externalID)
	user, _ := args.Get(0).(*entity.User)
	return user, args.Bool(1), args.Error(2)
}

func (m *MockViewCache) SetUserView(ctx context.Context, user *entity.User, generation int64) error {
	args := m.Called(ctx, user, generation)
	return args.Error(0)
}

func (m *MockViewCache) GetHistory(ctx context.Context, walletID string) ([]*entity.Transaction, bool, error) {
	args := m.Called(ctx, walletID)
	history, _ := args.Get(0).([]*entity.Transaction)
	return history, args.Bool(1), args.Error(2)
}

func (m *MockViewCache) SetHistory(ctx context.Context, walletID string, history []*entity.Transaction, generation int64) error {
	args := m.Called(ctx, walletID, history, generation)
	return args.Error(0)
}

func (m *MockViewCache) InvalidateWallet(ctx context.Context, walletID string) error {
	args := m.Called(ctx, walletID)
	return args.Error(0)
}
