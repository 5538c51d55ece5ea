package persistence

import (
	"context"

	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/entity"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a testify mock of persistence.UserRepository
type MockUserRepository struct {
	mock.Mock
}

// NewMockUserRepository creates a mock and registers expectation checks on cleanup
func NewMockUserRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUserRepository {
	m := &MockUserRepository{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUserRepository) GetByExternalID(ctx context.Context, externalID string) (*entity.User, error) {
	args := m.Called(ctx, externalID)
	user, _ := args.Get(0).(*entity.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) GetWithWallets(ctx context.Context, externalID string) (*entity.User, error) {
	args := m.Called(ctx, externalID)
	user, _ := args.Get(0).(*entity.User)
	return user, args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *entity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
