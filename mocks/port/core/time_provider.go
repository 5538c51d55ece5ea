package core

import (
	"time"

	"github.com/stretchr/testify/mock"
)

// MockTimeProvider is a testify mock of core.TimeProvider
type MockTimeProvider struct {
	mock.Mock
}

// NewMockTimeProvider creates a mock and registers expectation checks on cleanup
func NewMockTimeProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTimeProvider {
	m := &MockTimeProvider{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTimeProvider) Now() time.Time {
	args := m.Called()
	return args.Get(0).(time.Time)
}

func (m *MockTimeProvider) Since(t time.Time) time.Duration {
	args := m.Called(t)
	return args.Get(0).(time.Duration)
}

func (m *MockTimeProvider) After(d time.Duration) <-chan time.Time {
	args := m.Called(d)
	return args.Get(0).(<-chan time.Time)
}
