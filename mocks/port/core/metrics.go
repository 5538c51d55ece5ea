package core

import (
	"github.com/stretchr/testify/mock"
)

// MockMetrics is a testify mock of core.Metrics
type MockMetrics struct {
	mock.Mock
}

// NewMockMetrics creates a mock and registers expectation checks on cleanup
func NewMockMetrics(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockMetrics {
	m := &MockMetrics{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockMetrics) ObserveTransaction(kind, outcome string) {
	m.Called(kind, outcome)
}

func (m *MockMetrics) ObserveRetry(operation string) {
	m.Called(operation)
}

func (m *MockMetrics) ObserveProvision(created bool) {
	m.Called(created)
}
