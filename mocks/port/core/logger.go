package core

import (
	coreport "github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/core"
	"github.com/stretchr/testify/mock"
)

// MockLogger is a testify mock of core.Logger
type MockLogger struct {
	mock.Mock
}

// NewMockLogger creates a mock and registers expectation checks on cleanup
func NewMockLogger(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockLogger {
	m := &MockLogger{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// AllowAll accepts any log call
func (m *MockLogger) AllowAll() *MockLogger {
	for _, level := range []string{"Debug", "Info", "Warn", "Error"} {
		m.On(level, mock.Anything, mock.Anything).Maybe()
	}
	return m
}

func (m *MockLogger) SetLevel(level coreport.LogLevel) {
	m.Called(level)
}

func (m *MockLogger) GetLevel() coreport.LogLevel {
	args := m.Called()
	return args.Get(0).(coreport.LogLevel)
}

func (m *MockLogger) Debug(message string, fields map[string]any) {
	m.Called(message, fields)
}

func (m *MockLogger) Info(message string, fields map[string]any) {
	m.Called(message, fields)
}

func (m *MockLogger) Warn(message string, fields map[string]any) {
	m.Called(message, fields)
}

func (m *MockLogger) Error(message string, fields map[string]any) {
	m.Called(message, fields)
}

func (m *MockLogger) Flush() error {
	args := m.Called()
	return args.Error(0)
}
