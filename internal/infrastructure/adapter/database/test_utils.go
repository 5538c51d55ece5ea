package database

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	coreport "github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/adapter/database/migration"
	"github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/adapter/model"
	timeprovider "github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/adapter/time"
)

// TestDBManager provides utilities for testing against a real database.
// Tests using it are skipped unless TEST_DB_HOST is set.
type TestDBManager struct {
	Manager      *Manager
	Config       *Config
	Logger       coreport.Logger
	TimeProvider coreport.TimeProvider
}

// NewTestDBManager connects to the test database, recreating the schema
func NewTestDBManager(t *testing.T, logger coreport.Logger) *TestDBManager {
	t.Helper()

	host, ok := os.LookupEnv("TEST_DB_HOST")
	if !ok || host == "" {
		t.Skip("TEST_DB_HOST not set, skipping database test")
	}

	driver := getEnvOrDefault("TEST_DB_DRIVER", DriverPostgres)
	defaultPort := 5432
	if driver == DriverMySQL {
		defaultPort = 3306
	}

	config := &Config{
		Driver:          driver,
		Host:            host,
		Port:            getEnvIntOrDefault("TEST_DB_PORT", defaultPort),
		Username:        getEnvOrDefault("TEST_DB_USERNAME", "postgres"),
		Password:        getEnvOrDefault("TEST_DB_PASSWORD", "postgres"),
		Database:        getEnvOrDefault("TEST_DB_DATABASE", "wallet_ledger_test"),
		SSLMode:         getEnvOrDefault("TEST_DB_SSL_MODE", "disable"),
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		QueryTimeout:    5 * time.Second,
		LogLevel:        "silent",
		RetryAttempts:   1,
	}

	timeProvider := timeprovider.NewRealTimeProvider()
	m := &TestDBManager{
		Manager:      NewManager(config, logger, timeProvider),
		Config:       config,
		Logger:       logger,
		TimeProvider: timeProvider,
	}

	if _, err := m.Manager.Connect(context.Background()); err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(func() { m.Close(t) })

	m.SetupTestDB(t)
	return m
}

// Close closes the test database connection
func (m *TestDBManager) Close(t *testing.T) {
	t.Helper()

	if err := m.Manager.Close(); err != nil {
		t.Logf("Warning: Failed to close test database connection: %v", err)
	}
}

// SetupTestDB drops the ledger tables and runs the migrations from scratch
func (m *TestDBManager) SetupTestDB(t *testing.T) {
	t.Helper()

	db := m.Manager.DB()
	if err := db.Migrator().DropTable(
		&model.Transaction{},
		&model.Wallet{},
		&model.User{},
		&model.MigrationVersion{},
	); err != nil {
		t.Fatalf("Failed to drop tables: %v", err)
	}

	if err := migration.NewMigrationManager(db, m.Logger, m.TimeProvider).MigrateAll(context.Background()); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
}

// Helper functions to get environment variables or defaults
func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}
