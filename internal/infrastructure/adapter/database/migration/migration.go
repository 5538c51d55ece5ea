package migration

import (
	"context"
	"errors"
	"fmt"

	coreport "github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
)

// Step is one schema version. Steps run in order and each is recorded in
// migration_versions once applied.
type Step struct {
	Version string
	Details string
	Apply   func(db *gorm.DB, logger coreport.Logger) error
}

// Steps is the ordered schema history
var Steps = []Step{
	{
		Version: "1.0.0",
		Details: "Users, wallets and ledger entries",
		Apply: func(db *gorm.DB, logger coreport.Logger) error {
			logger.Info("Auto-migrating database models", nil)
			// foreign keys point at earlier tables
			return db.AutoMigrate(&model.User{}, &model.Wallet{}, &model.Transaction{})
		},
	},
	{
		Version: "1.1.0",
		Details: "PostgreSQL ledger indexes and fillfactor",
		Apply: func(db *gorm.DB, logger coreport.Logger) error {
			if db.Dialector.Name() != "postgres" {
				logger.Info("Skipping PostgreSQL-only indexes", map[string]any{"dialect": db.Dialector.Name()})
				return nil
			}
			indexes := NewAdvancedIndexManager(db, logger)
			if err := indexes.CreateAdvancedIndexes(); err != nil {
				return err
			}
			return indexes.CreatePerformanceTweaks()
		},
	},
}

// CurrentSchemaVersion is the version of the last step
var CurrentSchemaVersion = Steps[len(Steps)-1].Version

// MigrationManager applies pending Steps
type MigrationManager struct {
	db           *gorm.DB
	logger       coreport.Logger
	timeProvider coreport.TimeProvider
	steps        []Step
}

// NewMigrationManager creates a new migration manager
func NewMigrationManager(db *gorm.DB, logger coreport.Logger, timeProvider coreport.TimeProvider) *MigrationManager {
	return &MigrationManager{
		db:           db,
		logger:       logger,
		timeProvider: timeProvider,
		steps:        Steps,
	}
}

// MigrateAll brings the schema to CurrentSchemaVersion. It is safe to run on every start.
func (m *MigrationManager) MigrateAll(ctx context.Context) error {
	db := m.db.WithContext(ctx)

	if err := db.AutoMigrate(&model.MigrationVersion{}); err != nil {
		m.logger.Error("Failed to create migration version table", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	currentVersion, err := m.GetCurrentVersion(ctx)
	if err != nil {
		m.logger.Error("Failed to check current schema version", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	pending, err := pendingSteps(m.steps, currentVersion)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		m.logger.Info("Database already at target version, skipping migration", map[string]any{
			"version": currentVersion,
		})
		return nil
	}

	m.logger.Info("Starting database migrations", map[string]any{
		"from_version": currentVersion,
		"to_version":   pending[len(pending)-1].Version,
		"steps":        len(pending),
	})

	for _, step := range pending {
		if err := step.Apply(db, m.logger); err != nil {
			m.logger.Error("Migration step failed", map[string]any{
				"version": step.Version,
				"error":   err.Error(),
			})
			return fmt.Errorf("migrate to %s: %w", step.Version, err)
		}
		if err := m.setVersion(ctx, step.Version, step.Details); err != nil {
			return fmt.Errorf("record version %s: %w", step.Version, err)
		}
		m.logger.Info("Migration step applied", map[string]any{"version": step.Version})
	}

	return nil
}

// GetCurrentVersion gets the current migration version, "" for a fresh database
func (m *MigrationManager) GetCurrentVersion(ctx context.Context) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	var version model.MigrationVersion
	result := m.db.WithContext(ctx).Order("applied_at desc").Order("id desc").First(&version)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", result.Error
	}

	return version.Version, nil
}

func (m *MigrationManager) setVersion(ctx context.Context, version string, details string) error {
	return m.db.WithContext(ctx).Create(&model.MigrationVersion{
		Version:   version,
		AppliedAt: m.timeProvider.Now(),
		Details:   details,
	}).Error
}

// pendingSteps returns the steps after current. An unknown current version means
// the database was migrated by a newer build and is rejected.
func pendingSteps(steps []Step, current string) ([]Step, error) {
	if current == "" {
		return steps, nil
	}
	for i, step := range steps {
		if step.Version == current {
			return steps[i+1:], nil
		}
	}
	return nil, fmt.Errorf("database schema version %q is unknown to this build", current)
}
