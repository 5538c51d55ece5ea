package migration

import (
	coreport "github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/core"
	"gorm.io/gorm"
)

// AdvancedIndexManager manages PostgreSQL-specific indexes and table settings
type AdvancedIndexManager struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewAdvancedIndexManager creates a new advanced index manager
func NewAdvancedIndexManager(db *gorm.DB, logger coreport.Logger) *AdvancedIndexManager {
	return &AdvancedIndexManager{
		db:     db,
		logger: logger,
	}
}

// CreateAdvancedIndexes creates indexes GORM tags cannot express
func (m *AdvancedIndexManager) CreateAdvancedIndexes() error {
	m.logger.Info("Creating advanced PostgreSQL indexes", nil)

	// BRIN suits the append-only, time-ordered ledger table
	if err := m.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_transactions_created_at_brin
		ON transactions USING BRIN (created_at)
		WITH (pages_per_range = 32)
	`).Error; err != nil {
		m.logger.Error("Failed to create BRIN index on created_at", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	if err := m.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_transactions_wallet_category
		ON transactions (wallet_id, category)
		WHERE category <> ''
	`).Error; err != nil {
		m.logger.Error("Failed to create category partial index", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	m.logger.Info("Advanced PostgreSQL indexes created successfully", nil)
	return nil
}

// CreatePerformanceTweaks applies table storage settings. Failures are logged, not returned.
func (m *AdvancedIndexManager) CreatePerformanceTweaks() error {
	m.logger.Info("Applying PostgreSQL performance tweaks", nil)

	// Wallet rows are updated on every entry; free space keeps updates on the same page
	if err := m.db.Exec(`ALTER TABLE wallets SET (fillfactor = 80)`).Error; err != nil {
		m.logger.Warn("Failed to set fillfactor for wallets table", map[string]any{
			"error": err.Error(),
		})
	}

	// Ledger rows are never updated
	if err := m.db.Exec(`ALTER TABLE transactions SET (fillfactor = 100)`).Error; err != nil {
		m.logger.Warn("Failed to set fillfactor for transactions table", map[string]any{
			"error": err.Error(),
		})
	}

	if err := m.db.Exec(`ALTER TABLE transactions ALTER COLUMN wallet_id SET STATISTICS 1000`).Error; err != nil {
		m.logger.Warn("Failed to set statistics target for wallet_id", map[string]any{
			"error": err.Error(),
		})
	}

	m.logger.Info("PostgreSQL performance tweaks applied", nil)
	return nil
}
