package database

import (
	"context"
	"database/sql"
	"time"

	coreport "github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/core"
)

// poolPressureRatio is the share of open connections in use above which the monitor warns
const poolPressureRatio = 0.8

// ConnectionPoolMonitor periodically checks the connection pool and warns when it nears exhaustion
type ConnectionPoolMonitor struct {
	stats  func() sql.DBStats
	logger coreport.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

// NewConnectionPoolMonitor creates a monitor reading stats from the given source
func NewConnectionPoolMonitor(stats func() sql.DBStats, logger coreport.Logger) *ConnectionPoolMonitor {
	return &ConnectionPoolMonitor{
		stats:  stats,
		logger: logger,
	}
}

// Start begins monitoring at the given interval until Stop is called
func (m *ConnectionPoolMonitor) Start(interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.check()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the monitoring and waits for the loop to exit
func (m *ConnectionPoolMonitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel = nil
}

// check reads the pool stats once and reports whether the pool is under pressure
func (m *ConnectionPoolMonitor) check() bool {
	stats := m.stats()
	if stats.MaxOpenConnections == 0 {
		return false
	}

	if float64(stats.InUse) <= float64(stats.MaxOpenConnections)*poolPressureRatio {
		return false
	}

	m.logger.Warn("Database connection pool nearly exhausted", map[string]any{
		"in_use":     stats.InUse,
		"max_open":   stats.MaxOpenConnections,
		"idle":       stats.Idle,
		"wait_count": stats.WaitCount,
		"wait_time":  stats.WaitDuration.String(),
	})
	return true
}
