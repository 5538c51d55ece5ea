package logger

import (
	"testing"

	"github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, core.LogLevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, core.LogLevelWarn, ParseLevel("warning"))
	assert.Equal(t, core.LogLevelError, ParseLevel(" error "))
	assert.Equal(t, core.LogLevelInfo, ParseLevel("info"))
	assert.Equal(t, core.LogLevelInfo, ParseLevel("unknown"))

	for _, level := range []core.LogLevel{core.LogLevelDebug, core.LogLevelInfo, core.LogLevelWarn, core.LogLevelError} {
		assert.Equal(t, level, ParseLevel(level.String()))
	}
}

func TestZapLoggerLevels(t *testing.T) {
	zc, logs := observer.New(zap.DebugLevel)
	log := NewZapLoggerWithCore(zc, core.LogLevelInfo)

	log.Debug("hidden", nil)
	log.Info("Transaction applied", map[string]any{"wallet_id": "w1"})
	require.Equal(t, 1, logs.Len())

	entry := logs.All()[0]
	assert.Equal(t, "Transaction applied", entry.Message)
	assert.Equal(t, "w1", entry.ContextMap()["wallet_id"])

	log.SetLevel(core.LogLevelError)
	assert.Equal(t, core.LogLevelError, log.GetLevel())
	log.Warn("hidden", nil)
	log.Error("shown", nil)
	assert.Equal(t, 2, logs.Len())

	log.SetLevel(core.LogLevelDebug)
	log.Debug("now shown", nil)
	assert.Equal(t, 3, logs.Len())
}

func TestNoopLogger(t *testing.T) {
	log := NewNoopLogger()
	log.SetLevel(core.LogLevelWarn)
	assert.Equal(t, core.LogLevelWarn, log.GetLevel())
	log.Error("ignored", map[string]any{"k": "v"})
	assert.NoError(t, log.Flush())
}
