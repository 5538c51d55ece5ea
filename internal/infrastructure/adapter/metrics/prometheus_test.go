package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	coreport "github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/core"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ coreport.Metrics = (*PrometheusMetrics)(nil)
var _ coreport.Metrics = (*NoopMetrics)(nil)

func TestPrometheusMetrics_Counters(t *testing.T) {
	m := NewPrometheusMetrics()

	m.ObserveTransaction("send", coreport.OutcomeApplied)
	m.ObserveTransaction("send", coreport.OutcomeApplied)
	m.ObserveTransaction("send", coreport.OutcomeInsufficientFunds)
	m.ObserveRetry("apply_transaction")
	m.ObserveProvision(true)
	m.ObserveProvision(false)
	m.ObserveProvision(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transactions.WithLabelValues("send", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transactions.WithLabelValues("send", "insufficient_funds")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.retries.WithLabelValues("apply_transaction")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.provisions.WithLabelValues("created")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.provisions.WithLabelValues("existing")))
}

func TestPrometheusMetrics_Handler(t *testing.T) {
	m := NewPrometheusMetrics()
	m.ObserveHTTPRequest("POST", "/api/wallets/:walletId/transactions", 201, 15*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body),
		`wallet_ledger_http_requests_total{method="POST",route="/api/wallets/:walletId/transactions",status="201"} 1`))
	assert.Contains(t, string(body), "wallet_ledger_http_request_duration_seconds_bucket")
	assert.Contains(t, string(body), "go_goroutines")
}
