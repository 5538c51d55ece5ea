package metrics

import "time"

// NoopMetrics discards every observation
type NoopMetrics struct{}

// NewNoopMetrics creates a metrics sink that records nothing
func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (*NoopMetrics) ObserveTransaction(string, string)                     {}
func (*NoopMetrics) ObserveRetry(string)                                   {}
func (*NoopMetrics) ObserveProvision(bool)                                 {}
func (*NoopMetrics) ObserveHTTPRequest(string, string, int, time.Duration) {}
