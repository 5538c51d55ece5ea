package core

// Outcome labels recorded for ledger operations
const (
	OutcomeApplied           = "applied"
	OutcomeInsufficientFunds = "insufficient_funds"
	OutcomeNotFound          = "not_found"
	OutcomeInvalid           = "invalid"
	OutcomeConflict          = "conflict"
	OutcomeError             = "error"
)

// Metrics records ledger-level counters
type Metrics interface {
	// ObserveTransaction counts a balance-affecting operation by kind and outcome
	ObserveTransaction(kind, outcome string)
	// ObserveRetry counts one retry of an atomic unit after a write conflict
	ObserveRetry(operation string)
	// ObserveProvision counts a provisioning call, created reports whether a new user was stored
	ObserveProvision(created bool)
}
