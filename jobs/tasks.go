package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerWarmup rebuilds every active account ledger.
	TaskLedgerWarmup = "ledger:warmup"
	// TaskLedgerInvalidate drops cached ledger source snapshots.
	TaskLedgerInvalidate = "ledger:invalidate"
)

// Ledger warmup scopes.
const (
	ScopeAll       = "all"
	ScopeSuppliers = "suppliers"
	ScopeAgents    = "agents"
)

// ValidScope reports whether scope names a known warmup scope.
func ValidScope(scope string) bool {
	switch scope {
	case ScopeAll, ScopeSuppliers, ScopeAgents:
		return true
	}
	return false
}

// LedgerWarmupPayload selects which account ledgers to rebuild.
type LedgerWarmupPayload struct {
	Scope string `json:"scope"`
}

// LedgerInvalidatePayload records why the snapshot cache was dropped.
type LedgerInvalidatePayload struct {
	Reason string `json:"reason,omitempty"`
}

// NewLedgerWarmupTask constructs a warmup task for the given scope. An empty
// scope means ScopeAll.
func NewLedgerWarmupTask(scope string) (*asynq.Task, error) {
	if scope == "" {
		scope = ScopeAll
	}
	if !ValidScope(scope) {
		return nil, fmt.Errorf("ledger warmup: unknown scope %q (want %s, %s or %s)", scope, ScopeAll, ScopeSuppliers, ScopeAgents)
	}
	data, err := json.Marshal(LedgerWarmupPayload{Scope: scope})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerWarmup, data), nil
}

// NewLedgerInvalidateTask constructs a snapshot invalidation task.
func NewLedgerInvalidateTask(reason string) (*asynq.Task, error) {
	data, err := json.Marshal(LedgerInvalidatePayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerInvalidate, data), nil
}
