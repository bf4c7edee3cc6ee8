package app

import (
	"os"
	"strconv"
	"sync"
	"sync/atomic"
)

// testModeEnv, when truthy, makes cmd/printdesk and cmd/worker exit before
// opening Postgres, Redis, Kafka or the asynq server. Operator commands are
// skipped too.
const testModeEnv = "PRINTDESK_TEST_MODE"

var (
	testMode     atomic.Bool
	testModeOnce sync.Once
)

func loadTestMode() {
	on, err := strconv.ParseBool(os.Getenv(testModeEnv))
	testMode.Store(err == nil && on)
}

// InTestMode reports whether PRINTDESK_TEST_MODE is set to a true value
// ("1", "true", "T"...). The variable is read on first use.
func InTestMode() bool {
	testModeOnce.Do(loadTestMode)
	return testMode.Load()
}

// RefreshTestMode rereads PRINTDESK_TEST_MODE.
func RefreshTestMode() {
	loadTestMode()
}
