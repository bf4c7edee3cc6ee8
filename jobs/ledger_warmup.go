package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/printdesk/printdesk/internal/accounts"
	jobmetrics "github.com/printdesk/printdesk/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// LedgerService is the part of accounts.Service the ledger jobs drive.
type LedgerService interface {
	ActiveAccounts(ctx context.Context) (suppliers, agents []int64, err error)
	SupplierStatement(ctx context.Context, supplierID int64) (accounts.Statement, error)
	AgentStatement(ctx context.Context, agentID int64) (accounts.Statement, error)
	InvalidateSnapshots(ctx context.Context) error
}

// LedgerWarmupJob rebuilds every active ledger so that snapshots are cached
// and rejected records reach the data-quality reporters overnight.
type LedgerWarmupJob struct {
	Service        LedgerService
	Logger         *slog.Logger
	Metrics        *jobmetrics.Metrics
	AccountTimeout time.Duration
}

// NewLedgerWarmupJob wires dependencies for the warmup handler.
func NewLedgerWarmupJob(service LedgerService, logger *slog.Logger, metrics *jobmetrics.Metrics) *LedgerWarmupJob {
	return &LedgerWarmupJob{
		Service:        service,
		Logger:         logger,
		Metrics:        metrics,
		AccountTimeout: 20 * time.Second,
	}
}

// Handle processes TaskLedgerWarmup tasks. Every run past payload validation
// is recorded by the job tracker with its final error.
func (j *LedgerWarmupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Service == nil {
		return errors.New("ledger warmup: handler not configured")
	}
	var payload LedgerWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.Scope == "" {
		payload.Scope = ScopeAll
	}
	if !ValidScope(payload.Scope) {
		return fmt.Errorf("ledger warmup: unknown scope %q: %w", payload.Scope, asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskLedgerWarmup)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.logger().With(slog.String("scope", payload.Scope))
	logger.Info("starting ledger warmup")
	start := time.Now()

	suppliers, agents, err := j.Service.ActiveAccounts(ctx)
	if err != nil {
		logger.Error("load active accounts", slog.Any("error", err))
		return err
	}

	var warmed, rejected int
	if payload.Scope != ScopeAgents {
		for _, id := range suppliers {
			n, err := j.warm(ctx, accounts.AccountSupplier, id, j.Service.SupplierStatement)
			if err != nil {
				logger.Error("warm supplier ledger", slog.Int64("supplier_id", id), slog.Any("error", err))
				return err
			}
			warmed++
			rejected += n
		}
	}
	if payload.Scope != ScopeSuppliers {
		for _, id := range agents {
			n, err := j.warm(ctx, accounts.AccountAgent, id, j.Service.AgentStatement)
			if err != nil {
				logger.Error("warm agent ledger", slog.Int64("agent_id", id), slog.Any("error", err))
				return err
			}
			warmed++
			rejected += n
		}
	}

	logger.Info("completed ledger warmup",
		slog.Int("accounts", warmed),
		slog.Int("rejected_events", rejected),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *LedgerWarmupJob) warm(ctx context.Context, kind accounts.AccountType, id int64, load func(context.Context, int64) (accounts.Statement, error)) (int, error) {
	if j.AccountTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.AccountTimeout)
		defer cancel()
	}
	st, err := load(ctx, id)
	if err != nil {
		return 0, err
	}
	rejected := len(st.Ledger.Rejected)
	j.metrics().AddStatement(string(kind), rejected)
	return rejected, nil
}

func (j *LedgerWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskLedgerWarmup))
	}
	return slog.Default().With(slog.String("job", TaskLedgerWarmup))
}

func (j *LedgerWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

// LedgerInvalidateJob bumps the snapshot cache version.
type LedgerInvalidateJob struct {
	Service LedgerService
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewLedgerInvalidateJob wires dependencies for the invalidation handler.
func NewLedgerInvalidateJob(service LedgerService, logger *slog.Logger, metrics *jobmetrics.Metrics) *LedgerInvalidateJob {
	return &LedgerInvalidateJob{Service: service, Logger: logger, Metrics: metrics}
}

// Handle processes TaskLedgerInvalidate tasks.
func (j *LedgerInvalidateJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("ledger invalidate: handler not configured")
	}
	var payload LedgerInvalidatePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	tracker := metrics.Track(TaskLedgerInvalidate)
	err := j.Service.InvalidateSnapshots(ctx)
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err != nil {
		logger.Error("invalidate ledger snapshots", slog.String("reason", payload.Reason), slog.Any("error", err))
	} else {
		logger.Info("invalidated ledger snapshots", slog.String("reason", payload.Reason))
	}
	return tracker.End(err)
}
