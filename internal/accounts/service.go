// Package accounts builds supplier and agent account statements from the
// order, payment and adjustment stores using the ledger engine.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/printdesk/printdesk/internal/dataquality"
	"github.com/printdesk/printdesk/internal/ledger"
	"github.com/printdesk/printdesk/internal/platform/httpx"
)

// ErrInvalidAccount is returned for non-positive account identifiers.
var ErrInvalidAccount = fmt.Errorf("%w: account id must be positive", httpx.ErrValidation)

// SupplierSource reads the records behind supplier ledgers. Implementations
// filter by supplier; the ledger engine never does.
type SupplierSource interface {
	PurchaseOrders(ctx context.Context, supplierID int64) ([]PurchaseOrder, error)
	SupplierPayments(ctx context.Context, supplierID int64) ([]SupplierPayment, error)
	SupplierAdjustments(ctx context.Context, supplierID int64) ([]SupplierAdjustment, error)
	ActiveSupplierIDs(ctx context.Context) ([]int64, error)
}

// AgentSource reads the records behind agent commission ledgers.
type AgentSource interface {
	Commissions(ctx context.Context, agentID int64) ([]Commission, error)
	CommissionPayouts(ctx context.Context, agentID int64) ([]CommissionPayout, error)
	ActiveAgentIDs(ctx context.Context) ([]int64, error)
}

// Repository combines both sources.
type Repository interface {
	SupplierSource
	AgentSource
}

// Service assembles account statements.
type Service struct {
	repo     Repository
	cache    *SnapshotCache
	reporter dataquality.Reporter
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires the statement service. cache and reporter may be nil.
func NewService(repo Repository, cache *SnapshotCache, reporter dataquality.Reporter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		cache:    cache,
		reporter: reporter,
		logger:   logger,
		now:      time.Now,
	}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// SupplierStatement builds the running-balance ledger of one supplier.
func (s *Service) SupplierStatement(ctx context.Context, supplierID int64) (Statement, error) {
	if supplierID <= 0 {
		return Statement{}, ErrInvalidAccount
	}
	snap, err := fetchSnapshot(ctx, s.cache, AccountSupplier, supplierID, func(ctx context.Context) (SupplierSnapshot, error) {
		return s.loadSupplier(ctx, supplierID)
	})
	if err != nil {
		return Statement{}, err
	}
	events, rejected := SupplierEvents(snap)
	return s.statement(ctx, AccountSupplier, supplierID, events, rejected), nil
}

// AgentStatement builds the commission ledger of one agent.
func (s *Service) AgentStatement(ctx context.Context, agentID int64) (Statement, error) {
	if agentID <= 0 {
		return Statement{}, ErrInvalidAccount
	}
	snap, err := fetchSnapshot(ctx, s.cache, AccountAgent, agentID, func(ctx context.Context) (AgentSnapshot, error) {
		return s.loadAgent(ctx, agentID)
	})
	if err != nil {
		return Statement{}, err
	}
	events, rejected := AgentEvents(snap)
	return s.statement(ctx, AccountAgent, agentID, events, rejected), nil
}

// ActiveAccounts lists the supplier and agent IDs that have ledger activity.
func (s *Service) ActiveAccounts(ctx context.Context) (suppliers, agents []int64, err error) {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := s.repo.ActiveSupplierIDs(ctx)
		suppliers = ids
		return err
	})
	g.Go(func() error {
		ids, err := s.repo.ActiveAgentIDs(ctx)
		agents = ids
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("accounts: list active accounts: %w", err)
	}
	return suppliers, agents, nil
}

// InvalidateSnapshots drops every cached record snapshot.
func (s *Service) InvalidateSnapshots(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) loadSupplier(ctx context.Context, supplierID int64) (SupplierSnapshot, error) {
	var snap SupplierSnapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.repo.PurchaseOrders(ctx, supplierID)
		if err != nil {
			return fmt.Errorf("purchase orders: %w", err)
		}
		snap.Orders = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.repo.SupplierPayments(ctx, supplierID)
		if err != nil {
			return fmt.Errorf("supplier payments: %w", err)
		}
		snap.Payments = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.repo.SupplierAdjustments(ctx, supplierID)
		if err != nil {
			return fmt.Errorf("supplier adjustments: %w", err)
		}
		snap.Adjustments = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return SupplierSnapshot{}, fmt.Errorf("accounts: load supplier %d: %w", supplierID, err)
	}
	return snap, nil
}

func (s *Service) loadAgent(ctx context.Context, agentID int64) (AgentSnapshot, error) {
	var snap AgentSnapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.repo.Commissions(ctx, agentID)
		if err != nil {
			return fmt.Errorf("commissions: %w", err)
		}
		snap.Commissions = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.repo.CommissionPayouts(ctx, agentID)
		if err != nil {
			return fmt.Errorf("commission payouts: %w", err)
		}
		snap.Payouts = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return AgentSnapshot{}, fmt.Errorf("accounts: load agent %d: %w", agentID, err)
	}
	return snap, nil
}

func (s *Service) statement(ctx context.Context, kind AccountType, id int64, events []ledger.Event, rejected []*ledger.InvalidEventError) Statement {
	built := ledger.Build(events)
	if len(rejected) > 0 {
		built.Rejected = append(rejected, built.Rejected...)
	}
	now := s.now()
	s.report(ctx, kind, id, built.Rejected, now)
	return Statement{
		AccountType: kind,
		AccountID:   id,
		GeneratedAt: now.UTC(),
		Ledger:      built,
	}
}

// report never fails the statement; the rejects are already in the result.
func (s *Service) report(ctx context.Context, kind AccountType, id int64, rejected []*ledger.InvalidEventError, now time.Time) {
	if s.reporter == nil {
		return
	}
	report, ok := dataquality.NewReport(string(kind), id, rejected, now)
	if !ok {
		return
	}
	if err := s.reporter.Report(ctx, report); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("report rejected ledger events",
			slog.String("account_type", string(kind)),
			slog.Int64("account_id", id),
			slog.Any("error", err))
	}
}
