package accounts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/printdesk/printdesk/internal/dataquality"
	"github.com/printdesk/printdesk/internal/ledger"
	"github.com/printdesk/printdesk/internal/platform/httpx"
)

type memoryRepo struct {
	mu          sync.Mutex
	orders      map[int64][]PurchaseOrder
	payments    map[int64][]SupplierPayment
	adjustments map[int64][]SupplierAdjustment
	commissions map[int64][]Commission
	payouts     map[int64][]CommissionPayout
	calls       int
	err         error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		orders:      make(map[int64][]PurchaseOrder),
		payments:    make(map[int64][]SupplierPayment),
		adjustments: make(map[int64][]SupplierAdjustment),
		commissions: make(map[int64][]Commission),
		payouts:     make(map[int64][]CommissionPayout),
	}
}

func (r *memoryRepo) hit() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.err
}

func (r *memoryRepo) PurchaseOrders(ctx context.Context, id int64) ([]PurchaseOrder, error) {
	return r.orders[id], r.hit()
}

func (r *memoryRepo) SupplierPayments(ctx context.Context, id int64) ([]SupplierPayment, error) {
	return r.payments[id], r.hit()
}

func (r *memoryRepo) SupplierAdjustments(ctx context.Context, id int64) ([]SupplierAdjustment, error) {
	return r.adjustments[id], r.hit()
}

func (r *memoryRepo) ActiveSupplierIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	for id := range r.orders {
		ids = append(ids, id)
	}
	return ids, r.hit()
}

func (r *memoryRepo) Commissions(ctx context.Context, id int64) ([]Commission, error) {
	return r.commissions[id], r.hit()
}

func (r *memoryRepo) CommissionPayouts(ctx context.Context, id int64) ([]CommissionPayout, error) {
	return r.payouts[id], r.hit()
}

func (r *memoryRepo) ActiveAgentIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	for id := range r.commissions {
		ids = append(ids, id)
	}
	return ids, r.hit()
}

type captureReporter struct {
	reports []dataquality.Report
}

func (c *captureReporter) Report(ctx context.Context, report dataquality.Report) error {
	c.reports = append(c.reports, report)
	return nil
}

func at(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func money(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func seedSupplier(repo *memoryRepo) {
	repo.orders[7] = []PurchaseOrder{
		{ID: 1, Number: "PO-001", SupplierID: 7, OrderedAt: at(2024, 1, 1), Total: money("1000"), Description: "Star flex 8x20"},
		{ID: 2, Number: "PO-002", SupplierID: 7, OrderedAt: nil, Total: money("300")},
	}
	repo.payments[7] = []SupplierPayment{
		{ID: 3, Number: "PAY-001", SupplierID: 7, PaidAt: at(2024, 1, 10), Amount: money("400"), Method: "BANK"},
	}
	repo.adjustments[7] = []SupplierAdjustment{
		{ID: 4, Number: "CN-001", SupplierID: 7, Direction: AdjustmentCredit, AdjustedAt: at(2024, 1, 15), Amount: money("100"), Reason: "Damaged roll"},
		{ID: 5, Number: "DN-001", SupplierID: 7, Direction: AdjustmentDebit, AdjustedAt: at(2024, 1, 20), Amount: money("-5")},
	}
}

func TestSupplierStatementBuildsLedger(t *testing.T) {
	repo := newMemoryRepo()
	seedSupplier(repo)
	reporter := &captureReporter{}
	svc := NewService(repo, nil, reporter, nil)
	svc.WithNow(func() time.Time { return time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC) })

	st, err := svc.SupplierStatement(context.Background(), 7)
	require.NoError(t, err)

	require.Equal(t, AccountSupplier, st.AccountType)
	require.True(t, st.Ledger.Summary.NetBalance.Equal(decimal.NewFromInt(500)))
	require.Len(t, st.Ledger.Entries, 3)
	require.Equal(t, "CN-001", st.Ledger.Entries[0].ReferenceID)
	require.Equal(t, "Purchase order PO-001: Star flex 8x20", st.Ledger.Entries[2].Label)

	// One record rejected while converting, one by the engine.
	require.Len(t, st.Ledger.Rejected, 2)
	require.Equal(t, "PO-002", st.Ledger.Rejected[0].ReferenceID)
	require.Equal(t, ledger.ReasonMissingDate, st.Ledger.Rejected[0].Reason)
	require.Equal(t, "DN-001", st.Ledger.Rejected[1].ReferenceID)
	require.Equal(t, ledger.ReasonNegativeAmount, st.Ledger.Rejected[1].Reason)

	require.Len(t, reporter.reports, 1)
	require.Equal(t, int64(7), reporter.reports[0].AccountID)
	require.Len(t, reporter.reports[0].Rejected, 2)
}

func TestAgentStatementBuildsLedger(t *testing.T) {
	repo := newMemoryRepo()
	repo.commissions[3] = []Commission{
		{ID: 10, AgentID: 3, OrderNumber: "SO-1", EarnedAt: at(2024, 3, 1), Amount: money("120.50")},
		{ID: 11, AgentID: 3, OrderNumber: "SO-2", EarnedAt: at(2024, 3, 5), Amount: nil},
	}
	repo.payouts[3] = []CommissionPayout{
		{ID: 12, Number: "", AgentID: 3, PaidAt: at(2024, 3, 1), Amount: money("20.50")},
	}
	reporter := &captureReporter{}
	svc := NewService(repo, nil, reporter, nil)

	st, err := svc.AgentStatement(context.Background(), 3)
	require.NoError(t, err)

	require.True(t, st.Ledger.Summary.NetBalance.Equal(decimal.NewFromInt(100)))
	// Same-day commission sorts before the payout.
	require.Equal(t, "PAYOUT-12", st.Ledger.Entries[0].ReferenceID)
	require.Equal(t, "COM-10", st.Ledger.Entries[1].ReferenceID)
	require.Len(t, st.Ledger.Rejected, 1)
	require.Equal(t, ledger.ReasonMissingAmount, st.Ledger.Rejected[0].Reason)
	require.Len(t, reporter.reports, 1)
}

func TestStatementRejectsInvalidAccount(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil)
	_, err := svc.SupplierStatement(context.Background(), 0)
	require.ErrorIs(t, err, ErrInvalidAccount)
	require.ErrorIs(t, err, httpx.ErrValidation)
	_, err = svc.AgentStatement(context.Background(), -1)
	require.ErrorIs(t, err, ErrInvalidAccount)
}

func TestStatementPropagatesSourceErrors(t *testing.T) {
	repo := newMemoryRepo()
	boom := errors.New("connection reset")
	repo.err = boom
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.SupplierStatement(context.Background(), 7)
	require.ErrorIs(t, err, boom)
	_, err = svc.AgentStatement(context.Background(), 7)
	require.ErrorIs(t, err, boom)
}

func TestSnapshotCacheServesRecordsUntilBumped(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMemoryRepo()
	seedSupplier(repo)
	svc := NewService(repo, NewSnapshotCache(client, time.Minute), nil, nil)
	ctx := context.Background()

	first, err := svc.SupplierStatement(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, 3, repo.calls)

	second, err := svc.SupplierStatement(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, 3, repo.calls, "second call should be served from cache")
	require.True(t, first.Ledger.Summary.NetBalance.Equal(second.Ledger.Summary.NetBalance))
	require.Equal(t, len(first.Ledger.Rejected), len(second.Ledger.Rejected))

	repo.payments[7] = append(repo.payments[7], SupplierPayment{ID: 9, Number: "PAY-002", PaidAt: at(2024, 1, 25), Amount: money("500")})
	require.NoError(t, svc.InvalidateSnapshots(ctx))

	third, err := svc.SupplierStatement(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, 6, repo.calls)
	require.True(t, third.Ledger.Summary.NetBalance.IsZero())
}

func TestActiveAccounts(t *testing.T) {
	repo := newMemoryRepo()
	seedSupplier(repo)
	repo.commissions[3] = []Commission{{ID: 1, AgentID: 3}}
	svc := NewService(repo, nil, nil, nil)

	suppliers, agents, err := svc.ActiveAccounts(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int64{7}, suppliers)
	require.Equal(t, []int64{3}, agents)
}
