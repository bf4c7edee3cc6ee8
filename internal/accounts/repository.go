package accounts

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk/internal/ledger"
)

// Ensure implementation
var _ Repository = (*pgRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns the Postgres-backed record source. Amounts are read as
// text so malformed values surface as rejected events rather than scan errors.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const (
	qPurchaseOrders = `SELECT id, number, supplier_id, ordered_at, total::text, COALESCE(description, '')
FROM purchase_orders
WHERE supplier_id = $1 AND status <> 'CANCELLED'
ORDER BY id`

	qSupplierPayments = `SELECT id, number, supplier_id, paid_at, amount::text, COALESCE(method, '')
FROM supplier_payments
WHERE supplier_id = $1
ORDER BY id`

	qSupplierAdjustments = `SELECT id, number, supplier_id, direction, adjusted_at, amount::text, COALESCE(reason, '')
FROM supplier_adjustments
WHERE supplier_id = $1
ORDER BY id`

	qActiveSuppliers = `SELECT supplier_id FROM purchase_orders WHERE status <> 'CANCELLED'
UNION SELECT supplier_id FROM supplier_payments
UNION SELECT supplier_id FROM supplier_adjustments
ORDER BY 1`

	qCommissions = `SELECT id, agent_id, COALESCE(order_number, ''), earned_at, amount::text
FROM agent_commissions
WHERE agent_id = $1
ORDER BY id`

	qCommissionPayouts = `SELECT id, number, agent_id, paid_at, amount::text, COALESCE(method, '')
FROM agent_payouts
WHERE agent_id = $1
ORDER BY id`

	qActiveAgents = `SELECT agent_id FROM agent_commissions
UNION SELECT agent_id FROM agent_payouts
ORDER BY 1`
)

func (r *pgRepository) PurchaseOrders(ctx context.Context, supplierID int64) ([]PurchaseOrder, error) {
	rows, err := r.pool.Query(ctx, qPurchaseOrders, supplierID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (PurchaseOrder, error) {
		var po PurchaseOrder
		var total *string
		if err := row.Scan(&po.ID, &po.Number, &po.SupplierID, &po.OrderedAt, &total, &po.Description); err != nil {
			return PurchaseOrder{}, err
		}
		po.OrderedAt = utc(po.OrderedAt)
		po.Total, po.TotalInvalid = parseAmount(total)
		return po, nil
	})
}

func (r *pgRepository) SupplierPayments(ctx context.Context, supplierID int64) ([]SupplierPayment, error) {
	rows, err := r.pool.Query(ctx, qSupplierPayments, supplierID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (SupplierPayment, error) {
		var p SupplierPayment
		var amount *string
		if err := row.Scan(&p.ID, &p.Number, &p.SupplierID, &p.PaidAt, &amount, &p.Method); err != nil {
			return SupplierPayment{}, err
		}
		p.PaidAt = utc(p.PaidAt)
		p.Amount, p.AmountInvalid = parseAmount(amount)
		return p, nil
	})
}

func (r *pgRepository) SupplierAdjustments(ctx context.Context, supplierID int64) ([]SupplierAdjustment, error) {
	rows, err := r.pool.Query(ctx, qSupplierAdjustments, supplierID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (SupplierAdjustment, error) {
		var a SupplierAdjustment
		var direction string
		var amount *string
		if err := row.Scan(&a.ID, &a.Number, &a.SupplierID, &direction, &a.AdjustedAt, &amount, &a.Reason); err != nil {
			return SupplierAdjustment{}, err
		}
		a.Direction = AdjustmentDirection(direction)
		a.AdjustedAt = utc(a.AdjustedAt)
		a.Amount, a.AmountInvalid = parseAmount(amount)
		return a, nil
	})
}

func (r *pgRepository) ActiveSupplierIDs(ctx context.Context) ([]int64, error) {
	return r.ids(ctx, qActiveSuppliers)
}

func (r *pgRepository) Commissions(ctx context.Context, agentID int64) ([]Commission, error) {
	rows, err := r.pool.Query(ctx, qCommissions, agentID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Commission, error) {
		var c Commission
		var amount *string
		if err := row.Scan(&c.ID, &c.AgentID, &c.OrderNumber, &c.EarnedAt, &amount); err != nil {
			return Commission{}, err
		}
		c.EarnedAt = utc(c.EarnedAt)
		c.Amount, c.AmountInvalid = parseAmount(amount)
		return c, nil
	})
}

func (r *pgRepository) CommissionPayouts(ctx context.Context, agentID int64) ([]CommissionPayout, error) {
	rows, err := r.pool.Query(ctx, qCommissionPayouts, agentID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (CommissionPayout, error) {
		var p CommissionPayout
		var amount *string
		if err := row.Scan(&p.ID, &p.Number, &p.AgentID, &p.PaidAt, &amount, &p.Method); err != nil {
			return CommissionPayout{}, err
		}
		p.PaidAt = utc(p.PaidAt)
		p.Amount, p.AmountInvalid = parseAmount(amount)
		return p, nil
	})
}

func (r *pgRepository) ActiveAgentIDs(ctx context.Context) ([]int64, error) {
	return r.ids(ctx, qActiveAgents)
}

func (r *pgRepository) ids(ctx context.Context, query string) ([]int64, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

// parseAmount returns nil for NULL. NaN, Infinity and other unparseable
// numerics also return nil but are flagged invalid so they are rejected with
// their own reason.
func parseAmount(raw *string) (*decimal.Decimal, bool) {
	if raw == nil {
		return nil, false
	}
	d, err := ledger.ParseAmount(*raw)
	if err != nil {
		return nil, true
	}
	return &d, false
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
