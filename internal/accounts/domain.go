package accounts

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk/internal/ledger"
)

// AccountType distinguishes the two ledgers the back office keeps.
type AccountType string

const (
	AccountSupplier AccountType = "supplier"
	AccountAgent    AccountType = "agent"
)

// AdjustmentDirection tells whether a supplier adjustment raises or lowers
// the amount owed to the supplier.
type AdjustmentDirection string

const (
	AdjustmentDebit  AdjustmentDirection = "DEBIT"
	AdjustmentCredit AdjustmentDirection = "CREDIT"
)

// PurchaseOrder is a flex-printing order placed with a supplier. Date and
// amount are nullable because the order store does not enforce them.
// TotalInvalid marks a stored total that was present but not a finite number.
type PurchaseOrder struct {
	ID           int64            `json:"id"`
	Number       string           `json:"number"`
	SupplierID   int64            `json:"supplier_id"`
	OrderedAt    *time.Time       `json:"ordered_at"`
	Total        *decimal.Decimal `json:"total"`
	TotalInvalid bool             `json:"total_invalid,omitempty"`
	Description  string           `json:"description"`
}

// SupplierPayment is money paid out to a supplier.
type SupplierPayment struct {
	ID            int64            `json:"id"`
	Number        string           `json:"number"`
	SupplierID    int64            `json:"supplier_id"`
	PaidAt        *time.Time       `json:"paid_at"`
	Amount        *decimal.Decimal `json:"amount"`
	AmountInvalid bool             `json:"amount_invalid,omitempty"`
	Method        string           `json:"method"`
}

// SupplierAdjustment is a manual debit or credit note on a supplier account.
type SupplierAdjustment struct {
	ID            int64               `json:"id"`
	Number        string              `json:"number"`
	SupplierID    int64               `json:"supplier_id"`
	Direction     AdjustmentDirection `json:"direction"`
	AdjustedAt    *time.Time          `json:"adjusted_at"`
	Amount        *decimal.Decimal    `json:"amount"`
	AmountInvalid bool                `json:"amount_invalid,omitempty"`
	Reason        string              `json:"reason"`
}

// Commission is an amount earned by an agent on a print job.
type Commission struct {
	ID            int64            `json:"id"`
	AgentID       int64            `json:"agent_id"`
	OrderNumber   string           `json:"order_number"`
	EarnedAt      *time.Time       `json:"earned_at"`
	Amount        *decimal.Decimal `json:"amount"`
	AmountInvalid bool             `json:"amount_invalid,omitempty"`
}

// CommissionPayout is money paid out to an agent.
type CommissionPayout struct {
	ID            int64            `json:"id"`
	Number        string           `json:"number"`
	AgentID       int64            `json:"agent_id"`
	PaidAt        *time.Time       `json:"paid_at"`
	Amount        *decimal.Decimal `json:"amount"`
	AmountInvalid bool             `json:"amount_invalid,omitempty"`
	Method        string           `json:"method"`
}

// SupplierSnapshot is every record contributing to one supplier ledger.
type SupplierSnapshot struct {
	Orders      []PurchaseOrder      `json:"orders"`
	Payments    []SupplierPayment    `json:"payments"`
	Adjustments []SupplierAdjustment `json:"adjustments"`
}

// AgentSnapshot is every record contributing to one agent ledger.
type AgentSnapshot struct {
	Commissions []Commission       `json:"commissions"`
	Payouts     []CommissionPayout `json:"payouts"`
}

// Statement is a freshly built ledger for one account holder.
type Statement struct {
	AccountType AccountType   `json:"account_type"`
	AccountID   int64         `json:"account_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Ledger      ledger.Ledger `json:"ledger"`
}
