// Package ledger reconstructs running-balance account ledgers from
// heterogeneous financial events. It is shared by supplier and agent accounts.
package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind classifies a ledger event.
type Kind string

const (
	KindCharge           Kind = "CHARGE"
	KindPayment          Kind = "PAYMENT"
	KindAdjustmentDebit  Kind = "ADJUSTMENT_DEBIT"
	KindAdjustmentCredit Kind = "ADJUSTMENT_CREDIT"
)

// kindRules is the single kind -> sign and same-instant priority table.
var kindRules = map[Kind]struct {
	sign     int
	priority int
}{
	KindCharge:           {sign: 1, priority: 0},
	KindAdjustmentDebit:  {sign: 1, priority: 1},
	KindAdjustmentCredit: {sign: -1, priority: 1},
	KindPayment:          {sign: -1, priority: 2},
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := kindRules[k]
	return ok
}

// Sign returns +1 when the kind increases the balance owed and -1 when it
// decreases it. Unknown kinds return 0.
func (k Kind) Sign() int {
	return kindRules[k].sign
}

func (k Kind) priority() int {
	return kindRules[k].priority
}

// ParseKind maps a case-insensitive name to a Kind.
func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(raw)))
	if !k.Valid() {
		return "", fmt.Errorf("ledger: unknown kind %q", raw)
	}
	return k, nil
}

// Event is a single financial fact contributed by an order, payment or
// adjustment source. Amount is never negative; direction comes from Kind.
type Event struct {
	Kind        Kind            `json:"kind"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	ReferenceID string          `json:"reference_id"`
	Label       string          `json:"label"`
}

// Entry is an Event annotated with its signed effect and the balance after it.
type Entry struct {
	Event
	SignedEffect   decimal.Decimal `json:"signed_effect"`
	RunningBalance decimal.Decimal `json:"running_balance"`
}

// Summary aggregates every accepted event of one account holder.
type Summary struct {
	TotalCharges          decimal.Decimal `json:"total_charges"`
	TotalPayments         decimal.Decimal `json:"total_payments"`
	TotalAdjustmentDebit  decimal.Decimal `json:"total_adjustment_debit"`
	TotalAdjustmentCredit decimal.Decimal `json:"total_adjustment_credit"`
	NetBalance            decimal.Decimal `json:"net_balance"`
	LastChargeDate        *time.Time      `json:"last_charge_date,omitempty"`
	LastPaymentDate       *time.Time      `json:"last_payment_date,omitempty"`
	EntryCount            int             `json:"entry_count"`
}

// Ledger is the result of Build. Entries are ordered newest-first.
type Ledger struct {
	Entries  []Entry              `json:"entries"`
	Summary  Summary              `json:"summary"`
	Rejected []*InvalidEventError `json:"rejected,omitempty"`
}
