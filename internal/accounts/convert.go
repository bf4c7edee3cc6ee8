package accounts

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk/internal/ledger"
)

// SupplierEvents maps supplier records onto ledger events. Records missing a
// date or amount, or holding a non-finite amount, are returned as rejections
// instead of events.
func SupplierEvents(snap SupplierSnapshot) ([]ledger.Event, []*ledger.InvalidEventError) {
	var c collector
	for _, po := range snap.Orders {
		label := "Purchase order " + po.Number
		if po.Description != "" {
			label += ": " + po.Description
		}
		c.add(ledger.KindCharge, po.OrderedAt, po.Total, po.TotalInvalid, reference("PO", po.Number, po.ID), label)
	}
	for _, pay := range snap.Payments {
		c.add(ledger.KindPayment, pay.PaidAt, pay.Amount, pay.AmountInvalid, reference("PAY", pay.Number, pay.ID), paymentLabel(pay.Method))
	}
	for _, adj := range snap.Adjustments {
		kind, err := ledger.ParseKind("ADJUSTMENT_" + string(adj.Direction))
		if err != nil {
			// Build rejects it as an unknown kind.
			kind = ledger.Kind("ADJUSTMENT_" + string(adj.Direction))
		}
		label := fmt.Sprintf("%s note", adj.Direction)
		if adj.Reason != "" {
			label += ": " + adj.Reason
		}
		c.add(kind, adj.AdjustedAt, adj.Amount, adj.AmountInvalid, reference("ADJ", adj.Number, adj.ID), label)
	}
	return c.events, c.rejected
}

// AgentEvents maps agent records onto ledger events. Commissions raise the
// amount owed to the agent; payouts lower it.
func AgentEvents(snap AgentSnapshot) ([]ledger.Event, []*ledger.InvalidEventError) {
	var c collector
	for _, cm := range snap.Commissions {
		c.add(ledger.KindCharge, cm.EarnedAt, cm.Amount, cm.AmountInvalid, reference("COM", "", cm.ID), "Commission on order "+cm.OrderNumber)
	}
	for _, p := range snap.Payouts {
		c.add(ledger.KindPayment, p.PaidAt, p.Amount, p.AmountInvalid, reference("PAYOUT", p.Number, p.ID), paymentLabel(p.Method))
	}
	return c.events, c.rejected
}

type collector struct {
	events   []ledger.Event
	rejected []*ledger.InvalidEventError
}

func (c *collector) add(kind ledger.Kind, at *time.Time, amount *decimal.Decimal, invalid bool, ref, label string) {
	reason := ""
	switch {
	case at == nil || at.IsZero():
		reason = ledger.ReasonMissingDate
	case invalid:
		reason = ledger.ReasonInvalidAmount
	case amount == nil:
		reason = ledger.ReasonMissingAmount
	}
	if reason != "" {
		c.rejected = append(c.rejected, &ledger.InvalidEventError{ReferenceID: ref, Kind: kind, Reason: reason})
		return
	}
	c.events = append(c.events, ledger.Event{
		Kind:        kind,
		Date:        at.UTC(),
		Amount:      *amount,
		ReferenceID: ref,
		Label:       label,
	})
}

func reference(prefix, number string, id int64) string {
	if number != "" {
		return number
	}
	return prefix + "-" + strconv.FormatInt(id, 10)
}

func paymentLabel(method string) string {
	if method == "" {
		return "Payment"
	}
	return "Payment (" + method + ")"
}
