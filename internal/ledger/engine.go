package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Build orders the events chronologically, computes running balances and
// totals in a single pass, and returns the entries newest-first.
//
// Invalid events are skipped and listed in Ledger.Rejected; they never abort
// the computation. Events sharing a timestamp are ordered Charge, then
// adjustments, then Payment, then by ReferenceID. That order only keeps
// same-instant running balances reproducible; NetBalance does not depend on it.
func Build(events []Event) Ledger {
	valid := make([]Event, 0, len(events))
	var rejected []*InvalidEventError
	for _, ev := range events {
		if err := validate(ev); err != nil {
			rejected = append(rejected, err)
			continue
		}
		valid = append(valid, ev)
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return before(valid[i], valid[j])
	})

	var summary Summary
	entries := make([]Entry, len(valid))
	balance := decimal.Zero
	for i, ev := range valid {
		effect := ev.Amount
		if ev.Kind.Sign() < 0 {
			effect = effect.Neg()
		}
		balance = balance.Add(effect)
		entries[i] = Entry{Event: ev, SignedEffect: effect, RunningBalance: balance}

		switch ev.Kind {
		case KindCharge:
			summary.TotalCharges = summary.TotalCharges.Add(ev.Amount)
			summary.LastChargeDate = latest(summary.LastChargeDate, ev.Date)
		case KindPayment:
			summary.TotalPayments = summary.TotalPayments.Add(ev.Amount)
			summary.LastPaymentDate = latest(summary.LastPaymentDate, ev.Date)
		case KindAdjustmentDebit:
			summary.TotalAdjustmentDebit = summary.TotalAdjustmentDebit.Add(ev.Amount)
		case KindAdjustmentCredit:
			summary.TotalAdjustmentCredit = summary.TotalAdjustmentCredit.Add(ev.Amount)
		}
	}
	summary.NetBalance = balance
	summary.EntryCount = len(entries)

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	return Ledger{Entries: entries, Summary: summary, Rejected: rejected}
}

func before(a, b Event) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	if pa, pb := a.Kind.priority(), b.Kind.priority(); pa != pb {
		return pa < pb
	}
	return a.ReferenceID < b.ReferenceID
}

func latest(current *time.Time, candidate time.Time) *time.Time {
	if current != nil && !candidate.After(*current) {
		return current
	}
	t := candidate
	return &t
}
