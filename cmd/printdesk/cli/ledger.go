package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/printdesk/printdesk/internal/accounts"
)

// StatementService loads account statements.
type StatementService interface {
	SupplierStatement(ctx context.Context, supplierID int64) (accounts.Statement, error)
	AgentStatement(ctx context.Context, agentID int64) (accounts.Statement, error)
}

// LedgerOptions defines the flags of the ledger command.
type LedgerOptions struct {
	AccountType string
	AccountID   int64
	Limit       int
	Lang        string
	JSONOutput  bool
	Stdout      io.Writer
	Stderr      io.Writer
}

// LedgerCommand prints one account ledger, newest entry first. Exit code 10
// signals that some source records were rejected.
func LedgerCommand(ctx context.Context, svc StatementService, opts LedgerOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.AccountID <= 0 {
		_, _ = fmt.Fprintln(opts.Stderr, "ledger: --id is required and must be positive")
		return 1
	}
	var (
		st  accounts.Statement
		err error
	)
	switch accounts.AccountType(opts.AccountType) {
	case accounts.AccountSupplier:
		st, err = svc.SupplierStatement(ctx, opts.AccountID)
	case accounts.AccountAgent:
		st, err = svc.AgentStatement(ctx, opts.AccountID)
	default:
		_, _ = fmt.Fprintf(opts.Stderr, "ledger: unknown account type %q (expected supplier or agent)\n", opts.AccountType)
		return 1
	}
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "ledger: %v\n", err)
		return 1
	}

	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(st); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "ledger: encode json: %v\n", err)
			return 1
		}
	} else {
		renderLedgerHuman(opts.Stdout, opts.Lang, opts.Limit, st)
	}
	if len(st.Ledger.Rejected) > 0 {
		return 10
	}
	return 0
}

func renderLedgerHuman(w io.Writer, lang string, limit int, st accounts.Statement) {
	p := newPrinter(lang)
	sum := st.Ledger.Summary
	_, _ = fmt.Fprintf(w, "%s %d ledger (%d entries)\n", st.AccountType, st.AccountID, sum.EntryCount)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	_, _ = fmt.Fprintln(tw, "DATE\tKIND\tREFERENCE\tEFFECT\tBALANCE\t")
	for i, entry := range st.Ledger.Entries {
		if limit > 0 && i >= limit {
			break
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
			entry.Date.Format("2006-01-02"),
			entry.Kind,
			entry.ReferenceID,
			money(p, entry.SignedEffect),
			money(p, entry.RunningBalance))
	}
	_ = tw.Flush()

	_, _ = fmt.Fprintf(w, "Charges:     %s\n", money(p, sum.TotalCharges))
	_, _ = fmt.Fprintf(w, "Payments:    %s\n", money(p, sum.TotalPayments))
	_, _ = fmt.Fprintf(w, "Adjustments: +%s / -%s\n", money(p, sum.TotalAdjustmentDebit), money(p, sum.TotalAdjustmentCredit))
	_, _ = fmt.Fprintf(w, "Net balance: %s\n", money(p, sum.NetBalance))
	for _, rej := range st.Ledger.Rejected {
		_, _ = fmt.Fprintf(w, "Rejected:    %v\n", rej)
	}
}
