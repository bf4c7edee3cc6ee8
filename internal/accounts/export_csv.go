package accounts

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

var statementHeader = []string{"date", "kind", "reference", "label", "signed_effect", "running_balance"}

// WriteStatementCSV streams the ledger entries newest-first followed by the
// summary totals. Amounts are plain decimals; formatting is left to readers.
func WriteStatementCSV(w io.Writer, st Statement) error {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true

	comment := fmt.Sprintf("# %s %d generated %s\r\n", st.AccountType, st.AccountID, st.GeneratedAt.Format(time.RFC3339))
	if _, err := buf.WriteString(comment); err != nil {
		return err
	}
	if err := writer.Write(statementHeader); err != nil {
		return err
	}
	pending := 0
	for _, e := range st.Ledger.Entries {
		row := []string{
			e.Date.Format("2006-01-02"),
			string(e.Kind),
			e.ReferenceID,
			e.Label,
			e.SignedEffect.StringFixed(2),
			e.RunningBalance.StringFixed(2),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
		pending++
		if pending >= csvFlushEvery {
			if err := flushCSV(writer, buf); err != nil {
				return err
			}
			pending = 0
		}
	}

	s := st.Ledger.Summary
	totals := [][]string{
		{"total_charges", s.TotalCharges.StringFixed(2)},
		{"total_payments", s.TotalPayments.StringFixed(2)},
		{"total_adjustment_debit", s.TotalAdjustmentDebit.StringFixed(2)},
		{"total_adjustment_credit", s.TotalAdjustmentCredit.StringFixed(2)},
		{"net_balance", s.NetBalance.StringFixed(2)},
		{"rejected_events", strconv.Itoa(len(st.Ledger.Rejected))},
	}
	for _, row := range totals {
		if err := writer.Write(append([]string{"", "TOTAL"}, row...)); err != nil {
			return err
		}
	}
	return flushCSV(writer, buf)
}

func flushCSV(writer *csv.Writer, buf *bufio.Writer) error {
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return buf.Flush()
}
