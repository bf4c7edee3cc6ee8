// Package dataquality forwards events rejected while building ledgers so that
// the back office can correct the source records.
package dataquality

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/printdesk/printdesk/internal/ledger"
)

// Rejection is one skipped source record.
type Rejection struct {
	ReferenceID string      `json:"reference_id"`
	Kind        ledger.Kind `json:"kind"`
	Reason      string      `json:"reason"`
}

// Report groups the rejections found while building one account ledger.
type Report struct {
	ID          uuid.UUID   `json:"id"`
	AccountType string      `json:"account_type"`
	AccountID   int64       `json:"account_id"`
	Rejected    []Rejection `json:"rejected"`
	DetectedAt  time.Time   `json:"detected_at"`
}

// NewReport converts ledger rejections into a report. It returns false when
// there is nothing to report.
func NewReport(accountType string, accountID int64, rejected []*ledger.InvalidEventError, now time.Time) (Report, bool) {
	if len(rejected) == 0 {
		return Report{}, false
	}
	items := make([]Rejection, 0, len(rejected))
	for _, r := range rejected {
		if r == nil {
			continue
		}
		items = append(items, Rejection{ReferenceID: r.ReferenceID, Kind: r.Kind, Reason: r.Reason})
	}
	return Report{
		ID:          uuid.New(),
		AccountType: accountType,
		AccountID:   accountID,
		Rejected:    items,
		DetectedAt:  now.UTC(),
	}, true
}

// Reporter publishes data-quality reports.
type Reporter interface {
	Report(ctx context.Context, report Report) error
}

// LogReporter writes one warning per rejected record.
type LogReporter struct {
	Logger *slog.Logger
}

// Report implements Reporter.
func (r LogReporter) Report(ctx context.Context, report Report) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, item := range report.Rejected {
		logger.WarnContext(ctx, "ledger event rejected",
			slog.String("report_id", report.ID.String()),
			slog.String("account_type", report.AccountType),
			slog.Int64("account_id", report.AccountID),
			slog.String("reference_id", item.ReferenceID),
			slog.String("kind", string(item.Kind)),
			slog.String("reason", item.Reason),
		)
	}
	return nil
}

// Multi fans a report out to several reporters and joins their errors.
type Multi []Reporter

// Report implements Reporter.
func (m Multi) Report(ctx context.Context, report Report) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Report(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
