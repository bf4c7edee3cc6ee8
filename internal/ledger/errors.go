package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidEvent matches every *InvalidEventError via errors.Is.
	ErrInvalidEvent = errors.New("ledger: invalid event")
	// ErrInvalidAmount indicates amount text that is not a finite decimal,
	// such as a NaN or Infinity numeric read from storage.
	ErrInvalidAmount = errors.New("ledger: amount is not a finite number")
)

// Rejection reasons.
const (
	ReasonMissingDate    = "missing date"
	ReasonMissingAmount  = "missing amount"
	ReasonInvalidAmount  = "invalid amount"
	ReasonNegativeAmount = "negative amount"
	ReasonUnknownKind    = "unknown kind"
)

// InvalidEventError describes an event skipped while building a ledger.
type InvalidEventError struct {
	ReferenceID string `json:"reference_id"`
	Kind        Kind   `json:"kind"`
	Reason      string `json:"reason"`
}

func (e *InvalidEventError) Error() string {
	return fmt.Sprintf("ledger: event %q (%s) rejected: %s", e.ReferenceID, e.Kind, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidEvent) match.
func (e *InvalidEventError) Is(target error) bool {
	return target == ErrInvalidEvent
}

// ParseAmount converts stored amount text to a decimal rounded to cents.
// Sign checks are left to Build so the event is reported with its reference.
func ParseAmount(raw string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return v.Round(2), nil
}

func validate(ev Event) *InvalidEventError {
	reason := ""
	switch {
	case !ev.Kind.Valid():
		reason = ReasonUnknownKind
	case ev.Date.IsZero():
		reason = ReasonMissingDate
	case ev.Amount.IsNegative():
		reason = ReasonNegativeAmount
	}
	if reason == "" {
		return nil
	}
	return &InvalidEventError{ReferenceID: ev.ReferenceID, Kind: ev.Kind, Reason: reason}
}
