package printfit

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Quote prices a fitted print for an order line.
type Quote struct {
	Result
	RatePerSqFt decimal.Decimal `json:"rate_per_sqft"`
	Quantity    int             `json:"quantity"`
	Amount      decimal.Decimal `json:"amount"`
}

// NewQuote bills the fitted area, not the requested one, at rate per square
// foot for qty copies. The amount is rounded to currency scale.
func NewQuote(res Result, rate decimal.Decimal, qty int) (Quote, error) {
	if rate.IsNegative() {
		return Quote{}, errors.New("printfit: rate must not be negative")
	}
	if qty <= 0 {
		return Quote{}, errors.New("printfit: quantity must be positive")
	}
	area := decimal.NewFromFloat(res.BilledAreaSqFt)
	amount := area.Mul(rate).Mul(decimal.NewFromInt(int64(qty))).Round(2)
	return Quote{Result: res, RatePerSqFt: rate, Quantity: qty, Amount: amount}, nil
}
