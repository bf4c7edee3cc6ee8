package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"

	"github.com/printdesk/printdesk/internal/printfit"
)

// PrintFitOptions defines the flags of the print-fit command.
type PrintFitOptions struct {
	Width      float64
	Height     float64
	Unit       string
	Rate       string
	Quantity   int
	Lang       string
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// PrintFitCommand fits one print size to the roll catalog and optionally
// prices it. Exit code 0 on success, 1 on invalid input, 2 when the print
// overflows the widest roll on both axes.
func PrintFitCommand(opts PrintFitOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	unit, ok := printfit.ParseUnit(opts.Unit)
	if !ok {
		_, _ = fmt.Fprintf(opts.Stderr, "print-fit: invalid unit %q (expected inches or feet)\n", opts.Unit)
		return 1
	}
	res, err := printfit.Fit(printfit.Request{Width: opts.Width, Height: opts.Height, Unit: unit})
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "print-fit: %v\n", err)
		return 1
	}

	var quote *printfit.Quote
	if opts.Rate != "" {
		rate, err := decimal.NewFromString(opts.Rate)
		if err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "print-fit: invalid rate %q\n", opts.Rate)
			return 1
		}
		qty := opts.Quantity
		if qty == 0 {
			qty = 1
		}
		q, err := printfit.NewQuote(res, rate, qty)
		if err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "print-fit: %v\n", err)
			return 1
		}
		quote = &q
	}

	if opts.JSONOutput {
		var payload any = res
		if quote != nil {
			payload = quote
		}
		if err := json.NewEncoder(opts.Stdout).Encode(payload); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "print-fit: encode json: %v\n", err)
			return 1
		}
	} else {
		renderFitHuman(opts.Stdout, opts.Lang, res, quote)
	}
	if res.Overflow {
		return 2
	}
	return 0
}

func renderFitHuman(w io.Writer, lang string, res printfit.Result, quote *printfit.Quote) {
	p := newPrinter(lang)
	width, height := res.DisplaySize()
	_, _ = p.Fprintf(w, "Orientation:    %s\n", res.Orientation)
	_, _ = p.Fprintf(w, "Billed size:    %.2f x %.2f %s\n", width, height, res.Unit)
	_, _ = p.Fprintf(w, "Requested area: %.2f sq ft\n", res.RequestedAreaSqFt)
	_, _ = p.Fprintf(w, "Billed area:    %.2f sq ft\n", res.BilledAreaSqFt)
	_, _ = p.Fprintf(w, "Wastage:        %.2f sq ft\n", res.WastageSqFt)
	switch {
	case res.Overflow:
		_, _ = fmt.Fprintln(w, "Warning: both sides exceed the widest roll; special media required")
	case res.WidthExceedsMedia:
		_, _ = fmt.Fprintln(w, "Note: width exceeds the widest roll; printed rotated")
	case res.HeightExceedsMedia:
		_, _ = fmt.Fprintln(w, "Note: height exceeds the widest roll")
	}
	if quote != nil {
		_, _ = p.Fprintf(w, "Amount:         %s (%d x %s per sq ft)\n", money(p, quote.Amount), quote.Quantity, money(p, quote.RatePerSqFt))
	}
}
