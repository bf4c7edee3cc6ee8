package cli

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// newPrinter returns a locale-aware printer, falling back to English for an
// empty or unknown tag.
func newPrinter(tag string) *message.Printer {
	lang, err := language.Parse(tag)
	if err != nil || tag == "" {
		lang = language.English
	}
	return message.NewPrinter(lang)
}

// money formats a currency amount with grouping for display only. JSON
// output keeps the exact decimal string.
func money(p *message.Printer, d decimal.Decimal) string {
	return p.Sprintf("%.2f", d.Round(2).InexactFloat64())
}
