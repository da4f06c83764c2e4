package exporter

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"salespulse/pkg/contracts/domain"
)

var (
	usdPrinter   = message.NewPrinter(language.AmericanEnglish)
	countPrinter = message.NewPrinter(language.MustParse("es-CL"))
)

// FormatUSD formats a revenue figure with en-US grouping and exactly two
// decimal places, e.g. "USD $1,234,567.89".
func FormatUSD(v float64) string {
	return usdPrinter.Sprintf("USD $%.2f", v)
}

// FormatCount formats a unit count with es-CL digit grouping, so thousands
// are dot-separated, e.g. "1.234". Fractional counts are rounded.
func FormatCount(v float64) string {
	return countPrinter.Sprintf("%d", int64(math.Round(v)))
}

// FormatValue applies the formatting a series or table declares for its
// values. Unknown hints fall back to a plain two-decimal rendering.
func FormatValue(f domain.ValueFmt, v float64) string {
	switch f {
	case domain.FmtCurrency:
		return FormatUSD(v)
	case domain.FmtCount:
		return FormatCount(v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// formatFloat formats a raw float for CSV output with exactly 2 decimal
// places, so values like 13.4 appear as 13.40.
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return fmt.Sprintf("%d", i)
}
