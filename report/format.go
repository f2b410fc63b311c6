package report

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer formats numbers with English thousand separators.
var printer = message.NewPrinter(language.English)

// FormatFloat formats v with the given number of decimals and thousand
// separators. Example: FormatFloat(3360, 2) returns "3,360.00".
func FormatFloat(v float64, places int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprint(v)
	}
	if places < 0 {
		places = 0
	}
	// Avoid printing "-0.00".
	if v < 0 && v > -0.5*math.Pow10(-places) {
		v = 0
	}
	return printer.Sprintf(fmt.Sprintf("%%.%df", places), v)
}

// FormatCurrency formats an amount in euros with two decimals.
// The sign goes before the symbol: "-€1,234.50".
func FormatCurrency(v float64) string {
	if v < 0 && FormatFloat(v, 2) != "0.00" {
		return "-€" + FormatFloat(-v, 2)
	}
	return "€" + FormatFloat(v, 2)
}

// FormatPercent formats a percentage with one decimal: "66.7%".
func FormatPercent(v float64) string {
	return FormatFloat(v, 1) + "%"
}
