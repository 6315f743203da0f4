// Package display implements the polling portfolio display: the currency
// formatter, the gated loading screen, the decorative particle field and the
// controller that owns the display state.
package display

import (
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var (
	usd      = money.GetCurrency(money.USD)
	maxCents = decimal.NewFromInt(math.MaxInt64)
)

// FormatCurrency renders amount as US dollars with exactly two decimals,
// e.g. 1000000 -> "$1,000,000.00". Cents are rounded half away from zero.
func FormatCurrency(amount float64) string {
	switch {
	case math.IsNaN(amount):
		return "$NaN"
	case math.IsInf(amount, 1):
		return "$∞"
	case math.IsInf(amount, -1):
		return "-$∞"
	}

	cents := decimal.NewFromFloat(amount).Round(int32(usd.Fraction)).Shift(int32(usd.Fraction))
	if cents.Abs().LessThanOrEqual(maxCents) {
		return usd.Formatter().Format(cents.IntPart())
	}
	return formatLarge(cents)
}

// formatLarge renders cent counts that overflow int64 with the same
// grapheme and separators the go-money formatter uses.
func formatLarge(cents decimal.Decimal) string {
	fraction := int32(usd.Fraction)
	fixed := cents.Abs().Shift(-fraction).StringFixed(fraction)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if cents.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteString(usd.Grapheme)
	for i := 0; i < len(whole); i++ {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(usd.Thousand)
		}
		b.WriteByte(whole[i])
	}
	b.WriteString(usd.Decimal)
	b.WriteString(frac)
	return b.String()
}
