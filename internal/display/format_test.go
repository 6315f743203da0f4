package display

import (
	"math"
	"regexp"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

var currencyPattern = regexp.MustCompile(`^\$\d{1,3}(,\d{3})*\.\d{2}$`)

func TestFormatCurrency(t *testing.T) {
	cases := map[float64]string{
		0:             "$0.00",
		0.5:           "$0.50",
		0.004:         "$0.00",
		0.005:         "$0.01",
		12.3:          "$12.30",
		999.999:       "$1,000.00",
		1234.5:        "$1,234.50",
		999999.99:     "$999,999.99",
		1000000:       "$1,000,000.00",
		1234567890.12: "$1,234,567,890.12",
		-42.5:         "-$42.50",
		1e17:          "$100,000,000,000,000,000.00",
		-1e17:         "-$100,000,000,000,000,000.00",
	}

	for input, want := range cases {
		assert.Equal(t, want, FormatCurrency(input), "input %v", input)
	}
}

func TestFormatCurrencyNonFinite(t *testing.T) {
	assert.Equal(t, "$NaN", FormatCurrency(math.NaN()))
	assert.Equal(t, "$∞", FormatCurrency(math.Inf(1)))
	assert.Equal(t, "-$∞", FormatCurrency(math.Inf(-1)))
}

func TestFormatCurrencyBeyondInt64Cents(t *testing.T) {
	// rounds to just above the largest cent count an int64 holds
	assert.Equal(t, "$92,233,720,368,547,760.00", FormatCurrency(92233720368547758.07))
	assert.Regexp(t, currencyPattern, FormatCurrency(math.MaxInt64))
	assert.Regexp(t, currencyPattern, FormatCurrency(math.MaxFloat64))
	assert.True(t, strings.HasPrefix(FormatCurrency(math.MaxFloat64), "$179,769,313,486,231,570,"))
}

func TestFormatCurrencyProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("non-negative amounts match the currency pattern", prop.ForAll(
		func(amount float64) bool {
			return currencyPattern.MatchString(FormatCurrency(amount))
		},
		gen.Float64Range(0, 1e12),
	))

	properties.Property("amounts past int64 cents match the currency pattern", prop.ForAll(
		func(amount float64) bool {
			return currencyPattern.MatchString(FormatCurrency(amount))
		},
		gen.Float64Range(1e16, math.MaxFloat64),
	))

	properties.Property("formatting is pure", prop.ForAll(
		func(amount float64) bool {
			return FormatCurrency(amount) == FormatCurrency(amount)
		},
		gen.Float64Range(0, 1e12),
	))

	properties.Property("whole dollars keep zero cents", prop.ForAll(
		func(dollars int64) bool {
			s := FormatCurrency(float64(dollars))
			return s[len(s)-3:] == ".00"
		},
		gen.Int64Range(0, 1e9),
	))

	properties.TestingRun(t)
}
