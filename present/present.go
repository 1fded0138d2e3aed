// Package present parses the text a user types into engine arguments and renders engine
// results back as text. The CLI and the HTTP API share it.
package present

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jmtruffa/finsim/finance"
	"github.com/shopspring/decimal"
)

// ParseAmounts reads a comma-separated list such as "-250,100,100".
func ParseAmounts(s string) ([]float64, error) {
	fields := splitList(s)
	if len(fields) == 0 {
		return nil, errors.New("enter at least one cash flow")
	}
	amounts := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("cash flow %d: %q is not a number", i+1, f)
		}
		amounts[i] = v
	}
	return amounts, nil
}

// ParseDates reads a comma-separated list of YYYY-MM-DD dates.
func ParseDates(s string) ([]time.Time, error) {
	fields := splitList(s)
	if len(fields) == 0 {
		return nil, errors.New("enter at least one date")
	}
	dates := make([]time.Time, len(fields))
	for i, f := range fields {
		d, err := time.Parse(finance.DateFormat, f)
		if err != nil {
			return nil, fmt.Errorf("date %d: %q is not YYYY-MM-DD", i+1, f)
		}
		dates[i] = d
	}
	return dates, nil
}

// ParsePercent reads "7", "7%" or "7.5 %" and returns the fraction 0.07.
func ParsePercent(s string) (float64, error) {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a percentage", s)
	}
	return Rate(v), nil
}

// Rate converts a percentage to a fraction.
func Rate(percent float64) float64 {
	return percent / 100
}

func splitList(s string) []string {
	var fields []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// Money renders v as dollars with two decimals and thousands separators. Values that are
// not finite are rendered as Go formats them.
func Money(v float64) string {
	if !isFinite(v) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
	}
	return sign + "$" + group(d.Abs().StringFixed(2))
}

// Percent renders a fraction as a percentage with two decimals.
func Percent(rate float64) string {
	if !isFinite(rate) {
		return strconv.FormatFloat(rate, 'f', -1, 64) + "%"
	}
	return decimal.NewFromFloat(rate).Shift(2).StringFixed(2) + "%"
}

// Round2 rounds to cents.
func Round2(v float64) float64 {
	if !isFinite(v) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// group inserts a comma every three digits of the integer part of an unsigned fixed-point
// string: "1234567.80" becomes "1,234,567.80".
func group(fixed string) string {
	intPart, frac := fixed, ""
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		intPart, frac = fixed[:i], fixed[i:]
	}
	var b strings.Builder
	for i, ch := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}
	return b.String() + frac
}

// ErrorMessage turns an engine error into the text shown in place of a result.
func ErrorMessage(err error) string {
	var ce *finance.CalculationError
	if !errors.As(err, &ce) {
		return "Calculation Error"
	}
	switch ce.Kind {
	case finance.InvalidRate:
		return "Calculation Error: the rate must be greater than -100%."
	case finance.NoSignChange:
		return "Calculation Error: cash flows need at least one positive and one negative value."
	case finance.NoConvergence:
		return "Calculation Error: no rate solves this cash-flow series."
	case finance.DivisionByZero:
		return "Calculation Error: the result is undefined for zero periods."
	case finance.InvalidInput:
		return "Calculation Error: " + ce.Detail + "."
	default:
		return "Calculation Error"
	}
}
