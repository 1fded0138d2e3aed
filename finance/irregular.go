package finance

import (
	"math"
	"sort"
	"time"
)

// DateFormat is the layout of dates exchanged as text.
const DateFormat = "2006-01-02"

// DatedCashFlow is a single flow on a calendar date.
type DatedCashFlow struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// XNPV returns the net present value of series discounted from its earliest date on
// ACT/365 day fractions.
//
// Excel equivalent: XNPV
func XNPV(series []DatedCashFlow, annualRate float64) (float64, error) {
	return NewValuer().XNPV(series, annualRate)
}

// XIRR returns the annual rate at which the XNPV of series is zero.
//
// Excel equivalent: XIRR
func XIRR(series []DatedCashFlow) (float64, error) {
	return NewValuer().XIRR(series)
}

func (v Valuer) XNPV(series []DatedCashFlow, annualRate float64) (float64, error) {
	if err := checkRate("xnpv", annualRate); err != nil {
		return 0, err
	}
	amounts, times, err := v.schedule("xnpv", series)
	if err != nil {
		return 0, err
	}
	xnpv := xnpvAt(amounts, times, annualRate)
	if err := checkResult("xnpv", xnpv); err != nil {
		return 0, err
	}
	return xnpv, nil
}

func (v Valuer) XIRR(series []DatedCashFlow) (float64, error) {
	amounts, times, err := v.schedule("xirr", series)
	if err != nil {
		return 0, err
	}
	if !hasSignChange(amounts) {
		return 0, newError(NoSignChange, "xirr", "cash flows need at least one positive and one negative value")
	}
	root, err := v.Solver.Solve(func(rate float64) float64 {
		return xnpvAt(amounts, times, rate)
	})
	if err != nil {
		return 0, relabel("xirr", err)
	}
	return root.Value, nil
}

// schedule sorts a copy of series by date and returns the amounts with their year
// fractions from the first date.
func (v Valuer) schedule(op string, series []DatedCashFlow) ([]float64, []float64, error) {
	sorted := sortByDate(series)
	amounts := make([]float64, len(sorted))
	times := make([]float64, len(sorted))
	for i, cf := range sorted {
		if cf.Date.IsZero() {
			return nil, nil, newError(InvalidInput, op, "cash flow %d has no date", i)
		}
		amounts[i] = cf.Amount
		times[i] = v.DayCount.YearFraction(sorted[0].Date, cf.Date)
	}
	if err := checkAmounts(op, amounts); err != nil {
		return nil, nil, err
	}
	return amounts, times, nil
}

func xnpvAt(amounts, times []float64, rate float64) float64 {
	total := 0.0
	for i, amount := range amounts {
		total += amount / math.Pow(1+rate, times[i])
	}
	return total
}

func sortByDate(series []DatedCashFlow) []DatedCashFlow {
	sorted := make([]DatedCashFlow, len(series))
	copy(sorted, series)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}

// Zip pairs dates with amounts. Both slices must have the same length.
func Zip(dates []time.Time, amounts []float64) ([]DatedCashFlow, error) {
	if len(dates) != len(amounts) {
		return nil, newError(InvalidInput, "zip", "%d dates for %d cash flows", len(dates), len(amounts))
	}
	series := make([]DatedCashFlow, len(dates))
	for i := range dates {
		series[i] = DatedCashFlow{Date: dates[i], Amount: amounts[i]}
	}
	return series, nil
}
