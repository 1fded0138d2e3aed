package finance

import (
	"math"
)

// Valuer carries the solver and day-count convention used by the rate-solving and
// dated valuations. The zero value discounts on ACT/365.
type Valuer struct {
	Solver   Solver
	DayCount DayCount
}

func NewValuer() Valuer {
	return Valuer{Solver: DefaultSolver(), DayCount: Actual365}
}

// NPV returns the net present value of series, the flow at index i discounted i periods.
//
// Spreadsheet equivalent: the first flow is not discounted, unlike Excel's NPV.
func NPV(series []float64, rate float64) (float64, error) {
	if err := checkRate("npv", rate); err != nil {
		return 0, err
	}
	if err := checkAmounts("npv", series); err != nil {
		return 0, err
	}
	npv := npvAt(series, rate)
	if err := checkResult("npv", npv); err != nil {
		return 0, err
	}
	return npv, nil
}

func npvAt(series []float64, rate float64) float64 {
	total := 0.0
	for i, cf := range series {
		total += cf / math.Pow(1+rate, float64(i))
	}
	return total
}

// IRR returns the periodic rate at which the NPV of series is zero.
//
// Excel equivalent: IRR
func IRR(series []float64) (float64, error) {
	return NewValuer().IRR(series)
}

func (v Valuer) IRR(series []float64) (float64, error) {
	if err := checkAmounts("irr", series); err != nil {
		return 0, err
	}
	if !hasSignChange(series) {
		return 0, newError(NoSignChange, "irr", "cash flows need at least one positive and one negative value")
	}
	root, err := v.Solver.Solve(func(rate float64) float64 {
		return npvAt(series, rate)
	})
	if err != nil {
		return 0, relabel("irr", err)
	}
	return root.Value, nil
}

func hasSignChange(values []float64) bool {
	min, max := minMaxSlice(values)
	return min < 0 && max > 0
}

func minMaxSlice(values []float64) (float64, float64) {
	min := math.MaxFloat64
	max := -min
	for _, value := range values {
		if value > max {
			max = value
		}
		if value < min {
			min = value
		}
	}
	return min, max
}

func checkAmounts(op string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return newError(InvalidInput, op, "cash flow %d is not a finite number", i)
		}
	}
	return nil
}

// relabel attributes a solver failure to the operation that invoked it.
func relabel(op string, err error) error {
	if ce, ok := err.(*CalculationError); ok {
		return &CalculationError{Kind: ce.Kind, Op: op, Detail: ce.Detail}
	}
	return err
}
