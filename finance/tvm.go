package finance

import (
	"math"
)

// PresentValue discounts cashFlow received periodIndex periods from now.
func PresentValue(cashFlow float64, periodIndex int, rate float64) (float64, error) {
	if err := checkRate("present value", rate); err != nil {
		return 0, err
	}
	pv := cashFlow / math.Pow(1+rate, float64(periodIndex))
	if err := checkResult("present value", pv); err != nil {
		return 0, err
	}
	return pv, nil
}

// AnnuityPresentValueFactor is the present value of 1 paid at the end of each of
// periods periods. It is exactly periods when rate is zero.
func AnnuityPresentValueFactor(rate float64, periods int) float64 {
	if rate == 0 {
		return float64(periods)
	}
	return (1 - math.Pow(1+rate, -float64(periods))) / rate
}

// FutureValueContinuous grows principal at annualRate compounded continuously. The result
// is +Inf once it exceeds float64; CompareCompounding reports that as an error.
func FutureValueContinuous(principal, annualRate, years float64) float64 {
	return principal * math.Exp(annualRate*years)
}

// FutureValue grows principal at annualRate compounded periodsPerYear times a year.
func FutureValue(principal, annualRate, years float64, periodsPerYear int) (float64, error) {
	if periodsPerYear <= 0 {
		return 0, newError(InvalidInput, "future value", "periods per year must be positive, got %d", periodsPerYear)
	}
	periodic := annualRate / float64(periodsPerYear)
	if err := checkRate("future value", periodic); err != nil {
		return 0, err
	}
	fv := principal * math.Pow(1+periodic, float64(periodsPerYear)*years)
	if err := checkResult("future value", fv); err != nil {
		return 0, err
	}
	return fv, nil
}

// CompoundingResult is one line of a compounding comparison. PeriodsPerYear is zero for
// continuous compounding.
type CompoundingResult struct {
	Method         string  `json:"method"`
	PeriodsPerYear int     `json:"periods_per_year"`
	FutureValue    float64 `json:"future_value"`
	Interest       float64 `json:"interest"`
}

var compoundingFrequencies = []struct {
	method string
	m      int
}{
	{"annual", 1},
	{"semi-annual", 2},
	{"quarterly", 4},
	{"monthly", 12},
	{"daily", 365},
}

// CompareCompounding values principal under the usual discrete frequencies and under
// continuous compounding, which always comes last.
func CompareCompounding(principal, annualRate, years float64) ([]CompoundingResult, error) {
	results := make([]CompoundingResult, 0, len(compoundingFrequencies)+1)
	for _, freq := range compoundingFrequencies {
		fv, err := FutureValue(principal, annualRate, years, freq.m)
		if err != nil {
			return nil, err
		}
		results = append(results, CompoundingResult{
			Method:         freq.method,
			PeriodsPerYear: freq.m,
			FutureValue:    fv,
			Interest:       fv - principal,
		})
	}
	fv := FutureValueContinuous(principal, annualRate, years)
	if err := checkResult("future value", fv); err != nil {
		return nil, err
	}
	results = append(results, CompoundingResult{
		Method:      "continuous",
		FutureValue: fv,
		Interest:    fv - principal,
	})
	return results, nil
}
