package finance

import (
	"math"
)

// AmortizationRow is one period of a level-payment loan.
type AmortizationRow struct {
	Period           int     `json:"period"`
	Payment          float64 `json:"payment"`
	Principal        float64 `json:"principal"`
	Interest         float64 `json:"interest"`
	RemainingBalance float64 `json:"remaining_balance"`
}

// MaxSchedulePeriods bounds BuildSchedule: 100 years of monthly payments.
const MaxSchedulePeriods = 1200

// Schedule lists the rows of a loan, periods 1..N.
type Schedule []AmortizationRow

func (s Schedule) TotalPaid() float64 {
	total := 0.0
	for _, row := range s {
		total += row.Payment
	}
	return total
}

func (s Schedule) TotalInterest() float64 {
	total := 0.0
	for _, row := range s {
		total += row.Interest
	}
	return total
}

// FinalBalance is the balance left after the last period, zero for an empty schedule.
func (s Schedule) FinalBalance() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].RemainingBalance
}

// PMT returns the level payment that repays presentValue over periods at rate. A positive
// presentValue gives a positive payment.
//
// Excel equivalent: -PMT(rate, periods, presentValue)
func PMT(rate float64, periods int, presentValue float64) (float64, error) {
	if err := checkRate("pmt", rate); err != nil {
		return 0, err
	}
	if periods < 0 {
		return 0, newError(InvalidInput, "pmt", "periods must not be negative, got %d", periods)
	}
	if periods == 0 {
		return 0, newError(DivisionByZero, "pmt", "a loan needs at least one period")
	}
	if math.IsNaN(presentValue) || math.IsInf(presentValue, 0) {
		return 0, newError(InvalidInput, "pmt", "present value is not a finite number")
	}
	if rate == 0 {
		return presentValue / float64(periods), nil
	}
	payment := presentValue * rate / (1 - math.Pow(1+rate, -float64(periods)))
	if err := checkResult("pmt", payment); err != nil {
		return 0, err
	}
	return payment, nil
}

// BuildSchedule splits the level payment of a loan into interest and principal for every
// period. When the payment does not cover the interest the principal portion is negative
// and the balance grows; the rows still show it.
//
// The balance after each period is the present value of the payments still due. It equals
// the running balance, but the running subtraction multiplies rounding error by (1+rate)
// every period and drifts away from zero on long or high-rate loans.
func BuildSchedule(principal, rate float64, periods int) (Schedule, error) {
	payment, err := PMT(rate, periods, principal)
	if err != nil {
		return nil, relabel("schedule", err)
	}
	if periods > MaxSchedulePeriods {
		return nil, newError(InvalidInput, "schedule", "at most %d periods, got %d", MaxSchedulePeriods, periods)
	}

	schedule := make(Schedule, 0, periods)
	balance := principal
	for period := 1; period <= periods; period++ {
		interest := balance * rate
		principalPortion := payment - interest
		balance = payment * AnnuityPresentValueFactor(rate, periods-period)
		if err := checkResult("schedule", interest, balance); err != nil {
			return nil, err
		}

		schedule = append(schedule, AmortizationRow{
			Period:           period,
			Payment:          payment,
			Principal:        principalPortion,
			Interest:         interest,
			RemainingBalance: balance,
		})
	}
	return schedule, nil
}
