package finance

import (
	"time"
)

// Yield returns the annual rate at which the flows paid after settlementDate are worth
// price on settlementDate. Flows on or before settlementDate are discarded.
func (v Valuer) Yield(flows []DatedCashFlow, price float64, settlementDate time.Time) (float64, error) {
	remaining := flowsAfter(flows, settlementDate)
	if len(remaining) == 0 {
		return 0, newError(InvalidInput, "yield", "no cash flows after %s", settlementDate.Format("2006-01-02"))
	}

	// The price is paid on settlement, so it enters the series as the first outflow.
	series := make([]DatedCashFlow, 0, len(remaining)+1)
	series = append(series, DatedCashFlow{Date: settlementDate, Amount: -price})
	series = append(series, remaining...)

	rate, err := v.XIRR(series)
	if err != nil {
		return 0, relabel("yield", err)
	}
	return rate, nil
}

// Price discounts the flows paid after settlementDate back to settlementDate at rate.
func (v Valuer) Price(flows []DatedCashFlow, rate float64, settlementDate time.Time) (float64, error) {
	remaining := flowsAfter(flows, settlementDate)
	if len(remaining) == 0 {
		return 0, newError(InvalidInput, "price", "no cash flows after %s", settlementDate.Format("2006-01-02"))
	}

	// A zero flow on settlement anchors the discounting date.
	series := make([]DatedCashFlow, 0, len(remaining)+1)
	series = append(series, DatedCashFlow{Date: settlementDate, Amount: 0})
	series = append(series, remaining...)

	price, err := v.XNPV(series, rate)
	if err != nil {
		return 0, relabel("price", err)
	}
	return price, nil
}

func flowsAfter(flows []DatedCashFlow, settlementDate time.Time) []DatedCashFlow {
	cutoff := utcDate(settlementDate)
	var remaining []DatedCashFlow
	for _, cf := range flows {
		if utcDate(cf.Date).After(cutoff) {
			remaining = append(remaining, cf)
		}
	}
	return remaining
}
