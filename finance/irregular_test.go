package finance

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDayFraction(t *testing.T) {
	assert.Equal(t, 1.0, DayFraction(date("2026-01-01"), date("2025-01-01")))
	assert.InDelta(t, 366.0/365.0, DayFraction(date("2025-01-01"), date("2024-01-01")), 1e-12)
	assert.Zero(t, DayFraction(date("2025-03-01"), date("2025-03-01")))
}

func TestDayFraction_IgnoresClockTimeAndZone(t *testing.T) {
	ref := time.Date(2025, 3, 1, 23, 0, 0, 0, time.UTC)
	d := time.Date(2025, 3, 31, 1, 0, 0, 0, time.FixedZone("ART", -3*3600))

	assert.InDelta(t, 30.0/365.0, DayFraction(d, ref), 1e-12)
}

func TestXNPV_DefaultForm(t *testing.T) {
	series := []DatedCashFlow{
		{Date: date("2025-01-01"), Amount: -1000},
		{Date: date("2026-01-01"), Amount: 500},
		{Date: date("2027-01-01"), Amount: 700},
	}

	xnpv, err := XNPV(series, 0.10)

	require.NoError(t, err)
	assert.InDelta(t, 33.0579, xnpv, 1e-4)
}

func TestXNPV_MatchesNPVForYearlySpacing(t *testing.T) {
	// 2021 to 2023 are not leap years, so each step is exactly 365 days.
	amounts := []float64{-500, 120, 180, 260}
	dates := []time.Time{date("2021-01-01"), date("2022-01-01"), date("2023-01-01"), date("2024-01-01")}
	series, err := Zip(dates, amounts)
	require.NoError(t, err)

	for _, rate := range []float64{0, 0.04, 0.125} {
		xnpv, err := XNPV(series, rate)
		require.NoError(t, err)
		npv, err := NPV(amounts, rate)
		require.NoError(t, err)
		assert.InDelta(t, npv, xnpv, 1e-9, "rate %v", rate)
	}
}

func TestXNPV_SortsInputByDate(t *testing.T) {
	sorted := []DatedCashFlow{
		{Date: date("2020-01-01"), Amount: -10000},
		{Date: date("2020-03-01"), Amount: 2750},
		{Date: date("2020-10-30"), Amount: 4250},
	}
	shuffled := []DatedCashFlow{sorted[2], sorted[0], sorted[1]}

	want, err := XNPV(sorted, 0.09)
	require.NoError(t, err)
	got, err := XNPV(shuffled, 0.09)
	require.NoError(t, err)

	assert.Equal(t, want, got)
	assert.Equal(t, date("2020-10-30"), shuffled[0].Date, "input must not be reordered")
}

func TestXNPV_EmptyIsZero(t *testing.T) {
	xnpv, err := XNPV(nil, 0.1)

	require.NoError(t, err)
	assert.Zero(t, xnpv)
}

func TestXNPV_InvalidRate(t *testing.T) {
	_, err := XNPV([]DatedCashFlow{{Date: date("2025-01-01"), Amount: 1}}, -1)

	assert.True(t, errors.Is(err, ErrInvalidRate))
}

func TestXNPV_MissingDate(t *testing.T) {
	_, err := XNPV([]DatedCashFlow{{Amount: 1}}, 0.1)

	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestXIRR_IrregularSchedule(t *testing.T) {
	series := []DatedCashFlow{
		{Date: date("2020-01-01"), Amount: -10000},
		{Date: date("2020-03-01"), Amount: 2750},
		{Date: date("2020-10-30"), Amount: 4250},
		{Date: date("2021-02-15"), Amount: 3250},
		{Date: date("2021-04-01"), Amount: 2750},
	}

	rate, err := XIRR(series)
	require.NoError(t, err)
	assert.InDelta(t, 0.3733625, rate, 1e-6)

	xnpv, err := XNPV(series, rate)
	require.NoError(t, err)
	assert.InDelta(t, 0, xnpv, 1e-6)
}

func TestXIRR_UsesDayFractionsNotPeriods(t *testing.T) {
	// Same amounts as a two-period IRR, but the second flow comes after half a year.
	series := []DatedCashFlow{
		{Date: date("2025-01-01"), Amount: -100},
		{Date: date("2025-07-02"), Amount: 110},
	}

	xirr, err := XIRR(series)
	require.NoError(t, err)
	irr, err := IRR([]float64{-100, 110})
	require.NoError(t, err)

	assert.Greater(t, xirr, irr)
}

func TestXIRR_NoSignChange(t *testing.T) {
	_, err := XIRR([]DatedCashFlow{
		{Date: date("2025-01-01"), Amount: 1},
		{Date: date("2026-01-01"), Amount: 2},
	})

	assert.Equal(t, NoSignChange, KindOf(err))
}

func TestZip_LengthMismatch(t *testing.T) {
	_, err := Zip([]time.Time{date("2025-01-01")}, []float64{1, 2})

	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestXNPV_OverflowIsAnError(t *testing.T) {
	series := []DatedCashFlow{
		{Date: date("2000-01-01"), Amount: -1},
		{Date: date("2200-01-01"), Amount: 1},
	}

	_, err := XNPV(series, -0.99)

	var ce *CalculationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, InvalidInput, ce.Kind)
	assert.Equal(t, "xnpv", ce.Op)
}
