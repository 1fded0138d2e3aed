package finance

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequiredAnnualDeposit_DefaultPlan(t *testing.T) {
	deposit, err := RequiredAnnualDeposit(30000, 8, 5, 0.07)

	require.NoError(t, err)
	assert.InDelta(t, 40832.0787, deposit, 1e-4)
}

func TestRequiredAnnualDeposit_ZeroRate(t *testing.T) {
	deposit, err := RequiredAnnualDeposit(1000, 10, 4, 0)

	require.NoError(t, err)
	assert.Equal(t, 2500.0, deposit)
}

func TestRequiredAnnualDeposit_Errors(t *testing.T) {
	_, err := RequiredAnnualDeposit(30000, 8, 0, 0.07)
	assert.True(t, errors.Is(err, ErrDivisionByZero))

	_, err = RequiredAnnualDeposit(30000, 8, 5, -1)
	assert.True(t, errors.Is(err, ErrInvalidRate))

	_, err = RequiredAnnualDeposit(30000, -8, 5, 0.07)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestPlanRetirement_Breakdown(t *testing.T) {
	plan, err := PlanRetirement(30000, 8, 5, 0.07)
	require.NoError(t, err)

	assert.InDelta(t, 30000*AnnuityPresentValueFactor(0.07, 8), plan.PVWithdrawals, 1e-9)
	assert.InDelta(t, plan.PVWithdrawals, plan.AnnualDeposit*plan.DepositFactor, 1e-6)
	assert.InDelta(t, plan.AnnualDeposit*5, plan.TotalDeposited, 1e-9)
	assert.Equal(t, 240000.0, plan.TotalWithdrawn)
}

func TestPlanRetirement_OverflowIsAnError(t *testing.T) {
	_, err := PlanRetirement(30000, 200, 5, -0.99)

	assert.True(t, errors.Is(err, ErrInvalidInput))
}
