package finance

// RetirementPlan breaks down the deposit needed to fund a withdrawal stream.
type RetirementPlan struct {
	// PVWithdrawals is the value of all withdrawals at the start of retirement.
	PVWithdrawals float64 `json:"pv_withdrawals"`
	// DepositFactor is the annuity-due factor over the deposit years.
	DepositFactor  float64 `json:"deposit_factor"`
	AnnualDeposit  float64 `json:"annual_deposit"`
	TotalDeposited float64 `json:"total_deposited"`
	TotalWithdrawn float64 `json:"total_withdrawn"`
}

// RequiredAnnualDeposit returns the deposit, made for depositYears, that funds
// annualWithdrawal for withdrawYears at rate.
func RequiredAnnualDeposit(annualWithdrawal float64, withdrawYears, depositYears int, rate float64) (float64, error) {
	plan, err := PlanRetirement(annualWithdrawal, withdrawYears, depositYears, rate)
	if err != nil {
		return 0, err
	}
	return plan.AnnualDeposit, nil
}

func PlanRetirement(annualWithdrawal float64, withdrawYears, depositYears int, rate float64) (RetirementPlan, error) {
	const op = "retirement deposit"
	if err := checkRate(op, rate); err != nil {
		return RetirementPlan{}, err
	}
	if withdrawYears < 0 || depositYears < 0 {
		return RetirementPlan{}, newError(InvalidInput, op, "years must not be negative")
	}
	if depositYears == 0 {
		return RetirementPlan{}, newError(DivisionByZero, op, "at least one deposit year is required")
	}
	if err := checkAmounts(op, []float64{annualWithdrawal}); err != nil {
		return RetirementPlan{}, err
	}

	pvWithdrawals := annualWithdrawal * AnnuityPresentValueFactor(rate, withdrawYears)
	depositFactor := (1 + rate) * AnnuityPresentValueFactor(rate, depositYears)
	deposit := pvWithdrawals / depositFactor
	if err := checkResult(op, pvWithdrawals, depositFactor, deposit); err != nil {
		return RetirementPlan{}, err
	}

	return RetirementPlan{
		PVWithdrawals:  pvWithdrawals,
		DepositFactor:  depositFactor,
		AnnualDeposit:  deposit,
		TotalDeposited: deposit * float64(depositYears),
		TotalWithdrawn: annualWithdrawal * float64(withdrawYears),
	}, nil
}
