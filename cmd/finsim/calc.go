package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmtruffa/finsim/calendar"
	"github.com/jmtruffa/finsim/finance"
	"github.com/jmtruffa/finsim/importer"
	"github.com/jmtruffa/finsim/present"
	"github.com/jmtruffa/finsim/store"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func (a *app) newNPVCmd() *cobra.Command {
	var flows string
	var rate float64

	cmd := &cobra.Command{
		Use:   "npv",
		Short: "Net present value of equally spaced cash flows",
		Example: `  finsim npv --cash-flows "-250,100,100,100,100,100" --rate 4`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			series, err := present.ParseAmounts(flows)
			if err != nil {
				return err
			}
			npv, err := finance.NPV(series, present.Rate(rate))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "NPV: %s\n", present.Money(npv))
			return nil
		},
	}
	cmd.Flags().StringVar(&flows, "cash-flows", "", "Comma-separated cash flows, the first at time 0")
	cmd.Flags().Float64Var(&rate, "rate", 0, "Discount rate per period, in percent")
	_ = cmd.MarkFlagRequired("cash-flows")
	return cmd
}

func (a *app) newIRRCmd() *cobra.Command {
	var flows string

	cmd := &cobra.Command{
		Use:   "irr",
		Short: "Internal rate of return of equally spaced cash flows",
		RunE: func(cmd *cobra.Command, _ []string) error {
			series, err := present.ParseAmounts(flows)
			if err != nil {
				return err
			}
			irr, err := a.cfg.Valuer().IRR(series)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "IRR: %s\n", present.Percent(irr))
			return nil
		},
	}
	cmd.Flags().StringVar(&flows, "cash-flows", "", "Comma-separated cash flows, the first at time 0")
	_ = cmd.MarkFlagRequired("cash-flows")
	return cmd
}

func (a *app) newLoanCmd() *cobra.Command {
	var (
		amount       float64
		rate         float64
		periods      int
		showSchedule bool
	)

	cmd := &cobra.Command{
		Use:   "loan",
		Short: "Level payment and amortization schedule of a loan",
		RunE: func(cmd *cobra.Command, _ []string) error {
			schedule, err := finance.BuildSchedule(amount, present.Rate(rate), periods)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Payment: %s\n", present.Money(schedule[0].Payment))
			fmt.Fprintf(out, "Total paid: %s\n", present.Money(schedule.TotalPaid()))
			fmt.Fprintf(out, "Total interest: %s\n", present.Money(schedule.TotalInterest()))
			if showSchedule {
				fmt.Fprintln(out, present.ScheduleTable(schedule))
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&amount, "amount", 0, "Loan principal")
	cmd.Flags().Float64Var(&rate, "rate", 0, "Interest rate per period, in percent")
	cmd.Flags().IntVar(&periods, "periods", 0, "Number of payments")
	cmd.Flags().BoolVar(&showSchedule, "schedule", true, "Print the amortization table")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("periods")
	return cmd
}

func (a *app) newRetirementCmd() *cobra.Command {
	var (
		withdrawal    float64
		withdrawYears int
		depositYears  int
		rate          float64
	)

	cmd := &cobra.Command{
		Use:   "retirement",
		Short: "Annual deposit needed to fund a stream of retirement withdrawals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			plan, err := finance.PlanRetirement(withdrawal, withdrawYears, depositYears, present.Rate(rate))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Required annual deposit: %s\n", present.Money(plan.AnnualDeposit))
			fmt.Fprintf(out, "Total deposited: %s\n", present.Money(plan.TotalDeposited))
			fmt.Fprintf(out, "Total withdrawn: %s\n", present.Money(plan.TotalWithdrawn))
			return nil
		},
	}
	cmd.Flags().Float64Var(&withdrawal, "withdrawal", 0, "Amount withdrawn each year")
	cmd.Flags().IntVar(&withdrawYears, "withdraw-years", 0, "Years of withdrawals")
	cmd.Flags().IntVar(&depositYears, "deposit-years", 0, "Years of deposits before retiring")
	cmd.Flags().Float64Var(&rate, "rate", 0, "Annual interest rate, in percent")
	return cmd
}

func (a *app) newCompoundCmd() *cobra.Command {
	var principal, rate, years float64

	cmd := &cobra.Command{
		Use:   "compound",
		Short: "Future value under continuous and discrete compounding",
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := present.Rate(rate)
			results, err := finance.CompareCompounding(principal, r, years)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Future value (continuous): %s\n", present.Money(results[len(results)-1].FutureValue))
			fmt.Fprintln(out, present.CompoundingTable(results))
			return nil
		},
	}
	cmd.Flags().Float64Var(&principal, "principal", 0, "Amount invested")
	cmd.Flags().Float64Var(&rate, "rate", 0, "Annual interest rate, in percent")
	cmd.Flags().Float64Var(&years, "years", 0, "Years invested")
	return cmd
}

func (a *app) newXNPVCmd() *cobra.Command {
	var (
		dates    string
		flows    string
		file     string
		rate     float64
		roll     string
		dayCount string
	)

	cmd := &cobra.Command{
		Use:   "xnpv",
		Short: "XNPV and XIRR of dated cash flows",
		Example: `  finsim xnpv --dates "2024-01-01,2025-01-01" --cash-flows "-100,110" --rate 10
  finsim xnpv --file flows.xls --rate 8 --roll following`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			series, err := readDatedFlows(file, dates, flows)
			if err != nil {
				return err
			}

			valuer := a.cfg.Valuer()
			if dayCount != "" {
				if valuer.DayCount, err = finance.ParseDayCount(dayCount); err != nil {
					return err
				}
			}

			convention, err := calendar.ParseRoll(roll)
			if err != nil {
				return err
			}
			if convention != calendar.Unadjusted {
				series = a.businessCalendar(cmd.Context()).AdjustFlows(series, convention)
			}

			out := cmd.OutOrStdout()
			xnpv, err := valuer.XNPV(series, present.Rate(rate))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "XNPV: %s\n", present.Money(xnpv))

			xirr, err := valuer.XIRR(series)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "XIRR: %s\n", present.Percent(xirr))
			return nil
		},
	}
	cmd.Flags().StringVar(&dates, "dates", "", "Comma-separated dates (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flows, "cash-flows", "", "Comma-separated amounts, one per date")
	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV or XLS file with date and amount columns")
	cmd.Flags().Float64Var(&rate, "rate", 0, "Annual discount rate, in percent")
	cmd.Flags().StringVar(&roll, "roll", "", "Business day convention: following, modified-following or preceding")
	cmd.Flags().StringVar(&dayCount, "daycount", "", "Day count convention, overrides the configured one")
	cmd.MarkFlagsMutuallyExclusive("file", "dates")
	cmd.MarkFlagsRequiredTogether("dates", "cash-flows")
	return cmd
}

func readDatedFlows(file, dates, flows string) ([]finance.DatedCashFlow, error) {
	if file != "" {
		return importer.ReadFile(file)
	}
	if dates == "" {
		return nil, errors.New("either --file or --dates with --cash-flows is required")
	}
	ds, err := present.ParseDates(dates)
	if err != nil {
		return nil, err
	}
	amounts, err := present.ParseAmounts(flows)
	if err != nil {
		return nil, err
	}
	return finance.Zip(ds, amounts)
}

// businessCalendar loads the holidays from the configured database. Without a usable
// database only weekends are skipped.
func (a *app) businessCalendar(ctx context.Context) *calendar.Calendar {
	logger := zerolog.Ctx(ctx)

	repo, err := store.Open(ctx, a.cfg.Database.Driver, a.cfg.Database.DSN)
	if err != nil {
		logger.Warn().Err(err).Msg("holidays unavailable, rolling over weekends only")
		return calendar.New(nil)
	}
	defer repo.Close()

	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Warn().Err(err).Msg("holidays unavailable, rolling over weekends only")
		return calendar.New(nil)
	}
	cal := calendar.New(repo)
	if err := cal.Reload(ctx); err != nil {
		logger.Warn().Err(err).Msg("holidays unavailable, rolling over weekends only")
		return calendar.New(nil)
	}
	return cal
}
