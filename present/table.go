package present

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/jmtruffa/finsim/finance"
)

// ScheduleTable renders an amortization schedule for a terminal.
func ScheduleTable(s finance.Schedule) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Period", "Payment", "Principal", "Interest", "Balance")
	for _, row := range s {
		t.Row(
			strconv.Itoa(row.Period),
			Money(row.Payment),
			Money(row.Principal),
			Money(row.Interest),
			Money(row.RemainingBalance),
		)
	}
	return t.String()
}

// CompoundingTable renders a compounding comparison.
func CompoundingTable(results []finance.CompoundingResult) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Method", "Future value", "Interest")
	for _, r := range results {
		t.Row(r.Method, Money(r.FutureValue), Money(r.Interest))
	}
	return t.String()
}
