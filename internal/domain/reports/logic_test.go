package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktrack/internal/domain/pay"
)

func day(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func floatPtr(v float64) *float64 { return &v }

func TestBuildPayrollPivotsByTechnician(t *testing.T) {
	results := []JobResult{
		{
			JobID:        1,
			TicketNumber: "T-1",
			Breakdown: pay.Breakdown{
				JobID: 1,
				Technicians: []pay.TechPay{
					{TechID: 1, TechName: "Avery Cole", Hours: 8, BasePay: 360, TotalPay: 360, ProfitShare: 336},
					{TechID: 2, TechName: "Jordan Blake", Hours: 2, BasePay: 120, TotalPay: 120, ProfitShare: 84},
				},
			},
			Windows: map[int64][2]time.Time{
				1: {day("2025-03-03"), day("2025-03-04")},
				2: {day("2025-03-03"), day("2025-03-03")},
			},
		},
		{
			JobID:        2,
			TicketNumber: "T-2",
			Breakdown: pay.Breakdown{
				JobID: 2,
				Technicians: []pay.TechPay{
					{TechID: 1, TechName: "Avery Cole", Hours: 4, BasePay: 200, MileagePay: 33.5, TotalPay: 233.5, ProfitShare: 200},
				},
			},
			Windows: map[int64][2]time.Time{1: {day("2025-03-10"), day("2025-03-10")}},
		},
	}

	report := BuildPayroll(day("2025-03-01"), day("2025-03-31"), results)

	require.Len(t, report.Technicians, 2)
	// Blocks are ordered by technician name.
	avery := report.Technicians[0]
	jordan := report.Technicians[1]
	assert.Equal(t, "Avery Cole", avery.TechName)
	assert.Equal(t, "Jordan Blake", jordan.TechName)

	require.Len(t, avery.Jobs, 2)
	assert.Equal(t, int64(1), avery.Jobs[0].JobID)
	assert.Equal(t, int64(2), avery.Jobs[1].JobID)

	assert.Equal(t, 12.0, avery.Subtotals.TotalHours)
	assert.Equal(t, 560.0, avery.Subtotals.TotalBasePay)
	assert.Equal(t, 593.5, avery.Subtotals.TotalPay)
	assert.Equal(t, 2.0, jordan.Subtotals.TotalHours)

	// Grand totals are exactly the sum of the subtotal rows.
	assert.Equal(t, avery.Subtotals.TotalPay+jordan.Subtotals.TotalPay, report.GrandTotals.TotalPay)
	assert.Equal(t, 14.0, report.GrandTotals.TotalHours)
}

func TestBuildPayrollEmpty(t *testing.T) {
	report := BuildPayroll(day("2025-03-01"), day("2025-03-31"), nil)
	assert.Empty(t, report.Technicians)
	assert.Equal(t, pay.Totals{}, report.GrandTotals)
}

func TestBuildBillingDerivesMarginAndTotals(t *testing.T) {
	lines := []BillingLine{
		{JobID: 1, BillingAmount: floatPtr(1000), Expenses: 100, JobNet: 900, TotalHours: 10, TechPay: 480},
		{JobID: 2, BillingAmount: floatPtr(400), JobNet: 400, TotalHours: 4, TechPay: 200},
		{JobID: 3, TotalHours: 3}, // billing not set yet
	}

	report := BuildBilling(day("2025-03-01"), day("2025-03-31"), lines)

	assert.Equal(t, 420.0, report.Jobs[0].Margin)
	assert.Equal(t, 200.0, report.Jobs[1].Margin)
	assert.Equal(t, 1400.0, report.Totals.TotalBilling)
	assert.Equal(t, 1300.0, report.Totals.TotalNet)
	assert.Equal(t, 17.0, report.Totals.TotalHours)
	assert.Equal(t, 680.0, report.Totals.TotalTechPay)
	assert.Equal(t, 620.0, report.Totals.TotalMargin)

	// The job without a billing amount is called out instead of silently
	// contributing zeros.
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, pay.WarnIncompleteJob, report.Warnings[0].Code)
	assert.Contains(t, report.Warnings[0].Message, "job 3")
}

func TestBuildHoursGroupsDayWeekJob(t *testing.T) {
	rows := []HoursRow{
		{TechID: 1, TechName: "Avery Cole", JobID: 1, DateWorked: day("2025-03-03"), Hours: 4}, // Monday
		{TechID: 1, TechName: "Avery Cole", JobID: 2, DateWorked: day("2025-03-03"), Hours: 2},
		{TechID: 1, TechName: "Avery Cole", JobID: 1, DateWorked: day("2025-03-09"), Hours: 3},  // Sunday, same week
		{TechID: 1, TechName: "Avery Cole", JobID: 1, DateWorked: day("2025-03-10"), Hours: 5},  // next Monday
		{TechID: 2, TechName: "Jordan Blake", JobID: 2, DateWorked: day("2025-03-04"), Hours: 6},
	}

	report := BuildHours(day("2025-03-01"), day("2025-03-31"), rows)

	require.Len(t, report.Technicians, 2)
	avery := report.Technicians[0]
	require.Equal(t, "Avery Cole", avery.TechName)

	require.Len(t, avery.ByDay, 3)
	assert.Equal(t, 6.0, avery.ByDay[0].Hours)

	// Weeks start on Monday: Mar 3-9 is one week, Mar 10 starts the next.
	require.Len(t, avery.ByWeek, 2)
	assert.Equal(t, day("2025-03-03"), avery.ByWeek[0].WeekStart)
	assert.Equal(t, 9.0, avery.ByWeek[0].Hours)
	assert.Equal(t, day("2025-03-10"), avery.ByWeek[1].WeekStart)
	assert.Equal(t, 5.0, avery.ByWeek[1].Hours)

	require.Len(t, avery.ByJob, 2)
	assert.Equal(t, 12.0, avery.ByJob[0].Hours)
	assert.Equal(t, 2.0, avery.ByJob[1].Hours)

	assert.Equal(t, 14.0, avery.TotalHours)
	assert.Equal(t, 20.0, report.TotalHours)
}

func TestWeekStart(t *testing.T) {
	assert.Equal(t, day("2025-03-03"), weekStart(day("2025-03-03"))) // Monday
	assert.Equal(t, day("2025-03-03"), weekStart(day("2025-03-09"))) // Sunday
	assert.Equal(t, day("2025-03-10"), weekStart(day("2025-03-10")))
}
