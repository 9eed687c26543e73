package pay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktrack/internal/domain/rates"
)

func floatPtr(v float64) *float64 { return &v }

func day(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func standardHistory() rates.History {
	return rates.History{
		{RatePerMile: 0.67, EffectiveDate: day("2025-01-01")},
	}.Normalize()
}

func TestCalculateSingleTechnician(t *testing.T) {
	got, err := Calculate(Inputs{
		Job: JobFinancials{JobID: 1, BillingAmount: floatPtr(1000), Expenses: 100},
		Entries: []EntryInput{
			{EntryID: 10, TechID: 7, DateWorked: day("2025-03-03"), Hours: 10},
		},
		MinRates:    map[int64]float64{7: 20},
		TechNames:   map[int64]string{7: "Avery Cole"},
		RateHistory: standardHistory(),
	})
	require.NoError(t, err)

	assert.Equal(t, 900.0, got.JobNet)
	assert.Equal(t, 450.0, got.TechPool)
	require.Len(t, got.Technicians, 1)

	row := got.Technicians[0]
	assert.Equal(t, int64(7), row.TechID)
	assert.Equal(t, "Avery Cole", row.TechName)
	assert.Equal(t, 10.0, row.Hours)
	assert.Equal(t, 45.0, row.EffectiveRate)
	assert.Equal(t, 450.0, row.BasePay)
	assert.False(t, row.UsingMinimum)
	assert.Equal(t, 450.0, row.TotalPay)
	// Company margin on the job is the other $450.
	assert.Equal(t, 450.0, row.ProfitShare)
	assert.Equal(t, []int64{10}, row.EntryIDs)
}

func TestCalculateTwoTechniciansWithFloor(t *testing.T) {
	got, err := Calculate(Inputs{
		Job: JobFinancials{JobID: 2, BillingAmount: floatPtr(1000), Expenses: 100},
		Entries: []EntryInput{
			{EntryID: 20, TechID: 1, DateWorked: day("2025-03-03"), Hours: 8},
			{EntryID: 21, TechID: 2, DateWorked: day("2025-03-03"), Hours: 2},
		},
		MinRates:    map[int64]float64{1: 20, 2: 60},
		TechNames:   map[int64]string{1: "Avery Cole", 2: "Jordan Blake"},
		RateHistory: standardHistory(),
	})
	require.NoError(t, err)
	require.Len(t, got.Technicians, 2)

	techA := got.Technicians[0]
	techB := got.Technicians[1]

	assert.Equal(t, 360.0, techA.BasePay)
	assert.Equal(t, 45.0, techA.EffectiveRate)
	assert.False(t, techA.UsingMinimum)

	// Tech B's calculated $45/hr is below their $60 floor; the floor wins
	// and tech A's row is untouched.
	assert.Equal(t, 120.0, techB.BasePay)
	assert.Equal(t, 60.0, techB.EffectiveRate)
	assert.True(t, techB.UsingMinimum)

	assert.Equal(t, 10.0, got.Totals.TotalHours)
	assert.Equal(t, 480.0, got.Totals.TotalBasePay)
	// Profit share reflects the floored payout: 900 - 480 = 420.
	assert.InDelta(t, 420.0, got.Totals.TotalProfitShare, 0.001)
}

func TestCalculateFloorNeverReducesOthers(t *testing.T) {
	base := Inputs{
		Job: JobFinancials{JobID: 3, BillingAmount: floatPtr(500)},
		Entries: []EntryInput{
			{EntryID: 30, TechID: 1, Hours: 6, DateWorked: day("2025-02-01")},
			{EntryID: 31, TechID: 2, Hours: 4, DateWorked: day("2025-02-01")},
		},
		MinRates:    map[int64]float64{1: 10, 2: 10},
		RateHistory: standardHistory(),
	}
	unfloored, err := Calculate(base)
	require.NoError(t, err)

	base.MinRates = map[int64]float64{1: 10, 2: 200}
	floored, err := Calculate(base)
	require.NoError(t, err)

	assert.Equal(t, unfloored.Technicians[0].BasePay, floored.Technicians[0].BasePay)
	assert.Equal(t, unfloored.Technicians[0].EffectiveRate, floored.Technicians[0].EffectiveRate)
	assert.GreaterOrEqual(t, floored.Technicians[1].BasePay, unfloored.Technicians[1].BasePay)
	assert.Equal(t, unfloored.Totals.TotalHours, floored.Totals.TotalHours)
}

func TestCalculatePreFloorBaseSumsToPool(t *testing.T) {
	got, err := Calculate(Inputs{
		Job: JobFinancials{JobID: 4, BillingAmount: floatPtr(1234.56), Expenses: 78.90, Commissions: 45.67},
		Entries: []EntryInput{
			{EntryID: 40, TechID: 1, Hours: 3.25, DateWorked: day("2025-02-01")},
			{EntryID: 41, TechID: 2, Hours: 7.5, DateWorked: day("2025-02-01")},
			{EntryID: 42, TechID: 3, Hours: 1.02, DateWorked: day("2025-02-01")},
		},
		MinRates:    map[int64]float64{1: 0, 2: 0, 3: 0},
		RateHistory: standardHistory(),
	})
	require.NoError(t, err)

	sum := 0.0
	for _, row := range got.Technicians {
		require.False(t, row.UsingMinimum)
		sum += row.BasePay
	}
	assert.InDelta(t, got.TechPool, sum, 0.02)
}

func TestCalculateIdempotent(t *testing.T) {
	in := Inputs{
		Job: JobFinancials{JobID: 5, BillingAmount: floatPtr(999.99), Expenses: 33.33},
		Entries: []EntryInput{
			{EntryID: 50, TechID: 1, Hours: 5.5, Mileage: 120, DateWorked: day("2025-04-10")},
			{EntryID: 51, TechID: 2, Hours: 2.75, PerDiem: 50, DateWorked: day("2025-04-11")},
		},
		MinRates:    map[int64]float64{1: 25, 2: 25},
		TechNames:   map[int64]string{1: "A", 2: "B"},
		RateHistory: standardHistory(),
	}
	first, err := Calculate(in)
	require.NoError(t, err)
	second, err := Calculate(in)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCalculateMissingBilling(t *testing.T) {
	_, err := Calculate(Inputs{Job: JobFinancials{JobID: 6}})
	require.ErrorIs(t, err, ErrIncompleteJobData)
}

func TestCalculateZeroTotalHours(t *testing.T) {
	got, err := Calculate(Inputs{
		Job: JobFinancials{JobID: 7, BillingAmount: floatPtr(800)},
		Entries: []EntryInput{
			{EntryID: 70, TechID: 1, Hours: 0, DateWorked: day("2025-02-01")},
		},
		MinRates:    map[int64]float64{1: 20},
		RateHistory: standardHistory(),
	})
	require.NoError(t, err)
	assert.Equal(t, 800.0, got.JobNet)
	assert.Equal(t, 400.0, got.TechPool)
	assert.Empty(t, got.Technicians)
}

func TestCalculateUnassignedEntryExcluded(t *testing.T) {
	got, err := Calculate(Inputs{
		Job: JobFinancials{JobID: 8, BillingAmount: floatPtr(600)},
		Entries: []EntryInput{
			{EntryID: 80, TechID: 0, Hours: 4, DateWorked: day("2025-02-01")},
			{EntryID: 81, TechID: 1, Hours: 6, DateWorked: day("2025-02-01")},
		},
		MinRates:    map[int64]float64{1: 10},
		RateHistory: standardHistory(),
	})
	require.NoError(t, err)

	require.Len(t, got.Technicians, 1)
	// The assigned technician takes the whole pool; the unassigned hours
	// never enter the denominator.
	assert.Equal(t, 300.0, got.Technicians[0].BasePay)

	require.Len(t, got.Warnings, 1)
	assert.Equal(t, WarnUnassignedEntry, got.Warnings[0].Code)
	assert.Equal(t, int64(80), got.Warnings[0].EntryID)
}

func TestCalculateMileageRateNotFound(t *testing.T) {
	got, err := Calculate(Inputs{
		Job: JobFinancials{JobID: 9, BillingAmount: floatPtr(400)},
		Entries: []EntryInput{
			{EntryID: 90, TechID: 1, Hours: 4, Mileage: 100, DateWorked: day("2024-06-01")},
		},
		MinRates:    map[int64]float64{1: 10},
		RateHistory: standardHistory(),
	})
	require.NoError(t, err)

	require.Len(t, got.Technicians, 1)
	row := got.Technicians[0]
	assert.Equal(t, 0.0, row.MileagePay)
	assert.Equal(t, 100.0, row.Mileage)
	// Base pay is unaffected by the missing rate.
	assert.Equal(t, 200.0, row.BasePay)

	require.Len(t, got.Warnings, 1)
	assert.Equal(t, WarnRateNotFound, got.Warnings[0].Code)
}

func TestCalculateMileageUsesRateForWorkDate(t *testing.T) {
	history := rates.History{
		{RatePerMile: 0.58, EffectiveDate: day("2024-01-01")},
		{RatePerMile: 0.67, EffectiveDate: day("2025-01-01")},
	}.Normalize()

	got, err := Calculate(Inputs{
		Job: JobFinancials{JobID: 10, BillingAmount: floatPtr(400)},
		Entries: []EntryInput{
			{EntryID: 100, TechID: 1, Hours: 2, Mileage: 100, DateWorked: day("2024-06-01")},
			{EntryID: 101, TechID: 1, Hours: 2, Mileage: 100, DateWorked: day("2025-06-01")},
		},
		MinRates:    map[int64]float64{1: 10},
		RateHistory: history,
	})
	require.NoError(t, err)

	require.Len(t, got.Technicians, 1)
	assert.Equal(t, 58.0+67.0, got.Technicians[0].MileagePay)
	assert.Equal(t, got.Technicians[0].BasePay+got.Technicians[0].MileagePay, got.Technicians[0].TotalPay)
}

func TestCalculateProfitShareReconciles(t *testing.T) {
	got, err := Calculate(Inputs{
		Job: JobFinancials{JobID: 11, BillingAmount: floatPtr(100)},
		Entries: []EntryInput{
			{EntryID: 110, TechID: 1, Hours: 1, DateWorked: day("2025-02-01")},
			{EntryID: 111, TechID: 2, Hours: 1, DateWorked: day("2025-02-01")},
			{EntryID: 112, TechID: 3, Hours: 1, DateWorked: day("2025-02-01")},
		},
		MinRates:    map[int64]float64{1: 0, 2: 0, 3: 0},
		RateHistory: standardHistory(),
	})
	require.NoError(t, err)
	require.Len(t, got.Technicians, 3)

	// 50.00 split three ways does not divide evenly; the rows must still
	// sum exactly to the reported total.
	sum := 0.0
	for _, row := range got.Technicians {
		sum += row.ProfitShare
	}
	assert.InDelta(t, got.Totals.TotalProfitShare, sum, 0.0001)
	assert.InDelta(t, 50.0, sum, 0.0001)
}

func TestCalculatePassThroughAmounts(t *testing.T) {
	got, err := Calculate(Inputs{
		Job: JobFinancials{JobID: 12, BillingAmount: floatPtr(500)},
		Entries: []EntryInput{
			{EntryID: 120, TechID: 1, Hours: 5, PerDiem: 75, PersonalExpenses: 42.50, DateWorked: day("2025-02-01")},
		},
		MinRates:    map[int64]float64{1: 10},
		RateHistory: standardHistory(),
	})
	require.NoError(t, err)

	row := got.Technicians[0]
	assert.Equal(t, 75.0, row.PerDiem)
	assert.Equal(t, 42.5, row.PersonalExpenses)
	assert.Equal(t, row.BasePay+row.PerDiem+row.PersonalExpenses, row.TotalPay)
	assert.Equal(t, 75.0, got.Totals.TotalPerDiem)
	assert.Equal(t, 42.5, got.Totals.TotalPersonalExpenses)
}
