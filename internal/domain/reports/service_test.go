package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktrack/internal/domain/timeentry"
)

// fakeAggregates records the status set each query was called with.
type fakeAggregates struct {
	hoursStatuses    []string
	hoursTechID      int64
	platformStatuses []string
	hoursRows        []HoursRow
	platformRows     []PlatformSummaryRow
}

func (f *fakeAggregates) HoursRows(_ context.Context, _, _ time.Time, techID int64, statuses []string) ([]HoursRow, error) {
	f.hoursTechID = techID
	f.hoursStatuses = statuses
	return f.hoursRows, nil
}

func (f *fakeAggregates) BillingLines(_ context.Context, _, _ time.Time, statuses []string) ([]BillingLine, error) {
	return nil, nil
}

func (f *fakeAggregates) PlatformSummary(_ context.Context, _, _ time.Time, statuses []string) ([]PlatformSummaryRow, error) {
	f.platformStatuses = statuses
	return f.platformRows, nil
}

func TestPlatformSummaryCountsOnlyPayableHours(t *testing.T) {
	store := &fakeAggregates{
		platformRows: []PlatformSummaryRow{{PlatformID: 1, PlatformName: "WorkMarket", JobCount: 3}},
	}
	svc := &Service{Store: store}

	rows, err := svc.PlatformSummary(context.Background(), day("2025-03-01"), day("2025-03-31"))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// Draft and submitted hours never count toward platform totals.
	assert.Equal(t, timeentry.PayableStatuses, store.platformStatuses)
}

func TestTechnicianHoursCoversAllStatuses(t *testing.T) {
	store := &fakeAggregates{
		hoursRows: []HoursRow{
			{TechID: 7, TechName: "Avery Cole", JobID: 1, DateWorked: day("2025-03-03"), Hours: 4},
		},
	}
	svc := &Service{Store: store}

	report, err := svc.TechnicianHours(context.Background(), day("2025-03-01"), day("2025-03-31"), 7)
	require.NoError(t, err)
	require.Len(t, report.Technicians, 1)
	assert.Equal(t, 4.0, report.TotalHours)

	assert.Equal(t, int64(7), store.hoursTechID)
	// Unlike the pay surfaces, logged hours report regardless of status.
	assert.Nil(t, store.hoursStatuses)
}
