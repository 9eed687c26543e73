package pay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktrack/internal/domain/core"
	"worktrack/internal/domain/rates"
	"worktrack/internal/domain/timeentry"
)

type fakeSources struct {
	jobs    map[int64]core.Job
	entries map[int64][]timeentry.Entry
	rates   map[int64]float64
	names   map[int64]string
	history rates.History
}

func (f *fakeSources) GetJob(_ context.Context, jobID int64) (core.Job, error) {
	job, ok := f.jobs[jobID]
	if !ok {
		return core.Job{}, core.ErrNotFound
	}
	return job, nil
}

func (f *fakeSources) ListForJob(_ context.Context, jobID int64, statuses []string) ([]timeentry.Entry, error) {
	allowed := map[string]bool{}
	for _, s := range statuses {
		allowed[s] = true
	}
	var out []timeentry.Entry
	for _, e := range f.entries[jobID] {
		if allowed[e.Status] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeSources) JobIDsInRange(_ context.Context, from, to time.Time, techID int64, statuses []string) ([]int64, error) {
	allowed := map[string]bool{}
	for _, s := range statuses {
		allowed[s] = true
	}
	seen := map[int64]bool{}
	var out []int64
	for jobID, entries := range f.entries {
		for _, e := range entries {
			if e.TechID != techID || !allowed[e.Status] || seen[jobID] {
				continue
			}
			if e.DateWorked.Before(from) || e.DateWorked.After(to) {
				continue
			}
			seen[jobID] = true
			out = append(out, jobID)
		}
	}
	return out, nil
}

func (f *fakeSources) MinimumRates(_ context.Context, techIDs []int64) (map[int64]float64, map[int64]string, error) {
	return f.rates, f.names, nil
}

func (f *fakeSources) List(_ context.Context) (rates.History, error) {
	return f.history, nil
}

func newService(f *fakeSources) *Service {
	return &Service{Jobs: f, Entries: f, Techs: f, Rates: f}
}

func verifiedEntry(id, jobID, techID int64, date string, hours float64) timeentry.Entry {
	h := hours
	return timeentry.Entry{
		ID:          id,
		JobID:       jobID,
		TechID:      techID,
		DateWorked:  day(date),
		HoursWorked: &h,
		Status:      timeentry.StatusVerified,
	}
}

func TestServiceCalculateJobPay(t *testing.T) {
	f := &fakeSources{
		jobs: map[int64]core.Job{
			1: {ID: 1, Status: core.JobStatusCompleted, BillingAmount: floatPtr(1000), Expenses: 100},
		},
		entries: map[int64][]timeentry.Entry{
			1: {
				verifiedEntry(10, 1, 7, "2025-03-03", 10),
				// Draft entries are never payable.
				{ID: 11, JobID: 1, TechID: 7, DateWorked: day("2025-03-04"), HoursWorked: floatPtr(5), Status: timeentry.StatusDraft},
			},
		},
		rates:   map[int64]float64{7: 20},
		names:   map[int64]string{7: "Avery Cole"},
		history: standardHistory(),
	}

	got, err := newService(f).CalculateJobPay(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, got.Technicians, 1)
	assert.Equal(t, 10.0, got.Technicians[0].Hours)
	assert.Equal(t, 450.0, got.Technicians[0].BasePay)
}

func TestServiceCalculateJobPayNotFound(t *testing.T) {
	_, err := newService(&fakeSources{jobs: map[int64]core.Job{}}).CalculateJobPay(context.Background(), 99)
	require.ErrorIs(t, err, ErrJobNotFound)
}

func TestServiceCalculateJobPayCancelled(t *testing.T) {
	f := &fakeSources{
		jobs: map[int64]core.Job{
			1: {ID: 1, Status: core.JobStatusCancelled, BillingAmount: floatPtr(1000)},
		},
	}
	_, err := newService(f).CalculateJobPay(context.Background(), 1)
	require.ErrorIs(t, err, ErrJobCancelled)
}

func TestServiceTechPaySummary(t *testing.T) {
	f := &fakeSources{
		jobs: map[int64]core.Job{
			1: {ID: 1, Status: core.JobStatusCompleted, BillingAmount: floatPtr(1000), Expenses: 100, TicketNumber: "T-1"},
			2: {ID: 2, Status: core.JobStatusCompleted, BillingAmount: floatPtr(400), TicketNumber: "T-2"},
			3: {ID: 3, Status: core.JobStatusCompleted, TicketNumber: "T-3"}, // no billing yet
		},
		entries: map[int64][]timeentry.Entry{
			1: {
				verifiedEntry(10, 1, 7, "2025-03-03", 8),
				verifiedEntry(11, 1, 8, "2025-03-03", 2),
			},
			2: {verifiedEntry(20, 2, 7, "2025-03-10", 4)},
			3: {verifiedEntry(30, 3, 7, "2025-03-12", 3)},
		},
		rates:   map[int64]float64{7: 20, 8: 20},
		names:   map[int64]string{7: "Avery Cole", 8: "Jordan Blake"},
		history: standardHistory(),
	}

	got, err := newService(f).TechPaySummary(context.Background(), 7, day("2025-03-01"), day("2025-03-31"))
	require.NoError(t, err)

	assert.Equal(t, "Avery Cole", got.TechName)
	require.Len(t, got.Jobs, 2)
	// Jobs come back ordered by first worked date.
	assert.Equal(t, int64(1), got.Jobs[0].JobID)
	assert.Equal(t, int64(2), got.Jobs[1].JobID)

	// Job 1: pool 450, 8 of 10 hours -> 360. Job 2: pool 200, sole tech.
	assert.Equal(t, 360.0, got.Jobs[0].Pay.BasePay)
	assert.Equal(t, 200.0, got.Jobs[1].Pay.BasePay)
	assert.Equal(t, 12.0, got.Totals.TotalHours)
	assert.Equal(t, 560.0, got.Totals.TotalBasePay)

	require.Len(t, got.Warnings, 1)
	assert.Equal(t, WarnIncompleteJob, got.Warnings[0].Code)
}
