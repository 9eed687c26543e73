package importer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktrack/internal/domain/core"
	"worktrack/internal/domain/timeentry"
)

// entryKey mirrors the store's dedup key, where unset hours are a value
// that matches another unset hours, never a zero.
type entryKey struct {
	jobID    int64
	date     string
	hours    float64
	hasHours bool
}

func keyFor(jobID int64, date time.Time, hours *float64) entryKey {
	key := entryKey{jobID: jobID, date: date.Format("2006-01-02")}
	if hours != nil {
		key.hours = *hours
		key.hasHours = true
	}
	return key
}

type fakeStore struct {
	nextJobID  int64
	byURL      map[string]int64
	byTicket   map[string]int64
	jobs       map[int64]core.Job
	entries    map[entryKey]bool
	created    []timeentry.Entry
	platformID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextJobID:  100,
		byURL:      map[string]int64{},
		byTicket:   map[string]int64{},
		jobs:       map[int64]core.Job{},
		entries:    map[entryKey]bool{},
		platformID: 1,
	}
}

func (f *fakeStore) FindOrCreatePlatform(context.Context, string, string) (int64, error) {
	return f.platformID, nil
}

func (f *fakeStore) FindJobByExternalURL(_ context.Context, url string) (int64, error) {
	if id, ok := f.byURL[url]; ok {
		return id, nil
	}
	return 0, core.ErrNotFound
}

func (f *fakeStore) FindJobByTicketNumber(_ context.Context, ticket string) (int64, error) {
	if id, ok := f.byTicket[ticket]; ok {
		return id, nil
	}
	return 0, core.ErrNotFound
}

func (f *fakeStore) CreateJob(_ context.Context, job core.Job, _ int64) (int64, error) {
	f.nextJobID++
	job.ID = f.nextJobID
	f.jobs[job.ID] = job
	if job.ExternalURL != "" {
		f.byURL[job.ExternalURL] = job.ID
	}
	if job.TicketNumber != "" {
		f.byTicket[job.TicketNumber] = job.ID
	}
	return job.ID, nil
}

func (f *fakeStore) FindDuplicate(_ context.Context, jobID int64, date time.Time, hours *float64) (bool, error) {
	return f.entries[keyFor(jobID, date, hours)], nil
}

func (f *fakeStore) Create(_ context.Context, e timeentry.Entry) (int64, error) {
	f.entries[keyFor(e.JobID, e.DateWorked, e.HoursWorked)] = true
	f.created = append(f.created, e)
	return int64(len(f.created)), nil
}

func day(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func floatPtr(v float64) *float64 { return &v }

func sampleOrder() WorkOrder {
	return WorkOrder{
		PlatformName:  "WorkMarket",
		PlatformCode:  "WM",
		ExternalURL:   "https://example.com/wo/555",
		TicketNumber:  "WO-555",
		Description:   "Replace POS terminal",
		BillingAmount: floatPtr(450),
		Entries: []EntryCandidate{
			{TechID: 7, DateWorked: day("2025-03-03"), HoursWorked: floatPtr(4)},
			{DateWorked: day("2025-03-04"), TimeIn: "08:00", TimeOut: "12:30"},
		},
	}
}

func TestImportCreatesJobAndEntries(t *testing.T) {
	store := newFakeStore()
	svc := &Service{Jobs: store, Entries: store}

	result, err := svc.Import(context.Background(), []WorkOrder{sampleOrder()}, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, result.JobsCreated)
	assert.Equal(t, 0, result.JobsMatched)
	assert.Equal(t, 2, result.EntriesCreated)
	assert.Empty(t, result.Errors)

	require.Len(t, store.created, 2)
	assert.Equal(t, timeentry.StatusDraft, store.created[0].Status)
	// Clock times resolve to hours when none were given.
	assert.Equal(t, 4.5, store.created[1].Hours())
	// The unassigned entry imports with no technician.
	assert.False(t, store.created[1].Assigned())
}

func TestImportIsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := &Service{Jobs: store, Entries: store}

	_, err := svc.Import(context.Background(), []WorkOrder{sampleOrder()}, 1)
	require.NoError(t, err)

	result, err := svc.Import(context.Background(), []WorkOrder{sampleOrder()}, 1)
	require.NoError(t, err)

	assert.Equal(t, 0, result.JobsCreated)
	assert.Equal(t, 1, result.JobsMatched)
	assert.Equal(t, 0, result.EntriesCreated)
	assert.Equal(t, 2, result.EntriesSkipped)
	assert.Len(t, store.created, 2)
}

func TestImportNilHoursIsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := &Service{Jobs: store, Entries: store}

	// Neither explicit hours nor a clock pair: the entry imports with
	// hours unset and must still dedup on a re-run.
	order := sampleOrder()
	order.Entries = []EntryCandidate{{DateWorked: day("2025-03-05")}}

	first, err := svc.Import(context.Background(), []WorkOrder{order}, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, first.EntriesCreated)
	require.Len(t, store.created, 1)
	assert.Nil(t, store.created[0].HoursWorked)

	second, err := svc.Import(context.Background(), []WorkOrder{order}, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, second.EntriesCreated)
	assert.Equal(t, 1, second.EntriesSkipped)
	assert.Len(t, store.created, 1)
}

func TestImportMatchesByTicketWhenURLMissing(t *testing.T) {
	store := newFakeStore()
	store.byTicket["WO-555"] = 42

	order := sampleOrder()
	order.ExternalURL = ""
	order.Entries = nil

	svc := &Service{Jobs: store, Entries: store}
	result, err := svc.Import(context.Background(), []WorkOrder{order}, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, result.JobsMatched)
	assert.Equal(t, 0, result.JobsCreated)
}

func TestImportCollectsPerItemErrors(t *testing.T) {
	store := newFakeStore()
	svc := &Service{Jobs: store, Entries: store}

	bad := WorkOrder{PlatformName: "WorkMarket"} // no description, no ticket
	result, err := svc.Import(context.Background(), []WorkOrder{bad, sampleOrder()}, 1)
	require.NoError(t, err)

	// The bad item fails alone; the good one still imports.
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 0, result.Errors[0].Index)
	assert.Equal(t, 1, result.JobsCreated)
	assert.Equal(t, 2, result.EntriesCreated)
}

func TestImportEnforcesBatchLimit(t *testing.T) {
	svc := &Service{Jobs: newFakeStore(), Entries: newFakeStore(), MaxBatch: 1}
	_, err := svc.Import(context.Background(), []WorkOrder{sampleOrder(), sampleOrder()}, 1)
	require.Error(t, err)
}
