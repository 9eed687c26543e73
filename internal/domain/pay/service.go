package pay

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"worktrack/internal/domain/core"
	"worktrack/internal/domain/rates"
	"worktrack/internal/domain/timeentry"
	"worktrack/internal/platform/metrics"
)

// JobSource supplies job financials.
type JobSource interface {
	GetJob(ctx context.Context, jobID int64) (core.Job, error)
}

// EntrySource supplies payable time entries.
type EntrySource interface {
	ListForJob(ctx context.Context, jobID int64, statuses []string) ([]timeentry.Entry, error)
	JobIDsInRange(ctx context.Context, from, to time.Time, techID int64, statuses []string) ([]int64, error)
}

// TechSource supplies minimum hourly rates and display names.
type TechSource interface {
	MinimumRates(ctx context.Context, techIDs []int64) (map[int64]float64, map[int64]string, error)
}

// RateSource supplies the mileage rate history.
type RateSource interface {
	List(ctx context.Context) (rates.History, error)
}

// Service assembles calculation inputs from storage and runs the engine.
// Every call recomputes from current data; nothing is persisted or cached.
type Service struct {
	Jobs    JobSource
	Entries EntrySource
	Techs   TechSource
	Rates   RateSource
	Metrics *metrics.Collector
}

// CalculateJobPay builds the input snapshot for one job and runs Calculate
// over its payable entries (verified, billed, paid). Cancelled jobs are
// rejected rather than paid out.
func (s *Service) CalculateJobPay(ctx context.Context, jobID int64) (Breakdown, error) {
	job, err := s.Jobs.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return Breakdown{}, fmt.Errorf("job %d: %w", jobID, ErrJobNotFound)
		}
		return Breakdown{}, fmt.Errorf("load job %d: %w", jobID, err)
	}
	if job.Status == core.JobStatusCancelled {
		return Breakdown{}, fmt.Errorf("job %d: %w", jobID, ErrJobCancelled)
	}

	in, err := s.buildInputs(ctx, job)
	if err != nil {
		return Breakdown{}, err
	}

	breakdown, err := Calculate(in)
	if err != nil {
		return Breakdown{}, err
	}
	if s.Metrics != nil {
		s.Metrics.RecordPayCalculation()
	}
	return breakdown, nil
}

// TechPaySummary rolls one technician's pay up across every job they have
// payable entries on in the date range. Each job is calculated with all of
// its technicians so proportional allocation stays correct, then this
// technician's row is extracted.
func (s *Service) TechPaySummary(ctx context.Context, techID int64, from, to time.Time) (TechSummary, error) {
	jobIDs, err := s.Entries.JobIDsInRange(ctx, from, to, techID, timeentry.PayableStatuses)
	if err != nil {
		return TechSummary{}, fmt.Errorf("list jobs for tech %d: %w", techID, err)
	}

	summary := TechSummary{TechID: techID}

	for _, jobID := range jobIDs {
		job, err := s.Jobs.GetJob(ctx, jobID)
		if err != nil {
			return TechSummary{}, fmt.Errorf("load job %d: %w", jobID, err)
		}
		if job.Status == core.JobStatusCancelled {
			continue
		}

		in, err := s.buildInputs(ctx, job)
		if err != nil {
			return TechSummary{}, err
		}

		breakdown, err := Calculate(in)
		if err != nil {
			if errors.Is(err, ErrIncompleteJobData) {
				// Jobs without billing can't be paid yet; report, don't fail
				// the whole summary.
				summary.Warnings = append(summary.Warnings, Warning{
					Code:    WarnIncompleteJob,
					Message: fmt.Sprintf("job %d has no billing amount and was skipped", jobID),
				})
				continue
			}
			return TechSummary{}, err
		}
		summary.Warnings = append(summary.Warnings, breakdown.Warnings...)

		row, ok := findTechRow(breakdown, techID)
		if !ok {
			continue
		}
		if summary.TechName == "" {
			summary.TechName = row.TechName
		}

		first, last := workedWindow(in.Entries, techID)
		summary.Jobs = append(summary.Jobs, JobPayLine{
			JobID:        jobID,
			TicketNumber: job.TicketNumber,
			Description:  job.Description,
			FirstWorked:  first,
			LastWorked:   last,
			Pay:          row,
		})

		summary.Totals.TotalHours += row.Hours
		summary.Totals.TotalBasePay += row.BasePay
		summary.Totals.TotalMileagePay += row.MileagePay
		summary.Totals.TotalPerDiem += row.PerDiem
		summary.Totals.TotalPersonalExpenses += row.PersonalExpenses
		summary.Totals.TotalProfitShare += row.ProfitShare
		summary.Totals.TotalPay += row.TotalPay
	}

	sort.Slice(summary.Jobs, func(i, j int) bool {
		if !summary.Jobs[i].FirstWorked.Equal(summary.Jobs[j].FirstWorked) {
			return summary.Jobs[i].FirstWorked.Before(summary.Jobs[j].FirstWorked)
		}
		return summary.Jobs[i].JobID < summary.Jobs[j].JobID
	})
	summary.Totals = roundTotals(summary.Totals)

	if s.Metrics != nil {
		s.Metrics.RecordPayCalculation()
	}
	return summary, nil
}

func (s *Service) buildInputs(ctx context.Context, job core.Job) (Inputs, error) {
	entries, err := s.Entries.ListForJob(ctx, job.ID, timeentry.PayableStatuses)
	if err != nil {
		return Inputs{}, fmt.Errorf("load entries for job %d: %w", job.ID, err)
	}

	in := Inputs{
		Job: JobFinancials{
			JobID:         job.ID,
			TicketNumber:  job.TicketNumber,
			Description:   job.Description,
			BillingAmount: job.BillingAmount,
			Expenses:      job.Expenses,
			Commissions:   job.Commissions,
			Cancelled:     job.Status == core.JobStatusCancelled,
		},
	}

	techIDSet := map[int64]struct{}{}
	for _, entry := range entries {
		in.Entries = append(in.Entries, EntryInput{
			EntryID:          entry.ID,
			TechID:           entry.TechID,
			DateWorked:       entry.DateWorked,
			Hours:            entry.Hours(),
			Mileage:          entry.Mileage,
			PerDiem:          entry.PerDiem,
			PersonalExpenses: entry.PersonalExpenses,
		})
		if entry.TechID != 0 {
			techIDSet[entry.TechID] = struct{}{}
		}
	}

	techIDs := make([]int64, 0, len(techIDSet))
	for id := range techIDSet {
		techIDs = append(techIDs, id)
	}
	minRates, names, err := s.Techs.MinimumRates(ctx, techIDs)
	if err != nil {
		return Inputs{}, fmt.Errorf("load technician rates: %w", err)
	}
	in.MinRates = minRates
	in.TechNames = names

	history, err := s.Rates.List(ctx)
	if err != nil {
		return Inputs{}, fmt.Errorf("load mileage rates: %w", err)
	}
	in.RateHistory = history.Normalize()

	return in, nil
}

func findTechRow(breakdown Breakdown, techID int64) (TechPay, bool) {
	for _, row := range breakdown.Technicians {
		if row.TechID == techID {
			return row, true
		}
	}
	return TechPay{}, false
}

func workedWindow(entries []EntryInput, techID int64) (time.Time, time.Time) {
	var first, last time.Time
	for _, entry := range entries {
		if entry.TechID != techID {
			continue
		}
		if first.IsZero() || entry.DateWorked.Before(first) {
			first = entry.DateWorked
		}
		if last.IsZero() || entry.DateWorked.After(last) {
			last = entry.DateWorked
		}
	}
	return first, last
}
