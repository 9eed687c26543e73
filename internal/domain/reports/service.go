package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"worktrack/internal/domain/core"
	"worktrack/internal/domain/pay"
	"worktrack/internal/domain/timeentry"
)

// AggregateStore runs the grouped queries the report builders feed on.
type AggregateStore interface {
	HoursRows(ctx context.Context, from, to time.Time, techID int64, statuses []string) ([]HoursRow, error)
	BillingLines(ctx context.Context, from, to time.Time, statuses []string) ([]BillingLine, error)
	PlatformSummary(ctx context.Context, from, to time.Time, statuses []string) ([]PlatformSummaryRow, error)
}

// Service builds the reporting surfaces on top of the pay engine and the
// aggregate store. Reports are computed on demand from current data.
type Service struct {
	Pay     *pay.Service
	Jobs    pay.JobSource
	Entries pay.EntrySource
	Store   AggregateStore
}

// Payroll calculates every job with payable entries in the range and
// pivots the results into per-technician blocks.
func (s *Service) Payroll(ctx context.Context, from, to time.Time) (PayrollReport, error) {
	jobIDs, err := s.Entries.JobIDsInRange(ctx, from, to, 0, timeentry.PayableStatuses)
	if err != nil {
		return PayrollReport{}, fmt.Errorf("list jobs in range: %w", err)
	}

	var results []JobResult
	var skipped []pay.Warning

	for _, jobID := range jobIDs {
		job, err := s.Jobs.GetJob(ctx, jobID)
		if err != nil {
			return PayrollReport{}, fmt.Errorf("load job %d: %w", jobID, err)
		}
		if job.Status == core.JobStatusCancelled {
			continue
		}

		breakdown, err := s.Pay.CalculateJobPay(ctx, jobID)
		if err != nil {
			if errors.Is(err, pay.ErrIncompleteJobData) {
				skipped = append(skipped, pay.Warning{
					Code:    pay.WarnIncompleteJob,
					Message: fmt.Sprintf("job %d has no billing amount and was skipped", jobID),
				})
				continue
			}
			return PayrollReport{}, err
		}

		windows, err := s.techWindows(ctx, jobID)
		if err != nil {
			return PayrollReport{}, err
		}

		results = append(results, JobResult{
			JobID:        jobID,
			TicketNumber: job.TicketNumber,
			Description:  job.Description,
			Breakdown:    breakdown,
			Windows:      windows,
		})
	}

	report := BuildPayroll(from, to, results)
	report.Warnings = append(report.Warnings, skipped...)
	return report, nil
}

// JobBilling lists per-job net, hours and technician cost for the range.
func (s *Service) JobBilling(ctx context.Context, from, to time.Time) (BillingReport, error) {
	lines, err := s.Store.BillingLines(ctx, from, to, timeentry.PayableStatuses)
	if err != nil {
		return BillingReport{}, err
	}

	for i, line := range lines {
		if line.BillingAmount == nil {
			// BuildBilling flags the line as not calculable.
			continue
		}
		lines[i].JobNet = round2(*line.BillingAmount - line.Expenses - line.Commissions)

		breakdown, err := s.Pay.CalculateJobPay(ctx, line.JobID)
		if err != nil {
			if errors.Is(err, pay.ErrIncompleteJobData) || errors.Is(err, pay.ErrJobCancelled) {
				continue
			}
			return BillingReport{}, err
		}
		lines[i].TechPay = breakdown.Totals.TotalPay
	}

	return BuildBilling(from, to, lines), nil
}

// TechnicianHours rolls hours up by day, week and job across every
// status, so the report reflects logged work whether or not it has been
// verified yet. techID 0 covers all technicians.
func (s *Service) TechnicianHours(ctx context.Context, from, to time.Time, techID int64) (HoursReport, error) {
	rows, err := s.Store.HoursRows(ctx, from, to, techID, nil)
	if err != nil {
		return HoursReport{}, err
	}
	return BuildHours(from, to, rows), nil
}

// PlatformSummary aggregates job volume, billing and payable hours per
// platform.
func (s *Service) PlatformSummary(ctx context.Context, from, to time.Time) ([]PlatformSummaryRow, error) {
	return s.Store.PlatformSummary(ctx, from, to, timeentry.PayableStatuses)
}

func (s *Service) techWindows(ctx context.Context, jobID int64) (map[int64][2]time.Time, error) {
	entries, err := s.Entries.ListForJob(ctx, jobID, timeentry.PayableStatuses)
	if err != nil {
		return nil, fmt.Errorf("load entries for job %d: %w", jobID, err)
	}

	windows := map[int64][2]time.Time{}
	for _, entry := range entries {
		if entry.TechID == 0 {
			continue
		}
		window, ok := windows[entry.TechID]
		if !ok {
			windows[entry.TechID] = [2]time.Time{entry.DateWorked, entry.DateWorked}
			continue
		}
		if entry.DateWorked.Before(window[0]) {
			window[0] = entry.DateWorked
		}
		if entry.DateWorked.After(window[1]) {
			window[1] = entry.DateWorked
		}
		windows[entry.TechID] = window
	}
	return windows, nil
}
