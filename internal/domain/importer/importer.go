package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"worktrack/internal/domain/core"
	"worktrack/internal/domain/timeentry"
)

// WorkOrder is one job candidate from an external platform feed, with its
// time entry candidates attached. Technician references may be missing;
// such entries import unassigned and stay in draft.
type WorkOrder struct {
	PlatformName  string           `json:"platformName"`
	PlatformCode  string           `json:"platformCode"`
	ExternalURL   string           `json:"externalUrl,omitempty"`
	TicketNumber  string           `json:"ticketNumber,omitempty"`
	Description   string           `json:"description"`
	ClientName    string           `json:"clientName,omitempty"`
	Location      string           `json:"location,omitempty"`
	BillingAmount *float64         `json:"billingAmount,omitempty"`
	JobDate       *time.Time       `json:"jobDate,omitempty"`
	Entries       []EntryCandidate `json:"entries,omitempty"`
}

type EntryCandidate struct {
	TechID           int64     `json:"techId,omitempty"`
	DateWorked       time.Time `json:"dateWorked"`
	TimeIn           string    `json:"timeIn,omitempty"`
	TimeOut          string    `json:"timeOut,omitempty"`
	HoursWorked      *float64  `json:"hoursWorked,omitempty"`
	Mileage          float64   `json:"mileage,omitempty"`
	PerDiem          float64   `json:"perDiem,omitempty"`
	PersonalExpenses float64   `json:"personalExpenses,omitempty"`
	Notes            string    `json:"notes,omitempty"`
}

// Result carries per-item counts. Imports never abort on a single bad
// work order; failures land in Errors alongside the successful counts.
type Result struct {
	JobsCreated    int         `json:"jobsCreated"`
	JobsMatched    int         `json:"jobsMatched"`
	EntriesCreated int         `json:"entriesCreated"`
	EntriesSkipped int         `json:"entriesSkipped"`
	Errors         []ItemError `json:"errors,omitempty"`
}

type ItemError struct {
	Index   int    `json:"index"`
	Ticket  string `json:"ticket,omitempty"`
	Message string `json:"message"`
}

// JobMatcher is the job-side storage the importer needs: dedup lookups
// and creation. The find methods report a miss with core.ErrNotFound.
type JobMatcher interface {
	FindOrCreatePlatform(ctx context.Context, name, code string) (int64, error)
	FindJobByExternalURL(ctx context.Context, url string) (int64, error)
	FindJobByTicketNumber(ctx context.Context, ticket string) (int64, error)
	CreateJob(ctx context.Context, job core.Job, createdBy int64) (int64, error)
}

// EntryWriter is the entry-side storage: duplicate detection and insert.
// FindDuplicate must treat unset hours as a matchable value, not as
// never-equal, so feeds without hours import idempotently.
type EntryWriter interface {
	FindDuplicate(ctx context.Context, jobID int64, dateWorked time.Time, hours *float64) (bool, error)
	Create(ctx context.Context, e timeentry.Entry) (int64, error)
}

// Service imports work order batches idempotently. Jobs match on external
// URL first, then ticket number; entries match on (job, date, hours). A
// re-run of the same feed creates nothing new.
type Service struct {
	Jobs     JobMatcher
	Entries  EntryWriter
	MaxBatch int
}

func (s *Service) Import(ctx context.Context, batch []WorkOrder, actorID int64) (Result, error) {
	if s.MaxBatch > 0 && len(batch) > s.MaxBatch {
		return Result{}, fmt.Errorf("batch of %d exceeds limit of %d work orders", len(batch), s.MaxBatch)
	}

	var result Result
	for i, order := range batch {
		if err := s.importOne(ctx, order, actorID, &result); err != nil {
			slog.Warn("work order import failed", "index", i, "ticket", order.TicketNumber, "error", err)
			result.Errors = append(result.Errors, ItemError{
				Index:   i,
				Ticket:  order.TicketNumber,
				Message: err.Error(),
			})
		}
	}
	return result, nil
}

func (s *Service) importOne(ctx context.Context, order WorkOrder, actorID int64, result *Result) error {
	if order.Description == "" && order.TicketNumber == "" {
		return fmt.Errorf("work order has neither description nor ticket number")
	}

	jobID, matched, err := s.matchOrCreateJob(ctx, order, actorID)
	if err != nil {
		return err
	}
	if matched {
		result.JobsMatched++
	} else {
		result.JobsCreated++
	}

	for _, candidate := range order.Entries {
		created, err := s.importEntry(ctx, jobID, candidate, actorID)
		if err != nil {
			return fmt.Errorf("entry on %s: %w", candidate.DateWorked.Format("2006-01-02"), err)
		}
		if created {
			result.EntriesCreated++
		} else {
			result.EntriesSkipped++
		}
	}
	return nil
}

func (s *Service) matchOrCreateJob(ctx context.Context, order WorkOrder, actorID int64) (int64, bool, error) {
	if order.ExternalURL != "" {
		jobID, err := s.Jobs.FindJobByExternalURL(ctx, order.ExternalURL)
		if err == nil {
			return jobID, true, nil
		}
		if !errors.Is(err, core.ErrNotFound) {
			return 0, false, fmt.Errorf("match by url: %w", err)
		}
	}
	if order.TicketNumber != "" {
		jobID, err := s.Jobs.FindJobByTicketNumber(ctx, order.TicketNumber)
		if err == nil {
			return jobID, true, nil
		}
		if !errors.Is(err, core.ErrNotFound) {
			return 0, false, fmt.Errorf("match by ticket: %w", err)
		}
	}

	platformID, err := s.Jobs.FindOrCreatePlatform(ctx, order.PlatformName, order.PlatformCode)
	if err != nil {
		return 0, false, fmt.Errorf("resolve platform: %w", err)
	}
	jobID, err := s.Jobs.CreateJob(ctx, core.Job{
		PlatformID:    platformID,
		TicketNumber:  order.TicketNumber,
		Description:   order.Description,
		ClientName:    order.ClientName,
		Location:      order.Location,
		BillingType:   core.BillingFlatRate,
		BillingAmount: order.BillingAmount,
		Status:        core.JobStatusPending,
		JobDate:       order.JobDate,
		ExternalURL:   order.ExternalURL,
	}, actorID)
	if err != nil {
		return 0, false, fmt.Errorf("create job: %w", err)
	}
	return jobID, false, nil
}

func (s *Service) importEntry(ctx context.Context, jobID int64, candidate EntryCandidate, actorID int64) (bool, error) {
	hours, err := timeentry.ResolveHours(candidate.HoursWorked, candidate.TimeIn, candidate.TimeOut)
	if err != nil {
		return false, err
	}

	exists, err := s.Entries.FindDuplicate(ctx, jobID, candidate.DateWorked, hours)
	if err != nil {
		return false, fmt.Errorf("duplicate check: %w", err)
	}
	if exists {
		return false, nil
	}

	_, err = s.Entries.Create(ctx, timeentry.Entry{
		JobID:            jobID,
		TechID:           candidate.TechID,
		DateWorked:       candidate.DateWorked,
		TimeIn:           candidate.TimeIn,
		TimeOut:          candidate.TimeOut,
		HoursWorked:      hours,
		Mileage:          candidate.Mileage,
		PerDiem:          candidate.PerDiem,
		PersonalExpenses: candidate.PersonalExpenses,
		Notes:            candidate.Notes,
		Status:           timeentry.StatusDraft,
		CreatedBy:        actorID,
	})
	if err != nil {
		return false, fmt.Errorf("create entry: %w", err)
	}
	return true, nil
}
