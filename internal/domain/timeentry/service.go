package timeentry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"worktrack/internal/auth"
	"worktrack/internal/domain/audit"
)

// Meta carries request attribution into audit events.
type Meta struct {
	RequestID string
	IP        string
}

type Service struct {
	Store *Store
	Audit *audit.Service
}

func NewService(store *Store, auditSvc *audit.Service) *Service {
	return &Service{Store: store, Audit: auditSvc}
}

func (s *Service) Get(ctx context.Context, entryID int64) (Entry, error) {
	return s.Store.Get(ctx, entryID)
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]Entry, int, error) {
	total, err := s.Store.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	entries, err := s.Store.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// Create produces a draft entry. Hours follow the override rule: explicit
// hours beat a clock pair, a clock pair alone derives hours, neither
// leaves hours unset for later editing.
func (s *Service) Create(ctx context.Context, e Entry, actor auth.UserContext, meta Meta) (Entry, error) {
	if actor.Role == auth.RoleTechnician {
		// Technicians always log against themselves.
		e.TechID = actor.TechID
	}

	hours, err := ResolveHours(e.HoursWorked, e.TimeIn, e.TimeOut)
	if err != nil {
		return Entry{}, err
	}
	e.HoursWorked = hours
	e.Status = StatusDraft
	e.CreatedBy = actor.UserID

	id, err := s.Store.Create(ctx, e)
	if err != nil {
		return Entry{}, err
	}
	created, err := s.Store.Get(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	s.record(ctx, actor, ActionCreated, id, meta, nil, created)
	return created, nil
}

func (s *Service) Update(ctx context.Context, e Entry, actor auth.UserContext, meta Meta) (Entry, error) {
	current, err := s.Store.Get(ctx, e.ID)
	if err != nil {
		return Entry{}, err
	}
	if err := CanModify(current, actor); err != nil {
		return Entry{}, err
	}
	if actor.Role == auth.RoleTechnician {
		// Reassignment is a manager operation.
		e.TechID = current.TechID
		e.JobID = current.JobID
	}

	hours, err := ResolveHours(e.HoursWorked, e.TimeIn, e.TimeOut)
	if err != nil {
		return Entry{}, err
	}
	e.HoursWorked = hours
	e.UpdatedBy = actor.UserID

	if err := s.Store.Update(ctx, e); err != nil {
		return Entry{}, err
	}
	updated, err := s.Store.Get(ctx, e.ID)
	if err != nil {
		return Entry{}, err
	}
	s.record(ctx, actor, ActionUpdated, e.ID, meta, current, updated)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, entryID int64, actor auth.UserContext, meta Meta) error {
	current, err := s.Store.Get(ctx, entryID)
	if err != nil {
		return err
	}
	if err := CanModify(current, actor); err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, entryID); err != nil {
		return err
	}
	s.record(ctx, actor, ActionDeleted, entryID, meta, current, nil)
	return nil
}

// Submit moves draft→submitted. The store-level compare-and-swap repeats
// the status check so a raced second submit fails with ErrInvalidTransition
// even when both callers read draft.
func (s *Service) Submit(ctx context.Context, entryID int64, actor auth.UserContext, meta Meta) (Entry, error) {
	current, err := s.Store.Get(ctx, entryID)
	if err != nil {
		return Entry{}, err
	}
	if actor.Role == auth.RoleTechnician && current.TechID != actor.TechID {
		return Entry{}, ErrPermissionDenied
	}
	if err := CanSubmit(current); err != nil {
		return Entry{}, err
	}
	if err := s.Store.TransitionStatus(ctx, entryID, StatusDraft, StatusSubmitted, actor.UserID); err != nil {
		return Entry{}, err
	}
	s.record(ctx, actor, ActionSubmitted, entryID, meta,
		map[string]string{"status": current.Status}, map[string]string{"status": StatusSubmitted})
	return s.Store.Get(ctx, entryID)
}

func (s *Service) Verify(ctx context.Context, entryID int64, actor auth.UserContext, meta Meta) (Entry, error) {
	current, err := s.Store.Get(ctx, entryID)
	if err != nil {
		return Entry{}, err
	}
	if err := CanVerify(current, actor); err != nil {
		return Entry{}, err
	}
	if err := s.Store.MarkVerified(ctx, entryID, actor.UserID); err != nil {
		return Entry{}, err
	}
	s.record(ctx, actor, ActionVerified, entryID, meta,
		map[string]string{"status": current.Status},
		map[string]any{"status": StatusVerified, "verifiedBy": actor.UserID})
	return s.Store.Get(ctx, entryID)
}

func (s *Service) Reject(ctx context.Context, entryID int64, actor auth.UserContext, reason string, meta Meta) (Entry, error) {
	current, err := s.Store.Get(ctx, entryID)
	if err != nil {
		return Entry{}, err
	}
	if err := CanReject(current, actor, reason); err != nil {
		return Entry{}, err
	}
	if err := s.Store.MarkRejected(ctx, entryID, actor.UserID, reason); err != nil {
		return Entry{}, err
	}
	s.record(ctx, actor, ActionRejected, entryID, meta,
		map[string]string{"status": current.Status},
		map[string]string{"status": StatusDraft, "rejectionReason": reason})
	return s.Store.Get(ctx, entryID)
}

// BulkSubmit applies Submit to each id independently; partial success is
// the expected shape, never an all-or-nothing batch.
func (s *Service) BulkSubmit(ctx context.Context, entryIDs []int64, actor auth.UserContext, meta Meta) BulkOutcome {
	outcome := BulkOutcome{Succeeded: []int64{}, Errors: []BulkError{}}
	for _, id := range entryIDs {
		if _, err := s.Submit(ctx, id, actor, meta); err != nil {
			outcome.Errors = append(outcome.Errors, BulkError{EntryID: id, Reason: err.Error()})
			continue
		}
		outcome.Succeeded = append(outcome.Succeeded, id)
	}
	return outcome
}

func (s *Service) BulkVerify(ctx context.Context, entryIDs []int64, actor auth.UserContext, meta Meta) BulkOutcome {
	outcome := BulkOutcome{Succeeded: []int64{}, Errors: []BulkError{}}
	for _, id := range entryIDs {
		if _, err := s.Verify(ctx, id, actor, meta); err != nil {
			outcome.Errors = append(outcome.Errors, BulkError{EntryID: id, Reason: err.Error()})
			continue
		}
		outcome.Succeeded = append(outcome.Succeeded, id)
	}
	return outcome
}

// MarkPeriodBilled is invoked by the pay-period close workflow. Verified
// entries worked inside the period window move to billed and take the
// period id with them.
func (s *Service) MarkPeriodBilled(ctx context.Context, periodID int64, startDate, endDate time.Time, actor auth.UserContext, meta Meta) (int64, error) {
	if !actor.CanManage() {
		return 0, ErrPermissionDenied
	}
	moved, err := s.Store.BillPeriodEntries(ctx, periodID, startDate, endDate, actor.UserID)
	if err != nil {
		return 0, err
	}
	s.record(ctx, actor, ActionBilled, periodID, meta, nil, map[string]any{"periodId": periodID, "entries": moved})
	return moved, nil
}

func (s *Service) MarkPeriodPaid(ctx context.Context, periodID int64, actor auth.UserContext, meta Meta) (int64, error) {
	if !actor.CanManage() {
		return 0, ErrPermissionDenied
	}
	moved, err := s.Store.MarkPeriodEntries(ctx, periodID, StatusBilled, StatusPaid, actor.UserID)
	if err != nil {
		return 0, err
	}
	s.record(ctx, actor, ActionPaid, periodID, meta, nil, map[string]any{"periodId": periodID, "entries": moved})
	return moved, nil
}

func (s *Service) record(ctx context.Context, actor auth.UserContext, action string, entityID int64, meta Meta, before, after any) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.Record(ctx, actor.UserID, action, "time_entry", entityID, meta.RequestID, meta.IP, before, after); err != nil {
		slog.Warn("audit record failed", "action", action, "entryId", entityID, "err", err)
	}
}

// IsConflict distinguishes a lost compare-and-swap from other failures.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}
