package timeentry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const entryColumns = `id, job_id, COALESCE(tech_id, 0), COALESCE(period_id, 0), date_worked,
    COALESCE(time_in, ''), COALESCE(time_out, ''), hours_worked, COALESCE(mileage, 0),
    COALESCE(per_diem, 0), COALESCE(personal_expenses, 0), status, COALESCE(notes, ''),
    COALESCE(rejection_reason, ''), COALESCE(verified_by, 0), verified_at,
    COALESCE(created_by, 0), COALESCE(updated_by, 0), created_at`

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.JobID, &e.TechID, &e.PeriodID, &e.DateWorked, &e.TimeIn, &e.TimeOut,
		&e.HoursWorked, &e.Mileage, &e.PerDiem, &e.PersonalExpenses, &e.Status, &e.Notes,
		&e.RejectionReason, &e.VerifiedBy, &e.VerifiedAt, &e.CreatedBy, &e.UpdatedBy, &e.CreatedAt)
	return e, err
}

func (s *Store) Get(ctx context.Context, entryID int64) (Entry, error) {
	entry, err := scanEntry(s.DB.QueryRow(ctx, "SELECT "+entryColumns+" FROM time_entries WHERE id = $1", entryID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return entry, err
}

func (s *Store) Count(ctx context.Context, filter Filter) (int, error) {
	query, args := buildFilter("SELECT COUNT(1) FROM time_entries WHERE 1=1", filter)
	var total int
	err := s.DB.QueryRow(ctx, query, args...).Scan(&total)
	return total, err
}

func (s *Store) List(ctx context.Context, filter Filter, limit, offset int) ([]Entry, error) {
	query, args := buildFilter("SELECT "+entryColumns+" FROM time_entries WHERE 1=1", filter)
	query += fmt.Sprintf(" ORDER BY date_worked DESC, id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	return s.queryEntries(ctx, query, args...)
}

// ListForJob returns a job's entries whose status is in the given set,
// the snapshot the pay engine computes over.
func (s *Store) ListForJob(ctx context.Context, jobID int64, statuses []string) ([]Entry, error) {
	return s.queryEntries(ctx, `
    SELECT `+entryColumns+`
    FROM time_entries
    WHERE job_id = $1 AND status = ANY($2)
    ORDER BY date_worked, id
  `, jobID, statuses)
}

// JobIDsInRange returns the distinct jobs with payable entries in a date
// window, optionally restricted to one technician.
func (s *Store) JobIDsInRange(ctx context.Context, from, to time.Time, techID int64, statuses []string) ([]int64, error) {
	query := `
    SELECT DISTINCT job_id
    FROM time_entries
    WHERE date_worked >= $1 AND date_worked <= $2 AND status = ANY($3)
  `
	args := []any{from, to, statuses}
	if techID != 0 {
		query += " AND tech_id = $4"
		args = append(args, techID)
	}
	query += " ORDER BY job_id"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Store) Create(ctx context.Context, e Entry) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
    INSERT INTO time_entries (job_id, tech_id, period_id, date_worked, time_in, time_out, hours_worked,
      mileage, per_diem, personal_expenses, status, notes, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
    RETURNING id
  `, e.JobID, zeroToNull(e.TechID), zeroToNull(e.PeriodID), e.DateWorked, emptyToNull(e.TimeIn),
		emptyToNull(e.TimeOut), e.HoursWorked, e.Mileage, e.PerDiem, e.PersonalExpenses, StatusDraft,
		emptyToNull(e.Notes), e.CreatedBy).Scan(&id)
	return id, err
}

func (s *Store) Update(ctx context.Context, e Entry) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE time_entries
    SET job_id = $1, tech_id = $2, period_id = $3, date_worked = $4, time_in = $5, time_out = $6,
      hours_worked = $7, mileage = $8, per_diem = $9, personal_expenses = $10, notes = $11,
      updated_by = $12, updated_at = now()
    WHERE id = $13 AND status = $14
  `, e.JobID, zeroToNull(e.TechID), zeroToNull(e.PeriodID), e.DateWorked, emptyToNull(e.TimeIn),
		emptyToNull(e.TimeOut), e.HoursWorked, e.Mileage, e.PerDiem, e.PersonalExpenses,
		emptyToNull(e.Notes), e.UpdatedBy, e.ID, StatusDraft)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotDraft
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, entryID int64) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM time_entries WHERE id = $1 AND status = $2", entryID, StatusDraft)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotDraft
	}
	return nil
}

// TransitionStatus is the compare-and-swap behind every lifecycle move:
// the row only changes if it is still in the expected status, so of two
// racing transitions exactly one sees RowsAffected()==1.
func (s *Store) TransitionStatus(ctx context.Context, entryID int64, from, to string, updatedBy int64) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE time_entries SET status = $1, updated_by = $2, updated_at = now()
    WHERE id = $3 AND status = $4
  `, to, updatedBy, entryID, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (s *Store) MarkVerified(ctx context.Context, entryID, verifierID int64) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE time_entries
    SET status = $1, verified_by = $2, verified_at = now(), rejection_reason = NULL,
      updated_by = $2, updated_at = now()
    WHERE id = $3 AND status = $4
  `, StatusVerified, verifierID, entryID, StatusSubmitted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (s *Store) MarkRejected(ctx context.Context, entryID, actorID int64, reason string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE time_entries
    SET status = $1, rejection_reason = $2, updated_by = $3, updated_at = now()
    WHERE id = $4 AND status = $5
  `, StatusDraft, reason, actorID, entryID, StatusSubmitted)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// FindDuplicate implements the import dedup key (job_id, date_worked,
// hours_worked). Hours may be unset on both sides; IS NOT DISTINCT FROM
// makes NULL match NULL, so a feed without hours stays idempotent.
func (s *Store) FindDuplicate(ctx context.Context, jobID int64, dateWorked time.Time, hours *float64) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM time_entries
    WHERE job_id = $1 AND date_worked = $2 AND hours_worked IS NOT DISTINCT FROM $3
  `, jobID, dateWorked, hours).Scan(&count)
	return count > 0, err
}

// BillPeriodEntries stamps the period onto every verified entry worked
// inside its date range and advances them to billed in one statement.
func (s *Store) BillPeriodEntries(ctx context.Context, periodID int64, startDate, endDate time.Time, updatedBy int64) (int64, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE time_entries SET status = $1, period_id = $2, updated_by = $3, updated_at = now()
    WHERE date_worked >= $4 AND date_worked <= $5 AND status = $6
  `, StatusBilled, periodID, updatedBy, startDate, endDate, StatusVerified)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// MarkPeriodEntries advances all of a period's entries from one payable
// status to the next (billed→paid on payout).
func (s *Store) MarkPeriodEntries(ctx context.Context, periodID int64, from, to string, updatedBy int64) (int64, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE time_entries SET status = $1, updated_by = $2, updated_at = now()
    WHERE period_id = $3 AND status = $4
  `, to, updatedBy, periodID, from)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func buildFilter(prefix string, filter Filter) (string, []any) {
	query := prefix
	args := []any{}
	if filter.Unassigned {
		query += " AND tech_id IS NULL"
	} else if filter.TechID != 0 {
		query += fmt.Sprintf(" AND tech_id = $%d", len(args)+1)
		args = append(args, filter.TechID)
	}
	if filter.JobID != 0 {
		query += fmt.Sprintf(" AND job_id = $%d", len(args)+1)
		args = append(args, filter.JobID)
	}
	if filter.PeriodID != 0 {
		query += fmt.Sprintf(" AND period_id = $%d", len(args)+1)
		args = append(args, filter.PeriodID)
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}
	if filter.FromDate != nil {
		query += fmt.Sprintf(" AND date_worked >= $%d", len(args)+1)
		args = append(args, *filter.FromDate)
	}
	if filter.ToDate != nil {
		query += fmt.Sprintf(" AND date_worked <= $%d", len(args)+1)
		args = append(args, *filter.ToDate)
	}
	return query, args
}

func zeroToNull(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func emptyToNull(value string) any {
	if value == "" {
		return nil
	}
	return value
}
