package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store runs the aggregate queries the report builders feed on.
type Store struct {
	DB *pgxpool.Pool
}

// HoursRows returns day-grain hours per technician and job in the range.
// techID 0 means all technicians; an empty status set means all statuses.
func (s *Store) HoursRows(ctx context.Context, from, to time.Time, techID int64, statuses []string) ([]HoursRow, error) {
	query := `
		SELECT te.tech_id, t.name, te.job_id, te.date_worked, COALESCE(SUM(te.hours_worked), 0)
		FROM time_entries te
		JOIN technicians t ON t.id = te.tech_id
		WHERE te.tech_id IS NOT NULL
		  AND te.date_worked >= $1 AND te.date_worked <= $2`
	args := []any{from, to}
	if len(statuses) > 0 {
		query += fmt.Sprintf(` AND te.status = ANY($%d)`, len(args)+1)
		args = append(args, statuses)
	}
	if techID != 0 {
		query += fmt.Sprintf(` AND te.tech_id = $%d`, len(args)+1)
		args = append(args, techID)
	}
	query += `
		GROUP BY te.tech_id, t.name, te.job_id, te.date_worked
		ORDER BY t.name, te.tech_id, te.date_worked, te.job_id`

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query hours rows: %w", err)
	}
	defer rows.Close()

	var out []HoursRow
	for rows.Next() {
		var row HoursRow
		if err := rows.Scan(&row.TechID, &row.TechName, &row.JobID, &row.DateWorked, &row.Hours); err != nil {
			return nil, fmt.Errorf("scan hours row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// BillingLines returns one row per non-cancelled job that has payable
// entries in the range, with hours summed from those entries. JobNet and
// TechPay are filled in later by the service from the pay engine.
func (s *Store) BillingLines(ctx context.Context, from, to time.Time, statuses []string) ([]BillingLine, error) {
	query := `
		SELECT j.id, COALESCE(j.ticket_number, ''), j.description, COALESCE(j.client_name, ''),
		       j.job_date, j.job_status, j.billing_amount,
		       COALESCE(j.expenses, 0), COALESCE(j.commissions, 0),
		       COALESCE(SUM(te.hours_worked), 0)
		FROM jobs j
		JOIN time_entries te ON te.job_id = j.id
		WHERE j.job_status <> 'cancelled'
		  AND te.date_worked >= $1 AND te.date_worked <= $2
		  AND te.status = ANY($3)
		GROUP BY j.id
		ORDER BY j.job_date NULLS LAST, j.id`

	rows, err := s.DB.Query(ctx, query, from, to, statuses)
	if err != nil {
		return nil, fmt.Errorf("query billing lines: %w", err)
	}
	defer rows.Close()

	var out []BillingLine
	for rows.Next() {
		var line BillingLine
		if err := rows.Scan(
			&line.JobID, &line.TicketNumber, &line.Description, &line.ClientName,
			&line.JobDate, &line.Status, &line.BillingAmount,
			&line.Expenses, &line.Commissions, &line.TotalHours,
		); err != nil {
			return nil, fmt.Errorf("scan billing line: %w", err)
		}
		out = append(out, line)
	}
	return out, rows.Err()
}

// PlatformSummary aggregates jobs per platform over the job date range.
// Only entries in the given statuses count toward hours, so draft work
// never inflates the summary.
func (s *Store) PlatformSummary(ctx context.Context, from, to time.Time, statuses []string) ([]PlatformSummaryRow, error) {
	query := `
		SELECT p.id, p.name, COUNT(jb.job_id),
		       COALESCE(SUM(jb.billing), 0), COALESCE(SUM(jb.hours), 0)
		FROM platforms p
		JOIN (
			SELECT j.id AS job_id, j.platform_id,
			       COALESCE(j.billing_amount, 0) AS billing,
			       COALESCE(SUM(te.hours_worked), 0) AS hours
			FROM jobs j
			LEFT JOIN time_entries te ON te.job_id = j.id AND te.status = ANY($3)
			WHERE j.job_status <> 'cancelled'
			  AND j.job_date >= $1 AND j.job_date <= $2
			GROUP BY j.id
		) jb ON jb.platform_id = p.id
		GROUP BY p.id, p.name
		ORDER BY p.name`

	rows, err := s.DB.Query(ctx, query, from, to, statuses)
	if err != nil {
		return nil, fmt.Errorf("query platform summary: %w", err)
	}
	defer rows.Close()

	var out []PlatformSummaryRow
	for rows.Next() {
		var row PlatformSummaryRow
		if err := rows.Scan(&row.PlatformID, &row.PlatformName, &row.JobCount, &row.TotalBilling, &row.TotalHours); err != nil {
			return nil, fmt.Errorf("scan platform summary: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
