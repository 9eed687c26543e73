package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const jobColumns = `id, platform_id, COALESCE(platform_job_code, ''), COALESCE(ticket_number, ''),
    description, COALESCE(client_name, ''), COALESCE(location, ''), billing_type, billing_amount,
    estimated_hours, COALESCE(expenses, 0), COALESCE(commissions, 0), job_status, job_date,
    COALESCE(external_url, ''), created_at`

func (s *Store) GetJob(ctx context.Context, jobID int64) (Job, error) {
	var j Job
	err := s.DB.QueryRow(ctx, "SELECT "+jobColumns+" FROM jobs WHERE id = $1", jobID).Scan(
		&j.ID, &j.PlatformID, &j.PlatformJobCode, &j.TicketNumber, &j.Description, &j.ClientName,
		&j.Location, &j.BillingType, &j.BillingAmount, &j.EstimatedHours, &j.Expenses, &j.Commissions,
		&j.Status, &j.JobDate, &j.ExternalURL, &j.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	return j, err
}

func (s *Store) CountJobs(ctx context.Context, filter JobFilter) (int, error) {
	query, args := buildJobFilter("SELECT COUNT(1) FROM jobs WHERE 1=1", filter)
	var total int
	err := s.DB.QueryRow(ctx, query, args...).Scan(&total)
	return total, err
}

func (s *Store) ListJobs(ctx context.Context, filter JobFilter, limit, offset int) ([]Job, error) {
	query, args := buildJobFilter("SELECT "+jobColumns+" FROM jobs WHERE 1=1", filter)
	query += fmt.Sprintf(" ORDER BY job_date DESC NULLS LAST, id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.PlatformID, &j.PlatformJobCode, &j.TicketNumber, &j.Description,
			&j.ClientName, &j.Location, &j.BillingType, &j.BillingAmount, &j.EstimatedHours, &j.Expenses,
			&j.Commissions, &j.Status, &j.JobDate, &j.ExternalURL, &j.CreatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

func (s *Store) CreateJob(ctx context.Context, job Job, createdBy int64) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
    INSERT INTO jobs (platform_id, platform_job_code, ticket_number, description, client_name, location,
      billing_type, billing_amount, estimated_hours, expenses, commissions, job_status, job_date,
      external_url, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
    RETURNING id
  `, job.PlatformID, nullIfEmpty(job.PlatformJobCode), nullIfEmpty(job.TicketNumber), job.Description,
		nullIfEmpty(job.ClientName), nullIfEmpty(job.Location), job.BillingType, job.BillingAmount,
		job.EstimatedHours, job.Expenses, job.Commissions, job.Status, job.JobDate,
		nullIfEmpty(job.ExternalURL), createdBy).Scan(&id)
	return id, err
}

func (s *Store) UpdateJob(ctx context.Context, job Job, updatedBy int64) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE jobs
    SET platform_id = $1, platform_job_code = $2, ticket_number = $3, description = $4,
      client_name = $5, location = $6, billing_type = $7, billing_amount = $8, estimated_hours = $9,
      expenses = $10, commissions = $11, job_status = $12, job_date = $13, external_url = $14,
      updated_by = $15, updated_at = now()
    WHERE id = $16
  `, job.PlatformID, nullIfEmpty(job.PlatformJobCode), nullIfEmpty(job.TicketNumber), job.Description,
		nullIfEmpty(job.ClientName), nullIfEmpty(job.Location), job.BillingType, job.BillingAmount,
		job.EstimatedHours, job.Expenses, job.Commissions, job.Status, job.JobDate,
		nullIfEmpty(job.ExternalURL), updatedBy, job.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) FindJobByExternalURL(ctx context.Context, url string) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, "SELECT id FROM jobs WHERE external_url = $1", url).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return id, err
}

func (s *Store) FindJobByTicketNumber(ctx context.Context, ticket string) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, "SELECT id FROM jobs WHERE ticket_number = $1", ticket).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return id, err
}

func buildJobFilter(prefix string, filter JobFilter) (string, []any) {
	query := prefix
	args := []any{}
	if filter.PlatformID != 0 {
		query += fmt.Sprintf(" AND platform_id = $%d", len(args)+1)
		args = append(args, filter.PlatformID)
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND job_status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}
	if filter.FromDate != nil {
		query += fmt.Sprintf(" AND job_date >= $%d", len(args)+1)
		args = append(args, *filter.FromDate)
	}
	if filter.ToDate != nil {
		query += fmt.Sprintf(" AND job_date <= $%d", len(args)+1)
		args = append(args, *filter.ToDate)
	}
	return query, args
}
