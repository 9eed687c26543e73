package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

func (s *Store) GetTechnician(ctx context.Context, techID int64) (Technician, error) {
	var t Technician
	err := s.DB.QueryRow(ctx, `
    SELECT id, name, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(hourly_rate, 0), status, hire_date, created_at
    FROM technicians
    WHERE id = $1
  `, techID).Scan(&t.ID, &t.Name, &t.Email, &t.Phone, &t.HourlyRate, &t.Status, &t.HireDate, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Technician{}, ErrNotFound
	}
	return t, err
}

func (s *Store) ListTechnicians(ctx context.Context, status string) ([]Technician, error) {
	query := `
    SELECT id, name, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(hourly_rate, 0), status, hire_date, created_at
    FROM technicians
  `
	args := []any{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	query += " ORDER BY name"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var techs []Technician
	for rows.Next() {
		var t Technician
		if err := rows.Scan(&t.ID, &t.Name, &t.Email, &t.Phone, &t.HourlyRate, &t.Status, &t.HireDate, &t.CreatedAt); err != nil {
			return nil, err
		}
		techs = append(techs, t)
	}
	return techs, nil
}

func (s *Store) CreateTechnician(ctx context.Context, tech Technician) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
    INSERT INTO technicians (name, email, phone, hourly_rate, status, hire_date)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, tech.Name, nullIfEmpty(tech.Email), nullIfEmpty(tech.Phone), tech.HourlyRate, tech.Status, tech.HireDate).Scan(&id)
	return id, err
}

func (s *Store) UpdateTechnician(ctx context.Context, tech Technician) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE technicians
    SET name = $1, email = $2, phone = $3, hourly_rate = $4, status = $5, hire_date = $6, updated_at = now()
    WHERE id = $7
  `, tech.Name, nullIfEmpty(tech.Email), nullIfEmpty(tech.Phone), tech.HourlyRate, tech.Status, tech.HireDate, tech.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MinimumRates returns the guaranteed hourly floor for each technician.
func (s *Store) MinimumRates(ctx context.Context, techIDs []int64) (map[int64]float64, map[int64]string, error) {
	if len(techIDs) == 0 {
		return map[int64]float64{}, map[int64]string{}, nil
	}
	query := "SELECT id, name, COALESCE(hourly_rate, 0) FROM technicians WHERE id = ANY($1)"
	rows, err := s.DB.Query(ctx, query, techIDs)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	rates := make(map[int64]float64, len(techIDs))
	names := make(map[int64]string, len(techIDs))
	for rows.Next() {
		var id int64
		var name string
		var rate float64
		if err := rows.Scan(&id, &name, &rate); err != nil {
			return nil, nil, err
		}
		rates[id] = rate
		names[id] = name
	}
	return rates, names, nil
}

func (s *Store) ListPayPeriods(ctx context.Context, status string, limit, offset int) ([]PayPeriod, error) {
	query := "SELECT id, start_date, end_date, COALESCE(period_name, ''), status, closed_at FROM pay_periods"
	args := []any{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	query += fmt.Sprintf(" ORDER BY start_date DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []PayPeriod
	for rows.Next() {
		var p PayPeriod
		if err := rows.Scan(&p.ID, &p.StartDate, &p.EndDate, &p.Name, &p.Status, &p.ClosedAt); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, nil
}

func (s *Store) GetPayPeriod(ctx context.Context, periodID int64) (PayPeriod, error) {
	var p PayPeriod
	err := s.DB.QueryRow(ctx, `
    SELECT id, start_date, end_date, COALESCE(period_name, ''), status, closed_at
    FROM pay_periods
    WHERE id = $1
  `, periodID).Scan(&p.ID, &p.StartDate, &p.EndDate, &p.Name, &p.Status, &p.ClosedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return PayPeriod{}, ErrNotFound
	}
	return p, err
}

func (s *Store) CreatePayPeriod(ctx context.Context, period PayPeriod) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
    INSERT INTO pay_periods (start_date, end_date, period_name, status)
    VALUES ($1,$2,$3,$4)
    RETURNING id
  `, period.StartDate, period.EndDate, nullIfEmpty(period.Name), PeriodStatusOpen).Scan(&id)
	return id, err
}

// ClosePayPeriod flips an open period to closed; the status guard mirrors
// the entry transitions so two closers cannot both succeed.
func (s *Store) ClosePayPeriod(ctx context.Context, periodID int64) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE pay_periods SET status = $1, closed_at = now() WHERE id = $2 AND status = $3
  `, PeriodStatusClosed, periodID, PeriodStatusOpen)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
