// Package rates holds the mileage reimbursement rate history. The rate in
// force for an entry is always looked up by the entry's work date, never a
// single current value, so old pay calculations stay reproducible after a
// rate change.
package rates

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrRateNotFound = errors.New("no mileage rate effective for date")

type MileageRate struct {
	ID            int64      `json:"rateId"`
	RatePerMile   float64    `json:"ratePerMile"`
	EffectiveDate time.Time  `json:"effectiveDate"`
	EndDate       *time.Time `json:"endDate,omitempty"`
	Description   string     `json:"description,omitempty"`
}

// History is an in-memory snapshot of the rate table, ordered by effective
// date descending. The pay engine works off a snapshot so one calculation
// sees one consistent table.
type History []MileageRate

// RateFor returns the rate whose effective window covers the date: the
// newest rate with effective_date <= date.
func (h History) RateFor(date time.Time) (float64, error) {
	for _, rate := range h {
		if !rate.EffectiveDate.After(date) {
			return rate.RatePerMile, nil
		}
	}
	return 0, ErrRateNotFound
}

// Normalize sorts newest-first, the order RateFor depends on.
func (h History) Normalize() History {
	sorted := make(History, len(h))
	copy(sorted, h)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].EffectiveDate.After(sorted[j].EffectiveDate)
	})
	return sorted
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) List(ctx context.Context) (History, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, rate_per_mile, effective_date, end_date, COALESCE(description, '')
    FROM mileage_rates
    ORDER BY effective_date DESC
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history History
	for rows.Next() {
		var r MileageRate
		if err := rows.Scan(&r.ID, &r.RatePerMile, &r.EffectiveDate, &r.EndDate, &r.Description); err != nil {
			return nil, err
		}
		history = append(history, r)
	}
	return history, nil
}

// Create inserts a new rate and closes the previous open-ended one the day
// before the new rate takes effect.
func (s *Store) Create(ctx context.Context, ratePerMile float64, effectiveDate time.Time, description string) (int64, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
    UPDATE mileage_rates SET end_date = $1 - INTERVAL '1 day'
    WHERE end_date IS NULL AND effective_date < $1
  `, effectiveDate); err != nil {
		return 0, err
	}

	var id int64
	if err := tx.QueryRow(ctx, `
    INSERT INTO mileage_rates (rate_per_mile, effective_date, description)
    VALUES ($1,$2,$3)
    RETURNING id
  `, ratePerMile, effectiveDate, nullIfEmpty(description)).Scan(&id); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
