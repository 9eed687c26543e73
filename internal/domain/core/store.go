package core

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) ListPlatforms(ctx context.Context) ([]Platform, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name, code, COALESCE(description, ''), status
    FROM platforms
    ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var platforms []Platform
	for rows.Next() {
		var p Platform
		if err := rows.Scan(&p.ID, &p.Name, &p.Code, &p.Description, &p.Status); err != nil {
			return nil, err
		}
		platforms = append(platforms, p)
	}
	return platforms, nil
}

func (s *Store) CreatePlatform(ctx context.Context, name, code, description string) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, `
    INSERT INTO platforms (name, code, description)
    VALUES ($1,$2,$3)
    RETURNING id
  `, name, code, nullIfEmpty(description)).Scan(&id)
	return id, err
}

// FindOrCreatePlatform is used by the import path, which names platforms
// rather than referencing ids.
func (s *Store) FindOrCreatePlatform(ctx context.Context, name, code string) (int64, error) {
	var id int64
	err := s.DB.QueryRow(ctx, "SELECT id FROM platforms WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	return s.CreatePlatform(ctx, name, code, "")
}

func (s *Store) FindUserByEmail(ctx context.Context, email, status string) (User, error) {
	var u User
	err := s.DB.QueryRow(ctx, `
    SELECT id, COALESCE(tech_id, 0), email, password_hash, COALESCE(full_name, ''), role, status, created_at
    FROM users
    WHERE email = $1 AND status = $2
  `, email, status).Scan(&u.ID, &u.TechID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.Status, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID int64) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
