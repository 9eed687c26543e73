package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"worktrack/internal/auth"
	"worktrack/internal/platform/config"
)

// Seed creates the bootstrap admin account when seeding is enabled. It is
// safe to run on every start; an existing account is left alone.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if !cfg.RunSeed {
		return nil
	}
	if cfg.SeedAdminEmail == "" || cfg.SeedAdminPassword == "" {
		return fmt.Errorf("seeding enabled but SEED_ADMIN_EMAIL or SEED_ADMIN_PASSWORD is empty")
	}

	hash, err := auth.HashPassword(cfg.SeedAdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	tag, err := pool.Exec(ctx, `
    INSERT INTO users (email, password_hash, full_name, role, status)
    VALUES ($1, $2, 'Administrator', $3, 'active')
    ON CONFLICT (email) DO NOTHING
  `, cfg.SeedAdminEmail, hash, auth.RoleAdmin)
	if err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	if tag.RowsAffected() > 0 {
		slog.Info("seeded admin user", "email", cfg.SeedAdminEmail)
	}
	return nil
}
