package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kamaumbugua/userhub/internal/config"
	"github.com/kamaumbugua/userhub/internal/domain/user"
	"github.com/kamaumbugua/userhub/internal/security"
)

// EnsureAdminUser seeds the configured admin account if it does not
// exist yet. A no-op when the admin env vars are unset.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	email := user.NormalizeEmail(cfg.AdminEmail)

	// check if the user exists

	var dummy int64

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE lower(email) = $1`, email).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)`,
		cfg.AdminName, email, hash, user.RoleAdmin,
	)

	return err
}
