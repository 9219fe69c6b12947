package db

import (
	"context"
	"errors"

	"github.com/geocoder89/staffhub/internal/config"
	"github.com/geocoder89/staffhub/internal/domain/user"
	"github.com/geocoder89/staffhub/internal/repo/postgres"
	"github.com/geocoder89/staffhub/internal/security"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureAdminUser seeds one ADMIN account when credentials are configured.
// Safe to run on every boot.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	users := postgres.NewUsersRepo(pool, nil)

	_, err := users.GetByEmail(ctx, cfg.AdminEmail)

	if err == nil {
		return nil
	}

	if !errors.Is(err, postgres.ErrUserNotFound) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	_, err = users.Create(ctx, cfg.AdminEmail, &hash, cfg.AdminName, user.RoleAdmin)

	if errors.Is(err, postgres.ErrEmailAlreadyUsed) {
		// another instance seeded it first
		return nil
	}

	return err
}
