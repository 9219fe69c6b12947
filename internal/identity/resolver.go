package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/geocoder89/staffhub/internal/domain/user"
	"github.com/geocoder89/staffhub/internal/oauth"
	"github.com/geocoder89/staffhub/internal/repo/postgres"
)

var ErrNoEmail = errors.New("profile has no email")

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, email string, passwordHash *string, name, role string) (user.User, error)
}

// Resolver maps an authenticated OAuth profile onto a user record,
// provisioning one on first login. OAuth accounts carry no password hash.
type Resolver struct {
	users UserStore
	log   *slog.Logger
}

func NewResolver(users UserStore, log *slog.Logger) *Resolver {
	return &Resolver{
		users: users,
		log:   log,
	}
}

func (r *Resolver) Resolve(ctx context.Context, p oauth.Profile) (user.User, error) {
	if p.Email == "" {
		return user.User{}, ErrNoEmail
	}

	u, err := r.users.GetByEmail(ctx, p.Email)

	if err == nil {
		return u, nil
	}

	if !errors.Is(err, postgres.ErrUserNotFound) {
		return user.User{}, err
	}

	name := p.Name

	if name == "" {
		name, _, _ = strings.Cut(p.Email, "@")
	}

	u, err = r.users.Create(ctx, p.Email, nil, name, user.RoleEmployee)

	if err != nil {
		// two first logins racing: the other insert won, use its row
		if errors.Is(err, postgres.ErrEmailAlreadyUsed) {
			return r.users.GetByEmail(ctx, p.Email)
		}

		return user.User{}, err
	}

	r.log.Info("user provisioned from oauth profile", "user_id", u.ID, "email", u.Email)

	return u, nil
}
