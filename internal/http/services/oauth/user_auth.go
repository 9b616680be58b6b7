package oauth

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/johnauth/internal/domain/repository"
	"github.com/dropDatabas3/johnauth/internal/observability/logger"
	"github.com/dropDatabas3/johnauth/internal/security/password"
)

// UserAuthenticator valida username/password del resource owner.
type UserAuthenticator interface {
	Authenticate(ctx context.Context, username, pass string) (int64, error)
}

type userAuthenticator struct {
	users repository.UserRepository
}

func NewUserAuthenticator(users repository.UserRepository) UserAuthenticator {
	return &userAuthenticator{users: users}
}

func (a *userAuthenticator) Authenticate(ctx context.Context, username, pass string) (int64, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("oauth.user_auth"))

	candidates, err := a.users.FindByUsername(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("find user: %w", err)
	}
	var matched []int64
	for _, u := range candidates {
		if password.Matches(u.Password, pass) {
			matched = append(matched, u.ID)
		}
	}
	if len(matched) != 1 {
		log.Debug("user credentials rejected", logger.Username(username), logger.Int("matches", len(matched)))
		return 0, fmt.Errorf("%w: %d matching users", ErrUnauthenticated, len(matched))
	}
	log.Debug("user authenticated", logger.UserID(matched[0]))
	return matched[0], nil
}
