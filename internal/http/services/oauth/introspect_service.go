package oauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/johnauth/internal/domain/repository"
	dto "github.com/dropDatabas3/johnauth/internal/http/dto/oauth"
	"github.com/dropDatabas3/johnauth/internal/observability/logger"
	"github.com/dropDatabas3/johnauth/internal/observability/metrics"
)

// IntrospectService resuelve un token en el ámbito del client que pregunta.
type IntrospectService interface {
	// Introspect retorna ErrUnknownToken si el token no existe o es de otro client.
	// Un token vencido se devuelve igual, con Active=false.
	Introspect(ctx context.Context, clientRowID int64, token string) (*dto.IntrospectResult, error)
}

type introspectService struct {
	tokens repository.TokenRepository
	now    func() time.Time
}

func NewIntrospectService(repo repository.TokenRepository, now func() time.Time) IntrospectService {
	if now == nil {
		now = time.Now
	}
	return &introspectService{tokens: repo, now: now}
}

func (s *introspectService) Introspect(ctx context.Context, clientRowID int64, token string) (*dto.IntrospectResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("oauth.introspect"),
		logger.ClientRowID(clientRowID),
	)

	if token == "" {
		metrics.ObserveIntrospection("unknown")
		return nil, ErrUnknownToken
	}

	row, err := s.tokens.Lookup(ctx, clientRowID, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.ObserveIntrospection("unknown")
			return nil, ErrUnknownToken
		}
		metrics.ObserveIntrospection("error")
		return nil, fmt.Errorf("lookup token: %w", err)
	}

	// active se calcula ahora, no se guarda
	active := row.ExpiresAt.After(s.now())
	if active {
		metrics.ObserveIntrospection("active")
	} else {
		metrics.ObserveIntrospection("expired")
	}
	log.Debug("token introspected", logger.Bool("active", active))

	return &dto.IntrospectResult{
		Active:      active,
		ClientID:    row.ClientID,
		DisplayName: row.DisplayName,
		Username:    row.Username,
		UserID:      row.UserID,
		Scope:       row.Scope,
		TokenType:   row.TokenType,
		Issuer:      row.Issuer,
		Exp:         row.ExpiresAt.Unix(),
		Iat:         row.CreatedAt.Unix(),
	}, nil
}
