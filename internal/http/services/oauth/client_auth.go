package oauth

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dropDatabas3/johnauth/internal/domain/repository"
	"github.com/dropDatabas3/johnauth/internal/observability/logger"
	"github.com/dropDatabas3/johnauth/internal/security/password"
)

// ClientAuthenticator valida el header Authorization de un client.
type ClientAuthenticator interface {
	// Authenticate retorna el id de fila del client. Cualquier falla de
	// credenciales es ErrUnauthenticated; otros errores vienen del store.
	Authenticate(ctx context.Context, header string) (int64, error)
}

type clientAuthenticator struct {
	clients repository.ClientRepository
}

// NewClientAuthenticator crea el authenticator sobre el repositorio de clients.
func NewClientAuthenticator(clients repository.ClientRepository) ClientAuthenticator {
	return &clientAuthenticator{clients: clients}
}

func (a *clientAuthenticator) Authenticate(ctx context.Context, header string) (int64, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("oauth.client_auth"))

	clientID, secret, err := ParseBasic(header)
	if err != nil {
		log.Debug("malformed client authorization", logger.Err(err))
		return 0, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	candidates, err := a.clients.FindByClientID(ctx, clientID)
	if err != nil {
		return 0, fmt.Errorf("find client: %w", err)
	}

	var matched []int64
	for _, c := range candidates {
		if password.Matches(c.ClientSecret, secret) {
			matched = append(matched, c.ID)
		}
	}
	if len(matched) != 1 {
		log.Debug("client credentials rejected", logger.ClientID(clientID), logger.Int("matches", len(matched)))
		return 0, fmt.Errorf("%w: %d matching clients", ErrUnauthenticated, len(matched))
	}
	return matched[0], nil
}

// ParseBasic decodifica "<scheme> <base64(client_id:client_secret)>".
// El scheme no se valida; el secreto puede contener ':'.
func ParseBasic(header string) (clientID, secret string, err error) {
	_, payload, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return "", "", fmt.Errorf("missing scheme separator")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return "", "", fmt.Errorf("invalid base64: %w", err)
	}
	clientID, secret, ok = strings.Cut(string(raw), ":")
	if !ok {
		return "", "", fmt.Errorf("missing ':' in credentials")
	}
	return clientID, secret, nil
}
