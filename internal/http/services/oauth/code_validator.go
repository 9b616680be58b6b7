package oauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/johnauth/internal/domain/repository"
	"github.com/dropDatabas3/johnauth/internal/observability/logger"
	tokens "github.com/dropDatabas3/johnauth/internal/security/token"
)

// CodeValidator canjea un authorization code verificando PKCE.
type CodeValidator interface {
	// Consume valida (code, verifier) y consume el código en la misma
	// operación del store. Retorna el user id dueño del código.
	Consume(ctx context.Context, code, verifier string) (int64, error)
}

type codeValidator struct {
	codes repository.CodeRepository
	ttl   time.Duration
	now   func() time.Time
}

// NewCodeValidator crea el validator. ttl 0 desactiva el chequeo de edad.
func NewCodeValidator(codes repository.CodeRepository, ttl time.Duration, now func() time.Time) CodeValidator {
	if now == nil {
		now = time.Now
	}
	return &codeValidator{codes: codes, ttl: ttl, now: now}
}

func (v *codeValidator) Consume(ctx context.Context, code, verifier string) (int64, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("oauth.code"))

	challenge := tokens.SHA256Hex(verifier)
	ac, err := v.codes.Consume(ctx, code, challenge)
	switch {
	case err == nil:
	case repository.IsNotFound(err), errors.Is(err, repository.ErrAmbiguous):
		return 0, fmt.Errorf("%w: code: %v", ErrUnauthenticated, err)
	default:
		return 0, fmt.Errorf("consume code: %w", err)
	}

	if v.ttl > 0 {
		if age := v.now().Sub(ac.CreatedAt); age > v.ttl {
			// ya quedó consumido: un código vencido no se puede reintentar
			log.Info("expired authorization code presented", logger.Any("age", age))
			return 0, fmt.Errorf("%w: code expired", ErrUnauthenticated)
		}
	}
	return ac.UserID, nil
}
