// Package oauth contiene los controllers HTTP de /oauth2/*.
package oauth

import (
	"encoding/json"
	"errors"
	"net/http"

	httperrors "github.com/dropDatabas3/johnauth/internal/http/errors"
	svc "github.com/dropDatabas3/johnauth/internal/http/services/oauth"
	"github.com/dropDatabas3/johnauth/internal/observability/logger"
)

// maxFormBytes limita el body form-urlencoded.
const maxFormBytes = 64 << 10

// Controllers agrupa los controllers OAuth.
type Controllers struct {
	Token      *TokenController
	Introspect *IntrospectController
	Authorize  *AuthorizeController
	Logout     *LogoutController
}

// NewControllers crea todos los controllers a partir de los services.
func NewControllers(s svc.Services, loginURL string) *Controllers {
	return &Controllers{
		Token:      NewTokenController(s.Token),
		Introspect: NewIntrospectController(s.Introspect, s.Clients),
		Authorize:  NewAuthorizeController(loginURL),
		Logout:     NewLogoutController(),
	}
}

// writeServiceError traduce errores de service a la respuesta {message}.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var rej *svc.RejectionError
	switch {
	case errors.As(err, &rej):
		httperrors.WriteError(w, r, httperrors.ErrUnauthorized.WithMessage(rej.Message).WithCause(err))
	case errors.Is(err, svc.ErrUnknownToken):
		httperrors.WriteError(w, r, httperrors.ErrUnknownToken.WithCause(err))
	default:
		httperrors.WriteError(w, r, httperrors.ErrInternalServerError.WithCause(err))
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.From(r.Context()).Warn("write response failed", logger.Err(err))
	}
}
