package oauth

import (
	"net/http"
	"strings"

	dto "github.com/dropDatabas3/johnauth/internal/http/dto/oauth"
	httperrors "github.com/dropDatabas3/johnauth/internal/http/errors"
	svc "github.com/dropDatabas3/johnauth/internal/http/services/oauth"
	"github.com/dropDatabas3/johnauth/internal/observability/logger"
)

// TokenController maneja POST /oauth2/token.
type TokenController struct {
	service svc.TokenService
}

func NewTokenController(s svc.TokenService) *TokenController {
	return &TokenController{service: s}
}

// Token implementa los grants password, client_credentials y authorization_code.
func (c *TokenController) Token(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("oauth.token"))

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		log.Warn("failed to parse form", logger.Err(err))
		httperrors.WriteError(w, r, httperrors.ErrBadRequest.WithCause(err))
		return
	}

	form := dto.TokenForm{
		GrantType: strings.TrimSpace(r.PostForm.Get("grant_type")),
		Username:  r.PostForm.Get("username"),
		Password:  r.PostForm.Get("password"),
		Code:      strings.TrimSpace(r.PostForm.Get("code")),
		PKCE:      strings.TrimSpace(r.PostForm.Get("pcke")),
		Device:    strings.TrimSpace(r.PostForm.Get("device")),
	}
	// scope ausente => null; scope presente (aunque vacío) se guarda tal cual
	if v, ok := r.PostForm["scope"]; ok && len(v) > 0 {
		scope := v[0]
		form.Scope = &scope
	}

	resp, err := c.service.Token(ctx, svc.TokenRequest{
		Authorization: r.Header.Get("Authorization"),
		Form:          form,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, resp)
}
