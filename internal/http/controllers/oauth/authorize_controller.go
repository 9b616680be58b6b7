package oauth

import (
	"net/http"
	"net/url"
	"strings"

	dto "github.com/dropDatabas3/johnauth/internal/http/dto/oauth"
	httperrors "github.com/dropDatabas3/johnauth/internal/http/errors"
	"github.com/dropDatabas3/johnauth/internal/observability/logger"
)

// AuthorizeController maneja GET /oauth2/authorize: reenvía al login externo.
// La emisión del authorization code ocurre fuera de este servidor.
type AuthorizeController struct {
	loginURL string
}

func NewAuthorizeController(loginURL string) *AuthorizeController {
	return &AuthorizeController{loginURL: loginURL}
}

func (c *AuthorizeController) Authorize(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("oauth.authorize"))

	q := r.URL.Query()
	in := dto.AuthorizeQuery{
		ClientID:     strings.TrimSpace(q.Get("client_id")),
		ResponseType: strings.TrimSpace(q.Get("response_type")),
		RedirectURI:  strings.TrimSpace(q.Get("redirect_uri")),
		Scope:        q.Get("scope"),
		State:        q.Get("state"),
	}
	if in.ClientID == "" || in.ResponseType == "" || in.RedirectURI == "" {
		log.Warn("authorize request missing parameters")
		httperrors.WriteError(w, r, httperrors.ErrBadRequest.WithMessage("client_id, response_type and redirect_uri are required"))
		return
	}

	target, err := loginRedirect(c.loginURL, in)
	if err != nil {
		httperrors.WriteError(w, r, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	log.Debug("redirecting to login", logger.ClientID(in.ClientID))
	http.Redirect(w, r, target, http.StatusFound)
}

// loginRedirect agrega los parámetros del authorize a la URL de login,
// conservando los que ya tuviera.
func loginRedirect(loginURL string, in dto.AuthorizeQuery) (string, error) {
	u, err := url.Parse(loginURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("client_id", in.ClientID)
	q.Set("response_type", in.ResponseType)
	q.Set("redirect_uri", in.RedirectURI)
	q.Set("scope", in.Scope)
	if in.State != "" {
		q.Set("state", in.State)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
