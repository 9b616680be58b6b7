package oauth

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	dto "github.com/dropDatabas3/johnauth/internal/http/dto/oauth"
	httperrors "github.com/dropDatabas3/johnauth/internal/http/errors"
	svc "github.com/dropDatabas3/johnauth/internal/http/services/oauth"
	"github.com/dropDatabas3/johnauth/internal/observability/logger"
	"github.com/dropDatabas3/johnauth/internal/util"
)

// IntrospectController maneja POST /oauth2/introspect.
type IntrospectController struct {
	service    svc.IntrospectService
	clientAuth svc.ClientAuthenticator
}

func NewIntrospectController(service svc.IntrospectService, clientAuth svc.ClientAuthenticator) *IntrospectController {
	return &IntrospectController{service: service, clientAuth: clientAuth}
}

// Introspect requiere client auth; solo ve tokens emitidos a ese client.
// 200 con active true/false si el token existe, 404 si no.
func (c *IntrospectController) Introspect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("oauth.introspect"))

	header := r.Header.Get("Authorization")
	if header == "" {
		log.Warn("introspection rejected", logger.Reason("missing authorization header"))
		writeServiceError(w, r, &svc.RejectionError{Message: svc.MsgClientCredentialsInvalid})
		return
	}
	clientRowID, err := c.clientAuth.Authenticate(ctx, header)
	if err != nil {
		if errors.Is(err, svc.ErrUnauthenticated) {
			log.Warn("introspection rejected", logger.Err(err))
			writeServiceError(w, r, &svc.RejectionError{Message: svc.MsgClientCredentialsInvalid, Cause: err})
			return
		}
		writeServiceError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		log.Warn("failed to parse form", logger.Err(err))
		httperrors.WriteError(w, r, httperrors.ErrBadRequest.WithCause(err))
		return
	}
	token := strings.TrimSpace(r.PostForm.Get("token"))

	result, err := c.service.Introspect(ctx, clientRowID, token)
	if err != nil {
		if errors.Is(err, svc.ErrUnknownToken) {
			log.Warn("introspection of unknown token",
				logger.ClientRowID(clientRowID),
				logger.String("token", util.MaskSecret(token)),
			)
		}
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, toIntrospectResponse(result))
}

func toIntrospectResponse(res *dto.IntrospectResult) dto.IntrospectResponse {
	out := dto.IntrospectResponse{
		Active:    res.Active,
		ClientID:  res.ClientID,
		Username:  res.Username,
		Scope:     res.Scope,
		TokenType: res.TokenType,
		Issuer:    res.Issuer,
		Exp:       res.Exp,
		Iat:       res.Iat,
	}
	if res.UserID != nil {
		uid := strconv.FormatInt(*res.UserID, 10)
		out.UserID = &uid
	}
	return out
}
