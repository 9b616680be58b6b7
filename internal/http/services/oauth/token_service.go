package oauth

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	dto "github.com/dropDatabas3/johnauth/internal/http/dto/oauth"
	"github.com/dropDatabas3/johnauth/internal/observability/logger"
	"github.com/dropDatabas3/johnauth/internal/observability/metrics"
)

// GrantType es el conjunto cerrado de grants soportados.
type GrantType int

const (
	GrantUnsupported GrantType = iota
	GrantPassword
	GrantClientCredentials
	GrantAuthorizationCode
)

// ParseGrantType mapea el valor del form; cualquier otro valor (incluido "") es GrantUnsupported.
func ParseGrantType(s string) GrantType {
	switch s {
	case "password":
		return GrantPassword
	case "client_credentials":
		return GrantClientCredentials
	case "authorization_code":
		return GrantAuthorizationCode
	default:
		return GrantUnsupported
	}
}

func (g GrantType) String() string {
	switch g {
	case GrantPassword:
		return "password"
	case GrantClientCredentials:
		return "client_credentials"
	case GrantAuthorizationCode:
		return "authorization_code"
	default:
		return "unsupported"
	}
}

// TokenRequest es lo que el controller extrae del request HTTP.
type TokenRequest struct {
	Authorization string // header crudo, "" si no vino
	Form          dto.TokenForm
}

// TokenService despacha POST /oauth2/token al grant correspondiente.
type TokenService interface {
	// Token retorna *RejectionError para todo rechazo de autorización;
	// cualquier otro error es interno.
	Token(ctx context.Context, req TokenRequest) (*TokenResponse, error)
}

type tokenService struct {
	clients ClientAuthenticator
	users   UserAuthenticator
	codes   CodeValidator
	issuer  TokenIssuer
}

// NewTokenService arma el dispatcher con sus colaboradores.
func NewTokenService(clients ClientAuthenticator, users UserAuthenticator, codes CodeValidator, issuer TokenIssuer) TokenService {
	return &tokenService{clients: clients, users: users, codes: codes, issuer: issuer}
}

var tracer = otel.Tracer("github.com/dropDatabas3/johnauth/internal/http/services/oauth")

func (s *tokenService) Token(ctx context.Context, req TokenRequest) (resp *TokenResponse, err error) {
	grant := ParseGrantType(req.Form.GrantType)

	ctx, span := tracer.Start(ctx, "oauth.token")
	span.SetAttributes(attribute.String("oauth.grant_type", grant.String()))
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("oauth.token"),
		logger.GrantType(grant.String()),
	)

	defer func() {
		result := "issued"
		switch {
		case err == nil:
		case IsRejection(err):
			result = "rejected"
			log.Warn("token request rejected", logger.Err(err))
		default:
			result = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Error("token request failed", logger.Err(err))
		}
		metrics.ObserveGrant(grant.String(), result)
		span.End()
	}()

	if req.Authorization == "" {
		return nil, reject(MsgClientCredentialsInvalid, errors.New("missing authorization header"))
	}

	switch grant {
	case GrantPassword:
		return s.password(ctx, req)
	case GrantClientCredentials:
		return s.clientCredentials(ctx, req)
	case GrantAuthorizationCode:
		return s.authorizationCode(ctx, req)
	default:
		return nil, reject(MsgUnsupportedGrant, nil)
	}
}

func (s *tokenService) password(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	f := req.Form
	if f.Username == "" || f.Password == "" {
		return nil, reject(MsgPasswordGrantRejected, errors.New("username and password are required"))
	}

	clientRowID, err := s.clients.Authenticate(ctx, req.Authorization)
	if err != nil {
		return nil, asRejection(MsgPasswordGrantRejected, err)
	}
	userID, err := s.users.Authenticate(ctx, f.Username, f.Password)
	if err != nil {
		return nil, asRejection(MsgPasswordGrantRejected, err)
	}

	return s.issuer.Issue(ctx, IssueParams{
		ClientRowID: clientRowID,
		UserID:      &userID,
		Scope:       f.Scope,
		Device:      f.Device,
	})
}

func (s *tokenService) clientCredentials(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	clientRowID, err := s.clients.Authenticate(ctx, req.Authorization)
	if err != nil {
		return nil, asRejection(MsgClientGrantRejected, err)
	}

	return s.issuer.Issue(ctx, IssueParams{
		ClientRowID: clientRowID,
		Scope:       req.Form.Scope,
		Device:      req.Form.Device,
	})
}

func (s *tokenService) authorizationCode(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	f := req.Form
	if f.Code == "" || f.PKCE == "" {
		return nil, reject(MsgCodeGrantRejected, errors.New("code and pcke are required"))
	}

	// el client se valida antes de tocar el código: un client inválido no lo consume
	clientRowID, err := s.clients.Authenticate(ctx, req.Authorization)
	if err != nil {
		return nil, asRejection(MsgCodeGrantRejected, err)
	}
	userID, err := s.codes.Consume(ctx, f.Code, f.PKCE)
	if err != nil {
		return nil, asRejection(MsgCodeGrantRejected, err)
	}

	return s.issuer.Issue(ctx, IssueParams{
		ClientRowID: clientRowID,
		UserID:      &userID,
		Scope:       f.Scope,
		Device:      f.Device,
	})
}

// asRejection convierte fallas de credenciales en el rechazo del grant;
// los errores del store siguen como internos.
func asRejection(msg string, err error) error {
	if errors.Is(err, ErrUnauthenticated) {
		return reject(msg, err)
	}
	return err
}
