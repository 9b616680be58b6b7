package oauth

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/johnauth/internal/domain/repository"
	tokens "github.com/dropDatabas3/johnauth/internal/security/token"
)

const (
	// AccessTokenTTL es la vida fija de un access token.
	AccessTokenTTL = 30 * 24 * time.Hour

	TokenTypeBearer = "bearer"
	DefaultDevice   = "unknown"
)

// TokenResponse es el body de un /oauth2/token exitoso.
// Scope se serializa como null cuando no vino en el request.
type TokenResponse struct {
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	ExpiresIn   int64   `json:"expires_in"`
	Scope       *string `json:"scope"`
}

// IssueParams describe a quién se emite el token.
type IssueParams struct {
	ClientRowID int64
	UserID      *int64 // nil en client_credentials
	Scope       *string
	Device      string
}

// TokenIssuer genera y persiste access tokens.
type TokenIssuer interface {
	Issue(ctx context.Context, p IssueParams) (*TokenResponse, error)
}

type tokenIssuer struct {
	tokens   repository.TokenRepository
	issuer   string
	now      func() time.Time
	generate func() (string, error)
}

// NewTokenIssuer crea el issuer. issuer es el nombre del server que se estampa en cada token.
func NewTokenIssuer(repo repository.TokenRepository, issuer string, now func() time.Time) TokenIssuer {
	if now == nil {
		now = time.Now
	}
	return &tokenIssuer{tokens: repo, issuer: issuer, now: now, generate: tokens.GenerateAccessToken}
}

func (i *tokenIssuer) Issue(ctx context.Context, p IssueParams) (*TokenResponse, error) {
	tok, err := i.generate()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	device := p.Device
	if device == "" {
		device = DefaultDevice
	}

	now := i.now()
	row := repository.AccessToken{
		Token:     tok,
		ClientID:  p.ClientRowID,
		UserID:    p.UserID,
		Scope:     p.Scope,
		TokenType: TokenTypeBearer,
		Issuer:    i.issuer,
		Device:    device,
		CreatedAt: now,
		ExpiresAt: now.Add(AccessTokenTTL),
	}
	// reemplaza el token anterior del par (user, client)
	if err := i.tokens.Upsert(ctx, row); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}

	return &TokenResponse{
		AccessToken: tok,
		TokenType:   TokenTypeBearer,
		ExpiresIn:   int64(row.ExpiresAt.Sub(now) / time.Second),
		Scope:       p.Scope,
	}, nil
}
