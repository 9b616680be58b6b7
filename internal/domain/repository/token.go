package repository

import (
	"context"
	"time"
)

// AccessToken es la fila persistida de un token opaco.
// Existe como mucho una fila por par (UserID, ClientID); UserID nil en client_credentials.
type AccessToken struct {
	Token     string
	ClientID  int64 // id de fila del client
	UserID    *int64
	Scope     *string
	TokenType string
	Issuer    string
	Device    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// TokenLookup es el resultado del join token/client/user usado por introspection.
type TokenLookup struct {
	ClientID    string // client_id público
	DisplayName string
	Username    *string
	UserID      *int64
	Scope       *string
	TokenType   string
	Issuer      string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// TokenRepository persiste access tokens.
type TokenRepository interface {
	// Upsert inserta el token o reemplaza la fila existente del par (user, client):
	// token, expiración, creación, scope, issuer y device se sobrescriben.
	Upsert(ctx context.Context, t AccessToken) error

	// Lookup busca el token solo entre los emitidos al client clientRowID.
	// Retorna ErrNotFound si no existe o pertenece a otro client.
	Lookup(ctx context.Context, clientRowID int64, token string) (*TokenLookup, error)
}
