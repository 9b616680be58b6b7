// Package oauth contiene el motor de grants y de ciclo de vida de tokens.
package oauth

import (
	"time"

	"github.com/dropDatabas3/johnauth/internal/domain/repository"
)

// Deps contiene las dependencias para crear los services OAuth.
type Deps struct {
	Store repository.Store
	// Issuer es el nombre del server estampado en cada token.
	Issuer string
	// CodeTTL edad máxima de un authorization code (0 = sin límite).
	CodeTTL time.Duration
	// Now reloj inyectable; nil usa time.Now.
	Now func() time.Time
}

// Services agrupa todos los services del dominio OAuth.
type Services struct {
	Clients    ClientAuthenticator
	Token      TokenService
	Introspect IntrospectService
}

// NewServices crea el agregador de services OAuth.
func NewServices(d Deps) Services {
	clients := NewClientAuthenticator(d.Store.Clients())
	return Services{
		Clients: clients,
		Token: NewTokenService(
			clients,
			NewUserAuthenticator(d.Store.Users()),
			NewCodeValidator(d.Store.Codes(), d.CodeTTL, d.Now),
			NewTokenIssuer(d.Store.Tokens(), d.Issuer, d.Now),
		),
		Introspect: NewIntrospectService(d.Store.Tokens(), d.Now),
	}
}
