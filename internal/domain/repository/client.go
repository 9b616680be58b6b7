package repository

import "context"

// Client es un cliente OAuth registrado fuera de banda.
type Client struct {
	ID           int64  // id de fila, referenciado por access_tokens.client_id
	ClientID     string // identificador público
	ClientSecret string
	DisplayName  string
}

// ClientInput contiene los datos para dar de alta un client (CLI).
type ClientInput struct {
	ClientID     string
	ClientSecret string
	DisplayName  string
}

// ClientRepository es de solo lectura para el core; Create existe para provisioning.
type ClientRepository interface {
	// FindByClientID devuelve todas las filas con ese client_id.
	FindByClientID(ctx context.Context, clientID string) ([]Client, error)

	// Create inserta un client. ErrConflict si el client_id ya existe.
	Create(ctx context.Context, in ClientInput) (*Client, error)
}
