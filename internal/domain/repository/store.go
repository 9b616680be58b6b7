package repository

import "context"

// Store agrupa los repositorios de un backend concreto.
type Store interface {
	Clients() ClientRepository
	Users() UserRepository
	Codes() CodeRepository
	Tokens() TokenRepository

	// Driver retorna el nombre del backend ("postgres", "memory").
	Driver() string
	Ping(ctx context.Context) error
	Close() error
}
