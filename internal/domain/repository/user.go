package repository

import "context"

// User es el resource owner del password grant.
type User struct {
	ID       int64
	Username string
	Password string // plano o hash bcrypt ($2a$/$2b$)
}

// UserInput contiene los datos para dar de alta un usuario (CLI).
type UserInput struct {
	Username string
	Password string
}

// UserRepository es de solo lectura para el core; Create existe para provisioning.
type UserRepository interface {
	// FindByUsername devuelve todas las filas con ese username.
	FindByUsername(ctx context.Context, username string) ([]User, error)

	// Create inserta un usuario. ErrConflict si el username ya existe.
	Create(ctx context.Context, in UserInput) (*User, error)
}
