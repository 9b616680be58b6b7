package repository

import (
	"context"
	"time"
)

// AuthorizationCode es un código de un solo uso emitido fuera de este core.
// PKCEHash es el hex en minúsculas de SHA-256(verifier).
type AuthorizationCode struct {
	Code      string
	UserID    int64
	PKCEHash  string
	CreatedAt time.Time
}

// CodeRepository persiste authorization codes.
type CodeRepository interface {
	// Create guarda un código nuevo (provisioning y tests).
	Create(ctx context.Context, code AuthorizationCode) error

	// Consume busca por (code, pkceHash) y lo elimina en la misma operación.
	// Dos llamadas concurrentes con el mismo código: como mucho una obtiene la fila.
	// Retorna ErrNotFound si no hay coincidencia y ErrAmbiguous si hay más de una
	// (en ese caso no se elimina nada).
	Consume(ctx context.Context, code, pkceHash string) (*AuthorizationCode, error)
}
