// Package password compara secretos presentados contra el valor almacenado.
//
// El valor almacenado puede ser texto plano (comparación exacta en tiempo
// constante), un hash bcrypt ($2a$, $2b$, $2y$) o un PHC argon2id.
package password

import (
	"crypto/subtle"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmpty         = errors.New("empty password")
	ErrUnknownScheme = errors.New("unknown hash scheme")
)

// Scheme indica cómo se guarda un secreto nuevo.
type Scheme string

const (
	SchemePlain    Scheme = "plain"
	SchemeBcrypt   Scheme = "bcrypt"
	SchemeArgon2id Scheme = "argon2id"
)

// Matches reporta si presented corresponde a stored.
func Matches(stored, presented string) bool {
	switch {
	case isBcrypt(stored):
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(presented)) == nil
	case strings.HasPrefix(stored, argon2Prefix):
		return verifyArgon2id(presented, stored)
	default:
		return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
	}
}

// Hash prepara plain para persistirlo con el esquema pedido.
func Hash(s Scheme, plain string) (string, error) {
	if plain == "" {
		return "", ErrEmpty
	}
	switch s {
	case SchemePlain, "":
		return plain, nil
	case SchemeBcrypt:
		b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
		if err != nil {
			return "", err
		}
		return string(b), nil
	case SchemeArgon2id:
		return HashArgon2id(DefaultArgon2, plain)
	default:
		return "", ErrUnknownScheme
	}
}

func isBcrypt(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
