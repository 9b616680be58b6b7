package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
)

// AccessTokenLength es la longitud fija de un access token opaco.
const AccessTokenLength = 128

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateAccessToken genera un token de AccessTokenLength caracteres [A-Za-z0-9]
// usando crypto/rand (≈762 bits de entropía).
func GenerateAccessToken() (string, error) {
	return GenerateAlphanumeric(AccessTokenLength)
}

// GenerateAlphanumeric genera n caracteres uniformes sobre [A-Za-z0-9].
func GenerateAlphanumeric(n int) (string, error) {
	limit := big.NewInt(int64(len(alphanumeric)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		out[i] = alphanumeric[idx.Int64()]
	}
	return string(out), nil
}

// SHA256Hex devuelve sha256(input) en hexadecimal minúscula (challenge PKCE).
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
