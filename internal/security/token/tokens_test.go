package tokens

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

var alnum = regexp.MustCompile(`^[A-Za-z0-9]+$`)

func TestGenerateAccessToken(t *testing.T) {
	seen := make(map[string]struct{}, 50)
	for i := 0; i < 50; i++ {
		tok, err := GenerateAccessToken()
		require.NoError(t, err)
		require.Len(t, tok, AccessTokenLength)
		require.Regexp(t, alnum, tok)
		_, dup := seen[tok]
		require.False(t, dup, "duplicated token")
		seen[tok] = struct{}{}
	}
}

func TestGenerateAlphanumeric_Zero(t *testing.T) {
	s, err := GenerateAlphanumeric(0)
	require.NoError(t, err)
	require.Empty(t, s)
}

func TestSHA256Hex(t *testing.T) {
	// RFC 6234 "abc"
	require.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", SHA256Hex("abc"))
	require.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", SHA256Hex(""))
}
