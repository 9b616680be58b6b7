// Package storetest contiene el contrato que todo adapter de store debe cumplir.
// Cada adapter lo corre desde su propio _test.go.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/johnauth/internal/domain/repository"
	tokens "github.com/dropDatabas3/johnauth/internal/security/token"
)

// Run ejecuta el contrato contra el store devuelto por open. Los nombres
// llevan un sufijo aleatorio para poder correr sobre una base compartida.
func Run(t *testing.T, open func(t *testing.T) repository.Store) {
	t.Run("clients", func(t *testing.T) { testClients(t, open(t)) })
	t.Run("users", func(t *testing.T) { testUsers(t, open(t)) })
	t.Run("codes", func(t *testing.T) { testCodes(t, open(t)) })
	t.Run("tokens", func(t *testing.T) { testTokens(t, open(t)) })
}

func unique(t *testing.T, prefix string) string {
	t.Helper()
	s, err := tokens.GenerateAlphanumeric(10)
	require.NoError(t, err)
	return prefix + "-" + s
}

func testClients(t *testing.T, st repository.Store) {
	ctx := context.Background()
	id := unique(t, "client")

	found, err := st.Clients().FindByClientID(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, found)

	c, err := st.Clients().Create(ctx, repository.ClientInput{ClientID: id, ClientSecret: "s", DisplayName: "App"})
	require.NoError(t, err)
	assert.NotZero(t, c.ID)

	found, err = st.Clients().FindByClientID(ctx, id)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, *c, found[0])

	_, err = st.Clients().Create(ctx, repository.ClientInput{ClientID: id, ClientSecret: "other"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	_, err = st.Clients().Create(ctx, repository.ClientInput{ClientID: unique(t, "client")})
	assert.ErrorIs(t, err, repository.ErrInvalidInput)
}

func testUsers(t *testing.T, st repository.Store) {
	ctx := context.Background()
	name := unique(t, "user")

	u, err := st.Users().Create(ctx, repository.UserInput{Username: name, Password: "pw"})
	require.NoError(t, err)

	found, err := st.Users().FindByUsername(ctx, name)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, u.ID, found[0].ID)
	assert.Equal(t, "pw", found[0].Password)

	_, err = st.Users().Create(ctx, repository.UserInput{Username: name, Password: "pw2"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	found, err = st.Users().FindByUsername(ctx, unique(t, "nobody"))
	require.NoError(t, err)
	assert.Empty(t, found)
}

func testCodes(t *testing.T, st repository.Store) {
	ctx := context.Background()
	u, err := st.Users().Create(ctx, repository.UserInput{Username: unique(t, "owner"), Password: "pw"})
	require.NoError(t, err)

	code := unique(t, "code")
	hash := tokens.SHA256Hex("verifier")
	created := time.Now().UTC().Add(-time.Minute).Truncate(time.Microsecond)
	require.NoError(t, st.Codes().Create(ctx, repository.AuthorizationCode{
		Code: code, UserID: u.ID, PKCEHash: hash, CreatedAt: created,
	}))

	_, err = st.Codes().Consume(ctx, code, tokens.SHA256Hex("wrong"))
	require.ErrorIs(t, err, repository.ErrNotFound)

	ac, err := st.Codes().Consume(ctx, code, hash)
	require.NoError(t, err)
	assert.Equal(t, u.ID, ac.UserID)
	assert.True(t, created.Equal(ac.CreatedAt), "created_at round-trips")

	_, err = st.Codes().Consume(ctx, code, hash)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func testTokens(t *testing.T, st repository.Store) {
	ctx := context.Background()
	c, err := st.Clients().Create(ctx, repository.ClientInput{ClientID: unique(t, "tc"), ClientSecret: "s", DisplayName: "Tokens"})
	require.NoError(t, err)
	other, err := st.Clients().Create(ctx, repository.ClientInput{ClientID: unique(t, "tc"), ClientSecret: "s"})
	require.NoError(t, err)
	u, err := st.Users().Create(ctx, repository.UserInput{Username: unique(t, "tu"), Password: "pw"})
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	scope := "read"
	row := func(tok string, uid *int64) repository.AccessToken {
		return repository.AccessToken{
			Token: tok, ClientID: c.ID, UserID: uid, Scope: &scope, TokenType: "bearer",
			Issuer: "test", Device: "unknown", CreatedAt: now, ExpiresAt: now.Add(time.Hour),
		}
	}

	first, second := unique(t, "tok"), unique(t, "tok")
	require.NoError(t, st.Tokens().Upsert(ctx, row(first, &u.ID)))
	require.NoError(t, st.Tokens().Upsert(ctx, row(second, &u.ID)))

	// el segundo reemplaza al primero para el mismo par
	_, err = st.Tokens().Lookup(ctx, c.ID, first)
	require.ErrorIs(t, err, repository.ErrNotFound)

	got, err := st.Tokens().Lookup(ctx, c.ID, second)
	require.NoError(t, err)
	assert.Equal(t, c.ClientID, got.ClientID)
	assert.Equal(t, "Tokens", got.DisplayName)
	require.NotNil(t, got.UserID)
	assert.Equal(t, u.ID, *got.UserID)
	require.NotNil(t, got.Username)
	assert.Equal(t, u.Username, *got.Username)
	require.NotNil(t, got.Scope)
	assert.Equal(t, "read", *got.Scope)
	assert.True(t, now.Add(time.Hour).Equal(got.ExpiresAt))

	// otro client no lo ve
	_, err = st.Tokens().Lookup(ctx, other.ID, second)
	require.ErrorIs(t, err, repository.ErrNotFound)

	// user null también colapsa por client
	cc1, cc2 := unique(t, "tok"), unique(t, "tok")
	require.NoError(t, st.Tokens().Upsert(ctx, row(cc1, nil)))
	require.NoError(t, st.Tokens().Upsert(ctx, row(cc2, nil)))
	_, err = st.Tokens().Lookup(ctx, c.ID, cc1)
	require.ErrorIs(t, err, repository.ErrNotFound)
	got, err = st.Tokens().Lookup(ctx, c.ID, cc2)
	require.NoError(t, err)
	assert.Nil(t, got.UserID)
	assert.Nil(t, got.Username)

	// y no pisa el token del par con usuario
	_, err = st.Tokens().Lookup(ctx, c.ID, second)
	require.NoError(t, err)
}
