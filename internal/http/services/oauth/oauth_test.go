package oauth

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/johnauth/internal/domain/repository"
	dto "github.com/dropDatabas3/johnauth/internal/http/dto/oauth"
	"github.com/dropDatabas3/johnauth/internal/security/password"
	tokens "github.com/dropDatabas3/johnauth/internal/security/token"
	"github.com/dropDatabas3/johnauth/internal/store/adapters/memory"
)

const testIssuer = "auth.test"

func basic(id, secret string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(id+":"+secret))
}

func strPtr(s string) *string { return &s }

type fixture struct {
	store *memory.Store
	svcs  Services
	web   *repository.Client
	other *repository.Client
	alice *repository.User
	clock time.Time
	ctx   context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New(0)

	web, err := st.Clients().Create(ctx, repository.ClientInput{ClientID: "web", ClientSecret: "s3cret", DisplayName: "Web App"})
	require.NoError(t, err)
	other, err := st.Clients().Create(ctx, repository.ClientInput{ClientID: "other", ClientSecret: "x"})
	require.NoError(t, err)

	hashed, err := password.Hash(password.SchemeBcrypt, "wonderland")
	require.NoError(t, err)
	alice, err := st.Users().Create(ctx, repository.UserInput{Username: "alice", Password: hashed})
	require.NoError(t, err)

	f := &fixture{store: st, web: web, other: other, alice: alice, ctx: ctx,
		clock: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	f.svcs = NewServices(Deps{
		Store:   st,
		Issuer:  testIssuer,
		CodeTTL: 10 * time.Minute,
		Now:     func() time.Time { return f.clock },
	})
	return f
}

func (f *fixture) token(t *testing.T, header string, form dto.TokenForm) (*TokenResponse, error) {
	t.Helper()
	return f.svcs.Token.Token(f.ctx, TokenRequest{Authorization: header, Form: form})
}

func requireRejection(t *testing.T, err error, msg string) {
	t.Helper()
	var rej *RejectionError
	require.ErrorAs(t, err, &rej)
	require.Equal(t, msg, rej.Message)
}

func (f *fixture) addCode(t *testing.T, code, verifier string, createdAt time.Time) {
	t.Helper()
	require.NoError(t, f.store.Codes().Create(f.ctx, repository.AuthorizationCode{
		Code:      code,
		UserID:    f.alice.ID,
		PKCEHash:  tokens.SHA256Hex(verifier),
		CreatedAt: createdAt,
	}))
}

func TestParseGrantType(t *testing.T) {
	assert.Equal(t, GrantPassword, ParseGrantType("password"))
	assert.Equal(t, GrantClientCredentials, ParseGrantType("client_credentials"))
	assert.Equal(t, GrantAuthorizationCode, ParseGrantType("authorization_code"))
	assert.Equal(t, GrantUnsupported, ParseGrantType(""))
	assert.Equal(t, GrantUnsupported, ParseGrantType("Password"))
	assert.Equal(t, GrantUnsupported, ParseGrantType("refresh_token"))
}

func TestParseBasic(t *testing.T) {
	cases := []struct {
		name       string
		header     string
		wantID     string
		wantSecret string
		wantErr    bool
	}{
		{name: "ok", header: basic("web", "s3cret"), wantID: "web", wantSecret: "s3cret"},
		{name: "secret with colon", header: basic("web", "a:b:c"), wantID: "web", wantSecret: "a:b:c"},
		{name: "scheme not checked", header: "Bearer " + base64.StdEncoding.EncodeToString([]byte("web:s")), wantID: "web", wantSecret: "s"},
		{name: "empty secret", header: basic("web", ""), wantID: "web", wantSecret: ""},
		{name: "no space", header: "Basic", wantErr: true},
		{name: "bad base64", header: "Basic !!!", wantErr: true},
		{name: "no colon", header: "Basic " + base64.StdEncoding.EncodeToString([]byte("webs3cret")), wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, secret, err := ParseBasic(tc.header)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantID, id)
			assert.Equal(t, tc.wantSecret, secret)
		})
	}
}

func TestToken_PasswordGrant(t *testing.T) {
	f := newFixture(t)

	resp, err := f.token(t, basic("web", "s3cret"), dto.TokenForm{
		GrantType: "password", Username: "alice", Password: "wonderland", Scope: strPtr("read write"),
	})
	require.NoError(t, err)
	assert.Len(t, resp.AccessToken, tokens.AccessTokenLength)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, int64(2592000), resp.ExpiresIn)
	require.NotNil(t, resp.Scope)
	assert.Equal(t, "read write", *resp.Scope)

	res, err := f.svcs.Introspect.Introspect(f.ctx, f.web.ID, resp.AccessToken)
	require.NoError(t, err)
	assert.True(t, res.Active)
	assert.Equal(t, "web", res.ClientID)
	require.NotNil(t, res.Username)
	assert.Equal(t, "alice", *res.Username)
	require.NotNil(t, res.UserID)
	assert.Equal(t, f.alice.ID, *res.UserID)
	assert.Equal(t, testIssuer, res.Issuer)
	assert.Equal(t, f.clock.Unix(), res.Iat)
	assert.Equal(t, f.clock.Add(AccessTokenTTL).Unix(), res.Exp)
}

func TestToken_PasswordGrantRejections(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name   string
		header string
		form   dto.TokenForm
	}{
		{name: "wrong client secret", header: basic("web", "nope"), form: dto.TokenForm{GrantType: "password", Username: "alice", Password: "wonderland"}},
		{name: "wrong password", header: basic("web", "s3cret"), form: dto.TokenForm{GrantType: "password", Username: "alice", Password: "nope"}},
		{name: "unknown user", header: basic("web", "s3cret"), form: dto.TokenForm{GrantType: "password", Username: "bob", Password: "wonderland"}},
		{name: "missing password", header: basic("web", "s3cret"), form: dto.TokenForm{GrantType: "password", Username: "alice"}},
		{name: "malformed header", header: "Basic", form: dto.TokenForm{GrantType: "password", Username: "alice", Password: "wonderland"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := f.token(t, tc.header, tc.form)
			require.Nil(t, resp)
			requireRejection(t, err, MsgPasswordGrantRejected)
		})
	}
}

func TestToken_MissingHeaderAndUnsupportedGrant(t *testing.T) {
	f := newFixture(t)

	_, err := f.token(t, "", dto.TokenForm{GrantType: "client_credentials"})
	requireRejection(t, err, MsgClientCredentialsInvalid)

	_, err = f.token(t, basic("web", "s3cret"), dto.TokenForm{GrantType: "implicit"})
	requireRejection(t, err, MsgUnsupportedGrant)

	_, err = f.token(t, basic("web", "s3cret"), dto.TokenForm{})
	requireRejection(t, err, MsgUnsupportedGrant)
}

func TestToken_ClientCredentials(t *testing.T) {
	f := newFixture(t)

	resp, err := f.token(t, basic("web", "s3cret"), dto.TokenForm{GrantType: "client_credentials"})
	require.NoError(t, err)
	assert.Nil(t, resp.Scope)

	res, err := f.svcs.Introspect.Introspect(f.ctx, f.web.ID, resp.AccessToken)
	require.NoError(t, err)
	assert.True(t, res.Active)
	assert.Nil(t, res.Username)
	assert.Nil(t, res.UserID)
	assert.Nil(t, res.Scope)

	_, err = f.token(t, basic("web", "wrong"), dto.TokenForm{GrantType: "client_credentials"})
	requireRejection(t, err, MsgClientGrantRejected)
}

func TestToken_ReissueReplacesPreviousToken(t *testing.T) {
	f := newFixture(t)
	form := dto.TokenForm{GrantType: "password", Username: "alice", Password: "wonderland"}

	first, err := f.token(t, basic("web", "s3cret"), form)
	require.NoError(t, err)
	second, err := f.token(t, basic("web", "s3cret"), form)
	require.NoError(t, err)
	require.NotEqual(t, first.AccessToken, second.AccessToken)

	_, err = f.svcs.Introspect.Introspect(f.ctx, f.web.ID, first.AccessToken)
	require.ErrorIs(t, err, ErrUnknownToken)

	res, err := f.svcs.Introspect.Introspect(f.ctx, f.web.ID, second.AccessToken)
	require.NoError(t, err)
	assert.True(t, res.Active)

	// client_credentials del mismo client es otro par (user null)
	cc, err := f.token(t, basic("web", "s3cret"), dto.TokenForm{GrantType: "client_credentials"})
	require.NoError(t, err)
	_, err = f.svcs.Introspect.Introspect(f.ctx, f.web.ID, second.AccessToken)
	require.NoError(t, err)
	_, err = f.svcs.Introspect.Introspect(f.ctx, f.web.ID, cc.AccessToken)
	require.NoError(t, err)
}

func TestToken_AuthorizationCode(t *testing.T) {
	f := newFixture(t)
	f.addCode(t, "abc", "verifier-1", f.clock)

	form := dto.TokenForm{GrantType: "authorization_code", Code: "abc", PKCE: "verifier-1", Device: "ios"}

	resp, err := f.token(t, basic("web", "s3cret"), form)
	require.NoError(t, err)

	res, err := f.svcs.Introspect.Introspect(f.ctx, f.web.ID, resp.AccessToken)
	require.NoError(t, err)
	require.NotNil(t, res.UserID)
	assert.Equal(t, f.alice.ID, *res.UserID)

	// un solo uso
	_, err = f.token(t, basic("web", "s3cret"), form)
	requireRejection(t, err, MsgCodeGrantRejected)
}

func TestToken_AuthorizationCodeRejections(t *testing.T) {
	f := newFixture(t)
	f.addCode(t, "abc", "verifier-1", f.clock)

	// verifier incorrecto no consume el código
	_, err := f.token(t, basic("web", "s3cret"), dto.TokenForm{GrantType: "authorization_code", Code: "abc", PKCE: "wrong"})
	requireRejection(t, err, MsgCodeGrantRejected)

	// client inválido tampoco
	_, err = f.token(t, basic("web", "bad"), dto.TokenForm{GrantType: "authorization_code", Code: "abc", PKCE: "verifier-1"})
	requireRejection(t, err, MsgCodeGrantRejected)

	// campos faltantes
	_, err = f.token(t, basic("web", "s3cret"), dto.TokenForm{GrantType: "authorization_code", Code: "abc"})
	requireRejection(t, err, MsgCodeGrantRejected)

	_, err = f.token(t, basic("web", "s3cret"), dto.TokenForm{GrantType: "authorization_code", Code: "abc", PKCE: "verifier-1"})
	require.NoError(t, err)
}

func TestToken_ExpiredCodeIsConsumed(t *testing.T) {
	f := newFixture(t)
	f.addCode(t, "old", "v", f.clock.Add(-11*time.Minute))

	_, err := f.token(t, basic("web", "s3cret"), dto.TokenForm{GrantType: "authorization_code", Code: "old", PKCE: "v"})
	requireRejection(t, err, MsgCodeGrantRejected)

	_, err = f.store.Codes().Consume(f.ctx, "old", tokens.SHA256Hex("v"))
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCodeValidator_ZeroTTLDisablesAgeCheck(t *testing.T) {
	f := newFixture(t)
	f.addCode(t, "ancient", "v", f.clock.Add(-365*24*time.Hour))

	v := NewCodeValidator(f.store.Codes(), 0, func() time.Time { return f.clock })
	uid, err := v.Consume(f.ctx, "ancient", "v")
	require.NoError(t, err)
	assert.Equal(t, f.alice.ID, uid)
}

func TestCodeValidator_ConcurrentRedeemSingleWinner(t *testing.T) {
	f := newFixture(t)
	f.addCode(t, "race", "v", f.clock)
	v := NewCodeValidator(f.store.Codes(), 0, nil)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := v.Consume(f.ctx, "race", "v"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

// ─── fakes para caminos que el store real no produce ───

type ambiguousCodes struct{ repository.CodeRepository }

func (ambiguousCodes) Consume(context.Context, string, string) (*repository.AuthorizationCode, error) {
	return nil, repository.ErrAmbiguous
}

type duplicatedClients struct{ repository.ClientRepository }

func (duplicatedClients) FindByClientID(_ context.Context, id string) ([]repository.Client, error) {
	return []repository.Client{
		{ID: 1, ClientID: id, ClientSecret: "same"},
		{ID: 2, ClientID: id, ClientSecret: "same"},
	}, nil
}

type failingClients struct{ repository.ClientRepository }

func (failingClients) FindByClientID(context.Context, string) ([]repository.Client, error) {
	return nil, errors.New("connection reset")
}

func TestCodeValidator_AmbiguousIsRejected(t *testing.T) {
	v := NewCodeValidator(ambiguousCodes{}, 0, nil)
	_, err := v.Consume(context.Background(), "c", "v")
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestClientAuthenticator_AmbiguousMatch(t *testing.T) {
	a := NewClientAuthenticator(duplicatedClients{})
	_, err := a.Authenticate(context.Background(), basic("dup", "same"))
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestToken_StoreFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	svc := NewTokenService(
		NewClientAuthenticator(failingClients{}),
		NewUserAuthenticator(f.store.Users()),
		NewCodeValidator(f.store.Codes(), 0, nil),
		NewTokenIssuer(f.store.Tokens(), testIssuer, nil),
	)
	_, err := svc.Token(f.ctx, TokenRequest{Authorization: basic("web", "s3cret"), Form: dto.TokenForm{GrantType: "client_credentials"}})
	require.Error(t, err)
	assert.False(t, IsRejection(err))
}

func TestTokenIssuer_EmptyScopeIsKept(t *testing.T) {
	f := newFixture(t)
	issuer := NewTokenIssuer(f.store.Tokens(), testIssuer, func() time.Time { return f.clock }).(*tokenIssuer)
	issuer.generate = func() (string, error) { return "fixed-token", nil }

	resp, err := issuer.Issue(f.ctx, IssueParams{ClientRowID: f.web.ID, Scope: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, "fixed-token", resp.AccessToken)
	require.NotNil(t, resp.Scope)
	assert.Equal(t, "", *resp.Scope)

	res, err := f.svcs.Introspect.Introspect(f.ctx, f.web.ID, "fixed-token")
	require.NoError(t, err)
	require.NotNil(t, res.Scope)
	assert.Equal(t, "", *res.Scope)
}

func TestIntrospect_ScopedToClient(t *testing.T) {
	f := newFixture(t)
	resp, err := f.token(t, basic("web", "s3cret"), dto.TokenForm{GrantType: "client_credentials"})
	require.NoError(t, err)

	_, err = f.svcs.Introspect.Introspect(f.ctx, f.other.ID, resp.AccessToken)
	require.ErrorIs(t, err, ErrUnknownToken)

	_, err = f.svcs.Introspect.Introspect(f.ctx, f.web.ID, "does-not-exist")
	require.ErrorIs(t, err, ErrUnknownToken)

	_, err = f.svcs.Introspect.Introspect(f.ctx, f.web.ID, "")
	require.ErrorIs(t, err, ErrUnknownToken)
}

func TestIntrospect_ExpiredTokenIsInactive(t *testing.T) {
	f := newFixture(t)
	resp, err := f.token(t, basic("web", "s3cret"), dto.TokenForm{GrantType: "client_credentials"})
	require.NoError(t, err)

	f.clock = f.clock.Add(AccessTokenTTL)
	res, err := f.svcs.Introspect.Introspect(f.ctx, f.web.ID, resp.AccessToken)
	require.NoError(t, err)
	assert.False(t, res.Active)
}

type recordingTokens struct {
	repository.TokenRepository
	last repository.AccessToken
}

func (r *recordingTokens) Upsert(ctx context.Context, t repository.AccessToken) error {
	r.last = t
	return r.TokenRepository.Upsert(ctx, t)
}

func TestTokenIssuer_PersistsDeviceAndTokenType(t *testing.T) {
	f := newFixture(t)
	rec := &recordingTokens{TokenRepository: f.store.Tokens()}
	svc := NewTokenService(
		NewClientAuthenticator(f.store.Clients()),
		NewUserAuthenticator(f.store.Users()),
		NewCodeValidator(f.store.Codes(), 0, nil),
		NewTokenIssuer(rec, testIssuer, func() time.Time { return f.clock }),
	)
	call := func(form dto.TokenForm) *TokenResponse {
		t.Helper()
		resp, err := svc.Token(f.ctx, TokenRequest{Authorization: basic("web", "s3cret"), Form: form})
		require.NoError(t, err)
		return resp
	}

	resp := call(dto.TokenForm{GrantType: "client_credentials"})
	assert.Equal(t, resp.AccessToken, rec.last.Token)
	assert.Equal(t, DefaultDevice, rec.last.Device)
	assert.Equal(t, TokenTypeBearer, rec.last.TokenType)
	assert.Equal(t, testIssuer, rec.last.Issuer)
	assert.Equal(t, f.web.ID, rec.last.ClientID)
	assert.Nil(t, rec.last.UserID)
	assert.Equal(t, f.clock.Add(AccessTokenTTL), rec.last.ExpiresAt)

	call(dto.TokenForm{GrantType: "password", Username: "alice", Password: "wonderland", Device: "ios"})
	assert.Equal(t, "ios", rec.last.Device)
	assert.Equal(t, TokenTypeBearer, rec.last.TokenType)
	require.NotNil(t, rec.last.UserID)
	assert.Equal(t, f.alice.ID, *rec.last.UserID)
}

type countingUsers struct {
	repository.UserRepository
	calls atomic.Int32
}

func (c *countingUsers) FindByUsername(ctx context.Context, username string) ([]repository.User, error) {
	c.calls.Add(1)
	return c.UserRepository.FindByUsername(ctx, username)
}

type countingCodes struct {
	repository.CodeRepository
	calls atomic.Int32
}

func (c *countingCodes) Consume(ctx context.Context, code, pkceHash string) (*repository.AuthorizationCode, error) {
	c.calls.Add(1)
	return c.CodeRepository.Consume(ctx, code, pkceHash)
}

func TestToken_MalformedHeaderSkipsUserAndCodeLookup(t *testing.T) {
	f := newFixture(t)
	f.addCode(t, "abc", "verifier-1", f.clock)

	users := &countingUsers{UserRepository: f.store.Users()}
	codes := &countingCodes{CodeRepository: f.store.Codes()}
	svc := NewTokenService(
		NewClientAuthenticator(f.store.Clients()),
		NewUserAuthenticator(users),
		NewCodeValidator(codes, 0, nil),
		NewTokenIssuer(f.store.Tokens(), testIssuer, nil),
	)

	forms := []dto.TokenForm{
		{GrantType: "password", Username: "alice", Password: "wonderland"},
		{GrantType: "authorization_code", Code: "abc", PKCE: "verifier-1"},
	}
	for _, header := range []string{"Basic", "Basic !!!", "Basic d2Vi"} {
		for _, form := range forms {
			_, err := svc.Token(f.ctx, TokenRequest{Authorization: header, Form: form})
			require.Error(t, err, "%s %s", header, form.GrantType)
			assert.True(t, IsRejection(err), "%s %s", header, form.GrantType)
		}
	}
	assert.Zero(t, users.calls.Load())
	assert.Zero(t, codes.calls.Load())

	// el código sigue disponible para un client válido
	_, err := svc.Token(f.ctx, TokenRequest{Authorization: basic("web", "s3cret"), Form: forms[1]})
	require.NoError(t, err)
	assert.Equal(t, int32(1), codes.calls.Load())
}
