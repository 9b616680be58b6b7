package router

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/johnauth/internal/domain/repository"
	healthctrl "github.com/dropDatabas3/johnauth/internal/http/controllers/health"
	oauthctrl "github.com/dropDatabas3/johnauth/internal/http/controllers/oauth"
	oauth "github.com/dropDatabas3/johnauth/internal/http/services/oauth"
	tokens "github.com/dropDatabas3/johnauth/internal/security/token"
	"github.com/dropDatabas3/johnauth/internal/store/adapters/memory"
)

const loginURL = "http://login.test/auth"

type env struct {
	handler http.Handler
	store   *memory.Store
	alice   *repository.User
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	st := memory.New(0)

	_, err := st.Clients().Create(ctx, repository.ClientInput{ClientID: "web", ClientSecret: "s3cret"})
	require.NoError(t, err)
	_, err = st.Clients().Create(ctx, repository.ClientInput{ClientID: "other", ClientSecret: "x"})
	require.NoError(t, err)
	alice, err := st.Users().Create(ctx, repository.UserInput{Username: "alice", Password: "wonderland"})
	require.NoError(t, err)

	svcs := oauth.NewServices(oauth.Deps{Store: st, Issuer: "auth.test", CodeTTL: 10 * time.Minute})
	h := New(Deps{
		OAuth:  oauthctrl.NewControllers(svcs, loginURL),
		Health: healthctrl.NewControllers(st),
	})
	return &env{handler: h, store: st, alice: alice}
}

func basic(id, secret string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(id+":"+secret))
}

func (e *env) post(t *testing.T, path, auth string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (e *env) issue(t *testing.T, client, secret string, form url.Values) string {
	t.Helper()
	rec := e.post(t, "/oauth2/token", basic(client, secret), form)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode(t, rec)["access_token"].(string)
}

func TestToken_PasswordGrant(t *testing.T) {
	e := newEnv(t)
	rec := e.post(t, "/oauth2/token", basic("web", "s3cret"), url.Values{
		"grant_type": {"password"}, "username": {"alice"}, "password": {"wonderland"}, "scope": {"read"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	body := decode(t, rec)
	assert.Len(t, body["access_token"], tokens.AccessTokenLength)
	assert.Equal(t, "bearer", body["token_type"])
	assert.EqualValues(t, 2592000, body["expires_in"])
	assert.Equal(t, "read", body["scope"])
}

func TestToken_ScopeNullWhenAbsent(t *testing.T) {
	e := newEnv(t)
	rec := e.post(t, "/oauth2/token", basic("web", "s3cret"), url.Values{"grant_type": {"client_credentials"}})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	v, ok := body["scope"]
	assert.True(t, ok, "scope key present")
	assert.Nil(t, v)
}

func TestToken_Rejections(t *testing.T) {
	e := newEnv(t)
	cases := []struct {
		name string
		auth string
		form url.Values
		msg  string
	}{
		{name: "no header", form: url.Values{"grant_type": {"client_credentials"}}, msg: "Client credentials invalid"},
		{name: "bad client", auth: basic("web", "x"), form: url.Values{"grant_type": {"client_credentials"}}, msg: "client id not found"},
		{name: "bad user", auth: basic("web", "s3cret"), form: url.Values{"grant_type": {"password"}, "username": {"alice"}, "password": {"x"}}, msg: "client or user not found"},
		{name: "bad code", auth: basic("web", "s3cret"), form: url.Values{"grant_type": {"authorization_code"}, "code": {"nope"}, "pcke": {"v"}}, msg: "client id or user id not found"},
		{name: "unsupported", auth: basic("web", "s3cret"), form: url.Values{"grant_type": {"refresh_token"}}, msg: "Unsupported grant type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := e.post(t, "/oauth2/token", tc.auth, tc.form)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, map[string]any{"message": tc.msg}, decode(t, rec))
		})
	}
}

func TestToken_AuthorizationCode(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.store.Codes().Create(context.Background(), repository.AuthorizationCode{
		Code: "abc", UserID: e.alice.ID, PKCEHash: tokens.SHA256Hex("verifier"), CreatedAt: time.Now(),
	}))
	form := url.Values{"grant_type": {"authorization_code"}, "code": {"abc"}, "pcke": {"verifier"}}

	tok := e.issue(t, "web", "s3cret", form)

	rec := e.post(t, "/oauth2/introspect", basic("web", "s3cret"), url.Values{"token": {tok}})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, strconv.FormatInt(e.alice.ID, 10), body["user_id"])

	rec = e.post(t, "/oauth2/token", basic("web", "s3cret"), form)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIntrospect(t *testing.T) {
	e := newEnv(t)
	tok := e.issue(t, "web", "s3cret", url.Values{"grant_type": {"client_credentials"}})

	rec := e.post(t, "/oauth2/introspect", basic("web", "s3cret"), url.Values{"token": {tok}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	body := decode(t, rec)
	assert.Equal(t, true, body["active"])
	assert.Equal(t, "web", body["client_id"])
	assert.Equal(t, "bearer", body["token_type"])
	assert.Equal(t, "auth.test", body["issuer"])
	for _, k := range []string{"username", "user_id", "scope"} {
		v, ok := body[k]
		assert.True(t, ok, k)
		assert.Nil(t, v, k)
	}
	exp, iat := body["exp"].(float64), body["iat"].(float64)
	assert.InDelta(t, (30 * 24 * time.Hour).Seconds(), exp-iat, 1)
}

func TestIntrospect_Errors(t *testing.T) {
	e := newEnv(t)
	tok := e.issue(t, "web", "s3cret", url.Values{"grant_type": {"client_credentials"}})

	rec := e.post(t, "/oauth2/introspect", "", url.Values{"token": {tok}})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Client credentials invalid", decode(t, rec)["message"])

	rec = e.post(t, "/oauth2/introspect", basic("web", "wrong"), url.Values{"token": {tok}})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Client credentials invalid", decode(t, rec)["message"])

	// token de otro client
	rec = e.post(t, "/oauth2/introspect", basic("other", "x"), url.Values{"token": {tok}})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Unknown token", decode(t, rec)["message"])

	rec = e.post(t, "/oauth2/introspect", basic("web", "s3cret"), url.Values{"token": {"nope"}})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthorize_RedirectsToLogin(t *testing.T) {
	e := newEnv(t)
	req := httptest.NewRequest(http.MethodGet,
		"/oauth2/authorize?client_id=web&response_type=code&redirect_uri=https%3A%2F%2Fapp%2Fcb&scope=read&state=xyz", nil)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "login.test", loc.Host)
	assert.Equal(t, "/auth", loc.Path)
	q := loc.Query()
	assert.Equal(t, "web", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "https://app/cb", q.Get("redirect_uri"))
	assert.Equal(t, "read", q.Get("scope"))
	assert.Equal(t, "xyz", q.Get("state"))
}

func TestAuthorize_MissingParams(t *testing.T) {
	e := newEnv(t)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth2/authorize?client_id=web", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout(t *testing.T) {
	e := newEnv(t)
	rec := e.post(t, "/oauth2/logout", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `""`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	for _, path := range []string{"/q/health", "/q/ready"} {
		rec := httptest.NewRecorder()
		e.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, `"UP"`, rec.Body.String())
	}
}

func TestRouting_NotFoundAndMethodNotAllowed(t *testing.T) {
	e := newEnv(t)

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", decode(t, rec)["message"])

	rec = httptest.NewRecorder()
	e.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth2/token", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method not allowed", decode(t, rec)["message"])

	rec = httptest.NewRecorder()
	e.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/q/health", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRecover(t *testing.T) {
	r := New(Deps{})
	// un handler que panickea montado detrás de los middlewares globales
	r.(chi.Router).Get("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", decode(t, rec)["message"])
}
