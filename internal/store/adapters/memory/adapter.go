// Package memory implementa el Credential Store Gateway sobre go-cache.
// Pensado para dev y tests: nada se persiste entre procesos.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/johnauth/internal/domain/repository"
	"github.com/dropDatabas3/johnauth/internal/store"
)

func init() {
	store.RegisterAdapter(&memoryAdapter{})
}

type memoryAdapter struct{}

func (a *memoryAdapter) Name() string { return "memory" }

func (a *memoryAdapter) Connect(_ context.Context, cfg store.AdapterConfig) (repository.Store, error) {
	return New(cfg.CodeTTL), nil
}

// Store guarda cada entidad en su propio cache. mu serializa las
// operaciones de varios pasos (consume, upsert, create) para que sean atómicas.
type Store struct {
	mu      sync.Mutex
	clients *gocache.Cache // "id:<n>" -> Client, "cid:<client_id>" -> int64
	users   *gocache.Cache // "id:<n>" -> User, "name:<username>" -> int64
	codes   *gocache.Cache // code -> AuthorizationCode
	tokens  *gocache.Cache // "tok:<token>" -> AccessToken, "pair:<uid>:<cid>" -> token

	codeTTL time.Duration
	seq     atomic.Int64
}

// New crea un store vacío. codeTTL > 0 hace que los códigos expiren solos.
func New(codeTTL time.Duration) *Store {
	codeExp := gocache.NoExpiration
	if codeTTL > 0 {
		codeExp = codeTTL
	}
	return &Store{
		clients: gocache.New(gocache.NoExpiration, 0),
		users:   gocache.New(gocache.NoExpiration, 0),
		codes:   gocache.New(codeExp, time.Minute),
		tokens:  gocache.New(gocache.NoExpiration, 0),
		codeTTL: codeTTL,
	}
}

func (s *Store) Driver() string                 { return "memory" }
func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }
func (s *Store) Close() error                   { return nil }

func (s *Store) Clients() repository.ClientRepository { return (*clientRepo)(s) }
func (s *Store) Users() repository.UserRepository     { return (*userRepo)(s) }
func (s *Store) Codes() repository.CodeRepository     { return (*codeRepo)(s) }
func (s *Store) Tokens() repository.TokenRepository   { return (*tokenRepo)(s) }

func idKey(id int64) string { return "id:" + strconv.FormatInt(id, 10) }

func pairKey(userID *int64, clientID int64) string {
	uid := "-"
	if userID != nil {
		uid = strconv.FormatInt(*userID, 10)
	}
	return fmt.Sprintf("pair:%s:%d", uid, clientID)
}

// ─── Clients ───

type clientRepo Store

func (r *clientRepo) FindByClientID(ctx context.Context, clientID string) ([]repository.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, ok := r.clients.Get("cid:" + clientID)
	if !ok {
		return nil, nil
	}
	c, ok := r.clients.Get(idKey(v.(int64)))
	if !ok {
		return nil, nil
	}
	return []repository.Client{c.(repository.Client)}, nil
}

func (r *clientRepo) Create(ctx context.Context, in repository.ClientInput) (*repository.Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if in.ClientID == "" || in.ClientSecret == "" {
		return nil, repository.ErrInvalidInput
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.clients.Get("cid:" + in.ClientID); exists {
		return nil, repository.ErrConflict
	}
	c := repository.Client{
		ID:           r.seq.Add(1),
		ClientID:     in.ClientID,
		ClientSecret: in.ClientSecret,
		DisplayName:  in.DisplayName,
	}
	r.clients.SetDefault(idKey(c.ID), c)
	r.clients.SetDefault("cid:"+c.ClientID, c.ID)
	return &c, nil
}

func (r *clientRepo) byID(id int64) (repository.Client, bool) {
	v, ok := r.clients.Get(idKey(id))
	if !ok {
		return repository.Client{}, false
	}
	return v.(repository.Client), true
}

// ─── Users ───

type userRepo Store

func (r *userRepo) FindByUsername(ctx context.Context, username string) ([]repository.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, ok := r.users.Get("name:" + username)
	if !ok {
		return nil, nil
	}
	u, ok := r.users.Get(idKey(v.(int64)))
	if !ok {
		return nil, nil
	}
	return []repository.User{u.(repository.User)}, nil
}

func (r *userRepo) Create(ctx context.Context, in repository.UserInput) (*repository.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if in.Username == "" || in.Password == "" {
		return nil, repository.ErrInvalidInput
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users.Get("name:" + in.Username); exists {
		return nil, repository.ErrConflict
	}
	u := repository.User{ID: r.seq.Add(1), Username: in.Username, Password: in.Password}
	r.users.SetDefault(idKey(u.ID), u)
	r.users.SetDefault("name:"+u.Username, u.ID)
	return &u, nil
}

func (r *userRepo) byID(id int64) (repository.User, bool) {
	v, ok := r.users.Get(idKey(id))
	if !ok {
		return repository.User{}, false
	}
	return v.(repository.User), true
}

// ─── Authorization codes ───

type codeRepo Store

func (r *codeRepo) Create(ctx context.Context, code repository.AuthorizationCode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if code.Code == "" || code.PKCEHash == "" {
		return repository.ErrInvalidInput
	}
	if code.CreatedAt.IsZero() {
		code.CreatedAt = time.Now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.codes.Get(code.Code); exists {
		return repository.ErrConflict
	}
	r.codes.SetDefault(code.Code, code)
	return nil
}

func (r *codeRepo) Consume(ctx context.Context, code, pkceHash string) (*repository.AuthorizationCode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.codes.Get(code)
	if !ok {
		return nil, repository.ErrNotFound
	}
	ac := v.(repository.AuthorizationCode)
	if ac.PKCEHash != pkceHash {
		return nil, repository.ErrNotFound
	}
	r.codes.Delete(code)
	return &ac, nil
}

// ─── Access tokens ───

type tokenRepo Store

func (r *tokenRepo) Upsert(ctx context.Context, t repository.AccessToken) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.Token == "" {
		return repository.ErrInvalidInput
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	pk := pairKey(t.UserID, t.ClientID)
	if old, ok := r.tokens.Get(pk); ok {
		r.tokens.Delete("tok:" + old.(string))
	}
	r.tokens.SetDefault("tok:"+t.Token, t)
	r.tokens.SetDefault(pk, t.Token)
	return nil
}

func (r *tokenRepo) Lookup(ctx context.Context, clientRowID int64, token string) (*repository.TokenLookup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.tokens.Get("tok:" + token)
	if !ok {
		return nil, repository.ErrNotFound
	}
	t := v.(repository.AccessToken)
	if t.ClientID != clientRowID {
		return nil, repository.ErrNotFound
	}
	c, ok := (*clientRepo)(r).byID(t.ClientID)
	if !ok {
		return nil, repository.ErrNotFound
	}

	out := &repository.TokenLookup{
		ClientID:    c.ClientID,
		DisplayName: c.DisplayName,
		Scope:       t.Scope,
		TokenType:   t.TokenType,
		Issuer:      t.Issuer,
		CreatedAt:   t.CreatedAt,
		ExpiresAt:   t.ExpiresAt,
	}
	// left join: un user borrado deja username/user_id en null
	if t.UserID != nil {
		if u, ok := (*userRepo)(r).byID(*t.UserID); ok {
			name, id := u.Username, u.ID
			out.Username, out.UserID = &name, &id
		}
	}
	return out, nil
}
