package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/johnauth/internal/domain/repository"
)

// ─── Clients ───

type clientRepo struct{ s *Store }

func (r *clientRepo) FindByClientID(ctx context.Context, clientID string) (out []repository.Client, err error) {
	ctx, end := r.s.startSpan(ctx, "clients.find")
	defer func() { end(err) }()

	rows, err := r.s.pool.Query(ctx,
		`SELECT id, client_id, client_secret, display_name FROM clients WHERE client_id = $1`, clientID)
	if err != nil {
		return nil, fmt.Errorf("pg: query clients: %w", err)
	}
	out, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (repository.Client, error) {
		var c repository.Client
		err := row.Scan(&c.ID, &c.ClientID, &c.ClientSecret, &c.DisplayName)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("pg: scan clients: %w", err)
	}
	return out, nil
}

func (r *clientRepo) Create(ctx context.Context, in repository.ClientInput) (c *repository.Client, err error) {
	ctx, end := r.s.startSpan(ctx, "clients.create")
	defer func() { end(err) }()

	if in.ClientID == "" || in.ClientSecret == "" {
		return nil, repository.ErrInvalidInput
	}
	c = &repository.Client{ClientID: in.ClientID, ClientSecret: in.ClientSecret, DisplayName: in.DisplayName}
	err = r.s.pool.QueryRow(ctx,
		`INSERT INTO clients (client_id, client_secret, display_name) VALUES ($1, $2, $3) RETURNING id`,
		in.ClientID, in.ClientSecret, in.DisplayName,
	).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrConflict
		}
		return nil, fmt.Errorf("pg: insert client: %w", err)
	}
	return c, nil
}

// ─── Users ───

type userRepo struct{ s *Store }

func (r *userRepo) FindByUsername(ctx context.Context, username string) (out []repository.User, err error) {
	ctx, end := r.s.startSpan(ctx, "users.find")
	defer func() { end(err) }()

	rows, err := r.s.pool.Query(ctx,
		`SELECT id, username, password FROM users WHERE username = $1`, username)
	if err != nil {
		return nil, fmt.Errorf("pg: query users: %w", err)
	}
	out, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (repository.User, error) {
		var u repository.User
		err := row.Scan(&u.ID, &u.Username, &u.Password)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("pg: scan users: %w", err)
	}
	return out, nil
}

func (r *userRepo) Create(ctx context.Context, in repository.UserInput) (u *repository.User, err error) {
	ctx, end := r.s.startSpan(ctx, "users.create")
	defer func() { end(err) }()

	if in.Username == "" || in.Password == "" {
		return nil, repository.ErrInvalidInput
	}
	u = &repository.User{Username: in.Username, Password: in.Password}
	err = r.s.pool.QueryRow(ctx,
		`INSERT INTO users (username, password) VALUES ($1, $2) RETURNING id`,
		in.Username, in.Password,
	).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrConflict
		}
		return nil, fmt.Errorf("pg: insert user: %w", err)
	}
	return u, nil
}

// ─── Authorization codes ───

type codeRepo struct{ s *Store }

func (r *codeRepo) Create(ctx context.Context, code repository.AuthorizationCode) (err error) {
	ctx, end := r.s.startSpan(ctx, "codes.create")
	defer func() { end(err) }()

	if code.Code == "" || code.PKCEHash == "" {
		return repository.ErrInvalidInput
	}
	_, err = r.s.pool.Exec(ctx,
		`INSERT INTO authorization_codes (code, user_id, pcke_hash, creation_time)
		 VALUES ($1, $2, $3, COALESCE($4, NOW()))`,
		code.Code, code.UserID, code.PKCEHash, nullIfZero(code.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("pg: insert code: %w", err)
	}
	return nil
}

// Consume borra y devuelve la fila en una sola transacción. Con más de una
// coincidencia se hace rollback y nada se consume.
func (r *codeRepo) Consume(ctx context.Context, code, pkceHash string) (ac *repository.AuthorizationCode, err error) {
	ctx, end := r.s.startSpan(ctx, "codes.consume")
	defer func() { end(err) }()

	tx, err := r.s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("pg: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx,
		`DELETE FROM authorization_codes WHERE code = $1 AND pcke_hash = $2
		 RETURNING code, user_id, pcke_hash, creation_time`,
		code, pkceHash,
	)
	if err != nil {
		return nil, fmt.Errorf("pg: consume code: %w", err)
	}
	deleted, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (repository.AuthorizationCode, error) {
		var c repository.AuthorizationCode
		err := row.Scan(&c.Code, &c.UserID, &c.PKCEHash, &c.CreatedAt)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("pg: scan code: %w", err)
	}

	switch len(deleted) {
	case 0:
		return nil, repository.ErrNotFound
	case 1:
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("pg: commit: %w", err)
		}
		return &deleted[0], nil
	default:
		return nil, repository.ErrAmbiguous
	}
}

// ─── Access tokens ───

type tokenRepo struct{ s *Store }

func (r *tokenRepo) Upsert(ctx context.Context, t repository.AccessToken) (err error) {
	ctx, end := r.s.startSpan(ctx, "tokens.upsert")
	defer func() { end(err) }()

	_, err = r.s.pool.Exec(ctx, `
		INSERT INTO access_tokens
			(access_token, expire_time, user_id, client_id, scope, creation_time, token_type, issuer, device)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT ON CONSTRAINT unique_uid_cid DO UPDATE SET
			access_token  = EXCLUDED.access_token,
			expire_time   = EXCLUDED.expire_time,
			creation_time = EXCLUDED.creation_time,
			scope         = EXCLUDED.scope,
			issuer        = EXCLUDED.issuer,
			device        = EXCLUDED.device`,
		t.Token, t.ExpiresAt, t.UserID, t.ClientID, t.Scope, t.CreatedAt, t.TokenType, t.Issuer, t.Device,
	)
	if err != nil {
		return fmt.Errorf("pg: upsert token: %w", err)
	}
	return nil
}

func (r *tokenRepo) Lookup(ctx context.Context, clientRowID int64, token string) (out *repository.TokenLookup, err error) {
	ctx, end := r.s.startSpan(ctx, "tokens.lookup")
	defer func() { end(err) }()

	out = &repository.TokenLookup{}
	err = r.s.pool.QueryRow(ctx, `
		SELECT a.scope, a.expire_time, a.creation_time, u.username, u.id,
		       c.client_id, c.display_name, a.token_type, a.issuer
		  FROM access_tokens AS a
		  JOIN clients AS c ON a.client_id = c.id
		  LEFT JOIN users AS u ON a.user_id = u.id
		 WHERE a.access_token = $1 AND c.id = $2`,
		token, clientRowID,
	).Scan(&out.Scope, &out.ExpiresAt, &out.CreatedAt, &out.Username, &out.UserID,
		&out.ClientID, &out.DisplayName, &out.TokenType, &out.Issuer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("pg: lookup token: %w", err)
	}
	return out, nil
}
