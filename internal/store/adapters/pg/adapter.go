// Package pg implementa el Credential Store Gateway sobre PostgreSQL (pgxpool).
package pg

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dropDatabas3/johnauth/internal/domain/repository"
	"github.com/dropDatabas3/johnauth/internal/observability/logger"
	"github.com/dropDatabas3/johnauth/internal/store"
	"github.com/dropDatabas3/johnauth/internal/util"
)

func init() {
	store.RegisterAdapter(&postgresAdapter{})
}

const tracerName = "github.com/dropDatabas3/johnauth/internal/store/adapters/pg"

// pgUniqueViolation es el SQLSTATE de unique_violation.
const pgUniqueViolation = "23505"

// postgresAdapter implementa store.Adapter para PostgreSQL.
type postgresAdapter struct{}

func (a *postgresAdapter) Name() string { return "postgres" }

func (a *postgresAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (repository.Store, error) {
	log := logger.From(ctx).With(logger.Layer("store"), logger.Driver("postgres"))

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}

	// Configurar pool
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	} else {
		poolCfg.MaxConns = 10
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	} else {
		poolCfg.MinConns = 2
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	// CA propia: si no se puede leer se sigue con la config TLS del DSN
	if cfg.RootCAFile != "" {
		tlsCfg, err := loadRootCA(cfg.RootCAFile, poolCfg.ConnConfig.Host)
		if err != nil {
			log.Warn("root CA not usable, continuing without it", logger.String("file", cfg.RootCAFile), logger.Err(err))
		} else {
			poolCfg.ConnConfig.TLSConfig = tlsCfg
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}

	tries := cfg.ConnectRetries
	if tries <= 0 {
		tries = 1
	}
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, pool.Ping(ctx)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(tries)),
		backoff.WithNotify(func(err error, d time.Duration) {
			log.Warn("postgres not ready, retrying", logger.Err(err), logger.Any("retry_in", d))
		}),
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}

	log.Info("postgres connected",
		logger.String("dsn", util.MaskDSN(cfg.DSN)),
		logger.Int("max_conns", int(poolCfg.MaxConns)),
	)
	return NewStore(pool), nil
}

func loadRootCA(path, serverName string) (*tls.Config, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	roots := x509.NewCertPool()
	if !roots.AppendCertsFromPEM(pem) {
		return nil, errors.New("no certificates found in PEM")
	}
	return &tls.Config{RootCAs: roots, ServerName: serverName, MinVersion: tls.VersionTLS12}, nil
}

// Store es el repository.Store respaldado por un pgxpool.
type Store struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

// NewStore envuelve un pool existente.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, tracer: otel.Tracer(tracerName)}
}

func (s *Store) Driver() string { return "postgres" }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Pool expone el pool (métricas de conexiones).
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// SQLDB implementa store.MigratableStore.
func (s *Store) SQLDB() *sql.DB { return stdlib.OpenDBFromPool(s.pool) }

func (s *Store) Clients() repository.ClientRepository { return &clientRepo{s} }
func (s *Store) Users() repository.UserRepository     { return &userRepo{s} }
func (s *Store) Codes() repository.CodeRepository     { return &codeRepo{s} }
func (s *Store) Tokens() repository.TokenRepository   { return &tokenRepo{s} }

// startSpan abre un span "store.<op>"; end registra el error si lo hubo.
func (s *Store) startSpan(ctx context.Context, op string) (context.Context, func(error)) {
	ctx, span := s.tracer.Start(ctx, "store."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("operation", op),
		))
	return ctx, func(err error) {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
