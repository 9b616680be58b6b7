package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"

	"github.com/dropDatabas3/johnauth/internal/domain/repository"
	"github.com/dropDatabas3/johnauth/internal/observability/logger"
	migrations "github.com/dropDatabas3/johnauth/migrations/postgres"
)

// MigratableStore lo implementan los stores respaldados por SQL.
type MigratableStore interface {
	// SQLDB expone un *sql.DB sobre el mismo pool para goose.
	SQLDB() *sql.DB
}

// Migrate aplica el schema embebido. Los stores sin SQL (memory) son no-op.
// Retorna las versiones aplicadas en esta corrida.
func Migrate(ctx context.Context, s repository.Store) ([]int64, error) {
	log := logger.From(ctx).With(logger.Layer("store"), logger.Op("migrate"), logger.Driver(s.Driver()))

	ms, ok := s.(MigratableStore)
	if !ok {
		log.Info("store has no schema, skipping migrations")
		return nil, nil
	}

	db := ms.SQLDB()
	defer db.Close() // no cierra el pool subyacente

	provider, err := goose.NewProvider(database.DialectPostgres, db, migrations.FS)
	if err != nil {
		return nil, fmt.Errorf("failed to create goose provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	applied := make([]int64, 0, len(results))
	for _, r := range results {
		applied = append(applied, r.Source.Version)
		log.Info("migration applied",
			logger.Any("version", r.Source.Version),
			logger.Any("duration", r.Duration),
		)
	}
	if len(applied) == 0 {
		log.Info("schema up to date")
	}
	return applied, nil
}

// MigrationStatus describe una migración conocida y si está aplicada.
type MigrationStatus struct {
	Version int64
	Applied bool
}

// Status lista el estado de cada migración embebida.
func Status(ctx context.Context, s repository.Store) ([]MigrationStatus, error) {
	ms, ok := s.(MigratableStore)
	if !ok {
		return nil, nil
	}
	db := ms.SQLDB()
	defer db.Close()

	provider, err := goose.NewProvider(database.DialectPostgres, db, migrations.FS)
	if err != nil {
		return nil, fmt.Errorf("failed to create goose provider: %w", err)
	}
	st, err := provider.Status(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]MigrationStatus, 0, len(st))
	for _, m := range st {
		out = append(out, MigrationStatus{
			Version: m.Source.Version,
			Applied: m.State == goose.StateApplied,
		})
	}
	return out, nil
}
