// Package app arma la aplicación: store, services, controllers y router.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dropDatabas3/johnauth/internal/config"
	"github.com/dropDatabas3/johnauth/internal/domain/repository"
	healthctrl "github.com/dropDatabas3/johnauth/internal/http/controllers/health"
	oauthctrl "github.com/dropDatabas3/johnauth/internal/http/controllers/oauth"
	"github.com/dropDatabas3/johnauth/internal/http/router"
	oauth "github.com/dropDatabas3/johnauth/internal/http/services/oauth"
	"github.com/dropDatabas3/johnauth/internal/observability/logger"
	"github.com/dropDatabas3/johnauth/internal/observability/metrics"
	"github.com/dropDatabas3/johnauth/internal/store"
)

// Deps permite inyectar piezas ya construidas (tests). Lo que quede en nil
// se construye desde la configuración.
type Deps struct {
	Store    repository.Store
	Registry *prometheus.Registry
}

// App represents the wired application.
type App struct {
	Handler http.Handler
	Store   repository.Store
	cfg     *config.Config
}

// New creates and wires the application.
func New(ctx context.Context, cfg *config.Config, deps Deps) (*App, error) {
	log := logger.From(ctx).With(logger.Component("app"))

	// 1. Store
	st := deps.Store
	if st == nil {
		var err error
		st, err = OpenStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	// 2. Schema
	if cfg.Flags.Migrate {
		if _, err := store.Migrate(ctx, st); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("bootstrap schema: %w", err)
		}
	}

	// 3. Services
	svcs := oauth.NewServices(oauth.Deps{
		Store:   st,
		Issuer:  cfg.Server.Name,
		CodeTTL: cfg.OAuth.CodeTTL,
	})

	// 4. Metrics (opcional)
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		mcfg := metrics.Config{}
		if deps.Registry != nil {
			mcfg.Registry = deps.Registry
			mcfg.Gatherer = deps.Registry
		}
		if p, ok := st.(interface{ Pool() *pgxpool.Pool }); ok {
			mcfg.Pool = p.Pool
		}
		h, err := metrics.Register(mcfg)
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		metricsHandler = h
	}

	// 5. Controllers + routes
	handler := router.New(router.Deps{
		OAuth:   oauthctrl.NewControllers(svcs, cfg.OAuth.LoginURL),
		Health:  healthctrl.NewControllers(st),
		Metrics: metricsHandler,
	})

	log.Info("app wired",
		logger.Driver(st.Driver()),
		logger.String("issuer", cfg.Server.Name),
		logger.Bool("metrics", cfg.Metrics.Enabled),
	)
	return &App{Handler: handler, Store: st, cfg: cfg}, nil
}

// OpenStore abre el store configurado en storage.driver.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	st, err := store.Open(ctx, store.AdapterConfig{
		Name:            cfg.Storage.Driver,
		DSN:             cfg.Storage.DSN,
		RootCAFile:      cfg.Storage.RootCAFile,
		MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime(),
		ConnectRetries:  cfg.Storage.ConnectRetries,
		CodeTTL:         cfg.OAuth.CodeTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", cfg.Storage.Driver, err)
	}
	return st, nil
}

// Server devuelve el http.Server configurado (timeouts del config).
func (a *App) Server() *http.Server {
	return &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           a.Handler,
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: a.cfg.Server.ReadTimeout,
		WriteTimeout:      a.cfg.Server.WriteTimeout,
	}
}

// Close libera el store.
func (a *App) Close() error {
	return a.Store.Close()
}
