// Package store provee el registry de adapters del Credential Store Gateway.
//
// Cada adapter (adapters/pg, adapters/memory) se registra en su init();
// el binario los importa en blanco y elige uno por storage.driver.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dropDatabas3/johnauth/internal/domain/repository"
)

// Adapter crea un repository.Store para un backend.
type Adapter interface {
	// Name retorna el nombre del adapter ("postgres", "memory").
	Name() string

	// Connect abre el backend y verifica que responda.
	Connect(ctx context.Context, cfg AdapterConfig) (repository.Store, error)
}

// AdapterConfig configuración para conectar a un almacenamiento.
type AdapterConfig struct {
	// Name del adapter: "postgres" | "memory"
	Name string

	// DSN connection string (postgres)
	DSN string

	// RootCAFile CA opcional para TLS contra Postgres
	RootCAFile string

	// Pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// ConnectRetries intentos de ping al conectar (backoff exponencial)
	ConnectRetries int

	// CodeTTL expiración de authorization codes en el adapter memory (0 = sin expiración)
	CodeTTL time.Duration
}

// ─── Registry Global ───

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// RegisterAdapter registra un adapter en el registry global.
// Llamar en init() de cada adapter.
func RegisterAdapter(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name := a.Name()
	if _, exists := adapters[name]; exists {
		panic(fmt.Sprintf("adapter: %q already registered", name))
	}
	adapters[name] = a
}

// GetAdapter obtiene un adapter por nombre.
func GetAdapter(name string) (Adapter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[name]
	return a, ok
}

// ListAdapters retorna los nombres registrados, ordenados.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open abre un Store usando el adapter indicado en cfg.Name.
func Open(ctx context.Context, cfg AdapterConfig) (repository.Store, error) {
	a, ok := GetAdapter(cfg.Name)
	if !ok {
		return nil, fmt.Errorf("adapter: %q not registered (have %v)", cfg.Name, ListAdapters())
	}
	return a.Connect(ctx, cfg)
}
