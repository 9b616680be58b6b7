// Package health contiene los controllers de health check.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dropDatabas3/johnauth/internal/observability/logger"
)

// Pinger es lo único que el readiness necesita del store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Controllers agrupa todos los controllers del dominio health.
type Controllers struct {
	Health *HealthController
}

// NewControllers crea el agregador de controllers health.
func NewControllers(store Pinger) *Controllers {
	return &Controllers{
		Health: NewHealthController(store),
	}
}

// HealthController expone liveness (/q/health) y readiness (/q/ready).
type HealthController struct {
	store   Pinger
	timeout time.Duration
}

func NewHealthController(store Pinger) *HealthController {
	return &HealthController{store: store, timeout: 2 * time.Second}
}

// Health responde siempre "UP" mientras el proceso atienda requests.
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	write(w, http.StatusOK, "UP")
}

// Ready hace ping al store; 503 "DOWN" si no responde.
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()
	if c.store != nil {
		if err := c.store.Ping(ctx); err != nil {
			logger.From(ctx).Warn("readiness check failed", logger.Component("health"), logger.Err(err))
			write(w, http.StatusServiceUnavailable, "DOWN")
			return
		}
	}
	write(w, http.StatusOK, "UP")
}

func write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
