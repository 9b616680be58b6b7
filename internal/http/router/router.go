// Package router define las rutas HTTP del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	healthctrl "github.com/dropDatabas3/johnauth/internal/http/controllers/health"
	oauthctrl "github.com/dropDatabas3/johnauth/internal/http/controllers/oauth"
	httperrors "github.com/dropDatabas3/johnauth/internal/http/errors"
	mw "github.com/dropDatabas3/johnauth/internal/http/middlewares"
	"github.com/dropDatabas3/johnauth/internal/observability/metrics"
)

// Deps contiene las dependencias del router.
type Deps struct {
	OAuth  *oauthctrl.Controllers
	Health *healthctrl.Controllers
	// Metrics es el handler de /metrics; nil lo deshabilita.
	Metrics http.Handler
}

// New arma el chi.Router con middlewares globales y todas las rutas.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	// Orden: recover afuera de todo, luego request id para que el logger lo vea.
	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithLogging(),
	)
	if deps.Metrics != nil {
		r.Use(metrics.WithMetrics)
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, req, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httperrors.WriteError(w, req, httperrors.ErrMethodNotAllowed)
	})

	registerOAuthRoutes(r, deps.OAuth)
	registerHealthRoutes(r, deps.Health)

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}
	return r
}

func registerOAuthRoutes(r chi.Router, c *oauthctrl.Controllers) {
	if c == nil {
		return
	}
	r.Route("/oauth2", func(r chi.Router) {
		// token e introspect devuelven secretos: nunca cacheables
		r.With(mw.WithNoStore()).Post("/token", c.Token.Token)
		r.With(mw.WithNoStore()).Post("/introspect", c.Introspect.Introspect)
		r.Post("/logout", c.Logout.Logout)
		r.Get("/authorize", c.Authorize.Authorize)
	})
}

func registerHealthRoutes(r chi.Router, c *healthctrl.Controllers) {
	if c == nil {
		return
	}
	r.Get("/q/health", c.Health.Health)
	r.Get("/q/ready", c.Health.Ready)
}
