// Package router arma el árbol de rutas del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/heimdall/internal/http/controllers"
	httperrors "github.com/dropDatabas3/heimdall/internal/http/errors"
	mw "github.com/dropDatabas3/heimdall/internal/http/middlewares"
)

// Deps contiene todo lo que el router necesita para registrar rutas.
type Deps struct {
	Controllers *controllers.Controllers

	// Auth es obligatorio: protege issue/revoke/tokens/revoked.
	Auth mw.Middleware
	// RateLimit es opcional; solo aplica al endpoint público de status.
	RateLimit mw.Middleware
	// MetricsHandler es opcional; si es nil no se expone /metrics.
	MetricsHandler http.Handler
}

// New registra todas las rutas y devuelve el handler raíz.
func New(deps Deps) http.Handler {
	c := deps.Controllers
	r := chi.NewRouter()

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	// Rutas públicas: verificación y operación.
	r.Get("/.well-known/jwks.json", c.JWKS.JWKS)
	r.Get("/healthz", c.Health.Healthz)
	r.Get("/readyz", c.Health.Readyz)
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// Status es público pero rate-limiteado: lo golpean los service
	// providers en cada verificación.
	r.Group(func(r chi.Router) {
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit)
		}
		r.Get("/v1/atk/status", c.Status.Status)
	})

	// Rutas autenticadas: solo owners con API key.
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth)
		r.Post("/v1/atk/issue", c.Issue.Issue)
		r.Post("/v1/atk/revoke", c.Revoke.Revoke)
		r.Get("/v1/atk/tokens", c.Tokens.ListTokens)
		r.Get("/v1/atk/revoked", c.Tokens.ListRevoked)
	})

	return r
}
