package middlewares

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/dropDatabas3/heimdall/internal/http/errors"
	"github.com/dropDatabas3/heimdall/internal/observability/logger"
)

// OwnerResolver resuelve la identidad owner de un request autenticado.
// Es el punto de enchufe del colaborador de autenticación externo: el
// resto del servicio solo ve el owner id que sale de acá.
type OwnerResolver interface {
	Resolve(r *http.Request) (owner string, ok bool)
}

// APIKeyResolver implementa OwnerResolver con un mapa estático
// api key -> owner id (config). Suficiente para agent builders de
// confianza; un IdP real entra implementando la misma interfaz.
type APIKeyResolver struct {
	keys map[string]string
}

func NewAPIKeyResolver(keys map[string]string) *APIKeyResolver {
	return &APIKeyResolver{keys: keys}
}

func (a *APIKeyResolver) Resolve(r *http.Request) (string, bool) {
	raw := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(raw, prefix) {
		return "", false
	}
	presented := strings.TrimSpace(raw[len(prefix):])
	if presented == "" {
		return "", false
	}
	// Comparación constant-time contra cada key configurada
	for key, owner := range a.keys {
		if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) == 1 {
			return owner, true
		}
	}
	return "", false
}

// WithAuth exige una identidad owner resuelta; si no hay, 401.
// El owner queda disponible via GetOwner(ctx).
func WithAuth(resolver OwnerResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner, ok := resolver.Resolve(r)
			if !ok {
				logger.From(r.Context()).Debug("auth rejected", logger.Path(r.URL.Path))
				errors.WriteError(w, errors.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
		})
	}
}
