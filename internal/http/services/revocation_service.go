package services

import (
	"context"
	"time"

	"github.com/dropDatabas3/heimdall/internal/cache"
	httperrors "github.com/dropDatabas3/heimdall/internal/http/errors"
	"github.com/dropDatabas3/heimdall/internal/observability/logger"
	"github.com/dropDatabas3/heimdall/internal/observability/metrics"
	"github.com/dropDatabas3/heimdall/internal/revocation"
	"github.com/dropDatabas3/heimdall/internal/store/core"
)

// RevocationService orquesta el chequeo de ownership + revoke, y las
// consultas de estado con cache.
type RevocationService struct {
	registry *revocation.Registry
	ledger   core.TokenLedger

	// statusCache cachea SOLO el estado Revoked (terminal, nunca vuelve
	// a active); NotRevoked jamás se cachea para no retrasar la
	// visibilidad de una revocación fresca.
	statusCache cache.Cache
	cacheTTL    time.Duration
}

func NewRevocationService(registry *revocation.Registry, ledger core.TokenLedger, statusCache cache.Cache, cacheTTL time.Duration) *RevocationService {
	return &RevocationService{
		registry:    registry,
		ledger:      ledger,
		statusCache: statusCache,
		cacheTTL:    cacheTTL,
	}
}

// Revoke aplica la regla de ownership y revoca.
// Errores mapeables: ErrNotTokenOwner (403), ErrRevocationLookup (500).
func (s *RevocationService) Revoke(ctx context.Context, owner, jti string) error {
	if jti == "" {
		return httperrors.ErrBadRequest.WithDetail("jti is required")
	}

	switch s.registry.CanRevoke(ctx, owner, jti) {
	case revocation.DecisionLookupFailed:
		return httperrors.ErrRevocationLookup
	case revocation.Denied:
		logger.From(ctx).Warn("revoke denied: not owner",
			logger.Owner(owner), logger.JTI(jti))
		return httperrors.ErrNotTokenOwner
	}

	// Re-chequeado arriba en cada llamada; la ventana entre CanRevoke y
	// Revoke es inofensiva porque Revoke es idempotente.
	var originalExp *time.Time
	if rec, err := s.ledger.GetByJTI(ctx, jti); err == nil {
		exp := rec.ExpiresAt
		originalExp = &exp
	}

	if err := s.registry.Revoke(ctx, jti, owner, originalExp); err != nil {
		return httperrors.ErrInternalServerError.WithCause(err)
	}
	return nil
}

// Status responde la consulta pública de revocación.
// LookupFailed vuelve como error 500: jamás se coerciona a "no revocado".
func (s *RevocationService) Status(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, httperrors.ErrBadRequest.WithDetail("jti query parameter is required")
	}

	if s.statusCache != nil {
		if _, ok := s.statusCache.Get(statusCacheKey(jti)); ok {
			metrics.RecordRevocationCheck("revoked")
			return true, nil
		}
	}

	switch s.registry.IsRevoked(ctx, jti) {
	case revocation.Revoked:
		if s.statusCache != nil {
			s.statusCache.Set(statusCacheKey(jti), []byte("1"), s.cacheTTL)
		}
		metrics.RecordRevocationCheck("revoked")
		return true, nil
	case revocation.NotRevoked:
		metrics.RecordRevocationCheck("not_revoked")
		return false, nil
	default:
		metrics.RecordRevocationCheck("lookup_failed")
		return false, httperrors.ErrRevocationLookup
	}
}

func statusCacheKey(jti string) string { return "revoked:" + jti }

// ListTokens devuelve los tokens emitidos por el owner autenticado.
func (s *RevocationService) ListTokens(ctx context.Context, owner string, status core.TokenStatus, limit int) ([]core.IssuedTokenRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	recs, err := s.ledger.ListForOwner(ctx, owner, status, limit)
	if err != nil {
		return nil, httperrors.ErrInternalServerError.WithCause(err)
	}
	return recs, nil
}

// ListRevoked devuelve las revocaciones del owner, enriquecidas.
func (s *RevocationService) ListRevoked(ctx context.Context, owner string, limit int) ([]core.RevokedTokenView, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	views, err := s.registry.ListRevoked(ctx, owner, limit)
	if err != nil {
		return nil, httperrors.ErrInternalServerError.WithCause(err)
	}
	return views, nil
}
