// Package revocation mantiene el ledger de ATKs revocados y la regla de
// autorización por ownership: un token solo lo puede revocar la identidad
// que lo emitió. No hay override administrativo.
package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/dropDatabas3/heimdall/internal/observability/logger"
	"github.com/dropDatabas3/heimdall/internal/store/core"
)

// Status es el resultado tri-estado de una consulta de revocación.
// LookupFailed es distinto de NotRevoked a propósito: un caller que toma
// decisiones de confianza tiene que fallar cerrado ante LookupFailed;
// colapsarlo a "no revocado" es un bug de seguridad.
type Status int

const (
	NotRevoked Status = iota
	Revoked
	StatusLookupFailed
)

func (s Status) String() string {
	switch s {
	case NotRevoked:
		return "not_revoked"
	case Revoked:
		return "revoked"
	default:
		return "lookup_failed"
	}
}

// Decision es el resultado tri-estado del chequeo de ownership.
type Decision int

const (
	Denied Decision = iota
	Allowed
	DecisionLookupFailed
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case Denied:
		return "denied"
	default:
		return "lookup_failed"
	}
}

var errEmptyJTI = errors.New("empty jti")

// Registry responde consultas de revocación y aplica la regla de ownership
// cruzando contra el ledger de emisión.
type Registry struct {
	revocations core.RevocationStore
	ledger      core.TokenLedger
}

func NewRegistry(revocations core.RevocationStore, ledger core.TokenLedger) *Registry {
	return &Registry{revocations: revocations, ledger: ledger}
}

// Revoke upsertea la entrada de revocación para jti. Idempotente: revocar
// un jti ya revocado actualiza revoked_at y devuelve éxito. Después del
// upsert propaga status=revoked al ledger de emisión (best-effort).
//
// Revoke NO chequea ownership; el caller tiene que haber pasado por
// CanRevoke antes. Separado para que el handler distinga 403 de 500.
func (r *Registry) Revoke(ctx context.Context, jti, owner string, originalExp *time.Time) error {
	if jti == "" {
		return errEmptyJTI
	}
	log := logger.From(ctx).Named("revocation")

	entry := &core.RevocationEntry{
		JTI:         jti,
		RevokedAt:   time.Now().UTC(),
		RevokedBy:   owner,
		OriginalExp: originalExp,
	}
	if err := r.revocations.Upsert(ctx, entry); err != nil {
		return err
	}
	log.Info("jti revoked", logger.JTI(jti), logger.Owner(owner))

	// Propagación best-effort al ledger; el registro de revocación ya es
	// la fuente de verdad, esto es solo el índice de display.
	if err := r.ledger.UpdateStatus(ctx, jti, core.TokenRevoked); err != nil && !errors.Is(err, core.ErrNotFound) {
		log.Warn("ledger status propagation failed", logger.Err(err), logger.JTI(jti))
	}
	return nil
}

// IsRevoked consulta el estado de revocación de un jti.
// Un fallo de storage devuelve StatusLookupFailed, nunca NotRevoked.
func (r *Registry) IsRevoked(ctx context.Context, jti string) Status {
	if jti == "" {
		return StatusLookupFailed
	}
	_, err := r.revocations.Find(ctx, jti)
	switch {
	case err == nil:
		return Revoked
	case errors.Is(err, core.ErrNotFound):
		return NotRevoked
	default:
		logger.From(ctx).Named("revocation").Error("revocation lookup failed",
			logger.Err(err), logger.JTI(jti))
		return StatusLookupFailed
	}
}

// CanRevoke resuelve el IssuedTokenRecord del jti y compara owners.
// Un jti desconocido es Denied (nadie puede revocar por esta vía un token
// que el ledger no conoce); un fallo de storage es DecisionLookupFailed.
func (r *Registry) CanRevoke(ctx context.Context, owner, jti string) Decision {
	if jti == "" || owner == "" {
		return Denied
	}
	rec, err := r.ledger.GetByJTI(ctx, jti)
	switch {
	case errors.Is(err, core.ErrNotFound):
		return Denied
	case err != nil:
		logger.From(ctx).Named("revocation").Error("ownership lookup failed",
			logger.Err(err), logger.JTI(jti))
		return DecisionLookupFailed
	case rec.Owner == owner:
		return Allowed
	default:
		return Denied
	}
}

// ListRevoked devuelve entradas de revocación enriquecidas con aid/
// audience/purpose del ledger. Si owner no es vacío, solo las de tokens
// emitidos por ese owner. Vista de display, fuera del camino de confianza.
func (r *Registry) ListRevoked(ctx context.Context, owner string, limit int) ([]core.RevokedTokenView, error) {
	entries, err := r.revocations.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]core.RevokedTokenView, 0, len(entries))
	for _, e := range entries {
		view := core.RevokedTokenView{RevocationEntry: e}
		rec, err := r.ledger.GetByJTI(ctx, e.JTI)
		if err == nil {
			if owner != "" && rec.Owner != owner {
				continue
			}
			view.AID = rec.AID
			view.Audience = rec.Audience
			view.Purpose = rec.Purpose
		} else if owner != "" {
			// Sin registro de emisión no se puede asegurar el owner
			continue
		}
		out = append(out, view)
	}
	return out, nil
}
