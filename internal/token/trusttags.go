package token

import (
	"strings"

	"github.com/dropDatabas3/heimdall/internal/observability/logger"
)

// TrustTagPolicy valida y mergea trust tags contra un allow-list fijo.
//
// Política asimétrica a propósito: el schema de claims queda cerrado sobre
// las keys (las desconocidas se descartan en silencio, con log), mientras
// que los permissions son lenientes. Una key fuera del allow-list nunca es
// un error para el caller.
type TrustTagPolicy struct {
	defaults map[string]string
	allowed  map[string]struct{}
}

func NewTrustTagPolicy(defaults map[string]string, allowedKeys []string) TrustTagPolicy {
	allowed := make(map[string]struct{}, len(allowedKeys))
	for _, k := range allowedKeys {
		allowed[k] = struct{}{}
	}
	// Copia defensiva: el policy es inmutable después de construido
	d := make(map[string]string, len(defaults))
	for k, v := range defaults {
		d[k] = v
	}
	return TrustTagPolicy{defaults: d, allowed: allowed}
}

// Merge arma el set final de trust tags: defaults primero, después cada
// override cuya key esté en el allow-list. Devuelve nil si no queda
// ninguno (el claim se omite del token).
func (p TrustTagPolicy) Merge(overrides map[string]string) map[string]string {
	out := make(map[string]string, len(p.defaults)+len(overrides))
	for k, v := range p.defaults {
		out[k] = v
	}
	for k, v := range overrides {
		if _, ok := p.allowed[k]; !ok {
			logger.Named("trusttags").Warn("unsupported trust tag key, skipping", logger.Key(k))
			continue
		}
		out[k] = strings.TrimSpace(v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
