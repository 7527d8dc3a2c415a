package services

import (
	"context"
	"fmt"
	"os"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/heimdall/internal/http/dto"
	"github.com/dropDatabas3/heimdall/internal/keys"
	"github.com/dropDatabas3/heimdall/internal/observability/logger"
)

// HealthDeps contiene las dependencias inyectables del health service.
// RedisCheck es nil cuando el deployment corre sin Redis.
type HealthDeps struct {
	IssuerID   string
	Keys       *keys.Manager
	StoreCheck func(ctx context.Context) error
	RedisCheck func(ctx context.Context) error
}

// HealthService arma la respuesta de readiness componente por componente.
// Keystore y store son críticos; Redis solo degrada.
type HealthService struct {
	deps HealthDeps
}

func NewHealthService(deps HealthDeps) *HealthService {
	return &HealthService{deps: deps}
}

func (s *HealthService) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("health"), logger.Op("Check"))

	response := dto.HealthResponse{
		Components: make(map[string]dto.HealthStatus),
		Timestamp:  time.Now().UTC(),
	}
	if v := os.Getenv("SERVICE_VERSION"); v != "" {
		response.Version = v
	}

	hasErrors := false
	hasCriticalErrors := false

	// 1) Keystore (crítico): sin clave de firma no se puede emitir nada.
	if s.deps.Keys != nil {
		if err := s.checkKeystore(); err != nil {
			response.Components["keystore"] = dto.HealthStatus{Status: "error", Message: err.Error()}
			hasCriticalErrors = true
			log.Error("keystore check failed", logger.Err(err))
		} else {
			response.Components["keystore"] = dto.HealthStatus{Status: "ok"}
			if _, kid, err := s.deps.Keys.Signer(); err == nil {
				response.ActiveKeyID = kid
			}
		}
	} else {
		response.Components["keystore"] = dto.HealthStatus{Status: "error", Message: "key manager not initialized"}
		hasCriticalErrors = true
	}

	// 2) Store (crítico): fail-closed depende del ledger.
	if s.deps.StoreCheck != nil {
		if err := s.deps.StoreCheck(ctx); err != nil {
			response.Components["store"] = dto.HealthStatus{Status: "error", Message: fmt.Sprintf("unavailable: %v", err)}
			hasCriticalErrors = true
			log.Error("store unavailable", logger.Err(err))
		} else {
			response.Components["store"] = dto.HealthStatus{Status: "ok"}
		}
	} else {
		response.Components["store"] = dto.HealthStatus{Status: "error", Message: "store not initialized"}
		hasCriticalErrors = true
	}

	// 3) Redis (no crítico)
	if s.deps.RedisCheck != nil {
		if err := s.deps.RedisCheck(ctx); err != nil {
			response.Components["redis"] = dto.HealthStatus{Status: "error", Message: fmt.Sprintf("unavailable: %v", err)}
			hasErrors = true
			log.Warn("redis unavailable", logger.Err(err))
		} else {
			response.Components["redis"] = dto.HealthStatus{Status: "ok"}
		}
	} else {
		response.Components["redis"] = dto.HealthStatus{Status: "disabled", Message: "memory cache only"}
	}

	switch {
	case hasCriticalErrors:
		response.Status = "unavailable"
	case hasErrors:
		response.Status = "degraded"
	default:
		response.Status = "ready"
	}
	return response
}

// checkKeystore firma y verifica un token descartable contra la propia
// clave. Detecta claves corruptas o un par privado/público desfasado.
func (s *HealthService) checkKeystore() error {
	priv, kid, err := s.deps.Keys.Signer()
	if err != nil {
		return fmt.Errorf("signer unavailable: %w", err)
	}

	now := time.Now().UTC()
	claims := jwtv5.MapClaims{
		"iss": s.deps.IssuerID,
		"sub": "selfcheck",
		"aud": "health",
		"iat": now.Unix(),
		"exp": now.Add(60 * time.Second).Unix(),
	}
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims)
	tok.Header["kid"] = kid
	signed, err := tok.SignedString(priv)
	if err != nil {
		return fmt.Errorf("sign failed: %w", err)
	}

	parsed, err := jwtv5.Parse(signed, func(*jwtv5.Token) (any, error) {
		return priv.Public(), nil
	}, jwtv5.WithValidMethods([]string{"EdDSA"}))
	if err != nil || !parsed.Valid {
		return fmt.Errorf("verify failed: %w", err)
	}
	return nil
}
