// Package controllers contiene los handlers HTTP. Cada controller parsea
// el request, llama a su service y mapea errores con errors.WriteError.
package controllers

import (
	"github.com/dropDatabas3/heimdall/internal/http/services"
	"github.com/dropDatabas3/heimdall/internal/keys"
)

// Controllers agrupa todos los controllers del servicio.
type Controllers struct {
	Issue  *IssueController
	Revoke *RevokeController
	Status *StatusController
	Tokens *TokensController
	JWKS   *JWKSController
	Health *HealthController
}

type Deps struct {
	IssueService      *services.IssueService
	RevocationService *services.RevocationService
	HealthService     *services.HealthService
	KeyManager        *keys.Manager
}

func New(d Deps) *Controllers {
	return &Controllers{
		Issue:  &IssueController{service: d.IssueService},
		Revoke: &RevokeController{service: d.RevocationService},
		Status: &StatusController{service: d.RevocationService},
		Tokens: &TokensController{service: d.RevocationService},
		JWKS:   &JWKSController{keys: d.KeyManager},
		Health: NewHealthController(d.HealthService),
	}
}
