// Package dto define los contratos JSON de la API.
package dto

import (
	"time"

	"github.com/dropDatabas3/heimdall/internal/store/core"
)

// IssueRequest es el body de POST /v1/atk/issue.
// La identidad owner NO viene acá: la pone el middleware de auth.
type IssueRequest struct {
	UserID            string            `json:"user_id"`
	AudienceSPID      string            `json:"audience_sp_id"`
	Permissions       []string          `json:"permissions"`
	Purpose           string            `json:"purpose"`
	ModelID           string            `json:"model_id"`
	OverrideTrustTags map[string]string `json:"override_trust_tags,omitempty"`
}

type IssueResponse struct {
	ATK string `json:"atk"`
}

// RevokeRequest es el body de POST /v1/atk/revoke.
type RevokeRequest struct {
	JTI string `json:"jti"`
}

type RevokeResponse struct {
	Message string `json:"message"`
}

// StatusResponse es la respuesta de GET /v1/atk/status?jti=.
type StatusResponse struct {
	JTI       string    `json:"jti"`
	IsRevoked bool      `json:"is_revoked"`
	CheckedAt time.Time `json:"checked_at"`
}

type TokenListResponse struct {
	Tokens []core.IssuedTokenRecord `json:"tokens"`
	Count  int                      `json:"count"`
}

type RevokedListResponse struct {
	Revoked []core.RevokedTokenView `json:"revoked"`
	Count   int                     `json:"count"`
}
