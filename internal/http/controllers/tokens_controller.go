package controllers

import (
	"net/http"
	"strconv"

	"github.com/dropDatabas3/heimdall/internal/http/dto"
	httperrors "github.com/dropDatabas3/heimdall/internal/http/errors"
	"github.com/dropDatabas3/heimdall/internal/http/helpers"
	"github.com/dropDatabas3/heimdall/internal/http/middlewares"
	"github.com/dropDatabas3/heimdall/internal/http/services"
	"github.com/dropDatabas3/heimdall/internal/store/core"
)

// TokensController maneja las consultas del owner autenticado:
// GET /v1/atk/tokens y GET /v1/atk/revoked.
type TokensController struct {
	service *services.RevocationService
}

func (c *TokensController) ListTokens(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := middlewares.GetOwner(ctx)
	if owner == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	var status core.TokenStatus
	switch r.URL.Query().Get("status") {
	case "":
	case string(core.TokenActive):
		status = core.TokenActive
	case string(core.TokenRevoked):
		status = core.TokenRevoked
	default:
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("status must be active or revoked"))
		return
	}

	tokens, err := c.service.ListTokens(ctx, owner, status, queryLimit(r))
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if tokens == nil {
		tokens = []core.IssuedTokenRecord{}
	}
	helpers.WriteJSON(w, http.StatusOK, dto.TokenListResponse{Tokens: tokens, Count: len(tokens)})
}

func (c *TokensController) ListRevoked(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner := middlewares.GetOwner(ctx)
	if owner == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	revoked, err := c.service.ListRevoked(ctx, owner, queryLimit(r))
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if revoked == nil {
		revoked = []core.RevokedTokenView{}
	}
	helpers.WriteJSON(w, http.StatusOK, dto.RevokedListResponse{Revoked: revoked, Count: len(revoked)})
}

func queryLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
