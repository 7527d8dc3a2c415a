package controllers

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/heimdall/internal/http/dto"
	httperrors "github.com/dropDatabas3/heimdall/internal/http/errors"
	"github.com/dropDatabas3/heimdall/internal/http/helpers"
	"github.com/dropDatabas3/heimdall/internal/http/middlewares"
	"github.com/dropDatabas3/heimdall/internal/http/services"
	"github.com/dropDatabas3/heimdall/internal/observability/logger"
	"github.com/dropDatabas3/heimdall/internal/observability/metrics"
)

// RevokeController maneja POST /v1/atk/revoke.
type RevokeController struct {
	service *services.RevocationService
}

func (c *RevokeController) Revoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RevokeController.Revoke"))

	owner := middlewares.GetOwner(ctx)
	if owner == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	var req dto.RevokeRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	req.JTI = strings.TrimSpace(req.JTI)

	if err := c.service.Revoke(ctx, owner, req.JTI); err != nil {
		log.Warn("revoke failed", logger.Err(err), logger.JTI(req.JTI))
		httperrors.WriteError(w, err)
		return
	}

	metrics.RecordATKRevoked()
	log.Info("atk revoked", logger.JTI(req.JTI), logger.Owner(owner))
	helpers.WriteJSON(w, http.StatusOK, dto.RevokeResponse{
		Message: "ATK with JTI " + req.JTI + " has been revoked.",
	})
}
