package controllers

import (
	"net/http"

	"github.com/dropDatabas3/heimdall/internal/http/dto"
	httperrors "github.com/dropDatabas3/heimdall/internal/http/errors"
	"github.com/dropDatabas3/heimdall/internal/http/helpers"
	"github.com/dropDatabas3/heimdall/internal/http/middlewares"
	"github.com/dropDatabas3/heimdall/internal/http/services"
	"github.com/dropDatabas3/heimdall/internal/observability/logger"
	"github.com/dropDatabas3/heimdall/internal/observability/metrics"
)

// IssueController maneja POST /v1/atk/issue.
type IssueController struct {
	service *services.IssueService
}

func (c *IssueController) Issue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("IssueController.Issue"))

	owner := middlewares.GetOwner(ctx)
	if owner == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	var req dto.IssueRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	res, err := c.service.Issue(ctx, services.IssueParams{
		Owner:             owner,
		UserID:            req.UserID,
		AudienceSPID:      req.AudienceSPID,
		Permissions:       req.Permissions,
		Purpose:           req.Purpose,
		ModelID:           req.ModelID,
		OverrideTrustTags: req.OverrideTrustTags,
	})
	if err != nil {
		log.Warn("issuance rejected", logger.Err(err), logger.UserID(req.UserID))
		httperrors.WriteError(w, err)
		return
	}

	metrics.RecordATKIssued(req.ModelID)
	log.Info("atk issued",
		logger.JTI(res.JTI), logger.AID(res.AID),
		logger.Owner(owner), logger.Audience(req.AudienceSPID))

	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteJSON(w, http.StatusOK, dto.IssueResponse{ATK: res.Token})
}
