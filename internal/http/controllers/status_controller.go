package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/heimdall/internal/http/dto"
	httperrors "github.com/dropDatabas3/heimdall/internal/http/errors"
	"github.com/dropDatabas3/heimdall/internal/http/helpers"
	"github.com/dropDatabas3/heimdall/internal/http/services"
	"github.com/dropDatabas3/heimdall/internal/observability/logger"
)

// StatusController maneja GET /v1/atk/status?jti=. Es el endpoint público
// que consultan los service providers antes de aceptar un ATK.
type StatusController struct {
	service *services.RevocationService
}

func (c *StatusController) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jti := strings.TrimSpace(r.URL.Query().Get("jti"))

	revoked, err := c.service.Status(ctx, jti)
	if err != nil {
		logger.From(ctx).Warn("status lookup failed",
			logger.Layer("controller"), logger.Op("StatusController.Status"),
			logger.JTI(jti), logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	// Nunca cachear del lado del cliente: una revocación tiene que
	// verse en la siguiente consulta.
	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteJSON(w, http.StatusOK, dto.StatusResponse{
		JTI:       jti,
		IsRevoked: revoked,
		CheckedAt: time.Now().UTC(),
	})
}
