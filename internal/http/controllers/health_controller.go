package controllers

import (
	"net/http"

	"github.com/dropDatabas3/heimdall/internal/http/helpers"
	"github.com/dropDatabas3/heimdall/internal/http/services"
	"github.com/dropDatabas3/heimdall/internal/observability/logger"
)

// HealthController maneja GET /healthz y GET /readyz.
type HealthController struct {
	service *services.HealthService
}

func NewHealthController(service *services.HealthService) *HealthController {
	return &HealthController{service: service}
}

// Healthz es liveness puro: el proceso responde.
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz chequea keystore, store y cache.
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response := c.service.Check(ctx)
	if response.ActiveKeyID != "" {
		w.Header().Set("X-JWKS-KID", response.ActiveKeyID)
	}

	statusCode := http.StatusOK
	if response.Status == "unavailable" {
		statusCode = http.StatusServiceUnavailable
	}

	logger.From(ctx).Debug("health check completed",
		logger.Layer("controller"), logger.Op("HealthController.Readyz"),
		logger.String("status", response.Status),
		logger.Count(len(response.Components)),
	)
	helpers.WriteJSON(w, statusCode, response)
}
