package controllers

import (
	"net/http"

	httperrors "github.com/dropDatabas3/heimdall/internal/http/errors"
	"github.com/dropDatabas3/heimdall/internal/keys"
	"github.com/dropDatabas3/heimdall/internal/observability/logger"
)

// JWKSController sirve GET /.well-known/jwks.json.
type JWKSController struct {
	keys *keys.Manager
}

func (c *JWKSController) JWKS(w http.ResponseWriter, r *http.Request) {
	raw, err := c.keys.JWKSJSON()
	if err != nil {
		// Sin clave pública no hay servicio: los verifiers no pueden
		// validar nada. Error duro en vez de un JWKS vacío.
		logger.From(r.Context()).Error("jwks unavailable",
			logger.Layer("controller"), logger.Op("JWKSController.JWKS"), logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	// Las claves rotan poco; un cache corto alivia a los verifiers.
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}
