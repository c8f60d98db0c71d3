// Package health contiene el controller para health checks.
package health

import (
	"net/http"

	"github.com/dropDatabas3/usercopy/internal/http/helpers"
	svc "github.com/dropDatabas3/usercopy/internal/http/services/health"
	"github.com/dropDatabas3/usercopy/internal/observability/logger"
)

// HealthController maneja las rutas de health check.
type HealthController struct {
	service svc.HealthService
}

// NewHealthController crea un nuevo controller de health check.
func NewHealthController(service svc.HealthService) *HealthController {
	return &HealthController{service: service}
}

// Healthz maneja GET /healthz: liveness, 200 sin cuerpo.
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Readyz maneja GET /readyz
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("HealthController.Readyz"))

	response := c.service.Check(ctx)
	if response.Version != "" {
		w.Header().Set("X-Service-Version", response.Version)
	}

	statusCode := http.StatusOK
	if response.Status == svc.StatusUnavailable {
		statusCode = http.StatusServiceUnavailable
	}

	log.Debug("health check completed",
		logger.String("status", response.Status),
		logger.Int("components_count", len(response.Components)),
	)
	helpers.WriteJSON(w, statusCode, response)
}
