// Package stats contiene el controller de GET /users-statistic.
package stats

import (
	"errors"
	"net/http"

	httperrors "github.com/dropDatabas3/usercopy/internal/http/errors"
	"github.com/dropDatabas3/usercopy/internal/http/helpers"
	svc "github.com/dropDatabas3/usercopy/internal/http/services/stats"
	"github.com/dropDatabas3/usercopy/internal/observability/logger"
)

// StatsController maneja GET /users-statistic
type StatsController struct {
	service     svc.Service
	defaultDays int
}

// NewStatsController crea el controller. defaultDays <= 0 usa svc.DefaultNumberOfDays.
func NewStatsController(service svc.Service, defaultDays int) *StatsController {
	if defaultDays <= 0 {
		defaultDays = svc.DefaultNumberOfDays
	}
	return &StatsController{service: service, defaultDays: defaultDays}
}

// Statistic maneja GET /users-statistic?numberOfDays=
func (c *StatsController) Statistic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("StatsController.Statistic"))

	days := c.defaultDays
	n, ok := helpers.OptionalInt(r, "numberOfDays")
	if !ok {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("numberOfDays must be an integer"))
		return
	}
	if n != nil {
		days = *n
	}

	res, err := c.service.Summary(ctx, days)
	if err != nil {
		switch {
		case errors.Is(err, svc.ErrInvalidDays):
			httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail(err.Error()))
		case errors.Is(err, svc.ErrNoSnapshots):
			httperrors.WriteError(w, httperrors.ErrNoStatistics)
		default:
			log.Error("statistics failed", logger.Err(err))
			httperrors.WriteError(w, httperrors.FromDomain(err))
		}
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}
