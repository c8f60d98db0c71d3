// Package controllers agrupa todos los controllers HTTP.
//
//	svcs := services.New(deps)
//	ctrls := controllers.New(svcs, cfg.Stats.DefaultDays)
//	handler := router.New(router.Deps{Controllers: ctrls, ...})
package controllers

import (
	"github.com/dropDatabas3/usercopy/internal/http/controllers/auth"
	"github.com/dropDatabas3/usercopy/internal/http/controllers/health"
	"github.com/dropDatabas3/usercopy/internal/http/controllers/stats"
	"github.com/dropDatabas3/usercopy/internal/http/controllers/users"
	"github.com/dropDatabas3/usercopy/internal/http/services"
)

// Controllers agrupa los controllers por dominio.
type Controllers struct {
	Users  *users.UsersController
	Stats  *stats.StatsController
	Auth   *auth.AuthController
	Health *health.HealthController
}

// New crea los controllers inyectando los services.
func New(s *services.Services, defaultDays int) *Controllers {
	return &Controllers{
		Users:  users.NewUsersController(s.Users),
		Stats:  stats.NewStatsController(s.Stats, defaultDays),
		Auth:   auth.NewAuthController(s.Auth),
		Health: health.NewHealthController(s.Health),
	}
}
