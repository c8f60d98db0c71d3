// Package services agrupa los services HTTP. Es el único lugar donde se instancian.
//
// Uso en internal/app:
//
//	svcs := services.New(services.Deps{
//	    Identity: gw,
//	    Store:    conn,
//	    Cache:    cacheClient,
//	    ...
//	})
//	// svcs.Users.CreateUser, svcs.Stats.Summary, svcs.Auth.Login, ...
package services

import (
	"time"

	"github.com/dropDatabas3/usercopy/internal/cache"
	"github.com/dropDatabas3/usercopy/internal/http/services/auth"
	"github.com/dropDatabas3/usercopy/internal/http/services/health"
	"github.com/dropDatabas3/usercopy/internal/http/services/stats"
	"github.com/dropDatabas3/usercopy/internal/http/services/users"
	"github.com/dropDatabas3/usercopy/internal/identity"
	"github.com/dropDatabas3/usercopy/internal/security/password"
	"github.com/dropDatabas3/usercopy/internal/store"
)

// Deps contiene las dependencias base para crear los services.
type Deps struct {
	// ─── Infraestructura ───
	Identity *identity.Gateway
	Store    store.Connection
	Cache    cache.Client // nil = sin cache
	Hasher   password.Hasher

	// ─── Configuración ───
	MaxPageSize int
	StatsTTL    time.Duration
	Location    *time.Location
	Version     string
}

// Services agrupa los services por dominio.
type Services struct {
	Users  users.Service
	Stats  stats.Service
	Auth   auth.LoginService
	Health health.HealthService
}

// New crea el agregador con todas las dependencias inyectadas.
func New(d Deps) *Services {
	usersSvc := users.NewService(users.Deps{
		Identity:    d.Identity,
		Users:       d.Store.Users(),
		Hasher:      d.Hasher,
		MaxPageSize: d.MaxPageSize,
	})

	healthDeps := health.Deps{
		DBCheck:      d.Store.Ping,
		ProviderName: d.Identity.ProviderName(),
		Version:      d.Version,
	}
	if d.Cache != nil {
		healthDeps.CacheCheck = d.Cache.Ping
	}

	return &Services{
		Users: usersSvc,
		Stats: stats.NewService(stats.Deps{
			Users:      d.Store.Users(),
			Statistics: d.Store.Statistics(),
			Cache:      d.Cache,
			TTL:        d.StatsTTL,
			Location:   d.Location,
		}),
		Auth: auth.NewLoginService(auth.LoginDeps{
			Identity:   d.Identity,
			Users:      d.Store.Users(),
			Reconciler: usersSvc,
		}),
		Health: health.NewHealthService(healthDeps),
	}
}
