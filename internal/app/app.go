// Package app arma el grafo de dependencias a partir de la config:
// store, cache, identity provider, rate limiter, services y handler HTTP.
// Lo comparten cmd/service y cmd/usercopy.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dropDatabas3/usercopy/internal/cache"
	"github.com/dropDatabas3/usercopy/internal/config"
	httpx "github.com/dropDatabas3/usercopy/internal/http"
	"github.com/dropDatabas3/usercopy/internal/http/controllers"
	mw "github.com/dropDatabas3/usercopy/internal/http/middlewares"
	"github.com/dropDatabas3/usercopy/internal/http/router"
	"github.com/dropDatabas3/usercopy/internal/http/services"
	"github.com/dropDatabas3/usercopy/internal/identity"
	"github.com/dropDatabas3/usercopy/internal/identity/firebase"
	"github.com/dropDatabas3/usercopy/internal/identity/local"
	"github.com/dropDatabas3/usercopy/internal/observability/logger"
	"github.com/dropDatabas3/usercopy/internal/rate"
	"github.com/dropDatabas3/usercopy/internal/security/password"
	"github.com/dropDatabas3/usercopy/internal/store"
	"github.com/dropDatabas3/usercopy/internal/store/pg"

	// adapters registrados vía init()
	_ "github.com/dropDatabas3/usercopy/internal/store/memory"
)

// App es la aplicación cableada.
type App struct {
	Config   *config.Config
	Store    store.Connection
	Cache    cache.Client
	Identity *identity.Gateway
	Limiter  rate.Limiter
	Services *services.Services

	closers []func() error
}

// New abre las conexiones y construye los services. Si algo falla cierra
// lo que ya se había abierto.
func New(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	log := logger.From(ctx).With(logger.Component("app"))
	a := &App{Config: cfg}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	// 1. Store
	a.Store, err = store.Open(ctx, store.Config{
		Driver:   cfg.Storage.Driver,
		DSN:      cfg.Storage.DSN,
		MaxConns: cfg.Storage.MaxConns,
		MinConns: cfg.Storage.MinConns,
		Migrate:  cfg.Storage.Migrate,
		Location: cfg.Location(),
	})
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	a.closers = append(a.closers, a.Store.Close)
	log.Info("store ready", zap.String("driver", a.Store.Name()))

	// 2. Cache + limiter (comparten el *redis.Client)
	if err := a.openCache(ctx); err != nil {
		return nil, err
	}
	log.Info("cache ready", zap.String("kind", cfg.Cache.Kind))

	// 3. Identity provider
	gw, err := openIdentity(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}
	a.Identity = gw
	log.Info("identity provider ready", logger.Provider(gw.ProviderName()))

	// 4. Services
	a.Services = services.New(services.Deps{
		Identity:    a.Identity,
		Store:       a.Store,
		Cache:       a.Cache,
		Hasher:      password.DefaultHasher,
		MaxPageSize: cfg.Users.MaxPageSize,
		StatsTTL:    cfg.StatsTTL(),
		Location:    cfg.Location(),
		Version:     cfg.App.Version,
	})
	return a, nil
}

func (a *App) openCache(ctx context.Context) error {
	cfg := a.Config
	switch cfg.Cache.Kind {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pctx).Err(); err != nil {
			_ = rdb.Close()
			return fmt.Errorf("cache: redis ping failed: %w", err)
		}
		a.Cache = cache.NewRedis(rdb, cfg.Cache.Redis.Prefix)
		a.closers = append(a.closers, a.Cache.Close)
		if cfg.Rate.Enabled {
			a.Limiter = rate.NewRedisLimiter(rdb, cfg.Cache.Redis.Prefix+":rl:", cfg.Rate.MaxRequests, cfg.RateWindow())
		}
	default:
		a.Cache = cache.NewMemory("")
		a.closers = append(a.closers, a.Cache.Close)
		if cfg.Rate.Enabled {
			a.Limiter = rate.NewMemoryLimiter(cfg.Rate.MaxRequests, cfg.RateWindow())
		}
	}
	return nil
}

func openIdentity(ctx context.Context, cfg *config.Config) (*identity.Gateway, error) {
	switch cfg.Identity.Provider {
	case "firebase":
		p, err := firebase.New(ctx, firebase.Config{
			ProjectID:       cfg.Identity.ProjectID,
			CredentialsFile: cfg.Identity.CredentialsFile,
		})
		if err != nil {
			return nil, err
		}
		return identity.NewGateway(p), nil
	case "local":
		p, err := local.New(local.Config{
			Secret:   []byte(cfg.Identity.Local.Secret),
			Issuer:   cfg.Identity.Local.Issuer,
			TokenTTL: cfg.TokenTTL(),
			Hasher:   password.DefaultHasher,
		})
		if err != nil {
			return nil, err
		}
		return identity.NewGateway(p), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Identity.Provider)
	}
}

// Handler construye el router HTTP. Registra /metrics si metrics.enabled.
func (a *App) Handler() (http.Handler, error) {
	cfg := a.Config
	deps := router.Deps{
		Controllers: controllers.New(a.Services, cfg.Stats.DefaultDays),
		Verifier:    a.Identity,
		RateLimiter: a.Limiter,
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
	}

	if cfg.Metrics.Enabled {
		mcfg := httpx.MetricsConfig{}
		if pc, ok := a.Store.(*pg.Connection); ok {
			mcfg.Pool = pc.Pool
		}
		h, err := httpx.RegisterMetrics(mcfg)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		deps.MetricsHandler = h
		deps.MetricsPath = cfg.Metrics.Path
		deps.Instrument = mw.Middleware(httpx.WithMetrics)
	}
	return router.New(deps), nil
}

// Close cierra las conexiones en orden inverso a la apertura.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
