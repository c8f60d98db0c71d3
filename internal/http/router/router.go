// Package router arma el chi.Router con todas las rutas de la API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/usercopy/internal/http/controllers"
	httperrors "github.com/dropDatabas3/usercopy/internal/http/errors"
	mw "github.com/dropDatabas3/usercopy/internal/http/middlewares"
	"github.com/dropDatabas3/usercopy/internal/rate"
)

// Deps contiene todas las dependencias del router.
type Deps struct {
	Controllers *controllers.Controllers
	Verifier    mw.TokenVerifier

	// Opcionales
	RateLimiter    rate.Limiter // nil = sin rate limit en POST /auth y POST /user
	CORSOrigins    []string
	MetricsHandler http.Handler // nil = sin /metrics
	MetricsPath    string       // default "/metrics"
	Instrument     mw.Middleware
}

// New registra las rutas y devuelve el handler raíz.
//
//	public:  POST /user, GET /users, POST /auth, GET /healthz, GET /readyz, GET /metrics
//	auth:    GET /profile, GET /users-statistic
//	self:    PATCH /user/{uid}, GET /user/{uid}, PATCH /user/{uid}/info, PATCH /user/{uid}/password
func New(d Deps) http.Handler {
	c := d.Controllers
	r := chi.NewRouter()

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	// Health sin logging (muy frecuentes)
	r.Group(func(r chi.Router) {
		r.Use(mw.WithRecover(), mw.WithRequestID())
		r.Get("/healthz", c.Health.Healthz)
		r.Get("/readyz", c.Health.Readyz)
		if d.MetricsHandler != nil {
			path := d.MetricsPath
			if path == "" {
				path = "/metrics"
			}
			r.Method(http.MethodGet, path, d.MetricsHandler)
		}
	})

	r.Group(func(r chi.Router) {
		r.Use(
			mw.WithRecover(),
			mw.WithRequestID(),
			mw.WithLogging(),
			mw.WithSecurityHeaders(),
			mw.WithCORS(d.CORSOrigins),
			mw.WithNoStore(),
		)
		if d.Instrument != nil {
			r.Use(d.Instrument)
		}

		limited := mw.WithRateLimit(mw.RateLimitConfig{Limiter: d.RateLimiter})
		requireAuth := mw.RequireAuth(d.Verifier)
		requireSelf := mw.RequireSelf(func(r *http.Request) string { return chi.URLParam(r, "uid") })

		// Públicas
		r.With(limited).Post("/user", c.Users.CreateUser)
		r.With(limited).Post("/auth", c.Auth.Login)
		r.Get("/users", c.Users.ListUsers)

		// Autenticadas
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/profile", c.Auth.Profile)
			r.Get("/users-statistic", c.Stats.Statistic)

			r.Route("/user/{uid}", func(r chi.Router) {
				r.Use(requireSelf)
				r.Get("/", c.Users.GetUser)
				r.Patch("/", c.Users.PullUser)
				r.Patch("/info", c.Users.UpdateInfo)
				r.Patch("/password", c.Users.UpdatePassword)
			})
		})
	})

	return r
}
