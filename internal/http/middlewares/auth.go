package middlewares

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/dropDatabas3/usercopy/internal/http/errors"
	"github.com/dropDatabas3/usercopy/internal/identity"
	"github.com/dropDatabas3/usercopy/internal/observability/logger"
)

// TokenVerifier verifica bearer tokens (identity.Gateway).
type TokenVerifier interface {
	VerifyToken(ctx context.Context, raw string) (*identity.Claims, error)
}

// RequireAuth valida Authorization: Bearer <token> y guarda los claims en el contexto.
// Token ausente o inválido responde 401; si el provider no responde, 503.
func RequireAuth(v TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := strings.TrimSpace(r.Header.Get("Authorization"))
			if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token", error_description="missing bearer token"`)
				errors.WriteError(w, errors.ErrTokenMissing)
				return
			}
			raw := strings.TrimSpace(ah[len("Bearer "):])

			claims, err := v.VerifyToken(r.Context(), raw)
			if err != nil {
				if stderrors.Is(err, identity.ErrInvalidToken) {
					w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
					errors.WriteError(w, errors.ErrTokenInvalid)
					return
				}
				logger.From(r.Context()).Error("token verification failed",
					logger.Component("auth"), logger.Err(err))
				errors.WriteError(w, errors.ErrUpstream.WithCause(err))
				return
			}

			ctx := WithClaims(r.Context(), claims)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(logger.UID(claims.UID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSelf exige que el uid del token coincida con el uid de la ruta.
// Debe usarse después de RequireAuth.
func RequireSelf(uidFromPath func(*http.Request) string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid := GetUserID(r.Context())
			if uid == "" {
				errors.WriteError(w, errors.ErrTokenMissing)
				return
			}
			if uid != uidFromPath(r) {
				errors.WriteError(w, errors.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
