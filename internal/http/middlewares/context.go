package middlewares

import (
	"context"

	"github.com/dropDatabas3/usercopy/internal/identity"
)

type ctxKey string

const (
	// ctxClaimsKey guarda los claims del token verificado
	ctxClaimsKey ctxKey = "claims"
	// ctxRequestIDKey guarda el request ID
	ctxRequestIDKey ctxKey = "request_id"
)

// WithClaims inyecta los claims en el contexto
func WithClaims(ctx context.Context, c *identity.Claims) context.Context {
	return context.WithValue(ctx, ctxClaimsKey, c)
}

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetClaims obtiene los claims del contexto.
// Retorna nil si el middleware de auth no se aplicó.
func GetClaims(ctx context.Context) *identity.Claims {
	if c, ok := ctx.Value(ctxClaimsKey).(*identity.Claims); ok {
		return c
	}
	return nil
}

// GetUserID obtiene el uid del token. Cadena vacía si no hay claims.
func GetUserID(ctx context.Context) string {
	if c := GetClaims(ctx); c != nil {
		return c.UID
	}
	return ""
}

// GetRequestID obtiene el request ID del contexto.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return v
	}
	return ""
}
