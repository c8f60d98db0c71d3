// Package audit emite eventos de auditoría (alta de usuario, cambios de
// credenciales, logins) por el logger "audit".
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/usercopy/internal/observability/logger"
)

// Eventos emitidos por los services.
const (
	EventUserCreated     = "user.created"
	EventUserInfoUpdated = "user.info_updated"
	EventPasswordUpdated = "user.password_updated"
	EventLoginSucceeded  = "auth.login_succeeded"
	EventLoginFailed     = "auth.login_failed"
)

// Log escribe un evento estructurado. El request_id viene del logger del contexto.
func Log(ctx context.Context, event, uid string, fields ...zap.Field) {
	fs := make([]zap.Field, 0, len(fields)+2)
	fs = append(fs, zap.String("event", event))
	if uid != "" {
		fs = append(fs, logger.UID(uid))
	}
	fs = append(fs, fields...)
	logger.From(ctx).Named("audit").Info("audit", fs...)
}
