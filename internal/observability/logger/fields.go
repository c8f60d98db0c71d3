package logger

import (
	"time"

	"go.uber.org/zap"
)

// Field es un alias para no importar zap fuera de este paquete.
type Field = zap.Field

// =================================================================================
// HTTP
// =================================================================================

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func Bytes(v int) zap.Field        { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field  { return zap.String("client_ip", v) }
func UserAgent(v string) zap.Field { return zap.String("user_agent", v) }

// DurationMs duración en milisegundos.
func DurationMs(v int64) zap.Field { return zap.Int64("duration_ms", v) }

// Duration duración legible (dev).
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }

// =================================================================================
// DOMINIO
// =================================================================================

// UID es el identificador del usuario asignado por el identity provider.
func UID(v string) zap.Field { return zap.String("uid", v) }

// Email loguea el email enmascarado. Nunca loguear contraseñas ni hashes.
func Email(v string) zap.Field { return zap.String("email", MaskEmail(v)) }

func Provider(v string) zap.Field { return zap.String("provider", v) }
func Days(v int) zap.Field        { return zap.Int("days", v) }
func PageSize(v int) zap.Field    { return zap.Int("page_size", v) }
func Count(v int64) zap.Field     { return zap.Int64("count", v) }
func Key(v string) zap.Field      { return zap.String("key", v) }

// =================================================================================
// ESTRUCTURA
// =================================================================================

// Component identifica el componente (users, stats, pg, redis...).
func Component(v string) zap.Field { return zap.String("component", v) }

// Layer identifica la capa (controller, service, store).
func Layer(v string) zap.Field { return zap.String("layer", v) }

// Op identifica la operación en curso.
func Op(v string) zap.Field { return zap.String("op", v) }

// Err agrega el error. Nil es seguro.
func Err(err error) zap.Field {
	if err == nil {
		return zap.Skip()
	}
	return zap.Error(err)
}

func String(k, v string) zap.Field { return zap.String(k, v) }
func Int(k string, v int) zap.Field { return zap.Int(k, v) }
func Bool(k string, v bool) zap.Field { return zap.Bool(k, v) }
func Any(k string, v any) zap.Field { return zap.Any(k, v) }
