package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config configura el logger.
type Config struct {
	// Env: "dev" (consola con colores) o "prod" (JSON). Default "dev".
	Env string
	// Level mínimo: "debug", "info", "warn", "error". Default "info".
	Level string
	// ServiceName y Version se agregan como campos base si no están vacíos.
	ServiceName string
	Version     string
}

func build(cfg Config) *zap.Logger {
	level := zap.NewAtomicLevelAt(parseLevel(cfg.Level))

	var zcfg zap.Config
	var opts []zap.Option
	if strings.EqualFold(strings.TrimSpace(cfg.Env), "prod") {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	} else {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zcfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		zcfg.DisableStacktrace = true
	}
	zcfg.Level = level
	zcfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	l, err := zcfg.Build(opts...)
	if err != nil {
		// fallback: nunca devolvemos nil
		l, _ = zap.NewProduction()
	}

	var base []zap.Field
	if cfg.ServiceName != "" {
		base = append(base, zap.String("service", cfg.ServiceName))
	}
	if cfg.Version != "" {
		base = append(base, zap.String("version", cfg.Version))
	}
	if len(base) > 0 {
		l = l.With(base...)
	}
	return l
}

func parseLevel(lvl string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
