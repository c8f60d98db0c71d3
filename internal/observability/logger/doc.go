// Package logger expone un logger Zap singleton con scoping por contexto.
//
// Inicialización (una vez, en cmd/service o cmd/usercopy):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, ServiceName: "usercopy"})
//	defer logger.Sync()
//
// En controllers y services siempre partimos del logger del request:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("Reconcile"))
//	log.Info("user reconciled", logger.UID(uid), logger.Count(u.SignInCount))
//
// "dev" escribe en consola con colores, "prod" escribe JSON.
package logger
