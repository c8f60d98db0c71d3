package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu       sync.RWMutex
	instance *zap.Logger
)

// Init inicializa el logger global. Solo la primera llamada tiene efecto.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		instance = build(cfg)
	}
}

// L retorna el logger global. Si Init no fue llamado usa dev/info.
func L() *zap.Logger {
	mu.RLock()
	l := instance
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init(Config{Env: "dev", Level: "info"})
	return L()
}

// Replace reemplaza el logger global (tests: zap.NewNop, zaptest/observer).
func Replace(l *zap.Logger) {
	mu.Lock()
	instance = l
	mu.Unlock()
}

// Named retorna un logger con nombre de componente.
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// With retorna un logger con campos fijos.
func With(fields ...zap.Field) *zap.Logger {
	return L().With(fields...)
}

// Sync flushea buffers pendientes. Llamar con defer en main.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	if instance != nil {
		return instance.Sync()
	}
	return nil
}
