// Package cache provee un key/value con TTL para memoizar estadísticas.
//
// Backends:
//   - memory: go-cache in-process (desarrollo, single instance)
//   - redis:  compartido entre instancias
//
// Get devuelve presencia explícita: un valor "0" cacheado es un hit.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client define las operaciones de cache.
type Client interface {
	// Get devuelve (valor, true, nil) en hit y ("", false, nil) en miss.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set guarda un valor. ttl 0 = sin expiración.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Config para crear un cliente.
type Config struct {
	Driver   string // "memory" | "redis"
	Addr     string // host:port
	Password string
	DB       int
	Prefix   string // prefijo para todas las keys
}

// New crea un cliente según Driver. Para redis abre su propia conexión;
// usar NewRedis para compartir un *redis.Client.
func New(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.Driver {
	case "memory", "":
		return NewMemory(cfg.Prefix), nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("cache: redis ping failed: %w", err)
		}
		return NewRedis(rdb, cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("cache: unknown driver %q", cfg.Driver)
	}
}

func prefixed(prefix, k string) string {
	if prefix == "" {
		return k
	}
	return prefix + ":" + k
}
