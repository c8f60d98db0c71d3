// Package store provee el registry de adapters de persistencia del mirror.
//
// Cada adapter (pg, memory) se registra en su init(); el binario los importa
// con blank import y Open elige por Config.Driver.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dropDatabas3/usercopy/internal/domain/repository"
)

// Config de conexión.
type Config struct {
	Driver   string // "postgres" | "memory"
	DSN      string
	MaxConns int32
	MinConns int32
	// Migrate aplica migraciones pendientes al conectar.
	Migrate bool
	// Location para normalizar fechas de StatisticSnapshot. Default time.Local.
	Location *time.Location
}

// Adapter crea conexiones.
type Adapter interface {
	Name() string
	Connect(ctx context.Context, cfg Config) (Connection, error)
}

// Connection es una conexión activa con acceso a los repositorios.
type Connection interface {
	Name() string
	Ping(ctx context.Context) error
	Close() error

	Users() repository.UserCopyRepository
	Statistics() repository.StatisticRepository
}

// Migratable lo implementan las conexiones con esquema SQL.
type Migratable interface {
	Migrate(ctx context.Context) (*MigrationResult, error)
}

var (
	mu       sync.RWMutex
	adapters = map[string]Adapter{}
)

// RegisterAdapter registra un adapter. Panic si el nombre está duplicado.
func RegisterAdapter(a Adapter) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := adapters[a.Name()]; dup {
		panic("store: adapter already registered: " + a.Name())
	}
	adapters[a.Name()] = a
}

// Drivers lista los adapters registrados.
func Drivers() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(adapters))
	for name := range adapters {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Open conecta con el adapter de cfg.Driver y, si cfg.Migrate, aplica migraciones.
func Open(ctx context.Context, cfg Config) (Connection, error) {
	mu.RLock()
	a, ok := adapters[cfg.Driver]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("store: unknown driver %q (registered: %v)", cfg.Driver, Drivers())
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	conn, err := a.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Migrate {
		if m, ok := conn.(Migratable); ok {
			if _, err := m.Migrate(ctx); err != nil {
				_ = conn.Close()
				return nil, fmt.Errorf("store: migrate: %w", err)
			}
		}
	}
	return conn, nil
}
