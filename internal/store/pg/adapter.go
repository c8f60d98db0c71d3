// Package pg implementa el adapter PostgreSQL del store sobre pgxpool.
package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/usercopy/internal/domain/repository"
	"github.com/dropDatabas3/usercopy/internal/store"
	migrations "github.com/dropDatabas3/usercopy/migrations/postgres"
)

func init() {
	store.RegisterAdapter(&postgresAdapter{})
}

type postgresAdapter struct{}

func (a *postgresAdapter) Name() string { return "postgres" }

func (a *postgresAdapter) Connect(ctx context.Context, cfg store.Config) (store.Connection, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	} else {
		poolCfg.MaxConns = 10
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	} else {
		poolCfg.MinConns = 2
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return NewConnection(pool, loc), nil
}

// Connection es la conexión activa. Expone Pool para métricas.
type Connection struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

var (
	_ store.Connection = (*Connection)(nil)
	_ store.Migratable = (*Connection)(nil)
)

// NewConnection envuelve un pool existente.
func NewConnection(pool *pgxpool.Pool, loc *time.Location) *Connection {
	return &Connection{pool: pool, loc: loc}
}

func (c *Connection) Name() string { return "postgres" }

func (c *Connection) Ping(ctx context.Context) error { return c.pool.Ping(ctx) }

func (c *Connection) Close() error {
	c.pool.Close()
	return nil
}

// Pool para el collector de métricas.
func (c *Connection) Pool() *pgxpool.Pool { return c.pool }

func (c *Connection) Users() repository.UserCopyRepository { return &userCopyRepo{pool: c.pool} }

func (c *Connection) Statistics() repository.StatisticRepository {
	return &statisticRepo{pool: c.pool, loc: c.loc}
}

// Migrate aplica las migraciones embebidas.
func (c *Connection) Migrate(ctx context.Context) (*store.MigrationResult, error) {
	return store.NewMigrator(migrations.FS, migrations.Dir).Run(ctx, &executor{pool: c.pool})
}

// executor adapta pgxpool a store.Executor.
type executor struct {
	pool *pgxpool.Pool
}

func (e *executor) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := e.pool.Exec(ctx, sql, args...)
	return err
}

func (e *executor) QueryInts(ctx context.Context, sql string, args ...any) ([]int, error) {
	rows, err := e.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
