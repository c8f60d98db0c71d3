package store

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// Formato de archivo: {version}_{name}.sql (ej: 0001_init.sql)

// Executor abstrae el driver SQL para el Migrator.
type Executor interface {
	Exec(ctx context.Context, sql string, args ...any) error
	QueryInts(ctx context.Context, sql string, args ...any) ([]int, error)
}

// Migrator aplica migraciones SQL embebidas.
type Migrator struct {
	fsys fs.FS
	dir  string
}

func NewMigrator(fsys fs.FS, dir string) *Migrator {
	return &Migrator{fsys: fsys, dir: dir}
}

// Migration representa una migración individual.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// MigrationResult resultado de aplicar migraciones.
type MigrationResult struct {
	Applied  []int
	Skipped  []int
	Duration time.Duration
}

var migrationFilePattern = regexp.MustCompile(`^(\d+)_(.+)\.sql$`)

// ParseMigrations lee las migraciones ordenadas por versión.
func (m *Migrator) ParseMigrations() ([]Migration, error) {
	var out []Migration
	seen := map[int]string{}

	err := fs.WalkDir(m.fsys, m.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		match := migrationFilePattern.FindStringSubmatch(path.Base(p))
		if match == nil {
			return nil
		}
		version, _ := strconv.Atoi(match[1])
		if prev, dup := seen[version]; dup {
			return fmt.Errorf("duplicate migration version %d (%s, %s)", version, prev, p)
		}
		seen[version] = p

		content, err := fs.ReadFile(m.fsys, p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		out = append(out, Migration{Version: version, Name: match[2], SQL: string(content)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Run aplica las migraciones pendientes en orden.
func (m *Migrator) Run(ctx context.Context, exec Executor) (*MigrationResult, error) {
	start := time.Now()
	res := &MigrationResult{}

	if err := exec.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS _migrations (
			version INT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)`); err != nil {
		return res, fmt.Errorf("creating migrations table: %w", err)
	}

	versions, err := exec.QueryInts(ctx, `SELECT version FROM _migrations`)
	if err != nil {
		return res, fmt.Errorf("getting applied migrations: %w", err)
	}
	applied := make(map[int]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}

	migrations, err := m.ParseMigrations()
	if err != nil {
		return res, fmt.Errorf("parsing migrations: %w", err)
	}

	for _, mig := range migrations {
		if applied[mig.Version] {
			res.Skipped = append(res.Skipped, mig.Version)
			continue
		}
		if err := exec.Exec(ctx, mig.SQL); err != nil {
			res.Duration = time.Since(start)
			return res, fmt.Errorf("applying migration %d_%s: %w", mig.Version, mig.Name, err)
		}
		if err := exec.Exec(ctx, `INSERT INTO _migrations (version, name) VALUES ($1, $2)`, mig.Version, mig.Name); err != nil {
			res.Duration = time.Since(start)
			return res, fmt.Errorf("recording migration %d: %w", mig.Version, err)
		}
		res.Applied = append(res.Applied, mig.Version)
	}

	res.Duration = time.Since(start)
	return res, nil
}
