package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/usercopy/internal/domain/repository"
)

type statisticRepo struct {
	pool *pgxpool.Pool
	loc  *time.Location
}

const dateLayout = "2006-01-02"

func (r *statisticRepo) Upsert(ctx context.Context, s repository.StatisticSnapshot) error {
	if s.ActiveUsers < 0 {
		return repository.ErrInvalidInput
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO statistic (date, active_users) VALUES ($1::date, $2)
		ON CONFLICT (date) DO UPDATE SET active_users = EXCLUDED.active_users, updated_at = NOW()`,
		s.Date.In(r.loc).Format(dateLayout), s.ActiveUsers,
	)
	if err != nil {
		return fmt.Errorf("pg: upsert statistic: %w", err)
	}
	return nil
}

func (r *statisticRepo) Latest(ctx context.Context, n int) ([]repository.StatisticSnapshot, error) {
	if n <= 0 {
		return nil, repository.ErrInvalidInput
	}
	rows, err := r.pool.Query(ctx,
		`SELECT to_char(date, 'YYYY-MM-DD'), active_users FROM statistic ORDER BY date DESC LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("pg: latest statistics: %w", err)
	}
	defer rows.Close()

	var out []repository.StatisticSnapshot
	for rows.Next() {
		var day string
		var s repository.StatisticSnapshot
		if err := rows.Scan(&day, &s.ActiveUsers); err != nil {
			return nil, fmt.Errorf("pg: scan statistic: %w", err)
		}
		d, err := time.ParseInLocation(dateLayout, day, r.loc)
		if err != nil {
			return nil, fmt.Errorf("pg: parse statistic date %q: %w", day, err)
		}
		s.Date = d
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pg: latest statistics: %w", err)
	}
	return out, nil
}
