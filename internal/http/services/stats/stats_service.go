// Package stats calcula las estadísticas de usuarios sobre el mirror.
//
// Summary lee cada valor del cache y solo recalcula en miss. Los misses
// concurrentes de una misma key se colapsan con singleflight.
package stats

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/usercopy/internal/cache"
	"github.com/dropDatabas3/usercopy/internal/domain/repository"
	dto "github.com/dropDatabas3/usercopy/internal/http/dto/stats"
	"github.com/dropDatabas3/usercopy/internal/metrics"
	"github.com/dropDatabas3/usercopy/internal/observability/logger"
)

const (
	DefaultTTL           = 60 * time.Second
	DefaultNumberOfDays  = 7
	KeyTotalUsers        = "stats:total_users"
	KeyActiveUsers       = "stats:active_users"
	keyAverageUserPrefix = "stats:avg_active_users:"
)

var (
	ErrInvalidDays = errors.New("numberOfDays must be at least 2")
	ErrNoSnapshots = errors.New("no statistic snapshots")
)

// Service define las operaciones de estadísticas.
type Service interface {
	CountUsers(ctx context.Context) (int64, error)
	// CountActiveUsers cuenta los inicios de sesión de hoy y actualiza el snapshot del día.
	CountActiveUsers(ctx context.Context) (int64, error)
	FindAverageActiveUsers(ctx context.Context, days int) (float64, error)
	// Summary devuelve los tres valores pasando por el cache.
	Summary(ctx context.Context, days int) (*dto.StatisticResponse, error)
}

// Deps contiene las dependencias del service.
type Deps struct {
	Users      repository.UserCopyRepository
	Statistics repository.StatisticRepository
	Cache      cache.Client // nil = sin cache
	TTL        time.Duration
	Location   *time.Location
	Now        func() time.Time
}

type service struct {
	deps  Deps
	group singleflight.Group
}

// NewService crea el service de estadísticas.
func NewService(deps Deps) Service {
	if deps.TTL <= 0 {
		deps.TTL = DefaultTTL
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{deps: deps}
}

const component = "stats"

// AverageKey es la key de cache del promedio para days días.
func AverageKey(days int) string {
	return keyAverageUserPrefix + strconv.Itoa(days)
}

func (s *service) CountUsers(ctx context.Context) (int64, error) {
	n, err := s.deps.Users.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// dayBounds devuelve [medianoche local, medianoche siguiente - 1ns].
func (s *service) dayBounds() (time.Time, time.Time) {
	now := s.deps.Now().In(s.deps.Location)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.deps.Location)
	to := from.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return from, to
}

func (s *service) CountActiveUsers(ctx context.Context) (int64, error) {
	from, to := s.dayBounds()
	n, err := s.deps.Users.CountSignedInBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("count active users: %w", err)
	}
	if err := s.deps.Statistics.Upsert(ctx, repository.StatisticSnapshot{Date: from, ActiveUsers: n}); err != nil {
		return 0, fmt.Errorf("upsert snapshot: %w", err)
	}
	return n, nil
}

func (s *service) FindAverageActiveUsers(ctx context.Context, days int) (float64, error) {
	if days < 2 {
		return 0, ErrInvalidDays
	}
	rows, err := s.deps.Statistics.Latest(ctx, days)
	if err != nil {
		return 0, fmt.Errorf("latest snapshots: %w", err)
	}
	if len(rows) == 0 {
		return 0, ErrNoSnapshots
	}
	var sum int64
	for _, r := range rows {
		sum += r.ActiveUsers
	}
	return float64(sum) / float64(len(rows)), nil
}

func (s *service) Summary(ctx context.Context, days int) (*dto.StatisticResponse, error) {
	if days < 2 {
		return nil, ErrInvalidDays
	}

	total, err := s.cachedInt(ctx, "total_users", KeyTotalUsers, s.CountUsers)
	if err != nil {
		return nil, err
	}
	active, err := s.cachedInt(ctx, "active_users", KeyActiveUsers, s.CountActiveUsers)
	if err != nil {
		return nil, err
	}
	avgStr, err := s.cached(ctx, "avg_active_users", AverageKey(days), validFloat, func(ctx context.Context) (string, error) {
		v, err := s.FindAverageActiveUsers(ctx, days)
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	})
	if err != nil {
		return nil, err
	}
	avg, err := strconv.ParseFloat(avgStr, 64)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", AverageKey(days), err)
	}

	logger.From(ctx).Debug("summary ready",
		logger.Layer("service"), logger.Component(component), logger.Op("Summary"),
		logger.Days(days), logger.Bool("cache_enabled", s.deps.Cache != nil))
	return &dto.StatisticResponse{
		TotalUsers:         total,
		ActiveUsers:        active,
		AverageActiveUsers: avg,
	}, nil
}

func (s *service) cachedInt(ctx context.Context, stat, key string, compute func(context.Context) (int64, error)) (int64, error) {
	v, err := s.cached(ctx, stat, key, validInt, func(ctx context.Context) (string, error) {
		n, err := compute(ctx)
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(n, 10), nil
	})
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

// cached: hit devuelve el valor guardado (incluido "0"); miss, error de cache
// o un valor que valid rechaza recalculan.
func (s *service) cached(ctx context.Context, stat, key string, valid func(string) bool, compute func(context.Context) (string, error)) (string, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(component),
		logger.Op("cached"),
		logger.Key(key),
	)

	if s.deps.Cache != nil {
		v, found, err := s.deps.Cache.Get(ctx, key)
		switch {
		case err != nil:
			metrics.StatsCacheTotal.WithLabelValues(stat, "error").Inc()
			log.Warn("cache get failed", logger.Err(err))
		case found && valid(v):
			metrics.StatsCacheTotal.WithLabelValues(stat, "hit").Inc()
			return v, nil
		case found:
			log.Warn("discarding unparsable cached value", logger.String("value", v))
		}
	}
	metrics.StatsCacheTotal.WithLabelValues(stat, "miss").Inc()

	res, err, _ := s.group.Do(key, func() (any, error) {
		v, err := compute(ctx)
		if err != nil {
			return "", err
		}
		if s.deps.Cache != nil {
			if err := s.deps.Cache.Set(ctx, key, v, s.deps.TTL); err != nil {
				log.Warn("cache set failed", logger.Err(err))
			}
		}
		return v, nil
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

func validInt(v string) bool {
	_, err := strconv.ParseInt(v, 10, 64)
	return err == nil
}

func validFloat(v string) bool {
	f, err := strconv.ParseFloat(v, 64)
	return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
}
