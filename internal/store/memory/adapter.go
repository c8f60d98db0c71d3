// Package memory implementa el store en memoria (dev y tests).
//
// Reconcile corre bajo el mutex del store, lo que da la misma atomicidad que
// el upsert condicional de PostgreSQL.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dropDatabas3/usercopy/internal/domain/repository"
	"github.com/dropDatabas3/usercopy/internal/store"
)

func init() {
	store.RegisterAdapter(&memoryAdapter{})
}

type memoryAdapter struct{}

func (a *memoryAdapter) Name() string { return "memory" }

func (a *memoryAdapter) Connect(_ context.Context, cfg store.Config) (store.Connection, error) {
	return New(cfg.Location), nil
}

// Store guarda usuarios y estadísticas en mapas protegidos por un RWMutex.
type Store struct {
	loc *time.Location

	mu    sync.RWMutex
	users map[string]repository.UserCopy
	stats map[string]repository.StatisticSnapshot
}

var _ store.Connection = (*Store)(nil)

func New(loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{
		loc:   loc,
		users: map[string]repository.UserCopy{},
		stats: map[string]repository.StatisticSnapshot{},
	}
}

func (s *Store) Name() string               { return "memory" }
func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) Users() repository.UserCopyRepository { return (*userCopyRepo)(s) }
func (s *Store) Statistics() repository.StatisticRepository {
	return (*statisticRepo)(s)
}

// ─── UserCopyRepository ───

type userCopyRepo Store

func (r *userCopyRepo) Get(ctx context.Context, uid string) (*repository.UserCopy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[uid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userCopyRepo) Reconcile(ctx context.Context, in repository.UserCopy) (*repository.UserCopy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if in.UID == "" || in.CreationTime.IsZero() {
		return nil, repository.ErrInvalidInput
	}
	if in.PasswordHash == nil || in.PasswordSalt == nil {
		in.PasswordHash, in.PasswordSalt = nil, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur, exists := r.users[in.UID]
	if !exists {
		in.SignInCount = 0
	} else {
		in.CreationTime = cur.CreationTime
		in.SignInCount = cur.SignInCount
		if !sameInstant(cur.LastSignInTime, in.LastSignInTime) {
			in.SignInCount++
		}
		if in.PasswordHash == nil {
			in.PasswordHash, in.PasswordSalt = cur.PasswordHash, cur.PasswordSalt
		}
	}
	r.users[in.UID] = in
	out := in
	return &out, nil
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func less(a, b repository.UserCopy) bool {
	if !a.CreationTime.Equal(b.CreationTime) {
		return a.CreationTime.Before(b.CreationTime)
	}
	return a.UID < b.UID
}

func (r *userCopyRepo) List(ctx context.Context, f repository.ListUsersFilter) ([]repository.UserCopy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Limit <= 0 {
		return nil, repository.ErrInvalidInput
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var cursor *repository.UserCopy
	if f.After != nil {
		c, ok := r.users[*f.After]
		if !ok {
			return []repository.UserCopy{}, nil
		}
		cursor = &c
	}

	all := make([]repository.UserCopy, 0, len(r.users))
	for _, u := range r.users {
		if cursor != nil && !less(*cursor, u) {
			continue
		}
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return less(all[i], all[j]) })
	if len(all) > f.Limit {
		all = all[:f.Limit]
	}
	return all, nil
}

func (r *userCopyRepo) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

func (r *userCopyRepo) CountSignedInBetween(ctx context.Context, from, to time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, u := range r.users {
		if u.LastSignInTime == nil {
			continue
		}
		t := *u.LastSignInTime
		if !t.Before(from) && !t.After(to) {
			n++
		}
	}
	return n, nil
}

// ─── StatisticRepository ───

type statisticRepo Store

const dateLayout = "2006-01-02"

func (r *statisticRepo) Upsert(ctx context.Context, s repository.StatisticSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.ActiveUsers < 0 {
		return repository.ErrInvalidInput
	}
	local := s.Date.In(r.loc)
	s.Date = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, r.loc)

	r.mu.Lock()
	r.stats[s.Date.Format(dateLayout)] = s
	r.mu.Unlock()
	return nil
}

func (r *statisticRepo) Latest(ctx context.Context, n int) ([]repository.StatisticSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, repository.ErrInvalidInput
	}
	r.mu.RLock()
	out := make([]repository.StatisticSnapshot, 0, len(r.stats))
	for _, s := range r.stats {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}
