package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/usercopy/internal/domain/repository"
)

type userCopyRepo struct{ pool *pgxpool.Pool }

const userCopyColumns = `uid, email, email_verified, display_name, photo_url, password_hash, password_salt,
	tokens_valid_after_time, sign_in_count, creation_time, last_sign_in_time, last_refresh_time`

func scanUserCopy(row pgx.Row) (*repository.UserCopy, error) {
	var u repository.UserCopy
	err := row.Scan(
		&u.UID, &u.Email, &u.EmailVerified, &u.DisplayName, &u.PhotoURL, &u.PasswordHash, &u.PasswordSalt,
		&u.TokensValidAfterTime, &u.SignInCount, &u.CreationTime, &u.LastSignInTime, &u.LastRefreshTime,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userCopyRepo) Get(ctx context.Context, uid string) (*repository.UserCopy, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userCopyColumns+` FROM user_copy WHERE uid = $1`, uid)
	u, err := scanUserCopy(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("pg: get user copy: %w", err)
	}
	return u, nil
}

// reconcileSQL: el contador se decide dentro del mismo statement, sin read-then-write.
const reconcileSQL = `
INSERT INTO user_copy (
	uid, email, email_verified, display_name, photo_url, password_hash, password_salt,
	tokens_valid_after_time, sign_in_count, creation_time, last_sign_in_time, last_refresh_time
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9, $10, $11)
ON CONFLICT (uid) DO UPDATE SET
	email                   = EXCLUDED.email,
	email_verified          = EXCLUDED.email_verified,
	display_name            = EXCLUDED.display_name,
	photo_url               = EXCLUDED.photo_url,
	password_hash           = COALESCE(EXCLUDED.password_hash, user_copy.password_hash),
	password_salt           = COALESCE(EXCLUDED.password_salt, user_copy.password_salt),
	tokens_valid_after_time = EXCLUDED.tokens_valid_after_time,
	sign_in_count           = CASE
		WHEN user_copy.last_sign_in_time IS DISTINCT FROM EXCLUDED.last_sign_in_time
		THEN user_copy.sign_in_count + 1
		ELSE user_copy.sign_in_count
	END,
	last_sign_in_time       = EXCLUDED.last_sign_in_time,
	last_refresh_time       = EXCLUDED.last_refresh_time
RETURNING ` + userCopyColumns

func (r *userCopyRepo) Reconcile(ctx context.Context, in repository.UserCopy) (*repository.UserCopy, error) {
	if in.UID == "" || in.CreationTime.IsZero() {
		return nil, repository.ErrInvalidInput
	}
	// hash y salt viajan juntos
	hash, salt := in.PasswordHash, in.PasswordSalt
	if hash == nil || salt == nil {
		hash, salt = nil, nil
	}
	row := r.pool.QueryRow(ctx, reconcileSQL,
		in.UID, in.Email, in.EmailVerified, in.DisplayName, in.PhotoURL, hash, salt,
		in.TokensValidAfterTime, in.CreationTime, in.LastSignInTime, in.LastRefreshTime,
	)
	u, err := scanUserCopy(row)
	if err != nil {
		return nil, fmt.Errorf("pg: reconcile user copy: %w", err)
	}
	return u, nil
}

func (r *userCopyRepo) List(ctx context.Context, f repository.ListUsersFilter) ([]repository.UserCopy, error) {
	if f.Limit <= 0 {
		return nil, repository.ErrInvalidInput
	}
	// cursor desconocido: la subquery da NULL y la comparación filtra todo
	const q = `
		SELECT ` + userCopyColumns + `
		FROM user_copy
		WHERE $1::text IS NULL
		   OR (creation_time, uid) > (SELECT c.creation_time, c.uid FROM user_copy c WHERE c.uid = $1)
		ORDER BY creation_time ASC, uid ASC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, q, f.After, f.Limit)
	if err != nil {
		return nil, fmt.Errorf("pg: list user copies: %w", err)
	}
	defer rows.Close()

	out := make([]repository.UserCopy, 0, f.Limit)
	for rows.Next() {
		u, err := scanUserCopy(rows)
		if err != nil {
			return nil, fmt.Errorf("pg: scan user copy: %w", err)
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pg: list user copies: %w", err)
	}
	return out, nil
}

func (r *userCopyRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_copy`).Scan(&n); err != nil {
		return 0, fmt.Errorf("pg: count user copies: %w", err)
	}
	return n, nil
}

func (r *userCopyRepo) CountSignedInBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_copy WHERE last_sign_in_time >= $1 AND last_sign_in_time <= $2`,
		from, to,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("pg: count active user copies: %w", err)
	}
	return n, nil
}
