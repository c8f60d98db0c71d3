package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/usercopy/internal/domain/repository"
)

// Gateway envuelve un Provider: normaliza Records y clasifica errores.
type Gateway struct {
	provider Provider
}

func NewGateway(p Provider) *Gateway {
	return &Gateway{provider: p}
}

// ProviderName para logs y health.
func (g *Gateway) ProviderName() string { return g.provider.Name() }

func (g *Gateway) CreateUser(ctx context.Context, p CreateParams) (*repository.UserCopy, error) {
	rec, err := g.provider.CreateUser(ctx, p)
	if err != nil {
		return nil, classify("create user", err)
	}
	return ToUserModel(*rec)
}

func (g *Gateway) GetUser(ctx context.Context, uid string) (*repository.UserCopy, error) {
	rec, err := g.provider.GetUser(ctx, uid)
	if err != nil {
		return nil, classify("get user", err)
	}
	return ToUserModel(*rec)
}

func (g *Gateway) GetUserByEmail(ctx context.Context, email string) (*repository.UserCopy, error) {
	rec, err := g.provider.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, classify("get user by email", err)
	}
	return ToUserModel(*rec)
}

func (g *Gateway) UpdateUser(ctx context.Context, uid string, p UpdateParams) (*repository.UserCopy, error) {
	rec, err := g.provider.UpdateUser(ctx, uid, p)
	if err != nil {
		return nil, classify("update user", err)
	}
	return ToUserModel(*rec)
}

// ListUsers devuelve una página normalizada y el token de la siguiente ("" si no hay más).
func (g *Gateway) ListUsers(ctx context.Context, pageSize int, pageToken string) ([]repository.UserCopy, string, error) {
	page, err := g.provider.ListUsers(ctx, pageSize, pageToken)
	if err != nil {
		return nil, "", classify("list users", err)
	}
	out := make([]repository.UserCopy, 0, len(page.Records))
	for _, rec := range page.Records {
		u, err := ToUserModel(rec)
		if err != nil {
			return nil, "", err
		}
		out = append(out, *u)
	}
	return out, page.NextPageToken, nil
}

func (g *Gateway) VerifyToken(ctx context.Context, token string) (*Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrInvalidToken
	}
	c, err := g.provider.VerifyToken(ctx, token)
	if err != nil {
		return nil, classify("verify token", err)
	}
	return c, nil
}

func (g *Gateway) IssueToken(ctx context.Context, uid string, claims map[string]any) (string, error) {
	tok, err := g.provider.IssueToken(ctx, uid, claims)
	if err != nil {
		return "", classify("issue token", err)
	}
	return tok, nil
}

// classify deja pasar los sentinels conocidos y marca el resto como ErrUpstream.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrEmailExists),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrUpstream):
		return fmt.Errorf("identity: %s: %w", op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("identity: %s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrUpstream, op, err)
}

// ToUserModel convierte un Record al modelo interno.
// Timestamps 0 quedan en nil y strings vacíos opcionales quedan en nil.
// SignInCount no se toca: lo administra el store en Reconcile.
func ToUserModel(r Record) (*repository.UserCopy, error) {
	if r.UID == "" {
		return nil, fmt.Errorf("%w: missing uid", ErrMalformedRecord)
	}
	created := millis(r.CreationTimestamp)
	if created == nil {
		return nil, fmt.Errorf("%w: uid %s has no creation time", ErrMalformedRecord, r.UID)
	}
	return &repository.UserCopy{
		UID:                  r.UID,
		Email:                optString(r.Email),
		EmailVerified:        r.EmailVerified,
		DisplayName:          optString(r.DisplayName),
		PhotoURL:             optString(r.PhotoURL),
		PasswordHash:         optString(r.PasswordHash),
		PasswordSalt:         optString(r.PasswordSalt),
		TokensValidAfterTime: millis(r.TokensValidAfterMillis),
		CreationTime:         *created,
		LastSignInTime:       millis(r.LastLogInTimestamp),
		LastRefreshTime:      millis(r.LastRefreshTimestamp),
	}, nil
}

func millis(ms int64) *time.Time {
	if ms <= 0 {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
