// Package local implementa un identity provider en memoria para desarrollo y tests.
//
// Emite JWT HS256 propios. Cada IssueToken cuenta como un inicio de sesión
// (actualiza LastLogInTimestamp) y un cambio de contraseña revoca los tokens
// anteriores vía TokensValidAfterMillis, igual que un provider real.
package local

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dropDatabas3/usercopy/internal/identity"
	"github.com/dropDatabas3/usercopy/internal/security/password"
)

// Config del provider local.
type Config struct {
	Secret   []byte
	Issuer   string
	TokenTTL time.Duration
	// Hasher para las contraseñas guardadas. Default: password.DefaultHasher.
	Hasher password.Hasher
	// Now para tests. Default: time.Now.
	Now func() time.Time
}

type user struct {
	rec identity.Record
	seq int64
}

// Provider es seguro para uso concurrente.
type Provider struct {
	cfg Config

	mu      sync.RWMutex
	byUID   map[string]*user
	byEmail map[string]string
	seq     int64
}

var _ identity.Provider = (*Provider)(nil)

func New(cfg Config) (*Provider, error) {
	if len(cfg.Secret) < 16 {
		return nil, errors.New("local identity: secret must be at least 16 bytes")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "usercopy-local"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.Hasher == nil {
		cfg.Hasher = password.DefaultHasher
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Provider{
		cfg:     cfg,
		byUID:   map[string]*user{},
		byEmail: map[string]string{},
	}, nil
}

func (p *Provider) Name() string { return "local" }

func normEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

func (p *Provider) CreateUser(_ context.Context, in identity.CreateParams) (*identity.Record, error) {
	email := normEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, errors.New("local identity: email and password are required")
	}
	cred, err := p.cfg.Hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("local identity: hash: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.byEmail[email]; ok {
		return nil, identity.ErrEmailExists
	}
	p.seq++
	u := &user{
		seq: p.seq,
		rec: identity.Record{
			UID:               strings.ReplaceAll(uuid.NewString(), "-", ""),
			Email:             email,
			DisplayName:       in.DisplayName,
			PasswordHash:      cred.Hash,
			PasswordSalt:      cred.Salt,
			CreationTimestamp: p.cfg.Now().UnixMilli(),
		},
	}
	p.byUID[u.rec.UID] = u
	p.byEmail[email] = u.rec.UID
	rec := u.rec
	return &rec, nil
}

func (p *Provider) GetUser(_ context.Context, uid string) (*identity.Record, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	u, ok := p.byUID[uid]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	rec := u.rec
	return &rec, nil
}

func (p *Provider) GetUserByEmail(ctx context.Context, email string) (*identity.Record, error) {
	p.mu.RLock()
	uid, ok := p.byEmail[normEmail(email)]
	p.mu.RUnlock()
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	return p.GetUser(ctx, uid)
}

func (p *Provider) UpdateUser(_ context.Context, uid string, in identity.UpdateParams) (*identity.Record, error) {
	var cred *password.Credential
	if in.Password != nil {
		c, err := p.cfg.Hasher.Hash(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("local identity: hash: %w", err)
		}
		cred = &c
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	u, ok := p.byUID[uid]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	if in.DisplayName != nil {
		u.rec.DisplayName = *in.DisplayName
	}
	if in.PhotoURL != nil {
		u.rec.PhotoURL = *in.PhotoURL
	}
	if cred != nil {
		u.rec.PasswordHash = cred.Hash
		u.rec.PasswordSalt = cred.Salt
		// revoca tokens emitidos antes de este segundo
		u.rec.TokensValidAfterMillis = p.cfg.Now().Truncate(time.Second).UnixMilli()
	}
	rec := u.rec
	return &rec, nil
}

// ListUsers pagina en orden de alta. El token es el uid del último de la página.
func (p *Provider) ListUsers(_ context.Context, pageSize int, pageToken string) (*identity.Page, error) {
	if pageSize <= 0 {
		pageSize = 1000
	}
	p.mu.RLock()
	all := make([]*user, 0, len(p.byUID))
	for _, u := range p.byUID {
		all = append(all, u)
	}
	p.mu.RUnlock()
	sort.Slice(all, func(i, j int) bool { return all[i].seq < all[j].seq })

	start := 0
	if pageToken != "" {
		start = -1
		for i, u := range all {
			if u.rec.UID == pageToken {
				start = i + 1
				break
			}
		}
		if start < 0 {
			return nil, fmt.Errorf("local identity: unknown page token")
		}
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	page := &identity.Page{Records: make([]identity.Record, 0, end-start)}
	for _, u := range all[start:end] {
		page.Records = append(page.Records, u.rec)
	}
	if end < len(all) && end > start {
		page.NextPageToken = all[end-1].rec.UID
	}
	return page, nil
}

type tokenClaims struct {
	UID           string         `json:"uid"`
	Email         string         `json:"email,omitempty"`
	EmailVerified bool           `json:"email_verified"`
	Extra         map[string]any `json:"claims,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken firma un token para uid y registra el inicio de sesión.
func (p *Provider) IssueToken(_ context.Context, uid string, extra map[string]any) (string, error) {
	now := p.cfg.Now()

	p.mu.Lock()
	u, ok := p.byUID[uid]
	if !ok {
		p.mu.Unlock()
		return "", identity.ErrUserNotFound
	}
	u.rec.LastLogInTimestamp = now.UnixMilli()
	u.rec.LastRefreshTimestamp = now.UnixMilli()
	email, verified := u.rec.Email, u.rec.EmailVerified
	p.mu.Unlock()

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		UID:           uid,
		Email:         email,
		EmailVerified: verified,
		Extra:         extra,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			Issuer:    p.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.cfg.TokenTTL)),
		},
	})
	s, err := tok.SignedString(p.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("local identity: sign: %w", err)
	}
	return s, nil
}

func (p *Provider) VerifyToken(_ context.Context, raw string) (*identity.Claims, error) {
	var tc tokenClaims
	_, err := jwt.ParseWithClaims(raw, &tc, func(t *jwt.Token) (any, error) {
		return p.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.cfg.Issuer),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(p.cfg.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", identity.ErrInvalidToken, err)
	}
	if tc.IssuedAt == nil || tc.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing iat/exp", identity.ErrInvalidToken)
	}

	p.mu.RLock()
	u, ok := p.byUID[tc.UID]
	var validAfter int64
	if ok {
		validAfter = u.rec.TokensValidAfterMillis
	}
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unknown subject", identity.ErrInvalidToken)
	}
	if validAfter > 0 && tc.IssuedAt.Time.UnixMilli() < validAfter {
		return nil, fmt.Errorf("%w: revoked", identity.ErrInvalidToken)
	}

	return &identity.Claims{
		UID:           tc.UID,
		Email:         tc.Email,
		EmailVerified: tc.EmailVerified,
		IssuedAt:      tc.IssuedAt.Time,
		ExpiresAt:     tc.ExpiresAt.Time,
		Extra:         tc.Extra,
	}, nil
}
