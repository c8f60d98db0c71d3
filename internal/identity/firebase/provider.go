// Package firebase adapta Firebase Authentication (Admin SDK) a identity.Provider.
package firebase

import (
	"context"
	"fmt"
	"time"

	fb "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/dropDatabas3/usercopy/internal/identity"
)

// Config del proyecto Firebase. CredentialsFile vacío usa Application Default Credentials.
type Config struct {
	ProjectID       string
	CredentialsFile string
}

type Provider struct {
	client *auth.Client
}

var _ identity.Provider = (*Provider)(nil)

func New(ctx context.Context, cfg Config) (*Provider, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	var fcfg *fb.Config
	if cfg.ProjectID != "" {
		fcfg = &fb.Config{ProjectID: cfg.ProjectID}
	}
	app, err := fb.NewApp(ctx, fcfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase: new app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: auth client: %w", err)
	}
	return &Provider{client: client}, nil
}

func (p *Provider) Name() string { return "firebase" }

func (p *Provider) CreateUser(ctx context.Context, in identity.CreateParams) (*identity.Record, error) {
	params := (&auth.UserToCreate{}).
		Email(in.Email).
		Password(in.Password).
		EmailVerified(false).
		Disabled(false)
	if in.DisplayName != "" {
		params = params.DisplayName(in.DisplayName)
	}
	u, err := p.client.CreateUser(ctx, params)
	if err != nil {
		return nil, mapErr(err)
	}
	return toRecord(u), nil
}

func (p *Provider) GetUser(ctx context.Context, uid string) (*identity.Record, error) {
	u, err := p.client.GetUser(ctx, uid)
	if err != nil {
		return nil, mapErr(err)
	}
	return toRecord(u), nil
}

func (p *Provider) GetUserByEmail(ctx context.Context, email string) (*identity.Record, error) {
	u, err := p.client.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, mapErr(err)
	}
	return toRecord(u), nil
}

func (p *Provider) UpdateUser(ctx context.Context, uid string, in identity.UpdateParams) (*identity.Record, error) {
	params := &auth.UserToUpdate{}
	if in.DisplayName != nil {
		params = params.DisplayName(*in.DisplayName)
	}
	if in.PhotoURL != nil {
		params = params.PhotoURL(*in.PhotoURL)
	}
	if in.Password != nil {
		params = params.Password(*in.Password)
	}
	u, err := p.client.UpdateUser(ctx, uid, params)
	if err != nil {
		return nil, mapErr(err)
	}
	return toRecord(u), nil
}

func (p *Provider) ListUsers(ctx context.Context, pageSize int, pageToken string) (*identity.Page, error) {
	if pageSize <= 0 || pageSize > 1000 {
		pageSize = 1000
	}
	var users []*auth.ExportedUserRecord
	pager := iterator.NewPager(p.client.Users(ctx, ""), pageSize, pageToken)
	next, err := pager.NextPage(&users)
	if err != nil {
		return nil, mapErr(err)
	}
	page := &identity.Page{Records: make([]identity.Record, 0, len(users)), NextPageToken: next}
	for _, u := range users {
		if u == nil || u.UserRecord == nil {
			continue
		}
		page.Records = append(page.Records, *toRecord(u.UserRecord))
	}
	return page, nil
}

// VerifyToken verifica un ID token y además chequea revocación.
func (p *Provider) VerifyToken(ctx context.Context, raw string) (*identity.Claims, error) {
	tok, err := p.client.VerifyIDTokenAndCheckRevoked(ctx, raw)
	if err != nil {
		if auth.IsUserNotFound(err) || auth.IsIDTokenRevoked(err) || auth.IsIDTokenInvalid(err) || auth.IsUserDisabled(err) {
			return nil, fmt.Errorf("%w: %v", identity.ErrInvalidToken, err)
		}
		return nil, err
	}
	c := &identity.Claims{
		UID:       tok.UID,
		IssuedAt:  time.Unix(tok.IssuedAt, 0).UTC(),
		ExpiresAt: time.Unix(tok.Expires, 0).UTC(),
		Extra:     tok.Claims,
	}
	if v, ok := tok.Claims["email"].(string); ok {
		c.Email = v
	}
	if v, ok := tok.Claims["email_verified"].(bool); ok {
		c.EmailVerified = v
	}
	return c, nil
}

// IssueToken emite un custom token; el cliente lo canjea por un ID token.
func (p *Provider) IssueToken(ctx context.Context, uid string, claims map[string]any) (string, error) {
	tok, err := p.client.CustomTokenWithClaims(ctx, uid, claims)
	if err != nil {
		return "", mapErr(err)
	}
	return tok, nil
}

func mapErr(err error) error {
	switch {
	case auth.IsUserNotFound(err):
		return fmt.Errorf("%w: %v", identity.ErrUserNotFound, err)
	case auth.IsEmailAlreadyExists(err):
		return fmt.Errorf("%w: %v", identity.ErrEmailExists, err)
	}
	return err
}

// toRecord no copia credenciales: el hash de Firebase (scrypt modificado) no es
// verificable con security/password. El mirror conserva el hash local.
func toRecord(u *auth.UserRecord) *identity.Record {
	rec := &identity.Record{
		EmailVerified:          u.EmailVerified,
		Disabled:               u.Disabled,
		TokensValidAfterMillis: u.TokensValidAfterMillis,
	}
	if u.UserInfo != nil {
		rec.UID = u.UID
		rec.Email = u.Email
		rec.DisplayName = u.DisplayName
		rec.PhotoURL = u.PhotoURL
	}
	if u.UserMetadata != nil {
		rec.CreationTimestamp = u.UserMetadata.CreationTimestamp
		rec.LastLogInTimestamp = u.UserMetadata.LastLogInTimestamp
		rec.LastRefreshTimestamp = u.UserMetadata.LastRefreshTimestamp
	}
	return rec
}
