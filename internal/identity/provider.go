package identity

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUserNotFound: el provider no tiene el uid/email pedido.
	ErrUserNotFound = errors.New("identity: user not found")
	// ErrEmailExists: alta con un email ya registrado.
	ErrEmailExists = errors.New("identity: email already exists")
	// ErrInvalidToken: token ausente, mal formado, expirado o revocado.
	ErrInvalidToken = errors.New("identity: invalid token")
	// ErrUpstream: el provider falló o no está disponible.
	ErrUpstream = errors.New("identity: upstream failure")
	// ErrMalformedRecord: el provider devolvió un registro sin uid o sin fecha de creación.
	ErrMalformedRecord = errors.New("identity: malformed record")
)

// Record es el usuario tal como lo entrega el provider.
// Timestamps en epoch millis; 0 significa ausente.
type Record struct {
	UID           string
	Email         string
	EmailVerified bool
	DisplayName   string
	PhotoURL      string
	Disabled      bool

	// Solo si el provider expone credenciales compatibles con security/password.
	PasswordHash string
	PasswordSalt string

	TokensValidAfterMillis int64
	CreationTimestamp      int64
	LastLogInTimestamp     int64
	LastRefreshTimestamp   int64
}

// CreateParams alta de usuario.
type CreateParams struct {
	Email       string
	Password    string
	DisplayName string
}

// UpdateParams: solo se envían los campos no nil.
type UpdateParams struct {
	DisplayName *string
	PhotoURL    *string
	Password    *string
}

// Page es una página de ListUsers. NextPageToken vacío: no hay más.
type Page struct {
	Records       []Record
	NextPageToken string
}

// Claims de un token verificado.
type Claims struct {
	UID           string         `json:"uid"`
	Email         string         `json:"email,omitempty"`
	EmailVerified bool           `json:"email_verified"`
	IssuedAt      time.Time      `json:"iat"`
	ExpiresAt     time.Time      `json:"exp"`
	Extra         map[string]any `json:"claims,omitempty"`
}

// Provider es el contrato de cada adapter de identity provider.
// Los adapters traducen sus errores de "no encontrado", "email duplicado" y
// "token inválido" a los sentinels de este paquete; el resto se considera upstream.
type Provider interface {
	Name() string
	CreateUser(ctx context.Context, p CreateParams) (*Record, error)
	GetUser(ctx context.Context, uid string) (*Record, error)
	GetUserByEmail(ctx context.Context, email string) (*Record, error)
	UpdateUser(ctx context.Context, uid string, p UpdateParams) (*Record, error)
	ListUsers(ctx context.Context, pageSize int, pageToken string) (*Page, error)
	VerifyToken(ctx context.Context, token string) (*Claims, error)
	IssueToken(ctx context.Context, uid string, claims map[string]any) (string, error)
}
