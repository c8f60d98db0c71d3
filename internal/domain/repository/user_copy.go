package repository

import (
	"context"
	"time"
)

// UserCopy es la copia local de un usuario del identity provider.
type UserCopy struct {
	UID           string
	Email         *string
	EmailVerified bool
	DisplayName   *string
	PhotoURL      *string

	// Credencial local. Ver security/password.
	PasswordHash *string
	PasswordSalt *string

	// Tokens emitidos antes de este instante se consideran revocados.
	TokensValidAfterTime *time.Time

	// SignInCount lo administra exclusivamente el store en Reconcile.
	SignInCount int64

	CreationTime    time.Time
	LastSignInTime  *time.Time
	LastRefreshTime *time.Time
}

// HasCredential indica si hay hash y salt locales.
func (u *UserCopy) HasCredential() bool {
	return u != nil && u.PasswordHash != nil && *u.PasswordHash != "" &&
		u.PasswordSalt != nil && *u.PasswordSalt != ""
}

// ListUsersFilter pagina por cursor: After es el uid de la última fila vista.
type ListUsersFilter struct {
	Limit int
	After *string
}

// UserCopyRepository persiste el mirror.
type UserCopyRepository interface {
	// Get devuelve la fila por uid o ErrNotFound.
	Get(ctx context.Context, uid string) (*UserCopy, error)

	// Reconcile hace upsert por uid en una sola operación atómica:
	//   - fila nueva: SignInCount = 0
	//   - fila existente: SignInCount+1 solo si LastSignInTime difiere del guardado
	//   - CreationTime nunca se sobreescribe
	//   - PasswordHash/PasswordSalt nil conservan los valores guardados
	// SignInCount del input se ignora. Devuelve la fila resultante.
	Reconcile(ctx context.Context, in UserCopy) (*UserCopy, error)

	// List ordena por creation_time ASC, uid ASC y excluye la fila cursor.
	// Un cursor inexistente devuelve una página vacía.
	List(ctx context.Context, f ListUsersFilter) ([]UserCopy, error)

	// Count devuelve el total de filas.
	Count(ctx context.Context) (int64, error)

	// CountSignedInBetween cuenta filas con from <= last_sign_in_time <= to.
	CountSignedInBetween(ctx context.Context, from, to time.Time) (int64, error)
}
