// Package users contiene DTOs para los endpoints de usuarios.
package users

import (
	"time"

	"github.com/dropDatabas3/usercopy/internal/domain/repository"
)

// CreateUserRequest body de POST /user.
type CreateUserRequest struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

// UpdateInfoRequest body de PATCH /user/{uid}/info.
type UpdateInfoRequest struct {
	DisplayName string `json:"displayName"`
}

// UpdatePasswordRequest body de PATCH /user/{uid}/password.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// UserResponse es la vista pública de una fila del mirror.
// La credencial local nunca se serializa.
type UserResponse struct {
	UID                  string     `json:"uid"`
	Email                *string    `json:"email,omitempty"`
	EmailVerified        bool       `json:"emailVerified"`
	DisplayName          *string    `json:"displayName,omitempty"`
	PhotoURL             *string    `json:"photoURL,omitempty"`
	SignInCount          int64      `json:"signInCount"`
	TokensValidAfterTime *time.Time `json:"tokensValidAfterTime,omitempty"`
	CreationTime         time.Time  `json:"creationTime"`
	LastSignInTime       *time.Time `json:"lastSignInTime,omitempty"`
	LastRefreshTime      *time.Time `json:"lastRefreshTime,omitempty"`
}

// UsersPage respuesta de GET /users. PageToken es null cuando la página está vacía.
type UsersPage struct {
	Users     []UserResponse `json:"users"`
	PageToken *string        `json:"pageToken"`
}

// FromModel arma la respuesta a partir del modelo del mirror.
func FromModel(u repository.UserCopy) UserResponse {
	return UserResponse{
		UID:                  u.UID,
		Email:                u.Email,
		EmailVerified:        u.EmailVerified,
		DisplayName:          u.DisplayName,
		PhotoURL:             u.PhotoURL,
		SignInCount:          u.SignInCount,
		TokensValidAfterTime: u.TokensValidAfterTime,
		CreationTime:         u.CreationTime,
		LastSignInTime:       u.LastSignInTime,
		LastRefreshTime:      u.LastRefreshTime,
	}
}

// NewUsersPage construye la página; el token es el uid de la última fila.
func NewUsersPage(rows []repository.UserCopy) UsersPage {
	out := UsersPage{Users: make([]UserResponse, 0, len(rows))}
	for _, r := range rows {
		out.Users = append(out.Users, FromModel(r))
	}
	if n := len(rows); n > 0 {
		tok := rows[n-1].UID
		out.PageToken = &tok
	}
	return out
}
