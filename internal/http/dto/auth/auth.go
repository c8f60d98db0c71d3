// Package auth contiene DTOs para login y perfil.
package auth

import "time"

// LoginRequest body de POST /auth.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileResponse son los claims del token verificado (GET /profile).
type ProfileResponse struct {
	UID           string         `json:"uid"`
	Email         string         `json:"email,omitempty"`
	EmailVerified bool           `json:"emailVerified"`
	IssuedAt      time.Time      `json:"issuedAt"`
	ExpiresAt     time.Time      `json:"expiresAt"`
	Claims        map[string]any `json:"claims,omitempty"`
}
