// Package auth contiene los controllers de login y perfil.
package auth

import (
	"errors"
	"net/http"

	dto "github.com/dropDatabas3/usercopy/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/usercopy/internal/http/errors"
	"github.com/dropDatabas3/usercopy/internal/http/helpers"
	mw "github.com/dropDatabas3/usercopy/internal/http/middlewares"
	svc "github.com/dropDatabas3/usercopy/internal/http/services/auth"
	"github.com/dropDatabas3/usercopy/internal/observability/logger"
)

// AuthController maneja POST /auth y GET /profile.
type AuthController struct {
	service svc.LoginService
}

// NewAuthController crea un nuevo controller de auth.
func NewAuthController(service svc.LoginService) *AuthController {
	return &AuthController{service: service}
}

// Login maneja POST /auth
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AuthController.Login"))

	var req dto.LoginRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	token, err := c.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, svc.ErrMissingFields) {
			httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("email and password are required"))
			return
		}
		log.Debug("login failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.FromDomain(err))
		return
	}
	// el token va como body plano, sin envoltorio JSON
	helpers.WriteText(w, http.StatusOK, token)
}

// Profile maneja GET /profile: devuelve los claims del token verificado.
func (c *AuthController) Profile(w http.ResponseWriter, r *http.Request) {
	claims := mw.GetClaims(r.Context())
	if claims == nil {
		httperrors.WriteError(w, httperrors.ErrTokenMissing)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ProfileResponse{
		UID:           claims.UID,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		IssuedAt:      claims.IssuedAt,
		ExpiresAt:     claims.ExpiresAt,
		Claims:        claims.Extra,
	})
}
