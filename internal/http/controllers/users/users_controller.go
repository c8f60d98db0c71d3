// Package users contiene el controller de /user y /users.
package users

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/usercopy/internal/http/dto/users"
	httperrors "github.com/dropDatabas3/usercopy/internal/http/errors"
	"github.com/dropDatabas3/usercopy/internal/http/helpers"
	svc "github.com/dropDatabas3/usercopy/internal/http/services/users"
	"github.com/dropDatabas3/usercopy/internal/observability/logger"
)

// UsersController maneja las rutas de usuarios.
type UsersController struct {
	service svc.Service
}

// NewUsersController crea un nuevo controller de usuarios.
func NewUsersController(service svc.Service) *UsersController {
	return &UsersController{service: service}
}

// CreateUser maneja POST /user
func (c *UsersController) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("UsersController.CreateUser"))

	var req dto.CreateUserRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	u, err := c.service.CreateUser(ctx, req.DisplayName, req.Email, req.Password)
	if err != nil {
		log.Debug("create user failed", logger.Err(err))
		httperrors.WriteError(w, mapError(err))
		return
	}
	w.Header().Set("Location", "/user/"+u.UID)
	w.WriteHeader(http.StatusCreated)
}

// PullUser maneja PATCH /user/{uid}: trae el usuario del provider y reconcilia el mirror.
func (c *UsersController) PullUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := chi.URLParam(r, "uid")
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("UsersController.PullUser"), logger.UID(uid))

	if _, err := c.service.Reconcile(ctx, uid); err != nil {
		log.Debug("reconcile failed", logger.Err(err))
		httperrors.WriteError(w, mapError(err))
		return
	}
	w.WriteHeader(http.StatusOK)
}

// GetUser maneja GET /user/{uid}
func (c *UsersController) GetUser(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")
	u, err := c.service.FindUser(r.Context(), uid)
	if err != nil {
		httperrors.WriteError(w, mapError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.FromModel(*u))
}

// UpdateInfo maneja PATCH /user/{uid}/info
func (c *UsersController) UpdateInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := chi.URLParam(r, "uid")
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("UsersController.UpdateInfo"), logger.UID(uid))

	var req dto.UpdateInfoRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if err := c.service.UpdateUserInfo(ctx, uid, req.DisplayName); err != nil {
		log.Debug("update info failed", logger.Err(err))
		httperrors.WriteError(w, mapError(err))
		return
	}
	w.WriteHeader(http.StatusOK)
}

// UpdatePassword maneja PATCH /user/{uid}/password
func (c *UsersController) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := chi.URLParam(r, "uid")
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("UsersController.UpdatePassword"), logger.UID(uid))

	var req dto.UpdatePasswordRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("currentPassword and newPassword are required"))
		return
	}
	if err := c.service.UpdateUserPassword(ctx, uid, req.CurrentPassword, req.NewPassword); err != nil {
		log.Debug("update password failed", logger.Err(err))
		httperrors.WriteError(w, mapError(err))
		return
	}
	w.WriteHeader(http.StatusOK)
}

// ListUsers maneja GET /users?pageSize=&pageToken=
func (c *UsersController) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pageSize, ok := helpers.OptionalInt(r, "pageSize")
	if !ok {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail("pageSize must be an integer"))
		return
	}
	rows, err := c.service.FindUsers(ctx, pageSize, helpers.OptionalString(r, "pageToken"))
	if err != nil {
		httperrors.WriteError(w, mapError(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewUsersPage(rows))
}

func mapError(err error) *httperrors.AppError {
	switch {
	case errors.Is(err, svc.ErrInvalidPageSize):
		return httperrors.ErrInvalidParameter.WithDetail(err.Error())
	case errors.Is(err, svc.ErrMissingFields):
		return httperrors.ErrMissingFields
	default:
		return httperrors.FromDomain(err)
	}
}
