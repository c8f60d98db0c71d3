package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/dropDatabas3/usercopy/internal/security/password"
)

// AppError es el cuerpo de error de la API. HTTPStatus y Err no se serializan.
type AppError struct {
	Code       string               `json:"code"`
	Message    string               `json:"message"`
	Detail     string               `json:"detail,omitempty"`
	Violations []password.Violation `json:"violations,omitempty"`
	HTTPStatus int                  `json:"-"`
	Err        error                `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// New crea un AppError de catálogo.
func New(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// FromError devuelve el *AppError de la cadena o un 500 que conserva la causa.
func FromError(err error) *AppError {
	var ae *AppError
	if stderrors.As(err, &ae) {
		return ae
	}
	return ErrInternalServerError.WithCause(err)
}

// Los With* devuelven copias; el catálogo no se modifica.

func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

func (e *AppError) WithCause(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// WithViolations adjunta las reglas de contraseña violadas, en el orden de password.Rules.
func (e *AppError) WithViolations(v []password.Violation) *AppError {
	cp := *e
	cp.Violations = v
	return &cp
}

// Catálogo. Los mensajes de validación y credenciales son los que ya
// esperan los clientes del servicio ("invalid-password", display name).
var (
	// 400
	ErrInvalidJSON        = New(http.StatusBadRequest, "INVALID_JSON", "request body is not valid JSON")
	ErrMissingFields      = New(http.StatusBadRequest, "MISSING_FIELDS", "required fields are missing")
	ErrInvalidParameter   = New(http.StatusBadRequest, "INVALID_PARAMETER", "invalid query parameter")
	ErrInvalidDisplayName = New(http.StatusBadRequest, "INVALID_DISPLAY_NAME", password.ErrInvalidDisplayName.Error())
	ErrPasswordTooWeak    = New(http.StatusBadRequest, "PASSWORD_TOO_WEAK", "password does not satisfy the policy")
	ErrPasswordTooLong    = New(http.StatusBadRequest, "PASSWORD_TOO_LONG", password.ErrPasswordTooLong.Error())
	ErrInvalidPassword    = New(http.StatusBadRequest, "INVALID_PASSWORD", password.ErrCredentialMismatch.Error())
	ErrEmailAlreadyInUse  = New(http.StatusBadRequest, "EMAIL_ALREADY_IN_USE", "email is already registered")
	ErrBodyTooLarge       = New(http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "request body too large")

	// 401 / 403
	ErrTokenMissing = New(http.StatusUnauthorized, "TOKEN_MISSING", "bearer token required")
	ErrTokenInvalid = New(http.StatusUnauthorized, "TOKEN_INVALID", "token is invalid, expired or revoked")
	ErrForbidden    = New(http.StatusForbidden, "FORBIDDEN", "token subject does not match the requested user")

	// 404 / 405
	ErrUserNotFound     = New(http.StatusNotFound, "USER_NOT_FOUND", "user not found")
	ErrNoStatistics     = New(http.StatusNotFound, "NO_STATISTICS", "no statistic snapshots recorded yet")
	ErrRouteNotFound    = New(http.StatusNotFound, "ROUTE_NOT_FOUND", "route not found")
	ErrMethodNotAllowed = New(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")

	// 429
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "too many requests")

	// 5xx
	ErrInternalServerError = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error")
	ErrUpstream            = New(http.StatusServiceUnavailable, "UPSTREAM_FAILURE", "identity provider unavailable")
)
