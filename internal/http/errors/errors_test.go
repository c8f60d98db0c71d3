package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/usercopy/internal/domain/repository"
	"github.com/dropDatabas3/usercopy/internal/identity"
	"github.com/dropDatabas3/usercopy/internal/security/password"
)

func TestWriteError_AppErrorWithViolations(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, ErrPasswordTooWeak.WithViolations(password.Evaluate("abcdefg1")))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Code       string               `json:"code"`
		Violations []password.Violation `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "PASSWORD_TOO_WEAK", body.Code)
	require.Len(t, body.Violations, 2)
	assert.Equal(t, "pwd-no-upper", body.Violations[0].Code)
	assert.Equal(t, "pwd-no-special", body.Violations[1].Code)
}

func TestWriteError_GenericIsInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
	assert.NotContains(t, rec.Body.String(), "violations")
}

func TestWithHelpersDoNotMutateCatalogue(t *testing.T) {
	_ = ErrUserNotFound.WithDetail("x").WithCause(errors.New("y"))
	assert.Empty(t, ErrUserNotFound.Detail)
	assert.Nil(t, ErrUserNotFound.Err)
}

func TestFromDomain(t *testing.T) {
	tests := []struct {
		err    error
		code   string
		status int
	}{
		{password.Check("abc"), "PASSWORD_TOO_WEAK", http.StatusBadRequest},
		{fmt.Errorf("hash password: %w", password.ErrPasswordTooLong), "PASSWORD_TOO_LONG", http.StatusBadRequest},
		{password.ErrInvalidDisplayName, "INVALID_DISPLAY_NAME", http.StatusBadRequest},
		{password.ErrCredentialMismatch, "INVALID_PASSWORD", http.StatusBadRequest},
		{repository.ErrNotFound, "USER_NOT_FOUND", http.StatusNotFound},
		{fmt.Errorf("identity: get user: %w", identity.ErrUserNotFound), "USER_NOT_FOUND", http.StatusNotFound},
		{identity.ErrEmailExists, "EMAIL_ALREADY_IN_USE", http.StatusBadRequest},
		{identity.ErrInvalidToken, "TOKEN_INVALID", http.StatusUnauthorized},
		{identity.ErrUpstream, "UPSTREAM_FAILURE", http.StatusServiceUnavailable},
		{errors.New("pg down"), "INTERNAL_SERVER_ERROR", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		ae := FromDomain(tt.err)
		assert.Equal(t, tt.code, ae.Code, tt.err.Error())
		assert.Equal(t, tt.status, ae.HTTPStatus, tt.err.Error())
	}

	weak := FromDomain(password.Check("abc"))
	assert.NotEmpty(t, weak.Violations)
}
