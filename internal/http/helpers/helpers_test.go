package helpers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSON(t *testing.T) {
	var body struct {
		Email string `json:"email"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.c","extra":1}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	require.True(t, ReadJSON(rec, req, &body))
	assert.Equal(t, "a@b.c", body.Email)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	require.False(t, ReadJSON(rec, req, &body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	rec = httptest.NewRecorder()
	require.False(t, ReadJSON(rec, req, &body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWriteText(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteText(rec, http.StatusOK, "abc.def.ghi")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc.def.ghi", rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
}

func TestOptionalInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/users?pageSize=5&bad=x", nil)

	v, ok := OptionalInt(req, "pageSize")
	require.True(t, ok)
	require.NotNil(t, v)
	assert.Equal(t, 5, *v)

	v, ok = OptionalInt(req, "missing")
	assert.True(t, ok)
	assert.Nil(t, v)

	_, ok = OptionalInt(req, "bad")
	assert.False(t, ok)
}
