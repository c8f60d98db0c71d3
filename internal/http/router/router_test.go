package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/usercopy/internal/cache"
	"github.com/dropDatabas3/usercopy/internal/http/controllers"
	usersdto "github.com/dropDatabas3/usercopy/internal/http/dto/users"
	"github.com/dropDatabas3/usercopy/internal/http/services"
	"github.com/dropDatabas3/usercopy/internal/identity"
	"github.com/dropDatabas3/usercopy/internal/identity/local"
	"github.com/dropDatabas3/usercopy/internal/rate"
	"github.com/dropDatabas3/usercopy/internal/security/password"
	"github.com/dropDatabas3/usercopy/internal/store/memory"
)

type api struct {
	t       *testing.T
	handler http.Handler
}

func newAPI(t *testing.T, limiter rate.Limiter) *api {
	t.Helper()
	hasher := password.Bcrypt{Cost: 4}
	p, err := local.New(local.Config{Secret: []byte("0123456789abcdef0123456789abcdef"), Hasher: hasher})
	require.NoError(t, err)
	gw := identity.NewGateway(p)

	svcs := services.New(services.Deps{
		Identity: gw,
		Store:    memory.New(time.Local),
		Cache:    cache.NewMemory("test"),
		Hasher:   hasher,
		Location: time.Local,
	})
	return &api{t: t, handler: New(Deps{
		Controllers: controllers.New(svcs, 7),
		Verifier:    gw,
		RateLimiter: limiter,
	})}
}

func (a *api) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *api) register(name, email, pw string) {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/user", "", map[string]string{"displayName": name, "email": email, "password": pw})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (a *api) login(email, pw string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/auth", "", map[string]string{"email": email, "password": pw})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	require.True(a.t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	token := rec.Body.String()
	require.NotEmpty(a.t, token)
	require.False(a.t, strings.HasPrefix(token, "{"))
	return token
}

func (a *api) profileUID(token string) string {
	a.t.Helper()
	rec := a.do(http.MethodGet, "/profile", token, nil)
	require.Equal(a.t, http.StatusOK, rec.Code)
	var out struct {
		UID string `json:"uid"`
	}
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.UID
}

func TestHealthz(t *testing.T) {
	a := newAPI(t, nil)
	rec := a.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = a.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ready"`)
}

func TestCreateUser_WeakPasswordReturnsOrderedViolations(t *testing.T) {
	a := newAPI(t, nil)
	rec := a.do(http.MethodPost, "/user", "", map[string]string{"displayName": "Ana", "email": "ana@example.com", "password": "abcdefg1"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Violations []password.Violation `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Violations, 2)
	assert.Equal(t, "pwd-no-upper", body.Violations[0].Code)
	assert.Equal(t, "pwd-no-special", body.Violations[1].Code)
}

func TestCreateUser_PasswordOverMaxBytes(t *testing.T) {
	a := newAPI(t, nil)
	long := "Abc123!@" + strings.Repeat("x", 72)
	rec := a.do(http.MethodPost, "/user", "", map[string]string{"displayName": "Ana", "email": "ana@example.com", "password": long})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"PASSWORD_TOO_LONG"`)

	// no quedó ninguna cuenta a medio crear
	a.register("Ana", "ana@example.com", "Abc123!@")
	token := a.login("ana@example.com", "Abc123!@")
	uid := a.profileUID(token)

	rec = a.do(http.MethodPatch, "/user/"+uid+"/password", token, map[string]string{"currentPassword": "Abc123!@", "newPassword": long})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"PASSWORD_TOO_LONG"`)
	a.login("ana@example.com", "Abc123!@")
}

func TestCreateUser_InvalidJSON(t *testing.T) {
	a := newAPI(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/user", bytes.NewBufferString(`{"email":`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserLifecycle(t *testing.T) {
	a := newAPI(t, nil)
	a.register("Ana", "ana@example.com", "Abc123!@")

	// login fallido
	rec := a.do(http.MethodPost, "/auth", "", map[string]string{"email": "ana@example.com", "password": "Nope123!"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid-password")

	token := a.login("ana@example.com", "Abc123!@")
	uid := a.profileUID(token)

	// GET /user/{uid}
	rec = a.do(http.MethodGet, "/user/"+uid, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var u usersdto.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.EqualValues(t, 1, u.SignInCount)
	assert.NotContains(t, rec.Body.String(), "password")

	// info
	rec = a.do(http.MethodPatch, "/user/"+uid+"/info", token, map[string]string{"displayName": "Ana 2"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = a.do(http.MethodPatch, "/user/"+uid+"/info", token, map[string]string{"displayName": "Ana Maria"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// pull
	rec = a.do(http.MethodPatch, "/user/"+uid, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// password
	rec = a.do(http.MethodPatch, "/user/"+uid+"/password", token, map[string]string{"currentPassword": "Wrong123!", "newPassword": "Xyz789#$"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = a.do(http.MethodPatch, "/user/"+uid+"/password", token, map[string]string{"currentPassword": "Abc123!@", "newPassword": "short"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "pwd-length")
	rec = a.do(http.MethodPatch, "/user/"+uid+"/password", token, map[string]string{"currentPassword": "Abc123!@", "newPassword": "Xyz789#$"})
	assert.Equal(t, http.StatusOK, rec.Code)

	a.login("ana@example.com", "Xyz789#$")
}

func TestMutationsRequireOwnUID(t *testing.T) {
	a := newAPI(t, nil)
	a.register("Ana", "ana@example.com", "Abc123!@")
	a.register("Bob", "bob@example.com", "Abc123!@")
	anaToken := a.login("ana@example.com", "Abc123!@")
	bobUID := a.profileUID(a.login("bob@example.com", "Abc123!@"))

	rec := a.do(http.MethodPatch, "/user/"+bobUID+"/info", anaToken, map[string]string{"displayName": "Hacked"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodPatch, "/user/"+bobUID+"/info", "", map[string]string{"displayName": "Hacked"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(http.MethodGet, "/profile", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListUsers(t *testing.T) {
	a := newAPI(t, nil)
	for _, n := range []string{"Ana", "Bob", "Carla"} {
		a.register(n, n+"@example.com", "Abc123!@")
	}

	rec := a.do(http.MethodGet, "/users?pageSize=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page usersdto.UsersPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Users, 2)
	require.NotNil(t, page.PageToken)
	assert.Equal(t, page.Users[1].UID, *page.PageToken)

	rec = a.do(http.MethodGet, "/users?pageSize=2&pageToken="+*page.PageToken, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var next usersdto.UsersPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &next))
	require.Len(t, next.Users, 1)

	rec = a.do(http.MethodGet, "/users?pageToken="+next.Users[0].UID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"users":[],"pageToken":null}`, rec.Body.String())

	rec = a.do(http.MethodGet, "/users?pageSize=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = a.do(http.MethodGet, "/users?pageSize=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUsersStatistic(t *testing.T) {
	a := newAPI(t, nil)
	a.register("Ana", "ana@example.com", "Abc123!@")
	a.register("Bob", "bob@example.com", "Abc123!@")
	token := a.login("ana@example.com", "Abc123!@")

	rec := a.do(http.MethodGet, "/users-statistic", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(http.MethodGet, "/users-statistic?numberOfDays=1", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodGet, "/users-statistic", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"totalUsers":2,"activeUsers":1,"averageActiveUsers":1}`, rec.Body.String())
}

func TestRateLimitOnLogin(t *testing.T) {
	a := newAPI(t, rate.NewMemoryLimiter(1, time.Minute))
	body := map[string]string{"email": "x@example.com", "password": "Abc123!@"}

	rec := a.do(http.MethodPost, "/auth", "", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = a.do(http.MethodPost, "/auth", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// GET /users no está limitado
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/users", "", nil).Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	a := newAPI(t, nil)
	rec := a.do(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
