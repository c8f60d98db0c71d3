package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/usercopy/internal/http/services/users"
	"github.com/dropDatabas3/usercopy/internal/identity"
	"github.com/dropDatabas3/usercopy/internal/identity/local"
	"github.com/dropDatabas3/usercopy/internal/security/password"
	"github.com/dropDatabas3/usercopy/internal/store/memory"
)

type fixture struct {
	login LoginService
	users users.Service
	gw    *identity.Gateway
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{now: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}
	hasher := password.Bcrypt{Cost: 4}
	p, err := local.New(local.Config{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		Hasher: hasher,
		Now:    func() time.Time { return f.now },
	})
	require.NoError(t, err)
	st := memory.New(time.UTC)
	f.gw = identity.NewGateway(p)
	f.users = users.NewService(users.Deps{Identity: f.gw, Users: st.Users(), Hasher: hasher})
	f.login = NewLoginService(LoginDeps{Identity: f.gw, Users: st.Users(), Reconciler: f.users})
	return f
}

func TestLogin_IssuesTokenAndCountsSignIn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u, err := f.users.CreateUser(ctx, "Ana", "ana@example.com", "Abc123!@")
	require.NoError(t, err)

	tok, err := f.login.Login(ctx, "ANA@example.com ", "Abc123!@")
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := f.gw.VerifyToken(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, u.UID, claims.UID)
	assert.Equal(t, "ana@example.com", claims.Email)

	row, err := f.users.FindUser(ctx, u.UID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, row.SignInCount)
	require.NotNil(t, row.LastSignInTime)
	assert.True(t, row.LastSignInTime.Equal(f.now))

	f.now = f.now.Add(time.Hour)
	_, err = f.login.Login(ctx, "ana@example.com", "Abc123!@")
	require.NoError(t, err)
	row, err = f.users.FindUser(ctx, u.UID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, row.SignInCount)
}

func TestLogin_WrongPassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u, err := f.users.CreateUser(ctx, "Ana", "ana@example.com", "Abc123!@")
	require.NoError(t, err)

	_, err = f.login.Login(ctx, "ana@example.com", "Wrong123!")
	require.ErrorIs(t, err, password.ErrCredentialMismatch)

	row, err := f.users.FindUser(ctx, u.UID)
	require.NoError(t, err)
	assert.Zero(t, row.SignInCount)
}

func TestLogin_UnknownEmailLooksLikeWrongPassword(t *testing.T) {
	f := newFixture(t)
	_, err := f.login.Login(context.Background(), "ghost@example.com", "Abc123!@")
	require.ErrorIs(t, err, password.ErrCredentialMismatch)
}

func TestLogin_MissingFields(t *testing.T) {
	f := newFixture(t)
	_, err := f.login.Login(context.Background(), " ", "Abc123!@")
	require.ErrorIs(t, err, ErrMissingFields)
}

func TestLogin_UserOnlyInProvider(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u, err := f.gw.CreateUser(ctx, identity.CreateParams{Email: "bob@example.com", Password: "Abc123!@", DisplayName: "Bob"})
	require.NoError(t, err)

	_, err = f.login.Login(ctx, "bob@example.com", "Abc123!@")
	require.NoError(t, err)

	row, err := f.users.FindUser(ctx, u.UID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, row.SignInCount)
}
