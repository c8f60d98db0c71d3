package users

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/usercopy/internal/domain/repository"
	"github.com/dropDatabas3/usercopy/internal/identity"
	"github.com/dropDatabas3/usercopy/internal/identity/local"
	"github.com/dropDatabas3/usercopy/internal/security/password"
	"github.com/dropDatabas3/usercopy/internal/store/memory"
)

var testHasher = password.Bcrypt{Cost: 4}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	svc      Service
	gw       *identity.Gateway
	provider *local.Provider
	store    *memory.Store
	clock    *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := &clock{now: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}
	p, err := local.New(local.Config{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		Hasher: testHasher,
		Now:    c.Now,
	})
	require.NoError(t, err)
	st := memory.New(time.UTC)
	gw := identity.NewGateway(p)
	return &fixture{
		svc: NewService(Deps{
			Identity: gw,
			Users:    st.Users(),
			Hasher:   testHasher,
		}),
		gw:       gw,
		provider: p,
		store:    st,
		clock:    c,
	}
}

// fakeIdentity devuelve registros controlados por el test.
type fakeIdentity struct {
	mu      sync.Mutex
	users   map[string]repository.UserCopy
	creates int
	updates int
}

func (f *fakeIdentity) CreateUser(_ context.Context, p identity.CreateParams) (*repository.UserCopy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	u := repository.UserCopy{UID: "u-" + p.Email, Email: &p.Email, DisplayName: &p.DisplayName, CreationTime: time.Unix(100, 0).UTC()}
	f.users[u.UID] = u
	return &u, nil
}

func (f *fakeIdentity) GetUser(_ context.Context, uid string) (*repository.UserCopy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[uid]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	return &u, nil
}

func (f *fakeIdentity) UpdateUser(_ context.Context, uid string, _ identity.UpdateParams) (*repository.UserCopy, error) {
	f.mu.Lock()
	f.updates++
	f.mu.Unlock()
	return f.GetUser(context.Background(), uid)
}

func (f *fakeIdentity) ListUsers(context.Context, int, string) ([]repository.UserCopy, string, error) {
	return nil, "", errors.New("not implemented")
}

func (f *fakeIdentity) setSignIn(uid string, t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[uid]
	u.LastSignInTime = &t
	f.users[uid] = u
}

func TestCreateUser_WeakPasswordFailsBeforeProvider(t *testing.T) {
	ctx := context.Background()
	fi := &fakeIdentity{users: map[string]repository.UserCopy{}}
	svc := NewService(Deps{Identity: fi, Users: memory.New(time.UTC).Users(), Hasher: testHasher})

	_, err := svc.CreateUser(ctx, "Ana", "ana@example.com", "abcdefg1")
	require.ErrorIs(t, err, password.ErrWeakPassword)

	var codes []string
	for _, v := range password.ViolationsOf(err) {
		codes = append(codes, v.Code)
	}
	assert.Equal(t, []string{"pwd-no-upper", "pwd-no-special"}, codes)
	assert.Zero(t, fi.creates)
}

func TestCreateUser_TooLongPasswordFailsBeforeProvider(t *testing.T) {
	ctx := context.Background()
	fi := &fakeIdentity{users: map[string]repository.UserCopy{}}
	users := memory.New(time.UTC).Users()
	svc := NewService(Deps{Identity: fi, Users: users, Hasher: testHasher})

	long := "Abc123!@" + strings.Repeat("x", 72)
	require.Empty(t, password.Evaluate(long))

	_, err := svc.CreateUser(ctx, "Ana", "ana@example.com", long)
	require.ErrorIs(t, err, password.ErrPasswordTooLong)
	assert.Zero(t, fi.creates)

	// el reintento con una contraseña válida no choca con una cuenta huérfana
	row, err := svc.CreateUser(ctx, "Ana", "ana@example.com", "Abc123!@")
	require.NoError(t, err)
	assert.Equal(t, 1, fi.creates)
	_, err = users.Get(ctx, row.UID)
	require.NoError(t, err)
}

func TestCreateUser_InvalidDisplayName(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateUser(context.Background(), "R2D2", "r2@example.com", "Abc123!@")
	require.ErrorIs(t, err, password.ErrInvalidDisplayName)
}

func TestCreateUser_StoresMirrorWithCredential(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	row, err := f.svc.CreateUser(ctx, "Ana", "ana@example.com", "Abc123!@")
	require.NoError(t, err)
	assert.Zero(t, row.SignInCount)
	require.True(t, row.HasCredential())
	require.NoError(t, password.ValidatePtr("Abc123!@", row.PasswordHash, row.PasswordSalt))

	got, err := f.svc.FindUser(ctx, row.UID)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", *got.Email)
	assert.Equal(t, "Ana", *got.DisplayName)
}

func TestCreateUser_HashesLocallyWhenProviderHasNoCredential(t *testing.T) {
	ctx := context.Background()
	fi := &fakeIdentity{users: map[string]repository.UserCopy{}}
	svc := NewService(Deps{Identity: fi, Users: memory.New(time.UTC).Users(), Hasher: testHasher})

	row, err := svc.CreateUser(ctx, "Ana", "ana@example.com", "Abc123!@")
	require.NoError(t, err)
	require.NoError(t, password.ValidatePtr("Abc123!@", row.PasswordHash, row.PasswordSalt))
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.CreateUser(ctx, "Ana", "ana@example.com", "Abc123!@")
	require.NoError(t, err)
	_, err = f.svc.CreateUser(ctx, "Ana", "ana@example.com", "Abc123!@")
	require.ErrorIs(t, err, identity.ErrEmailExists)
}

func TestReconcile_SignInCountSequence(t *testing.T) {
	ctx := context.Background()
	fi := &fakeIdentity{users: map[string]repository.UserCopy{
		"u1": {UID: "u1", CreationTime: time.Unix(100, 0).UTC()},
	}}
	svc := NewService(Deps{Identity: fi, Users: memory.New(time.UTC).Users(), Hasher: testHasher})

	t0 := time.Unix(1000, 0).UTC()
	t1 := t0.Add(time.Minute)

	var counts []int64
	for _, ts := range []time.Time{t0, t0, t1} {
		fi.setSignIn("u1", ts)
		row, err := svc.Reconcile(ctx, "u1")
		require.NoError(t, err)
		counts = append(counts, row.SignInCount)
	}
	assert.Equal(t, []int64{0, 0, 1}, counts)
}

func TestReconcile_UnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Reconcile(context.Background(), "missing")
	require.ErrorIs(t, err, identity.ErrUserNotFound)
}

func TestUpdateUserInfo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	row, err := f.svc.CreateUser(ctx, "Ana", "ana@example.com", "Abc123!@")
	require.NoError(t, err)

	require.ErrorIs(t, f.svc.UpdateUserInfo(ctx, row.UID, "Ana!"), password.ErrInvalidDisplayName)
	require.NoError(t, f.svc.UpdateUserInfo(ctx, row.UID, "Ana Maria"))

	got, err := f.svc.FindUser(ctx, row.UID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", *got.DisplayName)
	assert.True(t, got.HasCredential())

	require.ErrorIs(t, f.svc.UpdateUserInfo(ctx, "missing", "Bob"), identity.ErrUserNotFound)
}

func TestUpdateUserPassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	row, err := f.svc.CreateUser(ctx, "Ana", "ana@example.com", "Abc123!@")
	require.NoError(t, err)

	err = f.svc.UpdateUserPassword(ctx, row.UID, "Wrong123!", "Xyz789#$")
	require.ErrorIs(t, err, password.ErrCredentialMismatch)

	err = f.svc.UpdateUserPassword(ctx, row.UID, "Abc123!@", "weak")
	require.ErrorIs(t, err, password.ErrWeakPassword)

	require.NoError(t, f.svc.UpdateUserPassword(ctx, row.UID, "Abc123!@", "Xyz789#$"))

	got, err := f.svc.FindUser(ctx, row.UID)
	require.NoError(t, err)
	require.NoError(t, password.ValidatePtr("Xyz789#$", got.PasswordHash, got.PasswordSalt))
	require.ErrorIs(t, password.ValidatePtr("Abc123!@", got.PasswordHash, got.PasswordSalt), password.ErrCredentialMismatch)
	assert.NotNil(t, got.TokensValidAfterTime)
}

func TestUpdateUserPassword_TooLongKeepsCredential(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	row, err := f.svc.CreateUser(ctx, "Ana", "ana@example.com", "Abc123!@")
	require.NoError(t, err)

	long := "Xyz789#$" + strings.Repeat("y", 72)
	err = f.svc.UpdateUserPassword(ctx, row.UID, "Abc123!@", long)
	require.ErrorIs(t, err, password.ErrPasswordTooLong)

	// ni el provider ni el mirror cambiaron
	prov, err := f.gw.GetUser(ctx, row.UID)
	require.NoError(t, err)
	require.NoError(t, password.ValidatePtr("Abc123!@", prov.PasswordHash, prov.PasswordSalt))
	got, err := f.svc.FindUser(ctx, row.UID)
	require.NoError(t, err)
	require.NoError(t, password.ValidatePtr("Abc123!@", got.PasswordHash, got.PasswordSalt))
}

func TestUpdateUserPassword_TooLongSkipsProvider(t *testing.T) {
	ctx := context.Background()
	fi := &fakeIdentity{users: map[string]repository.UserCopy{}}
	svc := NewService(Deps{Identity: fi, Users: memory.New(time.UTC).Users(), Hasher: testHasher})
	row, err := svc.CreateUser(ctx, "Ana", "ana@example.com", "Abc123!@")
	require.NoError(t, err)

	err = svc.UpdateUserPassword(ctx, row.UID, "Abc123!@", "Xyz789#$"+strings.Repeat("y", 72))
	require.ErrorIs(t, err, password.ErrPasswordTooLong)
	assert.Zero(t, fi.updates)
}

func TestUpdateUserPassword_ReconcilesMissingMirrorRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// alta directa en el provider, sin pasar por el mirror
	u, err := f.gw.CreateUser(ctx, identity.CreateParams{Email: "bob@example.com", Password: "Abc123!@", DisplayName: "Bob"})
	require.NoError(t, err)
	_, err = f.svc.FindUser(ctx, u.UID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, f.svc.UpdateUserPassword(ctx, u.UID, "Abc123!@", "Xyz789#$"))

	got, err := f.svc.FindUser(ctx, u.UID)
	require.NoError(t, err)
	require.NoError(t, password.ValidatePtr("Xyz789#$", got.PasswordHash, got.PasswordSalt))
}

func TestUpdateUserPassword_UnknownUser(t *testing.T) {
	f := newFixture(t)
	err := f.svc.UpdateUserPassword(context.Background(), "missing", "Abc123!@", "Xyz789#$")
	require.ErrorIs(t, err, identity.ErrUserNotFound)
}

func TestFindUsers_Paging(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var uids []string
	for _, name := range []string{"Ana", "Bob", "Carla"} {
		row, err := f.svc.CreateUser(ctx, name, name+"@example.com", "Abc123!@")
		require.NoError(t, err)
		uids = append(uids, row.UID)
		f.clock.Advance(time.Second)
	}

	two := 2
	page, err := f.svc.FindUsers(ctx, &two, nil)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, uids[:2], []string{page[0].UID, page[1].UID})

	cursor := page[1].UID
	page, err = f.svc.FindUsers(ctx, &two, &cursor)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, uids[2], page[0].UID)

	cursor = page[0].UID
	page, err = f.svc.FindUsers(ctx, &two, &cursor)
	require.NoError(t, err)
	assert.Empty(t, page)

	unknown := "nope"
	page, err = f.svc.FindUsers(ctx, nil, &unknown)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestFindUsers_PageSizeBounds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewService(Deps{Identity: f.gw, Users: f.store.Users(), Hasher: testHasher, MaxPageSize: 2})

	for _, name := range []string{"Ana", "Bob", "Carla"} {
		_, err := svc.CreateUser(ctx, name, name+"@example.com", "Abc123!@")
		require.NoError(t, err)
		f.clock.Advance(time.Second)
	}

	zero := 0
	_, err := svc.FindUsers(ctx, &zero, nil)
	require.ErrorIs(t, err, ErrInvalidPageSize)

	page, err := svc.FindUsers(ctx, nil, nil)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	big := 50
	page, err = svc.FindUsers(ctx, &big, nil)
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestSyncAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, e := range []string{"a@x.io", "b@x.io", "c@x.io", "d@x.io", "e@x.io"} {
		_, err := f.gw.CreateUser(ctx, identity.CreateParams{Email: e, Password: "Abc123!@", DisplayName: "User"})
		require.NoError(t, err)
	}

	n, err := f.svc.SyncAll(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	total, err := f.store.Users().Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)

	// una segunda pasada no registra inicios de sesión
	_, err = f.svc.SyncAll(ctx, 2)
	require.NoError(t, err)
	rows, err := f.svc.FindUsers(ctx, nil, nil)
	require.NoError(t, err)
	for _, r := range rows {
		assert.Zero(t, r.SignInCount)
	}
}
