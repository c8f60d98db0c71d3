package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestToUserModel_AbsentTimestampsStayNil(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	u, err := ToUserModel(Record{
		UID:               "u1",
		Email:             "a@b.c",
		EmailVerified:     true,
		CreationTimestamp: created.UnixMilli(),
	})
	require.NoError(t, err)
	require.Equal(t, "u1", u.UID)
	require.Equal(t, "a@b.c", *u.Email)
	require.True(t, u.EmailVerified)
	require.True(t, created.Equal(u.CreationTime))
	require.Nil(t, u.LastSignInTime)
	require.Nil(t, u.LastRefreshTime)
	require.Nil(t, u.TokensValidAfterTime)
	require.Nil(t, u.DisplayName)
	require.Nil(t, u.PhotoURL)
	require.Nil(t, u.PasswordHash)
	require.Zero(t, u.SignInCount)
}

func TestToUserModel_CoercesTimestamps(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 5, 6, 7, 8, 9, 123e6, time.UTC)
	u, err := ToUserModel(Record{
		UID:                    "u1",
		DisplayName:            "Ana",
		CreationTimestamp:      ts.UnixMilli(),
		LastLogInTimestamp:     ts.Add(time.Hour).UnixMilli(),
		LastRefreshTimestamp:   ts.Add(2 * time.Hour).UnixMilli(),
		TokensValidAfterMillis: ts.Add(3 * time.Hour).UnixMilli(),
	})
	require.NoError(t, err)
	require.Equal(t, "Ana", *u.DisplayName)
	require.True(t, ts.Add(time.Hour).Equal(*u.LastSignInTime))
	require.True(t, ts.Add(2*time.Hour).Equal(*u.LastRefreshTime))
	require.True(t, ts.Add(3*time.Hour).Equal(*u.TokensValidAfterTime))
}

func TestToUserModel_Malformed(t *testing.T) {
	t.Parallel()

	_, err := ToUserModel(Record{CreationTimestamp: 1})
	require.ErrorIs(t, err, ErrMalformedRecord)
	_, err = ToUserModel(Record{UID: "u1"})
	require.ErrorIs(t, err, ErrMalformedRecord)
}

type failingProvider struct {
	Provider
	err error
}

func (f failingProvider) GetUser(context.Context, string) (*Record, error) { return nil, f.err }

func TestGateway_ClassifiesErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	g := NewGateway(failingProvider{err: ErrUserNotFound})
	_, err := g.GetUser(ctx, "x")
	require.ErrorIs(t, err, ErrUserNotFound)
	require.False(t, errors.Is(err, ErrUpstream))

	g = NewGateway(failingProvider{err: errors.New("connection reset")})
	_, err = g.GetUser(ctx, "x")
	require.ErrorIs(t, err, ErrUpstream)
	require.Contains(t, err.Error(), "connection reset")
}

func TestGateway_VerifyEmptyToken(t *testing.T) {
	t.Parallel()

	g := NewGateway(failingProvider{})
	_, err := g.VerifyToken(context.Background(), " ")
	require.ErrorIs(t, err, ErrInvalidToken)
}
