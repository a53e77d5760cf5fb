package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()

	codec, err := NewCodec("access-secret", "refresh-secret", 15*time.Minute, 168*time.Hour)
	require.NoError(t, err)
	return codec
}

func TestNewCodec_RequiresBothSecrets(t *testing.T) {
	t.Parallel()

	_, err := NewCodec("", "refresh-secret", time.Minute, time.Hour)
	require.Error(t, err)

	_, err = NewCodec("access-secret", "", time.Minute, time.Hour)
	require.Error(t, err)
}

func TestCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)
	claims := Claims{UserID: "user-1", Email: "a@b.com", Role: "user"}

	t.Run("access token", func(t *testing.T) {
		signed, err := codec.MintAccess(claims)
		require.NoError(t, err)

		got, err := codec.VerifyAccess(signed)
		require.NoError(t, err)
		assert.Equal(t, "user-1", got.UserID)
		assert.Equal(t, "a@b.com", got.Email)
		assert.Equal(t, "user", got.Role)
		assert.NotEmpty(t, got.TokenID)
	})

	t.Run("refresh token", func(t *testing.T) {
		signed, err := codec.MintRefresh(claims)
		require.NoError(t, err)

		got, err := codec.VerifyRefresh(signed)
		require.NoError(t, err)
		assert.Equal(t, "user-1", got.UserID)
	})
}

func TestCodec_KindConfusionRejected(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)
	claims := Claims{UserID: "user-1"}

	refresh, err := codec.MintRefresh(claims)
	require.NoError(t, err)

	// A refresh token must never pass access verification, even if it were
	// signed with the same secret; here both kind and secret differ.
	_, err = codec.VerifyAccess(refresh)
	assert.ErrorIs(t, err, ErrInvalid)

	access, err := codec.MintAccess(claims)
	require.NoError(t, err)

	_, err = codec.VerifyRefresh(access)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestCodec_ExpiryBoundary(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)

	minted := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec.now = func() time.Time { return minted }

	signed, err := codec.MintAccess(Claims{UserID: "user-1"})
	require.NoError(t, err)

	// Just inside the lifetime.
	codec.now = func() time.Time { return minted.Add(15*time.Minute - time.Second) }
	_, err = codec.VerifyAccess(signed)
	assert.NoError(t, err)

	// Just past the lifetime: expired, not invalid.
	codec.now = func() time.Time { return minted.Add(15*time.Minute + time.Second) }
	_, err = codec.VerifyAccess(signed)
	assert.ErrorIs(t, err, ErrExpired)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestCodec_TamperedTokenIsInvalidNotExpired(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)

	signed, err := codec.MintAccess(Claims{UserID: "user-1"})
	require.NoError(t, err)

	tampered := signed[:len(signed)-2] + "xx"
	_, err = codec.VerifyAccess(tampered)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = codec.VerifyAccess("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalid)

	// Signed with a different secret entirely.
	other, err := NewCodec("other-access", "other-refresh", 15*time.Minute, time.Hour)
	require.NoError(t, err)
	foreign, err := other.MintAccess(Claims{UserID: "user-1"})
	require.NoError(t, err)

	_, err = codec.VerifyAccess(foreign)
	assert.ErrorIs(t, err, ErrInvalid)
}
