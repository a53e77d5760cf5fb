package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-notes-server/internal/cache"
	"go-notes-server/internal/model"
	"go-notes-server/internal/session"
	"go-notes-server/internal/token"
)

type fakeUsers struct {
	byID    map[string]model.User
	byEmail map[string]model.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[string]model.User{}, byEmail: map[string]model.User{}}
}

func (f *fakeUsers) add(u model.User) {
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
}

func (f *fakeUsers) FindByID(ctx context.Context, id string) (model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (model.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, ok := f.byEmail[email]
	return ok, nil
}

func (f *fakeUsers) Create(ctx context.Context, u model.User) error {
	f.add(u)
	return nil
}

func (f *fakeUsers) UpdateRole(ctx context.Context, userID string, role string) error {
	u, ok := f.byID[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	u.Role = role
	f.add(u)
	return nil
}

func (f *fakeUsers) List(ctx context.Context) ([]model.Principal, error) {
	out := make([]model.Principal, 0, len(f.byID))
	for _, u := range f.byID {
		out = append(out, u.Principal())
	}
	return out, nil
}

func newTestAuthService(t *testing.T) (*AuthService, *fakeUsers) {
	t.Helper()

	codec, err := token.NewCodec("access-secret", "refresh-secret", 15*time.Minute, 168*time.Hour)
	require.NoError(t, err)

	users := newFakeUsers()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-password"), bcrypt.MinCost)
	require.NoError(t, err)
	users.add(model.User{
		ID:           "user-1",
		Email:        "a@b.com",
		DisplayName:  "Ada",
		PasswordHash: string(hash),
		Role:         "user",
	})

	registry := session.NewRegistry(cache.NewMemoryStore())
	return NewAuthService(users, codec, registry), users
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	t.Run("valid credentials issue a pair and a session", func(t *testing.T) {
		pair, sessionID, err := svc.Login(ctx, "a@b.com", "secret-password", "10.0.0.1", "firefox")
		require.NoError(t, err)

		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.Equal(t, "Bearer", pair.TokenType)
		assert.Equal(t, "user", pair.User.Role)
		assert.Equal(t, "user-1", pair.User.ID)
		require.NotEmpty(t, sessionID)

		records := svc.ListSessions(ctx, "user-1")
		require.Len(t, records, 1)
		assert.Equal(t, sessionID, records[0].SessionID)
		assert.Equal(t, "10.0.0.1", records[0].IPAddress)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "a@b.com", "wrong", "", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "INVALID_CREDENTIALS")
	})

	t.Run("unknown email reads the same as a wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "nobody@b.com", "secret-password", "", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "INVALID_CREDENTIALS")
	})
}

func TestAuthService_Register(t *testing.T) {
	t.Parallel()

	svc, users := newTestAuthService(t)
	ctx := context.Background()

	t.Run("creates a user with role user", func(t *testing.T) {
		principal, err := svc.Register(ctx, "new@b.com", "Newcomer", "long-enough-password")
		require.NoError(t, err)
		assert.Equal(t, "user", principal.Role)

		stored := users.byEmail["new@b.com"]
		assert.NotEqual(t, "long-enough-password", stored.PasswordHash)
		require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("long-enough-password")))
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := svc.Register(ctx, "a@b.com", "Dup", "long-enough-password")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ALREADY_EXISTS")
	})

	t.Run("short password rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, "short@b.com", "", "short")
		require.Error(t, err)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	t.Parallel()

	svc, users := newTestAuthService(t)
	ctx := context.Background()

	pair, _, err := svc.Login(ctx, "a@b.com", "secret-password", "", "")
	require.NoError(t, err)

	t.Run("valid refresh token rotates the pair", func(t *testing.T) {
		rotated, err := svc.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, rotated.AccessToken)
		assert.Equal(t, "user-1", rotated.User.ID)
	})

	t.Run("refresh tokens are multi-use until expiry", func(t *testing.T) {
		first, err := svc.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		second, err := svc.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		assert.NotEmpty(t, first.AccessToken)
		assert.NotEmpty(t, second.AccessToken)
	})

	t.Run("access token is not accepted as a refresh token", func(t *testing.T) {
		_, err := svc.Refresh(ctx, pair.AccessToken)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SESSION_EXPIRED")
	})

	t.Run("deleted principal fails the refresh", func(t *testing.T) {
		delete(users.byID, "user-1")
		_, err := svc.Refresh(ctx, pair.RefreshToken)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SESSION_EXPIRED")
	})
}

func TestAuthService_UpdateUserRole(t *testing.T) {
	t.Parallel()

	svc, users := newTestAuthService(t)
	ctx := context.Background()

	t.Run("promotes to a known role", func(t *testing.T) {
		principal, err := svc.UpdateUserRole(ctx, "user-1", "moderator")
		require.NoError(t, err)
		assert.Equal(t, "moderator", principal.Role)
		assert.Equal(t, "moderator", users.byID["user-1"].Role)
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		_, err := svc.UpdateUserRole(ctx, "user-1", "emperor")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "BAD_REQUEST")
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.UpdateUserRole(ctx, "ghost", "admin")
		require.Error(t, err)
	})
}

func TestAuthService_LogoutDeletesSession(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, sessionID, err := svc.Login(ctx, "a@b.com", "secret-password", "", "")
	require.NoError(t, err)
	require.Len(t, svc.ListSessions(ctx, "user-1"), 1)

	svc.Logout(ctx, sessionID)
	assert.Empty(t, svc.ListSessions(ctx, "user-1"))

	// Logout without a session id is a no-op, never an error.
	svc.Logout(ctx, "")
}
