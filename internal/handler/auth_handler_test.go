package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-notes-server/internal/cache"
	"go-notes-server/internal/middleware"
	"go-notes-server/internal/model"
	"go-notes-server/internal/service"
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
	f.byEmail[strings.ToLower(u.Email)] = u
}

func (f *fakeUsers) FindByID(ctx context.Context, id string) (model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (model.User, error) {
	u, ok := f.byEmail[strings.ToLower(email)]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, ok := f.byEmail[strings.ToLower(email)]
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

// newAuthStack assembles login, me and refresh on a real router so the test
// exercises the same gate ordering a deployed server has.
func newAuthStack(t *testing.T) (http.Handler, *fakeUsers) {
	t.Helper()

	codec, err := token.NewCodec("access-secret", "refresh-secret", 15*time.Minute, 168*time.Hour)
	require.NoError(t, err)

	users := newFakeUsers()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	users.add(model.User{
		ID:           "user-1",
		Email:        "ada@example.com",
		DisplayName:  "Ada",
		PasswordHash: string(hash),
		Role:         "user",
	})

	registry := session.NewRegistry(cache.NewMemoryStore())
	authService := service.NewAuthService(users, codec, registry)
	authHandler := NewAuthHandler(authService, false)
	gate := middleware.NewAuthMiddleware(codec, users, false)

	r := chi.NewRouter()
	r.Post("/api/v1/auth/login", authHandler.Login)
	r.Post("/api/v1/auth/refresh", authHandler.Refresh)
	r.With(gate.RequireAuth).Get("/api/v1/auth/me", authHandler.Me)

	return r, users
}

func decodeTokenPair(t *testing.T, body []byte) model.TokenPair {
	t.Helper()

	var resp struct {
		Success bool            `json:"success"`
		Data    model.TokenPair `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.True(t, resp.Success)
	return resp.Data
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthFlow_LoginMeRefresh(t *testing.T) {
	t.Parallel()

	stack, _ := newAuthStack(t)

	// Login with valid credentials.
	loginReq := httptest.NewRequest("POST", "/api/v1/auth/login",
		strings.NewReader(`{"email":"ada@example.com","password":"correct horse"}`))
	loginRec := httptest.NewRecorder()
	stack.ServeHTTP(loginRec, loginReq)

	require.Equal(t, http.StatusOK, loginRec.Code)
	pair := decodeTokenPair(t, loginRec.Body.Bytes())
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int64((15 * time.Minute).Seconds()), pair.ExpiresIn)
	assert.Equal(t, "ada@example.com", pair.User.Email)

	cookies := loginRec.Result().Cookies()
	accessCookie := cookieByName(cookies, middleware.AccessTokenCookie)
	refreshCookie := cookieByName(cookies, middleware.RefreshTokenCookie)
	sessionCookie := cookieByName(cookies, middleware.SessionIDCookie)
	require.NotNil(t, accessCookie)
	require.NotNil(t, refreshCookie)
	require.NotNil(t, sessionCookie)
	assert.Equal(t, pair.AccessToken, accessCookie.Value)
	assert.True(t, accessCookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, accessCookie.SameSite)

	// The access token works as a bearer credential.
	meReq := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	meReq.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	meRec := httptest.NewRecorder()
	stack.ServeHTTP(meRec, meReq)

	require.Equal(t, http.StatusOK, meRec.Code)
	var meResp struct {
		Data struct {
			User model.Principal `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(meRec.Body.Bytes(), &meResp))
	assert.Equal(t, "user-1", meResp.Data.User.ID)
	assert.Equal(t, "Ada", meResp.Data.User.DisplayName)

	// Explicit refresh from the cookie mints a fresh pair and resets cookies.
	refreshReq := httptest.NewRequest("POST", "/api/v1/auth/refresh", nil)
	refreshReq.AddCookie(refreshCookie)
	refreshRec := httptest.NewRecorder()
	stack.ServeHTTP(refreshRec, refreshReq)

	require.Equal(t, http.StatusOK, refreshRec.Code)
	rotated := decodeTokenPair(t, refreshRec.Body.Bytes())
	require.NotEmpty(t, rotated.AccessToken)
	assert.NotEqual(t, pair.AccessToken, rotated.AccessToken)
	assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	newCookies := refreshRec.Result().Cookies()
	newAccess := cookieByName(newCookies, middleware.AccessTokenCookie)
	require.NotNil(t, newAccess)
	assert.Equal(t, rotated.AccessToken, newAccess.Value)
}

func TestAuthFlow_LoginRejectsBadPassword(t *testing.T) {
	t.Parallel()

	stack, _ := newAuthStack(t)

	req := httptest.NewRequest("POST", "/api/v1/auth/login",
		strings.NewReader(`{"email":"ada@example.com","password":"wrong"}`))
	rec := httptest.NewRecorder()
	stack.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp model.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_CREDENTIALS", resp.Error.Code)
	assert.Equal(t, "/api/v1/auth/login", resp.Error.Path)
	assert.Equal(t, "POST", resp.Error.Method)

	assert.Nil(t, cookieByName(rec.Result().Cookies(), middleware.AccessTokenCookie))
}

func TestAuthFlow_RefreshWithBodyToken(t *testing.T) {
	t.Parallel()

	stack, _ := newAuthStack(t)

	loginReq := httptest.NewRequest("POST", "/api/v1/auth/login",
		strings.NewReader(`{"email":"ada@example.com","password":"correct horse"}`))
	loginRec := httptest.NewRecorder()
	stack.ServeHTTP(loginRec, loginReq)
	require.Equal(t, http.StatusOK, loginRec.Code)
	pair := decodeTokenPair(t, loginRec.Body.Bytes())

	body, err := json.Marshal(map[string]string{"refreshToken": pair.RefreshToken})
	require.NoError(t, err)
	refreshReq := httptest.NewRequest("POST", "/api/v1/auth/refresh", strings.NewReader(string(body)))
	refreshRec := httptest.NewRecorder()
	stack.ServeHTTP(refreshRec, refreshReq)

	require.Equal(t, http.StatusOK, refreshRec.Code)
}

func TestAuthFlow_RefreshRejectsGarbage(t *testing.T) {
	t.Parallel()

	stack, _ := newAuthStack(t)

	refreshReq := httptest.NewRequest("POST", "/api/v1/auth/refresh",
		strings.NewReader(`{"refreshToken":"not-a-token"}`))
	refreshRec := httptest.NewRecorder()
	stack.ServeHTTP(refreshRec, refreshReq)

	require.Equal(t, http.StatusUnauthorized, refreshRec.Code)

	var resp model.APIResponse
	require.NoError(t, json.Unmarshal(refreshRec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "SESSION_EXPIRED", resp.Error.Code)

	// Failed refresh clears both token cookies.
	cleared := 0
	for _, c := range refreshRec.Result().Cookies() {
		if (c.Name == middleware.AccessTokenCookie || c.Name == middleware.RefreshTokenCookie) && c.MaxAge < 0 {
			cleared++
		}
	}
	assert.Equal(t, 2, cleared)
}
