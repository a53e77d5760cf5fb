package service

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"go-notes-server/internal/authz"
	"go-notes-server/internal/metrics"
	"go-notes-server/internal/model"
	"go-notes-server/internal/session"
	"go-notes-server/internal/token"
	"go-notes-server/pkg/apierror"
)

type userStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u model.User) error
	UpdateRole(ctx context.Context, userID string, role string) error
	List(ctx context.Context) ([]model.Principal, error)
}

// AuthService owns the credential lifecycle: signup, login, explicit
// refresh, logout and the session-registry touchpoints around them. Token
// verification on the request path lives in the authentication gate, not
// here.
type AuthService struct {
	users    userStore
	codec    *token.Codec
	sessions *session.Registry
}

func NewAuthService(users userStore, codec *token.Codec, sessions *session.Registry) *AuthService {
	return &AuthService{users: users, codec: codec, sessions: sessions}
}

func invalidCredentials() error {
	return apierror.New("INVALID_CREDENTIALS", "invalid email or password", "", http.StatusBadRequest)
}

// Login verifies credentials, issues a token pair and records a session for
// this device. Session tracking is best-effort: a failed record write logs
// and degrades, it never blocks a login.
func (s *AuthService) Login(ctx context.Context, email string, password string, ipAddress string, userAgent string) (model.TokenPair, string, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		metrics.LoginAttempt("failed")
		return model.TokenPair{}, "", invalidCredentials()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.LoginAttempt("failed")
		return model.TokenPair{}, "", invalidCredentials()
	}

	pair, err := s.issuePair(user)
	if err != nil {
		metrics.LoginAttempt("failed")
		return model.TokenPair{}, "", err
	}

	sessionID, err := s.sessions.Create(ctx, user.ID, user.Email, user.Role, ipAddress, userAgent)
	if err != nil {
		slog.Warn("session record not created", "user_id", user.ID, "error", err)
	}

	metrics.LoginAttempt("ok")
	return pair, sessionID, nil
}

func (s *AuthService) Register(ctx context.Context, email string, displayName string, password string) (model.Principal, error) {
	email = strings.TrimSpace(email)
	displayName = strings.TrimSpace(displayName)

	if email == "" || !strings.Contains(email, "@") {
		return model.Principal{}, apierror.New("BAD_REQUEST", "a valid email is required", "email", http.StatusBadRequest)
	}
	if len(password) < 8 {
		return model.Principal{}, apierror.New("BAD_REQUEST", "password must be at least 8 characters", "password", http.StatusBadRequest)
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return model.Principal{}, err
	}
	if exists {
		return model.Principal{}, apierror.New("ALREADY_EXISTS", "email already registered", email, http.StatusConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return model.Principal{}, err
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		Role:         "user",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return model.Principal{}, err
	}

	return user.Principal(), nil
}

// Refresh mints a new pair from an explicitly presented refresh token (the
// /auth/refresh endpoint; the transparent in-request variant lives in the
// authentication gate). Refresh tokens are multi-use until expiry; a
// superseded token is not invalidated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	claims, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		metrics.TokenRefresh("failed")
		return model.TokenPair{}, apierror.New(apierror.CodeSessionExpired, "session expired, please log in again", "", http.StatusUnauthorized)
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		metrics.TokenRefresh("failed")
		return model.TokenPair{}, apierror.New(apierror.CodeSessionExpired, "session expired, please log in again", "", http.StatusUnauthorized)
	}

	pair, err := s.issuePair(user)
	if err != nil {
		metrics.TokenRefresh("failed")
		return model.TokenPair{}, err
	}

	metrics.TokenRefresh("ok")
	return pair, nil
}

// Logout drops the session record for this device. Tokens are stateless and
// stay formally valid until expiry; logout is a client-side credential drop
// plus registry cleanup.
func (s *AuthService) Logout(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	s.sessions.Delete(ctx, sessionID)
}

func (s *AuthService) GetUserByID(ctx context.Context, userID string) (model.Principal, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.Principal{}, err
	}
	return user.Principal(), nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]model.Principal, error) {
	return s.users.List(ctx)
}

// UpdateUserRole changes an account's role. Live sessions and already-minted
// tokens keep the old role until the next refresh, when the fresh principal
// record flows into the new pair.
func (s *AuthService) UpdateUserRole(ctx context.Context, userID string, role string) (model.Principal, error) {
	parsed, known := authz.ParseRole(role)
	if !known {
		return model.Principal{}, apierror.New("BAD_REQUEST", "unknown role", role, http.StatusBadRequest)
	}

	if err := s.users.UpdateRole(ctx, userID, string(parsed)); err != nil {
		return model.Principal{}, err
	}

	return s.GetUserByID(ctx, userID)
}

func (s *AuthService) ListSessions(ctx context.Context, userID string) []session.Record {
	return s.sessions.List(ctx, userID)
}

func (s *AuthService) RevokeAllSessions(ctx context.Context, userID string) int {
	return s.sessions.RevokeAll(ctx, userID)
}

func (s *AuthService) AccessTTL() time.Duration  { return s.codec.AccessTTL() }
func (s *AuthService) RefreshTTL() time.Duration { return s.codec.RefreshTTL() }
func (s *AuthService) SessionTTL() time.Duration { return session.DefaultTTL }

func (s *AuthService) issuePair(user model.User) (model.TokenPair, error) {
	claims := token.Claims{UserID: user.ID, Email: user.Email, Role: user.Role}

	accessToken, err := s.codec.MintAccess(claims)
	if err != nil {
		return model.TokenPair{}, err
	}

	refreshToken, err := s.codec.MintRefresh(claims)
	if err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.codec.AccessTTL().Seconds()),
		User:         user.Principal(),
	}, nil
}
