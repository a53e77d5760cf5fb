package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrExpired means the token was well-formed and correctly signed but is
	// past its expiry. Callers may attempt a refresh on this error only.
	ErrExpired = errors.New("token expired")

	// ErrInvalid means the token is malformed, unsigned, tampered with, or of
	// the wrong kind. Never retried.
	ErrInvalid = errors.New("token invalid")
)

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

// Claims is the subject material carried by both token kinds.
type Claims struct {
	UserID  string
	Email   string
	Role    string
	TokenID string
	Kind    string
}

// Codec mints and verifies access and refresh tokens. The two kinds are
// signed with independent secrets so one leaking never compromises the other.
// Verification is pure CPU work; the codec holds no connections and performs
// no I/O.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewCodec(accessSecret string, refreshSecret string, accessTTL time.Duration, refreshTTL time.Duration) (*Codec, error) {
	if accessSecret == "" {
		return nil, errors.New("access token secret is required")
	}
	if refreshSecret == "" {
		return nil, errors.New("refresh token secret is required")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}

	return &Codec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}, nil
}

func (c *Codec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

func (c *Codec) MintAccess(claims Claims) (string, error) {
	return c.mint(claims, kindAccess, c.accessSecret, c.accessTTL)
}

func (c *Codec) MintRefresh(claims Claims) (string, error) {
	return c.mint(claims, kindRefresh, c.refreshSecret, c.refreshTTL)
}

func (c *Codec) VerifyAccess(tokenString string) (*Claims, error) {
	return c.verify(tokenString, kindAccess, c.accessSecret)
}

func (c *Codec) VerifyRefresh(tokenString string) (*Claims, error) {
	return c.verify(tokenString, kindRefresh, c.refreshSecret)
}

func (c *Codec) mint(claims Claims, kind string, secret []byte, ttl time.Duration) (string, error) {
	if claims.UserID == "" {
		return "", errors.New("claims must carry a user id")
	}

	now := c.now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   claims.UserID,
		"email": claims.Email,
		"role":  claims.Role,
		"typ":   kind,
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	})

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}

	return signed, nil
}

func (c *Codec) verify(tokenString string, kind string, secret []byte) (*Claims, error) {
	parsed, err := jwt.Parse(tokenString,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	if !parsed.Valid {
		return nil, ErrInvalid
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalid
	}

	typ, _ := claimsMap["typ"].(string)
	if typ != kind {
		return nil, ErrInvalid
	}

	claims := &Claims{Kind: typ}
	claims.UserID, _ = claimsMap["sub"].(string)
	claims.Email, _ = claimsMap["email"].(string)
	claims.Role, _ = claimsMap["role"].(string)
	claims.TokenID, _ = claimsMap["jti"].(string)

	if claims.UserID == "" {
		return nil, ErrInvalid
	}

	return claims, nil
}
