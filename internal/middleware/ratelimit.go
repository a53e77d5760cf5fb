package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"go-notes-server/internal/cache"
	"go-notes-server/pkg/apierror"
)

const rateLimitWindow = time.Minute

// RateLimitMiddleware enforces per-client fixed-window limits on shared
// cache counters, so the window is consistent across replicas. When the
// cache store cannot count (Increment propagates its errors), an in-process
// token-bucket limiter takes over rather than failing requests outright.
type RateLimitMiddleware struct {
	store      cache.Store
	generalRPM int
	authRPM    int

	mu       sync.Mutex
	fallback map[string]*clientLimiter
}

type clientLimiter struct {
	general  *rate.Limiter
	auth     *rate.Limiter
	lastSeen time.Time
}

func NewRateLimitMiddleware(store cache.Store, generalRPM int, authRPM int) *RateLimitMiddleware {
	if generalRPM <= 0 {
		generalRPM = 100
	}
	if authRPM <= 0 {
		authRPM = 10
	}

	return &RateLimitMiddleware{
		store:      store,
		generalRPM: generalRPM,
		authRPM:    authRPM,
		fallback:   map[string]*clientLimiter{},
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := extractClientIP(r)

		class, limit := "general", m.generalRPM
		if strings.HasPrefix(strings.ToLower(r.URL.Path), "/api/v1/auth") {
			class, limit = "auth", m.authRPM
		}

		window := time.Now().Unix() / int64(rateLimitWindow.Seconds())
		key := fmt.Sprintf("ratelimit:%s:%s:%d", class, clientIP, window)

		count, err := m.store.Increment(r.Context(), key, 2*rateLimitWindow)
		if err != nil {
			// Counter backend down: degrade to a per-process limiter instead
			// of letting unmetered traffic through.
			if !m.allowFallback(clientIP, class) {
				writeRateLimited(w, r)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		if count > int64(limit) {
			writeRateLimited(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *RateLimitMiddleware) allowFallback(clientIP string, class string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	limiter, exists := m.fallback[clientIP]
	if !exists {
		limiter = &clientLimiter{
			general: rate.NewLimiter(rate.Every(rateLimitWindow/time.Duration(m.generalRPM)), m.generalRPM),
			auth:    rate.NewLimiter(rate.Every(rateLimitWindow/time.Duration(m.authRPM)), m.authRPM),
		}
		m.fallback[clientIP] = limiter
	}
	limiter.lastSeen = time.Now()
	m.gcLocked()

	if class == "auth" {
		return limiter.auth.Allow()
	}
	return limiter.general.Allow()
}

func (m *RateLimitMiddleware) gcLocked() {
	if len(m.fallback) < 1000 {
		return
	}

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, limiter := range m.fallback {
		if limiter.lastSeen.Before(cutoff) {
			delete(m.fallback, ip)
		}
	}
}

func writeRateLimited(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "60")
	writeGateError(w, r, http.StatusTooManyRequests, apierror.CodeRateLimited, "too many requests", "")
}

func extractClientIP(r *http.Request) string {
	forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}

	realIP := strings.TrimSpace(r.Header.Get("X-Real-IP"))
	if realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}

	if strings.TrimSpace(r.RemoteAddr) == "" {
		return "unknown"
	}

	return r.RemoteAddr
}
