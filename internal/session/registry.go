package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"go-notes-server/internal/cache"
)

// ErrUnavailable means the cache store rejected the write. Session tracking
// is a UX feature, not an authorization mechanism, so callers typically log
// and move on.
var ErrUnavailable = errors.New("session store unavailable")

const (
	sessionKeyPrefix = "session:"
	userIndexPrefix  = "user_sessions:"

	// DefaultTTL matches the refresh-token lifetime; a session outliving its
	// refresh token would track a device that can no longer authenticate.
	DefaultTTL = 7 * 24 * time.Hour
)

// Record tracks one logged-in device/browser.
type Record struct {
	SessionID    string    `json:"session_id"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	LoginTime    time.Time `json:"login_time"`
	LastActivity time.Time `json:"last_activity"`
	IPAddress    string    `json:"ip_address,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
}

// Registry is the per-user multi-device session directory. It layers on the
// generic cache store: a Record per session id plus a per-user index listing
// live session ids.
//
// The record and the index are two keys updated without a cross-key
// transaction. The index may therefore transiently reference an expired
// record; List drops unresolvable ids on read, so the pair self-heals.
type Registry struct {
	store cache.Store
	ttl   time.Duration
	now   func() time.Time
}

func NewRegistry(store cache.Store) *Registry {
	return &Registry{store: store, ttl: DefaultTTL, now: time.Now}
}

func sessionKey(sessionID string) string { return sessionKeyPrefix + sessionID }
func userIndexKey(userID string) string  { return userIndexPrefix + userID }

// Create writes a new session record and appends its id to the owner's
// index. Returns the generated session id.
func (r *Registry) Create(ctx context.Context, userID string, email string, role string, ipAddress string, userAgent string) (string, error) {
	now := r.now().UTC()
	record := Record{
		SessionID:    uuid.NewString(),
		UserID:       userID,
		Email:        email,
		Role:         role,
		LoginTime:    now,
		LastActivity: now,
		IPAddress:    ipAddress,
		UserAgent:    userAgent,
	}

	if !r.store.Set(ctx, sessionKey(record.SessionID), record, r.ttl) {
		return "", ErrUnavailable
	}

	ids := r.loadIndex(ctx, userID)
	ids = append(ids, record.SessionID)
	if !r.store.Set(ctx, userIndexKey(userID), ids, r.ttl) {
		return "", ErrUnavailable
	}

	return record.SessionID, nil
}

// Get resolves a session id, bumping last activity and resetting the TTL so
// an active session never expires from inactivity alone. Returns nil on a
// miss.
func (r *Registry) Get(ctx context.Context, sessionID string) *Record {
	var record Record
	if !r.store.Get(ctx, sessionKey(sessionID), &record) {
		return nil
	}

	record.LastActivity = r.now().UTC()
	r.store.Set(ctx, sessionKey(sessionID), record, r.ttl)

	// The owner index must not expire under a record it still names, so its
	// window slides with the record's.
	if ids := r.loadIndex(ctx, record.UserID); len(ids) > 0 {
		r.store.Set(ctx, userIndexKey(record.UserID), ids, r.ttl)
	}

	return &record
}

// Update merges changes into an existing record via apply. No-op when the
// session does not exist.
func (r *Registry) Update(ctx context.Context, sessionID string, apply func(*Record)) bool {
	var record Record
	if !r.store.Get(ctx, sessionKey(sessionID), &record) {
		return false
	}

	apply(&record)
	record.SessionID = sessionID
	return r.store.Set(ctx, sessionKey(sessionID), record, r.ttl)
}

// Delete removes the record and prunes the id from the owner's index. An
// empty index is removed outright.
func (r *Registry) Delete(ctx context.Context, sessionID string) {
	var record Record
	known := r.store.Get(ctx, sessionKey(sessionID), &record)

	r.store.Delete(ctx, sessionKey(sessionID))
	if !known {
		return
	}

	ids := r.loadIndex(ctx, record.UserID)
	pruned := ids[:0]
	for _, id := range ids {
		if id != sessionID {
			pruned = append(pruned, id)
		}
	}

	if len(pruned) == 0 {
		r.store.Delete(ctx, userIndexKey(record.UserID))
		return
	}
	r.store.Set(ctx, userIndexKey(record.UserID), pruned, r.ttl)
}

// List resolves every live session for a user, silently dropping ids whose
// records have expired.
func (r *Registry) List(ctx context.Context, userID string) []Record {
	ids := r.loadIndex(ctx, userID)

	records := make([]Record, 0, len(ids))
	for _, id := range ids {
		if record := r.Get(ctx, id); record != nil {
			records = append(records, *record)
		}
	}
	return records
}

// RevokeAll deletes every session in the user's index, then the index
// itself. Returns the number of records removed.
func (r *Registry) RevokeAll(ctx context.Context, userID string) int {
	ids := r.loadIndex(ctx, userID)

	revoked := 0
	for _, id := range ids {
		if r.store.Delete(ctx, sessionKey(id)) {
			revoked++
		}
	}

	r.store.Delete(ctx, userIndexKey(userID))
	return revoked
}

func (r *Registry) loadIndex(ctx context.Context, userID string) []string {
	var ids []string
	r.store.Get(ctx, userIndexKey(userID), &ids)
	return ids
}
