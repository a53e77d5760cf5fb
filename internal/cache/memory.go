package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type memoryEntry struct {
	data    []byte
	count   int64
	expires time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

// MemoryStore is an in-process Store used for tests and cacheless
// deployments. Entries are evicted lazily on access.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: map[string]memoryEntry{},
		now:     time.Now,
	}
}

func (s *MemoryStore) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	data, err := json.Marshal(value)
	if err != nil {
		return false
	}

	var expires time.Time
	if ttl > 0 {
		expires = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = memoryEntry{data: data, expires: expires}
	s.mu.Unlock()
	return true
}

func (s *MemoryStore) Get(ctx context.Context, key string, dest any) bool {
	s.mu.Lock()
	entry, ok := s.entries[key]
	if ok && entry.expired(s.now()) {
		delete(s.entries, key)
		ok = false
	}
	s.mu.Unlock()

	if !ok || entry.data == nil {
		return false
	}

	return json.Unmarshal(entry.data, dest) == nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) bool {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return true
}

func (s *MemoryStore) Exists(ctx context.Context, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if ok && entry.expired(s.now()) {
		delete(s.entries, key)
		return false
	}
	return ok
}

func (s *MemoryStore) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry, ok := s.entries[key]
	if !ok || entry.expired(now) {
		entry = memoryEntry{count: 0}
		if ttl > 0 {
			entry.expires = now.Add(ttl)
		}
	}

	entry.count++
	s.entries[key] = entry
	return entry.count, nil
}

// TTLRemaining reports how long key has to live. Zero means absent or no
// expiry; used by tests to observe sliding expiration.
func (s *MemoryStore) TTLRemaining(key string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || entry.expires.IsZero() {
		return 0
	}

	remaining := entry.expires.Sub(s.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SetClock overrides the store's time source. Test hook.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}
