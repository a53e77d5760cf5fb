package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGetDelete(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	require.True(t, store.Set(ctx, "k1", payload{Name: "a", Count: 2}, 0))

	var got payload
	require.True(t, store.Get(ctx, "k1", &got))
	assert.Equal(t, payload{Name: "a", Count: 2}, got)
	assert.True(t, store.Exists(ctx, "k1"))

	require.True(t, store.Delete(ctx, "k1"))
	assert.False(t, store.Get(ctx, "k1", &got))
	assert.False(t, store.Exists(ctx, "k1"))

	// Missing keys are a miss, not a failure.
	assert.False(t, store.Get(ctx, "never-set", &got))
	assert.True(t, store.Delete(ctx, "never-set"))
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	require.True(t, store.Set(ctx, "k1", "v", time.Minute))

	var got string
	now = now.Add(59 * time.Second)
	assert.True(t, store.Get(ctx, "k1", &got))

	now = now.Add(2 * time.Second)
	assert.False(t, store.Get(ctx, "k1", &got))
	assert.False(t, store.Exists(ctx, "k1"))
}

func TestMemoryStore_Increment(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	n, err := store.Increment(ctx, "counter", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = store.Increment(ctx, "counter", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// A fresh window starts over after expiry.
	now = now.Add(2 * time.Minute)
	n, err = store.Increment(ctx, "counter", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
