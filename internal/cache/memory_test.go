package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	t.Parallel()

	t.Run("should round-trip a value within its TTL", func(t *testing.T) {
		t.Parallel()

		m := NewMemory()
		ctx := context.Background()

		m.Set(ctx, "analysis:octocat:Hello-World:en:flash", map[string]int{"overall_health_score": 80}, time.Minute)

		raw, ok := m.Get(ctx, "analysis:octocat:Hello-World:en:flash")
		require.True(t, ok)

		var got map[string]int
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, 80, got["overall_health_score"])
	})

	t.Run("should miss on unknown keys", func(t *testing.T) {
		t.Parallel()

		m := NewMemory()
		_, ok := m.Get(context.Background(), "readme:none:none:en")
		assert.False(t, ok)
	})

	t.Run("should expire entries after their TTL", func(t *testing.T) {
		t.Parallel()

		m := NewMemory()
		ctx := context.Background()

		m.Set(ctx, "readme:octocat:Hello-World:en", "# Hello", 10*time.Millisecond)
		_, ok := m.Get(ctx, "readme:octocat:Hello-World:en")
		require.True(t, ok)

		time.Sleep(25 * time.Millisecond)

		_, ok = m.Get(ctx, "readme:octocat:Hello-World:en")
		assert.False(t, ok)
		assert.Zero(t, m.Len(), "expired entries are reaped on read")
	})

	t.Run("should let the last writer win", func(t *testing.T) {
		t.Parallel()

		m := NewMemory()
		ctx := context.Background()

		m.Set(ctx, "k", "first", time.Minute)
		m.Set(ctx, "k", "second", time.Minute)

		raw, ok := m.Get(ctx, "k")
		require.True(t, ok)

		var got string
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, "second", got)
	})

	t.Run("should swallow unmarshalable values", func(t *testing.T) {
		t.Parallel()

		m := NewMemory()
		ctx := context.Background()

		m.Set(ctx, "bad", make(chan int), time.Minute)

		_, ok := m.Get(ctx, "bad")
		assert.False(t, ok, "a failed write behaves like a miss")
	})
}
