package scout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsCache(t *testing.T) {
	t.Run("cache is full", func(t *testing.T) {
		cache := newStatsCache("new cache")
		for i := 0; i < statChanBufferSize; i++ {
			assert.NoError(t, cache.AddStat(Stat{}))
		}
		assert.Error(t, cache.AddStat(Stat{}))
	})
	t.Run("nil cache", func(t *testing.T) {
		var cache *statsCache
		assert.Error(t, cache.AddStat(Stat{Count: 1}))
	})
	t.Run("logStats clears the cache", func(t *testing.T) {
		cache := newStatsCache("new cache")
		cache.cacheStat(Stat{Count: 1, User: "a@example.com"})
		cache.logStats()
		assert.Equal(t, 0, cache.events)
		assert.Empty(t, cache.byUser)
	})
	t.Run("stat is recorded", func(t *testing.T) {
		cache := newStatsCache("new cache")
		company := 500
		cache.cacheStat(Stat{
			Count:        2,
			User:         "a@example.com",
			HypothesisID: 7,
			CompanyID:    &company,
		})
		cache.cacheStat(Stat{Count: 1, User: "a@example.com", HypothesisID: 8})
		assert.Equal(t, 2, cache.events)
		assert.Equal(t, 3, cache.total)
		assert.Equal(t, 3, cache.byUser["a@example.com"])
		assert.Equal(t, 2, cache.byHypothesis["7"])
		assert.Equal(t, 1, cache.byHypothesis["8"])
		assert.Equal(t, map[string]int{"500": 2}, cache.byCompany)
	})
	t.Run("consumer drains the channel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		cache := newStatsCache("new cache")
		go cache.consumerLoop(ctx)
		require.NoError(t, cache.AddStat(Stat{Count: 1, User: "b@example.com"}))
		assert.Eventually(t, func() bool {
			cache.mu.Lock()
			defer cache.mu.Unlock()
			return cache.byUser["b@example.com"] == 1
		}, time.Second, 10*time.Millisecond)
	})
	t.Run("registry", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		registry := newStatsCacheRegistry(ctx)
		assert.Contains(t, registry, StatsCacheCalls)
		assert.Contains(t, registry, StatsCacheTAL)
	})
	t.Run("topNItems", func(t *testing.T) {
		t.Run("empty map", func(t *testing.T) {
			assert.Empty(t, topNItems(map[string]int{}, 10))
		})
		t.Run("nil map", func(t *testing.T) {
			assert.Empty(t, topNItems(nil, 10))
		})
		t.Run("fewer than n", func(t *testing.T) {
			fullMap := map[string]int{
				"one": 1,
			}
			items := topNItems(fullMap, 10)
			require.Len(t, items, 1)
			assert.Equal(t, "one", items[0].Identifier)
		})
		t.Run("greater than n", func(t *testing.T) {
			fullMap := map[string]int{
				"one":   1,
				"two":   2,
				"three": 3,
			}
			items := topNItems(fullMap, 2)
			require.Len(t, items, 2)
			assert.Equal(t, "three", items[0].Identifier)
			assert.Equal(t, "two", items[1].Identifier)
		})
		t.Run("ties", func(t *testing.T) {
			items := topNItems(map[string]int{"b": 1, "a": 1}, 2)
			require.Len(t, items, 2)
			assert.Equal(t, "a", items[0].Identifier)
		})
	})
}
