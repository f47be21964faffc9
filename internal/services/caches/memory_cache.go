package caches

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"panorama-service/internal/services/cache"
)

// MemoryCache keeps the most recently served tiles in process.
type MemoryCache struct {
	entries *lru.Cache[string, []byte]
	counter cache.Counter
}

func NewMemoryCache(maxEntries int) (*MemoryCache, error) {
	entries, err := lru.New[string, []byte](maxEntries)
	if err != nil {
		return nil, err
	}
	return &MemoryCache{entries: entries}, nil
}

func (mc *MemoryCache) Name() string { return "memory" }

func (mc *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, ok := mc.entries.Get(key)
	mc.counter.Record(ok)
	return data, ok, nil
}

func (mc *MemoryCache) Store(_ context.Context, key string, data []byte) error {
	mc.entries.Add(key, data)
	return nil
}

func (mc *MemoryCache) DeletePrefix(_ context.Context, prefix string) error {
	for _, key := range mc.entries.Keys() {
		if strings.HasPrefix(key, prefix) {
			mc.entries.Remove(key)
		}
	}
	return nil
}

func (mc *MemoryCache) Stats() cache.LayerStats {
	return mc.counter.Stats(mc.Name(), mc.entries.Len())
}

// Clear drops every entry and resets the counters.
func (mc *MemoryCache) Clear() {
	mc.entries.Purge()
	mc.counter.Reset()
}
