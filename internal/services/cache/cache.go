package cache

import (
	"context"
	"sync/atomic"
)

// Layer is one tier of the tile read path. Keys are slash separated paths
// relative to the tile root, e.g. "1718000000000/2/f/0/1.jpg".
type Layer interface {
	Name() string
	// Get returns found=false without error on a plain miss.
	Get(ctx context.Context, key string) (data []byte, found bool, err error)
	Store(ctx context.Context, key string, data []byte) error
	DeletePrefix(ctx context.Context, prefix string) error
	Stats() LayerStats
}

// Clearer is implemented by layers that can be emptied in place.
type Clearer interface {
	Clear()
}

type LayerStats struct {
	Name    string  `json:"name"`
	Objects int     `json:"objects"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hitRate"`
}

// Counter tracks hits and misses for a layer.
type Counter struct {
	hits   atomic.Int64
	misses atomic.Int64
}

func (c *Counter) Record(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
}

// Stats fills in the counter fields. Objects is -1 when the layer cannot
// count cheaply.
func (c *Counter) Stats(name string, objects int) LayerStats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total) * 100
	}
	return LayerStats{Name: name, Objects: objects, Hits: hits, Misses: misses, HitRate: rate}
}

func (c *Counter) Reset() {
	c.hits.Store(0)
	c.misses.Store(0)
}
