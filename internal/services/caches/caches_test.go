package caches

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panorama-service/internal/services/cache"
	"panorama-service/internal/storage"
)

// exercise runs the behaviour every layer shares.
func exercise(t *testing.T, layer cache.Layer) {
	t.Helper()
	ctx := context.Background()

	_, found, err := layer.Get(ctx, "1/0/f/0/0.jpg")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, layer.Store(ctx, "1/0/f/0/0.jpg", []byte("a")))
	require.NoError(t, layer.Store(ctx, "1/config.json", []byte("{}")))
	require.NoError(t, layer.Store(ctx, "2/0/f/0/0.jpg", []byte("b")))

	data, found, err := layer.Get(ctx, "1/0/f/0/0.jpg")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("a"), data)

	require.NoError(t, layer.DeletePrefix(ctx, "1/"))
	_, found, _ = layer.Get(ctx, "1/config.json")
	assert.False(t, found)
	_, found, _ = layer.Get(ctx, "2/0/f/0/0.jpg")
	assert.True(t, found)

	stats := layer.Stats()
	assert.Equal(t, layer.Name(), stats.Name)
	assert.EqualValues(t, 2, stats.Hits)
	assert.EqualValues(t, 2, stats.Misses)
	assert.Equal(t, 50.0, stats.HitRate)
}

func TestMemoryCache(t *testing.T) {
	mc, err := NewMemoryCache(8)
	require.NoError(t, err)
	exercise(t, mc)
	assert.Equal(t, 1, mc.Stats().Objects)

	mc.Clear()
	assert.Equal(t, cache.LayerStats{Name: "memory"}, mc.Stats())
}

func TestMemoryCacheEvictsOldest(t *testing.T) {
	mc, err := NewMemoryCache(2)
	require.NoError(t, err)
	ctx := context.Background()
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, mc.Store(ctx, k, []byte(k)))
	}
	_, found, _ := mc.Get(ctx, "a")
	assert.False(t, found)
	_, found, _ = mc.Get(ctx, "c")
	assert.True(t, found)
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	rc := NewRedisCache(client, 0)
	exercise(t, rc)
	assert.Equal(t, 1, rc.Stats().Objects)
	assert.True(t, mr.Exists(redisTilePrefix+"2/0/f/0/0.jpg"))
}

func TestFileCache(t *testing.T) {
	root := t.TempDir()
	fc := NewFileCache(root)
	exercise(t, fc)
	assert.FileExists(t, filepath.Join(root, "2", "0", "f", "0", "0.jpg"))
	assert.NoDirExists(t, filepath.Join(root, "1"))

	assert.Error(t, fc.DeletePrefix(context.Background(), ""))
	assert.DirExists(t, root)

	entries, err := os.ReadDir(filepath.Join(root, "2", "0", "f", "0"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

type mapStore struct {
	mu   sync.Mutex
	objs map[string][]byte
	ctys map[string]string
}

func (m *mapStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objs[key] = data
	m.ctys[key] = contentType
	return nil
}

func (m *mapStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objs[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

func (m *mapStore) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.objs {
		if strings.HasPrefix(k, prefix) {
			delete(m.objs, k)
		}
	}
	return nil
}

func TestObjectCache(t *testing.T) {
	store := &mapStore{objs: map[string][]byte{}, ctys: map[string]string{}}
	oc := NewObjectCache(store)
	exercise(t, oc)
	assert.Contains(t, store.objs, "tiles/2/0/f/0/0.jpg")
	assert.Equal(t, "image/jpeg", store.ctys["tiles/2/0/f/0/0.jpg"])
}
