package services

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"panorama-service/internal/models"
	"panorama-service/internal/services/cache"
	"panorama-service/internal/services/caches"
	"panorama-service/internal/storage"
	"panorama-service/internal/tiles"
)

type memoryObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{objects: map[string][]byte{}}
}

func (m *memoryObjects) Put(_ context.Context, key string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryObjects) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

func (m *memoryObjects) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			delete(m.objects, k)
		}
	}
	return nil
}

type lookupRecorder struct {
	mu      sync.Mutex
	lookups []string
	misses  int
}

func (r *lookupRecorder) CacheLookup(layer string, hit bool, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		layer += ":hit"
	}
	r.lookups = append(r.lookups, layer)
}

func (r *lookupRecorder) CacheMiss() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.misses++
}

type tileFixture struct {
	svc     *TileService
	memory  *caches.MemoryCache
	objects *memoryObjects
	rec     *lookupRecorder
	root    string
}

func newTileFixture(t *testing.T) *tileFixture {
	t.Helper()
	root := t.TempDir()
	memory, err := caches.NewMemoryCache(64)
	require.NoError(t, err)
	objects := newMemoryObjects()
	rec := &lookupRecorder{}
	gen := tiles.NewGenerator(tiles.NewStdCodec(), tiles.DefaultOptions(), zap.NewNop())
	svc := NewTileService(gen, []int{512}, root, []cache.Layer{memory},
		caches.NewFileCache(root), caches.NewObjectCache(objects), zap.NewNop()).WithRecorder(rec)
	return &tileFixture{svc: svc, memory: memory, objects: objects, rec: rec, root: root}
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: uint8(x % 256), A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	writeFile(t, path, buf.Bytes())
}

func TestValidTileName(t *testing.T) {
	assert.True(t, ValidTileName("config.json"))
	assert.True(t, ValidTileName("2/f/0/1.jpg"))
	assert.False(t, ValidTileName("2/x/0/1.jpg"))
	assert.False(t, ValidTileName("../../etc/passwd"))
	assert.False(t, ValidTileName("2/f/0/1.png"))
}

func TestTileReadPromotesFromDisk(t *testing.T) {
	f := newTileFixture(t)
	ctx := context.Background()
	writeFile(t, filepath.Join(f.root, "7", "0", "f", "0", "0.jpg"), []byte("tile"))

	data, err := f.svc.Tile(ctx, 7, "0/f/0/0.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("tile"), data)
	assert.Equal(t, []string{"memory", "disk:hit"}, f.rec.lookups)

	data, err = f.svc.Tile(ctx, 7, "0/f/0/0.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("tile"), data)
	assert.Equal(t, []string{"memory", "disk:hit", "memory:hit"}, f.rec.lookups)
}

func TestTileReadFallsBackToObjectStorage(t *testing.T) {
	f := newTileFixture(t)
	ctx := context.Background()
	require.NoError(t, f.objects.Put(ctx, "tiles/7/config.json", []byte("{}"), "application/json"))

	data, err := f.svc.Tile(ctx, 7, "config.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), data)
	assert.FileExists(t, filepath.Join(f.root, "7", "config.json"))

	_, err = f.svc.Tile(ctx, 7, "0/f/9/9.jpg")
	assert.ErrorIs(t, err, ErrTilesNotFound)
	assert.Equal(t, 1, f.rec.misses)

	_, err = f.svc.Tile(ctx, 7, "../8/config.json")
	assert.ErrorIs(t, err, ErrTilesNotFound)
}

func TestGeneratePublishesAndRemoveClearsAllLayers(t *testing.T) {
	f := newTileFixture(t)
	ctx := context.Background()
	src := filepath.Join(t.TempDir(), "pano.png")
	writePNG(t, src, 600, 300)

	desc, err := f.svc.Generate(ctx, src, 3)
	require.NoError(t, err)
	assert.Len(t, desc.Levels, 1)
	// one 512 level: 6 faces x 1 tile, plus the descriptor
	assert.Len(t, f.objects.objects, 7)
	_, ok := f.objects.objects["tiles/3/config.json"]
	assert.True(t, ok)

	_, err = f.svc.Tile(ctx, 3, "0/u/0/0.jpg")
	require.NoError(t, err)
	assert.Equal(t, 1, f.memory.Stats().Objects)

	require.NoError(t, f.svc.Remove(ctx, 3))
	assert.Empty(t, f.objects.objects)
	assert.Equal(t, 0, f.memory.Stats().Objects)
	assert.NoDirExists(t, filepath.Join(f.root, "3"))
}

func TestExportArchive(t *testing.T) {
	f := newTileFixture(t)
	ctx := context.Background()

	var buf bytes.Buffer
	assert.ErrorIs(t, f.svc.ExportArchive(ctx, 4, &buf), ErrTilesNotFound)

	writeFile(t, filepath.Join(f.root, "4", "config.json"), []byte("{}"))
	writeFile(t, filepath.Join(f.root, "4", "0", "f", "0", "0.jpg"), []byte("tile"))
	require.NoError(t, f.svc.ExportArchive(ctx, 4, &buf))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	var names []string
	for _, zf := range zr.File {
		if !zf.FileInfo().IsDir() {
			names = append(names, zf.Name)
		}
	}
	assert.ElementsMatch(t, []string{"4/config.json", "4/0/f/0/0.jpg"}, names)
}

func TestCacheStatsListsEveryLayer(t *testing.T) {
	f := newTileFixture(t)
	stats := f.svc.CacheStats()
	require.Len(t, stats, 3)
	assert.Equal(t, "memory", stats[0].Name)
	assert.Equal(t, "disk", stats[1].Name)
	assert.Equal(t, "object", stats[2].Name)
}

// writeZip stores entries with explicit directory records for every parent.
func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	dirs := map[string]bool{}
	for name := range entries {
		for dir := filepath.ToSlash(filepath.Dir(name)); dir != "."; dir = filepath.ToSlash(filepath.Dir(dir)) {
			dirs[dir+"/"] = true
		}
	}
	for dir := range dirs {
		_, err := zw.Create(dir)
		require.NoError(t, err)
	}
	for name, body := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	writeFile(t, path, buf.Bytes())
}

type roomSet map[int64]bool

func (r roomSet) Get(_ context.Context, id int64) (*models.Room, error) {
	if !r[id] {
		return nil, ErrRoomNotFound
	}
	return &models.Room{ID: id}, nil
}

func TestImportArchiveReplacesPyramid(t *testing.T) {
	f := newTileFixture(t)
	ctx := context.Background()
	writeFile(t, filepath.Join(f.root, "5", "config.json"), []byte(`{"type":"cube","levels":[]}`))
	writeFile(t, filepath.Join(f.root, "5", "0", "b", "0", "0.jpg"), []byte("old"))

	archive := filepath.Join(t.TempDir(), "pyramid.zip")
	writeZip(t, archive, map[string]string{
		"config.json": `{"type":"cube","levels":[{"tileSize":512,"size":512,"fallbackOnly":true}]}`,
		"0/f/0/0.jpg": "new",
	})

	n, err := f.svc.ImportArchive(ctx, 5, archive)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := f.svc.Tile(ctx, 5, "0/f/0/0.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), data)
	assert.NoFileExists(t, filepath.Join(f.root, "5", "0", "b", "0", "0.jpg"))
	assert.Contains(t, f.objects.objects, "tiles/5/0/f/0/0.jpg")

	entries, err := os.ReadDir(f.root)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no staging directory left behind")
	assert.Equal(t, "5", entries[0].Name())
}

func TestImportArchiveWithoutDescriptorKeepsPyramid(t *testing.T) {
	f := newTileFixture(t)
	ctx := context.Background()
	descriptor := []byte(`{"type":"cube","levels":[]}`)
	writeFile(t, filepath.Join(f.root, "5", "config.json"), descriptor)
	writeFile(t, filepath.Join(f.root, "5", "0", "f", "0", "0.jpg"), []byte("old"))

	archive := filepath.Join(t.TempDir(), "broken.zip")
	writeZip(t, archive, map[string]string{"0/f/0/0.jpg": "new"})

	_, err := f.svc.ImportArchive(ctx, 5, archive)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	data, err := f.svc.Tile(ctx, 5, "config.json")
	require.NoError(t, err)
	assert.Equal(t, descriptor, data)
	data, err = f.svc.Tile(ctx, 5, "0/f/0/0.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), data)

	entries, err := os.ReadDir(f.root)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestImportArchiveUnknownRoom(t *testing.T) {
	f := newTileFixture(t)
	f.svc.WithRooms(roomSet{5: true})

	_, err := f.svc.ImportArchive(context.Background(), 6, filepath.Join(t.TempDir(), "missing.zip"))
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.NoDirExists(t, filepath.Join(f.root, "6"))
}
