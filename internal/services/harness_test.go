package services

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"panorama-service/internal/repository"
	"panorama-service/internal/tiles"
)

type published struct {
	name string
	v    any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(name string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{name: name, v: v})
	return nil
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.name
	}
	return out
}

type fakeTiles struct {
	generated []int64
	removed   []int64
	failWith  error
}

func (f *fakeTiles) Generate(_ context.Context, sourcePath string, roomID int64) (*tiles.PyramidDescriptor, error) {
	if _, err := os.Stat(sourcePath); err != nil {
		return nil, errors.Wrap(err, "source missing")
	}
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.generated = append(f.generated, roomID)
	return tiles.NewDescriptor([]int{512}, 512), nil
}

func (f *fakeTiles) Remove(_ context.Context, roomID int64) error {
	f.removed = append(f.removed, roomID)
	return nil
}

type harness struct {
	store     *repository.FileStore
	uploads   *Uploads
	publisher *recordingPublisher
	tiles     *fakeTiles
	minimap   *MinimapService
	rooms     *RoomService
	sensors   *SensorService
	configs   *repository.ProviderConfigRepository
	clock     time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := repository.NewFileStore(t.TempDir())
	require.NoError(t, err)
	logger := zap.NewNop()

	h := &harness{
		store:     store,
		uploads:   NewUploads(t.TempDir(), logger),
		publisher: &recordingPublisher{},
		tiles:     &fakeTiles{},
		configs:   repository.NewProviderConfigRepository(store),
		clock:     time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC),
	}
	now := func() time.Time {
		h.clock = h.clock.Add(time.Millisecond)
		return h.clock
	}
	h.minimap = NewMinimapService(repository.NewMinimapRepository(store), h.uploads, logger)
	h.minimap.now = now
	h.rooms = NewRoomService(repository.NewRoomRepository(store), h.configs, h.minimap, h.tiles, h.uploads, h.publisher, logger)
	h.rooms.now = now
	h.sensors = NewSensorService(repository.NewSensorRepository(store), h.publisher, logger)
	h.sensors.now = now
	return h
}

// writeUpload places a file under the uploads dir and returns its URL.
func (h *harness) writeUpload(t *testing.T, rel string) string {
	t.Helper()
	path := filepath.Join(h.uploads.dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	return h.uploads.URL(rel)
}

func ptr[T any](v T) *T { return &v }
