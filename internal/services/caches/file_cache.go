package caches

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"panorama-service/internal/services/cache"
)

// FileCache reads tiles from the local tile root. It is the authoritative
// copy on the instance that generated the pyramid; Store only runs when a
// tile is pulled back from object storage.
type FileCache struct {
	root    string
	counter cache.Counter
}

func NewFileCache(root string) *FileCache {
	return &FileCache{root: root}
}

func (fc *FileCache) Name() string { return "disk" }

func (fc *FileCache) path(key string) string {
	return filepath.Join(fc.root, filepath.FromSlash(key))
}

func (fc *FileCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(fc.path(key))
	if os.IsNotExist(err) {
		fc.counter.Record(false)
		return nil, false, nil
	}
	if err != nil {
		fc.counter.Record(false)
		return nil, false, errors.Wrap(err, "failed to read tile file")
	}
	fc.counter.Record(true)
	return data, true, nil
}

func (fc *FileCache) Store(_ context.Context, key string, data []byte) error {
	path := fc.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "failed to create tile directory")
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tile-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write tile file")
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// DeletePrefix removes the directory named by prefix, which is a room id.
func (fc *FileCache) DeletePrefix(_ context.Context, prefix string) error {
	dir := fc.path(prefix)
	if filepath.Clean(dir) == filepath.Clean(fc.root) {
		return errors.New("refusing to delete the tile root")
	}
	return os.RemoveAll(dir)
}

func (fc *FileCache) Stats() cache.LayerStats {
	return fc.counter.Stats(fc.Name(), -1)
}
