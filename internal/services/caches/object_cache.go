package caches

import (
	"context"
	"mime"
	"path"

	"github.com/pkg/errors"

	"panorama-service/internal/services/cache"
	"panorama-service/internal/storage"
)

const objectTilePrefix = "tiles/"

// ObjectCache is the object storage mirror of the tile tree, the last layer
// consulted on a read.
type ObjectCache struct {
	store   storage.ObjectStore
	counter cache.Counter
}

func NewObjectCache(store storage.ObjectStore) *ObjectCache {
	return &ObjectCache{store: store}
}

func (oc *ObjectCache) Name() string { return "object" }

func (oc *ObjectCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := oc.store.Get(ctx, objectTilePrefix+key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		oc.counter.Record(false)
		return nil, false, nil
	}
	if err != nil {
		oc.counter.Record(false)
		return nil, false, errors.Wrap(err, "object storage error")
	}
	oc.counter.Record(true)
	return data, true, nil
}

func (oc *ObjectCache) Store(ctx context.Context, key string, data []byte) error {
	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return oc.store.Put(ctx, objectTilePrefix+key, data, contentType)
}

func (oc *ObjectCache) DeletePrefix(ctx context.Context, prefix string) error {
	return oc.store.DeletePrefix(ctx, objectTilePrefix+prefix)
}

func (oc *ObjectCache) Stats() cache.LayerStats {
	return oc.counter.Stats(oc.Name(), -1)
}
