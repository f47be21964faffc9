package repository

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when a collection has never been written.
var ErrNotFound = errors.New("document not found")

// DocumentStore persists whole JSON documents keyed by collection name.
// Writes replace the previous document; the last writer wins.
type DocumentStore interface {
	Get(ctx context.Context, collection string) ([]byte, error)
	Put(ctx context.Context, collection string, payload []byte) error
	Delete(ctx context.Context, collection string) error
}

// Collection names.
const (
	RoomsCollection     = "rooms"
	MinimapCollection   = "minimap"
	SensorsCollection   = "sensors"
	ScenarioCollection  = "tour-scenario"
	APIConfigCollection = "api-config"
	roomAPIConfigPrefix = "room-api-configs/"
)

func validCollection(name string) error {
	if name == "" || strings.Contains(name, "..") || strings.HasPrefix(name, "/") {
		return errors.Errorf("invalid collection name %q", name)
	}
	return nil
}

// load decodes collection into dst. found is false when the collection has
// never been written.
func load(ctx context.Context, store DocumentStore, collection string, dst any) (bool, error) {
	data, err := store.Get(ctx, collection)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "failed to read %s", collection)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, errors.Wrapf(err, "corrupt %s document", collection)
	}
	return true, nil
}

func save(ctx context.Context, store DocumentStore, collection string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s", collection)
	}
	if err := store.Put(ctx, collection, data); err != nil {
		return errors.Wrapf(err, "failed to write %s", collection)
	}
	return nil
}
