package services

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"panorama-service/internal/models"
	"panorama-service/internal/services/cache"
	"panorama-service/internal/tiles"
)

// CacheRecorder observes the tile read path.
type CacheRecorder interface {
	CacheLookup(layer string, hit bool, d time.Duration)
	CacheMiss()
}

// RoomFinder looks up the room a pyramid belongs to.
type RoomFinder interface {
	Get(ctx context.Context, id int64) (*models.Room, error)
}

// TileService owns the tile tree of every room: generation, the layered
// read path and bulk transfer.
type TileService struct {
	generator *tiles.Generator
	levels    []int
	root      string
	// layers are consulted in order; a hit is copied into the earlier ones.
	layers   []cache.Layer
	mirror   cache.Layer
	recorder CacheRecorder
	rooms    RoomFinder
	logger   *zap.Logger
}

// NewTileService wires the read path. disk must read from root; mirror may
// be nil when object storage is disabled.
func NewTileService(generator *tiles.Generator, levels []int, root string, fast []cache.Layer, disk, mirror cache.Layer, logger *zap.Logger) *TileService {
	layers := append([]cache.Layer{}, fast...)
	layers = append(layers, disk)
	if mirror != nil {
		layers = append(layers, mirror)
	}
	return &TileService{
		generator: generator,
		levels:    levels,
		root:      root,
		layers:    layers,
		mirror:    mirror,
		logger:    logger,
	}
}

func (s *TileService) WithRecorder(r CacheRecorder) *TileService {
	s.recorder = r
	return s
}

// WithRooms makes archive imports check that the room exists.
func (s *TileService) WithRooms(r RoomFinder) *TileService {
	s.rooms = r
	return s
}

func roomKey(roomID int64) string { return strconv.FormatInt(roomID, 10) }

// Dir is the pyramid directory of a room.
func (s *TileService) Dir(roomID int64) string {
	return filepath.Join(s.root, roomKey(roomID))
}

// Generate builds the pyramid for roomID from sourcePath and mirrors it to
// object storage. Mirroring is best effort; the local tree is authoritative.
func (s *TileService) Generate(ctx context.Context, sourcePath string, roomID int64) (*tiles.PyramidDescriptor, error) {
	desc, err := s.generator.Generate(ctx, sourcePath, s.Dir(roomID), s.levels)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, roomID)
	return desc, nil
}

func (s *TileService) publish(ctx context.Context, roomID int64) {
	if s.mirror == nil {
		return
	}
	dir := s.Dir(roomID)
	count := 0
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		if err := s.mirror.Store(ctx, path.Join(roomKey(roomID), filepath.ToSlash(rel)), data); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		s.logger.Warn("failed to mirror tiles to object storage",
			zap.Int64("room_id", roomID), zap.Int("published", count), zap.Error(err))
		return
	}
	s.logger.Info("mirrored tiles to object storage", zap.Int64("room_id", roomID), zap.Int("files", count))
}

var tileNamePattern = regexp.MustCompile(`^\d+/[fblrud]/\d+/\d+\.jpg$`)

// ValidTileName reports whether name addresses a tile or the descriptor
// inside one pyramid.
func ValidTileName(name string) bool {
	return name == tiles.DescriptorFile || tileNamePattern.MatchString(name)
}

// Tile returns one file of a room pyramid. name is relative to the pyramid
// root, e.g. "2/f/0/1.jpg" or "config.json".
func (s *TileService) Tile(ctx context.Context, roomID int64, name string) ([]byte, error) {
	if !ValidTileName(name) {
		return nil, ErrTilesNotFound
	}
	key := path.Join(roomKey(roomID), name)

	for i, layer := range s.layers {
		start := time.Now()
		data, found, err := layer.Get(ctx, key)
		if s.recorder != nil {
			s.recorder.CacheLookup(layer.Name(), found, time.Since(start))
		}
		if err != nil {
			s.logger.Warn("tile layer failed", zap.String("layer", layer.Name()),
				zap.String("key", key), zap.Error(err))
			continue
		}
		if !found {
			continue
		}
		for _, faster := range s.layers[:i] {
			if err := faster.Store(ctx, key, data); err != nil {
				s.logger.Warn("failed to promote tile", zap.String("layer", faster.Name()),
					zap.String("key", key), zap.Error(err))
			}
		}
		return data, nil
	}

	if s.recorder != nil {
		s.recorder.CacheMiss()
	}
	return nil, ErrTilesNotFound
}

// Remove deletes a room pyramid from every layer.
func (s *TileService) Remove(ctx context.Context, roomID int64) error {
	prefix := roomKey(roomID) + "/"
	var firstErr error
	for _, layer := range s.layers {
		if err := layer.DeletePrefix(ctx, prefix); err != nil {
			s.logger.Warn("failed to delete tiles", zap.String("layer", layer.Name()),
				zap.Int64("room_id", roomID), zap.Error(err))
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "failed to delete tiles from %s", layer.Name())
			}
		}
	}
	return firstErr
}

// Exists reports whether a complete pyramid for roomID is on local disk.
func (s *TileService) Exists(roomID int64) bool {
	_, err := os.Stat(filepath.Join(s.Dir(roomID), tiles.DescriptorFile))
	return err == nil
}

// ExportArchive writes the pyramid of roomID to w as a zip archive.
func (s *TileService) ExportArchive(ctx context.Context, roomID int64, w io.Writer) error {
	dir := s.Dir(roomID)
	if _, err := os.Stat(filepath.Join(dir, tiles.DescriptorFile)); err != nil {
		if os.IsNotExist(err) {
			return ErrTilesNotFound
		}
		return err
	}
	return tiles.ExportArchive(ctx, dir, w)
}

// ImportArchive replaces the pyramid of roomID with the contents of an
// archive, for example one produced by ExportArchive on another instance.
// The archive is extracted and checked beside the live pyramid, which is
// only swapped out once the new one has a readable descriptor.
func (s *TileService) ImportArchive(ctx context.Context, roomID int64, archivePath string) (int, error) {
	if s.rooms != nil {
		if _, err := s.rooms.Get(ctx, roomID); err != nil {
			return 0, err
		}
	}
	if err := os.MkdirAll(s.root, 0755); err != nil {
		return 0, errors.Wrap(err, "failed to create tile root")
	}
	staging, err := os.MkdirTemp(s.root, ".import-"+roomKey(roomID)+"-")
	if err != nil {
		return 0, errors.Wrap(err, "failed to create staging directory")
	}
	defer os.RemoveAll(staging)

	files, err := tiles.ImportArchive(ctx, archivePath, staging)
	if err != nil {
		return 0, invalid("Invalid tile archive: %v", err)
	}
	if _, err := tiles.ReadDescriptor(staging); err != nil {
		return 0, invalid("Invalid tile archive: %v", err)
	}
	if err := os.Chmod(staging, 0755); err != nil {
		return 0, err
	}

	if err := s.Remove(ctx, roomID); err != nil {
		return 0, err
	}
	if err := os.Rename(staging, s.Dir(roomID)); err != nil {
		return 0, errors.Wrap(err, "failed to move imported tiles into place")
	}
	s.logger.Info("imported tile archive", zap.Int64("room_id", roomID), zap.Int("files", len(files)))
	s.publish(ctx, roomID)
	return len(files), nil
}

// CacheStats reports every layer of the read path.
func (s *TileService) CacheStats() []cache.LayerStats {
	stats := make([]cache.LayerStats, 0, len(s.layers))
	for _, layer := range s.layers {
		stats = append(stats, layer.Stats())
	}
	return stats
}

// ClearCaches empties every layer that supports it and returns their names.
// The local tree and object storage are never cleared.
func (s *TileService) ClearCaches() []string {
	cleared := []string{}
	for _, layer := range s.layers {
		if c, ok := layer.(cache.Clearer); ok {
			c.Clear()
			cleared = append(cleared, layer.Name())
		}
	}
	s.logger.Info("tile caches cleared", zap.Strings("layers", cleared))
	return cleared
}
