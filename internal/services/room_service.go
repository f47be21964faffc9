package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"panorama-service/internal/events"
	"panorama-service/internal/models"
	"panorama-service/internal/repository"
	"panorama-service/internal/tiles"
)

// Publisher pushes a full collection snapshot to connected viewers.
type Publisher interface {
	Publish(name string, v any) error
}

// TileStore is the part of TileService rooms depend on.
type TileStore interface {
	Generate(ctx context.Context, sourcePath string, roomID int64) (*tiles.PyramidDescriptor, error)
	Remove(ctx context.Context, roomID int64) error
}

// RoomService manages rooms and their hotspots. All mutations go through
// one mutex since the room list is stored as a single document.
type RoomService struct {
	repo      *repository.RoomRepository
	configs   *repository.ProviderConfigRepository
	minimap   *MinimapService
	tiles     TileStore
	uploads   *Uploads
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time

	mu sync.Mutex
}

func NewRoomService(repo *repository.RoomRepository, configs *repository.ProviderConfigRepository,
	minimap *MinimapService, tiles TileStore, uploads *Uploads, publisher Publisher, logger *zap.Logger) *RoomService {
	return &RoomService{
		repo:      repo,
		configs:   configs,
		minimap:   minimap,
		tiles:     tiles,
		uploads:   uploads,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns all rooms. Hotspots stored without an id get one, and the
// ids are written back at once so every later read reports the same ones.
func (s *RoomService) List(ctx context.Context) ([]models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// load reads the rooms and persists any newly assigned hotspot ids. Callers
// hold s.mu.
func (s *RoomService) load(ctx context.Context) ([]models.Room, error) {
	rooms, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load rooms")
	}
	if assignHotspotIDs(rooms) {
		if err := s.repo.Save(ctx, rooms); err != nil {
			return nil, errors.Wrap(err, "failed to save hotspot ids")
		}
		s.logger.Info("assigned ids to legacy hotspots")
	}
	return rooms, nil
}

// assignHotspotIDs reports whether any id was missing.
func assignHotspotIDs(rooms []models.Room) bool {
	changed := false
	for i := range rooms {
		r := &rooms[i]
		if r.Hotspots == nil {
			r.Hotspots = []models.NavigationHotspot{}
		}
		for j := range r.Hotspots {
			if r.Hotspots[j].ID == uuid.Nil {
				r.Hotspots[j].ID = uuid.New()
				changed = true
			}
		}
		for j := range r.MediaHotspots {
			if r.MediaHotspots[j].ID == uuid.Nil {
				r.MediaHotspots[j].ID = uuid.New()
				changed = true
			}
		}
		for j := range r.MailHotspots {
			if r.MailHotspots[j].ID == uuid.Nil {
				r.MailHotspots[j].ID = uuid.New()
				changed = true
			}
		}
	}
	return changed
}

func (s *RoomService) Get(ctx context.Context, id int64) (*models.Room, error) {
	rooms, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rooms {
		if rooms[i].ID == id {
			return &rooms[i], nil
		}
	}
	return nil, ErrRoomNotFound
}

// update runs fn on the room with the given id and persists the result.
func (s *RoomService) update(ctx context.Context, id int64, fn func(*models.Room) error) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rooms, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	var room *models.Room
	for i := range rooms {
		if rooms[i].ID == id {
			room = &rooms[i]
			break
		}
	}
	if room == nil {
		return nil, ErrRoomNotFound
	}
	if err := fn(room); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, rooms); err != nil {
		return nil, errors.Wrap(err, "failed to save rooms")
	}
	s.broadcast(rooms)
	updated := *room
	return &updated, nil
}

func (s *RoomService) broadcast(rooms []models.Room) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(events.Rooms, rooms); err != nil {
		s.logger.Error("failed to broadcast rooms", zap.Error(err))
	}
}

// CreateRoomInput describes an uploaded panorama.
type CreateRoomInput struct {
	Name   string
	Floor  int
	Upload Upload
}

// Create stores the panorama, generates its tile pyramid and records the
// room. The room only becomes visible once tiling succeeded.
func (s *RoomService) Create(ctx context.Context, in CreateRoomInput) (*models.Room, error) {
	if !imageContentTypes[in.Upload.ContentType] {
		return nil, invalid("Only JPG, PNG and WEBP files are allowed")
	}

	now := s.now()
	id := now.UnixMilli()
	filename := "panorama_" + roomKey(id) + strings.ToLower(filepath.Ext(in.Upload.Filename))
	if _, err := saveUpload(s.uploads.dir, filename, in.Upload.Body); err != nil {
		return nil, err
	}
	rawPath := filepath.Join(s.uploads.dir, filename)

	s.logger.Info("generating tiles", zap.Int64("room_id", id), zap.String("source", rawPath))
	if _, err := s.tiles.Generate(ctx, rawPath, id); err != nil {
		s.logger.Error("tile generation failed", zap.Int64("room_id", id), zap.Error(err))
		if rerr := s.tiles.Remove(ctx, id); rerr != nil {
			s.logger.Warn("failed to clean up partial tiles", zap.Int64("room_id", id), zap.Error(rerr))
		}
		os.Remove(rawPath)
		return nil, fmt.Errorf("%w: %v", ErrTileGeneration, err)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = "Room " + now.Format("02/01/2006")
	}
	floor := in.Floor
	if floor <= 0 {
		floor = 1
	}
	room := models.Room{
		ID:        id,
		Name:      name,
		Image:     s.uploads.URL(filename),
		TilesPath: "tiles/" + roomKey(id),
		Floor:     floor,
		Hotspots:  []models.NavigationHotspot{},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rooms, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	rooms = append(rooms, room)
	if err := s.repo.Save(ctx, rooms); err != nil {
		return nil, errors.Wrap(err, "failed to save rooms")
	}
	s.broadcast(rooms)
	s.logger.Info("room created", zap.Int64("room_id", id), zap.String("name", name))
	return &room, nil
}

// Delete removes a room and everything it owns: minimap markers, tiles,
// the source panorama, media files and its provider config.
func (s *RoomService) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	rooms, err := s.load(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	idx := -1
	for i := range rooms {
		if rooms[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrRoomNotFound
	}
	room := rooms[idx]
	rooms = append(rooms[:idx], rooms[idx+1:]...)
	if err := s.repo.Save(ctx, rooms); err != nil {
		s.mu.Unlock()
		return errors.Wrap(err, "failed to save rooms")
	}
	s.broadcast(rooms)
	s.mu.Unlock()

	if s.minimap != nil {
		if err := s.minimap.RemoveRoomMarkers(ctx, id); err != nil {
			s.logger.Warn("failed to update minimap", zap.Int64("room_id", id), zap.Error(err))
		}
	}
	if room.TilesPath != "" {
		if err := s.tiles.Remove(ctx, id); err != nil {
			s.logger.Warn("failed to delete tiles", zap.Int64("room_id", id), zap.Error(err))
		}
	}
	s.uploads.Remove(room.Image)
	for _, m := range room.MediaHotspots {
		if m.MediaURL != "" {
			s.uploads.Remove(m.MediaURL)
		}
	}
	if s.configs != nil {
		if err := s.configs.DeleteRoom(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("failed to delete room api config", zap.Int64("room_id", id), zap.Error(err))
		}
	}
	s.logger.Info("room deleted", zap.Int64("room_id", id))
	return nil
}
