package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"panorama-service/internal/models"
	"panorama-service/internal/repository"
)

type MinimapService struct {
	repo    *repository.MinimapRepository
	uploads *Uploads
	logger  *zap.Logger
	now     func() time.Time

	mu sync.Mutex
}

func NewMinimapService(repo *repository.MinimapRepository, uploads *Uploads, logger *zap.Logger) *MinimapService {
	return &MinimapService{repo: repo, uploads: uploads, logger: logger, now: time.Now}
}

func (s *MinimapService) Get(ctx context.Context) (*models.Minimap, error) {
	m, err := s.repo.Get(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load minimap")
	}
	return m, nil
}

func (s *MinimapService) Floor(ctx context.Context, floorID int) (*models.MinimapFloor, error) {
	m, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	f := m.Floor(floorID)
	if f == nil {
		return nil, ErrFloorNotFound
	}
	return f, nil
}

// mutate applies fn under the lock and saves. fn returns the floor it
// touched, if any.
func (s *MinimapService) mutate(ctx context.Context, fn func(*models.Minimap) (*models.MinimapFloor, error)) (*models.MinimapFloor, *models.Minimap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.Get(ctx)
	if err != nil {
		return nil, nil, err
	}
	floor, err := fn(m)
	if err != nil {
		return nil, nil, err
	}
	if err := s.repo.Save(ctx, m); err != nil {
		return nil, nil, errors.Wrap(err, "failed to save minimap")
	}
	var out *models.MinimapFloor
	if floor != nil {
		copied := *floor
		out = &copied
	}
	return out, m, nil
}

func defaultFloorName(id int) string { return fmt.Sprintf("Floor %d", id) }

func floorOrCreate(m *models.Minimap, id int, name string) *models.MinimapFloor {
	if f := m.Floor(id); f != nil {
		return f
	}
	if name == "" {
		name = defaultFloorName(id)
	}
	m.Floors = append(m.Floors, models.MinimapFloor{ID: id, Name: name, Markers: []models.Marker{}})
	return &m.Floors[len(m.Floors)-1]
}

// UploadFloorImage stores a floor plan image and attaches it to floorID,
// creating the floor when needed. floorID <= 0 means floor 1.
func (s *MinimapService) UploadFloorImage(ctx context.Context, floorID int, floorName string, up Upload) (*models.MinimapFloor, *models.Minimap, error) {
	if !imageContentTypes[up.ContentType] {
		return nil, nil, invalid("Only JPG, PNG and WEBP files are allowed")
	}
	if floorID <= 0 {
		floorID = 1
	}
	name := "minimap_" + strconv.FormatInt(s.now().UnixMilli(), 10) + strings.ToLower(filepath.Ext(up.Filename))
	if _, err := saveUpload(s.uploads.dir, name, up.Body); err != nil {
		return nil, nil, err
	}
	return s.mutate(ctx, func(m *models.Minimap) (*models.MinimapFloor, error) {
		f := floorOrCreate(m, floorID, floorName)
		f.Image = s.uploads.URL(name)
		return f, nil
	})
}

// MarkerInput is a marker as submitted; X and Y are required.
type MarkerInput struct {
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	RoomID int64    `json:"roomId"`
}

// FloorInput replaces the image and markers of a floor. A nil Markers slice
// means the field was missing.
type FloorInput struct {
	Image     string        `json:"image"`
	Markers   []MarkerInput `json:"markers"`
	FloorName string        `json:"floorName"`
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (s *MinimapService) SaveFloor(ctx context.Context, floorID int, in FloorInput) (*models.MinimapFloor, *models.Minimap, error) {
	if in.Image == "" {
		return nil, nil, invalid("Missing minimap image")
	}
	if in.Markers == nil {
		return nil, nil, invalid("Markers must be an array")
	}
	markers := make([]models.Marker, 0, len(in.Markers))
	for i, mk := range in.Markers {
		if mk.X == nil || mk.Y == nil {
			return nil, nil, invalid("Marker %d missing x/y", i)
		}
		markers = append(markers, models.Marker{X: clamp01(*mk.X), Y: clamp01(*mk.Y), RoomID: mk.RoomID})
	}
	return s.mutate(ctx, func(m *models.Minimap) (*models.MinimapFloor, error) {
		f := floorOrCreate(m, floorID, in.FloorName)
		f.Image = in.Image
		f.Markers = markers
		if in.FloorName != "" {
			f.Name = in.FloorName
		}
		return f, nil
	})
}

func (s *MinimapService) RenameFloor(ctx context.Context, floorID int, name string) (*models.MinimapFloor, *models.Minimap, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, invalid("Floor name is required")
	}
	return s.mutate(ctx, func(m *models.Minimap) (*models.MinimapFloor, error) {
		f := m.Floor(floorID)
		if f == nil {
			return nil, ErrFloorNotFound
		}
		f.Name = name
		return f, nil
	})
}

func (s *MinimapService) DeleteFloor(ctx context.Context, floorID int) (*models.Minimap, error) {
	_, m, err := s.mutate(ctx, func(m *models.Minimap) (*models.MinimapFloor, error) {
		for i := range m.Floors {
			if m.Floors[i].ID == floorID {
				m.Floors = append(m.Floors[:i], m.Floors[i+1:]...)
				return nil, nil
			}
		}
		return nil, ErrFloorNotFound
	})
	return m, err
}

// RemoveRoomMarkers drops the markers of a deleted room from every floor.
func (s *MinimapService) RemoveRoomMarkers(ctx context.Context, roomID int64) error {
	_, _, err := s.mutate(ctx, func(m *models.Minimap) (*models.MinimapFloor, error) {
		removed := 0
		for i := range m.Floors {
			kept := m.Floors[i].Markers[:0]
			for _, mk := range m.Floors[i].Markers {
				if mk.RoomID != roomID {
					kept = append(kept, mk)
				}
			}
			removed += len(m.Floors[i].Markers) - len(kept)
			m.Floors[i].Markers = kept
		}
		if removed > 0 {
			s.logger.Info("removed minimap markers", zap.Int64("room_id", roomID), zap.Int("count", removed))
		}
		return nil, nil
	})
	return err
}
