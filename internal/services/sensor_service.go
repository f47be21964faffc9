package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"panorama-service/internal/events"
	"panorama-service/internal/models"
	"panorama-service/internal/repository"
)

// CameraPatch overrides individual camera fields; nil fields keep their
// current or default value.
type CameraPatch struct {
	StreamURL   *string              `json:"streamUrl"`
	SnapshotURL *string              `json:"snapshotUrl"`
	Resolution  *string              `json:"resolution"`
	Status      *models.CameraStatus `json:"status"`
	Notes       *string              `json:"notes"`
}

func (p *CameraPatch) applyTo(feed *models.CameraFeed) error {
	if p == nil {
		return nil
	}
	if p.Status != nil {
		switch *p.Status {
		case models.CameraOnline, models.CameraOffline, models.CameraMaintenance:
			feed.Status = *p.Status
		default:
			return invalid("Invalid camera status %q", *p.Status)
		}
	}
	if p.StreamURL != nil {
		feed.StreamURL = *p.StreamURL
	}
	if p.SnapshotURL != nil {
		feed.SnapshotURL = *p.SnapshotURL
	}
	if p.Resolution != nil {
		feed.Resolution = *p.Resolution
	}
	if p.Notes != nil {
		feed.Notes = *p.Notes
	}
	return nil
}

// SensorInput is a sensor create or update request.
type SensorInput struct {
	Name     string                      `json:"name"`
	RoomID   int64                       `json:"roomId"`
	Type     models.SensorType           `json:"type"`
	Position *models.Position            `json:"position"`
	Sensors  *models.EnvironmentReadings `json:"sensors"`
	Camera   *CameraPatch                `json:"camera"`
}

type SensorService struct {
	repo      *repository.SensorRepository
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time

	mu sync.Mutex
}

func NewSensorService(repo *repository.SensorRepository, publisher Publisher, logger *zap.Logger) *SensorService {
	return &SensorService{repo: repo, publisher: publisher, logger: logger, now: time.Now}
}

// List returns all sensors, or those of one room when roomID is non-zero.
func (s *SensorService) List(ctx context.Context, roomID int64) ([]models.SensorRecord, error) {
	sensors, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load sensors")
	}
	if roomID == 0 {
		return sensors, nil
	}
	filtered := []models.SensorRecord{}
	for _, sr := range sensors {
		if sr.RoomID == roomID {
			filtered = append(filtered, sr)
		}
	}
	return filtered, nil
}

func (s *SensorService) Get(ctx context.Context, id int64) (*models.SensorRecord, error) {
	sensors, err := s.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	for i := range sensors {
		if sensors[i].ID == id {
			return &sensors[i], nil
		}
	}
	return nil, ErrSensorNotFound
}

func validSensorType(t models.SensorType) bool {
	return t == models.SensorEnvironment || t == models.SensorCamera
}

// Create adds a sensor with type specific defaults.
func (s *SensorService) Create(ctx context.Context, in SensorInput) (*models.SensorRecord, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.RoomID == 0 {
		return nil, invalid("Missing required fields")
	}
	typ := in.Type
	if typ == "" {
		typ = models.SensorEnvironment
	}
	if !validSensorType(typ) {
		return nil, invalid("Invalid sensor type %q", in.Type)
	}

	now := s.now().UTC()
	rec := models.SensorRecord{
		Name:       name,
		RoomID:     in.RoomID,
		Type:       typ,
		Position:   models.Position{},
		LastUpdate: now,
	}
	if in.Position != nil {
		rec.Position = *in.Position
	}
	if typ == models.SensorCamera {
		rec.Color = models.CameraColor
		rec.Camera = models.DefaultCameraFeed()
		if err := in.Camera.applyTo(rec.Camera); err != nil {
			return nil, err
		}
	} else {
		rec.Color = models.EnvironmentColor
		rec.Sensors = in.Sensors
		if rec.Sensors == nil {
			rec.Sensors = models.DefaultEnvironmentReadings()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sensors, err := s.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	rec.ID = nextID(now.UnixMilli(), sensors)
	sensors = append(sensors, rec)
	if err := s.save(ctx, sensors); err != nil {
		return nil, err
	}
	s.logger.Info("sensor created", zap.Int64("sensor_id", rec.ID), zap.Int64("room_id", rec.RoomID))
	return &rec, nil
}

// nextID returns candidate, bumped past any id already taken.
func nextID(candidate int64, sensors []models.SensorRecord) int64 {
	taken := make(map[int64]bool, len(sensors))
	for _, sr := range sensors {
		taken[sr.ID] = true
	}
	for taken[candidate] {
		candidate++
	}
	return candidate
}

// Update changes a sensor. Switching to or staying a camera merges the
// camera fields over the current feed and the defaults.
func (s *SensorService) Update(ctx context.Context, id int64, in SensorInput) (*models.SensorRecord, error) {
	if in.Type != "" && !validSensorType(in.Type) {
		return nil, invalid("Invalid sensor type %q", in.Type)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sensors, err := s.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	var rec *models.SensorRecord
	for i := range sensors {
		if sensors[i].ID == id {
			rec = &sensors[i]
			break
		}
	}
	if rec == nil {
		return nil, ErrSensorNotFound
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		rec.Name = name
	}
	if in.Position != nil {
		rec.Position = *in.Position
	}
	if in.Type != "" {
		rec.Type = in.Type
	}
	if rec.Type == "" {
		rec.Type = models.SensorEnvironment
	}

	if rec.Type == models.SensorCamera {
		feed := models.DefaultCameraFeed()
		if rec.Camera != nil {
			*feed = *rec.Camera
		}
		if err := in.Camera.applyTo(feed); err != nil {
			return nil, err
		}
		rec.Camera = feed
		rec.Color = models.CameraColor
	} else if in.Sensors != nil {
		rec.Sensors = in.Sensors
		rec.Color = models.EnvironmentColor
	}
	rec.LastUpdate = s.now().UTC()

	if err := s.save(ctx, sensors); err != nil {
		return nil, err
	}
	updated := *rec
	return &updated, nil
}

func (s *SensorService) Delete(ctx context.Context, id int64) (*models.SensorRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sensors, err := s.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	for i := range sensors {
		if sensors[i].ID == id {
			deleted := sensors[i]
			sensors = append(sensors[:i], sensors[i+1:]...)
			if err := s.save(ctx, sensors); err != nil {
				return nil, err
			}
			return &deleted, nil
		}
	}
	return nil, ErrSensorNotFound
}

func (s *SensorService) save(ctx context.Context, sensors []models.SensorRecord) error {
	if err := s.repo.Save(ctx, sensors); err != nil {
		return errors.Wrap(err, "failed to save sensors")
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(events.Sensors, sensors); err != nil {
			s.logger.Error("failed to broadcast sensors", zap.Error(err))
		}
	}
	return nil
}
