package repository

import (
	"context"
	"strconv"

	"panorama-service/internal/models"
)

// RoomRepository stores the room list as one document.
type RoomRepository struct {
	store DocumentStore
}

func NewRoomRepository(store DocumentStore) *RoomRepository {
	return &RoomRepository{store: store}
}

// List returns all rooms; an unwritten collection is an empty list.
func (r *RoomRepository) List(ctx context.Context) ([]models.Room, error) {
	rooms := []models.Room{}
	if _, err := load(ctx, r.store, RoomsCollection, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *RoomRepository) Save(ctx context.Context, rooms []models.Room) error {
	return save(ctx, r.store, RoomsCollection, rooms)
}

type MinimapRepository struct {
	store DocumentStore
}

func NewMinimapRepository(store DocumentStore) *MinimapRepository {
	return &MinimapRepository{store: store}
}

// legacyMinimap is the single-floor layout written by older versions.
type legacyMinimap struct {
	Floors  []models.MinimapFloor `json:"floors"`
	Image   string                `json:"image"`
	Markers []models.Marker       `json:"markers"`
}

// Get returns the minimap, upgrading a legacy single-floor document to
// floor 1.
func (r *MinimapRepository) Get(ctx context.Context) (*models.Minimap, error) {
	var doc legacyMinimap
	found, err := load(ctx, r.store, MinimapCollection, &doc)
	if err != nil {
		return nil, err
	}
	if !found {
		return &models.Minimap{Floors: []models.MinimapFloor{}}, nil
	}
	if doc.Floors == nil {
		markers := doc.Markers
		if markers == nil {
			markers = []models.Marker{}
		}
		return &models.Minimap{Floors: []models.MinimapFloor{{
			ID: 1, Name: "Floor 1", Image: doc.Image, Markers: markers,
		}}}, nil
	}
	return &models.Minimap{Floors: doc.Floors}, nil
}

func (r *MinimapRepository) Save(ctx context.Context, m *models.Minimap) error {
	return save(ctx, r.store, MinimapCollection, m)
}

type SensorRepository struct {
	store DocumentStore
}

func NewSensorRepository(store DocumentStore) *SensorRepository {
	return &SensorRepository{store: store}
}

func (r *SensorRepository) List(ctx context.Context) ([]models.SensorRecord, error) {
	sensors := []models.SensorRecord{}
	if _, err := load(ctx, r.store, SensorsCollection, &sensors); err != nil {
		return nil, err
	}
	return sensors, nil
}

func (r *SensorRepository) Save(ctx context.Context, sensors []models.SensorRecord) error {
	return save(ctx, r.store, SensorsCollection, sensors)
}

type ScenarioRepository struct {
	store DocumentStore
}

func NewScenarioRepository(store DocumentStore) *ScenarioRepository {
	return &ScenarioRepository{store: store}
}

// Get returns nil without error when no scenario has been saved.
func (r *ScenarioRepository) Get(ctx context.Context) (*models.TourScenario, error) {
	var s models.TourScenario
	found, err := load(ctx, r.store, ScenarioCollection, &s)
	if err != nil || !found {
		return nil, err
	}
	return &s, nil
}

func (r *ScenarioRepository) Save(ctx context.Context, s *models.TourScenario) error {
	return save(ctx, r.store, ScenarioCollection, s)
}

func (r *ScenarioRepository) Delete(ctx context.Context) error {
	return r.store.Delete(ctx, ScenarioCollection)
}

// ProviderConfigRepository stores the site-wide provider config and the
// per-room overrides.
type ProviderConfigRepository struct {
	store DocumentStore
}

func NewProviderConfigRepository(store DocumentStore) *ProviderConfigRepository {
	return &ProviderConfigRepository{store: store}
}

func (r *ProviderConfigRepository) Global(ctx context.Context) (*models.ProviderConfig, bool, error) {
	var cfg models.ProviderConfig
	found, err := load(ctx, r.store, APIConfigCollection, &cfg)
	if err != nil || !found {
		return nil, false, err
	}
	return &cfg, true, nil
}

func (r *ProviderConfigRepository) SaveGlobal(ctx context.Context, cfg *models.ProviderConfig) error {
	return save(ctx, r.store, APIConfigCollection, cfg)
}

func (r *ProviderConfigRepository) Room(ctx context.Context, roomID int64) (*models.ProviderConfig, bool, error) {
	var cfg models.ProviderConfig
	found, err := load(ctx, r.store, roomConfigCollection(roomID), &cfg)
	if err != nil || !found {
		return nil, false, err
	}
	return &cfg, true, nil
}

func (r *ProviderConfigRepository) SaveRoom(ctx context.Context, roomID int64, cfg *models.ProviderConfig) error {
	return save(ctx, r.store, roomConfigCollection(roomID), cfg)
}

func (r *ProviderConfigRepository) DeleteRoom(ctx context.Context, roomID int64) error {
	return r.store.Delete(ctx, roomConfigCollection(roomID))
}

func roomConfigCollection(roomID int64) string {
	return roomAPIConfigPrefix + strconv.FormatInt(roomID, 10)
}
