package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"panorama-service/internal/models"
	"panorama-service/internal/repository"
	"panorama-service/internal/weather"
)

// CombinedFetcher looks up weather and air quality for a provider config.
type CombinedFetcher interface {
	Combined(ctx context.Context, cfg models.ProviderConfig) *models.CombinedData
}

// ApiConfigService manages provider configs and serves combined readings.
type ApiConfigService struct {
	repo     *repository.ProviderConfigRepository
	defaults models.ProviderConfig
	fetcher  CombinedFetcher
	logger   *zap.Logger
	now      func() time.Time
}

func NewApiConfigService(repo *repository.ProviderConfigRepository, defaults models.ProviderConfig,
	fetcher CombinedFetcher, logger *zap.Logger) *ApiConfigService {
	return &ApiConfigService{repo: repo, defaults: defaults, fetcher: fetcher, logger: logger, now: time.Now}
}

// Global returns the site-wide config, or the defaults when none is saved.
func (s *ApiConfigService) Global(ctx context.Context) (*models.ProviderConfig, error) {
	cfg, found, err := s.repo.Global(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load api config")
	}
	if !found {
		d := s.defaults
		return &d, nil
	}
	return cfg, nil
}

func (s *ApiConfigService) SaveGlobal(ctx context.Context, cfg *models.ProviderConfig) error {
	if cfg == nil {
		return invalid("Invalid config data")
	}
	if err := s.repo.SaveGlobal(ctx, cfg); err != nil {
		return errors.Wrap(err, "failed to save api config")
	}
	return nil
}

// Room returns the config of one room. Rooms without their own config get
// the defaults, never the global config.
func (s *ApiConfigService) Room(ctx context.Context, roomID int64) (*models.ProviderConfig, bool, error) {
	cfg, found, err := s.repo.Room(ctx, roomID)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to load room api config")
	}
	if !found {
		d := s.defaults
		return &d, true, nil
	}
	return cfg, false, nil
}

func (s *ApiConfigService) SaveRoom(ctx context.Context, roomID int64, cfg *models.ProviderConfig) error {
	if cfg == nil {
		return invalid("Invalid config data")
	}
	if err := s.repo.SaveRoom(ctx, roomID, cfg); err != nil {
		return errors.Wrap(err, "failed to save room api config")
	}
	return nil
}

// Combined returns readings for a room, or for the site when roomID is 0.
// It never fails: an unreadable config yields fixed mock data.
func (s *ApiConfigService) Combined(ctx context.Context, roomID int64) *models.CombinedData {
	var (
		cfg *models.ProviderConfig
		err error
	)
	if roomID != 0 {
		cfg, _, err = s.Room(ctx, roomID)
	} else {
		cfg, err = s.Global(ctx)
	}
	if err != nil {
		s.logger.Error("failed to resolve api config, returning mock data", zap.Int64("room_id", roomID), zap.Error(err))
		return s.mock()
	}
	return s.fetcher.Combined(ctx, *cfg)
}

// CombinedCustom returns readings for an unsaved config.
func (s *ApiConfigService) CombinedCustom(ctx context.Context, cfg *models.ProviderConfig) *models.CombinedData {
	if cfg == nil {
		return s.mock()
	}
	return s.fetcher.Combined(ctx, *cfg)
}

func (s *ApiConfigService) mock() *models.CombinedData {
	return &models.CombinedData{
		Temperature: 26.5,
		Humidity:    70,
		PM25:        35,
		Location:    "Mock Data",
		Timestamp:   s.now().UTC(),
		AQI:         weather.ClassifyPM25(35),
		Weather:     "clear sky",
	}
}
