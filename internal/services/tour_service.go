package services

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"panorama-service/internal/models"
	"panorama-service/internal/repository"
	"panorama-service/internal/tour"
)

type TourService struct {
	repo    *repository.ScenarioRepository
	planner *tour.Planner
	logger  *zap.Logger
}

func NewTourService(repo *repository.ScenarioRepository, rooms tour.RoomSource, logger *zap.Logger) *TourService {
	return &TourService{
		repo:    repo,
		planner: tour.NewPlanner(rooms, repo, logger),
		logger:  logger,
	}
}

// Scenario returns the saved scenario, or nil when none exists.
func (s *TourService) Scenario(ctx context.Context) (*models.TourScenario, error) {
	sc, err := s.repo.Get(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load tour scenario")
	}
	return sc, nil
}

func (s *TourService) Save(ctx context.Context, sc *models.TourScenario) (*models.TourScenario, error) {
	if sc == nil || strings.TrimSpace(sc.Name) == "" {
		return nil, invalid("Invalid scenario data")
	}
	for i, stop := range sc.Stops {
		switch stop.Type {
		case models.StopRoom, models.StopHotspot:
		default:
			return nil, invalid("Stop %d has unknown type %q", i, stop.Type)
		}
		if stop.Type == models.StopHotspot && stop.HotspotIndex < 0 {
			return nil, invalid("Stop %d has a negative hotspot index", i)
		}
	}
	if sc.Stops == nil {
		sc.Stops = []models.TourStop{}
	}
	if err := s.repo.Save(ctx, sc); err != nil {
		return nil, errors.Wrap(err, "failed to save tour scenario")
	}
	s.logger.Info("tour scenario saved", zap.String("name", sc.Name), zap.Int("stops", len(sc.Stops)))
	return sc, nil
}

func (s *TourService) Delete(ctx context.Context) error {
	if err := s.repo.Delete(ctx); err != nil {
		return errors.Wrap(err, "failed to delete tour scenario")
	}
	return nil
}

// Plan resolves what an auto tour should play right now.
func (s *TourService) Plan(ctx context.Context) (*tour.Plan, error) {
	return s.planner.Plan(ctx)
}
