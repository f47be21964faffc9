package tour

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"panorama-service/internal/models"
)

// RoomSource lists the rooms a tour may visit.
type RoomSource interface {
	List(ctx context.Context) ([]models.Room, error)
}

// ScenarioSource returns the persisted scenario, or nil when none exists.
type ScenarioSource interface {
	Get(ctx context.Context) (*models.TourScenario, error)
}

// Plan is everything the engine needs to play a tour.
type Plan struct {
	Name  string
	Stops []models.TourStop
	Rooms map[int64]*models.Room
	// PanDuration overrides the engine default when at least one second.
	PanDuration time.Duration
}

type Planner struct {
	rooms     RoomSource
	scenarios ScenarioSource
	logger    *zap.Logger
}

func NewPlanner(rooms RoomSource, scenarios ScenarioSource, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{rooms: rooms, scenarios: scenarios, logger: logger}
}

// Plan returns the persisted scenario verbatim, even with no stops, otherwise
// the route derived from the rooms. A broken scenario falls back to the
// derived route.
func (p *Planner) Plan(ctx context.Context) (*Plan, error) {
	rooms, err := p.rooms.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load rooms")
	}
	plan := &Plan{Rooms: make(map[int64]*models.Room, len(rooms))}
	for i := range rooms {
		plan.Rooms[rooms[i].ID] = &rooms[i]
	}

	var scenario *models.TourScenario
	if p.scenarios != nil {
		scenario, err = p.scenarios.Get(ctx)
		if err != nil {
			p.logger.Warn("tour scenario unavailable, using derived route", zap.Error(err))
			scenario = nil
		}
	}

	if scenario != nil {
		plan.Name = scenario.Name
		plan.Stops = scenario.Stops
		if plan.Stops == nil {
			plan.Stops = []models.TourStop{}
		}
		if scenario.CameraPanDuration >= 1000 {
			plan.PanDuration = time.Duration(scenario.CameraPanDuration * float64(time.Millisecond))
		}
		return plan, nil
	}

	plan.Name = "default"
	plan.Stops = BuildRoute(rooms)
	return plan, nil
}
