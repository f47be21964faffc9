package tour

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panorama-service/internal/models"
)

func sampleRooms() []models.Room {
	h1 := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	h2 := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	h3 := uuid.MustParse("33333333-3333-3333-3333-333333333333")
	return []models.Room{
		{ID: 2, Name: "Hall", Hotspots: []models.NavigationHotspot{{ID: h3, Yaw: -45, Pitch: 5, Target: 1}}},
		{ID: 1, Name: "Lobby", Hotspots: []models.NavigationHotspot{
			{ID: h1, Yaw: 90, Pitch: 10, Target: 2},
			{ID: h2, Yaw: 180, Pitch: 0, Target: 99},
		}},
	}
}

func TestBuildRoute(t *testing.T) {
	route := BuildRoute(sampleRooms())
	require.Len(t, route, 4)

	assert.Equal(t, models.TourStop{Type: models.StopRoom, RoomID: 1}, route[0])
	assert.Equal(t, models.StopHotspot, route[1].Type)
	assert.Equal(t, int64(1), route[1].RoomID)
	assert.Equal(t, 0, route[1].HotspotIndex)
	require.NotNil(t, route[1].HotspotID)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", route[1].HotspotID.String())
	assert.Equal(t, models.TourStop{Type: models.StopRoom, RoomID: 2}, route[2])
	assert.Equal(t, int64(2), route[3].RoomID)
	assert.Equal(t, 0, route[3].HotspotIndex)
}

func TestBuildRouteIsDeterministic(t *testing.T) {
	rooms := sampleRooms()
	reversed := []models.Room{rooms[1], rooms[0]}
	assert.Equal(t, BuildRoute(rooms), BuildRoute(reversed))
	assert.Empty(t, BuildRoute(nil))
}

func TestResolveHotspotPrefersID(t *testing.T) {
	room := sampleRooms()[1]
	id := room.Hotspots[1].ID

	idx, ok := resolveHotspot(&room, models.TourStop{HotspotIndex: 0, HotspotID: &id})
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	idx, ok = resolveHotspot(&room, models.TourStop{HotspotIndex: 1})
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = resolveHotspot(&room, models.TourStop{HotspotIndex: 7})
	assert.False(t, ok)

	gone := uuid.New()
	idx, ok = resolveHotspot(&room, models.TourStop{HotspotIndex: 0, HotspotID: &gone})
	assert.True(t, ok, "unknown id falls back to the index")
	assert.Equal(t, 0, idx)

	_, ok = resolveHotspot(&room, models.TourStop{HotspotIndex: 7, HotspotID: &gone})
	assert.False(t, ok)
}

type stubRooms struct {
	rooms []models.Room
	err   error
}

func (s stubRooms) List(context.Context) ([]models.Room, error) { return s.rooms, s.err }

type stubScenario struct {
	scenario *models.TourScenario
	err      error
}

func (s stubScenario) Get(context.Context) (*models.TourScenario, error) { return s.scenario, s.err }

func TestPlannerUsesScenarioVerbatim(t *testing.T) {
	stops := []models.TourStop{{Type: models.StopRoom, RoomID: 2, Title: "Start here"}}
	p := NewPlanner(stubRooms{rooms: sampleRooms()}, stubScenario{scenario: &models.TourScenario{
		Name: "Open day", Stops: stops, CameraPanDuration: 3000,
	}}, nil)

	plan, err := p.Plan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Open day", plan.Name)
	assert.Equal(t, stops, plan.Stops)
	assert.Equal(t, 3*time.Second, plan.PanDuration)
	assert.Len(t, plan.Rooms, 2)
	assert.Equal(t, "Hall", plan.Rooms[2].Name)
}

func TestPlannerKeepsEmptyScenario(t *testing.T) {
	p := NewPlanner(stubRooms{rooms: sampleRooms()}, stubScenario{scenario: &models.TourScenario{
		Name: "empty", Stops: []models.TourStop{},
	}}, nil)

	plan, err := p.Plan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "empty", plan.Name)
	assert.Empty(t, plan.Stops)

	h := newHarness(t, plan)
	assert.ErrorIs(t, h.engine.Start(), ErrEmptyRoute)
	assert.Equal(t, StateIdle, h.engine.State())
}

func TestPlannerFallsBackToDerivedRoute(t *testing.T) {
	cases := map[string]stubScenario{
		"missing":    {},
		"unreadable": {err: errors.New("bad json")},
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			plan, err := NewPlanner(stubRooms{rooms: sampleRooms()}, src, nil).Plan(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "default", plan.Name)
			assert.Len(t, plan.Stops, 4)
			assert.Zero(t, plan.PanDuration)
		})
	}
}

func TestPlannerRoomError(t *testing.T) {
	_, err := NewPlanner(stubRooms{err: errors.New("disk gone")}, nil, nil).Plan(context.Background())
	assert.Error(t, err)
}

func TestEase(t *testing.T) {
	assert.Equal(t, 0.0, Ease(0))
	assert.Equal(t, 0.125, Ease(0.25))
	assert.Equal(t, 0.5, Ease(0.5))
	assert.InDelta(t, 0.875, Ease(0.75), 1e-12)
	assert.Equal(t, 1.0, Ease(1))
	prev := 0.0
	for i := 1; i <= 100; i++ {
		v := Ease(float64(i) / 100)
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
}
