package telemetry

import (
	"encoding/json"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"panorama-service/internal/events"
	"panorama-service/internal/models"
)

// Overlay is the client-side cache of rooms and sensors that the viewer
// renders. Server events replace whole collections; local simulation and
// provider data adjust individual readings in between.
type Overlay struct {
	mu         sync.RWMutex
	rooms      map[int64]models.Room
	roomOrder  []int64
	sensors    []models.SensorRecord
	activeRoom int64
	now        func() time.Time
	logger     *zap.Logger
}

func NewOverlay(logger *zap.Logger) *Overlay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Overlay{rooms: make(map[int64]models.Room), now: time.Now, logger: logger}
}

// Apply replaces the collection named by ev. Empty payloads and unknown event
// names are ignored.
func (o *Overlay) Apply(ev events.Event) error {
	switch ev.Name {
	case events.Rooms:
		var rooms []models.Room
		if err := decodePayload(ev.Data, &rooms); err != nil {
			return errors.Wrap(err, "invalid rooms event")
		}
		if len(rooms) == 0 {
			return nil
		}
		o.mu.Lock()
		o.rooms = make(map[int64]models.Room, len(rooms))
		o.roomOrder = o.roomOrder[:0]
		for _, r := range rooms {
			o.rooms[r.ID] = r
			o.roomOrder = append(o.roomOrder, r.ID)
		}
		if _, ok := o.rooms[o.activeRoom]; !ok {
			o.activeRoom = rooms[0].ID
		}
		o.mu.Unlock()
		o.logger.Debug("rooms replaced", zap.Int("count", len(rooms)))

	case events.Sensors:
		var sensors []models.SensorRecord
		if err := decodePayload(ev.Data, &sensors); err != nil {
			return errors.Wrap(err, "invalid sensors event")
		}
		if len(sensors) == 0 {
			return nil
		}
		o.mu.Lock()
		o.sensors = sensors
		o.mu.Unlock()
		o.logger.Debug("sensors replaced", zap.Int("count", len(sensors)))
	}
	return nil
}

func decodePayload(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (o *Overlay) SetActiveRoom(id int64) {
	o.mu.Lock()
	o.activeRoom = id
	o.mu.Unlock()
}

func (o *Overlay) ActiveRoom() int64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.activeRoom
}

// Rooms returns the cached rooms in the order the server sent them.
func (o *Overlay) Rooms() []models.Room {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]models.Room, 0, len(o.roomOrder))
	for _, id := range o.roomOrder {
		out = append(out, o.rooms[id])
	}
	return out
}

func (o *Overlay) Room(id int64) (models.Room, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	r, ok := o.rooms[id]
	return r, ok
}

// Sensors returns a deep copy of the cached sensors.
func (o *Overlay) Sensors() []models.SensorRecord {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]models.SensorRecord, len(o.sensors))
	for i, s := range o.sensors {
		out[i] = cloneSensor(s)
	}
	return out
}

func cloneSensor(s models.SensorRecord) models.SensorRecord {
	if s.Sensors != nil {
		r := *s.Sensors
		r.Temperature = cloneReading(r.Temperature)
		r.Humidity = cloneReading(r.Humidity)
		r.Smoke = cloneReading(r.Smoke)
		r.CO2 = cloneReading(r.CO2)
		r.PM25 = cloneReading(r.PM25)
		s.Sensors = &r
	}
	if s.Camera != nil {
		c := *s.Camera
		s.Camera = &c
	}
	return s
}

func cloneReading(r *models.Reading) *models.Reading {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// Simulate nudges CO2 by up to ±20 ppm within [300, 2500] and smoke by up
// to ±1, never below zero.
func (o *Overlay) Simulate(rng *rand.Rand) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.sensors {
		r := o.sensors[i].Sensors
		if r == nil {
			continue
		}
		if r.CO2 != nil {
			v := math.Round(r.CO2.Value + (rng.Float64()-0.5)*40)
			r.CO2.Value = math.Max(300, math.Min(2500, v))
		}
		if r.Smoke != nil {
			r.Smoke.Value = math.Max(0, math.Round(r.Smoke.Value+(rng.Float64()-0.5)*2))
		}
	}
}

// ApplyCombined copies provider readings onto the environment sensors of the
// active room. Each successive sensor is offset by a further 0.5 so they stay
// distinguishable.
func (o *Overlay) ApplyCombined(data *models.CombinedData) int {
	if data == nil {
		return 0
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.activeRoom == 0 {
		return 0
	}

	updated := 0
	index := 0
	for i := range o.sensors {
		s := &o.sensors[i]
		if s.RoomID != o.activeRoom || s.Type == models.SensorCamera {
			continue
		}
		variation := float64(index) * 0.5
		index++
		if s.Sensors == nil {
			continue
		}
		if s.Sensors.Temperature != nil {
			s.Sensors.Temperature.Value = roundTenth(data.Temperature + variation)
		}
		if s.Sensors.Humidity != nil {
			s.Sensors.Humidity.Value = math.Round(data.Humidity + variation)
		}
		if s.Sensors.PM25 != nil {
			s.Sensors.PM25.Value = roundTenth(data.PM25 + variation)
		}
		s.LastUpdate = o.now()
		updated++
	}
	return updated
}

func roundTenth(v float64) float64 { return math.Round(v*10) / 10 }
