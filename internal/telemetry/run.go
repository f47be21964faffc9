package telemetry

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"panorama-service/internal/events"
	"panorama-service/internal/models"
)

// Fetcher supplies provider readings for a room.
type Fetcher interface {
	Combined(ctx context.Context, roomID int64) (*models.CombinedData, error)
}

type Intervals struct {
	Simulation time.Duration
	Poll       time.Duration
}

func DefaultIntervals() Intervals {
	return Intervals{Simulation: 5 * time.Second, Poll: 10 * time.Second}
}

// Run applies incoming events, simulates CO2 and smoke drift and polls the
// fetcher until ctx is done. A closed event channel stops event handling
// but not the tickers.
func (o *Overlay) Run(ctx context.Context, in <-chan events.Event, fetcher Fetcher, rng *rand.Rand, iv Intervals) error {
	def := DefaultIntervals()
	if iv.Simulation <= 0 {
		iv.Simulation = def.Simulation
	}
	if iv.Poll <= 0 {
		iv.Poll = def.Poll
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	sim := time.NewTicker(iv.Simulation)
	defer sim.Stop()
	poll := time.NewTicker(iv.Poll)
	defer poll.Stop()

	o.poll(ctx, fetcher)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			if err := o.Apply(ev); err != nil {
				o.logger.Warn("ignoring malformed event", zap.String("event", ev.Name), zap.Error(err))
			}
		case <-sim.C:
			o.Simulate(rng)
		case <-poll.C:
			o.poll(ctx, fetcher)
		}
	}
}

func (o *Overlay) poll(ctx context.Context, fetcher Fetcher) {
	if fetcher == nil {
		return
	}
	o.mu.RLock()
	room, n := o.activeRoom, len(o.sensors)
	o.mu.RUnlock()
	if room == 0 || n == 0 {
		o.logger.Debug("no active room or sensors yet, skipping provider poll")
		return
	}

	data, err := fetcher.Combined(ctx, room)
	if err != nil {
		o.logger.Warn("provider poll failed", zap.Int64("room_id", room), zap.Error(err))
		return
	}
	updated := o.ApplyCombined(data)
	o.logger.Debug("provider readings applied",
		zap.Int64("room_id", room),
		zap.Int("sensors", updated),
		zap.String("aqi", data.AQI.Level))
}
