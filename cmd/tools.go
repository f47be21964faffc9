package main

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"panorama-service/internal/config"
	"panorama-service/internal/events"
	"panorama-service/internal/telemetry"
	"panorama-service/internal/tiles"
	"panorama-service/internal/tour"
)

type setup func() (*config.Config, *zap.Logger)

func tilesCommand(get setup) *cobra.Command {
	var archive string
	cmd := &cobra.Command{
		Use:   "tiles <input> <output>",
		Short: "Generate a cube tile pyramid from an equirectangular panorama",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := get()
			opts := tiles.Options{TileSize: cfg.Tiles.TileSize, Quality: cfg.Tiles.Quality, Workers: cfg.Tiles.Workers}
			desc, err := tiles.NewGenerator(tiles.NewStdCodec(), opts, logger).
				Generate(cmd.Context(), args[0], args[1], cfg.Tiles.Levels)
			if err != nil {
				return err
			}
			if archive != "" {
				f, err := os.Create(archive)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := tiles.ExportArchive(cmd.Context(), args[1], f); err != nil {
					return err
				}
				logger.Info("wrote tile archive", zap.String("path", archive))
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(desc)
		},
	}
	cmd.Flags().StringVar(&archive, "archive", "", "Also write the pyramid to this zip file")
	return cmd
}

// watchCommand keeps a live telemetry overlay in sync with a server and logs
// the sensors of the active room.
func watchCommand(get setup) *cobra.Command {
	var roomID int64
	cmd := &cobra.Command{
		Use:   "watch <baseURL>",
		Short: "Follow live sensor telemetry of a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := get()
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client := telemetry.NewClient(args[0], 10*time.Second, logger)
			overlay := telemetry.NewOverlay(logger)
			overlay.SetActiveRoom(roomID)

			in := make(chan events.Event, cfg.Telemetry.ClientBuffer)
			go subscribeLoop(ctx, client, in, logger)
			go reportSensors(ctx, overlay, cfg.Telemetry.SimulationInterval, logger)

			err := overlay.Run(ctx, in, client, nil, telemetry.Intervals{
				Simulation: cfg.Telemetry.SimulationInterval,
				Poll:       cfg.Telemetry.PollInterval,
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().Int64Var(&roomID, "room", 0, "Active room ID")
	return cmd
}

func subscribeLoop(ctx context.Context, client *telemetry.Client, out chan<- events.Event, logger *zap.Logger) {
	backoff := time.Second
	for {
		err := client.Subscribe(ctx, out)
		if ctx.Err() != nil {
			return
		}
		logger.Warn("event stream ended, reconnecting", zap.Duration("backoff", backoff), zap.Error(err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, 30*time.Second)
	}
}

func reportSensors(ctx context.Context, overlay *telemetry.Overlay, every time.Duration, logger *zap.Logger) {
	if every <= 0 {
		every = 5 * time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		active := overlay.ActiveRoom()
		for _, s := range overlay.Sensors() {
			if s.RoomID != active || s.Sensors == nil {
				continue
			}
			fields := []zap.Field{
				zap.Int64("sensor_id", s.ID),
				zap.String("name", s.Name),
				zap.String("status", string(telemetry.Classify(s.Sensors))),
			}
			if r := s.Sensors.Temperature; r != nil {
				fields = append(fields, zap.Float64("temperature", r.Value))
			}
			if r := s.Sensors.CO2; r != nil {
				fields = append(fields, zap.Float64("co2", r.Value))
			}
			if r := s.Sensors.PM25; r != nil {
				fields = append(fields, zap.Float64("pm25", r.Value))
			}
			logger.Info("sensor", fields...)
		}
	}
}

// headlessCamera stands in for a viewer when a tour is played from the
// command line.
type headlessCamera struct {
	mu    sync.Mutex
	view  tour.View
	room  int64
	rooms map[int64]bool
}

func (c *headlessCamera) Yaw() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.Yaw
}

func (c *headlessCamera) Pitch() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.Pitch
}

func (c *headlessCamera) Fov() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.Fov
}

func (c *headlessCamera) SetYaw(v float64) {
	c.mu.Lock()
	c.view.Yaw = v
	c.mu.Unlock()
}

func (c *headlessCamera) SetPitch(v float64) {
	c.mu.Lock()
	c.view.Pitch = v
	c.mu.Unlock()
}

func (c *headlessCamera) CurrentRoom() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *headlessCamera) SwitchToRoom(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.rooms[id] {
		return errors.Errorf("room %d not found", id)
	}
	c.room = id
	return nil
}

type logListener struct {
	tour.NopListener
	logger *zap.Logger
	done   chan struct{}
	once   sync.Once
	played bool
}

func (l *logListener) StateChanged(s tour.State, index, total int) {
	l.logger.Info("tour state", zap.Stringer("state", s), zap.Int("stop", index+1), zap.Int("stops", total))
	if s == tour.StatePlaying {
		l.played = true
	}
	if s == tour.StateIdle && l.played {
		l.once.Do(func() { close(l.done) })
	}
}

func (l *logListener) ShowInfo(title, description string) {
	l.logger.Info("tour stop", zap.String("title", title), zap.String("description", description))
}

func (l *logListener) Highlight(roomID int64, hotspotID uuid.UUID, index int) {
	l.logger.Info("tour hotspot", zap.Int64("room_id", roomID), zap.Stringer("hotspot_id", hotspotID), zap.Int("index", index))
}

// tourCommand plays a server's tour against a headless camera.
func tourCommand(get setup) *cobra.Command {
	return &cobra.Command{
		Use:   "tour <baseURL>",
		Short: "Play the auto-tour of a server and log each stop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := get()
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client := telemetry.NewClient(args[0], 10*time.Second, logger)
			plan, err := tour.NewPlanner(client, client, logger).Plan(ctx)
			if err != nil {
				return err
			}
			camera := &headlessCamera{rooms: make(map[int64]bool, len(plan.Rooms)), view: tour.View{Fov: math.Pi / 2}}
			for id := range plan.Rooms {
				camera.rooms[id] = true
			}

			tc := tour.DefaultConfig()
			if cfg.Tour.PanDuration > 0 {
				tc.PanDuration = cfg.Tour.PanDuration
			}
			if cfg.Tour.StopDuration > 0 {
				tc.StopDuration = cfg.Tour.StopDuration
			}
			listener := &logListener{logger: logger, done: make(chan struct{})}
			engine := tour.NewEngine(tc, tour.RealClock(), camera, listener, logger)
			if err := engine.Load(plan); err != nil {
				return err
			}
			if err := engine.Start(); err != nil {
				return err
			}

			select {
			case <-listener.done:
			case <-ctx.Done():
				engine.Stop()
			}
			return nil
		},
	}
}
