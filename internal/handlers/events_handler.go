package handlers

import (
	"bufio"
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"panorama-service/internal/events"
	"panorama-service/internal/services"
)

// EventsHandler pushes room and sensor collections over server-sent events.
type EventsHandler struct {
	Hub       *events.Hub
	rooms     *services.RoomService
	sensors   *services.SensorService
	heartbeat time.Duration
	logger    *zap.Logger
}

func NewEventsHandler(hub *events.Hub, rooms *services.RoomService, sensors *services.SensorService,
	heartbeat time.Duration, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{Hub: hub, rooms: rooms, sensors: sensors, heartbeat: heartbeat, logger: logger}
}

func (h *EventsHandler) snapshot(ctx context.Context) ([]events.Event, error) {
	rooms, err := h.rooms.List(ctx)
	if err != nil {
		return nil, err
	}
	sensors, err := h.sensors.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	roomsEv, err := events.NewEvent(events.Rooms, rooms)
	if err != nil {
		return nil, err
	}
	sensorsEv, err := events.NewEvent(events.Sensors, sensors)
	if err != nil {
		return nil, err
	}
	return []events.Event{roomsEv, sensorsEv}, nil
}

// Stream handles GET /events. The client first receives the current rooms
// and sensors, then every change published since it subscribed.
// @Summary Subscribe to room and sensor updates
// @Tags events
// @Produce text/event-stream
// @Success 200 {string} string "event stream"
// @Router /events [get]
func (h *EventsHandler) Stream(c *fiber.Ctx) error {
	sub := h.Hub.Subscribe()
	initial, err := h.snapshot(c.UserContext())
	if err != nil {
		h.Hub.Unsubscribe(sub)
		return respondError(c, h.logger, err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		err := h.Hub.Serve(context.Background(), w, sub, initial, h.heartbeat)
		switch {
		case errors.Is(err, events.ErrDropped):
			h.logger.Debug("event subscriber dropped")
		case err != nil:
			h.logger.Debug("event stream closed", zap.Error(err))
		}
	}))
	return nil
}
