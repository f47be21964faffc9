package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"panorama-service/internal/events"
	"panorama-service/internal/models"
)

// Client talks to a panorama server on behalf of a viewer.
type Client struct {
	api    *resty.Client
	stream *resty.Client
	logger *zap.Logger
}

type combinedResponse struct {
	Success bool                 `json:"success"`
	Data    *models.CombinedData `json:"data"`
	Error   string               `json:"error"`
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	api := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Accept", "application/json")
	// The event stream stays open indefinitely, so no timeout or retries.
	stream := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "text/event-stream").
		SetHeader("Cache-Control", "no-cache")
	return &Client{api: api, stream: stream, logger: logger}
}

// Combined fetches the merged weather and air quality reading for a room.
func (c *Client) Combined(ctx context.Context, roomID int64) (*models.CombinedData, error) {
	var body combinedResponse
	resp, err := c.api.R().
		SetContext(ctx).
		SetQueryParam("roomId", strconv.FormatInt(roomID, 10)).
		SetResult(&body).
		SetError(&body).
		Get("/api/real-data/combined")
	if err != nil {
		return nil, errors.Wrap(err, "combined data request failed")
	}
	if resp.IsError() || !body.Success || body.Data == nil {
		return nil, fmt.Errorf("combined data unavailable (status %d): %s", resp.StatusCode(), body.Error)
	}
	return body.Data, nil
}

type scenarioResponse struct {
	Success  bool                 `json:"success"`
	Scenario *models.TourScenario `json:"scenario"`
}

// Rooms fetches the room list.
func (c *Client) Rooms(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	resp, err := c.api.R().SetContext(ctx).SetResult(&rooms).Get("/api/rooms")
	if err != nil {
		return nil, errors.Wrap(err, "rooms request failed")
	}
	if resp.IsError() {
		return nil, fmt.Errorf("rooms unavailable (status %d)", resp.StatusCode())
	}
	return rooms, nil
}

// List lets the client act as the room source of a tour planner.
func (c *Client) List(ctx context.Context) ([]models.Room, error) {
	return c.Rooms(ctx)
}

// Get returns the saved tour scenario, or nil when the server has none.
func (c *Client) Get(ctx context.Context) (*models.TourScenario, error) {
	var body scenarioResponse
	resp, err := c.api.R().SetContext(ctx).SetResult(&body).Get("/api/tour-scenario")
	if err != nil {
		return nil, errors.Wrap(err, "tour scenario request failed")
	}
	if resp.IsError() {
		return nil, fmt.Errorf("tour scenario unavailable (status %d)", resp.StatusCode())
	}
	if !body.Success {
		return nil, nil
	}
	return body.Scenario, nil
}

// Subscribe opens the server's event stream and forwards events to out
// until the stream ends or ctx is cancelled.
func (c *Client) Subscribe(ctx context.Context, out chan<- events.Event) error {
	resp, err := c.stream.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get("/events")
	if err != nil {
		return errors.Wrap(err, "failed to open event stream")
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("event stream rejected with status %d", resp.StatusCode())
	}
	c.logger.Info("event stream connected")
	return ReadStream(ctx, body, out)
}
