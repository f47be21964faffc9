package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"panorama-service/internal/events"
	"panorama-service/internal/metrics"
	"panorama-service/internal/models"
	"panorama-service/internal/repository"
	"panorama-service/internal/services"
	"panorama-service/internal/services/cache"
	"panorama-service/internal/services/caches"
	"panorama-service/internal/tiles"
)

type stubFetcher struct{}

func (stubFetcher) Combined(_ context.Context, cfg models.ProviderConfig) *models.CombinedData {
	return &models.CombinedData{Temperature: 28, Humidity: 75, PM25: 20, Location: cfg.WeatherAPI.Provider}
}

type fixture struct {
	app      *fiber.App
	hub      *events.Hub
	store    *repository.FileStore
	tileRoot string
	reg      *prometheus.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	store, err := repository.NewFileStore(t.TempDir())
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	hub := events.NewHub(16, logger).WithRecorder(m)
	uploads := services.NewUploads(t.TempDir(), logger)

	tileRoot := t.TempDir()
	memory, err := caches.NewMemoryCache(64)
	require.NoError(t, err)
	gen := tiles.NewGenerator(tiles.NewStdCodec(), tiles.DefaultOptions(), logger).WithRecorder(m)
	tileSvc := services.NewTileService(gen, []int{512}, tileRoot, []cache.Layer{memory},
		caches.NewFileCache(tileRoot), nil, logger).WithRecorder(m)

	configs := repository.NewProviderConfigRepository(store)
	minimap := services.NewMinimapService(repository.NewMinimapRepository(store), uploads, logger)
	rooms := services.NewRoomService(repository.NewRoomRepository(store), configs, minimap, tileSvc, uploads, hub, logger)
	tileSvc.WithRooms(rooms)
	sensors := services.NewSensorService(repository.NewSensorRepository(store), hub, logger)
	tourSvc := services.NewTourService(repository.NewScenarioRepository(store), rooms, logger)
	defaults := models.ProviderConfig{WeatherAPI: models.WeatherAPI{Provider: "openweathermap"}}
	apiConfig := services.NewApiConfigService(configs, defaults, stubFetcher{}, logger)

	app := fiber.New()
	Register(app, Deps{
		Rooms:     NewRoomHandler(rooms, logger),
		Media:     NewMediaHandler(services.NewMediaService(uploads, logger), logger),
		Minimap:   NewMinimapHandler(minimap, logger),
		Sensors:   NewSensorHandler(sensors, logger),
		Tour:      NewTourHandler(tourSvc, logger),
		ApiConfig: NewApiConfigHandler(apiConfig, logger),
		Tiles:     NewTileHandler(tileSvc, logger),
		Events:    NewEventsHandler(hub, rooms, sensors, time.Minute, logger),
		Metrics:   m,
		Gatherer:  reg,
		Logger:    logger,
	})
	return &fixture{app: app, hub: hub, store: store, tileRoot: tileRoot, reg: reg}
}

func (f *fixture) seedRooms(t *testing.T, rooms ...models.Room) {
	t.Helper()
	require.NoError(t, repository.NewRoomRepository(f.store).Save(context.Background(), rooms))
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return f.send(t, req)
}

func (f *fixture) send(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := f.app.Test(req, 10_000)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

// multipartRequest builds a form with one file part and extra fields.
func multipartRequest(t *testing.T, path, field, filename, contentType string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if field != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func panoramaPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 8), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
