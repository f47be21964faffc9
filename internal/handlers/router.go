package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"panorama-service/internal/metrics"
)

// Deps is everything Register wires into the app. Metrics and Gatherer are
// optional.
type Deps struct {
	Rooms      *RoomHandler
	Media      *MediaHandler
	Minimap    *MinimapHandler
	Sensors    *SensorHandler
	Tour       *TourHandler
	ApiConfig  *ApiConfigHandler
	Tiles      *TileHandler
	Events     *EventsHandler
	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer
	UploadsDir string
	Logger     *zap.Logger
}

// Register mounts every route on app.
func Register(app *fiber.App, d Deps) {
	if d.Metrics != nil {
		app.Use(d.Metrics.Middleware())
	}
	if d.Gatherer != nil {
		app.Get("/metrics", metrics.Handler(d.Gatherer))
	}

	if d.UploadsDir != "" {
		app.Static("/uploads", d.UploadsDir)
	}
	app.Get("/tiles/:roomId/*", d.Tiles.GetTile)
	app.Get("/events", d.Events.Stream)

	api := app.Group("/api")
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	api.Get("/swagger/*", swagger.HandlerDefault)

	api.Get("/rooms", d.Rooms.ListRooms)
	api.Get("/rooms/:roomId/tiles/archive", d.Tiles.DownloadArchive)
	api.Get("/rooms/:roomId/api-config", d.ApiConfig.GetRoom)
	api.Post("/rooms/:roomId/api-config", d.ApiConfig.SaveRoom)
	api.Get("/minimap", d.Minimap.GetMinimap)
	api.Get("/tour-scenario", d.Tour.GetScenario)
	api.Get("/tour-plan", d.Tour.GetPlan)

	api.Get("/sensors", d.Sensors.ListSensors)
	api.Get("/sensors/:id", d.Sensors.GetSensor)
	api.Post("/sensors", d.Sensors.CreateSensor)
	api.Put("/sensors/:id", d.Sensors.UpdateSensor)
	api.Delete("/sensors/:id", d.Sensors.DeleteSensor)

	api.Get("/config/api", d.ApiConfig.GetGlobal)
	api.Post("/config/api", d.ApiConfig.SaveGlobal)
	api.Get("/real-data/combined", d.ApiConfig.Combined)
	api.Post("/real-data/combined/custom", d.ApiConfig.CombinedCustom)

	admin := api.Group("/admin")
	admin.Post("/upload-panorama", d.Rooms.UploadPanorama)
	admin.Delete("/rooms/:roomId", d.Rooms.DeleteRoom)

	admin.Get("/rooms/:roomId/hotspots", d.Rooms.ListHotspots)
	admin.Put("/rooms/:roomId/hotspots", d.Rooms.AddHotspot)
	admin.Patch("/rooms/:roomId/hotspots/:index", d.Rooms.UpdateHotspot)
	admin.Delete("/rooms/:roomId/hotspots/:index", d.Rooms.DeleteHotspot)

	admin.Post("/media/upload", d.Media.UploadMedia)
	admin.Get("/rooms/:roomId/media-hotspots", d.Rooms.ListMediaHotspots)
	admin.Post("/rooms/:roomId/media-hotspots", d.Rooms.AddMediaHotspot)
	admin.Patch("/rooms/:roomId/media-hotspots/:index", d.Rooms.UpdateMediaHotspot)
	admin.Delete("/rooms/:roomId/media-hotspots/:index", d.Rooms.DeleteMediaHotspot)

	admin.Post("/rooms/:roomId/mail-hotspots", d.Rooms.AddMailHotspot)
	admin.Delete("/rooms/:roomId/mail-hotspots/:index", d.Rooms.DeleteMailHotspot)

	admin.Post("/rooms/:roomId/tiles/archive", d.Tiles.ImportArchive)
	admin.Get("/tiles/cache", d.Tiles.CacheStats)
	admin.Delete("/tiles/cache", d.Tiles.ClearCache)

	admin.Get("/minimap", d.Minimap.AdminGetMinimap)
	admin.Post("/minimap/upload-image", d.Minimap.UploadImage)
	admin.Put("/minimap/floor/:floorId", d.Minimap.SaveFloor)
	admin.Patch("/minimap/floor/:floorId/name", d.Minimap.RenameFloor)
	admin.Delete("/minimap/floor/:floorId", d.Minimap.DeleteFloor)

	admin.Get("/tour-scenario", d.Tour.GetScenario)
	admin.Post("/tour-scenario", d.Tour.SaveScenario)
	admin.Delete("/tour-scenario", d.Tour.DeleteScenario)

	if d.Logger != nil {
		for _, r := range app.GetRoutes(true) {
			d.Logger.Debug("route registered", zap.String("method", r.Method), zap.String("path", r.Path))
		}
	}
}
