package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"panorama-service/internal/config"
	_ "panorama-service/internal/docs"
	"panorama-service/internal/events"
	"panorama-service/internal/handlers"
	"panorama-service/internal/metrics"
	"panorama-service/internal/repository"
	"panorama-service/internal/services"
	"panorama-service/internal/services/cache"
	"panorama-service/internal/services/caches"
	"panorama-service/internal/storage"
	"panorama-service/internal/tiles"
	"panorama-service/internal/weather"
)

func runServe(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.Storage.Backend == "redis" || cfg.Redis.TileCache {
		var err error
		redisClient, err = storage.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return errors.Wrap(err, "redis connection failed")
		}
		defer redisClient.Close()
		logger.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))
	}

	store, err := openStore(cfg, redisClient, logger)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	tileSvc, err := newTileService(ctx, cfg, redisClient, m, logger)
	if err != nil {
		return err
	}

	hub := events.NewHub(cfg.Telemetry.ClientBuffer, logger).WithRecorder(m)
	uploads := services.NewUploads(cfg.Storage.UploadsDir, logger)
	configs := repository.NewProviderConfigRepository(store)
	minimap := services.NewMinimapService(repository.NewMinimapRepository(store), uploads, logger)
	rooms := services.NewRoomService(repository.NewRoomRepository(store), configs, minimap, tileSvc, uploads, hub, logger)
	tileSvc.WithRooms(rooms)
	sensors := services.NewSensorService(repository.NewSensorRepository(store), hub, logger)
	tourSvc := services.NewTourService(repository.NewScenarioRepository(store), rooms, logger)
	providers := weather.NewClient(10*time.Second, logger).WithRecorder(m)
	apiConfig := services.NewApiConfigService(configs, cfg.Weather, providers, logger)

	app := fiber.New(fiber.Config{
		AppName:   "panorama-service",
		BodyLimit: cfg.HTTP.BodyLimit,
	})
	handlers.Register(app, handlers.Deps{
		Rooms:      handlers.NewRoomHandler(rooms, logger),
		Media:      handlers.NewMediaHandler(services.NewMediaService(uploads, logger), logger),
		Minimap:    handlers.NewMinimapHandler(minimap, logger),
		Sensors:    handlers.NewSensorHandler(sensors, logger),
		Tour:       handlers.NewTourHandler(tourSvc, logger),
		ApiConfig:  handlers.NewApiConfigHandler(apiConfig, logger),
		Tiles:      handlers.NewTileHandler(tileSvc, logger),
		Events:     handlers.NewEventsHandler(hub, rooms, sensors, cfg.Telemetry.Heartbeat, logger),
		Metrics:    m,
		Gatherer:   reg,
		UploadsDir: cfg.Storage.UploadsDir,
		Logger:     logger,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.HTTP.Listen),
			zap.String("storage", cfg.Storage.Backend), zap.Bool("minio", cfg.Minio.Enabled))
		errCh <- app.Listen(cfg.HTTP.Listen)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	// Event streams never finish on their own.
	hub.Close()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
	return nil
}

func openStore(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) (repository.DocumentStore, error) {
	switch cfg.Storage.Backend {
	case "postgres":
		db, err := repository.OpenPostgres(cfg.DSN())
		if err != nil {
			return nil, errors.Wrap(err, "database connection failed")
		}
		store := repository.NewGormStore(db)
		if err := store.Migrate(); err != nil {
			return nil, errors.Wrap(err, "database migration failed")
		}
		logger.Info("using postgres document store", zap.String("host", cfg.DB.Host), zap.String("db", cfg.DB.Name))
		return store, nil
	case "redis":
		logger.Info("using redis document store")
		return repository.NewRedisStore(redisClient), nil
	default:
		store, err := repository.NewFileStore(cfg.Storage.DataDir)
		if err != nil {
			return nil, err
		}
		logger.Info("using file document store", zap.String("dir", cfg.Storage.DataDir))
		return store, nil
	}
}

// newTileService assembles the tile read path: memory, then redis when
// enabled, then the local tree, then object storage when enabled.
func newTileService(ctx context.Context, cfg *config.Config, redisClient *redis.Client, m *metrics.Metrics, logger *zap.Logger) (*services.TileService, error) {
	memory, err := caches.NewMemoryCache(cfg.Tiles.CacheEntries)
	if err != nil {
		return nil, err
	}
	fast := []cache.Layer{memory}
	if cfg.Redis.TileCache && redisClient != nil {
		fast = append(fast, caches.NewRedisCache(redisClient, cfg.Redis.TileTTL))
	}

	var mirror cache.Layer
	if cfg.Minio.Enabled {
		objects, err := storage.NewMinioStore(ctx, storage.MinioOptions{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			SSL:       cfg.Minio.SSL,
		}, logger)
		if err != nil {
			return nil, errors.Wrap(err, "MinIO client initialization failed")
		}
		mirror = caches.NewObjectCache(objects)
	}

	opts := tiles.Options{TileSize: cfg.Tiles.TileSize, Quality: cfg.Tiles.Quality, Workers: cfg.Tiles.Workers}
	gen := tiles.NewGenerator(tiles.NewStdCodec(), opts, logger).WithRecorder(m)
	return services.NewTileService(gen, cfg.Tiles.Levels, cfg.Storage.TilesDir, fast,
		caches.NewFileCache(cfg.Storage.TilesDir), mirror, logger).WithRecorder(m), nil
}
