package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"panorama-service/internal/models"
)

// Config holds all configuration values. Values come from defaults, an
// optional config file and PANORAMA_* environment variables, in that order.
type Config struct {
	HTTP struct {
		Listen    string `mapstructure:"listen"`
		BodyLimit int    `mapstructure:"body_limit"`
	} `mapstructure:"http"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	Storage struct {
		Backend    string `mapstructure:"backend"` // file, postgres or redis
		DataDir    string `mapstructure:"data_dir"`
		UploadsDir string `mapstructure:"uploads_dir"`
		TilesDir   string `mapstructure:"tiles_dir"`
	} `mapstructure:"storage"`

	DB struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"db"`

	Redis struct {
		Addr      string        `mapstructure:"addr"`
		Password  string        `mapstructure:"password"`
		DB        int           `mapstructure:"db"`
		TileCache bool          `mapstructure:"tile_cache"`
		TileTTL   time.Duration `mapstructure:"tile_ttl"`
	} `mapstructure:"redis"`

	Minio struct {
		Enabled   bool   `mapstructure:"enabled"`
		Endpoint  string `mapstructure:"endpoint"`
		AccessKey string `mapstructure:"access_key"`
		SecretKey string `mapstructure:"secret_key"`
		Bucket    string `mapstructure:"bucket"`
		SSL       bool   `mapstructure:"ssl"`
	} `mapstructure:"minio"`

	Tiles struct {
		Levels        []int `mapstructure:"levels"`
		TileSize      int   `mapstructure:"tile_size"`
		Quality       int   `mapstructure:"quality"`
		Workers       int   `mapstructure:"workers"`
		CacheEntries  int   `mapstructure:"cache_entries"`
		MaxUploadSize int64 `mapstructure:"max_upload_size"`
	} `mapstructure:"tiles"`

	Tour struct {
		PanDuration  time.Duration `mapstructure:"pan_duration"`
		StopDuration time.Duration `mapstructure:"stop_duration"`
	} `mapstructure:"tour"`

	Telemetry struct {
		SimulationInterval time.Duration `mapstructure:"simulation_interval"`
		PollInterval       time.Duration `mapstructure:"poll_interval"`
		Heartbeat          time.Duration `mapstructure:"heartbeat"`
		ClientBuffer       int           `mapstructure:"client_buffer"`
	} `mapstructure:"telemetry"`

	Weather models.ProviderConfig `mapstructure:"weather"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.listen", ":3000")
	v.SetDefault("http.body_limit", 100<<20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.data_dir", "data")
	v.SetDefault("storage.uploads_dir", "uploads")
	v.SetDefault("storage.tiles_dir", "backend/tiles")

	v.SetDefault("db.port", "5432")
	v.SetDefault("db.sslmode", "disable")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.tile_ttl", time.Hour)

	v.SetDefault("minio.bucket", "panorama-tiles")

	v.SetDefault("tiles.levels", []int{512, 1024, 2048, 4096})
	v.SetDefault("tiles.tile_size", 512)
	v.SetDefault("tiles.quality", 80)
	v.SetDefault("tiles.workers", 1)
	v.SetDefault("tiles.cache_entries", 2048)
	v.SetDefault("tiles.max_upload_size", 50<<20)

	v.SetDefault("tour.pan_duration", 8*time.Second)
	v.SetDefault("tour.stop_duration", 5*time.Second)

	v.SetDefault("telemetry.simulation_interval", 5*time.Second)
	v.SetDefault("telemetry.poll_interval", 10*time.Second)
	v.SetDefault("telemetry.heartbeat", 15*time.Second)
	v.SetDefault("telemetry.client_buffer", 16)

	v.SetDefault("weather.weather_api.provider", "openweathermap")
	v.SetDefault("weather.weather_api.url", "https://api.openweathermap.org/data/2.5/weather")
	v.SetDefault("weather.weather_api.params.lat", 10.7769)
	v.SetDefault("weather.weather_api.params.lon", 106.7009)
	v.SetDefault("weather.weather_api.params.units", "metric")
	v.SetDefault("weather.air_quality_api.provider", "waqi")
	v.SetDefault("weather.air_quality_api.url", "https://api.waqi.info/feed/@13659/")
	v.SetDefault("weather.refresh_interval", 10000)
	v.SetDefault("weather.auto_refresh", true)
}

// LoadConfig reads configuration. path may be empty, in which case only
// defaults and environment variables apply.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PANORAMA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that the service cannot start without.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "file":
	case "postgres":
		if c.DB.Host == "" || c.DB.User == "" || c.DB.Name == "" {
			return fmt.Errorf("database configuration is incomplete")
		}
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis configuration is incomplete")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Minio.Enabled {
		if c.Minio.Endpoint == "" || c.Minio.AccessKey == "" || c.Minio.SecretKey == "" || c.Minio.Bucket == "" {
			return fmt.Errorf("minio configuration is incomplete")
		}
	}
	if len(c.Tiles.Levels) == 0 {
		return fmt.Errorf("tiles.levels must not be empty")
	}
	for _, l := range c.Tiles.Levels {
		if l <= 0 {
			return fmt.Errorf("invalid tile level %d", l)
		}
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode)
}
