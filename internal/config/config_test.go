package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.HTTP.Listen)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, []int{512, 1024, 2048, 4096}, cfg.Tiles.Levels)
	assert.Equal(t, 512, cfg.Tiles.TileSize)
	assert.Equal(t, 80, cfg.Tiles.Quality)
	assert.Equal(t, 8*time.Second, cfg.Tour.PanDuration)
	assert.Equal(t, 5*time.Second, cfg.Tour.StopDuration)
	assert.Equal(t, "openweathermap", cfg.Weather.WeatherAPI.Provider)
	assert.InDelta(t, 10.7769, cfg.Weather.WeatherAPI.Params.Lat, 1e-9)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("PANORAMA_HTTP_LISTEN", ":9090")
	t.Setenv("PANORAMA_TOUR_PAN_DURATION", "3s")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Listen)
	assert.Equal(t, 3*time.Second, cfg.Tour.PanDuration)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"storage": {"data_dir": "/srv/data"}, "tiles": {"workers": 4}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/data", cfg.Storage.DataDir)
	assert.Equal(t, 4, cfg.Tiles.Workers)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	cfg.Storage.Backend = "postgres"
	assert.EqualError(t, cfg.Validate(), "database configuration is incomplete")

	cfg.DB.Host, cfg.DB.User, cfg.DB.Name = "db", "tour", "tour"
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "host=db port=5432 user=tour password= dbname=tour sslmode=disable", cfg.DSN())

	cfg.Storage.Backend = "mongo"
	assert.Error(t, cfg.Validate())

	cfg.Storage.Backend = "file"
	cfg.Minio.Enabled = true
	assert.EqualError(t, cfg.Validate(), "minio configuration is incomplete")

	cfg.Minio.Enabled = false
	cfg.Tiles.Levels = []int{512, 0}
	assert.Error(t, cfg.Validate())
}
