package weather

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"panorama-service/internal/models"
)

const defaultDescription = "partly cloudy"

// Recorder counts provider calls by outcome.
type Recorder interface {
	ProviderFetch(provider, outcome string)
}

type owmResponse struct {
	Main *struct {
		Temp     *float64 `json:"temp"`
		Humidity float64  `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

type waqiResponse struct {
	Status string `json:"status"`
	Data   struct {
		AQI  any `json:"aqi"`
		IAQI struct {
			PM25 *struct {
				V any `json:"v"`
			} `json:"pm25"`
		} `json:"iaqi"`
	} `json:"data"`
}

// Client merges weather and air quality readings. Any provider failure is
// replaced by a plausible simulated value so callers always get data.
type Client struct {
	http     *resty.Client
	logger   *zap.Logger
	recorder Recorder

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

func NewClient(timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	http := resty.New().
		SetTimeout(timeout).
		SetRetryCount(1).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Accept", "application/json")
	return &Client{
		http:   http,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
	}
}

func (c *Client) WithRecorder(r Recorder) *Client {
	c.recorder = r
	return c
}

func (c *Client) random() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Float64()
}

func (c *Client) record(provider, outcome string) {
	if c.recorder != nil {
		c.recorder.ProviderFetch(provider, outcome)
	}
}

// Combined queries both providers described by cfg.
func (c *Client) Combined(ctx context.Context, cfg models.ProviderConfig) *models.CombinedData {
	data := &models.CombinedData{
		Temperature: 26 + c.random()*5,
		Humidity:    70 + c.random()*10,
		Weather:     defaultDescription,
		Location:    fmt.Sprintf("Lat: %v, Lon: %v", cfg.WeatherAPI.Params.Lat, cfg.WeatherAPI.Params.Lon),
		Timestamp:   c.now().UTC(),
	}

	if err := c.fetchWeather(ctx, cfg.WeatherAPI, data); err != nil {
		c.logger.Warn("weather provider unavailable, using simulated values",
			zap.String("provider", cfg.WeatherAPI.Provider), zap.Error(err))
		c.record("weather", "fallback")
	} else {
		c.record("weather", "ok")
	}

	pm25, err := c.fetchPM25(ctx, cfg.AirQualityAPI)
	if err != nil {
		pm25 = 25 + c.random()*20
		c.logger.Warn("air quality provider unavailable, using simulated values",
			zap.String("provider", cfg.AirQualityAPI.Provider), zap.Error(err))
		c.record("air_quality", "fallback")
	} else {
		c.record("air_quality", "ok")
	}
	data.PM25 = math.Round(pm25*10) / 10
	data.AQI = ClassifyPM25(pm25)
	return data
}

// ValidCoordinates reports whether lat/lon are finite and on the globe.
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func (c *Client) fetchWeather(ctx context.Context, api models.WeatherAPI, data *models.CombinedData) error {
	lat, lon := api.Params.Lat, api.Params.Lon
	if !ValidCoordinates(lat, lon) {
		return fmt.Errorf("invalid coordinates (lat=%v, lon=%v)", lat, lon)
	}
	if api.URL == "" {
		return errors.New("weather url not configured")
	}

	var body owmResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lat":   strconv.FormatFloat(lat, 'f', -1, 64),
			"lon":   strconv.FormatFloat(lon, 'f', -1, 64),
			"appid": api.APIKey,
			"units": api.Params.Units,
		}).
		SetResult(&body).
		Get(api.URL)
	if err != nil {
		return errors.Wrap(err, "weather request failed")
	}
	if resp.IsError() {
		return fmt.Errorf("weather provider returned status %d", resp.StatusCode())
	}
	if body.Main == nil || body.Main.Temp == nil {
		return errors.New("weather response has no temperature")
	}

	data.Temperature = math.Round(*body.Main.Temp*10) / 10
	data.Humidity = math.Round(body.Main.Humidity)
	if len(body.Weather) > 0 && body.Weather[0].Description != "" {
		data.Weather = body.Weather[0].Description
	}
	return nil
}

func (c *Client) fetchPM25(ctx context.Context, api models.AirQualityAPI) (float64, error) {
	if api.URL == "" {
		return 0, errors.New("air quality url not configured")
	}
	var body waqiResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("token", api.Token).
		SetResult(&body).
		Get(api.URL)
	if err != nil {
		return 0, errors.Wrap(err, "air quality request failed")
	}
	if resp.IsError() {
		return 0, fmt.Errorf("air quality provider returned status %d", resp.StatusCode())
	}
	if body.Status != "ok" {
		return 0, fmt.Errorf("air quality provider status %q", body.Status)
	}
	// WAQI reports "-" instead of a number when a station has no data.
	if body.Data.IAQI.PM25 != nil {
		if v, ok := body.Data.IAQI.PM25.V.(float64); ok && v != 0 {
			return v, nil
		}
	}
	if v, ok := body.Data.AQI.(float64); ok && v > 0 {
		return v, nil
	}
	return 0, errors.New("air quality response has no pm2.5 reading")
}
