package models

import "time"

// ProviderConfig selects the weather and air quality sources for a room or
// for the whole site.
type ProviderConfig struct {
	WeatherAPI      WeatherAPI    `json:"weatherApi" mapstructure:"weather_api"`
	AirQualityAPI   AirQualityAPI `json:"airQualityApi" mapstructure:"air_quality_api"`
	RefreshInterval int           `json:"refreshInterval" mapstructure:"refresh_interval"`
	AutoRefresh     bool          `json:"autoRefresh" mapstructure:"auto_refresh"`
}

type WeatherAPI struct {
	Provider string        `json:"provider" mapstructure:"provider"`
	URL      string        `json:"url" mapstructure:"url"`
	APIKey   string        `json:"apiKey" mapstructure:"api_key"`
	Params   WeatherParams `json:"params" mapstructure:"params"`
}

type WeatherParams struct {
	Lat   float64 `json:"lat" mapstructure:"lat"`
	Lon   float64 `json:"lon" mapstructure:"lon"`
	Units string  `json:"units" mapstructure:"units"`
}

type AirQualityAPI struct {
	Provider string `json:"provider" mapstructure:"provider"`
	URL      string `json:"url" mapstructure:"url"`
	Token    string `json:"token" mapstructure:"token"`
}

// AQI is an air quality band.
type AQI struct {
	Level string `json:"level"`
	Color string `json:"color"`
}

// CombinedData is one merged weather and air quality observation.
type CombinedData struct {
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	PM25        float64   `json:"pm25"`
	Location    string    `json:"location"`
	Timestamp   time.Time `json:"timestamp"`
	AQI         AQI       `json:"aqi"`
	Weather     string    `json:"weather"`
}
