package models

import "time"

// SensorType discriminates sensor payloads.
type SensorType string

const (
	SensorEnvironment SensorType = "environment"
	SensorCamera      SensorType = "camera"
)

// CameraStatus is the operational state of a camera feed.
type CameraStatus string

const (
	CameraOnline      CameraStatus = "online"
	CameraOffline     CameraStatus = "offline"
	CameraMaintenance CameraStatus = "maintenance"
)

const (
	EnvironmentColor = "#4CAF50"
	CameraColor      = "#2196F3"
)

// Position is an orientation inside a panorama, in degrees.
type Position struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
}

// Reading is a single measured value with its range or status.
type Reading struct {
	Value  float64  `json:"value"`
	Unit   string   `json:"unit"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Status string   `json:"status,omitempty"`
}

// EnvironmentReadings is the payload of an environment sensor.
type EnvironmentReadings struct {
	Temperature *Reading `json:"temperature,omitempty"`
	Humidity    *Reading `json:"humidity,omitempty"`
	Smoke       *Reading `json:"smoke,omitempty"`
	CO2         *Reading `json:"co2,omitempty"`
	PM25        *Reading `json:"pm25,omitempty"`
}

// CameraFeed is the payload of a camera sensor.
type CameraFeed struct {
	StreamURL   string       `json:"streamUrl"`
	SnapshotURL string       `json:"snapshotUrl"`
	Resolution  string       `json:"resolution"`
	Status      CameraStatus `json:"status"`
	Notes       string       `json:"notes"`
}

// SensorRecord is a sensor placed in a room.
type SensorRecord struct {
	ID         int64                `json:"id"`
	Name       string               `json:"name"`
	RoomID     int64                `json:"roomId"`
	Type       SensorType           `json:"type"`
	Position   Position             `json:"position"`
	Color      string               `json:"color,omitempty"`
	LastUpdate time.Time            `json:"lastUpdate"`
	Sensors    *EnvironmentReadings `json:"sensors,omitempty"`
	Camera     *CameraFeed          `json:"camera,omitempty"`
}

func bound(v float64) *float64 { return &v }

// DefaultEnvironmentReadings is the payload given to new environment sensors.
func DefaultEnvironmentReadings() *EnvironmentReadings {
	return &EnvironmentReadings{
		Temperature: &Reading{Unit: "°C", Min: bound(0), Max: bound(50)},
		Humidity:    &Reading{Unit: "%", Min: bound(0), Max: bound(100)},
		Smoke:       &Reading{Unit: "ppm", Status: "normal"},
		CO2:         &Reading{Unit: "ppm", Min: bound(0), Max: bound(2000)},
		PM25:        &Reading{Unit: "µg/m³", Min: bound(0), Max: bound(500)},
	}
}

// DefaultCameraFeed is the payload given to new camera sensors.
func DefaultCameraFeed() *CameraFeed {
	return &CameraFeed{Resolution: "1920x1080", Status: CameraOnline}
}
