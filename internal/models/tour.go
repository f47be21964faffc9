package models

import "github.com/google/uuid"

// StopType discriminates TourStop variants.
type StopType string

const (
	StopRoom    StopType = "room"
	StopHotspot StopType = "hotspot"
)

// TourStop is one waypoint of an auto tour. Duration is the dwell time in
// milliseconds; zero means the configured default.
type TourStop struct {
	Type         StopType   `json:"type"`
	RoomID       int64      `json:"roomId"`
	HotspotIndex int        `json:"hotspotIndex,omitempty"`
	HotspotID    *uuid.UUID `json:"hotspotId,omitempty"`
	Title        string     `json:"title,omitempty"`
	Description  string     `json:"description,omitempty"`
	Duration     int64      `json:"duration,omitempty"`
}

// TourScenario is an authored tour. CameraPanDuration is in milliseconds.
type TourScenario struct {
	Name              string     `json:"name"`
	Stops             []TourStop `json:"stops"`
	CameraPanDuration float64    `json:"cameraPanDuration,omitempty"`
}
