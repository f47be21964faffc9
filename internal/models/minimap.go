package models

// Minimap holds one floor plan per building floor.
type Minimap struct {
	Floors []MinimapFloor `json:"floors"`
}

// MinimapFloor is a floor plan image with room markers.
type MinimapFloor struct {
	ID      int      `json:"id"`
	Name    string   `json:"name"`
	Image   string   `json:"image"`
	Markers []Marker `json:"markers"`
}

// Marker places a room on a floor plan. X and Y are normalized to [0,1].
type Marker struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	RoomID int64   `json:"roomId"`
}

// Floor returns the floor with the given id, or nil.
func (m *Minimap) Floor(id int) *MinimapFloor {
	for i := range m.Floors {
		if m.Floors[i].ID == id {
			return &m.Floors[i]
		}
	}
	return nil
}
