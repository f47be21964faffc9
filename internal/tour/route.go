package tour

import (
	"sort"

	"github.com/google/uuid"

	"panorama-service/internal/models"
)

// BuildRoute derives the default tour: rooms in ascending id order, each
// followed by one stop per navigation hotspot whose target room exists.
func BuildRoute(rooms []models.Room) []models.TourStop {
	sorted := make([]models.Room, len(rooms))
	copy(sorted, rooms)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	known := make(map[int64]struct{}, len(sorted))
	for _, r := range sorted {
		known[r.ID] = struct{}{}
	}

	route := make([]models.TourStop, 0, len(sorted))
	for _, room := range sorted {
		route = append(route, models.TourStop{Type: models.StopRoom, RoomID: room.ID})
		for i, h := range room.Hotspots {
			if _, ok := known[h.Target]; !ok {
				continue
			}
			var id *uuid.UUID
			if h.ID != uuid.Nil {
				hid := h.ID
				id = &hid
			}
			route = append(route, models.TourStop{
				Type:         models.StopHotspot,
				RoomID:       room.ID,
				HotspotIndex: i,
				HotspotID:    id,
			})
		}
	}
	return route
}

// resolveHotspot finds the hotspot a stop points at, preferring the stable id
// over the positional index. An id that no longer matches falls back to the
// index.
func resolveHotspot(room *models.Room, stop models.TourStop) (int, bool) {
	if stop.HotspotID != nil {
		if i, ok := room.HotspotByID(*stop.HotspotID); ok {
			return i, true
		}
	}
	if stop.HotspotIndex < 0 || stop.HotspotIndex >= len(room.Hotspots) {
		return 0, false
	}
	return stop.HotspotIndex, true
}
