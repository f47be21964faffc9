package models

import "github.com/google/uuid"

// Room is one panorama scene in the tour. ID is the creation timestamp in unix milliseconds.
type Room struct {
	ID            int64               `json:"id"`
	Name          string              `json:"name"`
	Image         string              `json:"image"`
	TilesPath     string              `json:"tilesPath,omitempty"`
	Floor         int                 `json:"floor"`
	Hotspots      []NavigationHotspot `json:"hotspots"`
	MediaHotspots []MediaHotspot      `json:"mediaHotspots,omitempty"`
	MailHotspots  []MailHotspot       `json:"mailHotspots,omitempty"`
}

// NavigationHotspot teleports the viewer to another room.
// Index in Room.Hotspots is the public address; ID is stable across deletes.
type NavigationHotspot struct {
	ID       uuid.UUID `json:"id"`
	Yaw      float64   `json:"yaw"`
	Pitch    float64   `json:"pitch"`
	Target   int64     `json:"target"`
	Rotation *float64  `json:"rotation,omitempty"`
	Color    string    `json:"color,omitempty"`
}

// MediaType enumerates the content kinds a media hotspot can open.
type MediaType string

const (
	MediaImage    MediaType = "image"
	MediaVideo    MediaType = "video"
	MediaPDF      MediaType = "pdf"
	MediaYouTube  MediaType = "youtube"
	MediaFacebook MediaType = "facebook"
	MediaWeb      MediaType = "web"
	MediaNote     MediaType = "note"
)

// Valid reports whether t is one of the known media types.
func (t MediaType) Valid() bool {
	switch t {
	case MediaImage, MediaVideo, MediaPDF, MediaYouTube, MediaFacebook, MediaWeb, MediaNote:
		return true
	}
	return false
}

// MediaHotspot opens a piece of media in an overlay.
type MediaHotspot struct {
	ID          uuid.UUID `json:"id"`
	Yaw         float64   `json:"yaw"`
	Pitch       float64   `json:"pitch"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	MediaURL    string    `json:"mediaUrl"`
	MediaType   MediaType `json:"mediaType"`
}

// MailHotspot opens a contact form addressed to Email. Dispatch happens elsewhere.
type MailHotspot struct {
	ID      uuid.UUID `json:"id"`
	Yaw     float64   `json:"yaw"`
	Pitch   float64   `json:"pitch"`
	Title   string    `json:"title"`
	Email   string    `json:"email"`
	Subject string    `json:"subject,omitempty"`
}

// HotspotByID returns the position of the navigation hotspot with the given id.
func (r *Room) HotspotByID(id uuid.UUID) (int, bool) {
	for i, h := range r.Hotspots {
		if h.ID == id {
			return i, true
		}
	}
	return -1, false
}
