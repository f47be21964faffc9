package services

import (
	"context"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"panorama-service/internal/models"
)

// HotspotInput carries navigation hotspot fields. Nil fields are absent
// from the request.
type HotspotInput struct {
	Yaw      *float64 `json:"yaw"`
	Pitch    *float64 `json:"pitch"`
	Target   *int64   `json:"target"`
	Rotation *float64 `json:"rotation"`
	Color    *string  `json:"color"`
}

func (s *RoomService) Hotspots(ctx context.Context, roomID int64) ([]models.NavigationHotspot, error) {
	room, err := s.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return room.Hotspots, nil
}

func (s *RoomService) AddHotspot(ctx context.Context, roomID int64, in HotspotInput) ([]models.NavigationHotspot, error) {
	if in.Yaw == nil || in.Pitch == nil || in.Target == nil {
		return nil, invalid("Missing yaw/pitch/target")
	}
	room, err := s.update(ctx, roomID, func(r *models.Room) error {
		h := models.NavigationHotspot{
			ID:       uuid.New(),
			Yaw:      *in.Yaw,
			Pitch:    *in.Pitch,
			Target:   *in.Target,
			Rotation: in.Rotation,
		}
		if in.Color != nil {
			h.Color = *in.Color
		}
		r.Hotspots = append(r.Hotspots, h)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return room.Hotspots, nil
}

// hotspotID translates a public index into the stable id. Indices shift on
// delete, so the id is what mutations act on.
func hotspotID(r *models.Room, index int) (uuid.UUID, error) {
	if index < 0 || index >= len(r.Hotspots) {
		return uuid.Nil, ErrInvalidHotspotIndex
	}
	return r.Hotspots[index].ID, nil
}

func (s *RoomService) UpdateHotspot(ctx context.Context, roomID int64, index int, in HotspotInput) ([]models.NavigationHotspot, error) {
	room, err := s.update(ctx, roomID, func(r *models.Room) error {
		id, err := hotspotID(r, index)
		if err != nil {
			return err
		}
		i, _ := r.HotspotByID(id)
		h := &r.Hotspots[i]
		if in.Yaw != nil {
			h.Yaw = *in.Yaw
		}
		if in.Pitch != nil {
			h.Pitch = *in.Pitch
		}
		if in.Target != nil {
			h.Target = *in.Target
		}
		if in.Rotation != nil {
			h.Rotation = in.Rotation
		}
		if in.Color != nil {
			h.Color = *in.Color
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return room.Hotspots, nil
}

func (s *RoomService) DeleteHotspot(ctx context.Context, roomID int64, index int) ([]models.NavigationHotspot, error) {
	room, err := s.update(ctx, roomID, func(r *models.Room) error {
		id, err := hotspotID(r, index)
		if err != nil {
			return err
		}
		i, _ := r.HotspotByID(id)
		r.Hotspots = append(r.Hotspots[:i], r.Hotspots[i+1:]...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return room.Hotspots, nil
}

// MediaHotspotInput carries media hotspot fields. Nil fields are absent.
type MediaHotspotInput struct {
	Yaw         *float64 `json:"yaw"`
	Pitch       *float64 `json:"pitch"`
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	MediaURL    *string  `json:"mediaUrl"`
	MediaType   *string  `json:"mediaType"`
}

func (s *RoomService) MediaHotspots(ctx context.Context, roomID int64) ([]models.MediaHotspot, error) {
	room, err := s.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.MediaHotspots == nil {
		return []models.MediaHotspot{}, nil
	}
	return room.MediaHotspots, nil
}

func (s *RoomService) AddMediaHotspot(ctx context.Context, roomID int64, in MediaHotspotInput) ([]models.MediaHotspot, error) {
	if in.Yaw == nil || in.Pitch == nil || in.Title == nil || *in.Title == "" ||
		in.MediaType == nil || *in.MediaType == "" {
		return nil, invalid("Missing required fields")
	}
	mediaType := models.MediaType(*in.MediaType)
	if !mediaType.Valid() {
		return nil, invalid("Unknown media type %q", *in.MediaType)
	}
	var mediaURL string
	if in.MediaURL != nil {
		mediaURL = *in.MediaURL
	}
	if mediaType != models.MediaNote && mediaURL == "" {
		return nil, invalid("mediaUrl is required for this media type")
	}

	room, err := s.update(ctx, roomID, func(r *models.Room) error {
		h := models.MediaHotspot{
			ID:        uuid.New(),
			Yaw:       *in.Yaw,
			Pitch:     *in.Pitch,
			Title:     *in.Title,
			MediaURL:  mediaURL,
			MediaType: mediaType,
		}
		if in.Description != nil {
			h.Description = *in.Description
		}
		r.MediaHotspots = append(r.MediaHotspots, h)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return room.MediaHotspots, nil
}

// UpdateMediaHotspot patches a media hotspot. Replacing the media URL
// deletes the previously uploaded file.
func (s *RoomService) UpdateMediaHotspot(ctx context.Context, roomID int64, index int, in MediaHotspotInput) ([]models.MediaHotspot, error) {
	if in.MediaType != nil && !models.MediaType(*in.MediaType).Valid() {
		return nil, invalid("Unknown media type %q", *in.MediaType)
	}
	var stale string
	room, err := s.update(ctx, roomID, func(r *models.Room) error {
		if index < 0 || index >= len(r.MediaHotspots) {
			return ErrInvalidMediaHotspotIndex
		}
		h := &r.MediaHotspots[index]
		if in.MediaURL != nil && *in.MediaURL != h.MediaURL {
			stale = h.MediaURL
			h.MediaURL = *in.MediaURL
		}
		if in.Yaw != nil {
			h.Yaw = *in.Yaw
		}
		if in.Pitch != nil {
			h.Pitch = *in.Pitch
		}
		if in.Title != nil {
			h.Title = *in.Title
		}
		if in.Description != nil {
			h.Description = *in.Description
		}
		if in.MediaType != nil {
			h.MediaType = models.MediaType(*in.MediaType)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if stale != "" {
		s.uploads.Remove(stale)
	}
	return room.MediaHotspots, nil
}

func (s *RoomService) DeleteMediaHotspot(ctx context.Context, roomID int64, index int) ([]models.MediaHotspot, error) {
	var stale string
	room, err := s.update(ctx, roomID, func(r *models.Room) error {
		if index < 0 || index >= len(r.MediaHotspots) {
			return ErrInvalidMediaHotspotIndex
		}
		stale = r.MediaHotspots[index].MediaURL
		r.MediaHotspots = append(r.MediaHotspots[:index], r.MediaHotspots[index+1:]...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if stale != "" {
		s.uploads.Remove(stale)
	}
	if room.MediaHotspots == nil {
		return []models.MediaHotspot{}, nil
	}
	return room.MediaHotspots, nil
}

// MailHotspotInput describes a contact form hotspot.
type MailHotspotInput struct {
	Yaw     *float64 `json:"yaw"`
	Pitch   *float64 `json:"pitch"`
	Title   string   `json:"title"`
	Email   string   `json:"email"`
	Subject string   `json:"subject"`
}

func (s *RoomService) AddMailHotspot(ctx context.Context, roomID int64, in MailHotspotInput) ([]models.MailHotspot, error) {
	if in.Yaw == nil || in.Pitch == nil || strings.TrimSpace(in.Email) == "" {
		return nil, invalid("Missing required fields")
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(in.Email))
	if err != nil {
		return nil, invalid("Invalid email address")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = "Contact"
	}
	room, err := s.update(ctx, roomID, func(r *models.Room) error {
		r.MailHotspots = append(r.MailHotspots, models.MailHotspot{
			ID:      uuid.New(),
			Yaw:     *in.Yaw,
			Pitch:   *in.Pitch,
			Title:   title,
			Email:   addr.Address,
			Subject: in.Subject,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return room.MailHotspots, nil
}

func (s *RoomService) DeleteMailHotspot(ctx context.Context, roomID int64, index int) ([]models.MailHotspot, error) {
	room, err := s.update(ctx, roomID, func(r *models.Room) error {
		if index < 0 || index >= len(r.MailHotspots) {
			return ErrInvalidMailHotspotIndex
		}
		r.MailHotspots = append(r.MailHotspots[:index], r.MailHotspots[index+1:]...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if room.MailHotspots == nil {
		return []models.MailHotspot{}, nil
	}
	return room.MailHotspots, nil
}
