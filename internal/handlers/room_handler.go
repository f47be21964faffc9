package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"panorama-service/internal/services"
)

// RoomHandler serves rooms and their hotspots.
type RoomHandler struct {
	Service *services.RoomService
	logger  *zap.Logger
}

func NewRoomHandler(service *services.RoomService, logger *zap.Logger) *RoomHandler {
	return &RoomHandler{Service: service, logger: logger}
}

// ListRooms handles GET /api/rooms.
// @Summary List rooms
// @Description Returns every room with its hotspots
// @Tags rooms
// @Produce json
// @Success 200 {array} models.Room
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /rooms [get]
func (h *RoomHandler) ListRooms(c *fiber.Ctx) error {
	rooms, err := h.Service.List(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(rooms)
}

// UploadPanorama handles POST /api/admin/upload-panorama.
// @Summary Create a room from a panorama
// @Description Stores the panorama, generates its cube tile pyramid and records the room
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Param panorama formData file true "Equirectangular panorama (JPG, PNG or WEBP)"
// @Param name formData string false "Room name"
// @Param floor formData int false "Floor number"
// @Success 200 {object} map[string]interface{} "Room created"
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 500 {object} map[string]interface{} "Tile generation failed"
// @Router /admin/upload-panorama [post]
func (h *RoomHandler) UploadPanorama(c *fiber.Ctx) error {
	upload, closeFn, err := formUpload(c, "panorama")
	if err != nil {
		return badRequest(c, "No panorama file uploaded")
	}
	defer closeFn()

	floor, _ := strconv.Atoi(c.FormValue("floor"))
	room, err := h.Service.Create(c.UserContext(), services.CreateRoomInput{
		Name:   c.FormValue("name"),
		Floor:  floor,
		Upload: upload,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"rawPath":   room.Image,
		"tilesPath": room.TilesPath,
		"room":      room,
		"response":  fiber.Map{"tilesPath": room.TilesPath},
	})
}

// DeleteRoom handles DELETE /api/admin/rooms/:roomId.
// @Summary Delete a room
// @Description Deletes the room, its tiles, panorama, media files and minimap markers
// @Tags admin
// @Produce json
// @Param roomId path int true "Room ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{} "Room not found"
// @Router /admin/rooms/{roomId} [delete]
func (h *RoomHandler) DeleteRoom(c *fiber.Ctx) error {
	id, ok := paramID(c, "roomId")
	if !ok {
		return respondError(c, h.logger, services.ErrRoomNotFound)
	}
	if err := h.Service.Delete(c.UserContext(), id); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Room deleted successfully"})
}

// ListHotspots handles GET /api/admin/rooms/:roomId/hotspots.
func (h *RoomHandler) ListHotspots(c *fiber.Ctx) error {
	id, ok := paramID(c, "roomId")
	if !ok {
		return respondError(c, h.logger, services.ErrRoomNotFound)
	}
	hs, err := h.Service.Hotspots(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true, "hotspots": hs})
}

// AddHotspot handles PUT /api/admin/rooms/:roomId/hotspots.
// @Summary Add a navigation hotspot
// @Tags admin
// @Accept json
// @Produce json
// @Param roomId path int true "Room ID"
// @Param hotspot body services.HotspotInput true "yaw, pitch and target are required"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{} "Missing yaw/pitch/target"
// @Failure 404 {object} map[string]interface{} "Room not found"
// @Router /admin/rooms/{roomId}/hotspots [put]
func (h *RoomHandler) AddHotspot(c *fiber.Ctx) error {
	id, ok := paramID(c, "roomId")
	if !ok {
		return respondError(c, h.logger, services.ErrRoomNotFound)
	}
	var in services.HotspotInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid hotspot data")
	}
	hs, err := h.Service.AddHotspot(c.UserContext(), id, in)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true, "hotspots": hs})
}

// UpdateHotspot handles PATCH /api/admin/rooms/:roomId/hotspots/:index.
func (h *RoomHandler) UpdateHotspot(c *fiber.Ctx) error {
	id, ok := paramID(c, "roomId")
	if !ok {
		return respondError(c, h.logger, services.ErrRoomNotFound)
	}
	idx, ok := paramIndex(c)
	if !ok {
		return respondError(c, h.logger, services.ErrInvalidHotspotIndex)
	}
	var in services.HotspotInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid hotspot data")
	}
	hs, err := h.Service.UpdateHotspot(c.UserContext(), id, idx, in)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true, "hotspots": hs})
}

// DeleteHotspot handles DELETE /api/admin/rooms/:roomId/hotspots/:index.
func (h *RoomHandler) DeleteHotspot(c *fiber.Ctx) error {
	id, ok := paramID(c, "roomId")
	if !ok {
		return respondError(c, h.logger, services.ErrRoomNotFound)
	}
	idx, ok := paramIndex(c)
	if !ok {
		return respondError(c, h.logger, services.ErrInvalidHotspotIndex)
	}
	hs, err := h.Service.DeleteHotspot(c.UserContext(), id, idx)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true, "hotspots": hs})
}

func (h *RoomHandler) ListMediaHotspots(c *fiber.Ctx) error {
	id, ok := paramID(c, "roomId")
	if !ok {
		return respondError(c, h.logger, services.ErrRoomNotFound)
	}
	hs, err := h.Service.MediaHotspots(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true, "mediaHotspots": hs})
}

// AddMediaHotspot handles POST /api/admin/rooms/:roomId/media-hotspots.
// @Summary Add a media hotspot
// @Description mediaUrl may be empty for the note type
// @Tags admin
// @Accept json
// @Produce json
// @Param roomId path int true "Room ID"
// @Param hotspot body services.MediaHotspotInput true "Media hotspot"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{} "Missing required fields"
// @Router /admin/rooms/{roomId}/media-hotspots [post]
func (h *RoomHandler) AddMediaHotspot(c *fiber.Ctx) error {
	id, ok := paramID(c, "roomId")
	if !ok {
		return respondError(c, h.logger, services.ErrRoomNotFound)
	}
	var in services.MediaHotspotInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid media hotspot data")
	}
	hs, err := h.Service.AddMediaHotspot(c.UserContext(), id, in)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true, "mediaHotspots": hs})
}

func (h *RoomHandler) UpdateMediaHotspot(c *fiber.Ctx) error {
	id, ok := paramID(c, "roomId")
	if !ok {
		return respondError(c, h.logger, services.ErrRoomNotFound)
	}
	idx, ok := paramIndex(c)
	if !ok {
		return respondError(c, h.logger, services.ErrInvalidMediaHotspotIndex)
	}
	var in services.MediaHotspotInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid media hotspot data")
	}
	hs, err := h.Service.UpdateMediaHotspot(c.UserContext(), id, idx, in)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true, "mediaHotspots": hs})
}

func (h *RoomHandler) DeleteMediaHotspot(c *fiber.Ctx) error {
	id, ok := paramID(c, "roomId")
	if !ok {
		return respondError(c, h.logger, services.ErrRoomNotFound)
	}
	idx, ok := paramIndex(c)
	if !ok {
		return respondError(c, h.logger, services.ErrInvalidMediaHotspotIndex)
	}
	hs, err := h.Service.DeleteMediaHotspot(c.UserContext(), id, idx)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true, "mediaHotspots": hs})
}

func (h *RoomHandler) AddMailHotspot(c *fiber.Ctx) error {
	id, ok := paramID(c, "roomId")
	if !ok {
		return respondError(c, h.logger, services.ErrRoomNotFound)
	}
	var in services.MailHotspotInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid mail hotspot data")
	}
	hs, err := h.Service.AddMailHotspot(c.UserContext(), id, in)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true, "mailHotspots": hs})
}

func (h *RoomHandler) DeleteMailHotspot(c *fiber.Ctx) error {
	id, ok := paramID(c, "roomId")
	if !ok {
		return respondError(c, h.logger, services.ErrRoomNotFound)
	}
	idx, ok := paramIndex(c)
	if !ok {
		return respondError(c, h.logger, services.ErrInvalidMailHotspotIndex)
	}
	hs, err := h.Service.DeleteMailHotspot(c.UserContext(), id, idx)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true, "mailHotspots": hs})
}
