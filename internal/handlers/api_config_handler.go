package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"panorama-service/internal/models"
	"panorama-service/internal/services"
)

type ApiConfigHandler struct {
	Service *services.ApiConfigService
	logger  *zap.Logger
}

func NewApiConfigHandler(service *services.ApiConfigService, logger *zap.Logger) *ApiConfigHandler {
	return &ApiConfigHandler{Service: service, logger: logger}
}

func (h *ApiConfigHandler) GetGlobal(c *fiber.Ctx) error {
	cfg, err := h.Service.Global(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true, "config": cfg})
}

func (h *ApiConfigHandler) SaveGlobal(c *fiber.Ctx) error {
	var cfg models.ProviderConfig
	if err := c.BodyParser(&cfg); err != nil {
		return badRequest(c, "Invalid config data")
	}
	if err := h.Service.SaveGlobal(c.UserContext(), &cfg); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Config saved successfully"})
}

// GetRoom handles GET /api/rooms/:roomId/api-config. Rooms without their own
// config get the built-in defaults, never the global config.
// @Summary Get a room's provider config
// @Tags config
// @Produce json
// @Param roomId path int true "Room ID"
// @Success 200 {object} map[string]interface{}
// @Router /rooms/{roomId}/api-config [get]
func (h *ApiConfigHandler) GetRoom(c *fiber.Ctx) error {
	id, ok := paramID(c, "roomId")
	if !ok {
		return respondError(c, h.logger, services.ErrRoomNotFound)
	}
	cfg, isDefault, err := h.Service.Room(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	body := fiber.Map{"success": true, "config": cfg}
	if isDefault {
		body["isDefault"] = true
	}
	return c.JSON(body)
}

func (h *ApiConfigHandler) SaveRoom(c *fiber.Ctx) error {
	id, ok := paramID(c, "roomId")
	if !ok {
		return respondError(c, h.logger, services.ErrRoomNotFound)
	}
	var cfg models.ProviderConfig
	if err := c.BodyParser(&cfg); err != nil {
		return badRequest(c, "Invalid config data")
	}
	if err := h.Service.SaveRoom(c.UserContext(), id, &cfg); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": "Room API config saved successfully"})
}

// Combined handles GET /api/real-data/combined.
// @Summary Current weather and air quality
// @Description Uses the room's config when roomId is given, else the global config. Falls back to mock data.
// @Tags real-data
// @Produce json
// @Param roomId query int false "Room ID"
// @Success 200 {object} map[string]interface{}
// @Router /real-data/combined [get]
func (h *ApiConfigHandler) Combined(c *fiber.Ctx) error {
	roomID, _ := strconv.ParseInt(c.Query("roomId"), 10, 64)
	return c.JSON(fiber.Map{"success": true, "data": h.Service.Combined(c.UserContext(), roomID)})
}

func (h *ApiConfigHandler) CombinedCustom(c *fiber.Ctx) error {
	var cfg models.ProviderConfig
	if err := c.BodyParser(&cfg); err != nil {
		return badRequest(c, "Invalid config data")
	}
	return c.JSON(fiber.Map{"success": true, "data": h.Service.CombinedCustom(c.UserContext(), &cfg)})
}
