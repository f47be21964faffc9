package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"panorama-service/internal/services"
)

type SensorHandler struct {
	Service *services.SensorService
	logger  *zap.Logger
}

func NewSensorHandler(service *services.SensorService, logger *zap.Logger) *SensorHandler {
	return &SensorHandler{Service: service, logger: logger}
}

// ListSensors handles GET /api/sensors.
// @Summary List sensors
// @Tags sensors
// @Produce json
// @Param roomId query int false "Only sensors of this room"
// @Success 200 {object} map[string]interface{}
// @Router /sensors [get]
func (h *SensorHandler) ListSensors(c *fiber.Ctx) error {
	roomID, _ := strconv.ParseInt(c.Query("roomId"), 10, 64)
	sensors, err := h.Service.List(c.UserContext(), roomID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true, "sensors": sensors})
}

func (h *SensorHandler) GetSensor(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return respondError(c, h.logger, services.ErrSensorNotFound)
	}
	sensor, err := h.Service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true, "sensor": sensor})
}

// CreateSensor handles POST /api/sensors.
// @Summary Create a sensor
// @Description Environment sensors get default readings, camera sensors a default feed
// @Tags sensors
// @Accept json
// @Produce json
// @Param sensor body services.SensorInput true "name and roomId are required"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{} "Missing required fields"
// @Router /sensors [post]
func (h *SensorHandler) CreateSensor(c *fiber.Ctx) error {
	var in services.SensorInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Missing required fields")
	}
	sensor, err := h.Service.Create(c.UserContext(), in)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true, "sensor": sensor})
}

func (h *SensorHandler) UpdateSensor(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return respondError(c, h.logger, services.ErrSensorNotFound)
	}
	var in services.SensorInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid sensor data")
	}
	sensor, err := h.Service.Update(c.UserContext(), id, in)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true, "sensor": sensor})
}

func (h *SensorHandler) DeleteSensor(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return respondError(c, h.logger, services.ErrSensorNotFound)
	}
	sensor, err := h.Service.Delete(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true, "sensor": sensor})
}
