package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"panorama-service/internal/services"
)

type MinimapHandler struct {
	Service *services.MinimapService
	logger  *zap.Logger
}

func NewMinimapHandler(service *services.MinimapService, logger *zap.Logger) *MinimapHandler {
	return &MinimapHandler{Service: service, logger: logger}
}

func floorParam(c *fiber.Ctx) (int, bool) {
	id, err := strconv.Atoi(c.Params("floorId"))
	return id, err == nil
}

// GetMinimap handles GET /api/minimap.
// @Summary Get the minimap
// @Tags minimap
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /minimap [get]
func (h *MinimapHandler) GetMinimap(c *fiber.Ctx) error {
	m, err := h.Service.Get(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true, "minimap": m})
}

// AdminGetMinimap handles GET /api/admin/minimap, optionally narrowed to one
// floor with ?floor=.
func (h *MinimapHandler) AdminGetMinimap(c *fiber.Ctx) error {
	if q := c.Query("floor"); q != "" {
		id, err := strconv.Atoi(q)
		if err != nil {
			return respondError(c, h.logger, services.ErrFloorNotFound)
		}
		floor, err := h.Service.Floor(c.UserContext(), id)
		if err != nil {
			return respondError(c, h.logger, err)
		}
		return c.JSON(fiber.Map{"success": true, "floor": floor})
	}
	return h.GetMinimap(c)
}

// UploadImage handles POST /api/admin/minimap/upload-image.
// @Summary Upload a floor plan image
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Param minimap formData file true "Floor plan image"
// @Param floorId formData int false "Floor ID, defaults to 1"
// @Param floorName formData string false "Floor name"
// @Success 200 {object} map[string]interface{}
// @Router /admin/minimap/upload-image [post]
func (h *MinimapHandler) UploadImage(c *fiber.Ctx) error {
	upload, closeFn, err := formUpload(c, "minimap")
	if err != nil {
		return badRequest(c, "No minimap file uploaded")
	}
	defer closeFn()

	floorID, _ := strconv.Atoi(c.FormValue("floorId"))
	floor, m, err := h.Service.UploadFloorImage(c.UserContext(), floorID, c.FormValue("floorName"), upload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true, "floor": floor, "minimap": m})
}

// SaveFloor handles PUT /api/admin/minimap/floor/:floorId.
func (h *MinimapHandler) SaveFloor(c *fiber.Ctx) error {
	id, ok := floorParam(c)
	if !ok {
		return respondError(c, h.logger, services.ErrFloorNotFound)
	}
	var in services.FloorInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid minimap data")
	}
	floor, m, err := h.Service.SaveFloor(c.UserContext(), id, in)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true, "floor": floor, "minimap": m})
}

func (h *MinimapHandler) RenameFloor(c *fiber.Ctx) error {
	id, ok := floorParam(c)
	if !ok {
		return respondError(c, h.logger, services.ErrFloorNotFound)
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Floor name is required")
	}
	floor, m, err := h.Service.RenameFloor(c.UserContext(), id, body.Name)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true, "floor": floor, "minimap": m})
}

func (h *MinimapHandler) DeleteFloor(c *fiber.Ctx) error {
	id, ok := floorParam(c)
	if !ok {
		return respondError(c, h.logger, services.ErrFloorNotFound)
	}
	m, err := h.Service.DeleteFloor(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true, "minimap": m})
}
