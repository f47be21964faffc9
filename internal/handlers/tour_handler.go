package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"panorama-service/internal/models"
	"panorama-service/internal/services"
)

type TourHandler struct {
	Service *services.TourService
	logger  *zap.Logger
}

func NewTourHandler(service *services.TourService, logger *zap.Logger) *TourHandler {
	return &TourHandler{Service: service, logger: logger}
}

// GetScenario handles GET /api/tour-scenario and its admin twin.
// @Summary Get the saved tour scenario
// @Tags tour
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /tour-scenario [get]
func (h *TourHandler) GetScenario(c *fiber.Ctx) error {
	sc, err := h.Service.Scenario(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if sc == nil {
		return c.JSON(fiber.Map{"success": false, "message": "No scenario found"})
	}
	return c.JSON(fiber.Map{"success": true, "scenario": sc})
}

// GetPlan handles GET /api/tour-plan: the saved scenario, or the route
// derived from the current rooms when none is saved.
func (h *TourHandler) GetPlan(c *fiber.Ctx) error {
	plan, err := h.Service.Plan(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"plan": fiber.Map{
			"name":              plan.Name,
			"stops":             plan.Stops,
			"cameraPanDuration": plan.PanDuration.Milliseconds(),
		},
	})
}

func (h *TourHandler) SaveScenario(c *fiber.Ctx) error {
	var sc models.TourScenario
	if err := c.BodyParser(&sc); err != nil {
		return badRequest(c, "Invalid scenario data")
	}
	saved, err := h.Service.Save(c.UserContext(), &sc)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true, "scenario": saved})
}

func (h *TourHandler) DeleteScenario(c *fiber.Ctx) error {
	if err := h.Service.Delete(c.UserContext()); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
