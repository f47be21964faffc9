package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"panorama-service/internal/services"
)

type MediaHandler struct {
	Service *services.MediaService
	logger  *zap.Logger
}

func NewMediaHandler(service *services.MediaService, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{Service: service, logger: logger}
}

// UploadMedia handles POST /api/admin/media/upload.
// @Summary Upload a media hotspot file
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Param media formData file true "Image, video, PDF or glTF model (max 50MB)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{} "Unsupported file"
// @Failure 413 {object} map[string]interface{} "File too large"
// @Router /admin/media/upload [post]
func (h *MediaHandler) UploadMedia(c *fiber.Ctx) error {
	upload, closeFn, err := formUpload(c, "media")
	if err != nil {
		return badRequest(c, "No media file uploaded")
	}
	defer closeFn()

	info, err := h.Service.Upload(c.UserContext(), upload)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"success": true, "media": info})
}
