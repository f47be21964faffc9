package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"panorama-service/internal/services"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrRoomNotFound),
		errors.Is(err, services.ErrSensorNotFound),
		errors.Is(err, services.ErrFloorNotFound),
		errors.Is(err, services.ErrTilesNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrInvalidHotspotIndex),
		errors.Is(err, services.ErrInvalidMediaHotspotIndex),
		errors.Is(err, services.ErrInvalidMailHotspotIndex):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrFileTooLarge):
		return fiber.StatusRequestEntityTooLarge
	}
	return fiber.StatusInternalServerError
}

// respondError writes the {success:false, error} envelope for err.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	status := statusFor(err)
	body := fiber.Map{"success": false, "error": err.Error()}
	if errors.Is(err, services.ErrTileGeneration) {
		body["error"] = services.ErrTileGeneration.Error()
		body["details"] = strings.TrimPrefix(err.Error(), services.ErrTileGeneration.Error()+": ")
	}
	if status >= fiber.StatusInternalServerError {
		logger.Error("request failed", zap.String("method", c.Method()), zap.String("path", c.Path()), zap.Error(err))
	} else {
		logger.Debug("request rejected", zap.String("path", c.Path()), zap.Int("status", status), zap.Error(err))
	}
	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": message})
}

func paramID(c *fiber.Ctx, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	return id, err == nil
}

func paramIndex(c *fiber.Ctx) (int, bool) {
	idx, err := strconv.Atoi(c.Params("index"))
	return idx, err == nil
}

// formUpload opens a multipart file field.
func formUpload(c *fiber.Ctx, field string) (services.Upload, func(), error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return services.Upload{}, nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return services.Upload{}, nil, err
	}
	return services.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	}, func() { f.Close() }, nil
}
