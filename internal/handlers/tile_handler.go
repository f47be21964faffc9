package handlers

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"panorama-service/internal/services"
	"panorama-service/internal/tiles"
)

// TileHandler serves room pyramids through the tile cache layers.
type TileHandler struct {
	Service *services.TileService
	logger  *zap.Logger
}

func NewTileHandler(service *services.TileService, logger *zap.Logger) *TileHandler {
	return &TileHandler{Service: service, logger: logger}
}

// GetTile handles GET /tiles/:roomId/*.
// @Summary Fetch a tile or pyramid descriptor
// @Description Looks the file up in memory, redis, local disk and object storage, in that order
// @Tags tiles
// @Produce image/jpeg
// @Produce json
// @Param roomId path int true "Room ID"
// @Param path path string true "level/face/row/col.jpg or config.json"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]interface{} "Tile not found"
// @Router /tiles/{roomId}/{path} [get]
func (h *TileHandler) GetTile(c *fiber.Ctx) error {
	id, ok := paramID(c, "roomId")
	if !ok {
		return respondError(c, h.logger, services.ErrTilesNotFound)
	}
	name := c.Params("*")
	data, err := h.Service.Tile(c.UserContext(), id, name)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if name == tiles.DescriptorFile {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	} else {
		c.Set(fiber.HeaderContentType, "image/jpeg")
		c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	}
	return c.Send(data)
}

// DownloadArchive handles GET /api/rooms/:roomId/tiles/archive.
// @Summary Download a room pyramid as zip
// @Tags tiles
// @Produce application/zip
// @Param roomId path int true "Room ID"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]interface{} "Tiles not found"
// @Router /rooms/{roomId}/tiles/archive [get]
func (h *TileHandler) DownloadArchive(c *fiber.Ctx) error {
	id, ok := paramID(c, "roomId")
	if !ok || !h.Service.Exists(id) {
		return respondError(c, h.logger, services.ErrTilesNotFound)
	}

	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="room-%d-tiles.zip"`, id))
	start := time.Now()
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		tw := newThroughputWriter(w)
		if err := h.Service.ExportArchive(context.Background(), id, tw); err != nil {
			h.logger.Error("failed to stream tile archive", zap.Int64("room_id", id), zap.Error(err))
			return
		}
		if err := w.Flush(); err != nil {
			h.logger.Debug("archive client went away", zap.Int64("room_id", id), zap.Error(err))
			return
		}
		h.logger.Info("tile archive sent", zap.Int64("room_id", id), zap.Int64("bytes", tw.Bytes()),
			zap.Duration("first_byte", tw.FirstByteAt().Sub(start)), zap.Duration("total", time.Since(start)))
	}))
	return nil
}

// ImportArchive handles POST /api/admin/rooms/:roomId/tiles/archive.
func (h *TileHandler) ImportArchive(c *fiber.Ctx) error {
	id, ok := paramID(c, "roomId")
	if !ok {
		return respondError(c, h.logger, services.ErrRoomNotFound)
	}
	fh, err := c.FormFile("archive")
	if err != nil {
		return badRequest(c, "No archive file uploaded")
	}

	tmp, err := os.MkdirTemp("", "tiles-import-")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	defer os.RemoveAll(tmp)

	path := filepath.Join(tmp, "upload"+strings.ToLower(filepath.Ext(fh.Filename)))
	if err := c.SaveFile(fh, path); err != nil {
		return respondError(c, h.logger, err)
	}
	n, err := h.Service.ImportArchive(c.UserContext(), id, path)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	h.logger.Info("tile archive imported", zap.Int64("room_id", id), zap.Int("files", n))
	return c.JSON(fiber.Map{"success": true, "files": n})
}

// CacheStats handles GET /api/admin/tiles/cache.
func (h *TileHandler) CacheStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "layers": h.Service.CacheStats()})
}

// ClearCache handles DELETE /api/admin/tiles/cache.
func (h *TileHandler) ClearCache(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "cleared": h.Service.ClearCaches()})
}
