package services

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// MaxMediaSize is the upload limit for media hotspot files.
const MaxMediaSize = 50 << 20

var mediaContentTypes = map[string]bool{
	"image/jpeg":        true,
	"image/png":         true,
	"image/webp":        true,
	"image/gif":         true,
	"application/pdf":   true,
	"video/mp4":         true,
	"video/webm":        true,
	"model/gltf-binary": true,
	"model/gltf+json":   true,
}

var modelFilePattern = regexp.MustCompile(`(?i)\.(glb|gltf)$`)

// MediaInfo describes a stored media file.
type MediaInfo struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	URL          string `json:"url"`
	Type         string `json:"type"`
	Size         int64  `json:"size"`
}

type MediaService struct {
	uploads *Uploads
	logger  *zap.Logger
	now     func() time.Time
}

func NewMediaService(uploads *Uploads, logger *zap.Logger) *MediaService {
	return &MediaService{uploads: uploads, logger: logger, now: time.Now}
}

// Upload stores a media file under uploads/media.
func (s *MediaService) Upload(_ context.Context, up Upload) (*MediaInfo, error) {
	if !mediaContentTypes[up.ContentType] && !modelFilePattern.MatchString(up.Filename) {
		return nil, invalid("File type not allowed. Allowed: images, PDF, videos, 3D models (GLB/GLTF)")
	}
	if up.Size > MaxMediaSize {
		return nil, ErrFileTooLarge
	}

	name := "media_" + strconv.FormatInt(s.now().UnixMilli(), 10) + "_" + sanitizeFilename(up.Filename)
	dir := filepath.Join(s.uploads.dir, "media")
	size, err := saveUpload(dir, name, up.Body)
	if err != nil {
		return nil, err
	}
	if size > MaxMediaSize {
		os.Remove(filepath.Join(dir, name))
		return nil, ErrFileTooLarge
	}

	info := &MediaInfo{
		Filename:     name,
		OriginalName: up.Filename,
		URL:          s.uploads.URL("media", name),
		Type:         up.ContentType,
		Size:         size,
	}
	s.logger.Info("media uploaded", zap.String("url", info.URL), zap.Int64("size", size))
	return info, nil
}
