package services

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Upload is a file received from a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

func sanitizeFilename(name string) string {
	return unsafeFilenameChars.ReplaceAllString(filepath.Base(name), "_")
}

var imageContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// saveUpload copies body to dir/name and returns the written size.
func saveUpload(dir, name string, body io.Reader) (int64, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, errors.Wrap(err, "could not create upload directory")
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return 0, errors.Wrap(err, "could not create upload file")
	}
	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return 0, errors.Wrap(err, "could not write upload file")
	}
	return n, nil
}

// Uploads resolves public /uploads/... URLs to files below one directory.
type Uploads struct {
	dir    string
	logger *zap.Logger
}

func NewUploads(dir string, logger *zap.Logger) *Uploads {
	return &Uploads{dir: dir, logger: logger}
}

const uploadsURLPrefix = "/uploads/"

// Path maps url to a file path. ok is false for URLs outside the uploads
// tree, such as external links.
func (u *Uploads) Path(url string) (string, bool) {
	if !strings.HasPrefix(url, uploadsURLPrefix) {
		return "", false
	}
	rel := filepath.FromSlash(strings.TrimPrefix(url, uploadsURLPrefix))
	path := filepath.Join(u.dir, rel)
	root := filepath.Clean(u.dir) + string(os.PathSeparator)
	if !strings.HasPrefix(path, root) {
		return "", false
	}
	return path, true
}

// Remove deletes the file behind url. Failures are logged, not returned,
// since the referencing record is already gone.
func (u *Uploads) Remove(url string) {
	path, ok := u.Path(url)
	if !ok {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		u.logger.Warn("failed to delete upload", zap.String("path", path), zap.Error(err))
		return
	}
	u.logger.Debug("deleted upload", zap.String("path", path))
}

// URL returns the public URL of a file stored under the uploads directory.
func (u *Uploads) URL(parts ...string) string {
	return uploadsURLPrefix + strings.Join(parts, "/")
}
