package tiles

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// DescriptorFile is the manifest name inside a tile root.
const DescriptorFile = "config.json"

// PyramidDescriptor tells the viewer which levels exist. The first level is
// the always-resident fallback.
type PyramidDescriptor struct {
	Type   string  `json:"type"`
	Levels []Level `json:"levels"`
}

type Level struct {
	TileSize     int  `json:"tileSize"`
	Size         int  `json:"size"`
	FallbackOnly bool `json:"fallbackOnly"`
}

// NewDescriptor builds the cube descriptor for the given level sizes.
func NewDescriptor(levels []int, tileSize int) *PyramidDescriptor {
	d := &PyramidDescriptor{Type: "cube", Levels: make([]Level, len(levels))}
	for i, size := range levels {
		d.Levels[i] = Level{TileSize: tileSize, Size: size, FallbackOnly: i == 0}
	}
	return d
}

// WriteDescriptor stores d as indented JSON in dir.
func WriteDescriptor(dir string, d *PyramidDescriptor) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(dir, DescriptorFile), data)
}

// ReadDescriptor loads the descriptor of a tile root.
func ReadDescriptor(dir string) (*PyramidDescriptor, error) {
	data, err := os.ReadFile(filepath.Join(dir, DescriptorFile))
	if err != nil {
		return nil, err
	}
	var d PyramidDescriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(err, "invalid pyramid descriptor")
	}
	return &d, nil
}

// writeFileAtomic writes through a temp file in the target directory so a
// reader never observes a partial tile.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
