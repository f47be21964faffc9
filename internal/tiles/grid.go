package tiles

import (
	"image"
	"math"
	"path/filepath"
	"strconv"
)

// Face identifies one side of the cube the viewer renders onto.
type Face string

const (
	FaceFront Face = "f"
	FaceBack  Face = "b"
	FaceLeft  Face = "l"
	FaceRight Face = "r"
	FaceUp    Face = "u"
	FaceDown  Face = "d"
)

// Faces lists the cube faces in generation order.
var Faces = []Face{FaceFront, FaceBack, FaceLeft, FaceRight, FaceUp, FaceDown}

// ValidFace reports whether s names a cube face.
func ValidFace(s string) bool {
	for _, f := range Faces {
		if string(f) == s {
			return true
		}
	}
	return false
}

// TileCount returns the number of tiles per axis for a level of the given
// edge length.
func TileCount(resolution, tileSize int) int {
	return (resolution + tileSize - 1) / tileSize
}

// CropRect maps grid cell (row, col) of an n×n grid proportionally onto a
// width×height source. Left and top are floored, right and bottom ceiled,
// then the size is clamped to what remains of the source. ok is false when
// the cell degenerates outside the source.
func CropRect(row, col, n, width, height int) (image.Rectangle, bool) {
	fn := float64(n)
	left := int(math.Floor(float64(col) / fn * float64(width)))
	top := int(math.Floor(float64(row) / fn * float64(height)))
	right := int(math.Ceil(float64(col+1) / fn * float64(width)))
	bottom := int(math.Ceil(float64(row+1) / fn * float64(height)))

	w := max(1, right-left)
	h := max(1, bottom-top)
	w = min(w, width-left)
	h = min(h, height-top)

	if left < 0 || top < 0 || left >= width || top >= height || w <= 0 || h <= 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(left, top, left+w, top+h), true
}

// TilePath returns root/level/face/row/col.jpg.
func TilePath(root string, level int, face Face, row, col int) string {
	return filepath.Join(root, strconv.Itoa(level), string(face), strconv.Itoa(row), strconv.Itoa(col)+".jpg")
}
