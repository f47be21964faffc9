package tiles

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Raster is a decoded source image.
type Raster interface {
	Width() int
	Height() int
}

// ImageCodec decodes panoramas and renders tiles from them.
type ImageCodec interface {
	Decode(path string) (Raster, error)
	// Encode crops rect out of src, resizes it to size×size with cover
	// semantics and returns the JPEG bytes.
	Encode(src Raster, rect image.Rectangle, size int, quality int) ([]byte, error)
}

type imageRaster struct {
	img image.Image
}

func (r *imageRaster) Width() int  { return r.img.Bounds().Dx() }
func (r *imageRaster) Height() int { return r.img.Bounds().Dy() }

// StdCodec renders tiles with x/image Catmull-Rom scaling and the standard
// JPEG encoder. Sources may be JPEG, PNG, GIF or WebP.
type StdCodec struct{}

func NewStdCodec() *StdCodec { return &StdCodec{} }

func (StdCodec) Decode(path string) (Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not open source image")
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrap(err, "could not decode source image")
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("source image %s is empty", path)
	}
	return &imageRaster{img: img}, nil
}

func (StdCodec) Encode(src Raster, rect image.Rectangle, size int, quality int) ([]byte, error) {
	r, ok := src.(*imageRaster)
	if !ok {
		return nil, fmt.Errorf("unsupported raster type %T", src)
	}
	b := r.img.Bounds()
	// rect is relative to the image origin, which need not be (0,0).
	sr := coverRect(rect.Add(b.Min), size, size)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), r.img, sr, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, errors.Wrap(err, "jpeg encode failed")
	}
	return buf.Bytes(), nil
}

// coverRect shrinks r to the centred sub-rectangle with the aspect ratio of
// dw×dh, so scaling it fills the destination without letterboxing.
func coverRect(r image.Rectangle, dw, dh int) image.Rectangle {
	w, h := r.Dx(), r.Dy()
	// w/h > dw/dh: too wide, trim the sides.
	if w*dh > h*dw {
		nw := max(1, h*dw/dh)
		off := (w - nw) / 2
		return image.Rect(r.Min.X+off, r.Min.Y, r.Min.X+off+nw, r.Max.Y)
	}
	if w*dh < h*dw {
		nh := max(1, w*dh/dw)
		off := (h - nh) / 2
		return image.Rect(r.Min.X, r.Min.Y+off, r.Max.X, r.Min.Y+off+nh)
	}
	return r
}
