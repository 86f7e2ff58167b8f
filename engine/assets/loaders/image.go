// Package loaders decodes files the renderer consumes.
package loaders

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"iter"
	"os"

	"github.com/pkg/errors"
	"github.com/spaghettifunk/voxel/engine/core"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Image is a decoded picture stored as 8-bit RGBA rows with straight,
// not premultiplied, alpha.
type Image struct {
	pix    *image.NRGBA
	format string
}

// LoadImage decodes PNG, JPEG, GIF, BMP, TIFF or WebP data.
func LoadImage(r io.Reader) (*Image, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(err, "decode image")
	}
	b := src.Bounds()
	rgba, ok := src.(*image.NRGBA)
	if !ok || b.Min != (image.Point{}) {
		rgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
	}
	core.LogDebug("Decoded %s image (%dx%d).", format, b.Dx(), b.Dy())
	return &Image{pix: rgba, format: format}, nil
}

// LoadImageFile decodes the image stored at path.
func LoadImageFile(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read image %s", path)
	}
	img, err := LoadImage(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "load image %s", path)
	}
	return img, nil
}

func (i *Image) Width() int {
	return i.pix.Rect.Dx()
}

func (i *Image) Height() int {
	return i.pix.Rect.Dy()
}

// Format is the name the decoder registered, e.g. "png".
func (i *Image) Format() string {
	return i.format
}

// At returns the pixel at x, y.
func (i *Image) At(x, y int) color.NRGBA {
	return i.pix.NRGBAAt(x, y)
}

// Pixels yields every pixel row by row, top to bottom.
func (i *Image) Pixels() iter.Seq[[4]byte] {
	return func(yield func([4]byte) bool) {
		w, h := i.Width(), i.Height()
		for y := 0; y < h; y++ {
			row := i.pix.Pix[y*i.pix.Stride : y*i.pix.Stride+w*4]
			for x := 0; x < w; x++ {
				p := row[x*4 : x*4+4]
				if !yield([4]byte{p[0], p[1], p[2], p[3]}) {
					return
				}
			}
		}
	}
}

// Bytes returns the tightly packed RGBA data. The slice is a copy.
func (i *Image) Bytes() []byte {
	w, h := i.Width(), i.Height()
	out := make([]byte, 0, w*h*4)
	for y := 0; y < h; y++ {
		out = append(out, i.pix.Pix[y*i.pix.Stride:y*i.pix.Stride+w*4]...)
	}
	return out
}
