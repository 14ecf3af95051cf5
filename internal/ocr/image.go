package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrImageTooLarge is returned for images whose header declares more pixels
// than the configured limit. The pixels are never decoded.
var ErrImageTooLarge = errors.New("image exceeds pixel limit")

// Grayscale decodes any supported image (png, jpeg, gif, bmp, tiff, webp)
// and converts it to 8-bit grayscale. Images declaring more than maxPixels
// pixels are rejected from their header alone; maxPixels <= 0 disables the
// check.
func Grayscale(r io.Reader, maxPixels int64) (*image.Gray, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if maxPixels > 0 {
		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode image header: %w", err)
		}
		if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > maxPixels {
			return nil, fmt.Errorf("%w: %s is %dx%d", ErrImageTooLarge, format, cfg.Width, cfg.Height)
		}
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	bounds := src.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("decode image: empty %s image", format)
	}

	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, src, bounds.Min, draw.Src)
	return gray, nil
}

// fitWithin scales img down so neither side exceeds maxEdge. Smaller images
// are returned unchanged.
func fitWithin(img *image.Gray, maxEdge int) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxEdge <= 0 || (w <= maxEdge && h <= maxEdge) {
		return img
	}
	if w >= h {
		h = max(1, h*maxEdge/w)
		w = maxEdge
	} else {
		w = max(1, w*maxEdge/h)
		h = maxEdge
	}
	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// grayscalePNG returns the grayscale version of the image encoded as PNG,
// the one format every OCR backend accepts.
func grayscalePNG(r io.Reader, maxPixels int64, maxEdge int) ([]byte, error) {
	gray, err := Grayscale(r, maxPixels)
	if err != nil {
		return nil, err
	}
	gray = fitWithin(gray, maxEdge)
	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
