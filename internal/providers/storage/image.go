package storage

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

type ImageOptions struct {
	MaxWidth  int
	MaxHeight int
	Quality   float32
}

// NormalizeImage decodes jpeg, png or webp input, honours EXIF orientation,
// shrinks it to fit MaxWidth x MaxHeight and re-encodes it as lossy WebP.
func NormalizeImage(r io.Reader, opts ImageOptions) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrUnsupportedFormat
	}

	img = fitWithin(img, opts.MaxWidth, opts.MaxHeight)

	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = 80
	}
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func fitWithin(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	if maxW <= 0 {
		maxW = b.Dx()
	}
	if maxH <= 0 {
		maxH = b.Dy()
	}
	if b.Dx() <= maxW && b.Dy() <= maxH {
		return img
	}
	return imaging.Fit(img, maxW, maxH, imaging.Lanczos)
}
