// Package normalize turns uploaded site photos into layout-ready images:
// upright, opaque, padded to a fixed aspect ratio and bounded in size.
package normalize

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/disintegration/imaging"
)

const (
	// DefaultTargetRatio is the 4:3 width:height ratio every photo is padded to
	DefaultTargetRatio = 4.0 / 3.0
	// RatioTolerance is how close a ratio must be to count as already matching
	RatioTolerance = 1e-3
	// DefaultMaxPixels caps the longer side of embedded photos
	DefaultMaxPixels = 1400
	// DefaultJPEGQuality is the quality used when embedding photos
	DefaultJPEGQuality = 85
)

// ErrDecode is returned when the uploaded bytes are not a readable image
var ErrDecode = errors.New("unable to decode image")

// Fill is the neutral padding color
var Fill = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// FixOrientation decodes data and applies the EXIF orientation tag, if any,
// so the pixels are upright and no metadata needs to travel with them.
// Missing or unparseable EXIF data is ignored; only decode failures error.
func FixOrientation(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return img, nil
}

// Flatten composites img onto the fill color, dropping any alpha channel
func Flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), Fill)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}

// Ratio returns width/height of img, or 0 for an empty image
func Ratio(img image.Image) float64 {
	b := img.Bounds()
	if b.Dy() == 0 {
		return 0
	}
	return float64(b.Dx()) / float64(b.Dy())
}

// PadToRatio extends the shorter dimension of img with the fill color until
// width/height equals target, centering the original. Nothing is cropped.
// Images already within RatioTolerance of target are returned unchanged.
func PadToRatio(img image.Image, target float64) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 || target <= 0 {
		return img
	}

	current := float64(w) / float64(h)
	if math.Abs(current-target) < RatioTolerance {
		return img
	}

	newW, newH := w, h
	if current > target {
		// relatively wide: grow the height
		newH = int(math.Round(float64(w) / target))
	} else {
		newW = int(math.Round(float64(h) * target))
	}

	canvas := imaging.New(newW, newH, Fill)
	offset := image.Pt((newW-w)/2, (newH-h)/2)
	return imaging.Overlay(canvas, img, offset, 1.0)
}

// Downsample shrinks img proportionally so its longer side equals maxPixels.
// Images already within the cap pass through.
func Downsample(img image.Image, maxPixels int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxPixels <= 0 || (w <= maxPixels && h <= maxPixels) {
		return img
	}

	newW, newH := scaledDimensions(w, h, maxPixels)
	return imaging.Resize(img, newW, newH, imaging.Lanczos)
}

func scaledDimensions(w, h, maxPixels int) (int, int) {
	var newW, newH int
	if w >= h {
		newW = maxPixels
		newH = int(float64(h) * (float64(maxPixels) / float64(w)))
	} else {
		newH = maxPixels
		newW = int(float64(w) * (float64(maxPixels) / float64(h)))
	}

	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}
	return newW, newH
}

// Encode serializes img as JPEG at the given quality
func Encode(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}

	return buf.Bytes(), nil
}

// Normalize is the attach-time pipeline: decode upright, flatten, pad
func Normalize(data []byte, target float64) (image.Image, error) {
	img, err := FixOrientation(data)
	if err != nil {
		return nil, err
	}

	return PadToRatio(Flatten(img), target), nil
}

// PrepareForLayout pads and downsamples an attached image before embedding.
// The pad step is a no-op for images that already went through Normalize.
func PrepareForLayout(img image.Image, target float64, maxPixels int) image.Image {
	return Downsample(PadToRatio(img, target), maxPixels)
}

// Embed returns the JPEG bytes the composers place into a cell
func Embed(img image.Image, target float64, maxPixels, quality int) ([]byte, error) {
	return Encode(PrepareForLayout(img, target, maxPixels), quality)
}
