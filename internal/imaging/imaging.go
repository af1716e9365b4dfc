// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging prepares an uploaded child photo for embedding into a
// storybook. It validates the upload, compresses it to a bounded JPEG and
// derives circular PNG crops for display and thumbnail use. All outputs
// are returned as data URLs so they can be embedded without file I/O.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"net/http"
	"strings"

	_ "golang.org/x/image/webp" // register WebP decoder
	"golang.org/x/image/draw"

	"storybook/internal/models"
)

const (
	// MaxUploadSize is the largest photo accepted (5 MB).
	MaxUploadSize = 5 << 20

	// MaxDimension bounds both sides of the compressed original.
	MaxDimension = 1200

	// JPEGQuality is the quality factor of the compressed original.
	JPEGQuality = 80

	// maxImagePixels caps decoded size to prevent memory bombs.
	// 10000x10000 = 100 million pixels, ~400 MB decoded in RGBA.
	maxImagePixels = 100_000_000
)

// Variant describes one circular crop.
type Variant struct {
	Name string
	Size int // edge length of the square output in pixels
}

var (
	// DisplayCircle is the circular crop embedded on story pages.
	DisplayCircle = Variant{Name: "circular", Size: 400}
	// ThumbnailCircle is the small crop used in history listings.
	ThumbnailCircle = Variant{Name: "thumbnail", Size: 100}
)

// acceptedTypes are the MIME types a photo upload may have.
var acceptedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// IsAccepted reports whether contentType is an accepted photo format.
func IsAccepted(contentType string) bool {
	return acceptedTypes[NormalizeType(contentType)]
}

// NormalizeType lower-cases a MIME type, strips parameters and maps the
// common "image/jpg" alias.
func NormalizeType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i != -1 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "image/jpg" || ct == "image/pjpeg" {
		return "image/jpeg"
	}
	return ct
}

// DetectType returns the declared type when it is specific, and sniffs
// the first bytes otherwise.
func DetectType(data []byte, declared string) string {
	ct := NormalizeType(declared)
	if ct != "" && ct != "application/octet-stream" {
		return ct
	}
	return NormalizeType(http.DetectContentType(data))
}

// Validate rejects photos with an unaccepted type or above MaxUploadSize.
// Errors wrap both models.ErrInvalidPhoto and models.ErrValidation.
func Validate(contentType string, size int64) error {
	if !IsAccepted(contentType) {
		return invalid("Please upload a JPEG, PNG or WebP image.")
	}
	if size <= 0 {
		return invalid("The photo is empty.")
	}
	if size > MaxUploadSize {
		return invalid("The photo is too large. Maximum size is 5 MB.")
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %w", models.ErrInvalidPhoto, models.NewValidationError("photo", msg))
}

// Step is a finished stage of Process.
type Step int

const (
	StepValidated Step = iota + 1
	StepCompressed
)

// Process runs the full pipeline: validate, compress, then derive the
// display and thumbnail circles. onStep, when set, is called after each
// stage and aborts the pipeline by returning an error. No partial result
// is returned.
func Process(data []byte, contentType string, onStep func(Step) error) (*models.ProcessedPhoto, error) {
	if onStep == nil {
		onStep = func(Step) error { return nil }
	}

	ct := DetectType(data, contentType)
	if err := Validate(ct, int64(len(data))); err != nil {
		return nil, err
	}
	if err := onStep(StepValidated); err != nil {
		return nil, err
	}

	original, err := Compress(data)
	if err != nil {
		return nil, err
	}
	if err := onStep(StepCompressed); err != nil {
		return nil, err
	}

	circle, err := CircularCrop(original, DisplayCircle.Size)
	if err != nil {
		return nil, err
	}
	thumb, err := CircularCrop(original, ThumbnailCircle.Size)
	if err != nil {
		return nil, err
	}

	return &models.ProcessedPhoto{
		Original:  DataURL("image/jpeg", original),
		Circular:  DataURL("image/png", circle),
		Thumbnail: DataURL("image/png", thumb),
	}, nil
}

// Compress decodes an image, shrinks it so neither side exceeds
// MaxDimension (never upscaling) and re-encodes it as JPEG. Transparent
// areas are flattened onto white.
func Compress(data []byte) ([]byte, error) {
	img, err := decode(data)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	w, h := FitWithin(bounds.Dx(), bounds.Dy(), MaxDimension)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("%w: encode jpeg: %v", models.ErrProcessing, err)
	}
	return buf.Bytes(), nil
}

// FitWithin scales w×h down, preserving aspect ratio, until neither side
// exceeds max. Images already within bounds are returned unchanged.
func FitWithin(w, h, max int) (int, int) {
	if w <= max && h <= max {
		return w, h
	}
	ratio := math.Min(float64(max)/float64(w), float64(max)/float64(h))
	nw := int(math.Round(float64(w) * ratio))
	nh := int(math.Round(float64(h) * ratio))
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}

// CircularCrop cover-fits the image into a size×size square, centred,
// and clips it to a circle. The corners are transparent in the PNG output.
func CircularCrop(data []byte, size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: invalid crop size %d", models.ErrProcessing, size)
	}
	img, err := decode(data)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	scale := math.Max(float64(size)/float64(bounds.Dx()), float64(size)/float64(bounds.Dy()))
	sw := int(math.Ceil(float64(bounds.Dx()) * scale))
	sh := int(math.Ceil(float64(bounds.Dy()) * scale))
	offX := (size - sw) / 2
	offY := (size - sh) / 2

	square := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(square, image.Rect(offX, offY, offX+sw, offY+sh), img, bounds, draw.Src, nil)

	out := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.DrawMask(out, out.Bounds(), square, image.Point{}, circleMask(size), image.Point{}, draw.Over)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("%w: encode png: %v", models.ErrProcessing, err)
	}
	return buf.Bytes(), nil
}

// circleMask returns an alpha mask of a circle inscribed in a size×size
// square with a one-pixel anti-aliased edge.
func circleMask(size int) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, size, size))
	r := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) + 0.5 - r
			dy := float64(y) + 0.5 - r
			coverage := r - math.Sqrt(dx*dx+dy*dy) + 0.5
			switch {
			case coverage >= 1:
				mask.SetAlpha(x, y, color.Alpha{A: 0xff})
			case coverage > 0:
				mask.SetAlpha(x, y, color.Alpha{A: uint8(coverage * 0xff)})
			}
		}
	}
	return mask
}

// Dimensions returns the pixel size of an encoded image without fully
// decoding it.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: decode config: %v", models.ErrProcessing, err)
	}
	return cfg.Width, cfg.Height, nil
}

// decode checks the pixel budget before fully decoding data.
func decode(data []byte) (image.Image, error) {
	w, h, err := Dimensions(data)
	if err != nil {
		return nil, err
	}
	if int64(w)*int64(h) > maxImagePixels {
		return nil, fmt.Errorf("%w: image too large: %dx%d exceeds %d pixels", models.ErrProcessing, w, h, maxImagePixels)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %v", models.ErrProcessing, err)
	}
	return img, nil
}
