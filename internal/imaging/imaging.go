// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging inspects uploaded images and generates downscaled
// variants for the editor's media picker. Variants wider than the source
// are skipped to avoid upscaling.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register the GIF decoder
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register the WebP decoder
)

// ErrUnsupported is returned for data that is not a decodable image.
var ErrUnsupported = errors.New("unsupported image format")

// Variant describes a single output size.
type Variant struct {
	Name    string // e.g. "thumb"
	Width   int    // target width in pixels
	Quality int    // JPEG quality 1-100
}

// DefaultVariants are generated for every upload.
var DefaultVariants = []Variant{
	{Name: "thumb", Width: 320, Quality: 80},
}

// Info describes a decoded upload.
type Info struct {
	Format string // "jpeg", "png", "gif" or "webp"
	Width  int
	Height int
}

// ContentType returns the MIME type of the format.
func (i Info) ContentType() string {
	return "image/" + i.Format
}

// ProcessedImage holds one generated variant ready for upload.
type ProcessedImage struct {
	Name        string
	Width       int
	Height      int
	Data        []byte
	ContentType string // image/jpeg, or image/png for sources with transparency
}

// Probe reads the format and dimensions without decoding pixel data.
func Probe(data []byte) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("imaging: %w: %v", ErrUnsupported, err)
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// GenerateVariants decodes original and produces one image per variant.
// Variants at or above the original width are produced at the original
// size, and larger variants after that are skipped.
func GenerateVariants(original []byte, variants []Variant) ([]ProcessedImage, error) {
	if len(variants) == 0 {
		variants = DefaultVariants
	}

	src, _, err := image.Decode(bytes.NewReader(original))
	if err != nil {
		return nil, fmt.Errorf("imaging: %w: %v", ErrUnsupported, err)
	}
	origWidth := src.Bounds().Dx()
	opaque := isOpaque(src)

	var results []ProcessedImage
	for _, v := range variants {
		targetWidth := min(v.Width, origWidth)
		img := Resize(src, targetWidth)

		var buf bytes.Buffer
		contentType := "image/jpeg"
		if opaque {
			err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: v.Quality})
		} else {
			contentType = "image/png"
			err = png.Encode(&buf, img)
		}
		if err != nil {
			return nil, fmt.Errorf("imaging: encode %s: %w", v.Name, err)
		}

		b := img.Bounds()
		results = append(results, ProcessedImage{
			Name:        v.Name,
			Width:       b.Dx(),
			Height:      b.Dy(),
			Data:        buf.Bytes(),
			ContentType: contentType,
		})

		if origWidth <= v.Width {
			break
		}
	}
	return results, nil
}

// Resize scales src to width, keeping the aspect ratio.
func Resize(src image.Image, width int) image.Image {
	b := src.Bounds()
	if width <= 0 || b.Dx() == 0 {
		return src
	}
	height := max(1, b.Dy()*width/b.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// isOpaque reports whether every pixel of img is fully opaque.
func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}
