// Package screenshot saves a PNG of the page with the highlight overlays
// visible, downscaled for sharing with humans or vision models.
package screenshot

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/go-rod/rod"
	"github.com/nfnt/resize"
)

// Options configures screenshot capture.
type Options struct {
	// MaxWidth downscales wider captures, preserving aspect ratio.
	// 0 keeps the original size.
	MaxWidth uint
}

// Capture screenshots the current viewport and writes it to outputPath.
// Returns the file size in bytes.
func Capture(ctx context.Context, page *rod.Page, outputPath string, opts Options) (int64, error) {
	data, err := page.Context(ctx).Screenshot(false, nil)
	if err != nil {
		return 0, fmt.Errorf("screenshot: capture: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("screenshot: decode: %w", err)
	}

	img = Downscale(img, opts.MaxWidth)

	f, err := os.Create(outputPath)
	if err != nil {
		return 0, fmt.Errorf("screenshot: create %s: %w", outputPath, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return 0, fmt.Errorf("screenshot: encode: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Downscale resizes the image to maxWidth when it is wider, preserving
// aspect ratio. No-op for 0 or already-narrow images.
func Downscale(img image.Image, maxWidth uint) image.Image {
	if maxWidth == 0 {
		return img
	}
	bounds := img.Bounds()
	if uint(bounds.Dx()) <= maxWidth {
		return img
	}
	aspect := float64(bounds.Dy()) / float64(bounds.Dx())
	height := uint(float64(maxWidth) * aspect)
	return resize.Resize(maxWidth, height, img, resize.Lanczos3)
}
