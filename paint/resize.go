package paint

import (
	"image"
	"log/slog"
	"math"

	"golang.org/x/image/draw"
)

// downscale shrinks img to fit within width×height, keeping its aspect
// ratio. A zero bound leaves that dimension free. Images already within
// bounds are returned unchanged.
func downscale(logger *slog.Logger, img image.Image, width, height int) image.Image {
	srcBounds := img.Bounds()
	srcWidth := float64(srcBounds.Dx())
	srcHeight := float64(srcBounds.Dy())

	scale := 1.0
	if width > 0 {
		scale = min(scale, float64(width)/srcWidth)
	}
	if height > 0 {
		scale = min(scale, float64(height)/srcHeight)
	}
	if scale >= 1 {
		return img
	}

	destWidth := max(1, int(math.Round(srcWidth*scale)))
	destHeight := max(1, int(math.Round(srcHeight*scale)))

	logger.Info("downscaling training source", "width", destWidth, "height", destHeight)
	dest := image.NewNRGBA(image.Rect(0, 0, destWidth, destHeight))
	draw.CatmullRom.Scale(dest, dest.Bounds(), img, srcBounds, draw.Src, nil)

	return dest
}
