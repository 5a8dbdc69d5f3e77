package imaging

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Rotation selects the direction of a quarter turn.
type Rotation string

const (
	RotateNone Rotation = "disable"
	RotateCW   Rotation = "cw"
	RotateCCW  Rotation = "ccw"
)

// WorkingCopy downsizes img to at most maxWidth pixels wide, keeping the
// aspect ratio. Narrower images are cloned unchanged; the working copy is
// never upscaled.
func WorkingCopy(img image.Image, maxWidth int) *image.NRGBA {
	w := img.Bounds().Dx()
	if maxWidth <= 0 || w <= maxWidth {
		return imaging.Clone(img)
	}
	return imaging.Resize(img, maxWidth, 0, imaging.Box)
}

// ScaleBy resizes img by factor using box (area) resampling. A factor of 0
// or 1 returns img unchanged.
func ScaleBy(img image.Image, factor float64) image.Image {
	if factor <= 0 || factor == 1 {
		return img
	}
	b := img.Bounds()
	w := int(math.Max(1, math.Round(float64(b.Dx())*factor)))
	h := int(math.Max(1, math.Round(float64(b.Dy())*factor)))
	return imaging.Resize(img, w, h, imaging.Box)
}

// FitWidth shrinks img to width pixels wide keeping the aspect ratio.
// Images already at or below width are returned unchanged.
func FitWidth(img image.Image, width int) image.Image {
	if width <= 0 || img.Bounds().Dx() <= width {
		return img
	}
	return imaging.Resize(img, width, 0, imaging.Lanczos)
}

// FitHeight shrinks img to height pixels tall keeping the aspect ratio.
// Images already at or below height are returned unchanged.
func FitHeight(img image.Image, height int) image.Image {
	if height <= 0 || img.Bounds().Dy() <= height {
		return img
	}
	return imaging.Resize(img, 0, height, imaging.Lanczos)
}

// FitView shrinks img so it fits inside a width x height viewing box.
// A zero dimension leaves that axis unconstrained.
func FitView(img image.Image, width, height int) image.Image {
	return FitHeight(FitWidth(img, width), height)
}

// AutoRotate turns portrait images (width < height) a quarter turn in the
// given direction. Landscape and square images, and RotateNone, are returned
// unchanged.
func AutoRotate(img image.Image, dir Rotation) image.Image {
	b := img.Bounds()
	if b.Dx() >= b.Dy() {
		return img
	}
	switch dir {
	case RotateCW:
		return imaging.Rotate270(img)
	case RotateCCW:
		return imaging.Rotate90(img)
	}
	return img
}
