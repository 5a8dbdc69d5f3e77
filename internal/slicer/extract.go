package slicer

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/ironsheep/scan-slicer/internal/detection"
	"github.com/ironsheep/scan-slicer/internal/imaging"
)

// ErrDegenerateRegion is returned when a region cannot produce a slice with
// any pixels in it.
var ErrDegenerateRegion = errors.New("degenerate region")

// fillColor paints pixels a straightened slice has no source for.
var fillColor = color.NRGBA{255, 255, 255, 255}

// Slice is one photo cut out of a scan.
type Slice struct {
	Image image.Image

	// Rect is the minimum-area rectangle of the region in source pixels.
	Rect imaging.RotatedRect

	// Straightened is true when the perspective transform was used instead
	// of an axis-aligned crop.
	Straightened bool
}

// SourcePolygon maps a working-copy contour to source-image coordinates.
func SourcePolygon(c detection.Contour, scaleX, scaleY float64) []imaging.PointF {
	out := make([]imaging.PointF, len(c))
	for i, p := range c {
		out[i] = imaging.PointF{X: float64(p.X) * scaleX, Y: float64(p.Y) * scaleY}
	}
	return out
}

// ShouldStraighten reports whether a region tilted by tilt degrees gets the
// perspective transform under the given margin.
func ShouldStraighten(perspectiveFix int, tilt float64) bool {
	p := float64(perspectiveFix)
	return perspectiveFix > 0 && p < tilt && tilt < 90-p
}

// ExtractSlice cuts the region described by polygon (source coordinates) out
// of src. Regions tilted inside the perspective-fix window are straightened
// onto an upright rectangle; all others are cropped to their bounding box.
func ExtractSlice(src image.Image, polygon []imaging.PointF, perspectiveFix int) (*Slice, error) {
	if len(polygon) == 0 {
		return nil, fmt.Errorf("%w: empty polygon", ErrDegenerateRegion)
	}
	rect := imaging.MinAreaRect(polygon)

	if ShouldStraighten(perspectiveFix, rect.Tilt()) {
		if rect.Width < 1 || rect.Height < 1 {
			return nil, fmt.Errorf("%w: %.1fx%.1f rectangle", ErrDegenerateRegion, rect.Width, rect.Height)
		}
		img, err := imaging.FourPointTransform(src, rect.Corners, fillColor)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDegenerateRegion, err)
		}
		return &Slice{Image: img, Rect: rect, Straightened: true}, nil
	}

	img, err := imaging.Crop(src, boundingRect(polygon).Add(src.Bounds().Min))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDegenerateRegion, err)
	}
	return &Slice{Image: img, Rect: rect}, nil
}

// boundingRect returns the integer pixel box covering every point.
func boundingRect(pts []imaging.PointF) image.Rectangle {
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = min(minX, p.X)
		minY = min(minY, p.Y)
		maxX = max(maxX, p.X)
		maxY = max(maxY, p.Y)
	}
	return image.Rect(int(minX), int(minY), int(maxX)+1, int(maxY)+1)
}
