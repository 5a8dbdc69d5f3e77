package detection

import "image"

// Bounds represents a rectangular bounding box in working-copy pixels.
//
// The coordinate convention follows standard image bounds:
//   - (X1, Y1) is the top-left corner (inclusive)
//   - (X2, Y2) is the bottom-right corner (exclusive)
type Bounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Width returns the horizontal extent in pixels.
func (b Bounds) Width() int { return b.X2 - b.X1 }

// Height returns the vertical extent in pixels.
func (b Bounds) Height() int { return b.Y2 - b.Y1 }

// Area returns Width * Height.
func (b Bounds) Area() int { return b.Width() * b.Height() }

// Rect converts the bounds to an image.Rectangle.
func (b Bounds) Rect() image.Rectangle { return image.Rect(b.X1, b.Y1, b.X2, b.Y2) }

// BoundsOf returns the smallest box containing every point of c.
func BoundsOf(c Contour) Bounds {
	if len(c) == 0 {
		return Bounds{}
	}
	b := Bounds{X1: c[0].X, Y1: c[0].Y, X2: c[0].X, Y2: c[0].Y}
	for _, p := range c[1:] {
		b.X1 = min(b.X1, p.X)
		b.Y1 = min(b.Y1, p.Y)
		b.X2 = max(b.X2, p.X)
		b.Y2 = max(b.Y2, p.Y)
	}
	// Points are pixel centres, so the far edge lies one pixel further out.
	b.X2++
	b.Y2++
	return b
}

// Region is a classified contour.
type Region struct {
	// Index is the position of the contour in detection order.
	Index int `json:"index"`

	// Contour is the outline in working-copy coordinates.
	Contour Contour `json:"contour"`

	// Bounds is the axis-aligned bounding box of the contour.
	Bounds Bounds `json:"bounds"`

	// AreaPct is the bounding-box area as a percentage of the working copy.
	AreaPct float64 `json:"area_pct"`

	// Accepted is true when AreaPct lies strictly between the size limits.
	Accepted bool `json:"accepted"`
}

// Classify measures a contour against the working copy and decides whether
// it is a photo. The size test is strict on both sides:
// minSize < AreaPct < maxSize.
func Classify(c Contour, workW, workH int, minSize, maxSize float64) Region {
	b := BoundsOf(c)
	var pct float64
	if total := workW * workH; total > 0 {
		pct = float64(b.Area()) / float64(total) * 100
	}
	return Region{
		Contour:  c,
		Bounds:   b,
		AreaPct:  pct,
		Accepted: minSize < pct && pct < maxSize,
	}
}
