package imaging

import (
	"math"
	"sort"
)

// PointF is a point in source-image pixel space with sub-pixel precision.
type PointF struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RotatedRect is the minimum-area rectangle enclosing a point set.
type RotatedRect struct {
	Center PointF `json:"center"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// Angle is the rotation in degrees, in the range (-90, 0].
	// An axis-aligned rectangle has angle 0.
	Angle float64 `json:"angle"`

	// Corners are ordered top-left, top-right, bottom-right, bottom-left.
	Corners [4]PointF `json:"corners"`
}

// Tilt is the absolute rotation of the rectangle in degrees, in [0, 90).
func (r RotatedRect) Tilt() float64 {
	return math.Abs(r.Angle)
}

// ConvexHull returns the convex hull of pts in counter-clockwise order using
// the monotone chain algorithm. Collinear points on hull edges are dropped.
func ConvexHull(pts []PointF) []PointF {
	if len(pts) < 3 {
		out := make([]PointF, len(pts))
		copy(out, pts)
		return out
	}

	sorted := make([]PointF, len(pts))
	copy(sorted, pts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})

	cross := func(o, a, b PointF) float64 {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	hull := make([]PointF, 0, 2*len(sorted))
	for _, p := range sorted {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(sorted) - 2; i >= 0; i-- {
		p := sorted[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// MinAreaRect finds the smallest rectangle enclosing pts using rotating
// calipers over the convex hull: the optimal rectangle has one side
// collinear with a hull edge.
//
// Fewer than three distinct points produce a degenerate rectangle with zero
// width or height; callers check for that before warping.
func MinAreaRect(pts []PointF) RotatedRect {
	hull := ConvexHull(pts)
	switch len(hull) {
	case 0:
		return RotatedRect{}
	case 1:
		return rectFromAxes(hull, 0)
	case 2:
		return rectFromAxes(hull, math.Atan2(hull[1].Y-hull[0].Y, hull[1].X-hull[0].X))
	}

	best := math.Inf(1)
	bestTheta := 0.0
	for i := range hull {
		a := hull[i]
		b := hull[(i+1)%len(hull)]
		theta := math.Atan2(b.Y-a.Y, b.X-a.X)
		ux, uy := math.Cos(theta), math.Sin(theta)

		minU, maxU := math.Inf(1), math.Inf(-1)
		minV, maxV := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			u := p.X*ux + p.Y*uy
			v := -p.X*uy + p.Y*ux
			minU, maxU = math.Min(minU, u), math.Max(maxU, u)
			minV, maxV = math.Min(minV, v), math.Max(maxV, v)
		}
		if area := (maxU - minU) * (maxV - minV); area < best-1e-9 {
			best = area
			bestTheta = theta
		}
	}
	return rectFromAxes(hull, bestTheta)
}

// rectFromAxes builds the bounding rectangle of pts aligned with the
// direction theta (radians).
func rectFromAxes(pts []PointF, theta float64) RotatedRect {
	// Fold the direction into [0, 90) degrees; the rectangle is the same for
	// any quarter-turn of its axes.
	deg := math.Mod(theta*180/math.Pi, 90)
	if deg < 0 {
		deg += 90
	}
	if deg > 90-1e-9 {
		deg = 0
	}
	rad := deg * math.Pi / 180
	ux, uy := math.Cos(rad), math.Sin(rad)

	minU, maxU := math.Inf(1), math.Inf(-1)
	minV, maxV := math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		u := p.X*ux + p.Y*uy
		v := -p.X*uy + p.Y*ux
		minU, maxU = math.Min(minU, u), math.Max(maxU, u)
		minV, maxV = math.Min(minV, v), math.Max(maxV, v)
	}

	at := func(u, v float64) PointF {
		return PointF{X: u*ux - v*uy, Y: u*uy + v*ux}
	}
	corners := [4]PointF{
		at(minU, minV),
		at(maxU, minV),
		at(maxU, maxV),
		at(minU, maxV),
	}

	angle := -deg
	if angle == 0 {
		angle = 0 // normalize -0
	}
	cu, cv := (minU+maxU)/2, (minV+maxV)/2
	return RotatedRect{
		Center:  at(cu, cv),
		Width:   maxU - minU,
		Height:  maxV - minV,
		Angle:   angle,
		Corners: OrderCorners(corners),
	}
}

// OrderCorners sorts four corners into top-left, top-right, bottom-right,
// bottom-left order. The corners are first put in clockwise order around
// their centroid, then the cycle is rotated to start at the corner with the
// smallest x+y (smallest y on a tie, as for a square turned 45 degrees).
func OrderCorners(c [4]PointF) [4]PointF {
	var cx, cy float64
	for _, p := range c {
		cx += p.X / 4
		cy += p.Y / 4
	}
	pts := c[:]
	sort.Slice(pts, func(i, j int) bool {
		return math.Atan2(pts[i].Y-cy, pts[i].X-cx) < math.Atan2(pts[j].Y-cy, pts[j].X-cx)
	})

	start := 0
	const eps = 1e-9
	for i := 1; i < 4; i++ {
		si, ss := pts[i].X+pts[i].Y, pts[start].X+pts[start].Y
		if si < ss-eps || (math.Abs(si-ss) <= eps && pts[i].Y < pts[start].Y) {
			start = i
		}
	}

	var out [4]PointF
	for i := range out {
		out[i] = pts[(start+i)%4]
	}
	return out
}
