package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/mat"
)

// ErrDegenerateQuad is returned when four corners do not span an area that
// can be mapped onto a rectangle.
var ErrDegenerateQuad = errors.New("degenerate quadrilateral")

// Homography is a 3x3 projective transform stored row-major with h[8] == 1.
type Homography [9]float64

// Apply maps (x, y) through the transform.
func (h Homography) Apply(x, y float64) (float64, float64, bool) {
	w := h[6]*x + h[7]*y + h[8]
	if math.Abs(w) < 1e-12 {
		return 0, 0, false
	}
	return (h[0]*x + h[1]*y + h[2]) / w, (h[3]*x + h[4]*y + h[5]) / w, true
}

// SolveHomography computes the transform that maps each from[i] onto to[i].
// It solves the standard 8x8 linear system; a singular system means the
// points are collinear or coincident.
func SolveHomography(from, to [4]PointF) (Homography, error) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := from[i].X, from[i].Y
		u, v := to[i].X, to[i].Y
		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0, -u * x, -u * y})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1, -v * x, -v * y})
		b.SetVec(2*i, u)
		b.SetVec(2*i+1, v)
	}

	var sol mat.VecDense
	if err := sol.SolveVec(a, b); err != nil {
		return Homography{}, fmt.Errorf("%w: %v", ErrDegenerateQuad, err)
	}

	var h Homography
	for i := 0; i < 8; i++ {
		h[i] = sol.AtVec(i)
		if math.IsNaN(h[i]) || math.IsInf(h[i], 0) {
			return Homography{}, ErrDegenerateQuad
		}
	}
	h[8] = 1
	return h, nil
}

// QuadSize returns the output size of a four-point transform: the longer of
// each pair of opposite edges, rounded to whole pixels. Corners must be in
// top-left, top-right, bottom-right, bottom-left order.
func QuadSize(q [4]PointF) (int, int) {
	dist := func(a, b PointF) float64 { return math.Hypot(a.X-b.X, a.Y-b.Y) }
	w := math.Max(dist(q[2], q[3]), dist(q[1], q[0]))
	h := math.Max(dist(q[1], q[2]), dist(q[0], q[3]))
	return int(math.Round(w)), int(math.Round(h))
}

// FourPointTransform maps the quadrilateral q in src onto an upright
// rectangle sized by QuadSize. Corners must be in top-left, top-right,
// bottom-right, bottom-left order. Destination pixels whose source position
// falls outside src are painted with fill.
func FourPointTransform(src image.Image, q [4]PointF, fill color.Color) (*image.NRGBA, error) {
	w, h := QuadSize(q)
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("%w: %dx%d output", ErrDegenerateQuad, w, h)
	}

	dst := [4]PointF{
		{X: 0, Y: 0},
		{X: float64(w - 1), Y: 0},
		{X: float64(w - 1), Y: float64(h - 1)},
		{X: 0, Y: float64(h - 1)},
	}
	// Inverse mapping: for every output pixel find where it comes from.
	inv, err := SolveHomography(dst, q)
	if err != nil {
		return nil, err
	}

	return Warp(src, inv, w, h, fill), nil
}

// Warp samples src through the output-to-source transform inv with bilinear
// interpolation, producing a w x h image. Only the source window the output
// maps onto is copied.
func Warp(src image.Image, inv Homography, w, h int, fill color.Color) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	fr, fg, fb, fa := nrgbaOf(fill)

	sb := src.Bounds()
	sw, sh := sb.Dx(), sb.Dy()
	win := sourceWindow(inv, w, h, sw, sh)
	in := imaging.Crop(src, win.Add(sb.Min))
	ox, oy := float64(win.Min.X), float64(win.Min.Y)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := y*out.Stride + x*4
			sx, sy, ok := inv.Apply(float64(x), float64(y))
			if !ok || win.Empty() || sx < -0.5 || sy < -0.5 || sx > float64(sw)-0.5 || sy > float64(sh)-0.5 {
				out.Pix[off], out.Pix[off+1], out.Pix[off+2], out.Pix[off+3] = fr, fg, fb, fa
				continue
			}
			r, g, b, a := bilinear(in, sx-ox, sy-oy)
			out.Pix[off], out.Pix[off+1], out.Pix[off+2], out.Pix[off+3] = r, g, b, a
		}
	}
	return out
}

// sourceWindow returns the 0-based region of a sw x sh source that a w x h
// output samples through inv, padded for the bilinear neighbours. A
// rectangle maps onto the quadrilateral spanned by its mapped corners as
// long as the projective denominator keeps one sign over it; otherwise the
// whole source is returned.
func sourceWindow(inv Homography, w, h, sw, sh int) image.Rectangle {
	full := image.Rect(0, 0, sw, sh)
	corners := [4][2]float64{
		{0, 0},
		{float64(w - 1), 0},
		{float64(w - 1), float64(h - 1)},
		{0, float64(h - 1)},
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	var sign float64
	for _, c := range corners {
		d := inv[6]*c[0] + inv[7]*c[1] + inv[8]
		if sign == 0 {
			sign = math.Copysign(1, d)
		}
		if d*sign <= 0 {
			return full
		}
		x, y, ok := inv.Apply(c[0], c[1])
		if !ok || math.IsNaN(x) || math.IsNaN(y) {
			return full
		}
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}

	// Clamp before converting so far-off corners cannot overflow int.
	r := image.Rect(
		int(math.Floor(math.Max(minX, -2)))-1,
		int(math.Floor(math.Max(minY, -2)))-1,
		int(math.Floor(math.Min(maxX, float64(sw))))+3,
		int(math.Floor(math.Min(maxY, float64(sh))))+3,
	)
	return r.Intersect(full)
}

// bilinear samples img at a fractional position, clamping neighbours to the
// image edge.
func bilinear(img *image.NRGBA, x, y float64) (uint8, uint8, uint8, uint8) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)

	px := func(xx, yy int) []uint8 {
		xx = clamp(xx, 0, w-1)
		yy = clamp(yy, 0, h-1)
		i := yy*img.Stride + xx*4
		return img.Pix[i : i+4]
	}
	p00, p10 := px(x0, y0), px(x0+1, y0)
	p01, p11 := px(x0, y0+1), px(x0+1, y0+1)

	var c [4]uint8
	for i := 0; i < 4; i++ {
		top := float64(p00[i])*(1-fx) + float64(p10[i])*fx
		bot := float64(p01[i])*(1-fx) + float64(p11[i])*fx
		c[i] = uint8(math.Round(math.Max(0, math.Min(255, top*(1-fy)+bot*fy))))
	}
	return c[0], c[1], c[2], c[3]
}

func nrgbaOf(c color.Color) (uint8, uint8, uint8, uint8) {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return n.R, n.G, n.B, n.A
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
