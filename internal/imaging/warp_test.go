package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveHomography_Identity(t *testing.T) {
	sq := [4]PointF{{0, 0}, {10, 0}, {10, 10}, {0, 10}}

	h, err := SolveHomography(sq, sq)
	require.NoError(t, err)
	x, y, ok := h.Apply(3, 7)
	require.True(t, ok)
	assert.InDelta(t, 3, x, 1e-9)
	assert.InDelta(t, 7, y, 1e-9)
}

func TestSolveHomography_Translation(t *testing.T) {
	from := [4]PointF{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	to := [4]PointF{{5, 2}, {15, 2}, {15, 12}, {5, 12}}

	h, err := SolveHomography(from, to)
	require.NoError(t, err)
	x, y, _ := h.Apply(1, 1)
	assert.InDelta(t, 6, x, 1e-9)
	assert.InDelta(t, 3, y, 1e-9)
}

func TestSolveHomography_Degenerate(t *testing.T) {
	from := [4]PointF{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	collapsed := [4]PointF{{1, 1}, {1, 1}, {1, 1}, {1, 1}}

	_, err := SolveHomography(collapsed, from)
	assert.ErrorIs(t, err, ErrDegenerateQuad)
}

func TestQuadSize(t *testing.T) {
	w, h := QuadSize([4]PointF{{0, 0}, {99, 0}, {99, 49}, {0, 49}})
	assert.Equal(t, 99, w)
	assert.Equal(t, 49, h)
}

func TestFourPointTransform_AxisAligned(t *testing.T) {
	img := createInMemoryImage(40, 40, color.White)
	for y := 10; y < 30; y++ {
		for x := 10; x < 30; x++ {
			img.Set(x, y, color.Black)
		}
	}

	out, err := FourPointTransform(img, [4]PointF{{10, 10}, {29, 10}, {29, 29}, {10, 29}}, color.White)
	require.NoError(t, err)
	assert.Equal(t, 19, out.Bounds().Dx())
	assert.Equal(t, 19, out.Bounds().Dy())
	for _, p := range [][2]int{{0, 0}, {18, 0}, {9, 9}, {18, 18}} {
		assert.Equal(t, color.NRGBA{0, 0, 0, 255}, out.NRGBAAt(p[0], p[1]), "pixel %v", p)
	}
}

func TestFourPointTransform_FillsOutside(t *testing.T) {
	img := createInMemoryImage(20, 20, color.Black)

	// A quad that reaches well past the left edge of the image.
	out, err := FourPointTransform(img, [4]PointF{{-20, 0}, {19, 0}, {19, 19}, {-20, 19}}, color.White)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, out.NRGBAAt(0, 5))
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, out.NRGBAAt(out.Bounds().Dx()-1, 5))
}

func TestFourPointTransform_Degenerate(t *testing.T) {
	img := createInMemoryImage(20, 20, color.Black)

	_, err := FourPointTransform(img, [4]PointF{{5, 5}, {5, 5}, {5, 5}, {5, 5}}, color.White)
	assert.ErrorIs(t, err, ErrDegenerateQuad)
}

// warpFull samples the whole cloned source, the way Warp worked before it
// cropped to the sampled window.
func warpFull(src image.Image, inv Homography, w, h int, fill color.Color) *image.NRGBA {
	in := imaging.Clone(src)
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	fr, fg, fb, fa := nrgbaOf(fill)
	sw, sh := in.Bounds().Dx(), in.Bounds().Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := y*out.Stride + x*4
			sx, sy, ok := inv.Apply(float64(x), float64(y))
			if !ok || sx < -0.5 || sy < -0.5 || sx > float64(sw)-0.5 || sy > float64(sh)-0.5 {
				out.Pix[off], out.Pix[off+1], out.Pix[off+2], out.Pix[off+3] = fr, fg, fb, fa
				continue
			}
			out.Pix[off], out.Pix[off+1], out.Pix[off+2], out.Pix[off+3] = bilinear(in, sx, sy)
		}
	}
	return out
}

// patterned returns an offset image where every pixel differs from its
// neighbours.
func patterned(r image.Rectangle) *image.NRGBA {
	img := image.NewNRGBA(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 7), uint8(y * 13), uint8(x ^ y), 255})
		}
	}
	return img
}

func TestWarp_MatchesFullSource(t *testing.T) {
	big := patterned(image.Rect(0, 0, 1200, 900))
	src := big.SubImage(image.Rect(100, 50, 1100, 850))

	tests := []struct {
		name string
		quad [4]PointF
	}{
		{"tilted inside", [4]PointF{{300, 200}, {520, 260}, {480, 410}, {260, 350}}},
		{"touching the corner", [4]PointF{{0, 0}, {120, 10}, {110, 90}, {-5, 80}}},
		{"past the right edge", [4]PointF{{900, 600}, {1040, 620}, {1030, 790}, {890, 770}}},
		{"keystone", [4]PointF{{400, 300}, {600, 300}, {650, 500}, {350, 500}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := OrderCorners(tt.quad)
			w, h := QuadSize(q)
			dst := [4]PointF{{0, 0}, {float64(w - 1), 0}, {float64(w - 1), float64(h - 1)}, {0, float64(h - 1)}}
			inv, err := SolveHomography(dst, q)
			require.NoError(t, err)

			got := Warp(src, inv, w, h, color.White)
			want := warpFull(src, inv, w, h, color.White)
			assert.Equal(t, want.Pix, got.Pix)
		})
	}
}

func TestSourceWindow(t *testing.T) {
	q := [4]PointF{{300, 200}, {520, 260}, {480, 410}, {260, 350}}
	w, h := QuadSize(q)
	dst := [4]PointF{{0, 0}, {float64(w - 1), 0}, {float64(w - 1), float64(h - 1)}, {0, float64(h - 1)}}
	inv, err := SolveHomography(dst, q)
	require.NoError(t, err)

	win := sourceWindow(inv, w, h, 5000, 4000)
	assert.True(t, win.In(image.Rect(255, 195, 525, 415)), "window %v hugs the quad", win)
	assert.True(t, image.Rect(260, 200, 520, 410).In(win), "window %v covers the quad", win)

	// A window clipped by the source edge.
	win = sourceWindow(inv, w, h, 400, 300)
	assert.Equal(t, image.Pt(400, 300), win.Max)
	assert.InDelta(t, 258, win.Min.X, 1)
	assert.InDelta(t, 198, win.Min.Y, 1)
}
