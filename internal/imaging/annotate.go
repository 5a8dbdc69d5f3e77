package imaging

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Outline is a closed polygon to draw over an image, with an optional
// numeric label placed at its first vertex.
type Outline struct {
	Points []image.Point
	Color  color.RGBA
	Label  string
}

// DrawOutlines returns a copy of img with every outline traced on top.
// Lines are thickness pixels wide; labels use a small built-in digit font.
func DrawOutlines(img image.Image, outlines []Outline, thickness int) *image.NRGBA {
	out := imaging.Clone(img)
	if thickness < 1 {
		thickness = 1
	}

	for _, o := range outlines {
		n := len(o.Points)
		switch n {
		case 0:
			continue
		case 1:
			drawLine(out, o.Points[0], o.Points[0], o.Color, thickness)
		default:
			for i := 0; i < n; i++ {
				drawLine(out, o.Points[i], o.Points[(i+1)%n], o.Color, thickness)
			}
		}
	}

	labelFg := color.RGBA{255, 255, 255, 255}
	for _, o := range outlines {
		if o.Label == "" || len(o.Points) == 0 {
			continue
		}
		p := o.Points[0]
		drawLabel(out, p.X+thickness+1, p.Y+thickness+1, o.Label, labelFg, o.Color)
	}
	return out
}

// drawLine draws a Bresenham line with a square brush.
func drawLine(img *image.NRGBA, p0, p1 image.Point, c color.RGBA, thickness int) {
	dx := abs(p1.X - p0.X)
	dy := -abs(p1.Y - p0.Y)
	sx, sy := 1, 1
	if p0.X > p1.X {
		sx = -1
	}
	if p0.Y > p1.Y {
		sy = -1
	}
	err := dx + dy
	x, y := p0.X, p0.Y
	half := thickness / 2

	for {
		for by := -half; by < thickness-half; by++ {
			for bx := -half; bx < thickness-half; bx++ {
				setPixel(img, x+bx, y+by, c)
			}
		}
		if x == p1.X && y == p1.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func setPixel(img *image.NRGBA, x, y int, c color.RGBA) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	img.SetNRGBA(x, y, color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255})
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// drawLabel draws a simple text label at the given position.
// Only digits are rendered; other runes leave a gap.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.RGBA) {
	// 3x5 pixel font, drawn at 2x so it stays readable on a 900px preview
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
	}
	const scale = 2

	charWidth := 4 * scale
	labelWidth := len(text) * charWidth
	labelHeight := 7 * scale

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			setPixel(img, x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel != '1' {
					continue
				}
				for sy := 0; sy < scale; sy++ {
					for sx := 0; sx < scale; sx++ {
						setPixel(img, cx+col*scale+sx, y+row*scale+sy, fg)
					}
				}
			}
		}
		cx += charWidth
	}
}
