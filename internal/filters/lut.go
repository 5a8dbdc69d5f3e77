package filters

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/parallel"
	"github.com/lucasb-eyer/go-colorful"
)

// LUT is a 3D color lookup table in the Adobe .cube layout.
type LUT struct {
	Title     string
	Size      int
	DomainMin [3]float64
	DomainMax [3]float64

	// Table holds Size^3 entries with red varying fastest, then green, then
	// blue.
	Table []colorful.Color
}

// LoadCube reads a .cube file from disk.
func LoadCube(path string) (*LUT, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLUT, err)
	}
	defer f.Close()

	lut, err := ParseCube(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lut, nil
}

// ParseCube parses a 3D .cube table. 1D tables are rejected.
func ParseCube(r io.Reader) (*LUT, error) {
	lut := &LUT{DomainMax: [3]float64{1, 1, 1}}
	sc := bufio.NewScanner(r)
	line := 0

	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)

		switch fields[0] {
		case "TITLE":
			lut.Title = strings.Trim(strings.TrimSpace(strings.TrimPrefix(text, "TITLE")), `"`)
		case "LUT_1D_SIZE":
			return nil, fmt.Errorf("%w: 1D tables are not supported", ErrInvalidLUT)
		case "LUT_3D_SIZE":
			if len(fields) != 2 {
				return nil, fmt.Errorf("%w: line %d: malformed LUT_3D_SIZE", ErrInvalidLUT, line)
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil || n < 2 || n > 256 {
				return nil, fmt.Errorf("%w: line %d: bad table size %q", ErrInvalidLUT, line, fields[1])
			}
			lut.Size = n
			lut.Table = make([]colorful.Color, 0, n*n*n)
		case "DOMAIN_MIN", "DOMAIN_MAX":
			v, err := parseTriple(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidLUT, line, err)
			}
			if fields[0] == "DOMAIN_MIN" {
				lut.DomainMin = v
			} else {
				lut.DomainMax = v
			}
		default:
			if lut.Size == 0 {
				return nil, fmt.Errorf("%w: line %d: data before LUT_3D_SIZE", ErrInvalidLUT, line)
			}
			v, err := parseTriple(fields)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidLUT, line, err)
			}
			if len(lut.Table) == cap(lut.Table) {
				return nil, fmt.Errorf("%w: line %d: more than %d entries", ErrInvalidLUT, line, cap(lut.Table))
			}
			lut.Table = append(lut.Table, colorful.Color{R: v[0], G: v[1], B: v[2]})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLUT, err)
	}

	if lut.Size == 0 {
		return nil, fmt.Errorf("%w: missing LUT_3D_SIZE", ErrInvalidLUT)
	}
	if want := lut.Size * lut.Size * lut.Size; len(lut.Table) != want {
		return nil, fmt.Errorf("%w: expected %d entries, found %d", ErrInvalidLUT, want, len(lut.Table))
	}
	for i := 0; i < 3; i++ {
		if lut.DomainMax[i] <= lut.DomainMin[i] {
			return nil, fmt.Errorf("%w: empty domain", ErrInvalidLUT)
		}
	}
	return lut, nil
}

func parseTriple(fields []string) ([3]float64, error) {
	var v [3]float64
	if len(fields) != 3 {
		return v, fmt.Errorf("expected 3 values, found %d", len(fields))
	}
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return v, fmt.Errorf("bad value %q", f)
		}
		v[i] = x
	}
	return v, nil
}

func (l *LUT) at(r, g, b int) colorful.Color {
	return l.Table[(b*l.Size+g)*l.Size+r]
}

// Lookup maps one normalized RGB triple through the table with trilinear
// interpolation. Inputs outside the domain are clamped to it.
func (l *LUT) Lookup(c colorful.Color) colorful.Color {
	in := [3]float64{c.R, c.G, c.B}
	var idx [3]int
	var frac [3]float64
	top := float64(l.Size - 1)

	for i, v := range in {
		p := (v - l.DomainMin[i]) / (l.DomainMax[i] - l.DomainMin[i]) * top
		p = max(0, min(top, p))
		idx[i] = min(int(p), l.Size-2)
		frac[i] = p - float64(idx[i])
	}

	r0, g0, b0 := idx[0], idx[1], idx[2]
	c00 := l.at(r0, g0, b0).BlendRgb(l.at(r0+1, g0, b0), frac[0])
	c10 := l.at(r0, g0+1, b0).BlendRgb(l.at(r0+1, g0+1, b0), frac[0])
	c01 := l.at(r0, g0, b0+1).BlendRgb(l.at(r0+1, g0, b0+1), frac[0])
	c11 := l.at(r0, g0+1, b0+1).BlendRgb(l.at(r0+1, g0+1, b0+1), frac[0])

	c0 := c00.BlendRgb(c10, frac[1])
	c1 := c01.BlendRgb(c11, frac[1])
	return c0.BlendRgb(c1, frac[2])
}

// Apply maps every pixel of img through the table. Alpha is preserved.
func (l *LUT) Apply(img image.Image) *image.RGBA {
	dst := clone.AsRGBA(img)
	b := dst.Bounds()
	w := b.Dx()

	parallel.Line(b.Dy(), func(start, end int) {
		for y := start; y < end; y++ {
			row := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
			for x := 0; x < w; x++ {
				p := row[x*4 : x*4+4]
				if p[3] == 0 {
					continue
				}
				in := colorful.Color{R: float64(p[0]) / 255, G: float64(p[1]) / 255, B: float64(p[2]) / 255}
				p[0], p[1], p[2] = l.Lookup(in).Clamped().RGB255()
			}
		}
	})
	return dst
}
