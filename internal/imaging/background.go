package imaging

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultMargin is the width of the border strip SampleBackground reads, as
// a percentage of the shorter image side.
const DefaultMargin = 2.0

// thresholdMargin is how far below the darkest common background shade the
// suggested white threshold sits.
const thresholdMargin = 10

// maxBackgroundSamples caps the pixels read from the border strip.
const maxBackgroundSamples = 250_000

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 100=white)
}

// ColorFrequency represents a color and its share of the sampled pixels.
type ColorFrequency struct {
	Hex        string   `json:"hex"`        // Hex color "#RRGGBB" (quantized)
	Percentage float64  `json:"percentage"` // Share of sampled pixels (0-100)
	RGB        RGBColor `json:"rgb"`        // RGB components (quantized)
}

// Background describes the scanner lid as it shows in the margins of a scan.
//
// Photos are almost never placed flush against the scanner glass edge, so
// the outer strip of a scan is a good sample of the lid's "natural white".
// The white threshold used for detection must sit below that shade, or the
// lid itself is segmented as one huge photo.
type Background struct {
	// Hex, RGB and HSL give the mean color of the border strip.
	Hex string   `json:"hex"`
	RGB RGBColor `json:"rgb"`
	HSL HSLColor `json:"hsl"`

	// Luminance is the median luma (0-255) of the border strip.
	Luminance int `json:"luminance"`

	// Darkest is the 5th percentile luma. Dust, shadows and prints touching
	// the edge fall below it.
	Darkest int `json:"darkest"`

	// SuggestedThreshold is a white threshold that keeps the lid out of the
	// detection mask.
	SuggestedThreshold int `json:"suggested_threshold"`

	// Shades lists the most common quantized border colors, most common
	// first.
	Shades []ColorFrequency `json:"shades"`

	// Samples is the number of pixels read.
	Samples int `json:"samples"`
}

// SampleBackground measures the border strip of img. margin is the strip
// width as a percentage of the shorter side; zero selects DefaultMargin.
func SampleBackground(img image.Image, margin float64) (*Background, error) {
	if margin == 0 {
		margin = DefaultMargin
	}
	if margin < 0 || margin > 50 {
		return nil, fmt.Errorf("margin %.1f%% out of range (0-50)", margin)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrEmptyImage
	}

	strip := int(math.Round(float64(min(b.Dx(), b.Dy())) * margin / 100))
	strip = max(1, strip)
	stripPixels := b.Dx()*b.Dy() - max(0, b.Dx()-2*strip)*max(0, b.Dy()-2*strip)
	step := max(1, int(math.Sqrt(float64(stripPixels)/maxBackgroundSamples)))

	var (
		hist             [256]int
		sumR, sumG, sumB float64
		n                int
	)
	shades := make(map[uint32]int)
	for y := b.Min.Y; y < b.Max.Y; y += step {
		inner := y >= b.Min.Y+strip && y < b.Max.Y-strip
		for x := b.Min.X; x < b.Max.X; x += step {
			if inner && x >= b.Min.X+strip && x < b.Max.X-strip {
				// Jump to the first grid column of the right-hand strip.
				x = b.Min.X + (b.Max.X-strip-b.Min.X+step-1)/step*step - step
				continue
			}
			r, g, bl, _ := img.At(x, y).RGBA()
			r8, g8, b8 := uint8(r>>8), uint8(g>>8), uint8(bl>>8)

			hist[luma8(r8, g8, b8)]++
			sumR += float64(r8)
			sumG += float64(g8)
			sumB += float64(b8)
			shades[uint32(r8/16*16)<<16|uint32(g8/16*16)<<8|uint32(b8/16*16)]++
			n++
		}
	}
	if n == 0 {
		return nil, errors.New("no background pixels sampled")
	}

	mean := colorful.Color{R: sumR / float64(n) / 255, G: sumG / float64(n) / 255, B: sumB / float64(n) / 255}
	mr, mg, mb := mean.RGB255()
	h, s, l := mean.Hsl()

	bg := &Background{
		Hex:       strings.ToUpper(mean.Hex()),
		RGB:       RGBColor{R: mr, G: mg, B: mb},
		HSL:       HSLColor{H: int(math.Round(h)), S: int(math.Round(s * 100)), L: int(math.Round(l * 100))},
		Luminance: percentile(&hist, n, 0.5),
		Darkest:   percentile(&hist, n, 0.05),
		Samples:   n,
	}
	bg.SuggestedThreshold = max(0, bg.Darkest-thresholdMargin)
	bg.Shades = topShades(shades, n, 5)
	return bg, nil
}

// luma8 is the ITU-R 601 luma the segmentation step uses.
func luma8(r, g, b uint8) int {
	return int(0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b) + 0.5)
}

// percentile returns the smallest luma at or below which a fraction q of the
// n samples lie.
func percentile(hist *[256]int, n int, q float64) int {
	target := int(math.Ceil(q * float64(n)))
	if target < 1 {
		target = 1
	}
	seen := 0
	for v, c := range hist {
		seen += c
		if seen >= target {
			return v
		}
	}
	return 255
}

func topShades(counts map[uint32]int, n, limit int) []ColorFrequency {
	keys := make([]uint32, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > limit {
		keys = keys[:limit]
	}

	out := make([]ColorFrequency, len(keys))
	for i, k := range keys {
		r, g, b := uint8(k>>16), uint8(k>>8), uint8(k)
		out[i] = ColorFrequency{
			Hex:        fmt.Sprintf("#%02X%02X%02X", r, g, b),
			Percentage: float64(counts[k]) / float64(n) * 100,
			RGB:        RGBColor{R: r, G: g, B: b},
		}
	}
	return out
}
