package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDrawOutlines(t *testing.T) {
	img := createInMemoryImage(100, 100, color.White)
	red := color.RGBA{255, 0, 0, 255}

	out := DrawOutlines(img, []Outline{{
		Points: []image.Point{{10, 10}, {60, 10}, {60, 40}, {10, 40}},
		Color:  red,
	}}, 1)

	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, out.NRGBAAt(35, 10), "top edge")
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, out.NRGBAAt(60, 25), "right edge")
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, out.NRGBAAt(10, 25), "left edge")
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, out.NRGBAAt(35, 25), "interior untouched")

	// The source image must not be modified.
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, img.NRGBAAt(35, 10))
}

func TestDrawOutlines_Thickness(t *testing.T) {
	img := createInMemoryImage(50, 50, color.White)
	blue := color.RGBA{0, 0, 255, 255}

	out := DrawOutlines(img, []Outline{{
		Points: []image.Point{{5, 25}, {45, 25}},
		Color:  blue,
	}}, 3)

	for _, y := range []int{24, 25, 26} {
		assert.Equal(t, color.NRGBA{0, 0, 255, 255}, out.NRGBAAt(20, y), "y=%d", y)
	}
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, out.NRGBAAt(20, 28))
}

func TestDrawOutlines_ClipsAtBorder(t *testing.T) {
	img := createInMemoryImage(20, 20, color.White)

	assert.NotPanics(t, func() {
		DrawOutlines(img, []Outline{{
			Points: []image.Point{{-10, -10}, {30, -10}, {30, 30}, {-10, 30}},
			Color:  color.RGBA{0, 255, 0, 255},
			Label:  "12",
		}}, 4)
	})
}

func TestDrawOutlines_Label(t *testing.T) {
	img := createInMemoryImage(60, 60, color.White)
	bg := color.RGBA{0, 97, 230, 255}

	out := DrawOutlines(img, []Outline{{
		Points: []image.Point{{5, 5}, {50, 5}, {50, 50}, {5, 50}},
		Color:  bg,
		Label:  "1",
	}}, 1)

	// The label box starts just inside the first vertex and uses the outline color.
	assert.Equal(t, color.NRGBA{0, 97, 230, 255}, out.NRGBAAt(7, 7))
	foundWhite := false
	for y := 7; y < 7+14; y++ {
		for x := 7; x < 7+8; x++ {
			if out.NRGBAAt(x, y) == (color.NRGBA{255, 255, 255, 255}) {
				foundWhite = true
			}
		}
	}
	assert.True(t, foundWhite, "digit pixels are drawn in white")
}
