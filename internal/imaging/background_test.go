package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

// sized gives an unbounded image a finite size.
type sized struct {
	image.Image
	r image.Rectangle
}

func (s sized) Bounds() image.Rectangle { return s.r }

func TestSampleBackground_Uniform(t *testing.T) {
	img := createInMemoryImage(500, 400, color.NRGBA{240, 240, 240, 255})

	bg, err := SampleBackground(img, 0)
	require.NoError(t, err)
	assert.Equal(t, "#F0F0F0", bg.Hex)
	assert.Equal(t, RGBColor{240, 240, 240}, bg.RGB)
	assert.Equal(t, 0, bg.HSL.S)
	assert.Equal(t, 94, bg.HSL.L)
	assert.Equal(t, 240, bg.Luminance)
	assert.Equal(t, 240, bg.Darkest)
	assert.Equal(t, 230, bg.SuggestedThreshold)
	require.Len(t, bg.Shades, 1)
	assert.Equal(t, "#F0F0F0", bg.Shades[0].Hex)
	assert.InDelta(t, 100.0, bg.Shades[0].Percentage, 1e-9)

	// A 2% strip of 400 px is 8 px wide: two full bands and two side bands.
	assert.Equal(t, 2*8*500+2*8*384, bg.Samples)
}

func TestSampleBackground_IgnoresPhotosInside(t *testing.T) {
	img := createInMemoryImage(500, 400, color.NRGBA{240, 240, 240, 255})
	fillRect(img, image.Rect(50, 50, 450, 350), color.NRGBA{20, 20, 20, 255})

	bg, err := SampleBackground(img, 0)
	require.NoError(t, err)
	assert.Equal(t, 240, bg.Darkest)
	assert.Equal(t, 230, bg.SuggestedThreshold)
}

func TestSampleBackground_DarkerBand(t *testing.T) {
	img := createInMemoryImage(500, 400, color.NRGBA{240, 240, 240, 255})
	fillRect(img, image.Rect(0, 0, 500, 8), color.NRGBA{220, 220, 220, 255})

	bg, err := SampleBackground(img, 0)
	require.NoError(t, err)
	assert.Equal(t, 240, bg.Luminance, "the median ignores the band")
	assert.Equal(t, 220, bg.Darkest)
	assert.Equal(t, 210, bg.SuggestedThreshold)
	require.Len(t, bg.Shades, 2)
	assert.Equal(t, "#F0F0F0", bg.Shades[0].Hex)
	assert.Equal(t, "#D0D0D0", bg.Shades[1].Hex)
}

func TestSampleBackground_OffsetBounds(t *testing.T) {
	img := createInMemoryImage(600, 500, color.NRGBA{200, 210, 220, 255})
	sub := img.SubImage(image.Rect(50, 50, 550, 450))

	bg, err := SampleBackground(sub, 0)
	require.NoError(t, err)
	assert.Equal(t, 2*8*500+2*8*384, bg.Samples)
	assert.Equal(t, RGBColor{200, 210, 220}, bg.RGB)
}

func TestSampleBackground_LargeScanIsSubsampled(t *testing.T) {
	huge := sized{image.NewUniform(color.Gray{235}), image.Rect(0, 0, 20000, 20000)}

	bg, err := SampleBackground(huge, 0)
	require.NoError(t, err)
	assert.Less(t, bg.Samples, 2*maxBackgroundSamples)
	assert.Greater(t, bg.Samples, maxBackgroundSamples/2)
	assert.Equal(t, 235, bg.Luminance)
}

func TestSampleBackground_Errors(t *testing.T) {
	img := createInMemoryImage(10, 10, color.White)

	_, err := SampleBackground(img, -1)
	assert.Error(t, err)
	_, err = SampleBackground(img, 60)
	assert.Error(t, err)

	_, err = SampleBackground(image.NewNRGBA(image.Rect(0, 0, 0, 0)), 0)
	assert.ErrorIs(t, err, ErrEmptyImage)
}
