package detection

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// whiteCanvas returns a scanner-lid white image.
func whiteCanvas(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

// fillRect paints r on img with c.
func fillRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

var black = color.NRGBA{0, 0, 0, 255}

func TestSegment_MaskIsBinary(t *testing.T) {
	img := whiteCanvas(200, 150)
	// A gradient covers every luminance level.
	for y := 0; y < 150; y++ {
		for x := 0; x < 200; x++ {
			v := uint8((x + y) % 256)
			img.SetNRGBA(x, y, color.NRGBA{v, v / 2, 255 - v, 255})
		}
	}

	for _, threshold := range []int{0, 1, 128, 230, 254, 255} {
		m, err := Segment(img, threshold, 900)
		require.NoError(t, err)
		for _, v := range m.Pixels.Pix {
			if v != 0 && v != 255 {
				t.Fatalf("threshold %d: mask value %d", threshold, v)
			}
		}
	}
}

func TestSegment_ThresholdExtremes(t *testing.T) {
	img := whiteCanvas(50, 50)
	fillRect(img, image.Rect(10, 10, 40, 40), black)

	all, err := Segment(img, 255, 900)
	require.NoError(t, err)
	for _, v := range all.Pixels.Pix {
		require.Equal(t, uint8(255), v, "everything is at or below 255")
	}

	m, err := Segment(img, 230, 900)
	require.NoError(t, err)
	assert.True(t, m.Foreground(25, 25), "photo centre")
	assert.False(t, m.Foreground(2, 2), "background corner")
}

func TestSegment_PixelAtThresholdIsForeground(t *testing.T) {
	img := whiteCanvas(40, 30)
	fillRect(img, img.Bounds(), color.NRGBA{200, 200, 200, 255})

	at, err := Segment(img, 200, 900)
	require.NoError(t, err)
	assert.True(t, at.Foreground(20, 15), "luminance equal to the threshold")
	assert.True(t, at.Foreground(0, 0))

	below, err := Segment(img, 199, 900)
	require.NoError(t, err)
	assert.False(t, below.Foreground(20, 15), "luminance one above the threshold")
	assert.False(t, below.Foreground(0, 0))
}

func TestSegment_WorkingWidth(t *testing.T) {
	img := whiteCanvas(1800, 900)

	m, err := Segment(img, 230, 900)
	require.NoError(t, err)
	assert.Equal(t, 900, m.Width())
	assert.Equal(t, 450, m.Height())
	assert.InDelta(t, 2.0, m.ScaleX, 1e-9)
	assert.InDelta(t, 2.0, m.ScaleY, 1e-9)

	small := whiteCanvas(300, 200)
	m, err = Segment(small, 230, 900)
	require.NoError(t, err)
	assert.Equal(t, 300, m.Width(), "never upscaled")
	assert.InDelta(t, 1.0, m.ScaleX, 1e-9)
}

func TestSegment_Errors(t *testing.T) {
	_, err := Segment(image.NewNRGBA(image.Rect(0, 0, 0, 0)), 230, 900)
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = Segment(nil, 230, 900)
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = Segment(whiteCanvas(10, 10), 300, 900)
	assert.Error(t, err)
}
