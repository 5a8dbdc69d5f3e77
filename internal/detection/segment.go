package detection

import (
	"errors"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"

	"github.com/ironsheep/scan-slicer/internal/imaging"
)

// DefaultWorkingWidth bounds the width of the copy detection runs on.
const DefaultWorkingWidth = 900

// ErrEmptyImage is returned when segmentation is asked to work on an image
// with no pixels.
var ErrEmptyImage = errors.New("empty source image")

// Mask is the binary foreground mask of a scan together with the working
// copy it was computed from.
type Mask struct {
	// Pixels holds 255 for foreground (photo) and 0 for background (scanner
	// lid). No other values occur.
	Pixels *image.Gray

	// Working is the downscaled color copy the mask was computed from.
	Working *image.NRGBA

	// ScaleX and ScaleY map working-copy coordinates back to the source:
	// source = working * scale.
	ScaleX float64
	ScaleY float64
}

// Width returns the working-copy width in pixels.
func (m *Mask) Width() int { return m.Pixels.Bounds().Dx() }

// Height returns the working-copy height in pixels.
func (m *Mask) Height() int { return m.Pixels.Bounds().Dy() }

// Foreground reports whether the working-copy pixel at (x, y) is foreground.
func (m *Mask) Foreground(x, y int) bool {
	return m.Pixels.Pix[y*m.Pixels.Stride+x] != 0
}

// Segment separates photos from the white scanner background.
//
// The source is downscaled to at most workingWidth pixels wide, converted to
// BT.601 luminance, smoothed with a fixed 5x5 Gaussian and thresholded:
// pixels at or below threshold become foreground, brighter pixels become
// background.
func Segment(src image.Image, threshold int, workingWidth int) (*Mask, error) {
	if src == nil || src.Bounds().Empty() {
		return nil, ErrEmptyImage
	}
	if threshold < 0 || threshold > 255 {
		return nil, fmt.Errorf("white threshold %d out of range [0,255]", threshold)
	}
	if workingWidth <= 0 {
		workingWidth = DefaultWorkingWidth
	}

	work := imaging.WorkingCopy(src, workingWidth)
	gray := effect.GrayscaleWithWeights(work, 0.299, 0.587, 0.114)
	// A bias of 0.5 turns the library's truncation into rounding.
	blurred := convolution.Convolve(gray, gaussianKernel(), &convolution.Options{Bias: 0.5, KeepAlpha: true})

	b := blurred.Bounds()
	mask := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	t := uint8(threshold)
	for y := 0; y < b.Dy(); y++ {
		row := blurred.Pix[y*blurred.Stride : y*blurred.Stride+b.Dx()*4]
		out := mask.Pix[y*mask.Stride : y*mask.Stride+b.Dx()]
		for x := range out {
			if row[x*4] <= t {
				out[x] = 255
			}
		}
	}

	sb := src.Bounds()
	return &Mask{
		Pixels:  mask,
		Working: work,
		ScaleX:  float64(sb.Dx()) / float64(b.Dx()),
		ScaleY:  float64(sb.Dy()) / float64(b.Dy()),
	}, nil
}

// gaussianKernel returns the 5x5 Gaussian approximation (sigma ~1.0) with
// integer weights summing to 273.
func gaussianKernel() *convolution.Kernel {
	weights := []float64{
		1, 4, 7, 4, 1,
		4, 16, 26, 16, 4,
		7, 26, 41, 26, 7,
		4, 16, 26, 16, 4,
		1, 4, 7, 4, 1,
	}
	k := convolution.NewKernel(5, 5)
	for i, w := range weights {
		k.Matrix[i] = w / 273
	}
	return k
}
