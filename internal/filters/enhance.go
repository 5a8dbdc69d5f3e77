package filters

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/parallel"
)

// Each enhancement interpolates between the image and a degenerate version
// of it: out = degenerate + factor * (image - degenerate). A factor of 1
// returns the image, 0 returns the degenerate image and values above 1
// extrapolate away from it.

// luma returns the ITU-R 601 luminance of c.
func luma(c color.RGBA) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}

func mix(degenerate, v, factor float64) uint8 {
	r := degenerate + factor*(v-degenerate)
	if r <= 0 {
		return 0
	}
	if r >= 255 {
		return 255
	}
	return uint8(r + 0.5)
}

// Color adjusts saturation against the grayscale version of img.
func Color(img image.Image, factor float64) *image.RGBA {
	return adjust.Apply(img, func(c color.RGBA) color.RGBA {
		l := math.Round(luma(c))
		return color.RGBA{
			R: mix(l, float64(c.R), factor),
			G: mix(l, float64(c.G), factor),
			B: mix(l, float64(c.B), factor),
			A: c.A,
		}
	})
}

// Contrast scales distances from the mean luminance of img.
func Contrast(img image.Image, factor float64) *image.RGBA {
	mean := math.Round(meanLuma(img))
	return adjust.Apply(img, func(c color.RGBA) color.RGBA {
		return color.RGBA{
			R: mix(mean, float64(c.R), factor),
			G: mix(mean, float64(c.G), factor),
			B: mix(mean, float64(c.B), factor),
			A: c.A,
		}
	})
}

func meanLuma(img image.Image) float64 {
	src := clone.AsShallowRGBA(img)
	b := src.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}
	var sum float64
	for y := 0; y < b.Dy(); y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < b.Dx(); x++ {
			i := x * 4
			sum += math.Round(luma(color.RGBA{row[i], row[i+1], row[i+2], row[i+3]}))
		}
	}
	return sum / float64(n)
}

// Brightness scales every channel by factor.
func Brightness(img image.Image, factor float64) *image.RGBA {
	return adjust.Brightness(img, factor-1)
}

// smoothKernel is the 3x3 smoothing kernel sharpness is measured against.
func smoothKernel() *convolution.Kernel {
	k := convolution.NewKernel(3, 3)
	copy(k.Matrix, []float64{
		1, 1, 1,
		1, 5, 1,
		1, 1, 1,
	})
	for i := range k.Matrix {
		k.Matrix[i] /= 13
	}
	return k
}

// Sharpness blends img with a smoothed copy of itself. The outermost pixel
// ring has no full neighbourhood and keeps its original value.
func Sharpness(img image.Image, factor float64) *image.RGBA {
	src := clone.AsRGBA(img)
	smooth := convolution.Convolve(src, smoothKernel(), &convolution.Options{Bias: 0.5, KeepAlpha: true})

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	copy(out.Pix, src.Pix)
	if w < 3 || h < 3 {
		return out
	}

	parallel.Line(h-2, func(start, end int) {
		for y := start + 1; y < end+1; y++ {
			for x := 1; x < w-1; x++ {
				i := y*out.Stride + x*4
				j := y*smooth.Stride + x*4
				for c := 0; c < 3; c++ {
					out.Pix[i+c] = mix(float64(smooth.Pix[j+c]), float64(src.Pix[y*src.Stride+x*4+c]), factor)
				}
			}
		}
	})
	return out
}
