//go:build !opencv

package filters

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/disintegration/imaging"
)

// denoise applies non-local means filtering in pure Go.
//
// Each pixel becomes a weighted average of the pixels in its search window,
// weighted by how closely their surrounding template patches match its own:
// w = exp(-d / h^2) where d is the mean squared patch difference per channel.
// Patch distances for one search offset are read from an integral image of
// squared differences, so the cost per offset is linear in the pixel count.
func denoise(img image.Image, level int) (image.Image, error) {
	win := denoiseWindows[level-1]
	src := imaging.Clone(img)
	width, height := src.Bounds().Dx(), src.Bounds().Dy()
	if width == 0 || height == 0 {
		return src, nil
	}
	n := width * height

	rgb := make([]float32, 3*n)
	for y := 0; y < height; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < width; x++ {
			i := 3 * (y*width + x)
			rgb[i] = float32(row[x*4])
			rgb[i+1] = float32(row[x*4+1])
			rgb[i+2] = float32(row[x*4+2])
		}
	}

	sum := make([]float32, 3*n)
	weight := make([]float32, n)
	integral := make([]float64, (width+1)*(height+1))
	tr := win.template / 2
	sr := win.search / 2
	h2 := float64(denoiseStrength * denoiseStrength)
	stride := width + 1

	for dy := -sr; dy <= sr; dy++ {
		for dx := -sr; dx <= sr; dx++ {
			integrateDiff(integral, rgb, width, height, dx, dy)

			parallel.Line(height, func(start, end int) {
				for y := start; y < end; y++ {
					y0, y1 := max(y-tr, 0), min(y+tr+1, height)
					ny := clampInt(y+dy, height)
					for x := 0; x < width; x++ {
						x0, x1 := max(x-tr, 0), min(x+tr+1, width)
						area := float64((x1 - x0) * (y1 - y0))
						d := (integral[y1*stride+x1] - integral[y0*stride+x1] -
							integral[y1*stride+x0] + integral[y0*stride+x0]) / area
						w := float32(math.Exp(-d / h2))

						i := y*width + x
						j := 3 * (ny*width + clampInt(x+dx, width))
						weight[i] += w
						sum[3*i] += w * rgb[j]
						sum[3*i+1] += w * rgb[j+1]
						sum[3*i+2] += w * rgb[j+2]
					}
				}
			})
		}
	}

	for y := 0; y < height; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < width; x++ {
			i := y*width + x
			for c := 0; c < 3; c++ {
				v := sum[3*i+c]/weight[i] + 0.5
				row[x*4+c] = uint8(max(0, min(255, v)))
			}
		}
	}
	return src, nil
}

// integrateDiff fills dst with the summed-area table of the per-channel mean
// squared difference between the image and itself shifted by (dx, dy).
// Shifted coordinates are clamped at the border.
func integrateDiff(dst []float64, rgb []float32, width, height, dx, dy int) {
	stride := width + 1
	for y := 0; y < height; y++ {
		ny := clampInt(y+dy, height)
		var rowSum float64
		for x := 0; x < width; x++ {
			i := 3 * (y*width + x)
			j := 3 * (ny*width + clampInt(x+dx, width))
			dr := float64(rgb[i] - rgb[j])
			dg := float64(rgb[i+1] - rgb[j+1])
			db := float64(rgb[i+2] - rgb[j+2])
			rowSum += (dr*dr + dg*dg + db*db) / 3
			dst[(y+1)*stride+x+1] = dst[y*stride+x+1] + rowSum
		}
	}
}

func clampInt(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
