//go:build opencv

package filters

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// denoise applies OpenCV's colored non-local means filter.
//
// Only compiled when the opencv build tag is set:
//
//	go build -tags opencv ./...
func denoise(img image.Image, level int) (image.Image, error) {
	win := denoiseWindows[level-1]

	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert to mat: %w", err)
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	gocv.FastNlMeansDenoisingColoredWithParams(src, &dst,
		denoiseStrength, denoiseStrength, win.template, win.search)

	out, err := dst.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert from mat: %w", err)
	}
	return out, nil
}
