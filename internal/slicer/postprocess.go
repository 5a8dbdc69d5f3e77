package slicer

import (
	"image"

	"github.com/ironsheep/scan-slicer/internal/filters"
	"github.com/ironsheep/scan-slicer/internal/imaging"
)

// Scale resizes img according to s. Width and height targets only ever
// shrink; a factor scales in either direction.
func Scale(img image.Image, s ScaleSpec) image.Image {
	switch {
	case s.Factor != 0:
		return imaging.ScaleBy(img, s.Factor)
	case s.Width != 0:
		return imaging.FitWidth(img, s.Width)
	case s.Height != 0:
		return imaging.FitHeight(img, s.Height)
	}
	return img
}

// PostProcess scales, rotates and filters one slice, in that order.
func PostProcess(img image.Image, opts Options, chain *filters.Chain) (image.Image, error) {
	out := Scale(img, opts.Scale)
	out = imaging.AutoRotate(out, opts.AutoRotate)
	if chain == nil {
		return out, nil
	}
	return chain.Apply(out)
}
