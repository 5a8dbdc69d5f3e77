package slicer

import (
	"github.com/ironsheep/scan-slicer/internal/detection"
	"github.com/ironsheep/scan-slicer/internal/filters"
	"github.com/ironsheep/scan-slicer/internal/imaging"
)

// Format is an output file format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatWEBP Format = "webp"
)

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatWEBP:
		return ".webp"
	}
	return ".png"
}

// Valid reports whether f is a supported format.
func (f Format) Valid() bool {
	return f == FormatPNG || f == FormatJPEG || f == FormatWEBP
}

// ScaleSpec selects how slices are resized. The first non-zero field wins:
// Factor, then Width, then Height.
type ScaleSpec struct {
	Factor float64 `json:"factor,omitempty"`
	Width  int     `json:"width,omitempty"`
	Height int     `json:"height,omitempty"`
}

// EncodeOptions controls how slices are written.
type EncodeOptions struct {
	Format Format `json:"format"`

	PNGOptimize    bool `json:"png_optimize,omitempty"`
	PNGCompression int  `json:"png_compression"` // 0-9

	// JPEGOptimize is accepted for configuration compatibility; the Go
	// encoder always writes standard Huffman tables.
	JPEGOptimize bool `json:"jpeg_optimize,omitempty"`
	JPEGQuality  int  `json:"jpeg_quality"` // 0-95

	WebPLossless bool `json:"webp_lossless,omitempty"`
	WebPMethod   int  `json:"webp_method"`  // 0-6
	WebPQuality  int  `json:"webp_quality"` // 1-100
}

// Options is everything the pipeline needs to turn one scan into slices.
type Options struct {
	Detection detection.Params `json:"detection"`

	// PerspectiveFix is the tilt margin in degrees. Zero disables
	// straightening; otherwise a region is straightened when
	// PerspectiveFix < tilt < 90-PerspectiveFix.
	PerspectiveFix int `json:"perspective_fix"`

	Scale      ScaleSpec        `json:"scale"`
	AutoRotate imaging.Rotation `json:"auto_rotate"`
	Filters    filters.Settings `json:"filters"`
	Encode     EncodeOptions    `json:"encode"`
}

// DefaultOptions returns options that cut slices without altering them.
func DefaultOptions() Options {
	return Options{
		Detection:  detection.DefaultParams(),
		AutoRotate: imaging.RotateNone,
		Filters:    filters.Identity(),
		Encode: EncodeOptions{
			Format:         FormatPNG,
			PNGCompression: 3,
			JPEGQuality:    95,
			WebPMethod:     4,
			WebPQuality:    90,
		},
	}
}
