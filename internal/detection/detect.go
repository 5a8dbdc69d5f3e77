package detection

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"github.com/ironsheep/scan-slicer/internal/imaging"
)

// Params are the knobs that decide what counts as a photo on a scan.
type Params struct {
	// WhiteThreshold is the luminance (0-255) at or below which a blurred
	// pixel belongs to a photo. Match it to the scanner's natural white.
	WhiteThreshold int `json:"white_threshold"`

	// MinimumSize and MaximumSize bound the accepted bounding-box area as a
	// percentage of the scan. Both limits are exclusive.
	MinimumSize float64 `json:"minimum_size"`
	MaximumSize float64 `json:"maximum_size"`

	// WorkingWidth caps the width of the copy detection runs on.
	// Zero selects DefaultWorkingWidth.
	WorkingWidth int `json:"working_width"`
}

// DefaultParams returns the parameters that suit a typical flatbed scan at
// 300-600 dpi with several loose prints on it.
func DefaultParams() Params {
	return Params{
		WhiteThreshold: 230,
		MinimumSize:    3,
		MaximumSize:    80,
		WorkingWidth:   DefaultWorkingWidth,
	}
}

// Detection is the result of running segmentation, contour extraction and
// classification over one scan.
type Detection struct {
	// Regions lists every external contour, accepted or not, in detection order.
	Regions []Region `json:"regions"`

	// AcceptedCount and RejectedCount partition Regions.
	AcceptedCount int `json:"accepted_count"`
	RejectedCount int `json:"rejected_count"`

	// WorkingWidth and WorkingHeight are the dimensions of the working copy.
	WorkingWidth  int `json:"working_width"`
	WorkingHeight int `json:"working_height"`

	// Mask is the segmentation the regions were found in.
	Mask *Mask `json:"-"`
}

// Accepted returns the accepted regions in detection order.
func (d *Detection) Accepted() []Region {
	out := make([]Region, 0, d.AcceptedCount)
	for _, r := range d.Regions {
		if r.Accepted {
			out = append(out, r)
		}
	}
	return out
}

// Detect finds the photos on a scan.
//
// Detect is a pure function of its inputs: it keeps no state between calls,
// so a tuning loop can call it repeatedly on the same image with different
// parameters.
func Detect(src image.Image, p Params) (*Detection, error) {
	mask, err := Segment(src, p.WhiteThreshold, p.WorkingWidth)
	if err != nil {
		return nil, fmt.Errorf("segmentation failed: %w", err)
	}

	contours := FindContours(mask)
	d := &Detection{
		Regions:       make([]Region, 0, len(contours)),
		WorkingWidth:  mask.Width(),
		WorkingHeight: mask.Height(),
		Mask:          mask,
	}
	for i, c := range contours {
		r := Classify(c, mask.Width(), mask.Height(), p.MinimumSize, p.MaximumSize)
		r.Index = i
		if r.Accepted {
			d.AcceptedCount++
		} else {
			d.RejectedCount++
		}
		d.Regions = append(d.Regions, r)
	}
	return d, nil
}

// Colors used when drawing detections.
var (
	AcceptedColor = color.RGBA{0, 97, 230, 255}
	RejectedColor = color.RGBA{155, 58, 93, 255}
)

// Annotate draws every region's outline over the working copy: accepted
// regions in AcceptedColor with their slice number, rejected ones in
// RejectedColor.
func Annotate(d *Detection) *image.NRGBA {
	outlines := make([]imaging.Outline, 0, len(d.Regions))
	n := 0
	for _, r := range d.Regions {
		pts := make([]image.Point, len(r.Contour))
		for i, p := range r.Contour {
			pts[i] = image.Point{X: p.X, Y: p.Y}
		}
		o := imaging.Outline{Points: pts, Color: RejectedColor}
		if r.Accepted {
			n++
			o.Color = AcceptedColor
			o.Label = strconv.Itoa(n)
		}
		outlines = append(outlines, o)
	}
	return imaging.DrawOutlines(d.Mask.Working, outlines, 3)
}
