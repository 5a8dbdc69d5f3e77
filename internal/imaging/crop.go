package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// EncodedImage carries a PNG-encoded image for JSON transports.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Crop extracts the part of r that lies inside img.
//
// Regions detected on the working copy and rescaled to source resolution
// may poke a pixel or two past the edge of the scan; those parts are dropped
// rather than treated as an error. An empty intersection is an error.
func Crop(img image.Image, r image.Rectangle) (*image.NRGBA, error) {
	clipped := r.Intersect(img.Bounds())
	if clipped.Empty() {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", r, img.Bounds())
	}
	return imaging.Crop(img, clipped), nil
}

// EncodeBase64PNG encodes img as PNG and wraps it for a JSON payload.
func EncodeBase64PNG(img image.Image) (*EncodedImage, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &EncodedImage{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
