// Package filters implements the optional enhancement chain applied to every
// extracted slice: denoise, LUT, color, contrast, brightness and sharpness,
// always in that order.
package filters

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/clone"
)

// ErrInvalidLUT is returned when the configured LUT file cannot be used.
var ErrInvalidLUT = errors.New("invalid LUT")

// Settings selects which filters run and how strongly.
//
// Every field has an identity value at which its filter is skipped: 0 for
// Denoise and LUTStrength, 1.0 for the multiplicative factors.
type Settings struct {
	Denoise     int     `json:"denoise"`
	LUTPath     string  `json:"lut_path,omitempty"`
	LUTStrength float64 `json:"lut_strength"`
	Color       float64 `json:"color"`
	Contrast    float64 `json:"contrast"`
	Brightness  float64 `json:"brightness"`
	Sharpness   float64 `json:"sharpness"`
}

// Identity returns settings that leave images untouched.
func Identity() Settings {
	return Settings{Color: 1, Contrast: 1, Brightness: 1, Sharpness: 1}
}

// MaxDenoise is the strongest denoise level.
const MaxDenoise = 5

// denoiseWindow is the (template, search) window pair for one denoise level.
type denoiseWindow struct {
	template int
	search   int
}

// denoiseWindows is indexed by level-1.
var denoiseWindows = [MaxDenoise]denoiseWindow{
	{3, 3}, {5, 7}, {7, 11}, {9, 15}, {11, 19},
}

// denoiseStrength is the filter strength used for luminance and color.
const denoiseStrength = 3

// Chain is a validated, ready-to-run filter chain. It is safe for concurrent
// use; the LUT is read once and shared.
type Chain struct {
	settings Settings
	lut      *LUT
	logger   *slog.Logger
}

// NewChain validates s and loads the LUT, if one is configured. A missing or
// malformed LUT is reported here so no image is processed with a broken chain.
func NewChain(s Settings, logger *slog.Logger) (*Chain, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if s.Denoise < 0 || s.Denoise > MaxDenoise {
		return nil, fmt.Errorf("denoise level %d out of range [0,%d]", s.Denoise, MaxDenoise)
	}

	c := &Chain{settings: s, logger: logger}
	if s.LUTPath != "" && s.LUTStrength > 0 {
		lut, err := LoadCube(s.LUTPath)
		if err != nil {
			return nil, err
		}
		c.lut = lut
		logger.Debug("loaded LUT", "path", s.LUTPath, "size", lut.Size, "title", lut.Title)
	}
	return c, nil
}

// Settings returns the settings the chain was built from.
func (c *Chain) Settings() Settings { return c.settings }

// Active reports whether Apply would change anything.
func (c *Chain) Active() bool {
	s := c.settings
	return s.Denoise > 0 || c.lut != nil ||
		s.Color != 1 || s.Contrast != 1 || s.Brightness != 1 || s.Sharpness != 1
}

// Apply runs the chain over img. The input is never modified; when no filter
// is active img itself is returned.
func (c *Chain) Apply(img image.Image) (image.Image, error) {
	if !c.Active() {
		return img, nil
	}
	s := c.settings
	out := img

	if s.Denoise > 0 {
		d, err := denoise(out, s.Denoise)
		if err != nil {
			return nil, fmt.Errorf("denoise: %w", err)
		}
		out = d
		c.logger.Debug("denoised slice", "level", s.Denoise)
	}

	if c.lut != nil {
		mapped := c.lut.Apply(out)
		out = blend.Opacity(clone.AsRGBA(out), mapped, clamp01(s.LUTStrength))
		c.logger.Debug("applied LUT", "strength", s.LUTStrength)
	}

	if s.Color != 1 {
		out = Color(out, s.Color)
	}
	if s.Contrast != 1 {
		out = Contrast(out, s.Contrast)
	}
	if s.Brightness != 1 {
		out = Brightness(out, s.Brightness)
	}
	if s.Sharpness != 1 {
		out = Sharpness(out, s.Sharpness)
	}
	return out, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
