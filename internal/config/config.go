// Package config loads, validates and saves the slicer's YAML settings.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/scan-slicer/internal/detection"
	"github.com/ironsheep/scan-slicer/internal/filters"
	"github.com/ironsheep/scan-slicer/internal/imaging"
	"github.com/ironsheep/scan-slicer/internal/slicer"
)

// AppDir is the directory name used under the user's config directory.
const AppDir = "ScanImageSlicer"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full set of user settings. Field names in the YAML file
// match the long command-line flags.
type Config struct {
	Input       string `yaml:"input"`
	Output      string `yaml:"output"`
	SkipConfirm bool   `yaml:"skip-confirm"`
	Workers     int    `yaml:"workers"`
	ProjectName string `yaml:"project-name"`

	WhiteThreshold int     `yaml:"white-threshold"`
	MinimumSize    float64 `yaml:"minimum-size"`
	MaximumSize    float64 `yaml:"maximum-size"`
	WorkingWidth   int     `yaml:"working-width"`

	PerspectiveFix int     `yaml:"perspective-fix"`
	AutoRotate     string  `yaml:"auto-rotate"`
	ScaleFactor    float64 `yaml:"scale-factor"`
	ScaleWidth     int     `yaml:"scale-width"`
	ScaleHeight    int     `yaml:"scale-height"`

	FilterDenoise     int     `yaml:"filter-denoise"`
	FilterLUTPath     string  `yaml:"filter-lut-path"`
	FilterLUTStrength float64 `yaml:"filter-lut-strength"`
	FilterColor       float64 `yaml:"filter-color"`
	FilterContrast    float64 `yaml:"filter-contrast"`
	FilterBrightness  float64 `yaml:"filter-brightness"`
	FilterSharpness   float64 `yaml:"filter-sharpness"`

	SaveFormat     string `yaml:"save-format"`
	PNGOptimize    bool   `yaml:"png-optimize"`
	PNGCompression int    `yaml:"png-compression"`
	JPEGOptimize   bool   `yaml:"jpeg-optimize"`
	JPEGQuality    int    `yaml:"jpeg-quality"`
	WebPLossless   bool   `yaml:"webp-lossless"`
	WebPMethod     int    `yaml:"webp-method"`
	WebPQuality    int    `yaml:"webp-quality"`

	ViewWidth  int `yaml:"view-width"`
	ViewHeight int `yaml:"view-height"`
}

// Default returns the settings used when no config file exists.
func Default() Config {
	return Config{
		WhiteThreshold:   230,
		MinimumSize:      3,
		MaximumSize:      80,
		WorkingWidth:     detection.DefaultWorkingWidth,
		AutoRotate:       string(imaging.RotateNone),
		FilterColor:      1,
		FilterContrast:   1,
		FilterBrightness: 1,
		FilterSharpness:  1,
		SaveFormat:       string(slicer.FormatPNG),
		PNGCompression:   3,
		JPEGQuality:      95,
		WebPMethod:       4,
		WebPQuality:      90,
		ViewWidth:        1280,
		ViewHeight:       800,
	}
}

func invalid(field string, format string, args ...any) error {
	return fmt.Errorf("%w: %s %s", ErrInvalid, field, fmt.Sprintf(format, args...))
}

func intRange(errs []error, field string, v, lo, hi int) []error {
	if v < lo || v > hi {
		errs = append(errs, invalid(field, "must be between %d and %d, got %d", lo, hi, v))
	}
	return errs
}

func floatRange(errs []error, field string, v, lo, hi float64) []error {
	if v < lo || v > hi {
		errs = append(errs, invalid(field, "must be between %g and %g, got %g", lo, hi, v))
	}
	return errs
}

// openRange rejects the bounds themselves.
func openRange(errs []error, field string, v, lo, hi float64) []error {
	if v <= lo || v >= hi {
		errs = append(errs, invalid(field, "must be above %g and below %g, got %g", lo, hi, v))
	}
	return errs
}

// Validate checks every field and reports all problems at once. Values are
// never clamped; an out-of-range value is an error.
func (c Config) Validate() error {
	var errs []error

	errs = intRange(errs, "white-threshold", c.WhiteThreshold, 0, 255)
	errs = openRange(errs, "minimum-size", c.MinimumSize, 0, 100)
	errs = openRange(errs, "maximum-size", c.MaximumSize, 0, 100)
	if c.MinimumSize >= c.MaximumSize {
		errs = append(errs, invalid("minimum-size", "must be below maximum-size (%g >= %g)", c.MinimumSize, c.MaximumSize))
	}
	if c.WorkingWidth < 0 {
		errs = append(errs, invalid("working-width", "must not be negative"))
	}

	errs = intRange(errs, "perspective-fix", c.PerspectiveFix, 0, 89)
	switch imaging.Rotation(strings.ToLower(c.AutoRotate)) {
	case imaging.RotateNone, imaging.RotateCW, imaging.RotateCCW, "":
	default:
		errs = append(errs, invalid("auto-rotate", "must be disable, cw or ccw, got %q", c.AutoRotate))
	}
	if c.ScaleFactor < 0 {
		errs = append(errs, invalid("scale-factor", "must not be negative"))
	}
	if c.ScaleWidth < 0 || c.ScaleHeight < 0 {
		errs = append(errs, invalid("scale-width/scale-height", "must not be negative"))
	}

	errs = intRange(errs, "filter-denoise", c.FilterDenoise, 0, filters.MaxDenoise)
	errs = floatRange(errs, "filter-lut-strength", c.FilterLUTStrength, 0, 1)
	errs = floatRange(errs, "filter-color", c.FilterColor, 0, 2)
	errs = floatRange(errs, "filter-contrast", c.FilterContrast, 0, 2)
	errs = floatRange(errs, "filter-brightness", c.FilterBrightness, 0, 2)
	errs = floatRange(errs, "filter-sharpness", c.FilterSharpness, 0, 2)

	if !slicer.Format(strings.ToLower(c.SaveFormat)).Valid() {
		errs = append(errs, invalid("save-format", "must be png, jpeg or webp, got %q", c.SaveFormat))
	}
	errs = intRange(errs, "png-compression", c.PNGCompression, 0, 9)
	errs = intRange(errs, "jpeg-quality", c.JPEGQuality, 0, 95)
	errs = intRange(errs, "webp-method", c.WebPMethod, 0, 6)
	errs = intRange(errs, "webp-quality", c.WebPQuality, 1, 100)

	if c.Workers < 0 {
		errs = append(errs, invalid("workers", "must not be negative"))
	}
	if c.ViewWidth < 0 || c.ViewHeight < 0 {
		errs = append(errs, invalid("view-width/view-height", "must not be negative"))
	}

	return errors.Join(errs...)
}

// Options converts the settings into pipeline options.
func (c Config) Options() slicer.Options {
	rot := imaging.Rotation(strings.ToLower(c.AutoRotate))
	if rot == "" {
		rot = imaging.RotateNone
	}
	return slicer.Options{
		Detection: detection.Params{
			WhiteThreshold: c.WhiteThreshold,
			MinimumSize:    c.MinimumSize,
			MaximumSize:    c.MaximumSize,
			WorkingWidth:   c.WorkingWidth,
		},
		PerspectiveFix: c.PerspectiveFix,
		Scale: slicer.ScaleSpec{
			Factor: c.ScaleFactor,
			Width:  c.ScaleWidth,
			Height: c.ScaleHeight,
		},
		AutoRotate: rot,
		Filters: filters.Settings{
			Denoise:     c.FilterDenoise,
			LUTPath:     c.FilterLUTPath,
			LUTStrength: c.FilterLUTStrength,
			Color:       c.FilterColor,
			Contrast:    c.FilterContrast,
			Brightness:  c.FilterBrightness,
			Sharpness:   c.FilterSharpness,
		},
		Encode: slicer.EncodeOptions{
			Format:         slicer.Format(strings.ToLower(c.SaveFormat)),
			PNGOptimize:    c.PNGOptimize,
			PNGCompression: c.PNGCompression,
			JPEGOptimize:   c.JPEGOptimize,
			JPEGQuality:    c.JPEGQuality,
			WebPLossless:   c.WebPLossless,
			WebPMethod:     c.WebPMethod,
			WebPQuality:    c.WebPQuality,
		},
	}
}

// Decode reads YAML settings from r on top of the defaults. Unknown keys
// are an error so typos do not go unnoticed.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Load reads the config file at path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Decode(bytes.NewReader(data))
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML, creating the directory if needed.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// WriteDefault creates a commented default config file at path unless one
// already exists. It reports whether a file was written.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create default config: %w", err)
	}
	if _, err := io.WriteString(f, defaultTemplate); err != nil {
		f.Close()
		return false, fmt.Errorf("write default config: %w", err)
	}
	return true, f.Close()
}

// DefaultPath returns the config file location under the user's config
// directory, e.g. ~/.config/ScanImageSlicer/config.yaml.
func DefaultPath() (string, error) {
	return xdg.ConfigFile(filepath.Join(AppDir, "config.yaml"))
}

// LogPath returns the location of the last-run log file.
func LogPath() (string, error) {
	return xdg.ConfigFile(filepath.Join(AppDir, "last_run.log"))
}

// ListPath returns the location of the saved image listing.
func ListPath(name string) (string, error) {
	return xdg.ConfigFile(filepath.Join(AppDir, name))
}
