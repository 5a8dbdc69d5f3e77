package slicer

import (
	"errors"
	"fmt"
	"hash/fnv"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// ErrOutputExists is returned when a slice would overwrite an existing file.
var ErrOutputExists = errors.New("output file already exists")

// TempName returns the name a slice is first written under. It depends only
// on the source file name, its size and the slice ordinal, so concurrent
// units never race for a name and a rerun produces the same names.
func TempName(source string, size int64, ordinal int, f Format) string {
	h := fnv.New64a()
	io.WriteString(h, source)
	h.Write([]byte{0})
	io.WriteString(h, strconv.FormatInt(size, 10))
	h.Write([]byte{0})
	io.WriteString(h, strconv.Itoa(ordinal))
	return fmt.Sprintf("tmp_file_%016x%s", h.Sum64(), f.Ext())
}

// pngLevel maps the 0-9 compression scale onto the levels the Go encoder
// offers.
func pngLevel(o EncodeOptions) png.CompressionLevel {
	if o.PNGOptimize {
		return png.BestCompression
	}
	switch {
	case o.PNGCompression <= 0:
		return png.NoCompression
	case o.PNGCompression <= 3:
		return png.BestSpeed
	case o.PNGCompression <= 6:
		return png.DefaultCompression
	}
	return png.BestCompression
}

// Encode writes img to w in the configured format.
func Encode(w io.Writer, img image.Image, o EncodeOptions) error {
	switch o.Format {
	case FormatJPEG:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(o.JPEGQuality))
	case FormatWEBP:
		return webp.Encode(w, img, &webp.Options{
			Lossless: o.WebPLossless,
			Quality:  float32(o.WebPQuality),
		})
	case FormatPNG, "":
		return imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(pngLevel(o)))
	}
	return fmt.Errorf("unsupported save format %q", o.Format)
}

// WriteFile encodes img into dir/name. The directory is created if needed;
// an existing file is never replaced.
func WriteFile(dir, name string, img image.Image, o EncodeOptions) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrOutputExists, path)
		}
		return "", fmt.Errorf("create slice file: %w", err)
	}

	if err := Encode(f, img, o); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}
