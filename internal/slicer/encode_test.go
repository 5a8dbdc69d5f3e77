package slicer

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTempName(t *testing.T) {
	a := TempName("scan.jpg", 1234, 0, FormatPNG)
	assert.Equal(t, a, TempName("scan.jpg", 1234, 0, FormatPNG), "pure function of its inputs")
	assert.True(t, strings.HasPrefix(a, "tmp_file_"))
	assert.True(t, strings.HasSuffix(a, ".png"))

	assert.NotEqual(t, a, TempName("scan.jpg", 1234, 1, FormatPNG))
	assert.NotEqual(t, a, TempName("scan.jpg", 1235, 0, FormatPNG))
	assert.NotEqual(t, a, TempName("other.jpg", 1234, 0, FormatPNG))

	assert.True(t, strings.HasSuffix(TempName("scan.jpg", 1, 0, FormatJPEG), ".jpg"))
	assert.True(t, strings.HasSuffix(TempName("scan.jpg", 1, 0, FormatWEBP), ".webp"))
}

func TestPNGLevel(t *testing.T) {
	assert.Equal(t, png.NoCompression, pngLevel(EncodeOptions{PNGCompression: 0}))
	assert.Equal(t, png.BestSpeed, pngLevel(EncodeOptions{PNGCompression: 3}))
	assert.Equal(t, png.DefaultCompression, pngLevel(EncodeOptions{PNGCompression: 5}))
	assert.Equal(t, png.BestCompression, pngLevel(EncodeOptions{PNGCompression: 9}))
	assert.Equal(t, png.BestCompression, pngLevel(EncodeOptions{PNGCompression: 0, PNGOptimize: true}))
}

func TestEncode(t *testing.T) {
	img := whiteScan(16, 8)
	fill(img, image.Rect(0, 0, 8, 8), color.NRGBA{200, 30, 30, 255})

	tests := []struct {
		name   string
		opts   EncodeOptions
		decode func(*bytes.Reader) (image.Image, error)
	}{
		{"png", EncodeOptions{Format: FormatPNG, PNGCompression: 9}, func(r *bytes.Reader) (image.Image, error) { return png.Decode(r) }},
		{"jpeg", EncodeOptions{Format: FormatJPEG, JPEGQuality: 90}, func(r *bytes.Reader) (image.Image, error) { return jpeg.Decode(r) }},
		{"webp", EncodeOptions{Format: FormatWEBP, WebPLossless: true}, func(r *bytes.Reader) (image.Image, error) { return webp.Decode(r) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, img, tt.opts))
			out, err := tt.decode(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			assert.Equal(t, img.Bounds().Size(), out.Bounds().Size())
		})
	}

	assert.Error(t, Encode(&bytes.Buffer{}, img, EncodeOptions{Format: "gif"}))
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	img := whiteScan(4, 4)

	path, err := WriteFile(dir, "a.png", img, EncodeOptions{Format: FormatPNG})
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = WriteFile(dir, "a.png", img, EncodeOptions{Format: FormatPNG})
	assert.ErrorIs(t, err, ErrOutputExists)

	_, err = WriteFile(dir, "b.png", img, EncodeOptions{Format: "tga"})
	assert.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "b.png"))
	assert.True(t, os.IsNotExist(statErr), "failed encodes leave nothing behind")
}
