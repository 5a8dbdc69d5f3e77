package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createInMemoryImage returns a solid-color image.
func createInMemoryImage(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createTestImage writes a solid-color PNG into a temp dir and returns its path.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, createInMemoryImage(width, height, c)))
	return path
}

func TestOpen(t *testing.T) {
	path := createTestImage(t, 120, 80, color.White)

	img, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 80, img.Bounds().Dy())
}

func TestOpen_NonExistent(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestOpen_InvalidImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	_, err := Open(path)
	assert.Error(t, err)
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	path := createTestImage(t, 40, 30, color.Black)

	img1, err := cache.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.Len())

	// Remove the file: a cached load must not touch the disk again.
	require.NoError(t, os.Remove(path))
	img2, err := cache.Load(path)
	require.NoError(t, err)
	assert.Same(t, img1, img2)
}

func TestImageCache_Evict(t *testing.T) {
	cache := NewImageCache()
	a := createTestImage(t, 10, 10, color.White)
	b := createTestImage(t, 10, 10, color.Black)

	_, err := cache.Load(a)
	require.NoError(t, err)
	_, err = cache.Load(b)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.Len())

	cache.Evict(a)
	assert.Equal(t, 1, cache.Len())
	cache.Evict("never-loaded.png")
	assert.Equal(t, 1, cache.Len())
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache()
	path := createTestImage(t, 50, 50, color.White)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Load(path)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, cache.Len())
}

func TestLoadImageInfo(t *testing.T) {
	cache := NewImageCache()
	path := createTestImage(t, 64, 48, color.White)

	info, err := LoadImageInfo(cache, path)
	require.NoError(t, err)
	assert.Equal(t, 64, info.Width)
	assert.Equal(t, 48, info.Height)
	assert.Equal(t, "png", info.Format)
	assert.Positive(t, info.FileSizeBytes)
}

func TestFormatFromExt(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"a.png", "png"},
		{"a.PNG", "png"},
		{"a.jpg", "jpeg"},
		{"a.jpeg", "jpeg"},
		{"a.jpe", "jpeg"},
		{"a.tif", "tiff"},
		{"a.tiff", "tiff"},
		{"a.bmp", "bmp"},
		{"a.webp", "webp"},
		{"a.gif", "gif"},
		{"a.txt", "unknown"},
		{"noext", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFromExt(tt.path))
		})
	}
}
