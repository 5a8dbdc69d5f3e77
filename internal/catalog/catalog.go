// Package catalog discovers scanned images under an input directory and
// manages the list of images a run will work on.
//
// Images are identified by their position in the catalog, which is sorted
// oldest first. IDs are therefore stable for as long as the input directory
// does not change, and the same IDs can be passed on the command line across
// runs.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ironsheep/scan-slicer/internal/imaging"
)

// ErrNoImages is returned by Collect when the input directory holds no
// supported images.
var ErrNoImages = errors.New("no scanned images found")

// Extensions lists the file extensions Collect accepts, lower case.
var Extensions = []string{
	".bmp", ".dib", ".gif", ".jpe", ".jpeg", ".jpg", ".png", ".tif", ".tiff", ".webp",
}

// ScannedImage is one source scan found on disk.
type ScannedImage struct {
	// ID is the position of the image in the catalog.
	ID int `json:"id"`

	// Name is the file name without directory.
	Name string `json:"name"`

	// Dir is the absolute directory holding the file.
	Dir string `json:"dir"`

	// RelDir is Dir relative to the input root; "." for the root itself.
	RelDir string `json:"rel_dir"`

	Format  string    `json:"format"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Path returns the full path of the file.
func (s ScannedImage) Path() string { return filepath.Join(s.Dir, s.Name) }

// DestDir returns the directory slices of this image are written to: the
// image's relative directory mirrored under outputRoot.
func (s ScannedImage) DestDir(outputRoot string) string {
	return filepath.Join(outputRoot, s.RelDir)
}

func supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Collect walks root recursively and returns every supported image, sorted
// by modification time (oldest first) with the relative path as tie-break.
func Collect(root string) ([]ScannedImage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve input directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("input directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input %s is not a directory", abs)
	}

	var images []ScannedImage
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !supported(d.Name()) {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		dir := filepath.Dir(path)
		rel, err := filepath.Rel(abs, dir)
		if err != nil {
			return err
		}
		images = append(images, ScannedImage{
			Name:    d.Name(),
			Dir:     dir,
			RelDir:  rel,
			Format:  imaging.FormatFromExt(path),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan input directory: %w", err)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w at %s", ErrNoImages, abs)
	}

	sort.SliceStable(images, func(i, j int) bool {
		a, b := images[i], images[j]
		if !a.ModTime.Equal(b.ModTime) {
			return a.ModTime.Before(b.ModTime)
		}
		return filepath.Join(a.RelDir, a.Name) < filepath.Join(b.RelDir, b.Name)
	})
	for i := range images {
		images[i].ID = i
	}
	return images, nil
}

// Describe returns the catalog entry for a single image file, as if it
// were the only scan in its own directory.
func Describe(path string) (ScannedImage, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return ScannedImage{}, fmt.Errorf("resolve image path: %w", err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return ScannedImage{}, fmt.Errorf("image: %w", err)
	}
	if fi.IsDir() {
		return ScannedImage{}, fmt.Errorf("%s is a directory", abs)
	}
	if !supported(fi.Name()) {
		return ScannedImage{}, fmt.Errorf("%s: unsupported image type", abs)
	}
	return ScannedImage{
		Name:    fi.Name(),
		Dir:     filepath.Dir(abs),
		RelDir:  ".",
		Format:  imaging.FormatFromExt(abs),
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
	}, nil
}
