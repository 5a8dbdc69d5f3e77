package slicer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ironsheep/scan-slicer/internal/catalog"
)

// PrefixFunc names the slices of one scan.
type PrefixFunc func(img catalog.ScannedImage) string

// NamePrefix returns the default prefix rule: the project name when one is
// set, otherwise the scan's relative directory with separators replaced by
// "-", or the input directory's own name for scans at the root.
func NamePrefix(projectName, inputRoot string) PrefixFunc {
	root := filepath.Base(filepath.Clean(inputRoot))
	return func(img catalog.ScannedImage) string {
		if projectName != "" {
			return projectName
		}
		if img.RelDir == "." || img.RelDir == "" {
			return root
		}
		return strings.Join(strings.Split(filepath.ToSlash(img.RelDir), "/"), "-")
	}
}

// Rename gives every temporary slice file its final name,
// "<prefix>-<n><ext>". Numbering is per prefix and directory, follows the
// order of results and then slice order, and skips names that already exist
// so earlier runs are never overwritten. It returns the final paths.
func Rename(results []*Result, prefix PrefixFunc) ([]string, error) {
	counters := make(map[string]int)
	var renamed []string

	for _, res := range results {
		if res == nil {
			continue
		}
		p := prefix(res.Image)
		for _, tmp := range res.Files {
			dir := filepath.Dir(tmp)
			key := dir + "\x00" + p
			ext := filepath.Ext(tmp)

			var final string
			for {
				counters[key]++
				final = filepath.Join(dir, p+"-"+strconv.Itoa(counters[key])+ext)
				_, err := os.Stat(final)
				if errors.Is(err, fs.ErrNotExist) {
					break
				}
				if err != nil {
					return renamed, fmt.Errorf("check %s: %w", final, err)
				}
			}
			if err := os.Rename(tmp, final); err != nil {
				return renamed, fmt.Errorf("rename slice: %w", err)
			}
			renamed = append(renamed, final)
		}
	}
	return renamed, nil
}
