package catalog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// ListFileName is the file WriteListFile writes into the config directory.
const ListFileName = "list of scanned images.txt"

// leader returns the dot run that separates an ID from the file name. It
// shrinks by one for every extra digit so the names line up.
func leader(id int) string {
	n := 10
	for limit := 10; id >= limit && n > 1; limit *= 10 {
		n--
	}
	return strings.Repeat(".", n)
}

// FormatImage renders one catalog line: "ID 3 .......... scan.jpg".
func FormatImage(img ScannedImage) string {
	return fmt.Sprintf("ID %d %s %s", img.ID, leader(img.ID), filepath.Join(img.RelDir, img.Name))
}

// WriteList writes one line per image to w. With details set each line also
// carries the file size and modification time.
func WriteList(w io.Writer, images []ScannedImage, details bool) error {
	bw := bufio.NewWriter(w)
	for _, img := range images {
		line := FormatImage(img)
		if details {
			line = fmt.Sprintf("%s (%s, %s)", line, humanize.Bytes(uint64(img.Size)), humanize.Time(img.ModTime))
		}
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteListFile saves the catalog listing to path.
func WriteListFile(path string, images []ScannedImage) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image list: %w", err)
	}
	if err := WriteList(f, images, true); err != nil {
		f.Close()
		return fmt.Errorf("write image list: %w", err)
	}
	return f.Close()
}

// FormatTask renders one task line: "TASK #1 .......... scan.jpg [ID:3]".
func FormatTask(n int, img ScannedImage) string {
	return fmt.Sprintf("TASK #%d %s %s [ID:%d]", n, leader(n), filepath.Join(img.RelDir, img.Name), img.ID)
}
