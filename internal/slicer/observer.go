package slicer

import (
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"

	"github.com/ironsheep/scan-slicer/internal/catalog"
)

// Observer receives progress events from a Processor. Batch runs call it
// from several goroutines at once, so implementations must be safe for
// concurrent use and should return quickly.
type Observer interface {
	ImageStarted(img catalog.ScannedImage)
	RegionsDetected(img catalog.ScannedImage, accepted, rejected int)
	SliceSaved(img catalog.ScannedImage, path string)
	ImageFinished(img catalog.ScannedImage, count int, err error)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) ImageStarted(catalog.ScannedImage) {}
func (NopObserver) RegionsDetected(catalog.ScannedImage, int, int) {}
func (NopObserver) SliceSaved(catalog.ScannedImage, string) {}
func (NopObserver) ImageFinished(catalog.ScannedImage, int, error) {}

// LogObserver writes every event to a structured logger at debug level.
// Failures are logged as errors.
type LogObserver struct {
	Logger *slog.Logger
}

func (o LogObserver) ImageStarted(img catalog.ScannedImage) {
	o.Logger.Debug("processing scanned image", "id", img.ID, "name", img.Name)
}

func (o LogObserver) RegionsDetected(img catalog.ScannedImage, accepted, rejected int) {
	o.Logger.Debug("regions detected", "name", img.Name,
		"total", accepted+rejected, "accepted", accepted, "rejected", rejected)
	if accepted == 0 {
		o.Logger.Warn("no photos found on scan", "name", img.Name)
	}
}

func (o LogObserver) SliceSaved(img catalog.ScannedImage, path string) {
	o.Logger.Debug("saved slice", "name", img.Name, "file", path)
}

func (o LogObserver) ImageFinished(img catalog.ScannedImage, count int, err error) {
	if err != nil {
		o.Logger.Error("scanned image skipped", "name", img.Name, "error", err)
		return
	}
	o.Logger.Debug("finished scanned image", "name", img.Name, "slices", count)
}

// ProgressObserver advances a progress bar by one for every finished image.
type ProgressObserver struct {
	bar *progressbar.ProgressBar
}

// NewProgressObserver draws a progress bar for total images on w.
func NewProgressObserver(w io.Writer, total int, description string) *ProgressObserver {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetItsString("image"),
		progressbar.OptionShowIts(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
	)
	return &ProgressObserver{bar: bar}
}

func (o *ProgressObserver) ImageStarted(catalog.ScannedImage) {}
func (o *ProgressObserver) RegionsDetected(catalog.ScannedImage, int, int) {}
func (o *ProgressObserver) SliceSaved(catalog.ScannedImage, string) {}

func (o *ProgressObserver) ImageFinished(catalog.ScannedImage, int, error) {
	_ = o.bar.Add(1)
}

// Finish completes the bar.
func (o *ProgressObserver) Finish() error {
	return o.bar.Finish()
}

// MultiObserver fans every event out to each of its members in order.
type MultiObserver []Observer

func (m MultiObserver) ImageStarted(img catalog.ScannedImage) {
	for _, o := range m {
		o.ImageStarted(img)
	}
}

func (m MultiObserver) RegionsDetected(img catalog.ScannedImage, accepted, rejected int) {
	for _, o := range m {
		o.RegionsDetected(img, accepted, rejected)
	}
}

func (m MultiObserver) SliceSaved(img catalog.ScannedImage, path string) {
	for _, o := range m {
		o.SliceSaved(img, path)
	}
}

func (m MultiObserver) ImageFinished(img catalog.ScannedImage, count int, err error) {
	for _, o := range m {
		o.ImageFinished(img, count, err)
	}
}
