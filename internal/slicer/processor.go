package slicer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/ironsheep/scan-slicer/internal/catalog"
	"github.com/ironsheep/scan-slicer/internal/detection"
	"github.com/ironsheep/scan-slicer/internal/filters"
	"github.com/ironsheep/scan-slicer/internal/imaging"
)

// SliceResult is one post-processed slice held in memory.
type SliceResult struct {
	// Ordinal numbers the slice among the scan's accepted regions, from 0.
	Ordinal int

	Region       detection.Region
	Straightened bool
	Image        image.Image
}

// Result summarizes one processed scan.
type Result struct {
	Image catalog.ScannedImage `json:"image"`

	// Count is the number of slices written.
	Count int `json:"count"`

	// Skipped counts accepted regions that produced no slice.
	Skipped int `json:"skipped"`

	// Files lists the written slices in ordinal order.
	Files []string `json:"files"`
}

// Processor runs the full pipeline for one scan at a time. A Processor is
// safe for concurrent use: it only holds read-only options and the shared
// filter chain.
type Processor struct {
	opts     Options
	chain    *filters.Chain
	logger   *slog.Logger
	observer Observer
}

// NewProcessor builds the filter chain up front so that a broken LUT or an
// out-of-range filter is reported before any scan is touched.
func NewProcessor(opts Options, logger *slog.Logger, observer Observer) (*Processor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if observer == nil {
		observer = NopObserver{}
	}
	if opts.Encode.Format == "" {
		opts.Encode.Format = FormatPNG
	}
	if !opts.Encode.Format.Valid() {
		return nil, fmt.Errorf("unsupported save format %q", opts.Encode.Format)
	}

	chain, err := filters.NewChain(opts.Filters, logger)
	if err != nil {
		return nil, fmt.Errorf("build filter chain: %w", err)
	}
	return &Processor{opts: opts, chain: chain, logger: logger, observer: observer}, nil
}

// Options returns the options the processor was built with.
func (p *Processor) Options() Options { return p.opts }

// Detect runs detection on a decoded scan.
func (p *Processor) Detect(src image.Image) (*detection.Detection, error) {
	return detection.Detect(src, p.opts.Detection)
}

// Count opens a scan and returns the number of accepted regions on it.
func (p *Processor) Count(ctx context.Context, img catalog.ScannedImage) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p.observer.ImageStarted(img)

	src, err := imaging.Open(img.Path())
	if err != nil {
		p.observer.ImageFinished(img, 0, err)
		return 0, err
	}
	d, err := p.Detect(src)
	if err != nil {
		err = fmt.Errorf("%s: %w", img.Name, err)
		p.observer.ImageFinished(img, 0, err)
		return 0, err
	}
	p.observer.RegionsDetected(img, d.AcceptedCount, d.RejectedCount)
	p.observer.ImageFinished(img, d.AcceptedCount, nil)
	return d.AcceptedCount, nil
}

// eachSlice detects regions on src and hands every post-processed slice to
// fn. Regions that cannot be extracted are logged and skipped.
func (p *Processor) eachSlice(ctx context.Context, src image.Image, d *detection.Detection, fn func(SliceResult) error) (skipped int, err error) {
	for ordinal, r := range d.Accepted() {
		if err := ctx.Err(); err != nil {
			return skipped, err
		}

		poly := SourcePolygon(r.Contour, d.Mask.ScaleX, d.Mask.ScaleY)
		s, err := ExtractSlice(src, poly, p.opts.PerspectiveFix)
		if errors.Is(err, ErrDegenerateRegion) {
			p.logger.Warn("skipping region", "ordinal", ordinal, "error", err)
			skipped++
			continue
		}
		if err != nil {
			return skipped, err
		}

		out, err := PostProcess(s.Image, p.opts, p.chain)
		if err != nil {
			return skipped, fmt.Errorf("post-process slice %d: %w", ordinal, err)
		}
		if err := fn(SliceResult{Ordinal: ordinal, Region: r, Straightened: s.Straightened, Image: out}); err != nil {
			return skipped, err
		}
	}
	return skipped, nil
}

// Slices returns every post-processed slice of src without writing
// anything.
func (p *Processor) Slices(ctx context.Context, src image.Image) ([]SliceResult, *detection.Detection, error) {
	d, err := p.Detect(src)
	if err != nil {
		return nil, nil, err
	}
	var out []SliceResult
	_, err = p.eachSlice(ctx, src, d, func(s SliceResult) error {
		out = append(out, s)
		return nil
	})
	if err != nil {
		return nil, d, err
	}
	return out, d, nil
}

// Process runs the whole pipeline for one scan and writes its slices into
// destDir under temporary names. Rename assigns the final names once the
// run is over.
func (p *Processor) Process(ctx context.Context, img catalog.ScannedImage, destDir string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.observer.ImageStarted(img)
	res, err := p.process(ctx, img, destDir)
	count := 0
	if res != nil {
		count = res.Count
	}
	p.observer.ImageFinished(img, count, err)
	return res, err
}

func (p *Processor) process(ctx context.Context, img catalog.ScannedImage, destDir string) (*Result, error) {
	src, err := imaging.Open(img.Path())
	if err != nil {
		return nil, err
	}
	d, err := p.Detect(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", img.Name, err)
	}
	p.observer.RegionsDetected(img, d.AcceptedCount, d.RejectedCount)

	res := &Result{Image: img}
	res.Skipped, err = p.eachSlice(ctx, src, d, func(s SliceResult) error {
		name := TempName(img.Name, img.Size, s.Ordinal, p.opts.Encode.Format)
		path, err := WriteFile(destDir, name, s.Image, p.opts.Encode)
		if err != nil {
			return err
		}
		res.Files = append(res.Files, path)
		res.Count++
		p.observer.SliceSaved(img, path)
		return nil
	})
	if err != nil {
		return res, err
	}
	return res, nil
}
