package slicer

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/scan-slicer/internal/catalog"
)

// DefaultWorkers is half the logical CPUs, and at least one.
func DefaultWorkers() int {
	return max(1, runtime.NumCPU()/2)
}

// BatchResult summarizes a batch run.
type BatchResult struct {
	// Total is the number of slices written (or counted) across all scans.
	Total int `json:"total"`

	// Results holds one entry per input scan, in input order. A scan that
	// failed before writing any slice has a nil entry.
	Results []*Result `json:"results"`

	// Failed counts scans that were skipped because of an error.
	Failed int `json:"failed"`
}

// RunBatch processes images on a pool of workers. Each scan is written into
// its DestDir under outputRoot. A scan that fails is logged through the
// processor's observer and skipped; the rest of the batch carries on. Only
// cancellation of ctx stops the batch early.
func RunBatch(ctx context.Context, proc *Processor, images []catalog.ScannedImage, outputRoot string, workers int) (*BatchResult, error) {
	results := make([]*Result, len(images))
	var failed atomic.Int64

	err := runPool(ctx, len(images), workers, func(ctx context.Context, i int) error {
		img := images[i]
		res, err := proc.Process(ctx, img, img.DestDir(outputRoot))
		if res != nil {
			// Slices written before a failure still need their final names.
			results[i] = res
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			proc.logger.Error("skipping scanned image", "name", img.Name, "error", err)
			failed.Add(1)
		}
		return nil
	})

	br := &BatchResult{Results: results, Failed: int(failed.Load())}
	for _, r := range results {
		if r != nil {
			br.Total += r.Count
		}
	}
	return br, err
}

// SliceBatch runs RunBatch and then the rename pass. The rename covers
// every slice that reached the disk, including those of a cancelled batch or
// a scan that failed part way, so no temporary file is left to collide with
// the next run.
func SliceBatch(ctx context.Context, proc *Processor, images []catalog.ScannedImage, outputRoot string, workers int, prefix PrefixFunc) (*BatchResult, []string, error) {
	br, err := RunBatch(ctx, proc, images, outputRoot, workers)
	files, rerr := Rename(br.Results, prefix)
	return br, files, errors.Join(err, rerr)
}

// CountBatch counts the accepted regions on every image using a pool of
// workers. Unreadable scans are logged and contribute nothing.
func CountBatch(ctx context.Context, proc *Processor, images []catalog.ScannedImage, workers int) (*BatchResult, error) {
	counts := make([]int, len(images))
	var failed atomic.Int64

	err := runPool(ctx, len(images), workers, func(ctx context.Context, i int) error {
		n, err := proc.Count(ctx, images[i])
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			proc.logger.Error("skipping scanned image", "name", images[i].Name, "error", err)
			failed.Add(1)
			return nil
		}
		counts[i] = n
		return nil
	})

	br := &BatchResult{Failed: int(failed.Load())}
	for _, n := range counts {
		br.Total += n
	}
	return br, err
}

// runPool calls fn for every index in [0, n) with at most workers calls in
// flight.
func runPool(ctx context.Context, n, workers int, fn func(context.Context, int) error) error {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error { return fn(gctx, i) })
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
