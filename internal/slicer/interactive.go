package slicer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/scan-slicer/internal/catalog"
	"github.com/ironsheep/scan-slicer/internal/detection"
	imgutil "github.com/ironsheep/scan-slicer/internal/imaging"
)

// Directories under the output root used by the interactive modes.
const (
	TestDir    = "_test"
	PreviewDir = "_preview"
)

// Prompter asks single-line questions on a terminal.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter reads answers from r and writes questions to w.
func NewPrompter(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(r), out: w}
}

// Ask prints question and returns the trimmed, lower-cased answer. End of
// input is answered as "q".
func (p *Prompter) Ask(question string) (string, error) {
	fmt.Fprintf(p.out, ":: %s: ", question)
	line, err := p.in.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", err
		}
		if line == "" {
			return "q", nil
		}
	}
	return strings.ToLower(strings.TrimSpace(line)), nil
}

// Confirm asks a yes/no question until it gets y or n.
func (p *Prompter) Confirm(question string) (bool, error) {
	for {
		a, err := p.Ask(question + " y/n")
		if err != nil {
			return false, err
		}
		switch a {
		case "y":
			return true, nil
		case "n", "q":
			return false, nil
		}
	}
}

// View bounds the size of images written for inspection.
type View struct {
	Width  int
	Height int
}

// Session runs the interactive test and preview modes: one scan at a time,
// waiting for the user between scans.
type Session struct {
	Proc       *Processor
	OutputRoot string
	View       View
	Prompt     *Prompter
}

func baseName(img catalog.ScannedImage) string {
	return strings.TrimSuffix(img.Name, filepath.Ext(img.Name))
}

// Test writes an annotated detection image for every scan into the _test
// directory and waits for the user to continue. It returns the total number
// of accepted regions seen.
func (s *Session) Test(ctx context.Context, images []catalog.ScannedImage) (int, error) {
	dir := filepath.Join(s.OutputRoot, TestDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create test directory: %w", err)
	}
	total := 0
	log := s.Proc.logger

	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		src, err := imgutil.Open(img.Path())
		if err != nil {
			return total, err
		}
		d, err := s.Proc.Detect(src)
		if err != nil {
			return total, fmt.Errorf("%s: %w", img.Name, err)
		}
		total += d.AcceptedCount
		s.Proc.observer.RegionsDetected(img, d.AcceptedCount, d.RejectedCount)

		if bg, err := imgutil.SampleBackground(src, 0); err == nil {
			log.Debug("scanner background", "name", img.Name, "color", bg.Hex,
				"darkest", bg.Darkest, "suggested_threshold", bg.SuggestedThreshold)
			if threshold := s.Proc.opts.Detection.WhiteThreshold; threshold >= bg.Darkest {
				log.Warn("white-threshold is not below the scanner background",
					"name", img.Name, "white_threshold", threshold, "suggested", bg.SuggestedThreshold)
			}
		}

		view := imgutil.FitView(detection.Annotate(d), s.View.Width, s.View.Height)
		path := filepath.Join(dir, fmt.Sprintf("%03d-%s.png", img.ID, baseName(img)))
		if err := imaging.Save(view, path); err != nil {
			return total, fmt.Errorf("write test image: %w", err)
		}
		log.Info("detected regions", "name", img.Name,
			"total", len(d.Regions), "accepted", d.AcceptedCount, "rejected", d.RejectedCount, "view", path)

		a, err := s.Prompt.Ask("[Enter]=next, q=quit")
		if err != nil {
			return total, err
		}
		if a == "q" {
			break
		}
	}
	return total, nil
}

// Preview writes the post-processed slices of every scan into the _preview
// directory. Answering "s" runs the normal pipeline for that scan; the
// returned results are the scans that were saved, including a scan whose
// save failed after some slices were written.
func (s *Session) Preview(ctx context.Context, images []catalog.ScannedImage) ([]*Result, error) {
	dir := filepath.Join(s.OutputRoot, PreviewDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create preview directory: %w", err)
	}
	var saved []*Result
	log := s.Proc.logger

	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return saved, err
		}

		src, err := imgutil.Open(img.Path())
		if err != nil {
			return saved, err
		}
		slices, d, err := s.Proc.Slices(ctx, src)
		if err != nil {
			return saved, fmt.Errorf("%s: %w", img.Name, err)
		}
		s.Proc.observer.RegionsDetected(img, d.AcceptedCount, d.RejectedCount)

		for _, sl := range slices {
			name := baseName(img) + "-" + strconv.Itoa(sl.Ordinal+1) + ".png"
			path := filepath.Join(dir, name)
			view := imgutil.FitView(sl.Image, s.View.Width, s.View.Height)
			if err := imaging.Save(view, path); err != nil {
				return saved, fmt.Errorf("write preview: %w", err)
			}
			log.Info("preview slice", "name", img.Name, "slice", sl.Ordinal+1, "straightened", sl.Straightened, "file", path)
		}

		a, err := s.Prompt.Ask("s=save, [Enter]=next, q=quit")
		if err != nil {
			return saved, err
		}
		switch a {
		case "q":
			return saved, nil
		case "s":
			res, err := s.Proc.Process(ctx, img, img.DestDir(s.OutputRoot))
			if res != nil {
				saved = append(saved, res)
			}
			if err != nil {
				return saved, err
			}
		}
	}
	return saved, nil
}
