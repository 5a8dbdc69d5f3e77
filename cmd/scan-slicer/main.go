package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/ironsheep/scan-slicer/internal/catalog"
	"github.com/ironsheep/scan-slicer/internal/config"
	"github.com/ironsheep/scan-slicer/internal/slicer"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// app carries what every step of a run needs.
type app struct {
	cfg    config.Config
	opts   *options
	logger *slog.Logger
	out    io.Writer
	errOut io.Writer
	prompt *slicer.Prompter
	isTerm bool
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	c := newCLI(stderr)
	if err := c.parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, "error:", err)
		return 2
	}
	if c.opts.version {
		fmt.Fprintf(stdout, "scan-slicer %s\n", Version)
		fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
		return 0
	}

	cfgPath, err := configPath(c.opts.configFile, stdout)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	c.apply(&cfg)

	logger, closeLog, logPath, err := newLogger(stderr, c.opts.debug)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	defer closeLog()

	fmt.Fprintf(stdout, "scan-slicer %s :: config %s\n", Version, cfgPath)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid settings", "error", err)
		return 1
	}

	a := &app{
		cfg:    cfg,
		opts:   &c.opts,
		logger: logger,
		out:    stdout,
		errOut: stderr,
		prompt: slicer.NewPrompter(stdin, stdout),
		isTerm: isTerminal(stderr),
	}
	if err := a.run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("interrupted")
		} else {
			logger.Error(err.Error())
		}
		return 1
	}
	if c.opts.modes() > 0 {
		fmt.Fprintf(stdout, "View runlog at: %s\n", logPath)
	}
	return 0
}

// configPath returns the config file to read. Without -conf the default file
// is created from the commented template on first use.
func configPath(custom string, out io.Writer) (string, error) {
	if custom != "" {
		if _, err := os.Stat(custom); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return custom, nil
	}
	path, err := config.DefaultPath()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	written, err := config.WriteDefault(path)
	if err != nil {
		return "", err
	}
	if written {
		fmt.Fprintf(out, "Created default config file at %s\n", path)
	}
	return path, nil
}

// newLogger logs to stderr and to last_run.log in the config directory.
// SCAN_SLICER_LOG_LEVEL=debug has the same effect as --debug.
func newLogger(stderr io.Writer, debug bool) (*slog.Logger, func(), string, error) {
	level := slog.LevelInfo
	if debug || strings.EqualFold(os.Getenv("SCAN_SLICER_LOG_LEVEL"), "debug") {
		level = slog.LevelDebug
	}

	path, err := config.LogPath()
	if err != nil {
		return nil, nil, "", fmt.Errorf("locate log file: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, "", fmt.Errorf("create log file: %w", err)
	}
	h := slog.NewTextHandler(io.MultiWriter(stderr, f), &slog.HandlerOptions{Level: level})
	return slog.New(h), func() { f.Close() }, path, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (a *app) run(ctx context.Context) error {
	if a.opts.modes() > 1 {
		return errors.New("choose only one of -test, -count, -preview and -slice")
	}
	if a.cfg.Input == "" {
		return errors.New("no input directory: set input in the config file or use -i")
	}

	images, err := catalog.Collect(a.cfg.Input)
	if errors.Is(err, catalog.ErrNoImages) {
		a.logger.Info("no compatible images found", "input", a.cfg.Input)
		return nil
	}
	if err != nil {
		return err
	}

	if a.opts.listImages {
		fmt.Fprintf(a.out, "\nListing scanned images (%d)\n", len(images))
		if err := catalog.WriteList(a.out, images, false); err != nil {
			return err
		}
	}
	if a.opts.listFile {
		path, err := config.ListPath(catalog.ListFileName)
		if err != nil {
			return err
		}
		if err := catalog.WriteListFile(path, images); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "\nSaved list of scanned images to file: %s\n", path)
	}

	tasks := catalog.NewTasks(len(images))
	if a.opts.hasTaskCommands() {
		if err := a.handleTasks(tasks); err != nil {
			return err
		}
	}
	if a.opts.listTasks {
		fmt.Fprintf(a.out, "\nListing tasks (%d)\n", tasks.Len())
		if tasks.Len() == 0 {
			fmt.Fprintln(a.out, "Task list is empty")
		}
		for i, img := range tasks.Select(images) {
			fmt.Fprintln(a.out, catalog.FormatTask(i+1, img))
		}
	}

	if a.opts.modes() == 0 {
		return nil
	}
	if tasks.Len() == 0 {
		a.logger.Info("add some tasks before using action modes")
		return nil
	}
	if !a.opts.countMode && a.cfg.Output == "" {
		return errors.New("no output directory: set output in the config file or use -o")
	}
	return a.runMode(ctx, tasks.Select(images))
}

// handleTasks applies the task commands in a fixed order and prints what
// each one did.
func (a *app) handleTasks(tasks *catalog.Tasks) error {
	o := a.opts
	if o.addAll {
		tasks.AddAll()
	}
	if len(o.addIDs) > 0 {
		tasks.AddIDs(o.addIDs...)
	}
	if o.addNew > 0 {
		if err := tasks.AddNewest(o.addNew); err != nil {
			return err
		}
	}
	if o.addOld > 0 {
		if err := tasks.AddOldest(o.addOld); err != nil {
			return err
		}
	}
	if o.addRandom > 0 {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		if err := tasks.AddRandom(o.addRandom, rng); err != nil {
			return err
		}
	}
	if len(o.removeIDs) > 0 {
		tasks.RemoveIDs(o.removeIDs...)
	}

	msgs := tasks.Messages()
	fmt.Fprintf(a.out, "\nListing commands (%d)\n", len(msgs))
	for _, m := range msgs {
		fmt.Fprintln(a.out, m)
	}
	return nil
}

func (a *app) modeName() string {
	switch {
	case a.opts.testMode:
		return "test"
	case a.opts.countMode:
		return "count"
	case a.opts.previewMode:
		return "preview"
	}
	return "slice"
}

func (a *app) runMode(ctx context.Context, images []catalog.ScannedImage) error {
	mode := a.modeName()
	a.logger.Info("starting slicer", "mode", mode, "tasks", len(images), "input", a.cfg.Input, "output", a.cfg.Output)
	a.logger.Debug("settings", "config", fmt.Sprintf("%+v", a.cfg))

	if !a.cfg.SkipConfirm {
		fmt.Fprintf(a.out, "\nTasks to complete: %d\n", len(images))
		ok, err := a.prompt.Confirm("Continue?")
		if err != nil {
			return err
		}
		if !ok {
			a.logger.Info("aborting")
			return nil
		}
	}

	// Batch modes on a terminal get a progress bar unless debug logging is on.
	var progress *slicer.ProgressObserver
	observers := slicer.MultiObserver{slicer.LogObserver{Logger: a.logger}}
	batch := mode == "count" || mode == "slice"
	if batch && a.isTerm && !a.logger.Enabled(ctx, slog.LevelDebug) {
		progress = slicer.NewProgressObserver(a.errOut, len(images), ":: Progress")
		observers = append(observers, progress)
	}

	proc, err := slicer.NewProcessor(a.cfg.Options(), a.logger, observers)
	if err != nil {
		return err
	}

	prefix := slicer.NamePrefix(a.cfg.ProjectName, a.cfg.Input)
	start := time.Now()
	a.logger.Info("process start")
	var total, failed int
	action := "Saved"

	switch mode {
	case "count":
		action = "Detected"
		br, err := slicer.CountBatch(ctx, proc, images, a.cfg.Workers)
		if err != nil {
			return err
		}
		total, failed = br.Total, br.Failed

	case "slice":
		br, _, err := slicer.SliceBatch(ctx, proc, images, a.cfg.Output, a.cfg.Workers, prefix)
		if err != nil {
			return err
		}
		total, failed = br.Total, br.Failed

	case "test", "preview":
		s := &slicer.Session{
			Proc:       proc,
			OutputRoot: a.cfg.Output,
			View:       slicer.View{Width: a.cfg.ViewWidth, Height: a.cfg.ViewHeight},
			Prompt:     a.prompt,
		}
		if mode == "test" {
			action = "Detected"
			if total, err = s.Test(ctx, images); err != nil {
				return err
			}
			break
		}
		saved, err := s.Preview(ctx, images)
		if _, rerr := slicer.Rename(saved, prefix); rerr != nil || err != nil {
			return errors.Join(err, rerr)
		}
		for _, r := range saved {
			total += r.Count
		}
	}

	if progress != nil {
		_ = progress.Finish()
	}
	a.logger.Info("process finish", "elapsed", time.Since(start).Round(time.Second))
	if failed > 0 {
		a.logger.Warn("some scanned images were skipped", "failed", failed)
	}
	fmt.Fprintf(a.out, "\n%s %d images from %d scanned images\n", action, total, len(images))
	return nil
}
