package main

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ironsheep/scan-slicer/internal/config"
)

// intList collects IDs given as "-addID 3,7" or repeated "-addID 3 -addID 7".
type intList []int

func (l *intList) String() string {
	parts := make([]string, len(*l))
	for i, v := range *l {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func (l *intList) Set(s string) error {
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
		v, err := strconv.Atoi(f)
		if err != nil {
			return fmt.Errorf("invalid ID %q", f)
		}
		*l = append(*l, v)
	}
	return nil
}

// options are the command-line switches that are not config settings.
type options struct {
	configFile string
	debug      bool
	version    bool

	testMode, countMode, previewMode, sliceMode bool

	listImages, listFile, listTasks bool

	addAll    bool
	addIDs    intList
	addNew    int
	addOld    int
	addRandom int
	removeIDs intList
}

// cli parses the command line. Config settings are registered under both
// their short and long names; only the ones the user actually set are
// copied onto the loaded config.
type cli struct {
	fs      *flag.FlagSet
	opts    options
	setters map[string]func(*config.Config)
}

func newCLI(output io.Writer) *cli {
	c := &cli{
		fs:      flag.NewFlagSet("scan-slicer", flag.ContinueOnError),
		setters: make(map[string]func(*config.Config)),
	}
	c.fs.SetOutput(output)
	c.fs.Usage = func() { fmt.Fprint(output, usage) }

	o := &c.opts
	c.fs.StringVar(&o.configFile, "conf", "", "")
	c.fs.StringVar(&o.configFile, "config-file", "", "")
	c.fs.BoolVar(&o.debug, "debug", false, "")
	c.fs.BoolVar(&o.version, "version", false, "")

	c.boolPair(&o.testMode, "test", "test-mode")
	c.boolPair(&o.countMode, "count", "count-mode")
	c.boolPair(&o.previewMode, "preview", "preview-mode")
	c.boolPair(&o.sliceMode, "slice", "slice-mode")

	c.boolPair(&o.listImages, "listI", "list-images")
	c.boolPair(&o.listFile, "listF", "list-file")
	c.boolPair(&o.listTasks, "listT", "list-tasks")

	c.boolPair(&o.addAll, "addA", "add-all")
	c.fs.Var(&o.addIDs, "addID", "")
	c.fs.Var(&o.addIDs, "add-id", "")
	c.fs.IntVar(&o.addNew, "addN", 0, "")
	c.fs.IntVar(&o.addNew, "add-new", 0, "")
	c.fs.IntVar(&o.addOld, "addO", 0, "")
	c.fs.IntVar(&o.addOld, "add-old", 0, "")
	c.fs.IntVar(&o.addRandom, "addR", 0, "")
	c.fs.IntVar(&o.addRandom, "add-random", 0, "")
	c.fs.Var(&o.removeIDs, "remID", "")
	c.fs.Var(&o.removeIDs, "remove-id", "")

	c.boolSetting("skip", "skip-confirm", func(cfg *config.Config) *bool { return &cfg.SkipConfirm })
	c.intSetting("work", "workers", func(cfg *config.Config) *int { return &cfg.Workers })
	c.stringSetting("name", "project-name", func(cfg *config.Config) *string { return &cfg.ProjectName })

	c.stringSetting("i", "input", func(cfg *config.Config) *string { return &cfg.Input })
	c.stringSetting("o", "output", func(cfg *config.Config) *string { return &cfg.Output })
	c.stringSetting("lutP", "filter-lut-path", func(cfg *config.Config) *string { return &cfg.FilterLUTPath })

	c.intSetting("white", "white-threshold", func(cfg *config.Config) *int { return &cfg.WhiteThreshold })
	c.floatSetting("min", "minimum-size", func(cfg *config.Config) *float64 { return &cfg.MinimumSize })
	c.floatSetting("max", "maximum-size", func(cfg *config.Config) *float64 { return &cfg.MaximumSize })

	c.floatSetting("scaleF", "scale-factor", func(cfg *config.Config) *float64 { return &cfg.ScaleFactor })
	c.intSetting("scaleW", "scale-width", func(cfg *config.Config) *int { return &cfg.ScaleWidth })
	c.intSetting("scaleH", "scale-height", func(cfg *config.Config) *int { return &cfg.ScaleHeight })

	c.intSetting("denoise", "filter-denoise", func(cfg *config.Config) *int { return &cfg.FilterDenoise })
	c.floatSetting("lutS", "filter-lut-strength", func(cfg *config.Config) *float64 { return &cfg.FilterLUTStrength })
	c.floatSetting("color", "filter-color", func(cfg *config.Config) *float64 { return &cfg.FilterColor })
	c.floatSetting("contrast", "filter-contrast", func(cfg *config.Config) *float64 { return &cfg.FilterContrast })
	c.floatSetting("brightness", "filter-brightness", func(cfg *config.Config) *float64 { return &cfg.FilterBrightness })
	c.floatSetting("sharpness", "filter-sharpness", func(cfg *config.Config) *float64 { return &cfg.FilterSharpness })

	c.intSetting("pfix", "perspective-fix", func(cfg *config.Config) *int { return &cfg.PerspectiveFix })
	c.stringSetting("autoR", "auto-rotate", func(cfg *config.Config) *string { return &cfg.AutoRotate })

	c.stringSetting("save", "save-format", func(cfg *config.Config) *string { return &cfg.SaveFormat })
	c.boolSetting("pngO", "png-optimize", func(cfg *config.Config) *bool { return &cfg.PNGOptimize })
	c.intSetting("pngC", "png-compression", func(cfg *config.Config) *int { return &cfg.PNGCompression })
	c.boolSetting("jpegO", "jpeg-optimize", func(cfg *config.Config) *bool { return &cfg.JPEGOptimize })
	c.intSetting("jpegQ", "jpeg-quality", func(cfg *config.Config) *int { return &cfg.JPEGQuality })
	c.boolSetting("webpL", "webp-lossless", func(cfg *config.Config) *bool { return &cfg.WebPLossless })
	c.intSetting("webpM", "webp-method", func(cfg *config.Config) *int { return &cfg.WebPMethod })
	c.intSetting("webpQ", "webp-quality", func(cfg *config.Config) *int { return &cfg.WebPQuality })

	c.intSetting("viewW", "view-width", func(cfg *config.Config) *int { return &cfg.ViewWidth })
	c.intSetting("viewH", "view-height", func(cfg *config.Config) *int { return &cfg.ViewHeight })

	return c
}

func (c *cli) boolPair(p *bool, short, long string) {
	c.fs.BoolVar(p, short, false, "")
	c.fs.BoolVar(p, long, false, "")
}

func (c *cli) register(short, long string, set func(*config.Config)) {
	c.setters[short] = set
	c.setters[long] = set
}

func (c *cli) boolSetting(short, long string, field func(*config.Config) *bool) {
	v := new(bool)
	c.boolPair(v, short, long)
	c.register(short, long, func(cfg *config.Config) { *field(cfg) = *v })
}

func (c *cli) intSetting(short, long string, field func(*config.Config) *int) {
	v := new(int)
	c.fs.IntVar(v, short, 0, "")
	c.fs.IntVar(v, long, 0, "")
	c.register(short, long, func(cfg *config.Config) { *field(cfg) = *v })
}

func (c *cli) floatSetting(short, long string, field func(*config.Config) *float64) {
	v := new(float64)
	c.fs.Float64Var(v, short, 0, "")
	c.fs.Float64Var(v, long, 0, "")
	c.register(short, long, func(cfg *config.Config) { *field(cfg) = *v })
}

func (c *cli) stringSetting(short, long string, field func(*config.Config) *string) {
	v := new(string)
	c.fs.StringVar(v, short, "", "")
	c.fs.StringVar(v, long, "", "")
	c.register(short, long, func(cfg *config.Config) { *field(cfg) = *v })
}

// parse reads args. Positional arguments are rejected so that a forgotten
// dash does not silently do nothing.
func (c *cli) parse(args []string) error {
	if err := c.fs.Parse(args); err != nil {
		return err
	}
	if c.fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument %q (separate IDs with commas: -addID 1,2,3)", c.fs.Arg(0))
	}
	return nil
}

// apply copies every explicitly set config flag onto cfg.
func (c *cli) apply(cfg *config.Config) {
	c.fs.Visit(func(f *flag.Flag) {
		if set, ok := c.setters[f.Name]; ok {
			set(cfg)
		}
	})
}

// modes returns how many action modes were selected.
func (o *options) modes() int {
	n := 0
	for _, m := range []bool{o.testMode, o.countMode, o.previewMode, o.sliceMode} {
		if m {
			n++
		}
	}
	return n
}

func (o *options) hasTaskCommands() bool {
	return o.addAll || len(o.addIDs) > 0 || o.addNew > 0 || o.addOld > 0 || o.addRandom > 0 || len(o.removeIDs) > 0
}

const usage = `Usage: scan-slicer [options]

Detects the photos on flatbed scans and saves each one as its own image.
Settings are read from the config file; flags override them for one run.

General:
  -conf, --config-file FILE      Path to custom config file
  -skip, --skip-confirm          Skip the need to confirm action modes
  -work, --workers NUM           Number of parallel workers
  -name, --project-name TEXT     Project name (prefix for sliced images)
  --debug                        Verbose logging
  --version                      Print version information

Modes:
  -test, --test-mode             Save annotated detections for review
  -count, --count-mode           Count the photos on every scan
  -preview, --preview-mode       Preview slices and save them on request
  -slice, --slice-mode           Slice every scan

Paths:
  -i, --input PATH               Input directory
  -o, --output PATH              Output directory
  -lutP, --filter-lut-path FILE  Path to LUT .cube file

Image slice detection:
  -white, --white-threshold NUM  White level between slices (0-255)
  -min, --minimum-size NUM       Minimum slice size in % (0-100, exclusive)
  -max, --maximum-size NUM       Maximum slice size in % (0-100, exclusive)

Image slice scaling:
  -scaleF, --scale-factor NUM    Scale slice with factor value
  -scaleW, --scale-width NUM     Scale slice to new width (no upscale)
  -scaleH, --scale-height NUM    Scale slice to new height (no upscale)

Image slice filters:
  -denoise, --filter-denoise NUM       Remove noise from slice (0-5)
  -lutS, --filter-lut-strength NUM     LUT strength (0.0-1.0)
  -color, --filter-color NUM           Color (0.0-2.0)
  -contrast, --filter-contrast NUM     Contrast (0.0-2.0)
  -brightness, --filter-brightness NUM Brightness (0.0-2.0)
  -sharpness, --filter-sharpness NUM   Sharpness (0.0-2.0)

Image slice tweaks:
  -pfix, --perspective-fix NUM   Fix slice tilt (0-89)
  -autoR, --auto-rotate TEXT     Rotate slice 90 deg (cw|ccw) if w < h

File format:
  -save, --save-format TEXT      png, jpeg or webp
  -pngO, --png-optimize          Smallest PNG output
  -pngC, --png-compression NUM   PNG compression (0-9)
  -jpegO, --jpeg-optimize        Optimize JPEG file
  -jpegQ, --jpeg-quality NUM     JPEG quality (0-95)
  -webpL, --webp-lossless        Save WebP as lossless
  -webpM, --webp-method NUM      WebP speed/quality tradeoff (0-6)
  -webpQ, --webp-quality NUM     WebP quality (1-100)

Views:
  -viewW, --view-width NUM       Max width of test and preview images
  -viewH, --view-height NUM      Max height of test and preview images

List information:
  -listI, --list-images          List all compatible scanned images
  -listF, --list-file            Save the list of scanned images as a text file
  -listT, --list-tasks           List tasks

Task handling:
  -addA, --add-all               Add all compatible images
  -addID, --add-id NUM[,NUM...]  Add images by ID
  -addN, --add-new NUM           Add the newest NUM images
  -addO, --add-old NUM           Add the oldest NUM images
  -addR, --add-random NUM        Add NUM random images
  -remID, --remove-id NUM[,NUM]  Remove images from the task list by ID
`
