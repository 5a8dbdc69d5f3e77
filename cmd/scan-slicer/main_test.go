package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/scan-slicer/internal/config"
)

// isolate points the config directory at a temp dir for the test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	xdg.Reload()
	t.Cleanup(xdg.Reload)
	return home
}

// writeScan saves a white scan with n dark prints.
func writeScan(t *testing.T, dir, name string, n int, mod time.Time) {
	t.Helper()
	img := imaging.New(1000, 1000, color.NRGBA{250, 250, 250, 255})
	for i := 0; i < n; i++ {
		x0, y0 := 80+(i%2)*450, 80+(i/2)*400
		photo := imaging.New(300, 200, color.NRGBA{50, 40, 30, 255})
		img = imaging.Paste(img, photo, image.Pt(x0, y0))
	}
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(img, path))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func scans(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "scans")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	writeScan(t, dir, "a.png", 2, base)
	writeScan(t, dir, "b.png", 1, base.Add(time.Hour))
	return dir
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestIntList(t *testing.T) {
	var l intList
	require.NoError(t, l.Set("3,7"))
	require.NoError(t, l.Set("12"))
	assert.Equal(t, intList{3, 7, 12}, l)
	assert.Equal(t, "3,7,12", l.String())
	assert.Error(t, l.Set("4,x"))
}

func TestCLI_ApplyOnlySetFlags(t *testing.T) {
	c := newCLI(&bytes.Buffer{})
	require.NoError(t, c.parse([]string{
		"-white", "200", "--minimum-size", "2.5", "-skip", "-autoR", "cw",
		"-addID", "1,2", "-addID", "5", "-slice",
	}))

	cfg := config.Default()
	cfg.MaximumSize = 60
	cfg.JPEGQuality = 80
	c.apply(&cfg)

	assert.Equal(t, 200, cfg.WhiteThreshold)
	assert.Equal(t, 2.5, cfg.MinimumSize)
	assert.True(t, cfg.SkipConfirm)
	assert.Equal(t, "cw", cfg.AutoRotate)
	assert.Equal(t, 60.0, cfg.MaximumSize, "unset flags keep file values")
	assert.Equal(t, 80, cfg.JPEGQuality)

	assert.Equal(t, intList{1, 2, 5}, c.opts.addIDs)
	assert.True(t, c.opts.sliceMode)
	assert.Equal(t, 1, c.opts.modes())
	assert.True(t, c.opts.hasTaskCommands())
}

func TestCLI_ZeroValueFlagOverrides(t *testing.T) {
	c := newCLI(&bytes.Buffer{})
	require.NoError(t, c.parse([]string{"-pfix", "0", "-save", "webp"}))

	cfg := config.Default()
	cfg.PerspectiveFix = 20
	c.apply(&cfg)
	assert.Equal(t, 0, cfg.PerspectiveFix)
	assert.Equal(t, "webp", cfg.SaveFormat)
}

func TestCLI_RejectsPositional(t *testing.T) {
	c := newCLI(&bytes.Buffer{})
	err := c.parse([]string{"-addID", "1", "2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-addID 1,2,3")
}

func TestRun_Version(t *testing.T) {
	code, out, _ := runCLI(t, "", "--version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "scan-slicer dev")
}

func TestRun_CreatesDefaultConfig(t *testing.T) {
	home := isolate(t)
	code, out, _ := runCLI(t, "")
	assert.Equal(t, 1, code, "no input directory configured")
	assert.Contains(t, out, "Created default config file")

	path := filepath.Join(home, config.AppDir, "config.yaml")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	_, err = os.Stat(filepath.Join(home, config.AppDir, "last_run.log"))
	assert.NoError(t, err)
}

func TestRun_InvalidSettings(t *testing.T) {
	isolate(t)
	code, _, errOut := runCLI(t, "", "-i", t.TempDir(), "-white", "300")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "white-threshold")
}

func TestRun_ListAndTasks(t *testing.T) {
	home := isolate(t)
	in := scans(t)

	code, out, _ := runCLI(t, "", "-i", in, "-listI", "-listF", "-addA", "-remID", "0", "-listT")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Listing scanned images (2)")
	assert.Contains(t, out, "ID 0 .......... a.png")
	assert.Contains(t, out, "ID 1 .......... b.png")
	assert.Contains(t, out, "[+] Added all scanned images to task list")
	assert.Contains(t, out, "Listing tasks (1)")
	assert.Contains(t, out, "TASK #1 .......... b.png [ID:1]")

	list, err := os.ReadFile(filepath.Join(home, config.AppDir, "list of scanned images.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(list), "ID 0 .......... a.png")
}

func TestRun_ModeWithoutTasks(t *testing.T) {
	isolate(t)
	code, out, errOut := runCLI(t, "", "-i", scans(t), "-count")
	assert.Equal(t, 0, code)
	assert.NotContains(t, out, "Detected")
	assert.Contains(t, errOut, "add some tasks")
}

func TestRun_OneModeOnly(t *testing.T) {
	isolate(t)
	code, _, errOut := runCLI(t, "", "-i", scans(t), "-addA", "-count", "-slice")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "only one")
}

func TestRun_Count(t *testing.T) {
	isolate(t)
	code, out, _ := runCLI(t, "", "-i", scans(t), "-addA", "-count", "-skip")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Detected 3 images from 2 scanned images")
}

func TestRun_ConfirmDeclined(t *testing.T) {
	isolate(t)
	outDir := t.TempDir()
	code, out, _ := runCLI(t, "n\n", "-i", scans(t), "-o", outDir, "-addA", "-slice")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Tasks to complete: 2")
	assert.NotContains(t, out, "Saved")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_Slice(t *testing.T) {
	isolate(t)
	in := scans(t)
	outDir := t.TempDir()

	code, out, _ := runCLI(t, "y\n", "-i", in, "-o", outDir, "-addA", "-slice", "-save", "jpeg")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Saved 3 images from 2 scanned images")
	assert.Contains(t, out, "View runlog at:")

	for _, name := range []string{"scans-1.jpg", "scans-2.jpg", "scans-3.jpg"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}
	tmp, err := filepath.Glob(filepath.Join(outDir, "tmp_file_*"))
	require.NoError(t, err)
	assert.Empty(t, tmp)

	// A second run with a project name never overwrites.
	code, _, _ = runCLI(t, "", "-i", in, "-o", outDir, "-addID", "1", "-slice", "-skip", "-name", "scans", "-save", "jpeg")
	require.Equal(t, 0, code)
	_, err = os.Stat(filepath.Join(outDir, "scans-4.jpg"))
	assert.NoError(t, err)
}

func TestRun_CustomConfigFile(t *testing.T) {
	isolate(t)
	in := scans(t)
	conf := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(conf, []byte("input: "+in+"\nminimum-size: 10\n"), 0o644))

	code, out, _ := runCLI(t, "", "-conf", conf, "-addA", "-count", "-skip")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Detected 0 images from 2 scanned images")

	code, _, errOut := runCLI(t, "", "-conf", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "config file")
}
