package convert

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/heic2txt/internal/utils"
)

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 10), B: 100, A: 255})
		}
	}
	path := filepath.Join(dir, name)
	require.NoError(t, utils.SaveImagePNG(img, path))
	return path
}

// fakeTool installs an executable shell script named name in a fresh directory
// placed first on PATH.
func fakeTool(t *testing.T, name, body string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake converter scripts require a POSIX shell")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\n"+body), 0o755)) //nolint:gosec // test executable
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestNew(t *testing.T) {
	for _, name := range Names() {
		c, err := New(name)
		require.NoError(t, err)
		assert.Equal(t, name, c.Name())
	}
	c, err := New("")
	require.NoError(t, err)
	assert.Equal(t, Auto, c.Name())

	_, err = New("imagemagick")
	require.ErrorIs(t, err, ErrUnknownConverter)
}

func TestNative_DecodesRaster(t *testing.T) {
	path := writePNG(t, t.TempDir(), "page.png", 12, 7)
	img, err := NativeConverter{}.Convert(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(12, 7), img.Bounds().Size())
}

func TestNative_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.heic")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	_, err := NativeConverter{}.Convert(context.Background(), path)
	require.ErrorIs(t, err, utils.ErrEmptyImage)
}

func TestNative_CorruptHEIC(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.HEIC")
	require.NoError(t, os.WriteFile(path, []byte("definitely not an iso-bmff container"), 0o600))

	_, err := NativeConverter{}.Convert(context.Background(), path)
	require.Error(t, err)
	var ipe *utils.ImageProcessingError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "decode", ipe.Operation)
}

func TestTool_ConvertsHEIC(t *testing.T) {
	dir := t.TempDir()
	fixture := writePNG(t, dir, "fixture.png", 9, 5)
	fakeTool(t, "heif-convert", `/bin/cp "`+fixture+`" "$2"`+"\n")

	in := filepath.Join(dir, "IMG_0001.HEIC")
	require.NoError(t, os.WriteFile(in, []byte("heic bytes"), 0o600))

	img, err := NewHeifConvert().Convert(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(9, 5), img.Bounds().Size())
}

func TestTool_SipsArguments(t *testing.T) {
	dir := t.TempDir()
	fixture := writePNG(t, dir, "fixture.png", 4, 4)
	// sips -s format png <in> --out <out>
	fakeTool(t, "sips", `[ "$1" = "-s" ] && [ "$2" = "format" ] && [ "$3" = "png" ] && [ "$5" = "--out" ] || exit 9
/bin/cp "`+fixture+`" "$6"
`)
	in := filepath.Join(dir, "scan.heic")
	require.NoError(t, os.WriteFile(in, []byte("heic bytes"), 0o600))

	img, err := NewSips().Convert(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(4, 4), img.Bounds().Size())
}

func TestTool_NotInstalled(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	in := filepath.Join(t.TempDir(), "a.heic")
	require.NoError(t, os.WriteFile(in, []byte("heic bytes"), 0o600))

	_, err := NewSips().Convert(context.Background(), in)
	require.ErrorIs(t, err, ErrToolNotFound)
}

func TestTool_Failure(t *testing.T) {
	fakeTool(t, "heif-convert", "echo 'Could not read HEIF/AVIF file' >&2\nexit 1\n")
	in := filepath.Join(t.TempDir(), "a.heic")
	require.NoError(t, os.WriteFile(in, []byte("heic bytes"), 0o600))

	_, err := NewHeifConvert().Convert(context.Background(), in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Could not read HEIF/AVIF file")
	assert.NotErrorIs(t, err, ErrToolNotFound)
}

func TestTool_Timeout(t *testing.T) {
	fakeTool(t, "heif-convert", "exec sleep 5\n")
	in := filepath.Join(t.TempDir(), "a.heic")
	require.NoError(t, os.WriteFile(in, []byte("heic bytes"), 0o600))

	c := NewHeifConvert()
	c.Timeout = 100 * time.Millisecond
	start := time.Now()
	_, err := c.Convert(context.Background(), in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestTool_EmptyAndNonHEIC(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.heic")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	_, err := NewSips().Convert(context.Background(), empty)
	require.ErrorIs(t, err, utils.ErrEmptyImage)

	// rasters never reach the external tool
	t.Setenv("PATH", t.TempDir())
	png := writePNG(t, dir, "plain.png", 3, 3)
	img, err := NewSips().Convert(context.Background(), png)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(3, 3), img.Bounds().Size())
}

func TestAuto_FallsBackToTool(t *testing.T) {
	dir := t.TempDir()
	fixture := writePNG(t, dir, "fixture.png", 6, 2)
	t.Setenv("PATH", t.TempDir())
	fakeTool(t, "heif-convert", `/bin/cp "`+fixture+`" "$2"`+"\n")

	in := filepath.Join(dir, "needs-tool.heic")
	require.NoError(t, os.WriteFile(in, []byte("not decodable in-process"), 0o600))

	img, err := NewAuto().Convert(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(6, 2), img.Bounds().Size())
}

func TestAuto_NoToolKeepsNativeError(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	in := filepath.Join(t.TempDir(), "broken.heic")
	require.NoError(t, os.WriteFile(in, []byte("not decodable in-process"), 0o600))

	_, err := NewAuto().Convert(context.Background(), in)
	var ipe *utils.ImageProcessingError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "decode", ipe.Operation)
}

func TestAuto_CorruptRasterDoesNotTryTools(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.png")
	require.NoError(t, os.WriteFile(path, []byte("not a png"), 0o600))

	_, err := NewAuto().Convert(context.Background(), path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrToolNotFound)
}
