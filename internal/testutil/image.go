package testutil

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ImageSize represents common image dimensions.
type ImageSize struct {
	Width  int
	Height int
}

var (
	// Common test image sizes.
	SmallSize  = ImageSize{160, 120}
	MediumSize = ImageSize{320, 240}
	LargeSize  = ImageSize{640, 480}
)

// TestImageConfig holds configuration for generating test images.
type TestImageConfig struct {
	Lines      []string
	Size       ImageSize
	Background color.Color
	Foreground color.Color
	FontFace   font.Face
	// HeaderBand draws a dark bar along the top edge of the upright page.
	// ScriptedEngine uses it to tell upright pages from rotated ones.
	HeaderBand bool
	// Rotation turns the finished page clockwise; 0, 90, 180 or 270.
	Rotation int
}

// DefaultTestImageConfig returns a default configuration for test images.
func DefaultTestImageConfig() TestImageConfig {
	return TestImageConfig{
		Lines:      []string{"resource \"aws_instance\" \"web\" {", "  ami = \"ami-123\"", "}"},
		Size:       MediumSize,
		Background: color.White,
		Foreground: color.Black,
		FontFace:   basicfont.Face7x13,
		HeaderBand: true,
	}
}

// GenerateTextImage renders a synthetic photographed page.
func GenerateTextImage(config TestImageConfig) (*image.NRGBA, error) {
	if config.Size.Width <= 0 || config.Size.Height <= 0 {
		return nil, fmt.Errorf("invalid size %dx%d", config.Size.Width, config.Size.Height)
	}
	if config.FontFace == nil {
		config.FontFace = basicfont.Face7x13
	}
	w, h := config.Size.Width, config.Size.Height
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{config.Background}, image.Point{}, draw.Src)

	if config.HeaderBand {
		band := image.Rect(0, 0, w, max(h/8, 1))
		draw.Draw(img, band, &image.Uniform{config.Foreground}, image.Point{}, draw.Src)
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{config.Foreground},
		Face: config.FontFace,
	}
	lineHeight := config.FontFace.Metrics().Height.Ceil()
	startY := (h - len(config.Lines)*lineHeight) / 2
	for i, line := range config.Lines {
		drawer.Dot = fixed.P(w/10, startY+(i+1)*lineHeight)
		drawer.DrawString(line)
	}

	// imaging rotates counter-clockwise
	switch config.Rotation {
	case 0:
		return img, nil
	case 90:
		return imaging.Rotate270(img), nil
	case 180:
		return imaging.Rotate180(img), nil
	case 270:
		return imaging.Rotate90(img), nil
	}
	return nil, fmt.Errorf("rotation must be a quarter turn, got %d", config.Rotation)
}

// MustTextImage is GenerateTextImage for tests.
func MustTextImage(t *testing.T, config TestImageConfig) *image.NRGBA {
	t.Helper()
	img, err := GenerateTextImage(config)
	require.NoError(t, err)
	return img
}

// IsUpright reports whether the header band is at the top of img.
func IsUpright(img image.Image) bool {
	b := img.Bounds()
	if b.Dx() < 2 || b.Dy() < 16 {
		return false
	}
	x := b.Min.X + b.Dx()/2
	top := color.GrayModel.Convert(img.At(x, b.Min.Y+b.Dy()/32)).(color.Gray)
	bottom := color.GrayModel.Convert(img.At(x, b.Max.Y-1-b.Dy()/32)).(color.Gray)
	return top.Y < 96 && bottom.Y > 160
}

// SaveImage encodes img as PNG at path regardless of the path's extension.
func SaveImage(t *testing.T, img image.Image, path string) {
	t.Helper()

	dir := filepath.Dir(path)
	require.NoError(t, EnsureDir(dir), "Failed to create directory %s", dir)

	file, err := os.Create(path) //nolint:gosec // G304: Test file creation with controlled path
	require.NoError(t, err, "Failed to create file %s", path)
	defer func() {
		require.NoError(t, file.Close())
	}()

	require.NoError(t, png.Encode(file, img), "Failed to encode PNG image")
}

// WriteImage saves img as dir/name and returns the path.
func WriteImage(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	SaveImage(t, img, path)
	return path
}

// WriteEmptyFile creates a zero-length file.
func WriteEmptyFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	return path
}

// WriteCorruptFile creates a file that no decoder accepts.
func WriteCorruptFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("\x00\x01 this is not an image \xff"), 0o600))
	return path
}

// CompareImages reports whether two images differ by at most tolerance (0..1) on average.
func CompareImages(img1, img2 image.Image, tolerance float64) bool {
	bounds1 := img1.Bounds()
	if bounds1.Size() != img2.Bounds().Size() {
		return false
	}
	off := img2.Bounds().Min.Sub(bounds1.Min)

	var totalDiff, pixelCount float64
	for y := bounds1.Min.Y; y < bounds1.Max.Y; y++ {
		for x := bounds1.Min.X; x < bounds1.Max.X; x++ {
			r1, g1, b1, a1 := img1.At(x, y).RGBA()
			r2, g2, b2, a2 := img2.At(x+off.X, y+off.Y).RGBA()

			dr := float64(r1) - float64(r2)
			dg := float64(g1) - float64(g2)
			db := float64(b1) - float64(b2)
			da := float64(a1) - float64(a2)
			totalDiff += math.Sqrt(dr*dr + dg*dg + db*db + da*da)
			pixelCount++
		}
	}
	if pixelCount == 0 {
		return true
	}
	maxDiff := math.Sqrt(4 * 65535 * 65535)
	return totalDiff/pixelCount/maxDiff <= tolerance
}
