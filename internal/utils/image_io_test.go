package utils

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSupportedImage(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"photo.HEIC", true},
		{"photo.heif", true},
		{"scan.png", true},
		{"scan.JPG", true},
		{"scan.tiff", true},
		{"notes.txt", false},
		{"noext", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSupportedImage(tt.path))
		})
	}
}

func TestIsHEICPath(t *testing.T) {
	assert.True(t, IsHEICPath("IMG_0001.HEIC"))
	assert.True(t, IsHEICPath("a/b/c.heif"))
	assert.False(t, IsHEICPath("c.png"))
}

func TestIsHEICData(t *testing.T) {
	header := []byte{0, 0, 0, 0x18, 'f', 't', 'y', 'p', 'h', 'e', 'i', 'c', 0, 0, 0, 0}
	assert.True(t, IsHEICData(header))

	mif1 := []byte{0, 0, 0, 0x18, 'f', 't', 'y', 'p', 'm', 'i', 'f', '1'}
	assert.True(t, IsHEICData(mif1))

	mp4 := []byte{0, 0, 0, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm'}
	assert.False(t, IsHEICData(mp4))

	assert.False(t, IsHEICData([]byte("short")))
	assert.False(t, IsHEICData([]byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}))
}

func TestLoadImage_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.png")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	_, _, err := LoadImage(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyImage))

	var ipe *ImageProcessingError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "load", ipe.Operation)
}

func TestLoadImage_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.png")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a png"), 0o600))

	_, _, err := LoadImage(path)
	require.Error(t, err)
	var ipe *ImageProcessingError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "decode", ipe.Operation)
	assert.False(t, errors.Is(err, ErrEmptyImage))
}

func TestLoadImage_Missing(t *testing.T) {
	_, _, err := LoadImage(filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadImage_UnsupportedExtension(t *testing.T) {
	_, _, err := LoadImage("file.gif")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestSaveAndLoadPNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	img.Set(3, 4, color.RGBA{255, 0, 0, 255})

	path := filepath.Join(t.TempDir(), "nested", "out.png")
	require.NoError(t, SaveImagePNG(img, path))

	loaded, meta, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, "png", meta.Format)
	assert.Equal(t, 40, meta.Width)
	assert.Equal(t, 20, meta.Height)
	assert.InDelta(t, 2.0, meta.AspectRatio, 1e-9)
	assert.Positive(t, meta.SizeBytes)
	assert.True(t, ImagesEqual(img, loaded))
}

func TestSaveImagePNG_Nil(t *testing.T) {
	err := SaveImagePNG(nil, filepath.Join(t.TempDir(), "x.png"))
	require.Error(t, err)
}

func TestValidateImageConstraints(t *testing.T) {
	cons := DefaultImageConstraints()
	require.NoError(t, ValidateImageConstraints(image.NewGray(image.Rect(0, 0, 64, 64)), cons))
	require.Error(t, ValidateImageConstraints(image.NewGray(image.Rect(0, 0, 4, 64)), cons))
	require.Error(t, ValidateImageConstraints(nil, cons))

	cons.MaxWidth, cons.MaxHeight = 100, 100
	require.Error(t, ValidateImageConstraints(image.NewGray(image.Rect(0, 0, 200, 50)), cons))
}
