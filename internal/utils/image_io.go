package utils

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// ErrEmptyImage is returned when an input file has zero length.
var ErrEmptyImage = errors.New("image file is empty")

// SupportedImageExtensions lists supported file extensions for loading.
var SupportedImageExtensions = []string{".heic", ".heif", ".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff"}

// HEICExtensions lists extensions handled by a HEIC converter rather than the Go decoders.
var HEICExtensions = []string{".heic", ".heif"}

// heicBrands are the ISO-BMFF major brands used by HEIC/HEIF files.
var heicBrands = []string{"heic", "heix", "heif", "hevc", "mif1", "msf1"}

// IsSupportedImage reports whether the path has a supported image extension.
func IsSupportedImage(path string) bool {
	return hasExtension(path, SupportedImageExtensions)
}

// IsHEICPath reports whether the path has a HEIC/HEIF extension.
func IsHEICPath(path string) bool {
	return hasExtension(path, HEICExtensions)
}

func hasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range exts {
		if ext == s {
			return true
		}
	}
	return false
}

// IsHEICData sniffs the ftyp box of a file header for a HEIC/HEIF brand.
func IsHEICData(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	brand := string(data[8:12])
	for _, b := range heicBrands {
		if brand == b {
			return true
		}
	}
	return false
}

// ImageMetadata captures lightweight file and pixel information.
type ImageMetadata struct {
	Path        string
	Format      string
	SizeBytes   int64
	Width       int
	Height      int
	AspectRatio float64
}

// NewImageMetadata builds metadata for an already decoded image.
func NewImageMetadata(path, format string, size int64, img image.Image) ImageMetadata {
	b := img.Bounds()
	meta := ImageMetadata{
		Path:      path,
		Format:    format,
		SizeBytes: size,
		Width:     b.Dx(),
		Height:    b.Dy(),
	}
	if b.Dy() > 0 {
		meta.AspectRatio = float64(b.Dx()) / float64(b.Dy())
	}
	return meta
}

// ReadImageFile reads the raw bytes of an image file, rejecting missing and empty files.
func ReadImageFile(path string) ([]byte, error) {
	if path == "" {
		return nil, &ImageProcessingError{Operation: "load", Err: errors.New("empty path")}
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: reading user-provided image path is expected
	if err != nil {
		return nil, &ImageProcessingError{Operation: "load", Err: err}
	}
	if len(data) == 0 {
		return nil, &ImageProcessingError{Operation: "load", Err: ErrEmptyImage}
	}
	return data, nil
}

// LoadImage opens and decodes a raster image file, returning the image and metadata.
// HEIC inputs are not decoded here; see the convert package.
func LoadImage(path string) (image.Image, ImageMetadata, error) {
	if path != "" && !IsSupportedImage(path) {
		err := &ImageProcessingError{Operation: "load", Err: fmt.Errorf("unsupported format: %s", filepath.Ext(path))}
		return nil, ImageMetadata{}, err
	}

	data, err := ReadImageFile(path)
	if err != nil {
		return nil, ImageMetadata{}, err
	}

	img, format, err := DecodeImage(bytes.NewReader(data))
	if err != nil {
		return nil, ImageMetadata{}, err
	}

	return img, NewImageMetadata(path, format, int64(len(data)), img), nil
}

// DecodeImage decodes any registered raster format from r.
func DecodeImage(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", &ImageProcessingError{Operation: "decode", Err: err}
	}
	return img, format, nil
}

// SaveImagePNG encodes img as PNG at path, creating parent directories as needed.
func SaveImagePNG(img image.Image, path string) error {
	if img == nil {
		return &ImageProcessingError{Operation: "save", Err: errors.New("input image is nil")}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return &ImageProcessingError{Operation: "save", Err: err}
	}

	f, err := os.Create(path) //nolint:gosec // G304: output path derived from user-selected output directory
	if err != nil {
		return &ImageProcessingError{Operation: "save", Err: err}
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return &ImageProcessingError{Operation: "encode", Err: err}
	}
	if err := f.Close(); err != nil {
		return &ImageProcessingError{Operation: "save", Err: err}
	}
	return nil
}

// ValidateImageConstraints checks dimensions against the provided constraints.
func ValidateImageConstraints(img image.Image, constraints ImageConstraints) error {
	if img == nil {
		return &ImageProcessingError{Operation: "validate", Err: errors.New("input image is nil")}
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < constraints.MinWidth || h < constraints.MinHeight {
		return &ImageProcessingError{
			Operation: "validate",
			Err: fmt.Errorf(
				"image too small: %dx%d < %dx%d",
				w, h, constraints.MinWidth, constraints.MinHeight,
			),
		}
	}
	if constraints.MaxWidth > 0 && constraints.MaxHeight > 0 && (w > constraints.MaxWidth || h > constraints.MaxHeight) {
		return &ImageProcessingError{
			Operation: "validate",
			Err: fmt.Errorf(
				"image too large: %dx%d > %dx%d",
				w, h, constraints.MaxWidth, constraints.MaxHeight,
			),
		}
	}
	return nil
}
