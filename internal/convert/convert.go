// Package convert turns input files into decoded images. HEIC/HEIF inputs are decoded
// in-process or through an operating-system converter; other rasters use the Go decoders.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sort"

	"github.com/gen2brain/heic"

	"github.com/MeKo-Tech/heic2txt/internal/utils"
)

// Converter names.
const (
	Auto        = "auto"
	Native      = "native"
	Sips        = "sips"
	HeifConvert = "heif-convert"
)

var (
	// ErrToolNotFound is returned when an external converter is not installed.
	ErrToolNotFound = errors.New("conversion tool not found")
	// ErrUnknownConverter is returned by New for unrecognized names.
	ErrUnknownConverter = errors.New("unknown converter")
)

// Converter decodes the image at path.
type Converter interface {
	Name() string
	Convert(ctx context.Context, path string) (image.Image, error)
}

// Names lists the selectable converters.
func Names() []string {
	names := []string{Auto, Native, Sips, HeifConvert}
	sort.Strings(names)
	return names
}

// New returns the named converter.
func New(name string) (Converter, error) {
	switch name {
	case Auto, "":
		return NewAuto(), nil
	case Native:
		return NativeConverter{}, nil
	case Sips:
		return NewSips(), nil
	case HeifConvert:
		return NewHeifConvert(), nil
	}
	return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownConverter, name, Names())
}

// NativeConverter decodes everything in-process, HEIC through github.com/gen2brain/heic.
type NativeConverter struct{}

func (NativeConverter) Name() string { return Native }

func (NativeConverter) Convert(_ context.Context, path string) (image.Image, error) {
	data, err := utils.ReadImageFile(path)
	if err != nil {
		return nil, err
	}
	return decodeBytes(path, data)
}

func decodeBytes(path string, data []byte) (image.Image, error) {
	if utils.IsHEICData(data) || utils.IsHEICPath(path) {
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, &utils.ImageProcessingError{Operation: "decode", Err: fmt.Errorf("heic: %w", err)}
		}
		return img, nil
	}
	img, _, err := utils.DecodeImage(bytes.NewReader(data))
	return img, err
}

// AutoConverter tries the in-process decoder first and falls back to the installed
// operating-system converters for HEIC files it cannot decode.
type AutoConverter struct {
	chain  []Converter
	logger *slog.Logger
}

// NewAuto returns the default converter chain: native, sips, heif-convert.
func NewAuto() *AutoConverter {
	return &AutoConverter{
		chain:  []Converter{NativeConverter{}, NewSips(), NewHeifConvert()},
		logger: slog.Default(),
	}
}

func (a *AutoConverter) Name() string { return Auto }

func (a *AutoConverter) Convert(ctx context.Context, path string) (image.Image, error) {
	var firstErr error
	for _, c := range a.chain {
		img, err := c.Convert(ctx, path)
		if err == nil {
			return img, nil
		}
		if errors.Is(err, utils.ErrEmptyImage) || ctx.Err() != nil {
			return nil, err
		}
		if errors.Is(err, ErrToolNotFound) {
			continue
		}
		a.logger.Debug("converter failed, trying next", "converter", c.Name(), "file", path, "error", err)
		if firstErr == nil {
			firstErr = err
		}
		if !utils.IsHEICPath(path) {
			// external converters only handle HEIC
			break
		}
	}
	if firstErr == nil {
		firstErr = fmt.Errorf("%w: no converter could decode %s", ErrToolNotFound, path)
	}
	return nil, firstErr
}
