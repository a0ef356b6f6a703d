package utils

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
)

// ImageProcessingError represents errors that can occur during image processing.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error {
	return e.Err
}

// ImageConstraints defines the constraints for image processing.
// A zero MaxWidth or MaxHeight disables the upper bound.
type ImageConstraints struct {
	MaxWidth  int
	MaxHeight int
	MinWidth  int
	MinHeight int
}

// DefaultImageConstraints returns the default constraints for OCR input.
func DefaultImageConstraints() ImageConstraints {
	return ImageConstraints{
		MinWidth:  8,
		MinHeight: 8,
	}
}

// ScaleDownToMaxSide shrinks img so its longer side is at most maxSide, preserving aspect ratio.
// Images already within bounds, and a non-positive maxSide, return img unchanged.
func ScaleDownToMaxSide(img image.Image, maxSide int) (image.Image, error) {
	if img == nil {
		return nil, &ImageProcessingError{Operation: "resize", Err: errors.New("input image is nil")}
	}
	if maxSide <= 0 {
		return img, nil
	}
	b := img.Bounds()
	if b.Dx() <= maxSide && b.Dy() <= maxSide {
		return img, nil
	}
	return imaging.Fit(img, maxSide, maxSide, imaging.Lanczos), nil
}

// ToGray converts img to an 8-bit grayscale image with bounds starting at the origin.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// Invert returns the photographic negative of a grayscale image.
func Invert(src *image.Gray) *image.Gray {
	dst := image.NewGray(src.Bounds())
	for i, v := range src.Pix {
		dst.Pix[i] = 255 - v
	}
	return dst
}

// ToNRGBA returns img as *image.NRGBA with bounds starting at the origin.
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Bounds().Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}

// Flatten composites img over an opaque white background.
// Engines that ignore alpha otherwise see transparent regions as black.
func Flatten(img image.Image) image.Image {
	b := img.Bounds()
	dst := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(dst, img, image.Pt(0, 0), 1.0)
}
