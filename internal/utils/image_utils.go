package utils

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Rotate90 rotates the image 90 degrees counter-clockwise.
func Rotate90(img image.Image) image.Image { return imaging.Rotate90(img) }

// Rotate180 rotates the image 180 degrees.
func Rotate180(img image.Image) image.Image { return imaging.Rotate180(img) }

// Rotate270 rotates the image 270 degrees counter-clockwise.
func Rotate270(img image.Image) image.Image { return imaging.Rotate270(img) }

// RotateClockwise rotates img clockwise by a right-angle multiple.
// Angles are normalized into [0, 360); any angle that is not a multiple of 90 is rejected.
func RotateClockwise(img image.Image, degrees int) (image.Image, error) {
	d := ((degrees % 360) + 360) % 360
	switch d {
	case 0:
		return ToNRGBA(img), nil
	case 90:
		return Rotate270(img), nil
	case 180:
		return Rotate180(img), nil
	case 270:
		return Rotate90(img), nil
	}
	return nil, &ImageProcessingError{Operation: "rotate", Err: fmt.Errorf("unsupported angle %d", degrees)}
}

// ImagesEqual reports whether two images have identical bounds size and NRGBA pixels.
func ImagesEqual(a, b image.Image) bool {
	na, nb := ToNRGBA(a), ToNRGBA(b)
	if na.Rect.Dx() != nb.Rect.Dx() || na.Rect.Dy() != nb.Rect.Dy() {
		return false
	}
	rowLen := na.Rect.Dx() * 4
	for y := range na.Rect.Dy() {
		ra := na.Pix[y*na.Stride : y*na.Stride+rowLen]
		rb := nb.Pix[y*nb.Stride : y*nb.Stride+rowLen]
		for i := range ra {
			if ra[i] != rb[i] {
				return false
			}
		}
	}
	return true
}
