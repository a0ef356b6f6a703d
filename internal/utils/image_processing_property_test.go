package utils

import (
	"image"
	"image/color"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genTestImage generates a deterministic non-symmetric test image.
func genTestImage(width, height int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.Set(x, y, color.NRGBA{uint8(x * 7), uint8(y * 13), uint8((x + y) % 256), 255})
		}
	}
	return img
}

// TestRotateClockwise_RoundTrip verifies rotating by an angle and then by its complement restores the pixels.
func TestRotateClockwise_RoundTrip(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("rotate then rotate back is the identity", prop.ForAll(
		func(width, height, step int) bool {
			img := genTestImage(width, height)
			angle := step * 90

			rotated, err := RotateClockwise(img, angle)
			if err != nil {
				return false
			}
			restored, err := RotateClockwise(rotated, (360-angle)%360)
			if err != nil {
				return false
			}
			return ImagesEqual(img, restored)
		},
		gen.IntRange(1, 40),
		gen.IntRange(1, 40),
		gen.IntRange(0, 3),
	))

	properties.Property("four quarter turns are the identity", prop.ForAll(
		func(width, height int) bool {
			img := genTestImage(width, height)
			cur := img
			for range 4 {
				next, err := RotateClockwise(cur, 90)
				if err != nil {
					return false
				}
				cur = next
			}
			return ImagesEqual(img, cur)
		},
		gen.IntRange(1, 30),
		gen.IntRange(1, 30),
	))

	properties.TestingRun(t)
}

// TestPreprocess_OutputIsBinary verifies the preprocessor only ever emits 0 or 255.
func TestPreprocess_OutputIsBinary(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("preprocessed pixels are binary and dimensions preserved", prop.ForAll(
		func(width, height int, invert bool) bool {
			img := genTestImage(width, height)
			opts := DefaultPreprocessOptions()
			opts.Invert = invert

			out, err := Preprocess(img, opts)
			if err != nil {
				return false
			}
			if out.Bounds().Dx() != width || out.Bounds().Dy() != height {
				return false
			}
			for _, v := range out.Pix {
				if v != 0 && v != 255 {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 48),
		gen.IntRange(1, 48),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
