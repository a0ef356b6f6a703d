package utils

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// markedImage returns a white w x h image with a single black pixel at the top-left corner.
func markedImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.Set(0, 0, color.NRGBA{0, 0, 0, 255})
	return img
}

func isBlack(img image.Image, x, y int) bool {
	r, g, b, _ := img.At(x, y).RGBA()
	return r == 0 && g == 0 && b == 0
}

func TestRotateClockwise_Direction(t *testing.T) {
	src := markedImage(6, 4)

	r90, err := RotateClockwise(src, 90)
	require.NoError(t, err)
	assert.Equal(t, 4, r90.Bounds().Dx())
	assert.Equal(t, 6, r90.Bounds().Dy())
	// Clockwise: top-left moves to top-right.
	assert.True(t, isBlack(r90, 3, 0))

	r180, err := RotateClockwise(src, 180)
	require.NoError(t, err)
	assert.True(t, isBlack(r180, 5, 3))

	r270, err := RotateClockwise(src, 270)
	require.NoError(t, err)
	assert.True(t, isBlack(r270, 0, 5))

	r0, err := RotateClockwise(src, 0)
	require.NoError(t, err)
	assert.True(t, ImagesEqual(src, r0))
}

func TestRotateClockwise_NormalizesAngles(t *testing.T) {
	src := markedImage(5, 3)

	a, err := RotateClockwise(src, -90)
	require.NoError(t, err)
	b, err := RotateClockwise(src, 270)
	require.NoError(t, err)
	assert.True(t, ImagesEqual(a, b))

	c, err := RotateClockwise(src, 450)
	require.NoError(t, err)
	d, err := RotateClockwise(src, 90)
	require.NoError(t, err)
	assert.True(t, ImagesEqual(c, d))
}

func TestRotateClockwise_RejectsOddAngles(t *testing.T) {
	_, err := RotateClockwise(markedImage(2, 2), 45)
	require.Error(t, err)
	var ipe *ImageProcessingError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "rotate", ipe.Operation)
}

func TestImagesEqual(t *testing.T) {
	a := markedImage(4, 4)
	b := markedImage(4, 4)
	assert.True(t, ImagesEqual(a, b))

	b.Set(2, 2, color.NRGBA{1, 2, 3, 255})
	assert.False(t, ImagesEqual(a, b))

	assert.False(t, ImagesEqual(markedImage(4, 4), markedImage(4, 5)))
}

func TestScaleDownToMaxSide(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 400, 100))

	out, err := ScaleDownToMaxSide(img, 200)
	require.NoError(t, err)
	assert.Equal(t, 200, out.Bounds().Dx())
	assert.Equal(t, 50, out.Bounds().Dy())

	same, err := ScaleDownToMaxSide(img, 0)
	require.NoError(t, err)
	assert.Same(t, img, same)

	_, err = ScaleDownToMaxSide(nil, 10)
	require.Error(t, err)
}

func TestFlatten(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	out := Flatten(img)
	r, g, b, a := out.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), g)
	assert.Equal(t, uint32(0xffff), b)
	assert.Equal(t, uint32(0xffff), a)
}
