package utils

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filledGray(w, h int, v uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for i := range g.Pix {
		g.Pix[i] = v
	}
	return g
}

func TestGaussianKernel_Normalized(t *testing.T) {
	k := gaussianKernel(11)
	require.Len(t, k, 11)
	var sum float64
	for _, v := range k {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, k[5], k[0])
	assert.InDelta(t, k[0], k[10], 1e-12)
}

func TestAdaptiveThresholdGaussian_Uniform(t *testing.T) {
	// A flat image sits above mean-C everywhere.
	out := AdaptiveThresholdGaussian(filledGray(20, 20, 120), 11, 2)
	for _, v := range out.Pix {
		assert.Equal(t, uint8(255), v)
	}
}

func TestAdaptiveThresholdGaussian_DarkStroke(t *testing.T) {
	src := filledGray(30, 30, 230)
	for x := 5; x < 25; x++ {
		src.SetGray(x, 15, color.Gray{Y: 10})
	}

	out := AdaptiveThresholdGaussian(src, 11, 2)
	assert.Equal(t, uint8(0), out.GrayAt(10, 15).Y)
	assert.Equal(t, uint8(255), out.GrayAt(10, 2).Y)
}

func TestApplyMorphology_OpeningRemovesSpeck(t *testing.T) {
	src := filledGray(10, 10, 0)
	src.SetGray(5, 5, color.Gray{Y: 255})

	out := ApplyMorphology(src, MorphOpening, 2)
	for _, v := range out.Pix {
		assert.Equal(t, uint8(0), v)
	}
}

func TestApplyMorphology_ClosingFillsHole(t *testing.T) {
	src := filledGray(10, 10, 255)
	src.SetGray(5, 5, color.Gray{Y: 0})

	out := ApplyMorphology(src, MorphClosing, 3)
	assert.Equal(t, uint8(255), out.GrayAt(5, 5).Y)
}

func TestApplyMorphology_SmallKernelIsNoop(t *testing.T) {
	src := filledGray(4, 4, 77)
	assert.Same(t, src, ApplyMorphology(src, MorphClosing, 1))
	assert.Same(t, src, ApplyMorphology(src, MorphNone, 5))
}

func TestPreprocess_InvertsDarkTextToBright(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for y := range 40 {
		for x := range 40 {
			img.Set(x, y, color.White)
		}
	}
	for x := 10; x < 30; x++ {
		for y := 19; y < 22; y++ {
			img.Set(x, y, color.Black)
		}
	}

	out, err := Preprocess(img, DefaultPreprocessOptions())
	require.NoError(t, err)
	// After inversion the stroke is the bright feature.
	assert.Equal(t, uint8(255), out.GrayAt(20, 20).Y)
}

func TestPreprocessOptions_Validate(t *testing.T) {
	require.NoError(t, DefaultPreprocessOptions().Validate())

	opts := DefaultPreprocessOptions()
	opts.BlockSize = 10
	require.Error(t, opts.Validate())

	opts = DefaultPreprocessOptions()
	opts.OpenKernel = -1
	require.Error(t, opts.Validate())

	_, err := Preprocess(nil, DefaultPreprocessOptions())
	require.Error(t, err)
}
