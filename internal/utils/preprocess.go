package utils

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// MorphologicalOp represents the type of morphological operation to perform.
type MorphologicalOp int

const (
	MorphNone MorphologicalOp = iota
	MorphDilate
	MorphErode
	MorphOpening // Erode then Dilate - removes small noise
	MorphClosing // Dilate then Erode - fills gaps
)

// PreprocessOptions controls the binarization applied before recognition.
type PreprocessOptions struct {
	Invert      bool    `json:"invert"`
	BlockSize   int     `json:"block_size"`   // odd neighborhood size for the adaptive threshold
	C           float64 `json:"c"`            // constant subtracted from the weighted mean
	CloseKernel int     `json:"close_kernel"` // 0 or 1 disables closing
	OpenKernel  int     `json:"open_kernel"`  // 0 or 1 disables opening
}

// DefaultPreprocessOptions returns the settings tuned for photographed screens and documents.
func DefaultPreprocessOptions() PreprocessOptions {
	return PreprocessOptions{
		Invert:      true,
		BlockSize:   11,
		C:           2,
		CloseKernel: 1,
		OpenKernel:  2,
	}
}

// Validate checks the options for values the threshold cannot use.
func (o PreprocessOptions) Validate() error {
	if o.BlockSize < 3 || o.BlockSize%2 == 0 {
		return fmt.Errorf("block size must be an odd number >= 3, got %d", o.BlockSize)
	}
	if o.CloseKernel < 0 || o.OpenKernel < 0 {
		return errors.New("morphology kernel sizes must not be negative")
	}
	return nil
}

// Preprocess converts img to a binarized grayscale image:
// grayscale, optional inversion, adaptive Gaussian threshold, closing, opening.
func Preprocess(img image.Image, opts PreprocessOptions) (*image.Gray, error) {
	if img == nil {
		return nil, &ImageProcessingError{Operation: "preprocess", Err: errors.New("input image is nil")}
	}
	if err := opts.Validate(); err != nil {
		return nil, &ImageProcessingError{Operation: "preprocess", Err: err}
	}

	gray := ToGray(img)
	if opts.Invert {
		gray = Invert(gray)
	}
	out := AdaptiveThresholdGaussian(gray, opts.BlockSize, opts.C)
	out = ApplyMorphology(out, MorphClosing, opts.CloseKernel)
	out = ApplyMorphology(out, MorphOpening, opts.OpenKernel)
	return out, nil
}

// AdaptiveThresholdGaussian binarizes src against a Gaussian-weighted local mean.
// A pixel becomes 255 when it exceeds mean-c over its blockSize neighborhood, otherwise 0.
// Borders are replicated.
func AdaptiveThresholdGaussian(src *image.Gray, blockSize int, c float64) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}

	kernel := gaussianKernel(blockSize)
	half := blockSize / 2

	// Separable blur: horizontal pass into tmp, then vertical pass.
	tmp := make([]float64, w*h)
	for y := range h {
		row := src.Pix[y*src.Stride : y*src.Stride+w]
		for x := range w {
			var sum float64
			for k := -half; k <= half; k++ {
				sum += kernel[k+half] * float64(row[clampInt(x+k, 0, w-1)])
			}
			tmp[y*w+x] = sum
		}
	}

	for y := range h {
		for x := range w {
			var mean float64
			for k := -half; k <= half; k++ {
				mean += kernel[k+half] * tmp[clampInt(y+k, 0, h-1)*w+x]
			}
			v := float64(src.Pix[y*src.Stride+x])
			if v > mean-c {
				dst.Pix[y*dst.Stride+x] = 255
			}
		}
	}
	return dst
}

// gaussianKernel returns normalized 1D Gaussian weights using the sigma rule
// sigma = 0.3*((n-1)*0.5 - 1) + 0.8.
func gaussianKernel(n int) []float64 {
	sigma := 0.3*(float64(n-1)*0.5-1) + 0.8
	k := make([]float64, n)
	half := n / 2
	var sum float64
	for i := range n {
		d := float64(i - half)
		k[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// ApplyMorphology applies a morphological operation with a square kernel of size kernelSize.
// Kernel sizes below 2 leave the image unchanged.
func ApplyMorphology(src *image.Gray, op MorphologicalOp, kernelSize int) *image.Gray {
	if op == MorphNone || kernelSize <= 1 {
		return src
	}
	switch op {
	case MorphDilate:
		return dilateGray(src, kernelSize)
	case MorphErode:
		return erodeGray(src, kernelSize)
	case MorphOpening:
		return dilateGray(erodeGray(src, kernelSize), kernelSize)
	case MorphClosing:
		return erodeGray(dilateGray(src, kernelSize), kernelSize)
	}
	return src
}

// kernelSpan returns the inclusive offsets of a square kernel anchored at its center.
func kernelSpan(kernelSize int) (int, int) {
	lo := -(kernelSize / 2)
	return lo, lo + kernelSize - 1
}

// dilateGray expands bright regions.
func dilateGray(src *image.Gray, kernelSize int) *image.Gray {
	return morphGray(src, kernelSize, func(cur, v uint8) bool { return v > cur }, 0)
}

// erodeGray shrinks bright regions.
func erodeGray(src *image.Gray, kernelSize int) *image.Gray {
	return morphGray(src, kernelSize, func(cur, v uint8) bool { return v < cur }, 255)
}

func morphGray(src *image.Gray, kernelSize int, better func(cur, v uint8) bool, init uint8) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	lo, hi := kernelSpan(kernelSize)

	for y := range h {
		for x := range w {
			val := init
			for ky := lo; ky <= hi; ky++ {
				ny := y + ky
				if ny < 0 || ny >= h {
					continue
				}
				for kx := lo; kx <= hi; kx++ {
					nx := x + kx
					if nx < 0 || nx >= w {
						continue
					}
					if v := src.Pix[ny*src.Stride+nx]; better(val, v) {
						val = v
					}
				}
			}
			dst.Pix[y*dst.Stride+x] = val
		}
	}
	return dst
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
