// Package engine provides a uniform call surface over the external OCR
// engines. Handles are created explicitly with New and must be closed by the caller.
package engine

import (
	"context"
	"image"
	"time"

	"github.com/MeKo-Tech/heic2txt/internal/vocabulary"
)

// Engine names.
const (
	Tesseract = "tesseract"
	EasyOCR   = "easyocr"
	PaddleOCR = "paddleocr"
	Vision    = "vision"
)

// Capabilities declares which optional request features an engine honors.
// Features an engine does not declare are dropped by the Adapter.
type Capabilities struct {
	FastMode   bool `json:"fast_mode"`
	Vocabulary bool `json:"vocabulary"`
	Language   bool `json:"language"`
	GPU        bool `json:"gpu"`
}

// Request carries per-call recognition hints.
type Request struct {
	// Fast selects a low-overhead pass suitable for orientation probing.
	Fast bool
	// Vocabulary biases recognition towards domain terms; nil means no hints.
	Vocabulary *vocabulary.List
}

// Line is one recognized text line.
type Line struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Result is the outcome of one recognition call.
type Result struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Lines      []Line  `json:"lines,omitempty"`
}

// Engine recognizes text in images.
type Engine interface {
	Name() string
	Capabilities() Capabilities
	Recognize(ctx context.Context, img image.Image, req Request) (Result, error)
	Close() error
}

// Options configures an engine at creation time.
type Options struct {
	Language string
	GPU      bool
	// Python is the interpreter used by Python-backed engines.
	Python string
	// InitTimeout bounds engine start-up, including model downloads.
	InitTimeout time.Duration
	// MinConfidence drops lines below this confidence for engines that report one.
	MinConfidence float64
	// EasyOCR detector thresholds.
	EasyOCR EasyOCRParams
}

// DefaultOptions returns options matching the engines' tuned defaults.
func DefaultOptions() Options {
	return Options{
		Language:      "en",
		InitTimeout:   5 * time.Minute,
		MinConfidence: 0.5,
		EasyOCR:       DefaultEasyOCRParams(),
	}
}

// joinLines builds result text from lines at or above minConf and returns their mean confidence.
func joinLines(lines []Line, minConf float64) Result {
	kept := make([]Line, 0, len(lines))
	var sum float64
	for _, l := range lines {
		if l.Confidence < minConf || l.Text == "" {
			continue
		}
		kept = append(kept, l)
		sum += l.Confidence
	}
	res := Result{Lines: kept}
	for i, l := range kept {
		if i > 0 {
			res.Text += "\n"
		}
		res.Text += l.Text
	}
	if len(kept) > 0 {
		res.Confidence = sum / float64(len(kept))
	}
	return res
}
