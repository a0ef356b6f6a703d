package pipeline

import (
	"github.com/MeKo-Tech/heic2txt/internal/engine"
	"github.com/MeKo-Tech/heic2txt/internal/textutil"
)

// ImageResult is the recognition output for one decoded image.
type ImageResult struct {
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	Text        string        `json:"text"`
	Confidence  float64       `json:"confidence"`
	Lines       []engine.Line `json:"lines,omitempty"`
	Orientation struct {
		Angle      int     `json:"angle"`
		Confidence float64 `json:"confidence"`
		Applied    bool    `json:"applied"`
		Scores     [4]int  `json:"scores"` // alnum counts at 0, 90, 180 and 270 degrees
	} `json:"orientation"`
	Processing struct {
		PreprocessNs  int64 `json:"preprocess_ns"`
		OrientationNs int64 `json:"orientation_ns"`
		RecognitionNs int64 `json:"recognition_ns"`
		TotalNs       int64 `json:"total_ns"`
	} `json:"processing"`
}

// FileResult describes one processed input file.
type FileResult struct {
	Input  string `json:"input"`
	Output string `json:"output"`
	Engine string `json:"engine"`
	// NoText is set when nothing was recognized and the placeholder was written.
	NoText    bool           `json:"no_text"`
	Stats     textutil.Stats `json:"stats"`
	Artifacts []string       `json:"artifacts,omitempty"`
	Image     *ImageResult   `json:"image"`
	ConvertNs int64          `json:"convert_ns"`
	TotalNs   int64          `json:"total_ns"`
}

// Text returns the recognized text, empty when nothing was read.
func (r *FileResult) Text() string {
	if r == nil || r.Image == nil {
		return ""
	}
	return r.Image.Text
}
